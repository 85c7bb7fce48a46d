package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/RCushmaniii/filesense/internal/common"
	"github.com/RCushmaniii/filesense/internal/model"
)

func TestLogOperationAssignsContiguousOpIDs(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	session := createTestSession(t, store)

	for want := 1; want <= 25; want++ {
		opID, err := store.LogOperation(ctx, session.ID, moveRequest("/a.pdf", "/b/a.pdf"))
		if err != nil {
			t.Fatalf("LogOperation %d failed: %v", want, err)
		}
		if opID != want {
			t.Fatalf("op_id = %d, want %d", opID, want)
		}
	}

	got, err := store.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.TotalOps != 25 {
		t.Errorf("total_operations = %d, want 25", got.TotalOps)
	}
}

func TestLogOperationPayloadRoundTrip(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	session := createTestSession(t, store)
	req := moveRequest("/Downloads/a.pdf", "/Organized/Work/a.pdf")

	opID, err := store.LogOperation(ctx, session.ID, req)
	if err != nil {
		t.Fatalf("LogOperation failed: %v", err)
	}

	op, err := store.GetOperation(ctx, session.ID, opID)
	if err != nil {
		t.Fatalf("GetOperation failed: %v", err)
	}
	if op.Status != model.OpPending {
		t.Errorf("status = %s, want pending", op.Status)
	}
	if op.SourcePath != req.SourcePath || op.DestinationPath != req.DestinationPath {
		t.Errorf("paths = (%q, %q), want (%q, %q)",
			op.SourcePath, op.DestinationPath, req.SourcePath, req.DestinationPath)
	}
	if op.Confidence != req.Confidence || op.SuggestedFolder != req.SuggestedFolder || op.DocumentType != req.DocumentType {
		t.Error("classification metadata not preserved")
	}
	if op.RolledBackAt != nil {
		t.Error("rolled_back_at should start null")
	}
}

func TestLogOperationRejectsTerminalSession(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	session := createTestSession(t, store)
	if err := store.SetSessionStatus(ctx, session.ID, model.SessionCompleted); err != nil {
		t.Fatalf("SetSessionStatus failed: %v", err)
	}

	_, err := store.LogOperation(ctx, session.ID, moveRequest("/a.pdf", "/b/a.pdf"))
	if !errors.Is(err, common.ErrSessionTerminal) {
		t.Fatalf("expected ErrSessionTerminal, got %v", err)
	}
}

func TestLogOperationUnknownSession(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.LogOperation(context.Background(), "missing", moveRequest("/a.pdf", "/b/a.pdf"))
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateOperationStatusCounters(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	session := createTestSession(t, store)

	op1, _ := store.LogOperation(ctx, session.ID, moveRequest("/a.pdf", "/b/a.pdf"))
	op2, _ := store.LogOperation(ctx, session.ID, moveRequest("/c.pdf", "/b/c.pdf"))
	op3, _ := store.LogOperation(ctx, session.ID, moveRequest("/d.pdf", "/b/d.pdf"))

	if err := store.UpdateOperationStatus(ctx, session.ID, op1, model.OpCompleted, ""); err != nil {
		t.Fatalf("complete op1: %v", err)
	}
	if err := store.UpdateOperationStatus(ctx, session.ID, op2, model.OpFailed, "permission denied"); err != nil {
		t.Fatalf("fail op2: %v", err)
	}
	if err := store.UpdateOperationStatus(ctx, session.ID, op3, model.OpSkipped, ""); err != nil {
		t.Fatalf("skip op3: %v", err)
	}

	got, err := store.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.TotalOps != 3 || got.SuccessfulOps != 1 || got.FailedOps != 1 {
		t.Errorf("counters = (%d, %d, %d), want (3, 1, 1)",
			got.TotalOps, got.SuccessfulOps, got.FailedOps)
	}

	failed, err := store.GetOperation(ctx, session.ID, op2)
	if err != nil {
		t.Fatalf("GetOperation failed: %v", err)
	}
	if failed.ErrorMessage != "permission denied" {
		t.Errorf("error_message = %q", failed.ErrorMessage)
	}
}

func TestGetCompletedOperationsDescending(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	session := createTestSession(t, store)
	for i := 0; i < 5; i++ {
		opID, err := store.LogOperation(ctx, session.ID, moveRequest("/a.pdf", "/b/a.pdf"))
		if err != nil {
			t.Fatalf("LogOperation failed: %v", err)
		}
		// Leave op 3 pending so it is excluded from the sweep.
		if opID == 3 {
			continue
		}
		if err := store.UpdateOperationStatus(ctx, session.ID, opID, model.OpCompleted, ""); err != nil {
			t.Fatalf("UpdateOperationStatus failed: %v", err)
		}
	}

	ops, err := store.GetCompletedOperations(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetCompletedOperations failed: %v", err)
	}

	wantOrder := []int{5, 4, 2, 1}
	if len(ops) != len(wantOrder) {
		t.Fatalf("got %d completed ops, want %d", len(ops), len(wantOrder))
	}
	for i, op := range ops {
		if op.OpID != wantOrder[i] {
			t.Errorf("index %d: op_id = %d, want %d", i, op.OpID, wantOrder[i])
		}
	}
}

func TestMarkRolledBack(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	session := createTestSession(t, store)
	opID, _ := store.LogOperation(ctx, session.ID, moveRequest("/a.pdf", "/b/a.pdf"))
	if err := store.UpdateOperationStatus(ctx, session.ID, opID, model.OpCompleted, ""); err != nil {
		t.Fatalf("UpdateOperationStatus failed: %v", err)
	}

	if err := store.MarkRolledBack(ctx, session.ID, opID); err != nil {
		t.Fatalf("MarkRolledBack failed: %v", err)
	}

	op, err := store.GetOperation(ctx, session.ID, opID)
	if err != nil {
		t.Fatalf("GetOperation failed: %v", err)
	}
	if op.Status != model.OpRolledBack {
		t.Errorf("status = %s, want rolled_back", op.Status)
	}
	if op.RolledBackAt == nil {
		t.Error("rolled_back_at not stamped")
	}
}

func TestLogAndResolveError(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	session := createTestSession(t, store)
	opID, _ := store.LogOperation(ctx, session.ID, moveRequest("/a.pdf", "/b/a.pdf"))

	id, err := store.LogError(ctx, model.ErrorRecord{
		SessionID: session.ID,
		OpID:      &opID,
		Code:      "filesystem_error",
		Message:   "disk full",
		FilePath:  "/b/a.pdf",
		Severity:  model.SeverityHigh,
	})
	if err != nil {
		t.Fatalf("LogError failed: %v", err)
	}

	// Session-level error has no op_id.
	if _, err := store.LogError(ctx, model.ErrorRecord{
		SessionID: session.ID,
		Code:      "session_error",
		Severity:  model.SeverityCritical,
	}); err != nil {
		t.Fatalf("session-level LogError failed: %v", err)
	}

	if err := store.ResolveError(ctx, id, "user retried after freeing space"); err != nil {
		t.Fatalf("ResolveError failed: %v", err)
	}

	records, err := store.GetSessionErrors(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSessionErrors failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if first.OpID == nil || *first.OpID != opID {
		t.Errorf("op_id = %v, want %d", first.OpID, opID)
	}
	if !first.Resolved || first.Resolution != "user retried after freeing space" {
		t.Errorf("resolution not recorded: %+v", first)
	}
	if records[1].OpID != nil {
		t.Error("session-level record should have nil op_id")
	}
}
