// Package export renders sessions as human-readable text and runs the
// retention sweep that archives and purges old sessions.
package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/RCushmaniii/filesense/internal/model"
	"github.com/RCushmaniii/filesense/internal/service"
)

const (
	headerRule  = "========================================"
	sectionRule = "----------------------------------------"
	timeLayout  = "2006-01-02 15:04:05"
)

// Exporter produces deterministic plain-text renderings of session logs.
// Rendering is a read-only projection; it is safe to call repeatedly.
type Exporter struct {
	storage service.Storage
}

// NewExporter creates an exporter over the given journal store.
func NewExporter(storage service.Storage) *Exporter {
	return &Exporter{storage: storage}
}

// Export renders the full session log as text.
func (e *Exporter) Export(ctx context.Context, sessionID string) (string, error) {
	log, err := e.storage.GetSessionLog(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return Render(log), nil
}

// Render formats a session log into the fixed plain-text layout.
func Render(log *model.SessionLog) string {
	var b strings.Builder

	b.WriteString(headerRule + "\n")
	b.WriteString("FileSense Activity Log\n")
	b.WriteString(headerRule + "\n\n")

	s := log.Session
	fmt.Fprintf(&b, "Session ID: %s\n", s.ID)
	fmt.Fprintf(&b, "Started: %s\n", s.StartedAt.UTC().Format(timeLayout))
	if s.CompletedAt != nil {
		fmt.Fprintf(&b, "Completed: %s\n", s.CompletedAt.UTC().Format(timeLayout))
	}
	fmt.Fprintf(&b, "Status: %s\n", s.Status)
	if s.SelectedMode != "" {
		fmt.Fprintf(&b, "Mode: %s\n", s.SelectedMode)
	}
	fmt.Fprintf(&b, "\nOperations: %d total, %d successful, %d failed\n\n",
		s.TotalOps, s.SuccessfulOps, s.FailedOps)

	b.WriteString("Operations:\n")
	b.WriteString(sectionRule + "\n")
	for _, op := range log.Operations {
		fmt.Fprintf(&b, "[%d] %s - %s\n", op.OpID, op.Type, describeStatus(op))
		if op.SourcePath != "" {
			fmt.Fprintf(&b, "  From: %s\n", op.SourcePath)
		}
		if op.DestinationPath != "" {
			fmt.Fprintf(&b, "  To: %s\n", op.DestinationPath)
		}
		if op.DocumentType != "" {
			fmt.Fprintf(&b, "  Classified as: %s (%.0f%%)\n", op.DocumentType, op.Confidence*100)
		}
		if op.RolledBackAt != nil {
			fmt.Fprintf(&b, "  Rolled back: %s\n", op.RolledBackAt.UTC().Format(timeLayout))
		}
		if op.ErrorMessage != "" {
			fmt.Fprintf(&b, "  Error: %s\n", op.ErrorMessage)
		}
		b.WriteString("\n")
	}

	if len(log.Errors) > 0 {
		b.WriteString("\nErrors:\n")
		b.WriteString(sectionRule + "\n")
		for _, rec := range log.Errors {
			severity := string(rec.Severity)
			if severity == "" {
				severity = "unknown"
			}
			message := rec.Message
			if message == "" {
				message = "no message"
			}
			fmt.Fprintf(&b, "[%s] %s: %s\n", rec.Code, severity, message)
			if rec.FilePath != "" {
				fmt.Fprintf(&b, "  File: %s\n", rec.FilePath)
			}
			if rec.Resolved {
				fmt.Fprintf(&b, "  Resolved: %s\n", rec.Resolution)
			}
		}
	}

	return b.String()
}

// describeStatus renders an operation status, flagging pending rows of a
// crashed run as unknown outcome rather than guessing which side of the
// mutation the process died on.
func describeStatus(op model.Operation) string {
	if op.Status == model.OpPending {
		return "pending (unknown outcome)"
	}
	return string(op.Status)
}

// FormatAge renders how long ago a timestamp was, for list views.
func FormatAge(t time.Time, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
