package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RCushmaniii/filesense/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidOpType   = errors.New("invalid operation type")
	ErrInvalidSeverity = errors.New("invalid error severity")
	ErrInvalidLimit    = errors.New("limit must be positive")
	ErrInvalidOpID     = errors.New("op_id must be positive")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateOperationRequest validates the payload for a new journal entry.
func validateOperationRequest(req model.OperationRequest) error {
	if !req.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidOpType, req.Type)
	}
	return nil
}

// validateErrorRecord validates a new error record.
func validateErrorRecord(rec model.ErrorRecord) error {
	if err := validateString(rec.SessionID, "sessionID"); err != nil {
		return err
	}
	if err := validateString(rec.Code, "code"); err != nil {
		return err
	}
	if rec.Severity != "" && !rec.Severity.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSeverity, rec.Severity)
	}
	return nil
}
