package internal

import (
	"errors"
	"fmt"
)

// ErrNoChoices is returned when a completion succeeds but carries no choices
var ErrNoChoices = errors.New("completion returned no choices")

// StorageError represents errors accessing session or state files
type StorageError struct {
	Path string
	Op   string // "append", "read", "tail", "list", "delete"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned when a session id has no log file
type NotFoundError struct {
	SessionID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session not found: %s", e.SessionID)
}

// EmptyFileError is returned when a session log exists but holds no records
type EmptyFileError struct {
	SessionID string
}

func (e *EmptyFileError) Error() string {
	return fmt.Sprintf("session log is empty: %s", e.SessionID)
}

// CorruptRecordError represents a record line that could not be decoded on replay
type CorruptRecordError struct {
	SessionID string
	Line      int    // zero-based line number in the log
	Kind      string // "metadata", "system", "turn"
	Err       error
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt %s record [%s] line %d: %v", e.Kind, e.SessionID, e.Line, e.Err)
}

func (e *CorruptRecordError) Unwrap() error {
	return e.Err
}

// CompletionError wraps failures raised at the completion API boundary
type CompletionError struct {
	Model string
	Err   error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion error [%s]: %v", e.Model, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err signals a missing session
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsCorrupt reports whether err signals a malformed session log
func IsCorrupt(err error) bool {
	var ce *CorruptRecordError
	var ee *EmptyFileError
	return errors.As(err, &ce) || errors.As(err, &ee)
}
