package core

import "fmt"

// Processing steps reported by ProcessingError.
const (
	StepCreateAccount = "create_account"
	StepLoadAccount   = "load_account"
	StepLoadHistory   = "load_history"
	StepApply         = "apply_transaction"
)

// StorageError wraps an I/O or constraint failure from a storage adapter.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ProcessingError reports the step at which transaction processing failed.
type ProcessingError struct {
	Step string
	Err  error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("transaction processing failed at %s: %v", e.Step, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }
