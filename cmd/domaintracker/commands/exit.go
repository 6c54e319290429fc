package commands

import (
	"errors"

	"github.com/JacobBogossian/DomainTracker/internal/model"
	"github.com/JacobBogossian/DomainTracker/internal/reconcile"
)

// Process exit codes
const (
	ExitOK           = 0
	ExitFailure      = 1 // usage errors and anything not listed below
	ExitStoreConnect = 2
	ExitFetch        = 3
	ExitStore        = 4 // store read or write failed on an open store
)

// An error type that includes an exit code
type ExitError struct {
	Code int
	Err  error
}

// Implement the error interface
func (e *ExitError) Error() string {
	return e.Err.Error()
}
func (e *ExitError) Unwrap() error {
	return e.Err
}

func ExitWithCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{
		Code: code,
		Err:  err,
	}
}

// ExitCode returns the process exit code for an error returned by Execute
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ExitCodeFor classifies a store or reconciliation error
func ExitCodeFor(err error) int {
	if errors.Is(err, model.ErrStoreConnect) {
		return ExitStoreConnect
	}

	var stageErr *reconcile.StageError
	if errors.As(err, &stageErr) {
		switch stageErr.Stage {
		case reconcile.StageFetch:
			return ExitFetch
		case reconcile.StageRead, reconcile.StageWriteAdded, reconcile.StageWriteRemoved:
			return ExitStore
		}
	}
	return ExitFailure
}
