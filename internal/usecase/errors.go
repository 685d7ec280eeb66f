package usecase

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"api-probe/internal/domain"
)

type ErrorCode string

// ErrorRequestFailed is the only failure category a probe reports.
const ErrorRequestFailed ErrorCode = "REQUEST_FAILED"

const (
	reasonCredential = "credential_error"
	reasonClient     = "client_error"
	reasonChat       = "chat_error"
	reasonPanic      = "panic"
	reasonConfig     = "config_error"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// newError records the caller's stack on err so the rendered trace can show
// where the probe failed.
func newError(reason string, err error) *Error {
	return &Error{Code: ErrorRequestFailed, Reason: reason, Err: pkgerrors.WithStack(err)}
}

// ConfigFailure reports a probe that could not be assembled at all, so the
// binaries can render it like any other failed run.
func ConfigFailure(endpoint string, err error) domain.Report {
	return domain.Report{
		Endpoint: endpoint,
		Err:      newError(reasonConfig, err),
	}
}
