// Package faults defines the error taxonomy shared by the chatbot pipeline.
package faults

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// ErrEmptyInput marks operations that received no data to work on, such as
// chunking an empty record set or building a retrieval index from zero
// chunks. Callers must surface it; the pipeline cannot proceed without data.
var ErrEmptyInput = errors.New("empty input")

// ServiceError wraps a failed call to an external model service. Timeout is
// set when the failure was a deadline rather than a hard error, so callers
// can report the two distinctly.
type ServiceError struct {
	Service string
	Op      string
	Timeout bool
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s service timeout: %s: %v", e.Service, e.Op, e.Err)
	}
	return fmt.Sprintf("%s service error: %s: %v", e.Service, e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Service wraps err as a ServiceError for the named service and operation,
// detecting timeouts from the underlying error chain.
func Service(service, op string, err error) error {
	if err == nil {
		return nil
	}
	return &ServiceError{
		Service: service,
		Op:      op,
		Timeout: isTimeout(err),
		Err:     err,
	}
}

// IsService reports whether err is (or wraps) a ServiceError.
func IsService(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}

// IsTimeout reports whether err is a timeout-tagged ServiceError.
func IsTimeout(err error) bool {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Timeout
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return os.IsTimeout(err)
}
