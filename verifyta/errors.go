package verifyta

import (
	"errors"
	"fmt"
)

var (
	// ErrPathNotSet is returned when a Client has no verifyta binary.
	ErrPathNotSet = errors.New("verifyta path not set")
	// ErrTracerNotSet is returned by TraceText when no tracer binary was
	// configured.
	ErrTracerNotSet = errors.New("tracer path not set")
)

// VerificationError reports a failed invocation of verifyta or the tracer.
type VerificationError struct {
	Cmd    string
	Output string
	Err    error
}

func (e *VerificationError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s: %v", e.Cmd, e.Err)
	}
	return fmt.Sprintf("%s: %v\n%s", e.Cmd, e.Err, e.Output)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}
