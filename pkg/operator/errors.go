package operator

import "fmt"

// Code classifies execution errors so the query layer can tell user
// errors apart from driver bugs and infrastructure failures.
type Code int

const (
	// CodeInternal marks engine bugs (broken internal invariants).
	CodeInternal Code = iota

	// CodeProtocolViolation marks driver bugs: a protocol method was
	// called in a state that forbids it. Fatal to the pipeline.
	CodeProtocolViolation

	// CodeSubqueryMultipleRows is the user-visible failure for a scalar
	// subquery yielding more than one row.
	CodeSubqueryMultipleRows

	// CodeSerialization marks failures in the external page codec.
	CodeSerialization
)

func (c Code) String() string {
	switch c {
	case CodeProtocolViolation:
		return "PROTOCOL_VIOLATION"
	case CodeSubqueryMultipleRows:
		return "SUBQUERY_MULTIPLE_ROWS"
	case CodeSerialization:
		return "SERIALIZATION_FAILED"
	default:
		return "INTERNAL"
	}
}

// ExecError is an execution failure with a stable code category.
type ExecError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *ExecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ExecError) Unwrap() error {
	return e.Cause
}

// Is matches on the error code, so errors.Is(err, &ExecError{Code: c})
// classifies without comparing messages.
func (e *ExecError) Is(target error) bool {
	t, ok := target.(*ExecError)
	return ok && t.Code == e.Code
}

// ErrSubqueryMultipleRows is the target for errors.Is checks on the
// scalar subquery cardinality failure.
var ErrSubqueryMultipleRows = &ExecError{
	Code:    CodeSubqueryMultipleRows,
	Message: "scalar sub-query has returned multiple rows",
}

// NewSubqueryMultipleRowsError reports a scalar subquery that produced
// more than one row. This is a user-facing query failure, not an
// engine bug.
func NewSubqueryMultipleRowsError() error {
	return &ExecError{
		Code:    CodeSubqueryMultipleRows,
		Message: "scalar sub-query has returned multiple rows",
	}
}

// NewProtocolViolation reports a driver bug: a protocol method called
// in a state that forbids it.
func NewProtocolViolation(format string, args ...any) error {
	return &ExecError{
		Code:    CodeProtocolViolation,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewInternalError reports a broken internal invariant.
func NewInternalError(format string, args ...any) error {
	return &ExecError{
		Code:    CodeInternal,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewSerializationError wraps a page codec failure. Fatal to the
// containing pipeline; never retried here.
func NewSerializationError(msg string, cause error) error {
	return &ExecError{
		Code:    CodeSerialization,
		Message: msg,
		Cause:   cause,
	}
}
