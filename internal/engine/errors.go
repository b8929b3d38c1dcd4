package engine

import (
	"errors"
	"fmt"
)

// ErrUnavailable means the engine executable did not respond to the liveness
// probe. Sessions treat it as fatal and do not retry.
var ErrUnavailable = errors.New("analysis engine unavailable")

// ErrTimeout means the engine subprocess exceeded its wall-clock bound and
// was killed. No partial output is trusted.
var ErrTimeout = errors.New("analysis engine timed out")

// OutputErrorKind distinguishes the ways engine output can be unusable
type OutputErrorKind string

const (
	// OutputExitFailure: the process exited non-zero
	OutputExitFailure OutputErrorKind = "exit-failure"
	// OutputNoJSON: a zero exit but no JSON object found in the output
	OutputNoJSON OutputErrorKind = "no-json"
	// OutputSchemaInvalid: JSON found but it violates the result contract
	OutputSchemaInvalid OutputErrorKind = "schema-invalid"
)

// OutputError reports unusable engine output. The kind is never silently
// coerced; validation failures stay distinct from parse failures.
type OutputError struct {
	Kind   OutputErrorKind
	Detail string
	Err    error
}

func (e *OutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("engine output error (%s): %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("engine output error (%s): %s", e.Kind, e.Detail)
}

func (e *OutputError) Unwrap() error {
	return e.Err
}
