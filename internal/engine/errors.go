package engine

import (
	"errors"
	"fmt"
)

// DispatchError marks a failed dispatch. Dispatch failures are fatal to the
// run; every post-dispatch failure mode degrades into a partial result
// instead of an error.
type DispatchError struct {
	Unit int
	Err  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch unit %d: %v", e.Unit, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// IsDispatchError reports whether err wraps a DispatchError.
func IsDispatchError(err error) bool {
	var de *DispatchError
	return errors.As(err, &de)
}
