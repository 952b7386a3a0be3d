package liteclient

import (
	"errors"
	"fmt"
)

// ErrRotationExhausted indicates every connection attempt failed.
var ErrRotationExhausted = errors.New("connection attempts exhausted")

// TransportError reports a failure to open or use the TCP connection to
// a liteserver.
type TransportError struct {
	Op   string // operation that caused the error
	Addr string // liteserver address
	Err  error  // underlying error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("liteclient %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ExhaustedError is returned once the attempt budget is spent. Last is
// the error of the final attempt.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%v after %d attempts: %v", ErrRotationExhausted, e.Attempts, e.Last)
}

// Is matches ErrRotationExhausted.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrRotationExhausted
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}
