package adnl

import (
	"errors"
	"fmt"
)

var (
	// ErrIntegrityMismatch indicates a frame whose checksum did not verify.
	ErrIntegrityMismatch = errors.New("frame checksum mismatch")

	// ErrInvalidServerKey indicates a server key of the wrong length or not
	// on the curve.
	ErrInvalidServerKey = errors.New("invalid server key")

	// ErrHandshakeRejected indicates the server closed the connection or
	// sent an invalid confirmation.
	ErrHandshakeRejected = errors.New("handshake rejected")

	// ErrHandshakeTimeout indicates no confirmation arrived in time.
	ErrHandshakeTimeout = errors.New("handshake timed out")

	// ErrUnknownKeyID indicates a handshake addressed to another key.
	ErrUnknownKeyID = errors.New("handshake addressed to unknown key")

	// ErrDigestMismatch indicates a handshake whose secret does not match
	// its digest, meaning the key agreement failed.
	ErrDigestMismatch = errors.New("handshake digest mismatch")

	// ErrSessionClosed indicates use of a closed session.
	ErrSessionClosed = errors.New("session closed")

	// ErrUnexpectedMessage indicates a reply of the wrong kind.
	ErrUnexpectedMessage = errors.New("unexpected message")
)

// FrameError reports a failure to read or verify one frame.
type FrameError struct {
	Op   string // step that failed
	Size uint32 // size field, if it was read
	Err  error  // underlying error
}

func (e *FrameError) Error() string {
	if e.Size != 0 {
		return fmt.Sprintf("adnl frame %s (size %d): %v", e.Op, e.Size, e.Err)
	}
	return fmt.Sprintf("adnl frame %s: %v", e.Op, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// HandshakeError reports a failed handshake with a server.
type HandshakeError struct {
	Addr string // remote address if known
	Err  error  // one of the handshake sentinels, possibly joined with a cause
}

func (e *HandshakeError) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("adnl handshake %s: %v", e.Addr, e.Err)
	}
	return fmt.Sprintf("adnl handshake: %v", e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

func newHandshakeError(addr string, kind, cause error) *HandshakeError {
	if cause == nil {
		return &HandshakeError{Addr: addr, Err: kind}
	}
	return &HandshakeError{Addr: addr, Err: fmt.Errorf("%w: %w", kind, cause)}
}
