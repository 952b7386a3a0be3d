package adnl

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// TL constructor ids, little-endian:
// tcp.ping random_id:long = tcp.Pong (0x4d082b9a) and
// tcp.pong random_id:long = tcp.Pong (0xdc69fb03).
var (
	tcpPingID = [4]byte{0x9a, 0x2b, 0x08, 0x4d}
	tcpPongID = [4]byte{0x03, 0xfb, 0x69, 0xdc}
)

const pingSize = 12

// MarshalPing serializes a tcp.ping message.
func MarshalPing(id uint64) []byte {
	return marshalPingPong(tcpPingID, id)
}

// MarshalPong serializes a tcp.pong message.
func MarshalPong(id uint64) []byte {
	return marshalPingPong(tcpPongID, id)
}

// ParsePing returns the random id of a tcp.ping message.
func ParsePing(b []byte) (uint64, error) {
	return parsePingPong(tcpPingID, b)
}

// ParsePong returns the random id of a tcp.pong message.
func ParsePong(b []byte) (uint64, error) {
	return parsePingPong(tcpPongID, b)
}

func marshalPingPong(tag [4]byte, id uint64) []byte {
	b := make([]byte, pingSize)
	copy(b, tag[:])
	binary.LittleEndian.PutUint64(b[4:], id)
	return b
}

func parsePingPong(tag [4]byte, b []byte) (uint64, error) {
	if len(b) != pingSize || !bytes.Equal(b[:4], tag[:]) {
		return 0, ErrUnexpectedMessage
	}
	return binary.LittleEndian.Uint64(b[4:]), nil
}

// Ping sends tcp.ping and waits for the matching tcp.pong, returning the
// round-trip time. It must not run concurrently with Receive.
func (s *Session) Ping(ctx context.Context) (time.Duration, error) {
	var idb [8]byte
	if _, err := io.ReadFull(s.rand, idb[:]); err != nil {
		return 0, fmt.Errorf("generate ping id: %w", err)
	}
	id := binary.LittleEndian.Uint64(idb[:])

	if d, ok := ctx.Deadline(); ok {
		if err := s.conn.SetDeadline(d); err != nil {
			return 0, err
		}
	}
	// Runs after release, so a cancellation landing late cannot leave the
	// session with an expired deadline.
	defer s.conn.SetDeadline(time.Time{})
	release := interruptOnCancel(ctx, s.conn)
	defer release()

	start := time.Now()
	if err := s.Send(MarshalPing(id)); err != nil {
		return 0, err
	}

	reply, err := s.Receive()
	release()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		if _, ok := ctx.Deadline(); ok && isTimeout(err) {
			return 0, fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
		return 0, err
	}

	got, err := ParsePong(reply)
	if err != nil {
		return 0, err
	}
	if got != id {
		return 0, fmt.Errorf("%w: pong id %x, want %x", ErrUnexpectedMessage, got, id)
	}
	return time.Since(start), nil
}
