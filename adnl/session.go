package adnl

import (
	"crypto/cipher"
	"crypto/ed25519"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Session is an established ADNL TCP session. One goroutine may Send
// while another Receives; each direction is serialized internally.
//
// Any read or integrity failure closes the session: the stream cipher
// position is lost and the peer must be reconnected from scratch.
type Session struct {
	conn      net.Conn
	remoteKey ed25519.PublicKey
	rand      io.Reader

	rmu    sync.Mutex
	reader io.Reader

	wmu sync.Mutex
	out cipher.Stream

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func newSession(conn net.Conn, in, out cipher.Stream, remoteKey ed25519.PublicKey, r io.Reader) *Session {
	return &Session{
		conn:      conn,
		remoteKey: remoteKey,
		rand:      r,
		reader:    cipher.StreamReader{S: in, R: conn},
		out:       out,
	}
}

// Send writes payload as one encrypted frame.
func (s *Session) Send(payload []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	if s.closed.Load() {
		return ErrSessionClosed
	}

	frame, err := EncodePacket(s.rand, payload)
	if err != nil {
		return err
	}
	s.out.XORKeyStream(frame, frame)

	if _, err := s.conn.Write(frame); err != nil {
		// The outbound stream already advanced past this frame.
		s.Close()
		return fmt.Errorf("adnl write %s: %w", s.remoteAddr(), err)
	}
	return nil
}

// Receive reads and verifies the next frame and returns its payload.
func (s *Session) Receive() ([]byte, error) {
	s.rmu.Lock()
	defer s.rmu.Unlock()

	if s.closed.Load() {
		return nil, ErrSessionClosed
	}

	p, err := DecodePacket(s.reader)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Receive",
			"addr":     s.remoteAddr(),
			"error":    err.Error(),
		}).Warn("Closing ADNL session after read failure")
		s.Close()
		return nil, err
	}
	return p.Payload, nil
}

// SetDeadline sets read and write deadlines on the underlying connection.
func (s *Session) SetDeadline(t time.Time) error {
	return s.conn.SetDeadline(t)
}

// RemoteAddr returns the server address.
func (s *Session) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

// LocalAddr returns the local address.
func (s *Session) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// RemoteKey returns the public key the session was opened against.
func (s *Session) RemoteKey() ed25519.PublicKey {
	return s.remoteKey
}

// Closed reports whether the session has been closed.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Close closes the underlying connection. It is safe to call repeatedly.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

func (s *Session) remoteAddr() string {
	if ra := s.conn.RemoteAddr(); ra != nil {
		return ra.String()
	}
	return ""
}
