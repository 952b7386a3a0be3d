// Package adnltest provides an in-process liteserver for tests. It speaks
// the server side of the ADNL TCP handshake on a loopback listener and
// answers tcp.ping with tcp.pong, echoing every other payload.
package adnltest

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"net"
	"sync"
	"time"

	"github.com/opd-ai/liteclient/adnl"
	"github.com/opd-ai/liteclient/directory"
	"github.com/opd-ai/liteclient/limits"
	"github.com/sirupsen/logrus"
)

// Mode selects how the server treats incoming handshakes.
type Mode int

const (
	// Accept completes the handshake and serves the session.
	Accept Mode = iota
	// Reject reads the handshake packet and closes the connection.
	Reject
	// Silent reads the handshake packet and never answers.
	Silent
	// CorruptConfirm answers with bytes that do not decrypt to a frame.
	CorruptConfirm
	// WrongConfirm answers with a valid frame that is not empty.
	WrongConfirm
)

// Server is a fake liteserver listening on 127.0.0.1.
type Server struct {
	mode     Mode
	key      ed25519.PrivateKey
	pub      ed25519.PublicKey
	listener net.Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	conns      map[net.Conn]struct{}
	handshakes int
	sessions   []*adnl.Session
}

// NewServer starts a server with a fresh key.
func NewServer(mode Mode) (*Server, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return NewServerWithKey(mode, priv)
}

// NewServerWithKey starts a server with the given long-term key.
func NewServerWithKey(mode Mode, key ed25519.PrivateKey) (*Server, error) {
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		mode:     mode,
		key:      key,
		pub:      key.Public().(ed25519.PublicKey),
		listener: l,
		ctx:      ctx,
		cancel:   cancel,
		conns:    make(map[net.Conn]struct{}),
	}

	s.wg.Add(1)
	go s.acceptConnections()
	return s, nil
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// PublicKey returns the server's long-term key.
func (s *Server) PublicKey() ed25519.PublicKey {
	return s.pub
}

// Descriptor describes the server as a directory entry.
func (s *Server) Descriptor() directory.ServerDescriptor {
	tcp := s.listener.Addr().(*net.TCPAddr)
	ip, _ := directory.ParseIPv4(tcp.IP.String())
	return directory.ServerDescriptor{
		Address:   ip,
		Port:      uint16(tcp.Port),
		PublicKey: s.pub,
		KeyType:   directory.KeyTypeEd25519,
	}
}

// Handshakes returns how many handshake packets the server has read.
func (s *Server) Handshakes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handshakes
}

// Sessions returns the server side of every established session.
func (s *Server) Sessions() []*adnl.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*adnl.Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// Close stops the listener and drops every connection.
func (s *Server) Close() error {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	err := s.listener.Close()

	s.mu.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

func (s *Server) acceptConnections() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}

		s.mu.Lock()
		if s.ctx.Err() != nil {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	switch s.mode {
	case Accept:
		s.serve(conn, nil)
		return
	case WrongConfirm:
		s.serve(conn, []byte("not a confirmation"))
		return
	}

	raw := make([]byte, limits.HandshakePacketSize)
	if _, err := io.ReadFull(conn, raw); err != nil {
		return
	}
	s.countHandshake()

	switch s.mode {
	case Silent:
		<-s.ctx.Done()
	case CorruptConfirm:
		junk := make([]byte, 4+limits.MinFrameSize)
		rand.Read(junk)
		conn.Write(junk)
	}
}

func (s *Server) serve(conn net.Conn, confirmation []byte) {
	responder := &adnl.Responder{Key: s.key, Confirmation: confirmation}

	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	session, err := responder.Accept(ctx, conn)
	cancel()
	s.countHandshake()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "serve",
			"error":    err.Error(),
		}).Debug("Fake liteserver handshake failed")
		return
	}

	s.mu.Lock()
	s.sessions = append(s.sessions, session)
	s.mu.Unlock()

	for {
		payload, err := session.Receive()
		if err != nil {
			return
		}
		reply := payload
		if id, err := adnl.ParsePing(payload); err == nil {
			reply = adnl.MarshalPong(id)
		}
		if err := session.Send(reply); err != nil {
			return
		}
	}
}

func (s *Server) countHandshake() {
	s.mu.Lock()
	s.handshakes++
	s.mu.Unlock()
}

// UnusedDescriptor returns a descriptor for a loopback port nothing is
// listening on, so connections to it are refused.
func UnusedDescriptor() (directory.ServerDescriptor, error) {
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return directory.ServerDescriptor{}, err
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return directory.ServerDescriptor{}, err
	}
	return directory.ServerDescriptor{
		Address:   0x7f000001,
		Port:      uint16(port),
		PublicKey: pub,
		KeyType:   directory.KeyTypeEd25519,
	}, nil
}
