package liteclient

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/liteclient/adnl"
	"github.com/opd-ai/liteclient/directory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// ConnectionState is the state of a ConnectionManager.
type ConnectionState uint32

const (
	StateIdle ConnectionState = iota
	StateConnecting
	StateHandshaking
	StateEstablished
	StateExhausted
)

func (s ConnectionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateEstablished:
		return "established"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("ConnectionState(%d)", uint32(s))
	}
}

// Dialer opens transport connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Options contains configuration options for a ConnectionManager.
type Options struct {
	// MaxAttempts caps the attempts of one Connect call. Zero or less
	// means three passes over the directory.
	MaxAttempts      int
	DialTimeout      time.Duration
	HandshakeTimeout time.Duration
	// Rand is the entropy source for handshakes and frame nonces.
	Rand   io.Reader
	Dialer Dialer
	// Registerer receives the manager's metrics; nil disables registration.
	Registerer prometheus.Registerer
	// HTTPClient fetches the global config in Dial. Nil uses
	// http.DefaultClient.
	HTTPClient *http.Client
}

// NewOptions returns the default options.
func NewOptions() *Options {
	return &Options{
		MaxAttempts:      0, // three passes over the directory
		DialTimeout:      5 * time.Second,
		HandshakeTimeout: adnl.DefaultHandshakeTimeout,
		Rand:             rand.Reader,
		Dialer:           &net.Dialer{},
	}
}

// ConnectionManager owns a rotation cursor over a liteserver directory and
// turns it into established ADNL sessions.
type ConnectionManager struct {
	mu         sync.Mutex // serializes Connect and guards cursor
	options    Options
	cursor     *directory.Cursor
	handshaker *adnl.Handshaker
	metrics    *Metrics

	state     atomic.Uint32
	attempts  atomic.Int64
	rotations atomic.Int64
}

// New creates a manager over dir. An empty directory is a configuration
// error.
func New(dir *directory.Directory, options *Options) (*ConnectionManager, error) {
	cursor, err := directory.NewCursor(dir)
	if err != nil {
		return nil, err
	}

	opts := *NewOptions()
	if options != nil {
		opts = *options
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3 * dir.Len()
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = adnl.DefaultHandshakeTimeout
	}
	if opts.Rand == nil {
		opts.Rand = rand.Reader
	}
	if opts.Dialer == nil {
		opts.Dialer = &net.Dialer{}
	}

	logrus.WithFields(logrus.Fields{
		"function":     "New",
		"servers":      dir.Len(),
		"max_attempts": opts.MaxAttempts,
	}).Debug("Connection manager created")

	return &ConnectionManager{
		options:    opts,
		cursor:     cursor,
		handshaker: &adnl.Handshaker{Rand: opts.Rand, Timeout: opts.HandshakeTimeout},
		metrics:    newMetrics(opts.Registerer),
	}, nil
}

// State returns the current state.
func (m *ConnectionManager) State() ConnectionState {
	return ConnectionState(m.state.Load())
}

// Attempts returns the number of attempts made by the latest Connect.
func (m *ConnectionManager) Attempts() int {
	return int(m.attempts.Load())
}

// Rotations returns the number of rotations made by the latest Connect.
func (m *ConnectionManager) Rotations() int {
	return int(m.rotations.Load())
}

// Current returns the liteserver the next attempt will use.
func (m *ConnectionManager) Current() directory.ServerDescriptor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor.Current()
}

// Metrics returns the manager's collectors.
func (m *ConnectionManager) Metrics() *Metrics {
	return m.metrics
}

// Connect tries liteservers in rotation order until a handshake completes
// or MaxAttempts attempts have failed. Each call starts a fresh attempt
// budget at the current cursor position; the cursor stays on the server
// that succeeded.
//
// Cancelling ctx abandons the attempt in progress, releases its socket and
// returns the context error without rotating.
func (m *ConnectionManager) Connect(ctx context.Context) (*adnl.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempts.Store(0)
	m.rotations.Store(0)

	for {
		server := m.cursor.Current()
		attempt := int(m.attempts.Add(1))

		start := time.Now()
		session, result, err := m.attempt(ctx, server)
		if err != nil && ctx.Err() != nil {
			result = resultCancelled
		}
		m.metrics.Attempts.WithLabelValues(result).Inc()

		if err == nil {
			m.metrics.HandshakeLatency.Observe(time.Since(start).Seconds())
			m.setState(StateEstablished)
			logrus.WithFields(logrus.Fields{
				"function": "Connect",
				"addr":     server.Addr(),
				"attempt":  attempt,
			}).Info("Connected to liteserver")
			return session, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			m.setState(StateIdle)
			logrus.WithFields(logrus.Fields{
				"function": "Connect",
				"addr":     server.Addr(),
				"error":    ctxErr.Error(),
			}).Info("Connection attempt abandoned")
			return nil, ctxErr
		}

		next := m.cursor.Advance()
		m.rotations.Add(1)
		m.metrics.Rotations.Inc()

		logrus.WithFields(logrus.Fields{
			"function":     "Connect",
			"addr":         server.Addr(),
			"attempt":      attempt,
			"max_attempts": m.options.MaxAttempts,
			"next":         next.Addr(),
			"error":        err.Error(),
		}).Warn("Liteserver connection failed, rotating")

		if attempt >= m.options.MaxAttempts {
			m.setState(StateExhausted)
			m.metrics.Exhausted.Inc()
			logrus.WithFields(logrus.Fields{
				"function": "Connect",
				"attempts": attempt,
				"error":    err.Error(),
			}).Error("All liteserver connection attempts failed")
			return nil, &ExhaustedError{Attempts: attempt, Last: err}
		}
	}
}

// attempt dials server and runs the handshake. The socket is closed on
// every failure path. The returned result labels the outcome.
func (m *ConnectionManager) attempt(ctx context.Context, server directory.ServerDescriptor) (*adnl.Session, string, error) {
	m.setState(StateConnecting)

	dialCtx, cancel := context.WithTimeout(ctx, m.options.DialTimeout)
	conn, err := m.options.Dialer.DialContext(dialCtx, "tcp", server.Addr())
	cancel()
	if err != nil {
		return nil, resultDialError, &TransportError{Op: "dial", Addr: server.Addr(), Err: err}
	}

	m.setState(StateHandshaking)
	session, err := m.handshaker.Handshake(ctx, conn, server.PublicKey)
	if err != nil {
		conn.Close()
		return nil, resultHandshakeError, err
	}
	return session, resultEstablished, nil
}

func (m *ConnectionManager) setState(s ConnectionState) {
	old := ConnectionState(m.state.Swap(uint32(s)))
	if old != s {
		logrus.WithFields(logrus.Fields{
			"function": "setState",
			"from":     old.String(),
			"to":       s.String(),
		}).Debug("Connection state changed")
	}
}
