package adnl

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/opd-ai/liteclient/crypto"
	"github.com/opd-ai/liteclient/limits"
	"github.com/sirupsen/logrus"
)

// DefaultHandshakeTimeout bounds the wait for the server's confirmation.
const DefaultHandshakeTimeout = 5 * time.Second

// Byte offsets inside the handshake secret, from the client's point of
// view. The server uses the same slices with the directions swapped.
const (
	rxKeyOffset = 0
	txKeyOffset = 32
	rxIVOffset  = 64
	txIVOffset  = 80
	ivEnd       = 96
)

// HandshakePacket is the fixed-size packet that opens a session.
type HandshakePacket struct {
	KeyID           [crypto.KeyIDSize]byte
	EphemeralKey    [crypto.KeySize]byte
	Digest          [sha256.Size]byte
	EncryptedSecret [limits.HandshakeSecretSize]byte
}

// Marshal returns the 256 bytes sent on the wire.
func (p *HandshakePacket) Marshal() []byte {
	buf := make([]byte, 0, limits.HandshakePacketSize)
	buf = append(buf, p.KeyID[:]...)
	buf = append(buf, p.EphemeralKey[:]...)
	buf = append(buf, p.Digest[:]...)
	buf = append(buf, p.EncryptedSecret[:]...)
	return buf
}

// ParseHandshakePacket splits a 256-byte handshake packet into its fields.
func ParseHandshakePacket(b []byte) (*HandshakePacket, error) {
	if len(b) != limits.HandshakePacketSize {
		return nil, fmt.Errorf("handshake packet is %d bytes, want %d", len(b), limits.HandshakePacketSize)
	}

	p := &HandshakePacket{}
	n := copy(p.KeyID[:], b)
	n += copy(p.EphemeralKey[:], b[n:])
	n += copy(p.Digest[:], b[n:])
	copy(p.EncryptedSecret[:], b[n:])
	return p, nil
}

// SessionKeys holds the handshake secret both directions are derived from.
// Call Wipe once the session streams exist.
type SessionKeys struct {
	secret [limits.HandshakeSecretSize]byte
}

// Wipe erases the secret.
func (k *SessionKeys) Wipe() {
	crypto.ZeroBytes(k.secret[:])
}

// streams builds the inbound and outbound ciphers. The initiator reads
// with the rx half and writes with the tx half; the responder the reverse.
func (k *SessionKeys) streams(initiator bool) (in, out cipher.Stream, err error) {
	rx, err := newCTR(k.secret[rxKeyOffset:txKeyOffset], k.secret[rxIVOffset:txIVOffset])
	if err != nil {
		return nil, nil, err
	}
	tx, err := newCTR(k.secret[txKeyOffset:rxIVOffset], k.secret[txIVOffset:ivEnd])
	if err != nil {
		return nil, nil, err
	}
	if initiator {
		return rx, tx, nil
	}
	return tx, rx, nil
}

func newCTR(key, iv []byte) (cipher.Stream, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes: %w", err)
	}
	return cipher.NewCTR(block, iv), nil
}

// handshakeStream derives the cipher protecting the secret in transit:
// key = shared[0:16] ‖ digest[16:32], iv = digest[0:4] ‖ shared[20:32].
func handshakeStream(shared [32]byte, digest [sha256.Size]byte) (cipher.Stream, error) {
	var key [32]byte
	copy(key[:16], shared[:16])
	copy(key[16:], digest[16:32])
	defer crypto.ZeroBytes(key[:])

	var iv [aes.BlockSize]byte
	copy(iv[:4], digest[:4])
	copy(iv[4:], shared[20:32])

	return newCTR(key[:], iv[:])
}

// Handshaker opens client sessions. Rand is the entropy source for the
// ephemeral key, the handshake secret and frame nonces; tests may replace
// it with a deterministic reader.
type Handshaker struct {
	Rand    io.Reader
	Timeout time.Duration
}

// NewHandshaker returns a handshaker using crypto/rand and the default
// timeout.
func NewHandshaker() *Handshaker {
	return &Handshaker{
		Rand:    rand.Reader,
		Timeout: DefaultHandshakeTimeout,
	}
}

func (h *Handshaker) random() io.Reader {
	if h.Rand == nil {
		return rand.Reader
	}
	return h.Rand
}

// ValidateServerKey checks that key is a usable Ed25519 public key.
func ValidateServerKey(key ed25519.PublicKey) error {
	if len(key) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: %d bytes", ErrInvalidServerKey, len(key))
	}
	if _, err := crypto.ToCurve25519(key); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidServerKey, err)
	}
	return nil
}

// Build generates fresh key material and the handshake packet addressed to
// serverKey. Given the same Rand contents it produces the same bytes.
func (h *Handshaker) Build(serverKey ed25519.PublicKey) (*HandshakePacket, *SessionKeys, error) {
	if err := ValidateServerKey(serverKey); err != nil {
		return nil, nil, err
	}

	keyID, err := crypto.KeyID(serverKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidServerKey, err)
	}

	eph, err := crypto.GenerateKeyPair(h.random())
	if err != nil {
		return nil, nil, err
	}
	defer crypto.WipeKeyPair(eph)

	keys := &SessionKeys{}
	if _, err := io.ReadFull(h.random(), keys.secret[:]); err != nil {
		return nil, nil, fmt.Errorf("generate handshake secret: %w", err)
	}

	shared, err := crypto.DeriveSharedSecret(eph, serverKey)
	if err != nil {
		keys.Wipe()
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidServerKey, err)
	}
	defer crypto.ZeroBytes(shared[:])

	pkt := &HandshakePacket{
		KeyID:        keyID,
		EphemeralKey: eph.Public,
		Digest:       sha256.Sum256(keys.secret[:]),
	}

	stream, err := handshakeStream(shared, pkt.Digest)
	if err != nil {
		keys.Wipe()
		return nil, nil, err
	}
	stream.XORKeyStream(pkt.EncryptedSecret[:], keys.secret[:])

	logrus.WithFields(logrus.Fields{
		"function": "Build",
		"key_id":   fmt.Sprintf("%x", keyID[:8]),
	}).Debug("Handshake packet built")

	return pkt, keys, nil
}

// Handshake sends the handshake packet on conn and waits for the server's
// confirmation. On failure conn is left open for the caller to close and
// no session is returned.
func (h *Handshaker) Handshake(ctx context.Context, conn net.Conn, serverKey ed25519.PublicKey) (*Session, error) {
	addr := ""
	if ra := conn.RemoteAddr(); ra != nil {
		addr = ra.String()
	}

	pkt, keys, err := h.Build(serverKey)
	if err != nil {
		if errors.Is(err, ErrInvalidServerKey) {
			return nil, &HandshakeError{Addr: addr, Err: err}
		}
		return nil, newHandshakeError(addr, ErrHandshakeRejected, err)
	}
	defer keys.Wipe()

	in, out, err := keys.streams(true)
	if err != nil {
		return nil, newHandshakeError(addr, ErrHandshakeRejected, err)
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, newHandshakeError(addr, ErrHandshakeRejected, err)
	}
	defer conn.SetDeadline(time.Time{})

	release := interruptOnCancel(ctx, conn)
	defer release()

	logrus.WithFields(logrus.Fields{
		"function": "Handshake",
		"addr":     addr,
	}).Debug("Sending handshake packet")

	if _, err := conn.Write(pkt.Marshal()); err != nil {
		return nil, classifyHandshakeIO(ctx, addr, err)
	}

	confirm, err := DecodePacket(cipher.StreamReader{S: in, R: conn})
	if err != nil {
		return nil, classifyHandshakeIO(ctx, addr, err)
	}
	if len(confirm.Payload) != 0 {
		return nil, newHandshakeError(addr, ErrHandshakeRejected,
			fmt.Errorf("%w: confirmation carries %d bytes", ErrUnexpectedMessage, len(confirm.Payload)))
	}

	// A cancellation racing the confirmation has already expired the
	// deadline; the attempt is abandoned rather than returned half dead.
	if release() {
		return nil, &HandshakeError{Addr: addr, Err: ctx.Err()}
	}

	logrus.WithFields(logrus.Fields{
		"function": "Handshake",
		"addr":     addr,
	}).Info("ADNL session established")

	return newSession(conn, in, out, serverKey, h.random()), nil
}

func classifyHandshakeIO(ctx context.Context, addr string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &HandshakeError{Addr: addr, Err: ctxErr}
	}
	if isTimeout(err) {
		return newHandshakeError(addr, ErrHandshakeTimeout, err)
	}
	return newHandshakeError(addr, ErrHandshakeRejected, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
