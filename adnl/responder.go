package adnl

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"io"
	"net"
	"time"

	"github.com/opd-ai/liteclient/crypto"
	"github.com/opd-ai/liteclient/limits"
	"github.com/sirupsen/logrus"
)

// Responder runs the server side of the handshake. Key is the server's
// long-term key. Confirmation is the payload of the first frame sent back;
// liteservers send it empty and so does the zero value.
type Responder struct {
	Key          ed25519.PrivateKey
	Rand         io.Reader
	Confirmation []byte
}

// Accept runs the server side of the handshake on conn with default
// settings.
func Accept(ctx context.Context, conn net.Conn, serverKey ed25519.PrivateKey, r io.Reader) (*Session, error) {
	return (&Responder{Key: serverKey, Rand: r}).Accept(ctx, conn)
}

// Accept reads the handshake packet, recovers the secret with the server
// key and sends the confirmation frame.
func (rs *Responder) Accept(ctx context.Context, conn net.Conn) (*Session, error) {
	serverKey := rs.Key
	if len(serverKey) != ed25519.PrivateKeySize {
		return nil, newHandshakeError("", ErrInvalidServerKey, nil)
	}

	addr := ""
	if ra := conn.RemoteAddr(); ra != nil {
		addr = ra.String()
	}

	if d, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(d); err != nil {
			return nil, newHandshakeError(addr, ErrHandshakeRejected, err)
		}
		defer conn.SetDeadline(time.Time{})
	}

	raw := make([]byte, limits.HandshakePacketSize)
	if _, err := io.ReadFull(conn, raw); err != nil {
		return nil, classifyHandshakeIO(ctx, addr, err)
	}
	pkt, err := ParseHandshakePacket(raw)
	if err != nil {
		return nil, newHandshakeError(addr, ErrHandshakeRejected, err)
	}

	pub := serverKey.Public().(ed25519.PublicKey)
	ourID, err := crypto.KeyID(pub)
	if err != nil {
		return nil, newHandshakeError(addr, ErrInvalidServerKey, err)
	}
	if subtle.ConstantTimeCompare(ourID[:], pkt.KeyID[:]) != 1 {
		return nil, newHandshakeError(addr, ErrHandshakeRejected, ErrUnknownKeyID)
	}

	shared, err := crypto.DeriveSharedSecretFromPeer(serverKey, pkt.EphemeralKey[:])
	if err != nil {
		return nil, newHandshakeError(addr, ErrHandshakeRejected, err)
	}
	defer crypto.ZeroBytes(shared[:])

	stream, err := handshakeStream(shared, pkt.Digest)
	if err != nil {
		return nil, newHandshakeError(addr, ErrHandshakeRejected, err)
	}

	keys := &SessionKeys{}
	defer keys.Wipe()
	stream.XORKeyStream(keys.secret[:], pkt.EncryptedSecret[:])

	digest := sha256.Sum256(keys.secret[:])
	if subtle.ConstantTimeCompare(digest[:], pkt.Digest[:]) != 1 {
		return nil, newHandshakeError(addr, ErrHandshakeRejected, ErrDigestMismatch)
	}

	in, out, err := keys.streams(false)
	if err != nil {
		return nil, newHandshakeError(addr, ErrHandshakeRejected, err)
	}

	r := rs.Rand
	if r == nil {
		r = rand.Reader
	}
	peer := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(peer, pkt.EphemeralKey[:])
	session := newSession(conn, in, out, peer, r)
	if err := session.Send(rs.Confirmation); err != nil {
		return nil, newHandshakeError(addr, ErrHandshakeRejected, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Accept",
		"addr":     addr,
	}).Debug("Handshake accepted")

	return session, nil
}
