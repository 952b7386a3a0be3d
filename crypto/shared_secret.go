package crypto

import (
	"crypto/ed25519"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/curve25519"
)

// ToCurve25519 converts an Ed25519 public key to the unique corresponding
// Curve25519 public key.
//
// See https://blog.filippo.io/using-ed25519-keys-for-encryption and
// https://pkg.go.dev/filippo.io/edwards25519#Point.BytesMontgomery.
func ToCurve25519(pub ed25519.PublicKey) ([32]byte, error) {
	var c [32]byte
	if len(pub) != ed25519.PublicKeySize {
		return c, fmt.Errorf("%w: public key is %d bytes", ErrInvalidKeySize, len(pub))
	}

	p, err := new(edwards25519.Point).SetBytes(pub)
	if err != nil {
		return c, fmt.Errorf("invalid ed25519 point: %w", err)
	}

	copy(c[:], p.BytesMontgomery())
	return c, nil
}

// DeriveSharedSecret computes the X25519 shared secret between our key pair
// and a peer's Ed25519 public key.
func DeriveSharedSecret(ours *KeyPair, peer ed25519.PublicKey) ([32]byte, error) {
	if ours == nil || len(ours.Private) != ed25519.PrivateKeySize {
		return [32]byte{}, fmt.Errorf("%w: missing private key", ErrInvalidKeySize)
	}
	return DeriveSharedSecretFromPeer(ours.Private, peer)
}

// DeriveSharedSecretFromPeer is DeriveSharedSecret for a bare private key.
// A liteserver uses it with its long-term key and the client's ephemeral
// public key; both sides arrive at the same 32 bytes.
func DeriveSharedSecretFromPeer(priv ed25519.PrivateKey, peer ed25519.PublicKey) ([32]byte, error) {
	logger := NewLogger("DeriveSharedSecret").WithFields(SecureFieldHash(peer, "peer_key"))
	logger.Debug("Computing shared secret using X25519")

	peerCurve, err := ToCurve25519(peer)
	if err != nil {
		logger.WithError(err, "invalid_peer_key", "to_curve25519").Error("Peer key conversion failed")
		return [32]byte{}, err
	}

	scalar := curveScalar(priv)
	defer ZeroBytes(scalar[:])

	shared, err := curve25519.X25519(scalar[:], peerCurve[:])
	if err != nil {
		logger.WithError(err, "x25519_failure", "x25519").Error("X25519 computation failed")
		return [32]byte{}, fmt.Errorf("failed to compute shared secret: %w", err)
	}

	var result [32]byte
	copy(result[:], shared)
	ZeroBytes(shared)

	logrus.WithFields(logrus.Fields{
		"function": "DeriveSharedSecret",
	}).Debug("Shared secret computed, intermediates wiped")

	return result, nil
}
