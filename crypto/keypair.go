package crypto

import (
	"crypto/ed25519"
	"crypto/sha512"
	"errors"
	"fmt"
	"io"
)

// KeySize is the size of Ed25519 public keys and seeds.
const KeySize = ed25519.PublicKeySize

// ErrInvalidKeySize is returned when key material has the wrong length.
var ErrInvalidKeySize = errors.New("invalid key size")

// KeyPair is an ephemeral Ed25519 key pair generated for one handshake.
// Public is sent to the server, Private never leaves the process.
type KeyPair struct {
	Public  [KeySize]byte
	Private ed25519.PrivateKey
}

// GenerateKeyPair creates a new Ed25519 key pair reading its 32-byte seed
// from r. Passing a deterministic reader yields a deterministic key pair.
func GenerateKeyPair(r io.Reader) (*KeyPair, error) {
	seed := make([]byte, ed25519.SeedSize)
	defer ZeroBytes(seed)
	if _, err := io.ReadFull(r, seed); err != nil {
		return nil, fmt.Errorf("generate ed25519 seed: %w", err)
	}

	kp := &KeyPair{Private: ed25519.NewKeyFromSeed(seed)}
	copy(kp.Public[:], kp.Private.Public().(ed25519.PublicKey))
	return kp, nil
}

// FromPrivateKey wraps an existing Ed25519 private key.
func FromPrivateKey(priv ed25519.PrivateKey) (*KeyPair, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: private key is %d bytes", ErrInvalidKeySize, len(priv))
	}

	kp := &KeyPair{Private: make(ed25519.PrivateKey, ed25519.PrivateKeySize)}
	copy(kp.Private, priv)
	copy(kp.Public[:], priv.Public().(ed25519.PublicKey))
	return kp, nil
}

// curveScalar returns the X25519 scalar matching an Ed25519 private key:
// the first half of SHA-512(seed). X25519 applies the clamping itself.
func curveScalar(priv ed25519.PrivateKey) [32]byte {
	h := sha512.Sum512(priv.Seed())
	var s [32]byte
	copy(s[:], h[:32])
	ZeroBytes(h[:])
	return s
}
