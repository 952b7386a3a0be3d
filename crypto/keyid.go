package crypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
)

// KeyIDSize is the size of a key identifier.
const KeyIDSize = sha256.Size

// pubEd25519Tag is the TL constructor id of pub.ed25519 (0x4813b4c6),
// serialized little-endian.
var pubEd25519Tag = [4]byte{0xc6, 0xb4, 0x13, 0x48}

// KeyID returns SHA-256(pub.ed25519 tag ‖ key), the identifier a liteserver
// uses to select the private key a handshake is addressed to.
func KeyID(pub ed25519.PublicKey) ([KeyIDSize]byte, error) {
	if len(pub) != ed25519.PublicKeySize {
		return [KeyIDSize]byte{}, fmt.Errorf("%w: public key is %d bytes", ErrInvalidKeySize, len(pub))
	}

	h := sha256.New()
	h.Write(pubEd25519Tag[:])
	h.Write(pub)

	var id [KeyIDSize]byte
	copy(id[:], h.Sum(nil))
	return id, nil
}
