package limits

import (
	"errors"
	"fmt"
)

const (
	// NonceSize is the size of the random nonce leading every frame.
	NonceSize = 32

	// ChecksumSize is the size of the SHA-256 checksum trailing every frame.
	ChecksumSize = 32

	// MinFrameSize is the smallest legal value of the size field: an empty
	// payload still carries a nonce and a checksum.
	MinFrameSize = NonceSize + ChecksumSize

	// MaxFrameSize bounds the size field so a corrupted or hostile length
	// cannot force a huge allocation (16 MiB).
	MaxFrameSize = 16 << 20

	// MaxPayloadSize is the largest payload a single frame can carry.
	MaxPayloadSize = MaxFrameSize - MinFrameSize

	// HandshakeSecretSize is the amount of random key material exchanged in
	// the handshake.
	HandshakeSecretSize = 160

	// HandshakePacketSize is the fixed size of the handshake packet:
	// key id, ephemeral key, digest and the encrypted secret.
	HandshakePacketSize = 32 + 32 + 32 + HandshakeSecretSize

	// MaxDirectoryDocument caps the global config body read over HTTP (4 MiB).
	MaxDirectoryDocument = 4 << 20
)

var (
	// ErrFrameTooShort indicates a size field below MinFrameSize.
	ErrFrameTooShort = errors.New("frame too short")

	// ErrFrameTooLarge indicates a size field above MaxFrameSize.
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrPayloadTooLarge indicates a payload that cannot fit in one frame.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// ValidateFrameSize checks a decoded size field.
func ValidateFrameSize(size uint32) error {
	if size < MinFrameSize {
		return fmt.Errorf("%w: size %d below minimum %d", ErrFrameTooShort, size, MinFrameSize)
	}
	if size > MaxFrameSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrFrameTooLarge, size, MaxFrameSize)
	}
	return nil
}

// ValidatePayload checks that a payload fits in a single frame. Empty
// payloads are legal and used for the handshake confirmation.
func ValidatePayload(payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds limit %d", ErrPayloadTooLarge, len(payload), MaxPayloadSize)
	}
	return nil
}
