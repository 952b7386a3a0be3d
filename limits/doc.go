// Package limits provides centralized size constants and validation functions
// for ADNL TCP framing.
//
// # Frame Layout
//
// Every frame on an established session is
//
//	size (4, little-endian) ‖ nonce (32) ‖ payload ‖ sha256(nonce ‖ payload) (32)
//
// so the size field is never smaller than MinFrameSize (64). MaxFrameSize
// caps it at 16 MiB; a peer announcing more is treated as corrupt rather
// than trusted with an allocation of that size.
//
// # Validation Functions
//
//	if err := limits.ValidateFrameSize(size); err != nil {
//	    // ErrFrameTooShort or ErrFrameTooLarge
//	}
//
//	if err := limits.ValidatePayload(payload); err != nil {
//	    // ErrPayloadTooLarge
//	}
//
// The handshake packet has no size field; HandshakePacketSize (256) is its
// implicit length.
package limits
