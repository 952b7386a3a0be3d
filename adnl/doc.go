// Package adnl implements the TCP flavour of the Abstract Datagram Network
// Layer used by TON liteservers: the handshake that opens an encrypted
// session and the checksummed frames exchanged afterwards.
//
// # Handshake
//
// The client opens a TCP connection and sends exactly 256 bytes:
//
//	key_id (32) ‖ ephemeral_pub (32) ‖ sha256(secret) (32) ‖ aes_ctr(secret) (160)
//
// key_id selects the server key (see crypto.KeyID). The 160-byte secret is
// fresh randomness; it is encrypted under a key derived from the X25519
// agreement between the ephemeral key and the server key, mixed with its
// own digest. Both sides then split the secret into two AES-256-CTR
// streams, one per direction, and the server confirms with an empty frame.
//
//	h := adnl.NewHandshaker()
//	session, err := h.Handshake(ctx, conn, serverKey)
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
// # Frames
//
// Every subsequent message is one frame, encrypted as a whole under the
// direction's stream:
//
//	size (4, LE) ‖ nonce (32) ‖ payload ‖ sha256(nonce ‖ payload) (32)
//
// A frame whose checksum does not verify terminates the session: after one
// corrupt frame the stream position can no longer be trusted.
package adnl
