// Package crypto implements the cryptographic primitives used by the ADNL
// TCP handshake.
//
// Liteservers publish long-term Ed25519 public keys. The handshake never
// signs anything with those keys: it converts them to their Curve25519
// (Montgomery) form and performs X25519 key agreement against a fresh
// ephemeral key generated for every connection attempt.
//
// # Core Types
//
//   - [KeyPair]: ephemeral Ed25519 key pair, usable for X25519 agreement
//   - [KeyIDSize]: size of the SHA-256 key identifier sent in the handshake
//
// # Key Agreement
//
//	eph, err := crypto.GenerateKeyPair(rand.Reader)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer crypto.WipeKeyPair(eph)
//
//	shared, err := crypto.DeriveSharedSecret(eph, serverKey)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer crypto.ZeroBytes(shared[:])
//
// The server computes the same value from its own private key and the
// ephemeral public key carried in the handshake packet, see
// [DeriveSharedSecretFromPeer].
//
// # Key Identifiers
//
// [KeyID] computes the 32-byte identifier a liteserver uses to recognise
// which of its keys a handshake targets. It is the SHA-256 digest of the
// TL-serialized pub.ed25519 public key.
//
// # Secure Memory
//
// Handshake secrets and private keys are wiped with [ZeroBytes] and
// [WipeKeyPair] as soon as the derived session ciphers exist.
package crypto
