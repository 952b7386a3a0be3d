package adnl

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/opd-ai/liteclient/limits"
)

// Packet is one ADNL TCP frame before encryption:
//
//	size (4, little-endian) ‖ nonce (32) ‖ payload ‖ SHA-256(nonce ‖ payload) (32)
//
// size counts everything after itself, nonce included, so it equals
// 64 + len(payload). Deployed liteservers use the same convention.
type Packet struct {
	Nonce    [limits.NonceSize]byte
	Payload  []byte
	Checksum [limits.ChecksumSize]byte
}

// NewPacket builds a frame around payload with a nonce read from r.
func NewPacket(r io.Reader, payload []byte) (*Packet, error) {
	if err := limits.ValidatePayload(payload); err != nil {
		return nil, err
	}

	p := &Packet{Payload: make([]byte, len(payload))}
	copy(p.Payload, payload)

	if _, err := io.ReadFull(r, p.Nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	p.Checksum = checksum(p.Nonce[:], p.Payload)
	return p, nil
}

// Size returns the value of the size field: nonce, payload and checksum.
func (p *Packet) Size() uint32 {
	return uint32(limits.NonceSize + len(p.Payload) + limits.ChecksumSize)
}

// Marshal returns the wire form of the frame, size field included.
func (p *Packet) Marshal() []byte {
	buf := make([]byte, 4, 4+int(p.Size()))
	binary.LittleEndian.PutUint32(buf, p.Size())
	buf = append(buf, p.Nonce[:]...)
	buf = append(buf, p.Payload...)
	buf = append(buf, p.Checksum[:]...)
	return buf
}

// Verify recomputes the checksum.
func (p *Packet) Verify() error {
	want := checksum(p.Nonce[:], p.Payload)
	if subtle.ConstantTimeCompare(want[:], p.Checksum[:]) != 1 {
		return ErrIntegrityMismatch
	}
	return nil
}

// EncodePacket returns the wire form of a new frame carrying payload.
func EncodePacket(r io.Reader, payload []byte) ([]byte, error) {
	p, err := NewPacket(r, payload)
	if err != nil {
		return nil, err
	}
	return p.Marshal(), nil
}

// DecodePacket reads exactly one frame from r: the size field and then
// size bytes. The payload is only returned once its checksum verifies.
func DecodePacket(r io.Reader) (*Packet, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, &FrameError{Op: "read size", Err: err}
	}

	size := binary.LittleEndian.Uint32(hdr[:])
	if err := limits.ValidateFrameSize(size); err != nil {
		return nil, &FrameError{Op: "validate size", Size: size, Err: err}
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, &FrameError{Op: "read body", Size: size, Err: err}
	}

	payloadEnd := int(size) - limits.ChecksumSize
	p := &Packet{Payload: body[limits.NonceSize:payloadEnd]}
	copy(p.Nonce[:], body[:limits.NonceSize])
	copy(p.Checksum[:], body[payloadEnd:])

	if err := p.Verify(); err != nil {
		return nil, &FrameError{Op: "verify", Size: size, Err: err}
	}
	return p, nil
}

func checksum(nonce, payload []byte) [limits.ChecksumSize]byte {
	h := sha256.New()
	h.Write(nonce)
	h.Write(payload)

	var sum [limits.ChecksumSize]byte
	copy(sum[:], h.Sum(nil))
	return sum
}
