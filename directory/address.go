package directory

import (
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"
)

// FromSigned reinterprets the signed integer used by the global config as
// the unsigned host address with the same bit pattern.
func FromSigned(ip int32) uint32 {
	return uint32(ip)
}

// IPv4String renders an address as a dotted quad, most significant octet
// first: 1592601963 becomes "94.237.45.107".
func IPv4String(v uint32) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return netip.AddrFrom4(b).String()
}

// ParseIPv4 is the inverse of IPv4String.
func ParseIPv4(s string) (uint32, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return 0, fmt.Errorf("parse address %q: %w", s, err)
	}
	if !addr.Is4() {
		return 0, fmt.Errorf("address %q is not IPv4", s)
	}
	b := addr.As4()
	return binary.BigEndian.Uint32(b[:]), nil
}

// hostPort joins a numeric address and port for net.Dial.
func hostPort(v uint32, port uint16) string {
	return net.JoinHostPort(IPv4String(v), fmt.Sprint(port))
}
