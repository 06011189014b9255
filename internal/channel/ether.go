package channel

import (
	"bytes"
	"encoding/binary"
	"net"

	"github.com/pkg/errors"
)

const (
	EtherAddrLength   = 6
	EtherHeaderLength = 2*EtherAddrLength + 2
)

type EtherHeader struct {
	Destination net.HardwareAddr
	Source      net.HardwareAddr
	EtherType   uint16
}

func (hdr *EtherHeader) ToBytes(payload []byte) ([]byte, error) {
	if len(hdr.Destination) != EtherAddrLength || len(hdr.Source) != EtherAddrLength {
		return nil, errors.Errorf("hardware addresses must be %v bytes", EtherAddrLength)
	}

	arr := make([]byte, EtherHeaderLength+len(payload))
	copy(arr[0:6], hdr.Destination)
	copy(arr[6:12], hdr.Source)
	binary.BigEndian.PutUint16(arr[12:14], hdr.EtherType)
	copy(arr[EtherHeaderLength:], payload)
	return arr, nil
}

// EtherHeaderFromBytes returns the header and the payload that follows it.
func EtherHeaderFromBytes(bytes []byte) (*EtherHeader, []byte, error) {
	if len(bytes) < EtherHeaderLength {
		return nil, nil, errors.Errorf("ethernet frame of %v bytes is shorter than its header", len(bytes))
	}

	dst := make(net.HardwareAddr, EtherAddrLength)
	src := make(net.HardwareAddr, EtherAddrLength)
	copy(dst, bytes[0:6])
	copy(src, bytes[6:12])

	return &EtherHeader{
		Destination: dst,
		Source:      src,
		EtherType:   binary.BigEndian.Uint16(bytes[12:14]),
	}, bytes[EtherHeaderLength:], nil
}

// matches reports whether a captured frame came from peer with the expected type.
func (hdr *EtherHeader) matches(peer net.HardwareAddr, etherType uint16) bool {
	return hdr.EtherType == etherType && bytes.Equal(hdr.Source, peer)
}

// htons gives v in network byte order as the kernel expects it in a
// host-order field.
func htons(v uint16) uint16 {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return binary.NativeEndian.Uint16(b[:])
}
