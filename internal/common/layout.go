package common

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrInvalidLayout = errors.New("invalid frame layout")

// Layout describes the fixed on-wire shape agreed with the target. Every
// frame is FrameLength bytes: the address in the first AddressSize bytes,
// zero padding up to HeaderLength, then at most PayloadLength bytes of data.
type Layout struct {
	FrameLength   int
	HeaderLength  int
	PayloadLength int
	AckLength     int
}

func (l Layout) Validate() error {
	switch {
	case l.FrameLength <= 0:
		return errors.Wrapf(ErrInvalidLayout, "frame length %v must be positive", l.FrameLength)
	case l.HeaderLength < AddressSize:
		return errors.Wrapf(ErrInvalidLayout, "header length %v is shorter than the %v byte address", l.HeaderLength, AddressSize)
	case l.PayloadLength <= 0:
		return errors.Wrapf(ErrInvalidLayout, "payload length %v must be positive", l.PayloadLength)
	case l.HeaderLength+l.PayloadLength > l.FrameLength:
		return errors.Wrapf(ErrInvalidLayout, "header %v + payload %v exceed frame length %v",
			l.HeaderLength, l.PayloadLength, l.FrameLength)
	case l.AckLength <= 0:
		return errors.Wrapf(ErrInvalidLayout, "ack length %v must be positive", l.AckLength)
	}
	return nil
}

// Chunks is the number of frames needed for size bytes of data.
func (l Layout) Chunks(size int64) int64 {
	p := int64(l.PayloadLength)
	return (size + p - 1) / p
}

func (l Layout) String() string {
	return fmt.Sprintf("frame=%v header=%v payload=%v ack=%v",
		l.FrameLength, l.HeaderLength, l.PayloadLength, l.AckLength)
}
