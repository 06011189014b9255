package common

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

type Frame struct {
	Address uint32
	Payload []byte
}

func NewFrame(address uint32, payload []byte) *Frame {
	return &Frame{
		Address: address,
		Payload: payload,
	}
}

// ToBytes builds a fresh, zeroed buffer of exactly FrameLength bytes.
func (frame *Frame) ToBytes(layout Layout) ([]byte, error) {
	if len(frame.Payload) > layout.PayloadLength {
		return nil, errors.Errorf("payload of %v bytes does not fit into %v byte slot",
			len(frame.Payload), layout.PayloadLength)
	}

	arr := make([]byte, layout.FrameLength)
	binary.BigEndian.PutUint32(arr[0:AddressSize], frame.Address)
	copy(arr[layout.HeaderLength:layout.HeaderLength+layout.PayloadLength], frame.Payload)

	return arr, nil
}

// FrameFromBytes returns the frame with its whole payload slot, padding included.
func FrameFromBytes(layout Layout, bytes []byte) (*Frame, error) {
	if len(bytes) != layout.FrameLength {
		return nil, errors.Errorf("frame has %v bytes, expected %v", len(bytes), layout.FrameLength)
	}

	address := binary.BigEndian.Uint32(bytes[0:AddressSize])
	data := make([]byte, layout.PayloadLength)
	copy(data, bytes[layout.HeaderLength:layout.HeaderLength+layout.PayloadLength])

	return &Frame{
		Address: address,
		Payload: data,
	}, nil
}

type Ack struct {
	Raw []byte
}

func NewAck(layout Layout, accepted bool) *Ack {
	raw := make([]byte, layout.AckLength)
	if accepted {
		raw[len(raw)-1] = AckAccept
	} else {
		raw[len(raw)-1] = AckReject
	}
	return &Ack{Raw: raw}
}

func AckFromBytes(bytes []byte) *Ack {
	raw := make([]byte, len(bytes))
	copy(raw, bytes)
	return &Ack{Raw: raw}
}

// Accepted reports whether the target stored the frame. Acks of the wrong
// length never count as accepted.
func (ack *Ack) Accepted(layout Layout) bool {
	if len(ack.Raw) != layout.AckLength || len(ack.Raw) == 0 {
		return false
	}
	return ack.Raw[len(ack.Raw)-1] == AckAccept
}

func (ack *Ack) Status() byte {
	if len(ack.Raw) == 0 {
		return 0
	}
	return ack.Raw[len(ack.Raw)-1]
}

func (ack *Ack) ToBytes() []byte {
	return ack.Raw
}
