package common

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var testLayout = Layout{
	FrameLength:   10,
	HeaderLength:  6,
	PayloadLength: 4,
	AckLength:     6,
}

func TestFrameToBytes(t *testing.T) {
	tests := []struct {
		name    string
		address uint32
		payload []byte
		want    []byte
	}{
		{"full", 0x1000, []byte{1, 2, 3, 4}, []byte{0, 0, 0x10, 0, 0, 0, 1, 2, 3, 4}},
		{"short", 0x1008, []byte{9, 10}, []byte{0, 0, 0x10, 8, 0, 0, 9, 10, 0, 0}},
		{"empty", 0xDEADBEEF, nil, []byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewFrame(tt.address, tt.payload).ToBytes(testLayout)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("frame mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFrameToBytesIsDeterministic(t *testing.T) {
	frame := NewFrame(0x80000000, []byte{0xFF, 0xFF})

	first, err := frame.ToBytes(testLayout)
	if err != nil {
		t.Fatal(err)
	}
	// Scribble over the first result; the next call must not see it.
	for i := range first {
		first[i] = 0xAA
	}
	second, err := frame.ToBytes(testLayout)
	if err != nil {
		t.Fatal(err)
	}
	third, _ := frame.ToBytes(testLayout)

	if !cmp.Equal(second, third) {
		t.Errorf("frames differ: %v vs %v", second, third)
	}
	if second[8] != 0 || second[9] != 0 {
		t.Errorf("padding not zeroed: %v", second)
	}
}

func TestFrameToBytesRejectsOversizedPayload(t *testing.T) {
	_, err := NewFrame(0, []byte{1, 2, 3, 4, 5}).ToBytes(testLayout)
	if err == nil {
		t.Fatal("expected error for payload larger than slot")
	}
}

func TestFrameFromBytes(t *testing.T) {
	bytes := []byte{0, 0, 0x10, 4, 0, 0, 5, 6, 7, 8}

	frame, err := FrameFromBytes(testLayout, bytes)
	if err != nil {
		t.Fatal(err)
	}

	want := &Frame{Address: 0x1004, Payload: []byte{5, 6, 7, 8}}
	if !cmp.Equal(frame, want) {
		t.Errorf("got %+v, want %+v", frame, want)
	}

	if _, err := FrameFromBytes(testLayout, bytes[:9]); err == nil {
		t.Error("expected error for short frame")
	}
}

func TestAckAccepted(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want bool
	}{
		{"accept", []byte{0, 0, 0, 0, 0, 1}, true},
		{"reject", []byte{0, 0, 0, 0, 0, 0}, false},
		{"other status", []byte{0, 0, 0, 0, 0, 2}, false},
		{"leading bytes ignored", []byte{9, 9, 9, 9, 9, 1}, true},
		{"short", []byte{0, 1}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AckFromBytes(tt.raw).Accepted(testLayout); got != tt.want {
				t.Errorf("Accepted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewAck(t *testing.T) {
	if diff := cmp.Diff([]byte{0, 0, 0, 0, 0, 1}, NewAck(testLayout, true).ToBytes()); diff != "" {
		t.Error(diff)
	}
	if NewAck(testLayout, false).Accepted(testLayout) {
		t.Error("reject ack reported as accepted")
	}
}

func TestLayoutValidate(t *testing.T) {
	if err := testLayout.Validate(); err != nil {
		t.Fatalf("valid layout rejected: %v", err)
	}

	device := Layout{FrameLength: 958, HeaderLength: 6, PayloadLength: 952, AckLength: 6}
	if err := device.Validate(); err != nil {
		t.Fatalf("device layout rejected: %v", err)
	}

	bad := []Layout{
		{FrameLength: 0, HeaderLength: 4, PayloadLength: 4, AckLength: 1},
		{FrameLength: 10, HeaderLength: 3, PayloadLength: 4, AckLength: 1},
		{FrameLength: 10, HeaderLength: 4, PayloadLength: 0, AckLength: 1},
		{FrameLength: 10, HeaderLength: 6, PayloadLength: 5, AckLength: 1},
		{FrameLength: 10, HeaderLength: 4, PayloadLength: 4, AckLength: 0},
	}
	for _, l := range bad {
		if err := l.Validate(); !errors.Is(err, ErrInvalidLayout) {
			t.Errorf("%v: got %v, want ErrInvalidLayout", l, err)
		}
	}
}

func TestLayoutChunks(t *testing.T) {
	tests := []struct {
		size int64
		want int64
	}{
		{0, 0},
		{1, 1},
		{4, 1},
		{5, 2},
		{8, 2},
		{10, 3},
	}
	for _, tt := range tests {
		if got := testLayout.Chunks(tt.size); got != tt.want {
			t.Errorf("Chunks(%v) = %v, want %v", tt.size, got, tt.want)
		}
	}
}
