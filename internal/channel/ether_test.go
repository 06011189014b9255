package channel

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var (
	fpgaMac  = net.HardwareAddr{0x00, 0x0A, 0x35, 0x04, 0xD5, 0xDE}
	localMac = net.HardwareAddr{0x3c, 0x18, 0xa0, 0xd3, 0x68, 0x57}
)

func TestEtherHeaderRoundTrip(t *testing.T) {
	hdr := &EtherHeader{
		Destination: fpgaMac,
		Source:      localMac,
		EtherType:   0x0102,
	}

	bytes, err := hdr.ToBytes([]byte{0xAA, 0xBB})
	if err != nil {
		t.Fatal(err)
	}

	want := []byte{
		0x00, 0x0A, 0x35, 0x04, 0xD5, 0xDE,
		0x3c, 0x18, 0xa0, 0xd3, 0x68, 0x57,
		0x01, 0x02,
		0xAA, 0xBB,
	}
	if diff := cmp.Diff(want, bytes); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}

	back, payload, err := EtherHeaderFromBytes(bytes)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(back, hdr) {
		t.Errorf("got %+v, want %+v", back, hdr)
	}
	if !cmp.Equal(payload, []byte{0xAA, 0xBB}) {
		t.Errorf("payload %v", payload)
	}
}

func TestEtherHeaderErrors(t *testing.T) {
	hdr := &EtherHeader{Destination: fpgaMac[:4], Source: localMac}
	if _, err := hdr.ToBytes(nil); err == nil {
		t.Error("expected error for short destination")
	}
	if _, _, err := EtherHeaderFromBytes(make([]byte, EtherHeaderLength-1)); err == nil {
		t.Error("expected error for runt frame")
	}
}

func TestEtherHeaderMatches(t *testing.T) {
	hdr := &EtherHeader{Destination: localMac, Source: fpgaMac, EtherType: 0x0102}

	if !hdr.matches(fpgaMac, 0x0102) {
		t.Error("frame from peer rejected")
	}
	if hdr.matches(localMac, 0x0102) {
		t.Error("frame from other host accepted")
	}
	if hdr.matches(fpgaMac, 0x0800) {
		t.Error("frame with other type accepted")
	}
}

func TestHtons(t *testing.T) {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], htons(0x0003))
	if !cmp.Equal(b[:], []byte{0x00, 0x03}) {
		t.Errorf("htons(0x0003) lays out as %v in memory", b)
	}
}
