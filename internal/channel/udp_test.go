package channel

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func listenLoopback(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestUDPChannelSendReceive(t *testing.T) {
	peer := listenLoopback(t)

	ch, err := DialUDP("", peer.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	if _, err := ch.Send([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 16)
	peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, addr, err := peer.ReadFromUDP(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(buf[:n], []byte{1, 2, 3}) {
		t.Fatalf("peer got %v", buf[:n])
	}

	if _, err := peer.WriteToUDP([]byte{0, 0, 0, 0, 0, 1}, addr); err != nil {
		t.Fatal(err)
	}

	n, err = ch.Receive(context.Background(), buf, time.Now().Add(2*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(buf[:n], []byte{0, 0, 0, 0, 0, 1}) {
		t.Errorf("channel got %v", buf[:n])
	}
}

func TestUDPChannelTimeout(t *testing.T) {
	peer := listenLoopback(t)

	ch, err := DialUDP("", peer.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	buf := make([]byte, 6)
	_, err = ch.Receive(context.Background(), buf, time.Now().Add(50*time.Millisecond))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
}

func TestDialUDPBadAddress(t *testing.T) {
	if _, err := DialUDP("", "not an address"); err == nil {
		t.Error("expected resolve error")
	}
}

func TestUDPChannelCancel(t *testing.T) {
	peer := listenLoopback(t)

	ch, err := DialUDP("", peer.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	buf := make([]byte, 6)
	_, err = ch.Receive(ctx, buf, time.Time{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("receive returned %v after cancel", elapsed)
	}

	// The channel stays usable after a cancelled read.
	if _, err := ch.Send([]byte{1}); err != nil {
		t.Fatal(err)
	}
	_, addr, err := peer.ReadFromUDP(buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := peer.WriteToUDP([]byte{0, 0, 0, 0, 0, 1}, addr); err != nil {
		t.Fatal(err)
	}
	n, err := ch.Receive(context.Background(), buf, time.Now().Add(2*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 {
		t.Errorf("got %v bytes", n)
	}
}

func TestUDPChannelCancelledBeforeRead(t *testing.T) {
	peer := listenLoopback(t)

	ch, err := DialUDP("", peer.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ch.Receive(ctx, make([]byte, 6), time.Time{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}
