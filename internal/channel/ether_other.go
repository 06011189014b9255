//go:build !linux

package channel

import (
	"context"
	"net"
	"time"
)

type EtherChannel struct{}

func DialEther(iface string, peer net.HardwareAddr, etherType uint16) (*EtherChannel, error) {
	return nil, ErrUnsupported
}

func (c *EtherChannel) Send(frame []byte) (int, error) {
	return 0, ErrUnsupported
}

func (c *EtherChannel) Receive(ctx context.Context, buf []byte, deadline time.Time) (int, error) {
	return 0, ErrUnsupported
}

func (c *EtherChannel) Close() error {
	return nil
}
