//go:build linux

package channel

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

const (
	maxEtherFrame = 1518
	cancelPoll    = 100 * time.Millisecond
)

// EtherChannel sends frames straight onto a link with AF_PACKET. It needs
// CAP_NET_RAW.
type EtherChannel struct {
	fd        int
	ifindex   int
	local     net.HardwareAddr
	peer      net.HardwareAddr
	etherType uint16
	rx        []byte
}

func DialEther(iface string, peer net.HardwareAddr, etherType uint16) (*EtherChannel, error) {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return nil, errors.Wrapf(err, "lookup interface %v", iface)
	}
	if len(peer) != EtherAddrLength {
		return nil, errors.Errorf("peer address %v is not an ethernet address", peer)
	}

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(etherType)))
	if err != nil {
		return nil, errors.Wrap(err, "open packet socket")
	}

	sa := &unix.SockaddrLinklayer{
		Protocol: htons(etherType),
		Ifindex:  ifi.Index,
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(err, "bind packet socket to %v", iface)
	}

	log.WithFields(log.Fields{
		"Interface": iface,
		"Local":     ifi.HardwareAddr.String(),
		"Peer":      peer.String(),
		"EtherType": etherType,
	}).Debug("Opened raw ethernet channel")

	return &EtherChannel{
		fd:        fd,
		ifindex:   ifi.Index,
		local:     ifi.HardwareAddr,
		peer:      peer,
		etherType: etherType,
		rx:        make([]byte, maxEtherFrame),
	}, nil
}

func (c *EtherChannel) Send(frame []byte) (int, error) {
	hdr := EtherHeader{
		Destination: c.peer,
		Source:      c.local,
		EtherType:   c.etherType,
	}
	data, err := hdr.ToBytes(frame)
	if err != nil {
		return 0, err
	}

	sa := &unix.SockaddrLinklayer{
		Protocol: htons(c.etherType),
		Ifindex:  c.ifindex,
		Halen:    EtherAddrLength,
	}
	copy(sa.Addr[:], c.peer)

	if err := unix.Sendto(c.fd, data, 0, sa); err != nil {
		return 0, errors.Wrap(err, "packet socket sendto")
	}
	return len(frame), nil
}

// Receive drops everything that is not from the peer, as a capture on a
// shared segment sees other traffic too. A blocked recvfrom cannot be woken
// from another goroutine, so the wait is cut into slices of at most
// cancelPoll and ctx is checked between them.
func (c *EtherChannel) Receive(ctx context.Context, buf []byte, deadline time.Time) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		wait, err := c.nextWait(deadline)
		if err != nil {
			return 0, err
		}
		tv := unix.NsecToTimeval(wait.Nanoseconds())
		if err := unix.SetsockoptTimeval(c.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
			return 0, errors.Wrap(err, "set receive timeout")
		}

		n, _, err := unix.Recvfrom(c.fd, c.rx, 0)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR) {
				continue
			}
			return 0, errors.Wrap(err, "packet socket recvfrom")
		}

		hdr, payload, err := EtherHeaderFromBytes(c.rx[:n])
		if err != nil {
			log.WithError(err).Debug("Dropping runt frame")
			continue
		}
		if !hdr.matches(c.peer, c.etherType) {
			continue
		}

		return copy(buf, payload), nil
	}
}

func (c *EtherChannel) nextWait(deadline time.Time) (time.Duration, error) {
	if deadline.IsZero() {
		return cancelPoll, nil
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return 0, ErrTimeout
	}
	if remaining > cancelPoll {
		return cancelPoll, nil
	}
	// A zero SO_RCVTIMEO blocks forever.
	if remaining < time.Microsecond {
		return time.Microsecond, nil
	}
	return remaining, nil
}

func (c *EtherChannel) Close() error {
	return unix.Close(c.fd)
}
