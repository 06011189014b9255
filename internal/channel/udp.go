package channel

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type UDPChannel struct {
	conn *net.UDPConn
}

// DialUDP connects to remote. local may be empty to let the kernel pick
// the source address.
func DialUDP(local, remote string) (*UDPChannel, error) {
	udpAddr, err := net.ResolveUDPAddr("udp4", remote)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve remote %v", remote)
	}

	var localAddr *net.UDPAddr
	if local != "" {
		localAddr, err = net.ResolveUDPAddr("udp4", local)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve local %v", local)
		}
	}

	conn, err := net.DialUDP("udp4", localAddr, udpAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %v", remote)
	}

	log.WithFields(log.Fields{
		"Local":  conn.LocalAddr().String(),
		"Remote": udpAddr.String(),
	}).Debug("Connected UDP channel")

	return &UDPChannel{conn: conn}, nil
}

func (c *UDPChannel) Send(frame []byte) (int, error) {
	n, err := c.conn.Write(frame)
	if err != nil {
		return n, errors.Wrap(err, "udp write")
	}
	return n, nil
}

func (c *UDPChannel) Receive(ctx context.Context, buf []byte, deadline time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return 0, errors.Wrap(err, "set read deadline")
	}

	// Pulling the deadline in is the only way to wake a blocked Read.
	woken := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetReadDeadline(time.Now())
		close(woken)
	})

	n, err := c.conn.Read(buf)
	if !stop() {
		<-woken
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		if e, ok := err.(net.Error); ok && e.Timeout() {
			return 0, ErrTimeout
		}
		return n, errors.Wrap(err, "udp read")
	}
	return n, nil
}

func (c *UDPChannel) Close() error {
	return c.conn.Close()
}
