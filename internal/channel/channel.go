package channel

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrTimeout     = errors.New("receive deadline exceeded")
	ErrUnsupported = errors.New("channel not supported on this platform")
)

// Channel is a connected datagram endpoint. Send writes exactly one
// datagram per call. Receive blocks for one datagram until deadline or until
// ctx is done, whichever comes first; a zero deadline waits for ctx alone.
// A done ctx is reported as ctx.Err().
type Channel interface {
	Send(frame []byte) (int, error)
	Receive(ctx context.Context, buf []byte, deadline time.Time) (int, error)
	Close() error
}
