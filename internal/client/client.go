package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Pablu23/ddrsend/internal/channel"
	"github.com/Pablu23/ddrsend/internal/common"
	"github.com/Pablu23/ddrsend/internal/transfer"
)

// Client drives a target over two channels: text commands on one, sample
// file frames on the other.
type Client struct {
	cmd     channel.Channel
	sample  channel.Channel
	options *Options
}

func New(cmd, sample channel.Channel, opts ...func(*Options)) (*Client, error) {
	options := NewDefaultOptions()

	for _, opt := range opts {
		opt(options)
	}

	if err := options.Layout.Validate(); err != nil {
		return nil, err
	}
	if options.CommandLength <= 0 || options.ReplyLength <= 0 {
		return nil, errors.Errorf("command length %v and reply length %v must be positive",
			options.CommandLength, options.ReplyLength)
	}

	return &Client{
		cmd:     cmd,
		sample:  sample,
		options: options,
	}, nil
}

// SendCommand sends args over the command channel and waits for one reply.
func (c *Client) SendCommand(ctx context.Context, args []string) (string, error) {
	pck, err := common.NewCommand(args)
	if err != nil {
		return "", err
	}
	data, err := pck.ToBytes(c.options.CommandLength)
	if err != nil {
		return "", err
	}

	log.WithField("Command", args).Debug("Sending command")
	return c.roundTrip(ctx, data)
}

// Hello opens the command session the way the device expects and returns
// its greeting.
func (c *Client) Hello(ctx context.Context) (string, error) {
	data, err := common.NewHello(c.options.ReplyLength)
	if err != nil {
		return "", err
	}

	log.WithField("Bytes", len(data)).Debug("Sending hello")
	return c.roundTrip(ctx, data)
}

func (c *Client) roundTrip(ctx context.Context, data []byte) (string, error) {
	if _, err := c.cmd.Send(data); err != nil {
		return "", errors.Wrap(err, "send command")
	}

	var deadline time.Time
	if c.options.AckTimeout > 0 {
		deadline = time.Now().Add(c.options.AckTimeout)
	}

	buf := make([]byte, c.options.ReplyLength)
	n, err := c.cmd.Receive(ctx, buf, deadline)
	if err != nil {
		return "", errors.Wrap(err, "receive command reply")
	}
	return common.TrimReply(buf[:n]), nil
}

// SendSampleFile writes the file at path to the target memory at Base+offset.
func (c *Client) SendSampleFile(ctx context.Context, offset uint32, path string, opts ...func(*transfer.Options)) (*transfer.Result, error) {
	start := uint64(c.options.Base) + uint64(offset)
	if start > uint64(^uint32(0)) {
		return nil, errors.Wrapf(transfer.ErrAddressOverflow, "base %#08x + offset %#x", c.options.Base, offset)
	}

	opts = append([]func(*transfer.Options){
		transfer.WithAckTimeout(c.options.AckTimeout),
		transfer.WithRetries(c.options.Retries),
	}, opts...)

	return transfer.SendFile(ctx, c.sample, path, c.options.Layout, uint32(start), opts...)
}

// Run reads commands from in until "close", end of input or ctx is done.
// Failed commands are reported on out and the loop carries on.
//
// Lines are read on a separate goroutine so that a cancelled ctx ends Run
// even while in is blocked. That goroutine exits once in returns.
func (c *Client) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	var scanErr error

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		scanErr = scanner.Err()
	}()

	for {
		fmt.Fprintln(out, "> Please enter command starting with '-c' OR '-d'")
		fmt.Fprint(out, "> ")

		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				return scanErr
			}
			line = l
		}

		if c.Execute(ctx, line, out) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Execute runs a single command line and reports whether the loop should end.
func (c *Client) Execute(ctx context.Context, line string, out io.Writer) bool {
	args := common.Tokenize(line)
	if len(args) == 0 {
		fmt.Fprintln(out, "Please Enter Correct Command Sequence")
		return false
	}

	switch args[0] {
	case "-c":
		if len(args) < 2 {
			fmt.Fprintln(out, "Usage: -c <args...>")
			return false
		}
		reply, err := c.SendCommand(ctx, args[1:])
		if err != nil {
			log.WithError(err).Error("Command failed")
			fmt.Fprintf(out, "Command failed: %v\n", err)
			return false
		}
		fmt.Fprintf(out, "Received message:\n%v\n\n", reply)
	case "-d":
		if len(args) != 3 {
			fmt.Fprintln(out, "Usage: -d <offset> <file>")
			return false
		}
		offset, err := parseOffset(args[1])
		if err != nil {
			fmt.Fprintf(out, "Invalid offset %q: %v\n", args[1], err)
			return false
		}
		c.sendFile(ctx, offset, args[2], out)
	case "help":
		PrintHelpInfo(out)
	case "close":
		return true
	default:
		fmt.Fprintln(out, "Error: Must enter '-c' / '-d' command tags...")
	}
	return false
}

func (c *Client) sendFile(ctx context.Context, offset uint32, path string, out io.Writer) {
	progress := func(p transfer.Progress) {
		if p.TotalBytes > 0 {
			fmt.Fprintf(out, "\rSent %v/%v bytes, chunk %v of %v at %#08x", p.Bytes, p.TotalBytes, p.Chunk, p.TotalChunks, p.Address)
		} else {
			fmt.Fprintf(out, "\rSent %v bytes, chunk %v at %#08x", p.Bytes, p.Chunk, p.Address)
		}
	}

	res, err := c.SendSampleFile(ctx, offset, path, transfer.WithProgress(progress))
	if res != nil && res.Chunks > 0 {
		fmt.Fprintln(out)
	}
	if err != nil {
		if res != nil {
			fmt.Fprintf(out, "File transfer failed after %v chunks: %v\n", res.Chunks, err)
		} else {
			fmt.Fprintf(out, "File transfer failed: %v\n", err)
		}
		return
	}

	fmt.Fprintln(out, "File transfer complete!")
	fmt.Fprintln(out, res.String())
}

// parseOffset accepts a decimal offset or a hexadecimal one prefixed with 0x.
// A leading zero does not switch to octal.
func parseOffset(s string) (uint32, error) {
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	offset, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, errors.Wrap(err, "offset must be decimal or 0x hex")
	}
	return uint32(offset), nil
}
