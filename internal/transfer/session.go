package transfer

import (
	"context"
	"fmt"
	"hash"
	"io"
	"os"
	"time"

	"github.com/kelindar/bitmap"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"

	"github.com/Pablu23/ddrsend/internal/channel"
	"github.com/Pablu23/ddrsend/internal/common"
)

const addressSpace = uint64(1) << 32

type session struct {
	ch      channel.Channel
	chunker *Chunker
	layout  common.Layout
	options *Options

	base    uint32
	address uint64
	bytes   int64
	chunks  int
	retries int
	retried bitmap.Bitmap
	digest  hash.Hash
	state   State
	started time.Time
}

// SendFile streams the file at path to the target starting at base. The file
// is closed on every exit path.
func SendFile(ctx context.Context, ch channel.Channel, path string, layout common.Layout, base uint32, opts ...func(*Options)) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return failedResult(base), newError(ErrFile, 0, base, err)
	}
	defer func(file *os.File) {
		err := file.Close()
		if err != nil {
			log.WithError(err).Error("Could not close File")
		}
	}(file)

	if fi, err := file.Stat(); err == nil {
		opts = append([]func(*Options){WithSize(fi.Size())}, opts...)
	}

	log.WithFields(log.Fields{
		"File Path": path,
		"Base":      fmt.Sprintf("%#08x", base),
		"Layout":    layout.String(),
	}).Info("Starting transfer")

	return Send(ctx, ch, file, layout, base, opts...)
}

// Send runs one stop-and-wait session: every frame has to be acknowledged
// before the next one leaves. The returned Result is never nil.
func Send(ctx context.Context, ch channel.Channel, r io.Reader, layout common.Layout, base uint32, opts ...func(*Options)) (*Result, error) {
	options := NewDefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	if err := layout.Validate(); err != nil {
		return failedResult(base), newError(ErrInvalidLayout, 0, base, err)
	}

	digest, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}

	s := &session{
		ch:      ch,
		chunker: NewChunker(r, layout.PayloadLength),
		layout:  layout,
		options: options,
		base:    base,
		address: uint64(base),
		digest:  digest,
		state:   Sending,
		started: time.Now(),
	}

	err = s.run(ctx)
	return s.result(), err
}

func failedResult(base uint32) *Result {
	return &Result{
		State:       Failed,
		BaseAddress: base,
		NextAddress: uint64(base),
	}
}

func (s *session) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return s.fail(ErrCancelled, err)
		}

		payload, err := s.chunker.Next()
		if errors.Is(err, io.EOF) {
			s.state = Done
			log.WithFields(log.Fields{
				"Chunks": s.chunks,
				"Bytes":  s.bytes,
			}).Info("Transfer complete")
			return nil
		}
		if err != nil {
			var e *Error
			if errors.As(err, &e) {
				e.Address = uint32(s.address)
				s.state = Failed
				return e
			}
			return s.fail(ErrFile, err)
		}

		if s.address+uint64(len(payload)) > addressSpace {
			return s.fail(ErrAddressOverflow,
				errors.Errorf("%v bytes at %#x pass the end of the 32-bit address space", len(payload), s.address))
		}

		if err := s.sendChunk(ctx, payload); err != nil {
			return err
		}
		s.advance(payload)
	}
}

func (s *session) sendChunk(ctx context.Context, payload []byte) error {
	frame, err := common.NewFrame(uint32(s.address), payload).ToBytes(s.layout)
	if err != nil {
		return s.fail(ErrTransportSend, err)
	}

	for attempt := 0; ; attempt++ {
		s.state = Sending
		n, err := s.ch.Send(frame)
		if err != nil {
			return s.fail(ErrTransportSend, err)
		}
		if n != len(frame) {
			return s.fail(ErrTransportSend, errors.Errorf("short write of %v/%v bytes", n, len(frame)))
		}

		s.state = AwaitingAck
		ack, err := s.awaitAck(ctx)

		var kind, cause error
		switch {
		case err != nil && ctx.Err() != nil:
			return s.fail(ErrCancelled, ctx.Err())
		case err == nil && ack.Accepted(s.layout):
			s.state = Advance
			return nil
		case err == nil:
			kind = ErrAckRejected
			cause = errors.Errorf("status byte %#02x in %v byte reply", ack.Status(), len(ack.Raw))
		case errors.Is(err, channel.ErrTimeout):
			kind = ErrTransportReceive
			cause = err
		default:
			return s.fail(ErrTransportReceive, err)
		}

		if attempt >= s.options.Retries {
			return s.fail(kind, cause)
		}
		if err := ctx.Err(); err != nil {
			return s.fail(ErrCancelled, err)
		}

		s.retries++
		s.retried.Set(uint32(s.chunks))
		log.WithFields(log.Fields{
			"Chunk":   s.chunks,
			"Address": fmt.Sprintf("%#08x", s.address),
			"Attempt": attempt + 1,
		}).WithError(cause).Warn("Resending chunk")
	}
}

// awaitAck reads exactly AckLength bytes; anything beyond that, such as
// ethernet padding, is dropped by the channel.
func (s *session) awaitAck(ctx context.Context) (*common.Ack, error) {
	var deadline time.Time
	if s.options.AckTimeout > 0 {
		deadline = time.Now().Add(s.options.AckTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}

	buf := make([]byte, s.layout.AckLength)
	n, err := s.ch.Receive(ctx, buf, deadline)
	if err != nil {
		return nil, err
	}
	return common.AckFromBytes(buf[:n]), nil
}

func (s *session) advance(payload []byte) {
	s.digest.Write(payload)

	log.WithFields(log.Fields{
		"Chunk":   s.chunks,
		"Address": fmt.Sprintf("%#08x", s.address),
		"Length":  len(payload),
	}).Debug("Chunk acknowledged")

	s.chunks++
	s.bytes += int64(len(payload))
	s.address += uint64(s.layout.PayloadLength)

	if s.options.Progress != nil {
		s.options.Progress(Progress{
			Chunk:       s.chunks,
			TotalChunks: s.layout.Chunks(s.options.Size),
			Address:     uint32(s.address - uint64(s.layout.PayloadLength)),
			Bytes:       s.bytes,
			TotalBytes:  s.options.Size,
		})
	}
}

func (s *session) fail(kind error, err error) error {
	s.state = Failed
	e := newError(kind, s.chunks, uint32(s.address), err)
	log.WithFields(log.Fields{
		"Chunk":   s.chunks,
		"Address": fmt.Sprintf("%#08x", s.address),
		"Bytes":   s.bytes,
	}).WithError(err).Warn(kind.Error())
	return e
}

func (s *session) result() *Result {
	res := &Result{
		State:       s.state,
		Chunks:      s.chunks,
		Bytes:       s.bytes,
		BaseAddress: s.base,
		NextAddress: s.address,
		Retries:     s.retries,
		Retried:     s.retried,
		Elapsed:     time.Since(s.started),
	}
	copy(res.Digest[:], s.digest.Sum(nil))
	return res
}
