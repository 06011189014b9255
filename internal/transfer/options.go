package transfer

import "time"

// Progress reports the chunk just acknowledged. The totals are zero when
// the size of the input is not known.
type Progress struct {
	Chunk       int
	TotalChunks int64
	Address     uint32
	Bytes       int64
	TotalBytes  int64
}

type Options struct {
	// AckTimeout bounds each wait for an acknowledgment. Zero waits forever.
	AckTimeout time.Duration
	// Retries is how often a chunk is resent after a rejection or a timeout
	// before the session fails.
	Retries  int
	Size     int64
	Progress func(Progress)
}

func NewDefaultOptions() *Options {
	return &Options{
		AckTimeout: 10 * time.Second,
		Retries:    0,
	}
}

func WithAckTimeout(d time.Duration) func(*Options) {
	return func(o *Options) {
		o.AckTimeout = d
	}
}

func WithRetries(n int) func(*Options) {
	return func(o *Options) {
		o.Retries = n
	}
}

func WithProgress(fn func(Progress)) func(*Options) {
	return func(o *Options) {
		o.Progress = fn
	}
}

func WithSize(size int64) func(*Options) {
	return func(o *Options) {
		o.Size = size
	}
}
