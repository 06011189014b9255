package transfer

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/kelindar/bitmap"
)

type State uint8

const (
	Sending State = iota
	AwaitingAck
	Advance
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Sending:
		return "Sending"
	case AwaitingAck:
		return "AwaitingAck"
	case Advance:
		return "Advance"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	default:
		return "undefined"
	}
}

// Result describes a finished session, successful or not. Chunks and Bytes
// only count acknowledged data.
type Result struct {
	State       State
	Chunks      int
	Bytes       int64
	BaseAddress uint32
	NextAddress uint64
	Retries     int
	Retried     bitmap.Bitmap
	Digest      [32]byte
	Elapsed     time.Duration
}

func (r *Result) Ok() bool {
	return r.State == Done
}

func (r *Result) String() string {
	return fmt.Sprintf("%v: %v chunks, %v bytes at %#08x..%#08x, %v retries, blake2b %v",
		r.State, r.Chunks, r.Bytes, r.BaseAddress, r.NextAddress, r.Retries,
		hex.EncodeToString(r.Digest[:8]))
}
