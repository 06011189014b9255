package target

import "github.com/Pablu23/ddrsend/internal/common"

type Options struct {
	SampleAddress  string
	CommandAddress string
	Layout         common.Layout
	Base           uint32
	MemorySize     int
	CommandLength  int
	ReplyLength    int
	// Reject, when set, makes the target refuse frames it returns true for.
	Reject func(frame *common.Frame) bool
}

func NewDefaultOptions() *Options {
	return &Options{
		SampleAddress:  "127.0.0.1:0",
		CommandAddress: "127.0.0.1:0",
		MemorySize:     1 << 20,
		CommandLength:  100,
		ReplyLength:    300,
	}
}
