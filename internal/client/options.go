package client

import (
	"time"

	"github.com/Pablu23/ddrsend/internal/common"
)

type Options struct {
	Layout        common.Layout
	Base          uint32
	CommandLength int
	ReplyLength   int
	AckTimeout    time.Duration
	Retries       int
}

func NewDefaultOptions() *Options {
	return &Options{
		CommandLength: 100,
		ReplyLength:   300,
		AckTimeout:    10 * time.Second,
		Retries:       0,
	}
}
