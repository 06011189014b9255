package transfer

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/Pablu23/ddrsend/internal/common"
)

var (
	ErrFile             = errors.New("file error")
	ErrTransportSend    = errors.New("transport send failed")
	ErrTransportReceive = errors.New("transport receive failed")
	ErrAckRejected      = errors.New("acknowledgment rejected")
	ErrAddressOverflow  = errors.New("target address overflow")
	ErrCancelled        = errors.New("transfer cancelled")
	ErrInvalidLayout    = common.ErrInvalidLayout
)

// Error ends a session. It matches its Kind with errors.Is and unwraps to
// the underlying cause.
type Error struct {
	Kind    error
	Chunk   int
	Address uint32
	Err     error
}

func newError(kind error, chunk int, address uint32, err error) *Error {
	return &Error{
		Kind:    kind,
		Chunk:   chunk,
		Address: address,
		Err:     err,
	}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%v at chunk %v (address %#08x)", e.Kind, e.Chunk, e.Address)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Cause() error {
	return e.Err
}
