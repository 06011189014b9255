package common

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
)

// Tokenize splits a command line on whitespace. Empty input gives no tokens.
func Tokenize(line string) []string {
	return strings.Fields(line)
}

type CommandPacket struct {
	Args []string
}

func NewCommand(args []string) (*CommandPacket, error) {
	if len(args) == 0 {
		return nil, errors.New("command needs at least one argument")
	}
	for _, arg := range args {
		if arg == "" || strings.ContainsAny(arg, " <\x00") {
			return nil, errors.Errorf("invalid command argument %q", arg)
		}
	}
	return &CommandPacket{Args: args}, nil
}

// ToBytes joins the arguments with single spaces, terminates them with
// CommandTerminator and zero pads to length.
func (pck *CommandPacket) ToBytes(length int) ([]byte, error) {
	text := strings.Join(pck.Args, " ")
	if len(text)+1 > length {
		return nil, errors.Errorf("command of %v bytes does not fit into %v byte packet", len(text)+1, length)
	}

	arr := make([]byte, length)
	copy(arr, text)
	arr[len(text)] = CommandTerminator
	return arr, nil
}

func CommandFromBytes(data []byte) (*CommandPacket, error) {
	end := bytes.IndexByte(data, CommandTerminator)
	if end < 0 {
		return nil, errors.New("command packet is not terminated")
	}
	return NewCommand(Tokenize(string(data[:end])))
}

// TrimReply drops the zero padding a fixed size reply buffer carries.
func TrimReply(data []byte) string {
	return string(bytes.TrimRight(data, "\x00"))
}

// NewHello builds the zero padded session opener of the given length.
func NewHello(length int) ([]byte, error) {
	if len(HelloMessage) >= length {
		return nil, errors.Errorf("hello of %v bytes does not fit into %v byte packet", len(HelloMessage)+1, length)
	}
	arr := make([]byte, length)
	copy(arr, HelloMessage)
	return arr, nil
}

// IsHello reports whether data is a session opener.
func IsHello(data []byte) bool {
	return bytes.HasPrefix(data, []byte(HelloMessage)) && bytes.IndexByte(data, CommandTerminator) < 0
}
