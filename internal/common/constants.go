package common

const AddressSize = 4

const (
	AckAccept byte = 1
	AckReject byte = 0
)

const CommandTerminator byte = '<'

// HelloMessage opens a session on the command channel before any command is sent.
const HelloMessage = "Starting UDP Connection"
