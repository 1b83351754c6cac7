package daemon

import "errors"

// ErrClosed is returned when the daemon closes the connection.
var ErrClosed = errors.New("daemon connection closed")

// ErrRejected is returned when the daemon answers a command with ok=false.
var ErrRejected = errors.New("daemon rejected command")
