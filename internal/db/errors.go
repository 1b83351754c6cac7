package db

import "errors"

// ErrNotFound is returned when no saved session has the requested id.
var ErrNotFound = errors.New("session not found")
