package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected     = errors.New("serial port is not connected")
	ErrAlreadyConnected = errors.New("serial port is already connected")
	ErrNoPort           = errors.New("please select a port")
)

// ValidationError is returned for operator input that is rejected without
// touching any state.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (err ValidationError) Error() string {
	if len(err.Field) == 0 {
		err.Field = "UNKNOWN"
	}

	return fmt.Sprintf("invalid %s %q: %s", err.Field, err.Value, err.Reason)
}

// ConnectionError wraps any open, read or write failure on the serial link.
type ConnectionError struct {
	Port string
	Op   string
	Err  error
}

func (err ConnectionError) Error() string {
	if len(err.Port) == 0 {
		return fmt.Sprintf("serial %s error: %v", err.Op, err.Err)
	}
	return fmt.Sprintf("serial %s error on %s: %v", err.Op, err.Port, err.Err)
}

func (err ConnectionError) Unwrap() error {
	return err.Err
}
