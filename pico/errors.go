package pico

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by any device-facing operation invoked on a
// connection that has never been opened or has been closed. No device
// traffic is issued in that case.
var ErrNotConnected = errors.New("not connected")

// ErrAlreadyOpen is returned by Open on a connection that is already open.
var ErrAlreadyOpen = errors.New("connection already open")

// UnknownDeviceStateError indicates that a link error interrupted a chunked
// transfer after the device had entered paste mode. The device may be left
// mid-paste with a partial buffer; the protocol offers no way to find out or
// to recover, so the error is surfaced instead of retried.
type UnknownDeviceStateError struct {
	// Op is the transfer step that failed
	Op string

	// Err is the underlying link error
	Err error
}

func (e *UnknownDeviceStateError) Error() string {
	return fmt.Sprintf("%s failed, device state unknown: %v", e.Op, e.Err)
}

func (e *UnknownDeviceStateError) Unwrap() error { return e.Err }
