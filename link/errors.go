package link

import "fmt"

// UnavailableError indicates that the serial device could not be acquired at
// open time: the path does not exist or another process holds it.
type UnavailableError struct {
	// Path is the device path that failed to open
	Path string

	// Err is the underlying error from the OS or serial driver
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("serial device %s unavailable: %v", e.Path, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// WriteError indicates that a write to the open link failed, including the
// OS blocking past its write timeout.
type WriteError struct {
	// Path is the device path of the link
	Path string

	// Err is the underlying error
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("serial write to %s failed: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ReadError indicates that a read from the open link failed. A timed-out
// poll with no data is not a ReadError; it reports zero bytes and no error.
type ReadError struct {
	// Path is the device path of the link
	Path string

	// Err is the underlying error
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("serial read from %s failed: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
