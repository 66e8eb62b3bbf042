package link

import (
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
)

// Transport is the byte-level contract between the session driver and an
// open serial link.
//
// Read blocks for at most a short poll interval and returns whatever bytes
// arrived in that window; a quiet window yields (0, nil), not an error. The
// stream has exactly one reader at a time: bytes consumed by one Read are
// never seen again.
//
// Close must be safe to call multiple times.
type Transport interface {
	io.ReadWriteCloser
}

// SerialTransport is a Transport over a real serial port via go.bug.st/serial.
type SerialTransport struct {
	port      serial.Port
	path      string
	closeOnce sync.Once
	closeErr  error
}

// OpenSerial opens the serial device at path with the given baud rate and
// read-poll interval. The OS resource being busy or missing is reported as
// *UnavailableError so callers can distinguish "someone else owns the port"
// from protocol trouble.
func OpenSerial(path string, baud int, poll time.Duration) (*SerialTransport, error) {
	port, err := serial.Open(path, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, &UnavailableError{Path: path, Err: err}
	}

	// Reads double as the poll tick: each Read returns after at most the
	// poll interval with whatever bytes arrived.
	if err := port.SetReadTimeout(poll); err != nil {
		_ = port.Close()
		return nil, &UnavailableError{Path: path, Err: err}
	}

	return &SerialTransport{port: port, path: path}, nil
}

// Path returns the device path the transport was opened on.
func (t *SerialTransport) Path() string { return t.path }

// Read reads available bytes, blocking at most the configured poll interval.
// No data within the interval yields (0, nil).
func (t *SerialTransport) Read(p []byte) (int, error) {
	n, err := t.port.Read(p)
	if err != nil {
		return n, &ReadError{Path: t.path, Err: err}
	}
	return n, nil
}

// Write sends raw bytes down the link.
func (t *SerialTransport) Write(p []byte) (int, error) {
	n, err := t.port.Write(p)
	if err != nil {
		return n, &WriteError{Path: t.path, Err: err}
	}
	return n, nil
}

// Close releases the serial handle. Subsequent calls are no-ops returning
// the first result.
func (t *SerialTransport) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.port.Close()
	})
	return t.closeErr
}
