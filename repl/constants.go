package repl

// ProtocolTarget names the interpreter protocol implemented by this library.
const ProtocolTarget = "MicroPython REPL"

// Control bytes understood by the MicroPython REPL. Each is the raw byte a
// terminal would send for the corresponding Ctrl key.
const (
	// RawMode enters the raw REPL (Ctrl-A)
	RawMode = 0x01

	// NormalMode enters the friendly interactive REPL (Ctrl-B)
	NormalMode = 0x02

	// Interrupt requests that a running program stop (Ctrl-C).
	// The device sends no acknowledgement.
	Interrupt = 0x03

	// SoftReboot soft-reboots the interpreter (Ctrl-D).
	// The same byte doubles as the end-of-transmission marker that
	// terminates a paste- or raw-mode upload.
	SoftReboot = 0x04

	// EOT is the end-of-transmission marker for chunked uploads.
	// Numerically identical to SoftReboot; kept as a separate name because
	// the two roles are unrelated in the protocol.
	EOT = 0x04

	// PasteMode enters paste mode (Ctrl-E)
	PasteMode = 0x05
)

// Prompts emitted by the REPL. Useful for diagnostics; the driver never
// depends on seeing them because fragment boundaries are polling artifacts,
// not protocol framing.
const (
	// NormalPrompt is the friendly REPL prompt
	NormalPrompt = ">>> "

	// RawPrompt is the raw REPL prompt
	RawPrompt = "\r\n>"

	// FirstRawPrompt is printed once when raw mode is first entered
	FirstRawPrompt = "raw REPL; CTRL-B to exit\r\n>"

	// PastePrefix prefixes every echoed line while in paste mode
	PastePrefix = "=== "
)

// Serial link parameters.
const (
	// DefaultBaudRate is the USB CDC baud rate used by MicroPython boards
	DefaultBaudRate = 115200

	// DefaultChunkSize is the maximum payload size per write during a
	// paste-mode upload. 64 bytes keeps each chunk within one USB packet so
	// the device's input buffer is never overrun.
	DefaultChunkSize = 64

	// LineTerminator terminates line-oriented commands sent to the REPL
	LineTerminator = "\r\n"
)
