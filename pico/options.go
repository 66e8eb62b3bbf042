package pico

import (
	"time"

	"github.com/picoforge/go-picorepl/link"
	"github.com/picoforge/go-picorepl/repl"
)

// Timings names every fixed delay and deadline the protocol driver uses in
// place of acknowledgements. The defaults are tuned for a Pico W on USB CDC;
// slower boards may need larger settles, which can be set per connection via
// WithTimings without touching protocol logic.
//
// None of these are handshakes: the device never confirms anything, so every
// value is a bet on how long the device needs.
type Timings struct {
	// PollInterval is how long the background reader waits per poll for
	// incoming bytes
	PollInterval time.Duration

	// OpenSettle is the wait after opening the port, before the first write
	OpenSettle time.Duration

	// ModeSettle is the wait after a mode-transition control byte
	ModeSettle time.Duration

	// InterruptSettle is the wait after the interrupt byte that precedes a
	// script transfer
	InterruptSettle time.Duration

	// CommandSettle is the wait after a single interactive command before
	// its output is drained
	CommandSettle time.Duration

	// PasteSettle is the wait after the paste-mode control byte
	PasteSettle time.Duration

	// InterChunk is the pacing delay between consecutive upload chunks
	InterChunk time.Duration

	// ExecSettle is the wait after EOT, giving the device time to begin
	// executing the uploaded script
	ExecSettle time.Duration

	// ResponseWindow is the deadline for collecting script output. Whatever
	// has arrived when it elapses is the result; nothing arriving is an
	// empty result, not an error.
	ResponseWindow time.Duration

	// RawExecSettle is the wait after a raw-mode upload before its output
	// is drained
	RawExecSettle time.Duration

	// RebootSettle is the wait after an explicit soft reboot
	RebootSettle time.Duration

	// QuietSettle is the wait after the optional post-interrupt quiet
	// command
	QuietSettle time.Duration
}

// DefaultTimings returns the timing profile of the reference implementation.
func DefaultTimings() Timings {
	return Timings{
		PollInterval:    10 * time.Millisecond,
		OpenSettle:      time.Second,
		ModeSettle:      500 * time.Millisecond,
		InterruptSettle: 500 * time.Millisecond,
		CommandSettle:   500 * time.Millisecond,
		PasteSettle:     500 * time.Millisecond,
		InterChunk:      50 * time.Millisecond,
		ExecSettle:      2 * time.Second,
		ResponseWindow:  5 * time.Second,
		RawExecSettle:   time.Second,
		RebootSettle:    time.Second,
		QuietSettle:     100 * time.Millisecond,
	}
}

// Config holds the connection configuration.
type Config struct {
	// BaudRate is the serial baud rate
	BaudRate int

	// ChunkSize is the maximum payload per write during a paste-mode upload
	ChunkSize int

	// Timings are the fixed delays and deadlines used in place of
	// acknowledgements
	Timings Timings

	// Logger is used for logging operations (optional)
	Logger Logger

	// OpenTimeout bounds how long Open may spend acquiring the serial
	// device. Some platforms block the open call indefinitely when a device
	// is wedged mid-enumeration; the bound turns that into an
	// *link.UnavailableError. Zero or negative means unbounded.
	OpenTimeout time.Duration

	// QuietCommand, if non-empty, is written as an interactive command after
	// an interrupt sequence to silence whatever the stopped program left on
	// (default "led.value(0)"). Errors from it are ignored.
	QuietCommand string

	// Transport, if non-nil, is used instead of opening the serial device.
	// Intended for tests and alternative links.
	Transport link.Transport
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		BaudRate:     repl.DefaultBaudRate,
		ChunkSize:    repl.DefaultChunkSize,
		Timings:      DefaultTimings(),
		OpenTimeout:  DefaultOpenTimeout,
		QuietCommand: "led.value(0)",
	}
}

// DefaultOpenTimeout is the default bound on acquiring the serial device.
const DefaultOpenTimeout = 5 * time.Second

// Option is a functional option for configuring a Connection.
type Option func(*Config)

// WithBaudRate sets the serial baud rate. Default is 115200.
func WithBaudRate(baud int) Option {
	return func(c *Config) {
		if baud > 0 {
			c.BaudRate = baud
		}
	}
}

// WithChunkSize sets the maximum payload per upload chunk.
// Default is 64 bytes.
//
// Example:
//
//	conn := pico.NewConnection(path, pico.WithChunkSize(32))
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.ChunkSize = size
		}
	}
}

// WithTimings replaces the whole timing profile.
//
// Example:
//
//	t := pico.DefaultTimings()
//	t.ResponseWindow = 10 * time.Second
//	conn := pico.NewConnection(path, pico.WithTimings(t))
func WithTimings(t Timings) Option {
	return func(c *Config) {
		c.Timings = t
	}
}

// WithLogger sets a logger for connection operations.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithOpenTimeout bounds how long Open may spend acquiring the serial
// device. Zero or negative removes the bound. Default is DefaultOpenTimeout.
func WithOpenTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.OpenTimeout = d
	}
}

// WithQuietCommand sets the interactive command written after an interrupt
// sequence. An empty string disables the step.
func WithQuietCommand(cmd string) Option {
	return func(c *Config) {
		c.QuietCommand = cmd
	}
}

// WithTransport injects an already-open transport, bypassing the serial
// open. The connection takes ownership and closes it on Close.
func WithTransport(t link.Transport) Option {
	return func(c *Config) {
		c.Transport = t
	}
}
