// Package bridge exposes the REPL driver to another process through a
// line-oriented text protocol: one command per line on the way in, tagged
// response lines on the way out. It exists so a host application (an
// editor, a block-based IDE, a test harness) can drive a board without
// linking against this module.
//
// Commands:
//
//	CONNECT:<path>          open a connection to the device at <path>
//	EXECUTE_CODE:<script>   upload and run a script via paste mode
//	INTERRUPT               run the standard interrupt sequence
//	DISCONNECT              close the connection
//	FIND_PORTS              list candidate MicroPython ports
//	STATUS                  report connected|disconnected
//	QUIT                    close and exit
//
// Responses are single tagged lines: PICO_CONNECTED,
// PICO_CONNECTION_FAILED, PICO_OUTPUT: <text>, PICO_RESULT: <text>,
// PICO_EXECUTED, PICO_ERROR: <message>, PICO_INTERRUPTED,
// PICO_DISCONNECTED, PICO_STATUS: <state>, PICO_PORTS: <devices>,
// PICO_BRIDGE_READY, PICO_BRIDGE_CLOSED, UNKNOWN_COMMAND: <line>.
// Device output arrives asynchronously as PICO_OUTPUT lines whenever the
// board prints, not only in response to a command.
package bridge

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/picoforge/go-picorepl/link"
	"github.com/picoforge/go-picorepl/pico"
	"github.com/picoforge/go-picorepl/repl"
)

// Response tags emitted by the bridge.
const (
	TagReady            = "PICO_BRIDGE_READY"
	TagClosed           = "PICO_BRIDGE_CLOSED"
	TagConnected        = "PICO_CONNECTED"
	TagConnectionFailed = "PICO_CONNECTION_FAILED"
	TagOutput           = "PICO_OUTPUT: "
	TagResult           = "PICO_RESULT: "
	TagExecuted         = "PICO_EXECUTED"
	TagError            = "PICO_ERROR: "
	TagInterrupted      = "PICO_INTERRUPTED"
	TagDisconnected     = "PICO_DISCONNECTED"
	TagStatus           = "PICO_STATUS: "
	TagPorts            = "PICO_PORTS: "
	TagUnknown          = "UNKNOWN_COMMAND: "
)

// maxCommandLine bounds one inbound command line; EXECUTE_CODE carries the
// whole script on it.
const maxCommandLine = 1 << 20

// Dialer opens a connection to the device at path. The default dialer opens
// the serial port; tests inject dialers that return stub-backed connections.
type Dialer func(path string) (*pico.Connection, error)

// PortFinder enumerates candidate device ports.
type PortFinder func() ([]link.PortDescriptor, error)

// Config holds the bridge configuration.
type Config struct {
	// Dialer opens connections for CONNECT commands
	Dialer Dialer

	// Finder serves FIND_PORTS commands
	Finder PortFinder

	// Logger is used for logging operations (optional)
	Logger pico.Logger

	// ConnOptions are passed to connections made by the default dialer
	ConnOptions []pico.Option
}

// Option is a functional option for configuring the Bridge.
type Option func(*Config)

// WithDialer replaces how CONNECT opens device connections.
func WithDialer(d Dialer) Option {
	return func(c *Config) { c.Dialer = d }
}

// WithPortFinder replaces how FIND_PORTS enumerates devices.
func WithPortFinder(f PortFinder) Option {
	return func(c *Config) { c.Finder = f }
}

// WithLogger sets a logger for bridge operations.
func WithLogger(l pico.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithConnOptions sets the connection options used by the default dialer.
func WithConnOptions(opts ...pico.Option) Option {
	return func(c *Config) { c.ConnOptions = opts }
}

// Bridge runs the command loop over one in/out stream pair. One connection
// at a time; CONNECT while connected replaces the previous connection.
type Bridge struct {
	in  io.Reader
	cfg Config

	// outMu serializes response lines: the command loop and the device
	// output observer write to the same stream.
	outMu sync.Mutex
	out   io.Writer

	conn  *pico.Connection
	subID int
}

// New creates a Bridge reading commands from in and writing tagged response
// lines to out.
func New(in io.Reader, out io.Writer, opts ...Option) *Bridge {
	cfg := Config{Finder: link.FindPicoPorts}
	for _, opt := range opts {
		opt(&cfg)
	}
	b := &Bridge{in: in, out: out, cfg: cfg}
	if b.cfg.Dialer == nil {
		b.cfg.Dialer = b.defaultDial
	}
	return b
}

func (b *Bridge) defaultDial(path string) (*pico.Connection, error) {
	opts := b.cfg.ConnOptions
	if b.cfg.Logger != nil {
		opts = append(opts, pico.WithLogger(b.cfg.Logger))
	}
	conn := pico.NewConnection(path, opts...)
	if err := conn.Open(); err != nil {
		return nil, err
	}
	return conn, nil
}

// Run processes commands until QUIT or EOF. The connection, if any, is
// closed on every exit path.
func (b *Bridge) Run() error {
	b.emit(TagReady)
	defer func() {
		b.disconnect()
		b.emit(TagClosed)
	}()

	scanner := bufio.NewScanner(b.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxCommandLine)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "QUIT" {
			return nil
		}
		b.handle(line)
	}
	return scanner.Err()
}

func (b *Bridge) handle(line string) {
	switch {
	case strings.HasPrefix(line, "CONNECT:"):
		b.connect(strings.TrimPrefix(line, "CONNECT:"))

	case strings.HasPrefix(line, "EXECUTE_CODE:"):
		b.executeCode(strings.TrimPrefix(line, "EXECUTE_CODE:"))

	case line == "INTERRUPT":
		b.interrupt()

	case line == "DISCONNECT":
		b.disconnect()
		b.emit(TagDisconnected)

	case line == "FIND_PORTS":
		b.findPorts()

	case line == "STATUS":
		if b.connected() {
			b.emit(TagStatus + "connected")
		} else {
			b.emit(TagStatus + "disconnected")
		}

	default:
		b.emit(TagUnknown + line)
	}
}

func (b *Bridge) connect(path string) {
	// Only one device at a time; a new CONNECT supersedes the old link.
	b.disconnect()

	conn, err := b.cfg.Dialer(path)
	if err != nil {
		b.logError("connect failed", "path", path, "err", err)
		b.emit(TagConnectionFailed)
		return
	}

	b.conn = conn
	b.subID = conn.Subscribe(func(frag repl.Fragment) {
		if text := strings.TrimSpace(frag.Text); text != "" {
			b.emit(TagOutput + text)
		}
	})
	b.logInfo("connected", "path", path)
	b.emit(TagConnected)
}

func (b *Bridge) executeCode(code string) {
	if !b.connected() {
		b.emit(TagError + "not connected")
		return
	}

	result, err := b.conn.ExecuteScript(code)
	if err != nil {
		b.logError("execute failed", "err", err)
		b.emit(TagError + err.Error())
		return
	}
	if result = strings.TrimSpace(result); result != "" {
		b.emit(TagResult + result)
	} else {
		b.emit(TagExecuted)
	}
}

func (b *Bridge) interrupt() {
	if !b.connected() {
		b.emit(TagError + "not connected")
		return
	}
	if err := b.conn.Interrupt(); err != nil {
		b.emit(TagError + err.Error())
		return
	}
	b.emit(TagInterrupted)
}

func (b *Bridge) findPorts() {
	ports, err := b.cfg.Finder()
	if err != nil {
		b.emit(TagError + err.Error())
		return
	}

	devices := make([]string, 0, len(ports))
	for _, p := range ports {
		devices = append(devices, p.Device)
	}
	b.emit(TagPorts + strings.Join(devices, ","))
}

func (b *Bridge) connected() bool {
	return b.conn != nil && b.conn.Connected()
}

func (b *Bridge) disconnect() {
	if b.conn == nil {
		return
	}
	b.conn.Unsubscribe(b.subID)
	if err := b.conn.Close(); err != nil {
		b.logError("close failed", "err", err)
	}
	b.conn = nil
}

// emit writes one tagged response line.
func (b *Bridge) emit(line string) {
	b.outMu.Lock()
	defer b.outMu.Unlock()
	fmt.Fprintln(b.out, line)
}

func (b *Bridge) logInfo(msg string, keysAndValues ...interface{}) {
	if b.cfg.Logger != nil {
		b.cfg.Logger.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logError(msg string, keysAndValues ...interface{}) {
	if b.cfg.Logger != nil {
		b.cfg.Logger.Error(msg, keysAndValues...)
	}
}
