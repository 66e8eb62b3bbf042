package pico

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/picoforge/go-picorepl/link"
	"github.com/picoforge/go-picorepl/repl"
)

// Connection drives the MicroPython REPL over one serial link.
//
// A Connection owns its transport exclusively for its open lifetime and runs
// one background goroutine that continuously reads the link. Every batch of
// bytes the reader sees becomes a repl.Fragment, delivered in order to
// subscribed observers and buffered for the foreground operation in flight.
// Foreground operations (mode ensure, command execution, script transfer,
// interrupts) run synchronously on the caller's goroutine and are serialized
// against each other.
//
// The connection tracks which REPL mode it believes the device is in. The
// protocol never acknowledges mode transitions, so this belief can desync
// from the device if a write is lost or the device resets; the driver
// accepts that and keeps operations tolerant of it rather than pretending to
// verify.
type Connection struct {
	path string
	cfg  Config

	// mu serializes lifecycle changes and all foreground device operations.
	mu        sync.Mutex
	transport link.Transport
	opened    bool

	// mode is the believed REPL mode. Written only by ensureMode and the
	// reset in Open; read anywhere.
	mode repl.Mode

	relay *outputRelay

	// pending accumulates bytes the reader has seen but no foreground
	// operation has consumed yet. notify carries a single wake-up token so
	// collectors can block with a deadline instead of sleep-polling.
	pendMu  sync.Mutex
	pending bytes.Buffer
	notify  chan struct{}

	stop       chan struct{}
	readerDone chan struct{}
}

// NewConnection creates a Connection for the device at path. The connection
// starts closed; call Open before any device-facing operation.
//
// Example:
//
//	conn := pico.NewConnection("/dev/ttyACM0",
//	    pico.WithLogger(myLogger),
//	    pico.WithChunkSize(64),
//	)
//	if err := conn.Open(); err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
func NewConnection(path string, opts ...Option) *Connection {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Connection{
		path:  path,
		cfg:   cfg,
		relay: newOutputRelay(),
	}
}

// Open acquires the serial device (or the injected transport), starts the
// background reader, waits for the board to settle, and puts the REPL into
// normal mode. Any failure after the transport is acquired releases it
// before returning, so a failed Open never leaks the port.
//
// Opening fails with *link.UnavailableError when the OS reports the device
// busy or missing or the open exceeds Config.OpenTimeout, and with
// ErrAlreadyOpen on an open connection.
func (c *Connection) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opened {
		return ErrAlreadyOpen
	}

	transport := c.cfg.Transport
	if transport == nil {
		st, err := openWithin(c.path, c.cfg.OpenTimeout, func() (link.Transport, error) {
			t, err := link.OpenSerial(c.path, c.cfg.BaudRate, c.cfg.Timings.PollInterval)
			if err != nil {
				return nil, err
			}
			return t, nil
		})
		if err != nil {
			return err
		}
		transport = st
	}

	c.transport = transport
	c.mode = repl.ModeUnknown
	c.pendMu.Lock()
	c.pending.Reset()
	c.pendMu.Unlock()
	c.notify = make(chan struct{}, 1)
	c.stop = make(chan struct{})
	c.readerDone = make(chan struct{})
	c.opened = true

	go c.readLoop(transport, c.stop, c.readerDone)

	c.logInfo("connection opened", "path", c.path, "baud", c.cfg.BaudRate)

	// Let the board finish whatever it prints on connect, then discard it.
	c.sleep(c.cfg.Timings.OpenSettle)
	c.discard("boot output")

	if err := c.ensureMode(repl.ModeNormal); err != nil {
		c.closeLocked()
		return fmt.Errorf("initial mode setup: %w", err)
	}
	return nil
}

// Close stops the background reader and releases the transport. It is safe
// to call multiple times and on a never-opened connection.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Connection) closeLocked() error {
	if !c.opened {
		return nil
	}
	c.opened = false

	close(c.stop)
	// Closing the transport unblocks the reader's pending poll.
	err := c.transport.Close()
	<-c.readerDone
	c.transport = nil

	c.logInfo("connection closed", "path", c.path)
	return err
}

// Connected reports whether the connection is open.
func (c *Connection) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened
}

// Path returns the device path the connection was created for.
func (c *Connection) Path() string { return c.path }

// Mode returns the REPL mode the driver currently believes the device is in.
func (c *Connection) Mode() repl.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Subscribe registers an observer for device output fragments and returns a
// subscription id for Unsubscribe. Observers registered before Open survive
// across reopen.
func (c *Connection) Subscribe(fn OutputObserver) int {
	return c.relay.subscribe(fn)
}

// Unsubscribe removes a previously registered observer. It takes effect
// before the next fragment is delivered.
func (c *Connection) Unsubscribe(id int) {
	c.relay.unsubscribe(id)
}

// openWithin bounds a transport acquisition by a deadline. Serial opens can
// block indefinitely on some platforms when the device is wedged
// mid-enumeration; the bound turns that into *link.UnavailableError. A
// straggling open that completes after the deadline gets its port closed so
// the device is not leaked. d <= 0 means unbounded.
func openWithin(path string, d time.Duration, open func() (link.Transport, error)) (link.Transport, error) {
	if d <= 0 {
		return open()
	}

	type result struct {
		t   link.Transport
		err error
	}
	ch := make(chan result, 1)
	go func() {
		t, err := open()
		ch <- result{t: t, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.t, r.err
	case <-timer.C:
		go func() {
			if r := <-ch; r.err == nil && r.t != nil {
				_ = r.t.Close()
			}
		}()
		return nil, &link.UnavailableError{Path: path, Err: fmt.Errorf("open timed out after %v", d)}
	}
}

// readLoop continuously drains the link for as long as the connection is
// open. Each non-empty poll becomes one fragment, dispatched to observers
// and appended to the pending buffer for foreground consumers. The loop owns
// the only read side of the transport, so observers and foreground
// collectors see the same bytes without racing for them.
func (c *Connection) readLoop(t link.Transport, stop, done chan struct{}) {
	defer close(done)

	buf := make([]byte, 4096)
	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := t.Read(buf)
		if err != nil {
			select {
			case <-stop:
				// Expected: Close tore down the transport under us.
			default:
				c.logError("background read failed", "err", err)
			}
			return
		}
		if n == 0 {
			continue
		}

		frag := repl.NewFragment(buf[:n])
		c.relay.dispatch(frag)

		c.pendMu.Lock()
		c.pending.Write(frag.Bytes)
		c.pendMu.Unlock()

		select {
		case c.notify <- struct{}{}:
		default:
		}
	}
}

// takePending removes and returns all bytes buffered since the last take.
func (c *Connection) takePending() []byte {
	c.pendMu.Lock()
	defer c.pendMu.Unlock()

	if c.pending.Len() == 0 {
		return nil
	}
	out := make([]byte, c.pending.Len())
	copy(out, c.pending.Bytes())
	c.pending.Reset()
	return out
}

// discard throws away buffered device output, logging what was dropped.
func (c *Connection) discard(what string) {
	if b := c.takePending(); len(b) > 0 {
		c.logDebug("discarding buffered output", "stage", what, "text", repl.DecodeText(b))
	}
}

// collect gathers everything the device sends within the window and returns
// its lossy decoding. The window always runs to completion: output arriving
// early does not shorten it, because nothing marks the end of a response.
func (c *Connection) collect(window time.Duration) string {
	timer := time.NewTimer(window)
	defer timer.Stop()

	var out bytes.Buffer
	for {
		select {
		case <-c.notify:
			out.Write(c.takePending())
		case <-timer.C:
			out.Write(c.takePending())
			return repl.DecodeText(out.Bytes())
		}
	}
}

// write sends raw bytes through the transport. Callers hold mu.
func (c *Connection) write(p []byte) error {
	_, err := c.transport.Write(p)
	return err
}

// requireOpen guards device-facing operations. Callers hold mu.
func (c *Connection) requireOpen() error {
	if !c.opened || c.transport == nil {
		return ErrNotConnected
	}
	return nil
}

// ensureMode puts the device into the requested REPL mode if the current
// belief differs. When the belief already matches, no device traffic is
// issued. Otherwise the mode byte is written, the device is given
// Timings.ModeSettle to react, its response is discarded, and the belief is
// updated unconditionally: the protocol offers no confirmation to wait for.
//
// Only normal and raw mode can be ensured. Paste mode is entered exclusively
// as part of a script transfer. Callers hold mu.
func (c *Connection) ensureMode(m repl.Mode) error {
	if c.mode == m {
		return nil
	}
	if m != repl.ModeNormal && m != repl.ModeRaw {
		return fmt.Errorf("cannot ensure %s mode", m)
	}

	ctrl, _ := m.ControlByte()
	c.logDebug("switching mode", "from", c.mode.String(), "to", m.String())

	if err := c.write([]byte{ctrl}); err != nil {
		return err
	}
	c.sleep(c.cfg.Timings.ModeSettle)
	c.discard("mode transition")

	c.mode = m
	return nil
}

// EnsureMode exposes the mode controller for callers that want to position
// the REPL ahead of ad-hoc traffic. See ensureMode for semantics.
func (c *Connection) EnsureMode(m repl.Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireOpen(); err != nil {
		return err
	}
	return c.ensureMode(m)
}

// ExecuteCommand runs a single interactive command in normal mode and
// returns whatever output arrived within Timings.CommandSettle. Intended for
// short one-liners; whole programs belong in ExecuteScript.
func (c *Connection) ExecuteCommand(command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireOpen(); err != nil {
		return "", err
	}
	if err := c.ensureMode(repl.ModeNormal); err != nil {
		return "", err
	}

	c.logDebug("executing command", "command", command)
	if err := c.write([]byte(command + repl.LineTerminator)); err != nil {
		return "", err
	}
	c.sleep(c.cfg.Timings.CommandSettle)
	return repl.DecodeText(c.takePending()), nil
}

// ExecuteScript uploads and runs a whole script atomically via paste mode:
//
//  1. one interrupt byte to abort whatever may be running, then a settle and
//     a drain of the wreckage
//  2. ensure normal mode
//  3. enter paste mode, settle, drain the banner
//  4. write the script in chunks of at most ChunkSize bytes, pacing each
//     chunk by Timings.InterChunk
//  5. exactly one EOT byte, then Timings.ExecSettle for execution to begin
//  6. collect output until Timings.ResponseWindow elapses
//
// The returned text is everything the device produced within the window. An
// empty result is indistinguishable from "ran successfully with no output";
// the protocol provides no way to tell them apart.
//
// A link error after the device entered paste mode returns
// *UnknownDeviceStateError: the device may hold a partial buffer and this
// protocol cannot find out, so nothing is retried.
func (c *Connection) ExecuteScript(script string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireOpen(); err != nil {
		return "", err
	}

	c.logInfo("executing script via paste mode", "bytes", len(script))

	// Abort any running program first; new code replaces old code.
	if err := c.write([]byte{repl.Interrupt}); err != nil {
		return "", err
	}
	c.sleep(c.cfg.Timings.InterruptSettle)
	c.discard("pre-transfer")

	if err := c.ensureMode(repl.ModeNormal); err != nil {
		return "", err
	}

	if err := c.write([]byte{repl.PasteMode}); err != nil {
		return "", err
	}
	c.sleep(c.cfg.Timings.PasteSettle)
	c.discard("paste banner")

	// From here on the device is mid-paste; a failed write leaves it in a
	// state this protocol cannot query.
	for _, chunk := range repl.Chunks([]byte(script), c.cfg.ChunkSize) {
		if err := c.write(chunk); err != nil {
			return "", &UnknownDeviceStateError{Op: "script transfer", Err: err}
		}
		c.sleep(c.cfg.Timings.InterChunk)
	}

	if err := c.write([]byte{repl.EOT}); err != nil {
		return "", &UnknownDeviceStateError{Op: "script transfer", Err: err}
	}
	c.sleep(c.cfg.Timings.ExecSettle)

	return c.collect(c.cfg.Timings.ResponseWindow), nil
}

// ExecuteScriptRaw uploads and runs a script via the raw REPL: the whole
// program in one write, terminated by EOT. Less robust than ExecuteScript
// for long programs; kept for boards where paste mode is unavailable.
func (c *Connection) ExecuteScriptRaw(script string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireOpen(); err != nil {
		return "", err
	}
	if err := c.ensureMode(repl.ModeRaw); err != nil {
		return "", err
	}

	c.logInfo("executing script via raw mode", "bytes", len(script))
	payload := append([]byte(script), repl.EOT)
	if err := c.write(payload); err != nil {
		return "", &UnknownDeviceStateError{Op: "raw transfer", Err: err}
	}
	c.sleep(c.cfg.Timings.RawExecSettle)
	return repl.DecodeText(c.takePending()), nil
}

// SoftReboot soft-reboots the interpreter and discards the reboot banner.
func (c *Connection) SoftReboot() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireOpen(); err != nil {
		return err
	}

	c.logInfo("soft rebooting")
	if err := c.write([]byte{repl.SoftReboot}); err != nil {
		return err
	}
	c.sleep(c.cfg.Timings.RebootSettle)
	c.discard("reboot banner")
	return nil
}

// Interrupt runs StandardInterrupt to regain control from a running program.
// Success means every write completed, not that the program stopped: the
// device never acknowledges interrupts. See InterruptPolicy.
func (c *Connection) Interrupt() error {
	return c.RunInterruptPolicy(StandardInterrupt)
}

// ForceInterrupt runs ForcefulInterrupt, the aggressive recovery sequence
// for programs that survive Interrupt. Same best-effort semantics.
func (c *Connection) ForceInterrupt() error {
	return c.RunInterruptPolicy(ForcefulInterrupt)
}

// RunInterruptPolicy executes an interrupt policy step by step, then writes
// the configured quiet command (if any), ignoring its outcome. A link error
// aborts the sequence immediately.
func (c *Connection) RunInterruptPolicy(policy InterruptPolicy) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireOpen(); err != nil {
		return err
	}

	c.logInfo("running interrupt sequence", "policy", policy.Name, "writes", policy.WriteCount())

	for _, step := range policy.Steps {
		for i := 0; i < step.Repeat; i++ {
			if err := c.write([]byte{step.Control}); err != nil {
				return err
			}
			c.sleep(step.Spacing)
		}
		if step.DrainAfter {
			c.discard("interrupt")
		}
	}

	if c.cfg.QuietCommand != "" {
		// Best-effort cleanup of whatever the stopped program left on.
		if err := c.write([]byte(c.cfg.QuietCommand + repl.LineTerminator)); err != nil {
			c.logDebug("quiet command failed", "err", err)
		} else {
			c.sleep(c.cfg.Timings.QuietSettle)
		}
	}
	return nil
}

func (c *Connection) sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// logDebug logs a debug message if a logger is configured.
func (c *Connection) logDebug(msg string, keysAndValues ...interface{}) {
	if c.cfg.Logger != nil {
		c.cfg.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (c *Connection) logInfo(msg string, keysAndValues ...interface{}) {
	if c.cfg.Logger != nil {
		c.cfg.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (c *Connection) logError(msg string, keysAndValues ...interface{}) {
	if c.cfg.Logger != nil {
		c.cfg.Logger.Error(msg, keysAndValues...)
	}
}
