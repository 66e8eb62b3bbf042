// Package pico drives the MicroPython interactive interpreter over a serial
// link: mode tracking, atomic script uploads via paste mode, and best-effort
// interrupt sequences for regaining control from a running program.
//
// # Overview
//
// A Connection owns one open serial transport and runs one background reader
// for its whole open lifetime. All protocol operations are synchronous and
// paced by named, fixed delays (see Timings) because the device protocol has
// no acknowledgements of any kind: the driver writes, waits, and assumes.
//
// # Basic Usage
//
//	conn := pico.NewConnection("/dev/ttyACM0")
//	if err := conn.Open(); err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
//	out, err := conn.ExecuteScript(`
//	from machine import Pin
//	led = Pin("LED", Pin.OUT)
//	led.value(1)
//	print("on")
//	`)
//
// # Mode Tracking Is a Belief
//
// The connection tracks which REPL mode it thinks the device is in and skips
// redundant transitions. Because transitions are never acknowledged, the
// belief can desync from the device — after a dropped write, a missed
// response window, or a device reset. This is an accepted property of the
// protocol, not a bug: desync is invisible until subsequent output comes back
// garbled, at which point an interrupt sequence is the recovery tool.
//
// # Script Transfers
//
// ExecuteScript transfers the program atomically: interrupt whatever runs,
// enter paste mode, stream the text in 64-byte chunks with fixed pacing,
// terminate with a single EOT, then collect output until a deadline. Partial
// commands are never executed. A link failure mid-transfer surfaces as
// UnknownDeviceStateError because the device may hold a partial buffer that
// this protocol cannot inspect.
//
// # Interrupts Are Heuristics
//
// Interrupt and ForceInterrupt run declarative InterruptPolicy sequences:
// bursts of control bytes with fixed spacing, a soft reboot, more bursts.
// They return nil once every byte is written — whether the program actually
// stopped is unknowable at this layer.
//
// # Output Observation
//
// Subscribe registers an observer invoked once per output fragment, in
// arrival order, on the reader goroutine. Observers must return promptly and
// must not call back into Connection operations. Foreground response
// collection and observers are fed from the same single reader, so they
// never race each other for bytes.
//
// # Configuration
//
// Functional options configure a connection; every fixed delay is a named
// Timings field so per-board tuning never touches protocol code:
//
//	t := pico.DefaultTimings()
//	t.ResponseWindow = 10 * time.Second
//	conn := pico.NewConnection(path,
//	    pico.WithTimings(t),
//	    pico.WithLogger(logger),
//	    pico.WithQuietCommand(""),
//	)
//
// # Errors
//
//   - ErrNotConnected: operation on a closed connection (no device traffic)
//   - link.UnavailableError: port busy or missing at Open
//   - link.WriteError / link.ReadError: OS-level I/O failures, propagated
//     immediately
//   - UnknownDeviceStateError: link failure mid-transfer
//
// Protocol-level uncertainty (mode desync, unverified interrupts) is never
// an error.
package pico
