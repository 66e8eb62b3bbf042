package pico

import "github.com/picoforge/go-picorepl/repl"

// OutputObserver receives one call per output fragment read from the device,
// in arrival order, on the goroutine that owns the background reader.
//
// Observers must return promptly: a blocked observer stalls all further
// reads from the device.
//
// Example:
//
//	conn.Subscribe(func(frag repl.Fragment) {
//	    fmt.Print(frag.Text)
//	})
type OutputObserver func(repl.Fragment)

// Logger is an optional logging interface that can be provided to the
// connection. This allows integration with any logging framework.
//
// Example with zerolog:
//
//	type ZLog struct{ l zerolog.Logger }
//	func (z *ZLog) Debug(msg string, kv ...interface{}) { z.l.Debug().Fields(kv).Msg(msg) }
//	func (z *ZLog) Info(msg string, kv ...interface{})  { z.l.Info().Fields(kv).Msg(msg) }
//	func (z *ZLog) Error(msg string, kv ...interface{}) { z.l.Error().Fields(kv).Msg(msg) }
//
//	conn := pico.NewConnection(path, pico.WithLogger(&ZLog{...}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
