// Command picobridge drives a MicroPython board over its USB serial REPL.
//
// By default it runs the line-oriented bridge protocol over stdin/stdout so a
// parent process (an editor, a block-based IDE) can control the board without
// speaking the REPL protocol itself. One-shot flags cover the common manual
// tasks:
//
//	picobridge -find-ports
//	picobridge -connect /dev/ttyACM0 -exec 'print(1+1)'
//	picobridge            # interactive bridge on stdin/stdout
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/picoforge/go-picorepl/bridge"
	"github.com/picoforge/go-picorepl/link"
	"github.com/picoforge/go-picorepl/pico"
)

// zerologAdapter exposes a zerolog.Logger through the pico.Logger interface.
type zerologAdapter struct {
	l zerolog.Logger
}

func (z zerologAdapter) Debug(msg string, keysAndValues ...interface{}) {
	z.emit(z.l.Debug(), msg, keysAndValues)
}

func (z zerologAdapter) Info(msg string, keysAndValues ...interface{}) {
	z.emit(z.l.Info(), msg, keysAndValues)
}

func (z zerologAdapter) Error(msg string, keysAndValues ...interface{}) {
	z.emit(z.l.Error(), msg, keysAndValues)
}

func (z zerologAdapter) emit(ev *zerolog.Event, msg string, keysAndValues []interface{}) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		ev = ev.Interface(key, keysAndValues[i+1])
	}
	ev.Msg(msg)
}

func main() {
	var (
		findPorts = flag.Bool("find-ports", false, "list serial ports that look like a Pico and exit")
		connect   = flag.String("connect", "", "serial port path to connect to for -exec")
		execCode  = flag.String("exec", "", "MicroPython code to run on the board named by -connect")
		baud      = flag.Int("baud", 0, "serial baud rate (0 uses the REPL default)")
		verbose   = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()
	if *verbose {
		logger = logger.Level(zerolog.DebugLevel)
	}

	if err := run(logger, *findPorts, *connect, *execCode, *baud); err != nil {
		logger.Error().Err(err).Msg("picobridge failed")
		os.Exit(1)
	}
}

func run(logger zerolog.Logger, findPorts bool, connect, execCode string, baud int) error {
	if findPorts {
		return printPorts()
	}
	if connect != "" {
		return execOnce(logger, connect, execCode, baud)
	}
	return runBridge(logger, baud)
}

func printPorts() error {
	ports, err := link.FindPicoPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("no Pico-like serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Printf("%s\t%s\t%s\n", p.Device, p.Description, p.Manufacturer)
	}
	return nil
}

func execOnce(logger zerolog.Logger, path, code string, baud int) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("-connect requires -exec")
	}

	conn := pico.NewConnection(path, connOptions(logger, baud)...)
	if err := conn.Open(); err != nil {
		return err
	}
	defer conn.Close()

	out, err := conn.ExecuteScript(code)
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) != "" {
		fmt.Print(out)
	}
	return nil
}

func runBridge(logger zerolog.Logger, baud int) error {
	b := bridge.New(os.Stdin, os.Stdout,
		bridge.WithLogger(zerologAdapter{l: logger}),
		bridge.WithConnOptions(connOptions(logger, baud)...),
	)
	return b.Run()
}

func connOptions(logger zerolog.Logger, baud int) []pico.Option {
	opts := []pico.Option{pico.WithLogger(zerologAdapter{l: logger})}
	if baud > 0 {
		opts = append(opts, pico.WithBaudRate(baud))
	}
	return opts
}
