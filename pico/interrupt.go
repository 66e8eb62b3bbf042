package pico

import (
	"time"

	"github.com/picoforge/go-picorepl/repl"
)

// InterruptStep is one burst of a recovery sequence: the same control byte
// written Repeat times with Spacing between writes, optionally followed by a
// drain of whatever the device produced.
type InterruptStep struct {
	// Control is the byte to write
	Control byte

	// Repeat is how many times to write it
	Repeat int

	// Spacing is the delay after each write
	Spacing time.Duration

	// DrainAfter discards any buffered device output once the burst is done
	DrainAfter bool
}

// InterruptPolicy is a named, declarative recovery sequence. The device
// never acknowledges interrupts, so a policy is a heuristic: it reports
// success once all its writes complete, regardless of whether the program
// actually stopped. The repeat counts and spacings exist because a single
// interrupt byte is often swallowed by a busy program; they are not retries
// toward a verified outcome.
type InterruptPolicy struct {
	// Name identifies the policy in logs
	Name string

	// Steps are executed strictly in order
	Steps []InterruptStep
}

// WriteCount returns the total number of control-byte writes the policy
// issues. Useful for reasoning about its fixed, bounded cost.
func (p InterruptPolicy) WriteCount() int {
	n := 0
	for _, s := range p.Steps {
		n += s.Repeat
	}
	return n
}

// StandardInterrupt is the default recovery sequence: a burst of interrupts,
// a soft reboot to break out of paste mode, and a final burst of interrupts.
var StandardInterrupt = InterruptPolicy{
	Name: "standard",
	Steps: []InterruptStep{
		{Control: repl.Interrupt, Repeat: 5, Spacing: 50 * time.Millisecond, DrainAfter: true},
		{Control: repl.SoftReboot, Repeat: 1, Spacing: 300 * time.Millisecond},
		{Control: repl.Interrupt, Repeat: 3, Spacing: 100 * time.Millisecond, DrainAfter: true},
	},
}

// ForcefulInterrupt is a longer, more aggressive sequence for programs that
// survive StandardInterrupt: rapid-fire interrupts, a soft reboot, further
// interrupts, and an explicit normal-mode byte in case the device is stuck
// in paste mode.
var ForcefulInterrupt = InterruptPolicy{
	Name: "forceful",
	Steps: []InterruptStep{
		{Control: repl.Interrupt, Repeat: 10, Spacing: 10 * time.Millisecond},
		{Control: repl.SoftReboot, Repeat: 1, Spacing: 300 * time.Millisecond},
		{Control: repl.Interrupt, Repeat: 5, Spacing: 50 * time.Millisecond, DrainAfter: true},
		{Control: repl.NormalMode, Repeat: 1, Spacing: 200 * time.Millisecond},
		{Control: repl.Interrupt, Repeat: 3, Spacing: 100 * time.Millisecond, DrainAfter: true},
	},
}
