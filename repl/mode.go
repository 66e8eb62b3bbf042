package repl

import "fmt"

// Mode identifies a REPL input mode.
//
// A Mode value held by a driver is the driver's belief about the device, not
// a verified fact: the protocol never acknowledges a mode transition, so the
// belief can diverge from reality if a write is dropped, a response window is
// missed, or the device resets. Operations that depend on Mode must tolerate
// that uncertainty.
type Mode int

const (
	// ModeUnknown means no assumption can be made about the device's mode.
	// This is the state immediately after opening a connection.
	ModeUnknown Mode = iota

	// ModeNormal is the friendly interactive REPL accepting single-line
	// commands terminated by LineTerminator.
	ModeNormal

	// ModeRaw is the raw REPL accepting a full program terminated by EOT,
	// with minimal echo.
	ModeRaw

	// ModePaste is paste mode: the REPL receives a full program as literal
	// text and executes it upon EOT.
	ModePaste
)

// String returns a human-readable mode name.
func (m Mode) String() string {
	switch m {
	case ModeUnknown:
		return "unknown"
	case ModeNormal:
		return "normal"
	case ModeRaw:
		return "raw"
	case ModePaste:
		return "paste"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ControlByte returns the control byte that requests a transition into the
// mode, and whether such a byte exists. ModeUnknown has no transition byte,
// and ModePaste is only entered as part of a script transfer.
func (m Mode) ControlByte() (byte, bool) {
	switch m {
	case ModeNormal:
		return NormalMode, true
	case ModeRaw:
		return RawMode, true
	case ModePaste:
		return PasteMode, true
	default:
		return 0, false
	}
}
