package repl

import "strings"

// Fragment is one batch of bytes read from the device in a single poll,
// together with its lossy text decoding.
//
// Fragment boundaries are polling artifacts: a fragment may contain part of a
// line, several lines, or interleaved prompt and program output. Consumers
// that need lines must reassemble them across fragments.
type Fragment struct {
	// Bytes is the raw data exactly as read from the link
	Bytes []byte

	// Text is Bytes decoded as UTF-8 with invalid sequences replaced by
	// U+FFFD. Decoding is lossy and never fails.
	Text string
}

// NewFragment builds a Fragment from raw link bytes, making a private copy
// so callers may reuse their read buffer.
func NewFragment(b []byte) Fragment {
	raw := make([]byte, len(b))
	copy(raw, b)
	return Fragment{
		Bytes: raw,
		Text:  DecodeText(raw),
	}
}

// DecodeText decodes b as UTF-8, replacing invalid sequences with U+FFFD.
// Device output is nominally UTF-8 but a reset mid-character or line noise
// can produce arbitrary bytes; decoding must never be fatal.
func DecodeText(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
