// Package repl defines the MicroPython REPL wire protocol: control bytes,
// prompts, input modes, and the chunking rules for paste-mode uploads.
//
// # Protocol Overview
//
// The REPL protocol is a small stateful byte protocol with three input modes
// and no framing. Mode transitions are requested with single control bytes
// and are never acknowledged:
//
//	0x01 (Ctrl-A)  enter raw REPL
//	0x02 (Ctrl-B)  enter normal REPL
//	0x03 (Ctrl-C)  interrupt a running program
//	0x04 (Ctrl-D)  soft reboot; also end-of-transmission for uploads
//	0x05 (Ctrl-E)  enter paste mode
//
// Because nothing is acknowledged, any state a driver keeps about the
// device's mode is a belief, not a fact. See Mode for the consequences.
//
// # Paste-Mode Uploads
//
// A program is transferred atomically in paste mode: the text is split into
// ordered chunks of at most DefaultChunkSize bytes (see Chunks), each chunk
// is written with a small pacing delay, and exactly one EOT byte follows the
// last chunk, at which point the device executes the program.
//
// # Output
//
// Device output is an undelimited byte stream. Each poll of the link yields
// one Fragment: the raw bytes plus a lossy UTF-8 decoding. Fragment
// boundaries carry no protocol meaning.
//
// This package has no I/O; the session driver lives in package pico and the
// serial transport in package link.
package repl
