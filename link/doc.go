// Package link provides the serial transport for the REPL session driver and
// best-effort discovery of candidate devices.
//
// The Transport interface is deliberately minimal: raw writes, short-poll
// reads, idempotent close. SerialTransport implements it over
// go.bug.st/serial; tests substitute in-memory implementations.
//
// Error taxonomy: UnavailableError (port busy or missing at open),
// WriteError, ReadError. A quiet poll is not an error.
package link
