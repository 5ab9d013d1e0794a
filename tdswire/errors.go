// © Copyright 2026, the tds-go authors
// SPDX-License-Identifier: Apache-2.0

package tdswire

import "fmt"

// ErrProtocol is a sentinel for use with errors.Is to check whether any error
// in a chain is a *ProtocolError.
var ErrProtocol = &ProtocolError{}

// ProtocolError reports a malformed or starved tabular data stream. It is
// distinct from io.EOF: decode and streaming failures are never conflated
// with clean end-of-data.
type ProtocolError struct {
	Op      string // e.g. "row", "plp", "length"
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("tds %s: %s", e.Op, e.Message)
}

// Is supports errors.Is by matching any *ProtocolError target.
func (e *ProtocolError) Is(target error) bool {
	_, ok := target.(*ProtocolError)
	return ok
}

// protocolErrorf builds a *ProtocolError for the given decode operation.
func protocolErrorf(op, format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Op: op, Message: fmt.Sprintf(format, args...)}
}
