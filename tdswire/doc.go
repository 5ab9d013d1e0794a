// © Copyright 2026, the tds-go authors
// SPDX-License-Identifier: Apache-2.0

// Package tdswire implements client-side decoding of the tabular data
// stream wire protocol: the typed token stream a relational database server
// uses to deliver query results over a byte stream that arrives in
// arbitrarily fragmented network reads.
//
// The package centers on incremental row-token decoding and the streaming
// decode of chunked large-object columns, together with the buffer-lifecycle
// discipline that guarantees every acquired network buffer is released
// exactly once regardless of how decoding, consumption, cancellation, or
// failure unfolds. Buffers are reference-counted [memory.Buffer] values;
// decoded columns are zero-copy retained slices of the source buffer that
// preserve the exact wire bytes, length headers included.
//
// # Probe, then decode
//
// Row decoding is two-phase. [CanDecodeRow] is a non-destructive probe
// called repeatedly as bytes arrive: it walks the row's self-describing
// column lengths and restores the read cursor on every exit, succeeding only
// once the entire row is resident. [DecodeRow] then consumes the cursor once,
// producing a [RowToken] of per-column slices. Calling DecodeRow without a
// preceding successful probe on the same buffer state is a programming
// error; starvation there is surfaced as a fatal *ProtocolError.
//
// # Chunked large objects
//
// Columns using the chunked ("partially length-prefixed") encoding decode to
// a single composite slice spanning the total-length header through the
// terminal zero-length chunk marker. [NewCharacterStream] and
// [NewBinaryStream] take ownership of such a slice and expose it as a
// single-consumer, pull-based sequence of segments with explicit Cancel and
// Discard operations. Character streams realign segments at character
// boundaries when the wire chunking splits a multi-byte sequence. The
// declared total length is informational only; termination relies solely on
// the terminal marker.
//
// # Result streams
//
// [ResultDecoder] drives the accumulate-and-probe loop over an io.Reader
// carrying ROW tokens terminated by a DONE token, and is the natural place
// to attach a [DecodeHook] (see the tdsotel subpackage) and a *slog.Logger.
//
// Out of scope: connection establishment, authentication, transport
// security, the scalar value codec catalogue, and the public query API.
// These collaborators hand this package a byte stream and column
// descriptors, and consume decoded rows or lazy chunk sequences.
package tdswire
