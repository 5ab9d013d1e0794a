// © Copyright 2026, the tds-go authors
// SPDX-License-Identifier: Apache-2.0

package tdswire

import (
	"encoding/binary"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Buffer is a read cursor over a reference-counted [memory.Buffer]. It is the
// unit of ownership for all decoding in this package: probes save and restore
// the read index explicitly, and decoded column values are zero-copy retained
// slices of the underlying buffer created with [memory.SliceBuffer].
//
// A Buffer takes ownership of one reference to the wrapped buffer. Release it
// exactly once when done; retained slices handed out by [Buffer.ReadRetainedSlice]
// carry their own reference and keep the underlying memory alive independently.
type Buffer struct {
	mem *memory.Buffer
	r   int
}

// NewBuffer wraps a reference-counted buffer in a read cursor positioned at
// the start. Ownership of one reference transfers to the returned Buffer.
func NewBuffer(buf *memory.Buffer) *Buffer {
	return &Buffer{mem: buf}
}

// NewBufferBytes wraps a plain byte slice in a read cursor. The backing
// buffer is not allocator-owned; Release only drops the reference count.
func NewBufferBytes(p []byte) *Buffer {
	return &Buffer{mem: memory.NewBufferBytes(p)}
}

// Retain increments the reference count of the underlying buffer.
func (b *Buffer) Retain() { b.mem.Retain() }

// Release decrements the reference count of the underlying buffer, freeing
// it once no cursor or slice refers to it anymore.
func (b *Buffer) Release() { b.mem.Release() }

// Len returns the total length of the underlying buffer.
func (b *Buffer) Len() int { return b.mem.Len() }

// Readable returns the number of bytes left between the read index and the
// end of the buffer.
func (b *Buffer) Readable() int { return b.mem.Len() - b.r }

// ReadIndex returns the current read index.
func (b *Buffer) ReadIndex() int { return b.r }

// SetReadIndex moves the read index to i. This is the explicit rollback
// mechanism used by the non-destructive probes: callers record ReadIndex,
// walk forward, and restore, so the guarantee does not depend on unwinding.
func (b *Buffer) SetReadIndex(i int) {
	if i < 0 || i > b.mem.Len() {
		panic("tdswire: read index out of range")
	}
	b.r = i
}

// Skip advances the read index by n bytes. It returns a *ProtocolError if
// fewer than n bytes are readable.
func (b *Buffer) Skip(n int) error {
	if b.Readable() < n {
		return protocolErrorf("buffer", "cannot skip %d bytes, %d readable", n, b.Readable())
	}
	b.r += n
	return nil
}

// Bytes returns the readable bytes as a borrowed view. The view is only
// valid while the cursor holds its reference.
func (b *Buffer) Bytes() []byte {
	return b.mem.Bytes()[b.r:b.mem.Len()]
}

// ReadUint8 reads one byte.
func (b *Buffer) ReadUint8() (uint8, error) {
	if b.Readable() < 1 {
		return 0, protocolErrorf("buffer", "short read: need 1 byte, %d readable", b.Readable())
	}
	v := b.mem.Bytes()[b.r]
	b.r++
	return v, nil
}

// ReadUint16 reads a little-endian uint16.
func (b *Buffer) ReadUint16() (uint16, error) {
	if b.Readable() < 2 {
		return 0, protocolErrorf("buffer", "short read: need 2 bytes, %d readable", b.Readable())
	}
	v := binary.LittleEndian.Uint16(b.mem.Bytes()[b.r:])
	b.r += 2
	return v, nil
}

// ReadUint32 reads a little-endian uint32.
func (b *Buffer) ReadUint32() (uint32, error) {
	if b.Readable() < 4 {
		return 0, protocolErrorf("buffer", "short read: need 4 bytes, %d readable", b.Readable())
	}
	v := binary.LittleEndian.Uint32(b.mem.Bytes()[b.r:])
	b.r += 4
	return v, nil
}

// ReadUint64 reads a little-endian uint64.
func (b *Buffer) ReadUint64() (uint64, error) {
	if b.Readable() < 8 {
		return 0, protocolErrorf("buffer", "short read: need 8 bytes, %d readable", b.Readable())
	}
	v := binary.LittleEndian.Uint64(b.mem.Bytes()[b.r:])
	b.r += 8
	return v, nil
}

// ReadRetainedSlice returns a zero-copy slice of the next n bytes and
// advances the read index past them. The slice holds its own reference to
// the underlying buffer; the caller must release it exactly once.
func (b *Buffer) ReadRetainedSlice(n int) (*memory.Buffer, error) {
	if b.Readable() < n {
		return nil, protocolErrorf("buffer", "short read: need %d bytes, %d readable", n, b.Readable())
	}
	s := memory.SliceBuffer(b.mem, b.r, n)
	b.r += n
	return s, nil
}
