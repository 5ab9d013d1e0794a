// © Copyright 2026, the tds-go authors
// SPDX-License-Identifier: Apache-2.0

package tdswire

import (
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// TokenRow is the token type byte that precedes a row on the wire.
const TokenRow byte = 0xD1

// RowToken is one decoded row: an ordered collection of nullable column
// slices, each a zero-copy retained view into the source buffer laid out
// exactly as on the wire (length headers included). The token carries a
// single reference count for the aggregate; releasing it releases every
// still-owned column slice exactly once.
type RowToken struct {
	refCount int64
	columns  []*memory.Buffer
}

// CanDecodeRow reports whether buf contains sufficient data to decode an
// entire row for the given columns. The probe is non-destructive: it
// advances internally while checking but always restores the read index, so
// it may be called any number of times as bytes arrive. It never allocates
// and never retains slices.
func CanDecodeRow(buf *Buffer, columns []Column) bool {
	saved := buf.ReadIndex()
	defer buf.SetReadIndex(saved)
	return skipRow(buf, columns)
}

// skipRow advances past one row, returning false on insufficient data. The
// cursor is left wherever the walk stopped; callers restore it.
func skipRow(buf *Buffer, columns []Column) bool {
	for i := range columns {
		if !skipColumn(buf, columns[i]) {
			return false
		}
	}
	return true
}

func skipColumn(buf *Buffer, col Column) bool {
	if col.Strategy == PartLen {
		return skipPlpColumn(buf)
	}
	if !CanDecodeLength(buf, col) {
		return false
	}
	length, err := DecodeLength(buf, col)
	if err != nil {
		return false
	}
	if length.Null {
		return true
	}
	return buf.Skip(int(length.Size)) == nil
}

// skipPlpColumn walks a chunked column: total-length header, then chunk
// records until the zero-length terminal marker.
func skipPlpColumn(buf *Buffer) bool {
	if !CanDecodePlpLength(buf) {
		return false
	}
	total, err := DecodePlpLength(buf)
	if err != nil {
		return false
	}
	if total.Null {
		return true
	}
	for {
		if buf.Readable() < 4 {
			return false
		}
		chunkLen, err := DecodeChunkHeader(buf)
		if err != nil {
			return false
		}
		if chunkLen == 0 {
			return true
		}
		if buf.Skip(int(chunkLen)) != nil {
			return false
		}
	}
}

// DecodeRow consumes one row from buf and returns a RowToken owning one
// retained slice per non-null column.
//
// DecodeRow may only be called after CanDecodeRow returned true on the same
// buffer state. Data starvation here means the caller violated that
// precondition and is surfaced as a fatal *ProtocolError, not a retryable
// condition. The decode re-walks the wire layout rather than reusing probe
// state so that a failed probe never leaves partial slices behind.
func DecodeRow(buf *Buffer, columns []Column) (*RowToken, error) {
	data := make([]*memory.Buffer, len(columns))
	for i := range columns {
		col, err := decodeColumnData(buf, columns[i])
		if err != nil {
			for _, d := range data[:i] {
				if d != nil {
					d.Release()
				}
			}
			return nil, err
		}
		data[i] = col
	}
	return &RowToken{refCount: 1, columns: data}, nil
}

// decodeColumnData returns the retained slice for one column, or nil if the
// value is null.
func decodeColumnData(buf *Buffer, col Column) (*memory.Buffer, error) {
	if col.Strategy == PartLen {
		return decodePlpData(buf)
	}

	start := buf.ReadIndex()
	length, err := DecodeLength(buf, col)
	if err != nil {
		return nil, err
	}
	if length.Null {
		return nil, nil
	}
	descriptor := buf.ReadIndex() - start

	// Slice from the descriptor start so the wire encoding is preserved.
	buf.SetReadIndex(start)
	return buf.ReadRetainedSlice(descriptor + int(length.Size))
}

// decodePlpData returns one retained slice spanning the 8-byte total-length
// header through the terminal zero-length marker inclusive. The chunk
// records stay in their original wire layout inside the slice; the chunk
// streams re-walk them lazily.
func decodePlpData(buf *Buffer) (*memory.Buffer, error) {
	start := buf.ReadIndex()
	total, err := DecodePlpLength(buf)
	if err != nil {
		return nil, err
	}
	if total.Null {
		return nil, nil
	}
	for {
		chunkLen, err := DecodeChunkHeader(buf)
		if err != nil {
			return nil, protocolErrorf("plp", "chunk header starved mid-row; probe precondition violated")
		}
		if chunkLen == 0 {
			break
		}
		if err := buf.Skip(int(chunkLen)); err != nil {
			return nil, protocolErrorf("plp", "chunk payload starved mid-row; probe precondition violated")
		}
	}
	end := buf.ReadIndex()
	buf.SetReadIndex(start)
	return buf.ReadRetainedSlice(end - start)
}

// Columns returns the number of column slots in the row.
func (t *RowToken) Columns() int {
	return len(t.columns)
}

// ColumnData returns the wire bytes for the column at index as a borrowed
// reference. It is nil for null values and for columns whose ownership was
// transferred out with TakeColumn. Callers that need the data beyond the
// row's lifetime must Retain it.
func (t *RowToken) ColumnData(index int) *memory.Buffer {
	return t.columns[index]
}

// TakeColumn transfers ownership of the column's slice out of the row,
// clearing the slot so a later Release of the row cannot double-free it.
// From then on the caller (typically a chunked-object stream) is responsible
// for releasing the slice. Returns nil for null values.
func (t *RowToken) TakeColumn(index int) *memory.Buffer {
	data := t.columns[index]
	t.columns[index] = nil
	return data
}

// Retain increments the row's aggregate reference count.
func (t *RowToken) Retain() {
	atomic.AddInt64(&t.refCount, 1)
}

// Release decrements the aggregate reference count. When it reaches zero,
// every still-owned column slice is released.
func (t *RowToken) Release() {
	n := atomic.AddInt64(&t.refCount, -1)
	if n < 0 {
		panic("tdswire: RowToken released more times than retained")
	}
	if n == 0 {
		for i, col := range t.columns {
			if col != nil {
				col.Release()
				t.columns[i] = nil
			}
		}
	}
}
