// © Copyright 2026, the tds-go authors
// SPDX-License-Identifier: Apache-2.0

package tdswire

import (
	"encoding/binary"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleRow builds one row for (intFixed, varcharShort, varcharMaxASCII):
// a 4-byte integer, a CP1252 varchar, and a chunked ASCII large object.
func sampleRow() ([]byte, []Column) {
	columns := []Column{intFixed, varcharShort, varcharMaxASCII}

	wire := binary.LittleEndian.AppendUint32(nil, 42)
	wire = AppendLength(wire, Length{Size: 6}, UShortLen)
	wire = append(wire, "foobar"...)
	wire = append(wire, plpFixture([]byte("C1xxxxxx"), []byte("C2yyyyyy"))...)
	return wire, columns
}

func TestCanDecodeRowIsNonDestructive(t *testing.T) {
	wire, columns := sampleRow()
	buf := NewBufferBytes(wire)

	for i := 0; i < 3; i++ {
		require.True(t, CanDecodeRow(buf, columns))
		assert.Equal(t, 0, buf.ReadIndex(), "probe %d must restore the cursor", i)
	}
	assert.Equal(t, wire, buf.Bytes(), "probe must not alter buffer contents")
}

func TestCanDecodeRowRestoresCursorOnFailure(t *testing.T) {
	wire, columns := sampleRow()

	buf := NewBufferBytes(wire[:10])
	require.NoError(t, buf.Skip(3))

	assert.False(t, CanDecodeRow(buf, columns))
	assert.Equal(t, 3, buf.ReadIndex(), "failed probe must restore the cursor")
}

// Every strict prefix of a row is insufficient, and a successful probe
// guarantees decode never starves.
func TestProbeThenDecodeConsistency(t *testing.T) {
	wire, columns := sampleRow()

	for n := 0; n < len(wire); n++ {
		buf := NewBufferBytes(wire[:n])
		assert.False(t, CanDecodeRow(buf, columns), "prefix of %d bytes must not probe complete", n)
	}

	buf := NewBufferBytes(wire)
	require.True(t, CanDecodeRow(buf, columns))

	token, err := DecodeRow(buf, columns)
	require.NoError(t, err)
	defer token.Release()

	assert.Equal(t, 0, buf.Readable(), "decode must consume the entire row")
}

func TestDecodeRowPreservesWireEncoding(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	wire, columns := sampleRow()

	buf := NewBuffer(wireBuffer(mem, wire))
	token, err := DecodeRow(buf, columns)
	require.NoError(t, err)
	buf.Release()

	// Fixed column: payload only, no descriptor on the wire.
	assert.Equal(t, wire[0:4], token.ColumnData(0).Bytes())

	// Scalar column: descriptor plus payload.
	assert.Equal(t, wire[4:4+2+6], token.ColumnData(1).Bytes())

	// Chunked column: total-length header through terminal marker inclusive.
	assert.Equal(t, wire[12:], token.ColumnData(2).Bytes())

	token.Release()
	mem.AssertSize(t, 0)
}

func TestDecodeRowNullColumns(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	columns := []Column{varcharShort, varcharMaxASCII}

	wire := AppendLength(nil, Length{Null: true}, UShortLen)
	wire = AppendPlpLength(wire, PlpLength{Null: true})

	buf := NewBuffer(wireBuffer(mem, wire))
	require.True(t, CanDecodeRow(buf, columns))

	token, err := DecodeRow(buf, columns)
	require.NoError(t, err)
	buf.Release()

	assert.Nil(t, token.ColumnData(0))
	assert.Nil(t, token.ColumnData(1))

	token.Release()
	mem.AssertSize(t, 0)
}

func TestRowTokenReleaseWithoutConsumption(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	wire, columns := sampleRow()

	buf := NewBuffer(wireBuffer(mem, wire))
	token, err := DecodeRow(buf, columns)
	require.NoError(t, err)
	buf.Release()

	// No column was consumed; releasing the row must release everything.
	token.Release()
	mem.AssertSize(t, 0)
}

func TestTakeColumnTransfersOwnership(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	wire, columns := sampleRow()

	buf := NewBuffer(wireBuffer(mem, wire))
	token, err := DecodeRow(buf, columns)
	require.NoError(t, err)
	buf.Release()

	plp := token.TakeColumn(2)
	require.NotNil(t, plp)
	assert.Nil(t, token.ColumnData(2), "taken slot must be cleared")

	// Releasing the row must not double-free the transferred slice.
	token.Release()
	assert.Equal(t, wire[12:], plp.Bytes(), "transferred slice stays valid after row release")

	plp.Release()
	mem.AssertSize(t, 0)
}

func TestRowTokenRetainRelease(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	wire, columns := sampleRow()

	buf := NewBuffer(wireBuffer(mem, wire))
	token, err := DecodeRow(buf, columns)
	require.NoError(t, err)
	buf.Release()

	token.Retain()
	token.Release()
	assert.NotNil(t, token.ColumnData(0), "still owned after balanced retain/release")

	token.Release()
	mem.AssertSize(t, 0)
}

func TestCanDecodeRowChunkedNeedsTerminator(t *testing.T) {
	columns := []Column{varcharMaxASCII}

	full := plpFixture([]byte("C1xxxxxx"))
	withoutTerminator := full[:len(full)-4]

	assert.True(t, CanDecodeRow(NewBufferBytes(full), columns))
	assert.False(t, CanDecodeRow(NewBufferBytes(withoutTerminator), columns),
		"declared total length must not substitute for the terminal marker")
}

func BenchmarkDecodeRow(b *testing.B) {
	wire, columns := sampleRow()
	src := wireBuffer(memory.DefaultAllocator, wire)
	defer src.Release()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf := NewBuffer(src)
		buf.Retain() // NewBuffer assumes ownership; keep src alive across iterations
		token, err := DecodeRow(buf, columns)
		if err != nil {
			b.Fatal(err)
		}
		token.Release()
		buf.Release()
	}
}

func BenchmarkCanDecodeRow(b *testing.B) {
	wire, columns := sampleRow()
	buf := NewBufferBytes(wire)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if !CanDecodeRow(buf, columns) {
			b.Fatal("probe failed")
		}
	}
}
