// © Copyright 2026, the tds-go authors
// SPDX-License-Identifier: Apache-2.0

package tdswire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLength(t *testing.T) {
	tests := []struct {
		name string
		col  Column
		wire []byte
		want Length
	}{
		{
			name: "byte length",
			col:  tinyVar,
			wire: []byte{0x08},
			want: Length{Size: 8},
		},
		{
			name: "byte length null",
			col:  tinyVar,
			wire: []byte{0x00},
			want: Length{Size: 0, Null: true},
		},
		{
			name: "ushort length",
			col:  varcharShort,
			wire: []byte{0x06, 0x00},
			want: Length{Size: 6},
		},
		{
			name: "ushort null sentinel",
			col:  varcharShort,
			wire: []byte{0xFF, 0xFF},
			want: Length{Null: true},
		},
		{
			name: "long length",
			col:  textLong,
			wire: []byte{0x10, 0x00, 0x01, 0x00},
			want: Length{Size: 0x10010},
		},
		{
			name: "long null sentinel",
			col:  textLong,
			wire: []byte{0xFF, 0xFF, 0xFF, 0xFF},
			want: Length{Null: true},
		},
		{
			name: "fixed consumes nothing",
			col:  intFixed,
			wire: nil,
			want: Length{Size: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewBufferBytes(tt.wire)
			require.True(t, CanDecodeLength(buf, tt.col))

			got, err := DecodeLength(buf, tt.col)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 0, buf.Readable(), "descriptor must be fully consumed")
		})
	}
}

func TestLengthRoundTrip(t *testing.T) {
	tests := []struct {
		strategy LengthStrategy
		length   Length
	}{
		{ByteLen, Length{Size: 8}},
		{ByteLen, Length{Null: true}},
		{UShortLen, Length{Size: 6}},
		{UShortLen, Length{Null: true}},
		{LongLen, Length{Size: 1 << 20}},
		{LongLen, Length{Null: true}},
	}

	for _, tt := range tests {
		wire := AppendLength(nil, tt.length, tt.strategy)
		buf := NewBufferBytes(wire)
		got, err := DecodeLength(buf, Column{Strategy: tt.strategy})
		require.NoError(t, err)

		// Null sentinels decode to Null regardless of the stored size.
		assert.Equal(t, tt.length.Null, got.Null)
		if !tt.length.Null {
			assert.Equal(t, tt.length.Size, got.Size)
		}
		assert.Equal(t, wire, AppendLength(nil, got, tt.strategy), "re-encoding must reproduce wire bytes")
	}
}

func TestCanDecodeLengthInsufficient(t *testing.T) {
	buf := NewBufferBytes([]byte{0x06})
	assert.True(t, CanDecodeLength(buf, tinyVar))
	assert.False(t, CanDecodeLength(buf, varcharShort))
	assert.False(t, CanDecodeLength(buf, textLong))
}

func TestDecodeLengthPartLenRejected(t *testing.T) {
	buf := NewBufferBytes([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})
	_, err := DecodeLength(buf, varcharMaxASCII)
	require.ErrorIs(t, err, ErrProtocol)
}

func TestDecodePlpLength(t *testing.T) {
	tests := []struct {
		name string
		wire string
		want PlpLength
	}{
		{"null sentinel", "FF FF FF FF FF FF FF FF", PlpLength{Null: true}},
		{"unknown length", "FE FF FF FF FF FF FF FF", PlpLength{Unknown: true}},
		{"literal byte count", "18 00 00 00 00 00 00 00", PlpLength{Value: 24}},
		{"zero", "00 00 00 00 00 00 00 00", PlpLength{Value: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire := decodeHex(t, tt.wire)
			buf := NewBufferBytes(wire)
			require.True(t, CanDecodePlpLength(buf))

			got, err := DecodePlpLength(buf)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, wire, AppendPlpLength(nil, got), "round trip")
		})
	}
}

func TestCanDecodePlpLengthInsufficient(t *testing.T) {
	buf := NewBufferBytes(make([]byte, 7))
	assert.False(t, CanDecodePlpLength(buf))
}

func TestChunkHeaderRoundTrip(t *testing.T) {
	for _, n := range []uint32{0, 1, 8, 0xFFFFFFFF} {
		wire := AppendChunkHeader(nil, n)
		buf := NewBufferBytes(wire)
		got, err := DecodeChunkHeader(buf)
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}
