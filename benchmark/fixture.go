// © Copyright 2026, the tds-go authors
// SPDX-License-Identifier: Apache-2.0

// Package benchmark builds synthetic token streams for decoder benchmarks:
// wide scalar rows, chunked large objects of configurable chunk geometry,
// and mixed result sets.
package benchmark

import (
	"encoding/binary"

	"github.com/sqlstream/tds-go/tdswire"
)

// ScalarStream encodes rows of (int32, varchar, varchar) scalar columns
// followed by a DONE token.
func ScalarStream(rows int) ([]byte, []tdswire.Column) {
	columns := []tdswire.Column{
		{Name: "id", Strategy: tdswire.FixedLen, FixedSize: 4},
		{Name: "name", Strategy: tdswire.UShortLen, Charset: tdswire.CharsetCP1252},
		{Name: "code", Strategy: tdswire.ByteLen},
	}

	name := []byte("benchmark-row-value")
	code := []byte{0xCA, 0xFE}

	var wire []byte
	for i := 0; i < rows; i++ {
		wire = append(wire, tdswire.TokenRow)
		wire = binary.LittleEndian.AppendUint32(wire, uint32(i))
		wire = tdswire.AppendLength(wire, tdswire.Length{Size: uint32(len(name))}, tdswire.UShortLen)
		wire = append(wire, name...)
		wire = tdswire.AppendLength(wire, tdswire.Length{Size: uint32(len(code))}, tdswire.ByteLen)
		wire = append(wire, code...)
	}
	return appendDone(wire, uint64(rows)), columns
}

// ChunkedStream encodes rows carrying one chunked ASCII column split into
// chunks of chunkSize bytes, followed by a DONE token.
func ChunkedStream(rows, chunks, chunkSize int) ([]byte, []tdswire.Column) {
	columns := []tdswire.Column{
		{Name: "id", Strategy: tdswire.FixedLen, FixedSize: 4},
		{Name: "payload", Strategy: tdswire.PartLen, Charset: tdswire.CharsetASCII},
	}

	chunk := make([]byte, chunkSize)
	for i := range chunk {
		chunk[i] = 'a' + byte(i%26)
	}

	var wire []byte
	for i := 0; i < rows; i++ {
		wire = append(wire, tdswire.TokenRow)
		wire = binary.LittleEndian.AppendUint32(wire, uint32(i))
		wire = tdswire.AppendPlpLength(wire, tdswire.PlpLength{Value: uint64(chunks * chunkSize)})
		for c := 0; c < chunks; c++ {
			wire = tdswire.AppendChunkHeader(wire, uint32(chunkSize))
			wire = append(wire, chunk...)
		}
		wire = tdswire.AppendChunkHeader(wire, 0)
	}
	return appendDone(wire, uint64(rows)), columns
}

func appendDone(wire []byte, rows uint64) []byte {
	wire = append(wire, tdswire.TokenDone)
	wire = binary.LittleEndian.AppendUint16(wire, tdswire.DoneCount)
	wire = binary.LittleEndian.AppendUint16(wire, 0)
	return binary.LittleEndian.AppendUint64(wire, rows)
}
