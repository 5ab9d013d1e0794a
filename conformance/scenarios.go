// © Copyright 2026, the tds-go authors
// SPDX-License-Identifier: Apache-2.0

package conformance

import (
	"encoding/binary"

	"github.com/sqlstream/tds-go/tdswire"
)

// Scenario is one conformance case: a wire image, the column layout it
// was encoded against, and the expected decode outcome.
type Scenario struct {
	Name    string
	Columns []tdswire.Column

	// Wire is the raw token stream fed to the decoder.
	Wire []byte

	// WantRows is the number of rows expected before the terminal outcome.
	WantRows int

	// WantText holds, per row, the fully streamed text of each chunked
	// character column in column order. Nil when no such column exists.
	WantText [][]string

	// WantErr is the expected terminal error class. Nil means the stream
	// ends with a clean DONE token.
	WantErr error
}

var (
	colID    = tdswire.Column{Name: "id", Strategy: tdswire.FixedLen, FixedSize: 4}
	colName  = tdswire.Column{Name: "name", Strategy: tdswire.UShortLen, Charset: tdswire.CharsetCP1252}
	colFlag  = tdswire.Column{Name: "flag", Strategy: tdswire.ByteLen}
	colBody  = tdswire.Column{Name: "body", Strategy: tdswire.LongLen, Charset: tdswire.CharsetCP1252}
	colNotes = tdswire.Column{Name: "notes", Strategy: tdswire.PartLen, Charset: tdswire.CharsetASCII}
	colText  = tdswire.Column{Name: "text", Strategy: tdswire.PartLen, Charset: tdswire.CharsetUTF16LE}
)

func row(payload []byte) []byte {
	return append([]byte{tdswire.TokenRow}, payload...)
}

func done(rows uint64) []byte {
	wire := []byte{tdswire.TokenDone}
	wire = binary.LittleEndian.AppendUint16(wire, tdswire.DoneCount)
	wire = binary.LittleEndian.AppendUint16(wire, 0)
	return binary.LittleEndian.AppendUint64(wire, rows)
}

func plp(chunks ...[]byte) []byte {
	var total uint64
	for _, c := range chunks {
		total += uint64(len(c))
	}
	wire := tdswire.AppendPlpLength(nil, tdswire.PlpLength{Value: total})
	for _, c := range chunks {
		wire = tdswire.AppendChunkHeader(wire, uint32(len(c)))
		wire = append(wire, c...)
	}
	return tdswire.AppendChunkHeader(wire, 0)
}

func utf16le(s string) []byte {
	wire := make([]byte, 0, len(s)*2)
	for _, r := range s {
		wire = append(wire, byte(r), byte(r>>8))
	}
	return wire
}

// Scenarios returns the full conformance corpus.
func Scenarios() []Scenario {
	scalarRow := binary.LittleEndian.AppendUint32(nil, 7)
	scalarRow = tdswire.AppendLength(scalarRow, tdswire.Length{Size: 5}, tdswire.UShortLen)
	scalarRow = append(scalarRow, "alice"...)
	scalarRow = tdswire.AppendLength(scalarRow, tdswire.Length{Size: 1}, tdswire.ByteLen)
	scalarRow = append(scalarRow, 0x01)
	scalarRow = tdswire.AppendLength(scalarRow, tdswire.Length{Size: 4}, tdswire.LongLen)
	scalarRow = append(scalarRow, "text"...)

	nullRow := tdswire.AppendLength(nil, tdswire.Length{Null: true}, tdswire.UShortLen)
	nullRow = tdswire.AppendLength(nullRow, tdswire.Length{Null: true}, tdswire.ByteLen)
	nullRow = tdswire.AppendLength(nullRow, tdswire.Length{Null: true}, tdswire.LongLen)
	nullRow = tdswire.AppendPlpLength(nullRow, tdswire.PlpLength{Null: true})

	chunkedRow := binary.LittleEndian.AppendUint32(nil, 1)
	chunkedRow = append(chunkedRow, plp([]byte("C1xxxxxx"), []byte("C2yyyyyy"))...)

	unknownLength := binary.LittleEndian.AppendUint32(nil, 2)
	unknownLength = append(unknownLength, tdswire.AppendPlpLength(nil, tdswire.PlpLength{Unknown: true})...)
	unknownLength = tdswire.AppendChunkHeader(unknownLength, 5)
	unknownLength = append(unknownLength, "hello"...)
	unknownLength = tdswire.AppendChunkHeader(unknownLength, 0)

	splitCharacter := binary.LittleEndian.AppendUint32(nil, 3)
	full := utf16le("déjà vu")
	splitCharacter = append(splitCharacter, tdswire.AppendPlpLength(nil, tdswire.PlpLength{Value: uint64(len(full))})...)
	// Split inside the second code unit so the decoder must carry a byte over.
	splitCharacter = tdswire.AppendChunkHeader(splitCharacter, 3)
	splitCharacter = append(splitCharacter, full[:3]...)
	splitCharacter = tdswire.AppendChunkHeader(splitCharacter, uint32(len(full)-3))
	splitCharacter = append(splitCharacter, full[3:]...)
	splitCharacter = tdswire.AppendChunkHeader(splitCharacter, 0)

	truncated := append(row(chunkedRow), row(chunkedRow)...)
	truncated = truncated[:len(truncated)-6]

	return []Scenario{
		{
			Name:     "scalar_row",
			Columns:  []tdswire.Column{colID, colName, colFlag, colBody},
			Wire:     append(row(scalarRow), done(1)...),
			WantRows: 1,
		},
		{
			Name:     "null_sentinels",
			Columns:  []tdswire.Column{colName, colFlag, colBody, colNotes},
			Wire:     append(row(nullRow), done(1)...),
			WantRows: 1,
			WantText: [][]string{nil},
		},
		{
			Name:     "chunked_multi_chunk",
			Columns:  []tdswire.Column{colID, colNotes},
			Wire:     append(row(chunkedRow), done(1)...),
			WantRows: 1,
			WantText: [][]string{{"C1xxxxxx" + "C2yyyyyy"}},
		},
		{
			Name:     "chunked_unknown_total_length",
			Columns:  []tdswire.Column{colID, colNotes},
			Wire:     append(row(unknownLength), done(1)...),
			WantRows: 1,
			WantText: [][]string{{"hello"}},
		},
		{
			Name:    "chunked_empty_value",
			Columns: []tdswire.Column{colID, colNotes},
			Wire: append(row(append(
				binary.LittleEndian.AppendUint32(nil, 4), plp()...)), done(1)...),
			WantRows: 1,
			WantText: [][]string{{""}},
		},
		{
			Name:     "split_character_across_chunks",
			Columns:  []tdswire.Column{colID, colText},
			Wire:     append(row(splitCharacter), done(1)...),
			WantRows: 1,
			WantText: [][]string{{"déjà vu"}},
		},
		{
			Name:     "multiple_rows",
			Columns:  []tdswire.Column{colID, colNotes},
			Wire:     append(append(row(chunkedRow), row(chunkedRow)...), done(2)...),
			WantRows: 2,
			WantText: [][]string{{"C1xxxxxxC2yyyyyy"}, {"C1xxxxxxC2yyyyyy"}},
		},
		{
			Name:     "truncated_stream",
			Columns:  []tdswire.Column{colID, colNotes},
			Wire:     truncated,
			WantRows: 1,
			WantText: [][]string{{"C1xxxxxxC2yyyyyy"}},
			WantErr:  tdswire.ErrProtocol,
		},
		{
			Name:    "unexpected_token",
			Columns: []tdswire.Column{colID},
			Wire:    []byte{0xAB, 0x00, 0x00},
			WantErr: tdswire.ErrProtocol,
		},
		{
			Name:    "empty_stream",
			Columns: []tdswire.Column{colID},
			Wire:    nil,
			WantErr: tdswire.ErrProtocol,
		},
	}
}
