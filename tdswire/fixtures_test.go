// © Copyright 2026, the tds-go authors
// SPDX-License-Identifier: Apache-2.0

package tdswire

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"
)

// decodeHex parses a spaced hex dump like "62 00 00 00" into bytes.
func decodeHex(t *testing.T, s string) []byte {
	t.Helper()
	clean := strings.NewReplacer(" ", "", "\n", "", "\t", "").Replace(s)
	data, err := hex.DecodeString(clean)
	require.NoError(t, err)
	return data
}

// wireBuffer copies wire bytes into a buffer owned by the given allocator so
// tests can assert that every reference is released.
func wireBuffer(mem memory.Allocator, data []byte) *memory.Buffer {
	buf := memory.NewResizableBuffer(mem)
	buf.Resize(len(data))
	copy(buf.Bytes(), data)
	return buf
}

// plpFixture encodes a chunked column value: total-length header, one record
// per chunk, terminal zero-length marker.
func plpFixture(chunks ...[]byte) []byte {
	var total uint64
	for _, c := range chunks {
		total += uint64(len(c))
	}
	data := AppendPlpLength(nil, PlpLength{Value: total})
	for _, c := range chunks {
		data = AppendChunkHeader(data, uint32(len(c)))
		data = append(data, c...)
	}
	return AppendChunkHeader(data, 0)
}

// Columns shared across tests.
var (
	varcharMaxASCII  = Column{Name: "notes", Strategy: PartLen, Charset: CharsetASCII}
	nvarcharMaxUTF16 = Column{Name: "emails", Strategy: PartLen, MaxLength: 50, Charset: CharsetUTF16LE}
	varcharShort     = Column{Name: "name", Strategy: UShortLen, MaxLength: 50, Charset: CharsetCP1252}
	varbinaryMax     = Column{Name: "payload", Strategy: PartLen, Charset: CharsetRaw}
	intFixed         = Column{Name: "id", Strategy: FixedLen, FixedSize: 4}
	tinyVar          = Column{Name: "flags", Strategy: ByteLen}
	textLong         = Column{Name: "body", Strategy: LongLen, Charset: CharsetCP1252}
)
