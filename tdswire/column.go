// © Copyright 2026, the tds-go authors
// SPDX-License-Identifier: Apache-2.0

package tdswire

// LengthStrategy describes how a column value's size is encoded on the wire.
type LengthStrategy int

const (
	// FixedLen values carry no length descriptor; the payload width comes
	// from the column metadata and the value is never null.
	FixedLen LengthStrategy = iota
	// ByteLen values are prefixed with a 1-byte size. Size 0 denotes null.
	ByteLen
	// UShortLen values are prefixed with a 2-byte size. 0xFFFF denotes null.
	UShortLen
	// LongLen values are prefixed with a 4-byte size. 0xFFFFFFFF denotes null.
	LongLen
	// PartLen values use the chunked ("partially length-prefixed") encoding:
	// an 8-byte total-length header followed by independently length-prefixed
	// chunks terminated by a zero-length chunk. Used for large objects.
	PartLen
)

// String returns the strategy name as it appears in the protocol reference.
func (s LengthStrategy) String() string {
	switch s {
	case FixedLen:
		return "FIXEDLENTYPE"
	case ByteLen:
		return "BYTELENTYPE"
	case UShortLen:
		return "USHORTLENTYPE"
	case LongLen:
		return "LONGLENTYPE"
	case PartLen:
		return "PARTLENTYPE"
	default:
		return "UNKNOWN"
	}
}

// Column is the static type metadata for one result column, supplied by the
// result-schema collaborator. Columns are shared read-only across rows.
type Column struct {
	// Name is the column name as announced in the column metadata token.
	Name string
	// Strategy selects the wire length encoding for the column's values.
	Strategy LengthStrategy
	// FixedSize is the payload width in bytes for FixedLen columns.
	FixedSize uint32
	// MaxLength is the declared maximum value length. Informational.
	MaxLength uint32
	// Charset names the server-side character encoding of text payloads.
	// Zero value is CharsetRaw (payloads treated as opaque bytes).
	Charset ServerCharset
}
