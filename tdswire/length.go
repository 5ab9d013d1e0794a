// © Copyright 2026, the tds-go authors
// SPDX-License-Identifier: Apache-2.0

package tdswire

import "encoding/binary"

// Null sentinels per length strategy. These must match the protocol's
// declared encoding table bit-exactly.
const (
	nullByteLen   = 0x00
	nullUShortLen = 0xFFFF
	nullLongLen   = 0xFFFFFFFF

	// plpNull marks a null chunked value in the 8-byte total-length header.
	plpNull uint64 = 0xFFFFFFFFFFFFFFFF
	// plpUnknown marks a chunked value whose total size is not known up
	// front; the stream length is discovered via the terminal marker.
	plpUnknown uint64 = 0xFFFFFFFFFFFFFFFE
)

// Length is the decoded size of a fixed- or variable-length scalar column
// value. It is an immutable value with no buffer ownership.
type Length struct {
	Size uint32
	Null bool
}

// descriptorWidth returns the wire width of the scalar length descriptor for
// the given strategy. PartLen columns have no scalar descriptor.
func descriptorWidth(s LengthStrategy) int {
	switch s {
	case ByteLen:
		return 1
	case UShortLen:
		return 2
	case LongLen:
		return 4
	default:
		return 0
	}
}

// CanDecodeLength reports whether enough bytes remain to read the scalar
// length descriptor for the column's strategy. It does not consume.
func CanDecodeLength(buf *Buffer, col Column) bool {
	return buf.Readable() >= descriptorWidth(col.Strategy)
}

// DecodeLength consumes the scalar length descriptor and interprets the
// strategy-specific null sentinel. FixedLen columns consume nothing and take
// their size from the column metadata.
func DecodeLength(buf *Buffer, col Column) (Length, error) {
	switch col.Strategy {
	case FixedLen:
		return Length{Size: col.FixedSize}, nil
	case ByteLen:
		v, err := buf.ReadUint8()
		if err != nil {
			return Length{}, err
		}
		return Length{Size: uint32(v), Null: v == nullByteLen}, nil
	case UShortLen:
		v, err := buf.ReadUint16()
		if err != nil {
			return Length{}, err
		}
		if v == nullUShortLen {
			return Length{Null: true}, nil
		}
		return Length{Size: uint32(v)}, nil
	case LongLen:
		v, err := buf.ReadUint32()
		if err != nil {
			return Length{}, err
		}
		if v == nullLongLen {
			return Length{Null: true}, nil
		}
		return Length{Size: v}, nil
	default:
		return Length{}, protocolErrorf("length", "strategy %s has no scalar length descriptor", col.Strategy)
	}
}

// AppendLength appends the wire encoding of a scalar length descriptor.
// Decoding the appended bytes reproduces l exactly.
func AppendLength(dst []byte, l Length, s LengthStrategy) []byte {
	switch s {
	case FixedLen:
		return dst
	case ByteLen:
		if l.Null {
			return append(dst, nullByteLen)
		}
		return append(dst, uint8(l.Size))
	case UShortLen:
		if l.Null {
			return binary.LittleEndian.AppendUint16(dst, nullUShortLen)
		}
		return binary.LittleEndian.AppendUint16(dst, uint16(l.Size))
	case LongLen:
		if l.Null {
			return binary.LittleEndian.AppendUint32(dst, nullLongLen)
		}
		return binary.LittleEndian.AppendUint32(dst, l.Size)
	default:
		panic("tdswire: cannot append scalar length for strategy " + s.String())
	}
}

// PlpLength is the declared total size of a chunked column value, or a
// null/unknown marker. The declared size is informational only: chunk
// sequences terminate solely at the zero-length marker, never by trusting
// this value, since the protocol allows a mismatch.
type PlpLength struct {
	Null    bool
	Unknown bool
	Value   uint64
}

// CanDecodePlpLength reports whether the 8-byte total-length header is
// available. It does not consume.
func CanDecodePlpLength(buf *Buffer) bool {
	return buf.Readable() >= 8
}

// DecodePlpLength consumes the 8-byte little-endian total-length header.
func DecodePlpLength(buf *Buffer) (PlpLength, error) {
	v, err := buf.ReadUint64()
	if err != nil {
		return PlpLength{}, err
	}
	switch v {
	case plpNull:
		return PlpLength{Null: true}, nil
	case plpUnknown:
		return PlpLength{Unknown: true}, nil
	default:
		return PlpLength{Value: v}, nil
	}
}

// AppendPlpLength appends the 8-byte wire encoding of a total-length header.
func AppendPlpLength(dst []byte, l PlpLength) []byte {
	switch {
	case l.Null:
		return binary.LittleEndian.AppendUint64(dst, plpNull)
	case l.Unknown:
		return binary.LittleEndian.AppendUint64(dst, plpUnknown)
	default:
		return binary.LittleEndian.AppendUint64(dst, l.Value)
	}
}

// DecodeChunkHeader consumes a 4-byte little-endian chunk length. A value of
// 0 is the terminal marker ending the chunk sequence.
func DecodeChunkHeader(buf *Buffer) (uint32, error) {
	return buf.ReadUint32()
}

// AppendChunkHeader appends the 4-byte wire encoding of a chunk length.
func AppendChunkHeader(dst []byte, n uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, n)
}
