// © Copyright 2026, the tds-go authors
// SPDX-License-Identifier: Apache-2.0

package tdswire

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ServerCharset names the server-side character encoding of a text column.
type ServerCharset int

const (
	// CharsetRaw treats payload bytes as opaque; used for binary columns.
	CharsetRaw ServerCharset = iota
	// CharsetASCII is 7-bit ASCII text.
	CharsetASCII
	// CharsetUTF16LE is the UCS-2/UTF-16 little-endian encoding used by
	// national character columns.
	CharsetUTF16LE
	// CharsetCP1252 is the Windows-1252 code page, the default collation
	// charset for non-national character columns.
	CharsetCP1252
)

// encoding returns the x/text encoding for the charset, or nil when payload
// bytes map 1:1 to the decoded text (ASCII, raw).
func (c ServerCharset) encoding() encoding.Encoding {
	switch c {
	case CharsetUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case CharsetCP1252:
		return charmap.Windows1252
	default:
		return nil
	}
}

// chunkDecoder decodes text chunk payloads incrementally. Chunk boundaries
// are byte boundaries, not character boundaries: a multi-byte sequence split
// across chunks is carried over and realigned, so every emitted segment ends
// on a character boundary.
type chunkDecoder struct {
	tr      transform.Transformer
	pending []byte
}

// newChunkDecoder returns a fresh decoder for one chunk sequence. The
// decoder is stateful and single-use.
func (c ServerCharset) newChunkDecoder() *chunkDecoder {
	enc := c.encoding()
	if enc == nil {
		return &chunkDecoder{}
	}
	return &chunkDecoder{tr: enc.NewDecoder()}
}

// Decode decodes one chunk payload, prepending bytes carried over from the
// previous chunk. Trailing bytes that do not form a complete character are
// held back for the next call. The returned segment may be empty when the
// chunk is shorter than one character.
func (d *chunkDecoder) Decode(p []byte) (string, error) {
	return d.decode(p, false)
}

// Flush decodes whatever is still pending at end of stream. Dangling bytes
// that cannot form a character decode to the replacement rune.
func (d *chunkDecoder) Flush() (string, error) {
	return d.decode(nil, true)
}

func (d *chunkDecoder) decode(p []byte, atEOF bool) (string, error) {
	if d.tr == nil {
		if len(p) == 0 {
			return "", nil
		}
		return string(p), nil
	}

	src := p
	if len(d.pending) > 0 {
		src = append(d.pending, p...)
	}

	var sb strings.Builder
	dst := make([]byte, len(src)*3+utfMax)
	for {
		nDst, nSrc, err := d.tr.Transform(dst, src, atEOF)
		sb.Write(dst[:nDst])
		src = src[nSrc:]
		switch err {
		case nil:
			if len(src) > 0 && !atEOF {
				// Transformer consumed everything it could; keep the rest.
				d.pending = append([]byte(nil), src...)
			} else {
				d.pending = nil
			}
			return sb.String(), nil
		case transform.ErrShortSrc:
			d.pending = append([]byte(nil), src...)
			return sb.String(), nil
		case transform.ErrShortDst:
			continue
		default:
			d.pending = nil
			return sb.String(), protocolErrorf("charset", "decoding chunk text: %v", err)
		}
	}
}

const utfMax = 4
