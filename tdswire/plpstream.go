// © Copyright 2026, the tds-go authors
// SPDX-License-Identifier: Apache-2.0

package tdswire

import (
	"context"
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// plpReader walks the chunk records inside one chunked-column composite
// slice (total-length header, chunk records, terminal marker). It owns the
// slice and releases it exactly once, on whichever terminal path is reached
// first: clean completion, decode failure, cancellation, or discard.
//
// The reader is single-consumer and must not be used concurrently.
type plpReader struct {
	buf        *Buffer
	zeroLength bool // declared total length 0: tolerate a header-only slice
	done       bool
	released   bool
	err        error
}

// newPlpReader takes ownership of the composite slice. A nil slice is a null
// value and yields an immediately-complete reader.
func newPlpReader(data *memory.Buffer) *plpReader {
	if data == nil {
		return &plpReader{done: true, released: true}
	}
	r := &plpReader{buf: NewBuffer(data)}
	total, err := DecodePlpLength(r.buf)
	if err != nil {
		r.fail(protocolErrorf("plp", "composite slice shorter than total-length header"))
		return r
	}
	if total.Null {
		r.finish()
		return r
	}
	r.zeroLength = !total.Unknown && total.Value == 0
	return r
}

// nextChunk returns a borrowed view of the next chunk payload. The view is
// only valid until the next call on the reader; consumers copy or decode it
// before pulling again. io.EOF signals the terminal marker was consumed.
func (r *plpReader) nextChunk() ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.done {
		return nil, io.EOF
	}
	if r.buf.Readable() == 0 {
		// A zero-length value may arrive as a bare header with no records.
		if r.zeroLength {
			r.finish()
			return nil, io.EOF
		}
		return nil, r.fail(protocolErrorf("plp", "stream ended before terminal zero-length marker"))
	}
	chunkLen, err := DecodeChunkHeader(r.buf)
	if err != nil {
		return nil, r.fail(protocolErrorf("plp", "short chunk header: %d bytes readable", r.buf.Readable()))
	}
	if chunkLen == 0 {
		r.finish()
		return nil, io.EOF
	}
	if r.buf.Readable() < int(chunkLen) {
		return nil, r.fail(protocolErrorf("plp", "chunk declares %d bytes, %d readable", chunkLen, r.buf.Readable()))
	}
	view := r.buf.Bytes()[:chunkLen]
	// Skip cannot fail: availability was just checked.
	_ = r.buf.Skip(int(chunkLen))
	return view, nil
}

// fail records a sticky failure and releases the owned slice before the
// failure becomes observable.
func (r *plpReader) fail(err error) error {
	r.err = err
	r.release()
	return err
}

// finish marks clean completion and releases the owned slice.
func (r *plpReader) finish() {
	r.done = true
	r.release()
}

// release drops the owned slice. Idempotent; safe on every terminal path.
func (r *plpReader) release() {
	if r.released {
		return
	}
	r.released = true
	r.done = true
	if r.buf != nil {
		r.buf.Release()
	}
}

// CharacterStream is a lazy, demand-driven decode of one chunked text column
// into character segments. Segments are emitted one per pull, in chunk
// arrival order, realigned at character boundaries when the wire chunking
// splits a multi-byte sequence.
//
// The stream is single-consumer. Every terminal outcome (completion, decode
// failure, cancellation, discard) releases the owned composite slice
// exactly once. Already-emitted segments are unaffected by later outcomes:
// their bytes are detached from the buffer at emission time.
type CharacterStream struct {
	r       *plpReader
	dec     *chunkDecoder
	flushed bool
}

// NewCharacterStream wraps a chunked column's composite slice, taking
// ownership of it. data is typically obtained from [RowToken.TakeColumn];
// nil (a null value) yields a stream that completes with zero segments.
func NewCharacterStream(data *memory.Buffer, col Column) *CharacterStream {
	return &CharacterStream{r: newPlpReader(data), dec: col.Charset.newChunkDecoder()}
}

// Next returns the next decoded segment. It returns io.EOF after the
// terminal marker, a *ProtocolError if the chunk sequence is malformed
// (remaining resources are released before the error is returned), or
// ctx.Err() if the context is cancelled between chunks.
func (s *CharacterStream) Next(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			s.r.release()
			return "", err
		}
		chunk, err := s.r.nextChunk()
		if err == io.EOF {
			if !s.flushed {
				s.flushed = true
				tail, ferr := s.dec.Flush()
				if ferr != nil {
					return "", ferr
				}
				if tail != "" {
					return tail, nil
				}
			}
			return "", io.EOF
		}
		if err != nil {
			return "", err
		}
		segment, err := s.dec.Decode(chunk)
		if err != nil {
			s.r.release()
			return "", err
		}
		if segment == "" {
			// Chunk shorter than one character; pull the next one.
			continue
		}
		return segment, nil
	}
}

// Cancel stops consumption and releases all remaining unconsumed resources.
// It is always safe to call, including after completion or failure, and is
// idempotent. Segments already returned by Next are unaffected.
func (s *CharacterStream) Cancel() {
	s.flushed = true
	s.r.release()
}

// Discard is the terminal operation for callers that determine the value is
// not needed: it releases the entire owned slice and completes the stream
// with no observable segments.
func (s *CharacterStream) Discard() {
	s.Cancel()
}

// BinaryStream is the binary-large-object counterpart of [CharacterStream]:
// a lazy decode of one chunked column into raw byte segments, one per chunk.
// Emitted segments are copies, detached from the underlying buffer.
type BinaryStream struct {
	r *plpReader
}

// NewBinaryStream wraps a chunked column's composite slice, taking ownership
// of it. nil data yields a stream that completes with zero segments.
func NewBinaryStream(data *memory.Buffer) *BinaryStream {
	return &BinaryStream{r: newPlpReader(data)}
}

// Next returns the next chunk payload. The same terminal contract as
// [CharacterStream.Next] applies.
func (s *BinaryStream) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		s.r.release()
		return nil, err
	}
	chunk, err := s.r.nextChunk()
	if err != nil {
		return nil, err
	}
	segment := make([]byte, len(chunk))
	copy(segment, chunk)
	return segment, nil
}

// Cancel releases all remaining unconsumed resources. Idempotent.
func (s *BinaryStream) Cancel() {
	s.r.release()
}

// Discard releases the entire owned slice without emitting segments.
func (s *BinaryStream) Discard() {
	s.r.release()
}
