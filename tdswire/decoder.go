// © Copyright 2026, the tds-go authors
// SPDX-License-Identifier: Apache-2.0

package tdswire

import (
	"context"
	"io"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// TokenDone is the token type byte of the DONE token ending a result set.
const TokenDone byte = 0xFD

// doneTokenSize is the fixed DONE payload: status, current command, row count.
const doneTokenSize = 2 + 2 + 8

// DONE token status flags.
const (
	// DoneMore indicates more result sets follow in the same response.
	DoneMore uint16 = 0x0001
	// DoneCount indicates the row count field is valid.
	DoneCount uint16 = 0x0010
)

// Done is the decoded DONE token that terminates a result set.
type Done struct {
	Status   uint16
	CurCmd   uint16
	RowCount uint64
}

// More reports whether another result set follows.
func (d Done) More() bool { return d.Status&DoneMore != 0 }

const readChunkSize = 8 * 1024

// ResultDecoder drives the connection-level decode loop for one result set:
// network bytes accumulate in a staging area, each row is probed with
// [CanDecodeRow] until complete, then decoded into a [RowToken] whose column
// slices the caller owns.
//
// Decoding is strictly sequential: one row is fully decoded before the next
// row's bytes are consumed. Row bytes are copied out of the mutable staging
// area into a freshly allocated reference-counted buffer before slicing, so
// retained column slices never alias bytes that later reads overwrite.
type ResultDecoder struct {
	src     io.Reader
	columns []Column
	mem     memory.Allocator
	log     *slog.Logger
	hook    DecodeHook
	source  string

	acc []byte
	off int

	stats   DecodeStatistics
	hookCtx context.Context
	token   HookToken
	started bool
	ended   bool
	done    *Done
	err     error
}

// DecoderOption configures a ResultDecoder.
type DecoderOption func(*ResultDecoder)

// WithAllocator sets the allocator for per-row buffers. Defaults to the Go
// allocator; tests pass a [memory.CheckedAllocator] to assert release.
func WithAllocator(mem memory.Allocator) DecoderOption {
	return func(d *ResultDecoder) { d.mem = mem }
}

// WithLogger sets the logger for decode-loop diagnostics.
func WithLogger(log *slog.Logger) DecoderOption {
	return func(d *ResultDecoder) { d.log = log }
}

// WithDecodeHook installs an observability hook called around the result set.
func WithDecodeHook(hook DecodeHook) DecoderOption {
	return func(d *ResultDecoder) { d.hook = hook }
}

// WithSource sets a logical source name reported in [ResultInfo].
func WithSource(name string) DecoderOption {
	return func(d *ResultDecoder) { d.source = name }
}

// NewResultDecoder creates a decoder reading one result set's token stream
// (ROW tokens terminated by a DONE token) from src, using the ordered column
// descriptors supplied by the result schema.
func NewResultDecoder(src io.Reader, columns []Column, opts ...DecoderOption) *ResultDecoder {
	d := &ResultDecoder{
		src:     src,
		columns: columns,
		mem:     memory.DefaultAllocator,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Next returns the next decoded row. The caller owns the returned token and
// must release it exactly once. Next returns io.EOF after the DONE token,
// a *ProtocolError on malformed input, or ctx.Err() on cancellation.
func (d *ResultDecoder) Next(ctx context.Context) (*RowToken, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.done != nil {
		return nil, io.EOF
	}
	d.start(ctx)

	for {
		if err := ctx.Err(); err != nil {
			return nil, d.fail(err)
		}

		token, decoded, err := d.tryDecode()
		if err != nil {
			return nil, d.fail(err)
		}
		if decoded {
			return token, nil
		}
		if d.done != nil {
			d.end(nil)
			return nil, io.EOF
		}

		if err := d.fill(); err != nil {
			return nil, d.fail(err)
		}
	}
}

// Done returns the decoded DONE token, or nil while the result is still
// streaming.
func (d *ResultDecoder) Done() *Done {
	return d.done
}

// Statistics returns the running decode counters.
func (d *ResultDecoder) Statistics() DecodeStatistics {
	return d.stats
}

// tryDecode attempts to decode one token from the staging area. It returns
// (nil, false, nil) when more bytes are needed.
func (d *ResultDecoder) tryDecode() (*RowToken, bool, error) {
	if d.off >= len(d.acc) {
		return nil, false, nil
	}
	switch tok := d.acc[d.off]; tok {
	case TokenRow:
		return d.tryDecodeRow()
	case TokenDone:
		return nil, false, d.tryDecodeDone()
	default:
		return nil, false, protocolErrorf("token", "unexpected token type 0x%02X", tok)
	}
}

func (d *ResultDecoder) tryDecodeRow() (*RowToken, bool, error) {
	probe := NewBufferBytes(d.acc[d.off+1:])
	if !CanDecodeRow(probe, d.columns) {
		return nil, false, nil
	}

	// Measure the row so exactly its bytes are copied out of staging.
	skipRow(probe, d.columns)
	rowLen := probe.ReadIndex()

	rowBuf := memory.NewResizableBuffer(d.mem)
	rowBuf.Resize(rowLen)
	copy(rowBuf.Bytes(), d.acc[d.off+1:d.off+1+rowLen])

	cursor := NewBuffer(rowBuf)
	token, err := DecodeRow(cursor, d.columns)
	cursor.Release()
	if err != nil {
		return nil, false, err
	}

	d.off += 1 + rowLen
	d.compact()
	d.stats.RecordRow(int64(1 + rowLen))
	d.stats.RecordColumns(token, d.columns)
	return token, true, nil
}

func (d *ResultDecoder) tryDecodeDone() error {
	if len(d.acc)-d.off < 1+doneTokenSize {
		return nil
	}
	buf := NewBufferBytes(d.acc[d.off+1:])
	status, _ := buf.ReadUint16()
	curCmd, _ := buf.ReadUint16()
	rowCount, _ := buf.ReadUint64()
	d.done = &Done{Status: status, CurCmd: curCmd, RowCount: rowCount}
	d.off += 1 + doneTokenSize
	d.log.Debug("result set complete",
		"rows", d.stats.Rows, "row_count", rowCount, "more", d.done.More())
	return nil
}

// fill reads more bytes from the source into the staging area.
func (d *ResultDecoder) fill() error {
	chunk := make([]byte, readChunkSize)
	n, err := d.src.Read(chunk)
	if n > 0 {
		d.acc = append(d.acc, chunk[:n]...)
	}
	if err == io.EOF {
		if n > 0 {
			return nil
		}
		return protocolErrorf("token", "stream ended before DONE token")
	}
	return err
}

// compact reclaims consumed staging bytes once they dominate the slice.
func (d *ResultDecoder) compact() {
	if d.off > len(d.acc)/2 && d.off > readChunkSize {
		d.acc = append(d.acc[:0:0], d.acc[d.off:]...)
		d.off = 0
	}
}

func (d *ResultDecoder) start(ctx context.Context) {
	if d.started || d.hook == nil {
		d.started = true
		return
	}
	d.started = true
	d.hookCtx, d.token = d.hook.OnResultStart(ctx, d.resultInfo())
}

func (d *ResultDecoder) end(err error) {
	if d.ended {
		return
	}
	d.ended = true
	if d.hook != nil {
		ctx := d.hookCtx
		if ctx == nil {
			ctx = context.Background()
		}
		d.hook.OnResultEnd(ctx, d.token, d.resultInfo(), &d.stats, err)
	}
}

func (d *ResultDecoder) fail(err error) error {
	d.err = err
	d.log.Error("result decode failed", "err", err, "rows", d.stats.Rows)
	d.end(err)
	return err
}

func (d *ResultDecoder) resultInfo() ResultInfo {
	return ResultInfo{Source: d.source, Columns: len(d.columns)}
}
