// © Copyright 2026, the tds-go authors
// SPDX-License-Identifier: Apache-2.0

package tdswire

import "context"

// DecodeHook provides observability callpoints around result-set decoding.
// Implementations must be safe for concurrent use; one decoder invokes its
// hook sequentially, but several decoders may share a hook.
type DecodeHook interface {
	OnResultStart(ctx context.Context, info ResultInfo) (context.Context, HookToken)
	OnResultEnd(ctx context.Context, token HookToken, info ResultInfo, stats *DecodeStatistics, err error)
}

// HookToken is an opaque value returned by OnResultStart and passed back to
// OnResultEnd. Only meaningful to the DecodeHook that created it.
type HookToken interface{}

// ResultInfo carries result-set metadata passed to hooks.
type ResultInfo struct {
	Source  string // logical source name set via WithSource
	Columns int    // number of columns in the result schema
}

// DecodeStatistics holds per-result decode counters.
type DecodeStatistics struct {
	Rows        int64
	Bytes       int64
	NullColumns int64
	PlpColumns  int64
}

// RecordRow records one decoded row of the given wire size.
func (s *DecodeStatistics) RecordRow(wireBytes int64) {
	s.Rows++
	s.Bytes += wireBytes
}

// RecordColumns tallies null and chunked column slots of a decoded row.
func (s *DecodeStatistics) RecordColumns(token *RowToken, columns []Column) {
	for i := range columns {
		if columns[i].Strategy == PartLen {
			s.PlpColumns++
		}
		if token.ColumnData(i) == nil {
			s.NullColumns++
		}
	}
}
