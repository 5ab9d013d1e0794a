// © Copyright 2026, the tds-go authors
// SPDX-License-Identifier: Apache-2.0

package conformance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/sqlstream/tds-go/tdswire"
)

// Run executes one scenario against the decoder and verifies the expected
// outcome. It returns nil when the scenario passes, otherwise an error
// describing the first mismatch.
func Run(ctx context.Context, s Scenario) error {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())

	dec := tdswire.NewResultDecoder(bytes.NewReader(s.Wire), s.Columns,
		tdswire.WithAllocator(mem), tdswire.WithSource(s.Name))

	var (
		rows     int
		text     [][]string
		terminal error
	)
	for {
		token, err := dec.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			terminal = err
			break
		}

		rowText, err := drainRow(ctx, token, s.Columns)
		token.Release()
		if err != nil {
			return fmt.Errorf("%s: row %d: %w", s.Name, rows, err)
		}
		rows++
		text = append(text, rowText)
	}

	if rows != s.WantRows {
		return fmt.Errorf("%s: decoded %d rows, want %d", s.Name, rows, s.WantRows)
	}
	if err := compareText(text, s.WantText); err != nil {
		return fmt.Errorf("%s: %w", s.Name, err)
	}
	if s.WantErr == nil {
		if terminal != nil {
			return fmt.Errorf("%s: unexpected terminal error: %v", s.Name, terminal)
		}
		if dec.Done() == nil {
			return fmt.Errorf("%s: stream completed without a DONE token", s.Name)
		}
	} else if !errors.Is(terminal, s.WantErr) {
		return fmt.Errorf("%s: terminal error %v, want %v", s.Name, terminal, s.WantErr)
	}

	if alloc := mem.CurrentAlloc(); alloc != 0 {
		return fmt.Errorf("%s: %d bytes still referenced after decode", s.Name, alloc)
	}
	return nil
}

// drainRow streams every chunked character column of the row to completion
// and returns the assembled text per column. Null columns contribute no
// entry.
func drainRow(ctx context.Context, token *tdswire.RowToken, columns []tdswire.Column) ([]string, error) {
	var text []string
	for i, col := range columns {
		if col.Strategy != tdswire.PartLen || col.Charset == tdswire.CharsetRaw {
			continue
		}
		data := token.TakeColumn(i)
		if data == nil {
			continue
		}

		stream := tdswire.NewCharacterStream(data, col)
		var value string
		for {
			segment, err := stream.Next(ctx)
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", col.Name, err)
			}
			value += segment
		}
		text = append(text, value)
	}
	return text, nil
}

func compareText(got, want [][]string) error {
	if len(got) != len(want) {
		if want == nil {
			return nil
		}
		return fmt.Errorf("streamed text for %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if len(got[i]) != len(want[i]) {
			return fmt.Errorf("row %d: %d streamed columns, want %d", i, len(got[i]), len(want[i]))
		}
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				return fmt.Errorf("row %d column %d: streamed %q, want %q", i, j, got[i][j], want[i][j])
			}
		}
	}
	return nil
}
