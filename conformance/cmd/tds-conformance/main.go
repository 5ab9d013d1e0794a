// © Copyright 2026, the tds-go authors
// SPDX-License-Identifier: Apache-2.0

// Command tds-conformance runs the decoder conformance corpus and reports
// one line per scenario. It exits nonzero when any scenario fails, which
// makes it usable from build pipelines outside the Go test harness.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sqlstream/tds-go/conformance"
)

func main() {
	ctx := context.Background()

	failures := 0
	for _, s := range conformance.Scenarios() {
		if err := conformance.Run(ctx, s); err != nil {
			fmt.Printf("FAIL %s: %v\n", s.Name, err)
			failures++
			continue
		}
		fmt.Printf("PASS %s\n", s.Name)
	}

	if failures > 0 {
		fmt.Fprintf(os.Stderr, "%d scenario(s) failed\n", failures)
		os.Exit(1)
	}
}
