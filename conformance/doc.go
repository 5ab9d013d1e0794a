// © Copyright 2026, the tds-go authors
// SPDX-License-Identifier: Apache-2.0

// Package conformance provides a scenario corpus for the tabular data
// stream decoder. Each scenario pairs a canned wire image with the
// expected decode outcome: row count, streamed large-object text, and
// the terminal error class. Scenarios cover every length strategy,
// null sentinels, chunked values with unknown and zero total lengths,
// character realignment across chunk boundaries, and malformed input.
//
// [Run] executes one scenario against the decoder and verifies the
// outcome, including that no buffer reference leaks. The cmd directory
// holds a runner that executes the whole corpus, used to cross-check
// decoder builds outside the Go test harness.
package conformance
