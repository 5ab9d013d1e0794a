// © Copyright 2026, the tds-go authors
// SPDX-License-Identifier: Apache-2.0

// Package tdsotel provides OpenTelemetry instrumentation for tabular data
// stream decoding. It implements the [tdswire.DecodeHook] interface to add
// tracing and metrics around result-set decoding.
//
// Usage:
//
//	hook := tdsotel.NewDecodeHook(tdsotel.DefaultConfig())
//	dec := tdswire.NewResultDecoder(conn, columns, tdswire.WithDecodeHook(hook))
package tdsotel

import (
	"context"
	"time"

	"github.com/sqlstream/tds-go/tdswire"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "tds_wire"

// Config configures OpenTelemetry instrumentation for result decoding.
type Config struct {
	// TracerProvider supplies the tracer. Defaults to otel.GetTracerProvider().
	TracerProvider trace.TracerProvider
	// MeterProvider supplies the meter. Defaults to otel.GetMeterProvider().
	MeterProvider metric.MeterProvider
	// EnableTracing enables span creation. Default true.
	EnableTracing bool
	// EnableMetrics enables counter and histogram recording. Default true.
	EnableMetrics bool
	// RecordExceptions calls RecordError on the span for failed results.
	// Default true.
	RecordExceptions bool
	// CustomAttributes are added to every span.
	CustomAttributes []attribute.KeyValue
}

// DefaultConfig returns a Config with sensible defaults. TracerProvider and
// MeterProvider are resolved from the global OTel SDK at hook creation time.
func DefaultConfig() Config {
	return Config{
		EnableTracing:    true,
		EnableMetrics:    true,
		RecordExceptions: true,
	}
}

// NewDecodeHook creates a [tdswire.DecodeHook] that records one span per
// result set and counters for decoded rows and bytes.
func NewDecodeHook(cfg Config) tdswire.DecodeHook {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = otel.GetMeterProvider()
	}

	hook := &otelHook{
		cfg:    cfg,
		tracer: cfg.TracerProvider.Tracer(instrumentationName),
	}

	if cfg.EnableMetrics {
		meter := cfg.MeterProvider.Meter(instrumentationName)
		hook.rowCounter, _ = meter.Int64Counter("tds.client.rows",
			metric.WithUnit("{row}"),
			metric.WithDescription("Number of decoded row tokens"),
		)
		hook.byteCounter, _ = meter.Int64Counter("tds.client.bytes",
			metric.WithUnit("By"),
			metric.WithDescription("Wire bytes consumed by decoded rows"),
		)
		hook.durationHistogram, _ = meter.Float64Histogram("tds.client.result_duration",
			metric.WithUnit("s"),
			metric.WithDescription("Duration of result-set decoding"),
		)
	}

	return hook
}

// otelHook implements tdswire.DecodeHook with OpenTelemetry tracing and metrics.
type otelHook struct {
	cfg               Config
	tracer            trace.Tracer
	rowCounter        metric.Int64Counter
	byteCounter       metric.Int64Counter
	durationHistogram metric.Float64Histogram
}

// spanToken is the HookToken returned by OnResultStart.
type spanToken struct {
	span      trace.Span
	startTime time.Time
}

// OnResultStart starts a client span for the result set.
func (h *otelHook) OnResultStart(ctx context.Context, info tdswire.ResultInfo) (context.Context, tdswire.HookToken) {
	if !h.cfg.EnableTracing {
		return ctx, &spanToken{startTime: time.Now()}
	}

	attrs := []attribute.KeyValue{
		attribute.String("db.system", "tds"),
		attribute.String("tds.result.source", info.Source),
		attribute.Int("tds.result.columns", info.Columns),
	}
	attrs = append(attrs, h.cfg.CustomAttributes...)

	ctx, span := h.tracer.Start(ctx, "tds_wire/result",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)

	return ctx, &spanToken{span: span, startTime: time.Now()}
}

// OnResultEnd records metrics and span attributes, and ends the span.
func (h *otelHook) OnResultEnd(ctx context.Context, token tdswire.HookToken, info tdswire.ResultInfo, stats *tdswire.DecodeStatistics, err error) {
	st, ok := token.(*spanToken)
	if !ok {
		return
	}

	duration := time.Since(st.startTime)

	status := "ok"
	if err != nil {
		status = "error"
	}

	if h.cfg.EnableMetrics {
		metricAttrs := metric.WithAttributes(
			attribute.String("db.system", "tds"),
			attribute.String("tds.result.source", info.Source),
			attribute.String("status", status),
		)
		if h.rowCounter != nil {
			h.rowCounter.Add(ctx, stats.Rows, metricAttrs)
		}
		if h.byteCounter != nil {
			h.byteCounter.Add(ctx, stats.Bytes, metricAttrs)
		}
		if h.durationHistogram != nil {
			h.durationHistogram.Record(ctx, duration.Seconds(), metricAttrs)
		}
	}

	if st.span != nil && st.span.IsRecording() {
		st.span.SetAttributes(
			attribute.Int64("tds.result.rows", stats.Rows),
			attribute.Int64("tds.result.bytes", stats.Bytes),
			attribute.Int64("tds.result.null_columns", stats.NullColumns),
			attribute.Int64("tds.result.plp_columns", stats.PlpColumns),
		)

		if err != nil {
			st.span.SetStatus(codes.Error, err.Error())
			if h.cfg.RecordExceptions {
				st.span.RecordError(err)
			}
		} else {
			st.span.SetStatus(codes.Ok, "")
		}

		st.span.End()
	}
}
