// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// astTracerName is the OTel instrumentation scope for parsing.
const astTracerName = "tstype.ast"

var (
	parseMetricsOnce sync.Once
	parseDuration    metric.Float64Histogram
	parseTotal       metric.Int64Counter
	parseNodes       metric.Int64Histogram
)

// initParseMetrics creates the parse instruments against the global meter
// provider. Instruments that fail to register stay nil and are skipped.
func initParseMetrics() {
	parseMetricsOnce.Do(func() {
		meter := otel.Meter(astTracerName)

		parseDuration, _ = meter.Float64Histogram(
			"tstype_parse_duration_seconds",
			metric.WithDescription("Duration of source parsing"),
			metric.WithUnit("s"),
		)
		parseTotal, _ = meter.Int64Counter(
			"tstype_parse_total",
			metric.WithDescription("Total parse attempts"),
		)
		parseNodes, _ = meter.Int64Histogram(
			"tstype_parse_nodes",
			metric.WithDescription("Number of syntax nodes per parsed file"),
		)
	})
}

// startParseSpan starts the span wrapping one Parse call.
func startParseSpan(ctx context.Context, language, filePath string, size int) (context.Context, trace.Span) {
	return otel.Tracer(astTracerName).Start(ctx, "ast.Parse",
		trace.WithAttributes(
			attribute.String("parse.language", language),
			attribute.String("parse.file", filePath),
			attribute.Int("parse.size_bytes", size),
		),
	)
}

// setParseSpanResult records the outcome of a successful parse on span.
func setParseSpanResult(span trace.Span, nodeCount, errorCount int) {
	span.SetAttributes(
		attribute.Int("parse.node_count", nodeCount),
		attribute.Int("parse.error_count", errorCount),
	)
}

// recordParseMetrics records one parse attempt.
//
// Thread Safety: Safe for concurrent use.
func recordParseMetrics(ctx context.Context, language string, duration time.Duration, nodeCount int, success bool) {
	initParseMetrics()

	attrs := metric.WithAttributes(
		attribute.String("language", language),
		attribute.Bool("success", success),
	)
	if parseDuration != nil {
		parseDuration.Record(ctx, duration.Seconds(), attrs)
	}
	if parseTotal != nil {
		parseTotal.Add(ctx, 1, attrs)
	}
	if parseNodes != nil && success {
		parseNodes.Record(ctx, int64(nodeCount), metric.WithAttributes(attribute.String("language", language)))
	}
}
