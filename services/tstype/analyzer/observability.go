// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analyzer

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// analyzerTracerName is the OTel instrumentation scope for analysis.
const analyzerTracerName = "tstype.analyzer"

// Package-level Prometheus metrics for the resolution engine.
var (
	// filesTotal counts analyzed files.
	//
	// Labels:
	//   - status: "success" or "error"
	filesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tstype",
			Subsystem: "analyzer",
			Name:      "files_total",
			Help:      "Total files visited by the resolution engine.",
		},
		[]string{"status"},
	)

	// visitDuration measures one Visit call.
	visitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tstype",
			Subsystem: "analyzer",
			Name:      "visit_duration_seconds",
			Help:      "Duration of a single file visit in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	// cacheEntries observes the number of typed nodes per file.
	cacheEntries = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tstype",
			Subsystem: "analyzer",
			Name:      "cache_entries",
			Help:      "Number of typed nodes recorded per file.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	// diagnosticsTotal counts reported diagnostics.
	//
	// Labels:
	//   - kind: "unsupported_construct" or "cyclic_type"
	diagnosticsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tstype",
			Subsystem: "analyzer",
			Name:      "diagnostics_total",
			Help:      "Total diagnostics reported by kind.",
		},
		[]string{"kind"},
	)
)

// startVisitSpan starts the span wrapping one Visit call.
func startVisitSpan(ctx context.Context, path string, nodes int) (context.Context, trace.Span) {
	return otel.Tracer(analyzerTracerName).Start(ctx, "analyzer.Visit",
		trace.WithAttributes(
			attribute.String("analyze.path", path),
			attribute.Int("analyze.nodes", nodes),
		),
	)
}

// recordVisitMetrics records one completed Visit.
//
// Thread Safety: Safe for concurrent use.
func recordVisitMetrics(result *FileResult, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	filesTotal.WithLabelValues(status).Inc()
	visitDuration.Observe(duration.Seconds())
	cacheEntries.Observe(float64(result.Cache.Len()))
}

func recordDiagnostic(d *Diagnostic) {
	diagnosticsTotal.WithLabelValues(d.Kind.String()).Inc()
}
