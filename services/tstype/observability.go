// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tstype

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/tstype/services/tstype/analyzer"
)

var (
	// analyzeRunsTotal counts Analyze calls.
	//
	// Labels:
	//   - status: "success", "io_error", "aborted", "canceled" or "error"
	analyzeRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tstype",
			Subsystem: "service",
			Name:      "analyze_runs_total",
			Help:      "Total Analyze calls by outcome.",
		},
		[]string{"status"},
	)

	// analyzeDuration measures a whole Analyze call.
	analyzeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tstype",
			Subsystem: "service",
			Name:      "analyze_duration_seconds",
			Help:      "Duration of Analyze calls in seconds.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
	)

	// analyzeFiles observes how many files each Analyze call completed.
	analyzeFiles = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tstype",
			Subsystem: "service",
			Name:      "analyze_files",
			Help:      "Files analyzed per Analyze call.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)

// classifyAnalyzeError maps an Analyze error to a label value.
func classifyAnalyzeError(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrIO):
		return "io_error"
	case errors.Is(err, analyzer.ErrAborted):
		return "aborted"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

func recordAnalyzeMetrics(duration time.Duration, files int, err error) {
	analyzeRunsTotal.WithLabelValues(classifyAnalyzeError(err)).Inc()
	analyzeDuration.Observe(duration.Seconds())
	analyzeFiles.Observe(float64(files))
}
