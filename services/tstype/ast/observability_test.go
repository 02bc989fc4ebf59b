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
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestParse_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	ctx := context.Background()
	mustParse(t, "let a = 1;\n", "metrics.ts")
	if _, err := NewTypeScriptParser().Parse(ctx, []byte{0xff, 0xfe}, "bad.ts"); err == nil {
		t.Fatal("expected invalid content error")
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	found := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = m
		}
	}
	for _, name := range []string{"tstype_parse_total", "tstype_parse_duration_seconds", "tstype_parse_nodes"} {
		if _, ok := found[name]; !ok {
			t.Errorf("metric %s not recorded; have %v", name, found)
		}
	}

	sum, ok := found["tstype_parse_total"].Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("tstype_parse_total data is %T", found["tstype_parse_total"].Data)
	}
	bySuccess := make(map[bool]int64)
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("success"))
		bySuccess[v.AsBool()] += dp.Value
	}
	if bySuccess[true] < 1 || bySuccess[false] < 1 {
		t.Errorf("parse_total by success = %v, want both outcomes counted", bySuccess)
	}
}
