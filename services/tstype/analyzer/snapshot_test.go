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
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/AleutianAI/tstype/services/tstype/types"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func TestSnapshot_IsolatedFromLaterVisits(t *testing.T) {
	a := NewAnalyzer()
	tree := analyze(t, a, "snap.ts", "let v: number;\n")
	snap := a.Snapshot()

	analyze(t, a, "snap.ts", "let v: string;\n")
	analyze(t, a, "other.ts", "interface Late { x: number }\n")

	v := tree.Find("identifier", "v")
	got, ok := snap.Query("snap.ts", v.ID)
	require.True(t, ok)
	assert.Equal(t, num(), got)

	_, ok = snap.File("other.ts")
	assert.False(t, ok)
	_, ok = snap.Globals().Get("Late")
	assert.False(t, ok, "globals are cloned at publish time")

	fresh := a.Snapshot()
	assert.NotEqual(t, snap.ID, fresh.ID)
	got, ok = fresh.Query("snap.ts", v.ID)
	require.True(t, ok)
	assert.Equal(t, str(), got)
}

func TestSnapshot_LookupByFileID(t *testing.T) {
	a := NewAnalyzer()
	tree := analyze(t, a, "ids.ts", "let b = 42;\n")
	snap := a.Snapshot()

	id, ok := snap.FileID("ids.ts")
	require.True(t, ok)
	lit := tree.Find("number", "42")
	got, ok := snap.Lookup(id, lit.ID)
	require.True(t, ok)
	assert.Equal(t, types.NewLiteral("42"), got)

	_, ok = snap.Lookup(id+1, lit.ID)
	assert.False(t, ok)
	_, ok = snap.Query("missing.ts", lit.ID)
	assert.False(t, ok)
}

func TestSnapshot_TypeAtReturnsInnermostRecordedNode(t *testing.T) {
	a := NewAnalyzer()
	analyze(t, a, "hover.ts", "interface Point { x: number; y: number }\nlet p: Point;\nlet n = 0x1A;\n")
	snap := a.Snapshot()

	node, typ, ok := snap.TypeAt("hover.ts", 2, 4)
	require.True(t, ok)
	assert.Equal(t, "identifier", node.Kind)
	assert.True(t, types.Equal(pointType(), typ))

	node, typ, ok = snap.TypeAt("hover.ts", 3, 9)
	require.True(t, ok)
	assert.Equal(t, "number", node.Kind)
	assert.Equal(t, types.NewLiteral("0x1A"), typ)

	_, _, ok = snap.TypeAt("hover.ts", 40, 0)
	assert.False(t, ok)
}

func TestSnapshot_StatsAndPaths(t *testing.T) {
	a := NewAnalyzer()
	analyze(t, a, "b.ts", "let x: number;\nclass C {}\n")
	analyze(t, a, "a.ts", "type T = string;\n")
	a.SetCurrentPath("never-visited.ts")

	snap := a.Snapshot()
	assert.Equal(t, []string{"a.ts", "b.ts"}, snap.Paths())

	st := snap.Stats()
	assert.Equal(t, 2, st.Files)
	assert.Equal(t, 2, st.CacheEntries)
	assert.Equal(t, 1, st.Diagnostics)
	assert.Equal(t, 1, st.Globals)
	assert.Len(t, snap.Diagnostics("b.ts"), 1)
}

func TestEmptySnapshot(t *testing.T) {
	snap := EmptySnapshot()
	assert.NotEmpty(t, snap.ID)
	assert.Empty(t, snap.Paths())
	assert.Equal(t, 0, snap.Globals().Len())
}

func TestDiagnostic_JSON(t *testing.T) {
	a := NewAnalyzer()
	analyze(t, a, "d.ts", "class C {}\n")
	d := mustFile(t, a, "d.ts").Diagnostics[0]

	data, err := json.Marshal(d)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "unsupported_construct", decoded["kind"])
	assert.Equal(t, "class_declaration", decoded["node_kind"])
	loc := decoded["location"].(map[string]any)
	assert.Equal(t, "d.ts", loc["file_path"])
	assert.NotContains(t, decoded, "chain")

	var back Diagnostic
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, DiagnosticUnsupported, back.Kind)
	assert.Equal(t, d.NodeID, back.NodeID)
	assert.True(t, errors.Is(&back, ErrUnsupportedConstruct))

	cyclic, err := json.Marshal([]*Diagnostic{{Kind: DiagnosticCyclic, Chain: []string{"A", "A"}}})
	require.NoError(t, err)
	var list []*Diagnostic
	require.NoError(t, json.Unmarshal(cyclic, &list))
	require.Len(t, list, 1)
	assert.Equal(t, DiagnosticCyclic, list[0].Kind)
	assert.Equal(t, []string{"A", "A"}, list[0].Chain)

	var bad DiagnosticKind
	assert.Error(t, bad.UnmarshalText([]byte("fatal")))
}

func TestVisit_SpanCreated(t *testing.T) {
	exporter := setupTestTracer(t)

	a := NewAnalyzer()
	analyze(t, a, "span.ts", "let x: number;\nclass C {}\n")

	var found bool
	for _, s := range exporter.GetSpans() {
		if s.Name != "analyzer.Visit" {
			continue
		}
		found = true
		attrs := make(map[attribute.Key]attribute.Value)
		for _, kv := range s.Attributes {
			attrs[kv.Key] = kv.Value
		}
		assert.Equal(t, "span.ts", attrs["analyze.path"].AsString())
		assert.Equal(t, int64(1), attrs["analyze.cache_entries"].AsInt64())
		assert.Equal(t, int64(1), attrs["analyze.diagnostics"].AsInt64())
	}
	assert.True(t, found, "analyzer.Visit span not exported")
}
