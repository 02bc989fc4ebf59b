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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/tstype/services/tstype/analyzer"
)

const handlerSource = `interface Point { x: number; y: number; }
let p: Point;
class Widget {}
`

func setupTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	v1 := router.Group("/v1")
	RegisterRoutes(v1, NewHandlers(svc))
	return router
}

func setupAnalyzedService(t *testing.T) *Service {
	t.Helper()
	svc, _ := newTestService(t, map[string]string{"point.ts": handlerSource}, DefaultServiceConfig())
	_, err := svc.Analyze(context.Background(), []string{"point.ts"})
	require.NoError(t, err)
	return svc
}

func doRequest(t *testing.T, router *gin.Engine, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHandleAnalyze_Success(t *testing.T) {
	svc, _ := newTestService(t, map[string]string{"point.ts": handlerSource}, DefaultServiceConfig())
	router := setupTestRouter(svc)

	w := doRequest(t, router, http.MethodPost, "/v1/tstype/analyze", []byte(`{"paths":["point.ts"]}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	resp := decode[AnalyzeResponse](t, w)
	assert.Equal(t, []string{"point.ts"}, resp.Paths)
	assert.Equal(t, svc.Snapshot().ID, resp.Snapshot.ID)
	assert.Equal(t, 1, resp.Snapshot.Files)
	assert.Equal(t, 1, resp.Snapshot.Globals)
	assert.Equal(t, 1, resp.Snapshot.Diagnostics)
	assert.Positive(t, resp.Snapshot.CacheEntries)
}

func TestHandleAnalyze_InvalidBody(t *testing.T) {
	router := setupTestRouter(NewService(DefaultServiceConfig(), WithLoader(newMapLoader(nil))))

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"paths":`},
		{"missing paths", `{}`},
		{"empty paths", `{"paths":[]}`},
		{"empty path", `{"paths":[""]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, http.MethodPost, "/v1/tstype/analyze", []byte(tt.body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "INVALID_REQUEST", decode[ErrorResponse](t, w).Code)
		})
	}
}

func TestHandleAnalyze_IOError(t *testing.T) {
	router := setupTestRouter(NewService(DefaultServiceConfig(), WithLoader(newMapLoader(map[string]string{}))))

	w := doRequest(t, router, http.MethodPost, "/v1/tstype/analyze", []byte(`{"paths":["nope.ts"]}`))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "IO_ERROR", resp.Code)
	assert.Contains(t, resp.Error, "nope.ts")
}

func TestHandleAnalyze_Aborted(t *testing.T) {
	cfg := DefaultServiceConfig()
	cfg.Policy = analyzer.PolicyAbort
	svc, _ := newTestService(t, map[string]string{"point.ts": handlerSource}, cfg)
	router := setupTestRouter(svc)

	w := doRequest(t, router, http.MethodPost, "/v1/tstype/analyze", []byte(`{"paths":["point.ts"]}`))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ANALYSIS_ABORTED", decode[ErrorResponse](t, w).Code)
}

func TestHandleAnalyze_AllowedRoots(t *testing.T) {
	files := map[string]string{
		"src/point.ts":         handlerSource,
		"gs://bucket/ts/a.ts":  "let a = 1;\n",
		"gs://bucket/other.ts": "let b = 2;\n",
	}
	svc, loader := newTestService(t, files, DefaultServiceConfig())
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router.Group("/v1"), NewHandlers(svc, WithAllowedRoots([]string{"src", "gs://bucket/ts/"})))

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"inside local root", "src/point.ts", http.StatusOK},
		{"inside url root", "gs://bucket/ts/a.ts", http.StatusOK},
		{"parent escape", "src/../etc/passwd", http.StatusForbidden},
		{"sibling prefix", "srcx/point.ts", http.StatusForbidden},
		{"outside url root", "gs://bucket/other.ts", http.StatusForbidden},
		{"absolute outside", "/etc/passwd", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := []byte(fmt.Sprintf(`{"paths":[%q]}`, tt.path))
			w := doRequest(t, router, http.MethodPost, "/v1/tstype/analyze", body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status == http.StatusForbidden {
				assert.Equal(t, "PATH_NOT_ALLOWED", decode[ErrorResponse](t, w).Code)
			}
		})
	}

	loader.mu.Lock()
	defer loader.mu.Unlock()
	assert.Equal(t, []string{"src/point.ts", "gs://bucket/ts/a.ts"}, loader.loads)
}

func TestHandleType(t *testing.T) {
	svc := setupAnalyzedService(t)
	router := setupTestRouter(svc)

	f, ok := svc.Snapshot().File("point.ts")
	require.True(t, ok)
	n := f.Tree.Find("identifier", "p")
	require.NotNil(t, n)

	w := doRequest(t, router, http.MethodGet, fmt.Sprintf("/v1/tstype/type?path=point.ts&node=%d", n.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[TypeResponse](t, w)
	assert.Equal(t, "point.ts", resp.Path)
	require.NotNil(t, resp.Node)
	assert.Equal(t, "identifier", resp.Node.Kind)
	assert.Equal(t, "p", resp.Node.Text)
	assert.Equal(t, 2, resp.Node.Location.StartLine)
	require.NotNil(t, resp.Type)
	assert.Equal(t, "interface", resp.Type.Kind)
	assert.Equal(t, "Point", resp.Type.Name)
	assert.Len(t, resp.Type.Properties, 2)
}

func TestHandleType_Errors(t *testing.T) {
	router := setupTestRouter(setupAnalyzedService(t))

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"missing path", "/v1/tstype/type?node=1", http.StatusBadRequest, "MISSING_PARAMETER"},
		{"bad node", "/v1/tstype/type?path=point.ts&node=abc", http.StatusBadRequest, "INVALID_PARAMETER"},
		{"negative node", "/v1/tstype/type?path=point.ts&node=-1", http.StatusBadRequest, "INVALID_PARAMETER"},
		{"root has no type", "/v1/tstype/type?path=point.ts&node=0", http.StatusNotFound, "TYPE_NOT_FOUND"},
		{"unknown file", "/v1/tstype/type?path=other.ts&node=3", http.StatusNotFound, "TYPE_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, w).Code)
		})
	}
}

func TestHandleHover(t *testing.T) {
	router := setupTestRouter(setupAnalyzedService(t))

	w := doRequest(t, router, http.MethodGet, "/v1/tstype/hover?path=point.ts&line=2&col=4", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[TypeResponse](t, w)
	require.NotNil(t, resp.Node)
	assert.Equal(t, "p", resp.Node.Text)
	assert.Equal(t, "Point", resp.Type.Name)

	w = doRequest(t, router, http.MethodGet, "/v1/tstype/hover?path=point.ts&line=3&col=0", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, router, http.MethodGet, "/v1/tstype/hover?path=point.ts&line=0&col=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleDiagnostics(t *testing.T) {
	router := setupTestRouter(setupAnalyzedService(t))

	w := doRequest(t, router, http.MethodGet, "/v1/tstype/diagnostics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Total       int                         `json:"total"`
		Diagnostics map[string][]map[string]any `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Diagnostics["point.ts"], 1)
	d := resp.Diagnostics["point.ts"][0]
	assert.Equal(t, "unsupported_construct", d["kind"])
	assert.Equal(t, "class_declaration", d["node_kind"])

	w = doRequest(t, router, http.MethodGet, "/v1/tstype/diagnostics?path=missing.ts", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleSymbols(t *testing.T) {
	router := setupTestRouter(setupAnalyzedService(t))

	w := doRequest(t, router, http.MethodGet, "/v1/tstype/symbols", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[SymbolsResponse](t, w)
	require.Len(t, resp.Symbols, 1)
	assert.Equal(t, "Point", resp.Symbols[0].Name)
	assert.Equal(t, "interface", resp.Symbols[0].Type.Kind)
}

func TestHandleHealth(t *testing.T) {
	router := setupTestRouter(NewService(DefaultServiceConfig(), WithLoader(newMapLoader(nil))))

	req := httptest.NewRequest(http.MethodGet, "/v1/tstype/health", nil)
	req.Header.Set(requestIDHeader, "req-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 0, resp.Files)
}

func TestNewRouter_Metrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(NewHandlers(setupAnalyzedService(t)), "tstype-test")

	w := doRequest(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "tstype_service_analyze_runs_total"))

	w = doRequest(t, router, http.MethodGet, "/v1/tstype/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
