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
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/tstype/services/tstype/analyzer"
	"github.com/AleutianAI/tstype/services/tstype/ast"
	"github.com/AleutianAI/tstype/services/tstype/types"
)

const requestIDHeader = "X-Request-ID"

// =============================================================================
// Request / Response Types
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// AnalyzeRequest is the body of POST /v1/tstype/analyze.
type AnalyzeRequest struct {
	// Paths are files or directories, analyzed in order.
	Paths []string `json:"paths" binding:"required,min=1,dive,required"`
}

// AnalyzeResponse summarizes the snapshot published by an analyze call.
type AnalyzeResponse struct {
	Snapshot analyzer.Stats `json:"snapshot"`
	Paths    []string       `json:"paths"`
}

// NodeInfo identifies a syntax node in a response.
type NodeInfo struct {
	ID       ast.NodeID   `json:"id"`
	Kind     string       `json:"kind"`
	Location ast.Location `json:"location"`
	Text     string       `json:"text,omitempty"`
}

// TypeResponse is returned by the type and hover endpoints.
type TypeResponse struct {
	Path       string            `json:"path"`
	SnapshotID string            `json:"snapshot_id"`
	Node       *NodeInfo         `json:"node,omitempty"`
	Type       *types.Descriptor `json:"type"`
}

// DiagnosticsResponse lists diagnostics per file.
type DiagnosticsResponse struct {
	SnapshotID  string                            `json:"snapshot_id"`
	Diagnostics map[string][]*analyzer.Diagnostic `json:"diagnostics"`
	Total       int                               `json:"total"`
}

// SymbolInfo is one entry of the global symbol table.
type SymbolInfo struct {
	Name string            `json:"name"`
	Type *types.Descriptor `json:"type"`
}

// SymbolsResponse lists the global symbol table.
type SymbolsResponse struct {
	SnapshotID string       `json:"snapshot_id"`
	Symbols    []SymbolInfo `json:"symbols"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status     string    `json:"status"`
	SnapshotID string    `json:"snapshot_id"`
	Files      int       `json:"files"`
	Timestamp  time.Time `json:"timestamp"`
}

// =============================================================================
// Handlers
// =============================================================================

// Handlers exposes a Service over HTTP.
//
// Thread Safety: Safe for concurrent use. Query handlers read the latest
// published snapshot; HandleAnalyze is serialized by the Service.
type Handlers struct {
	svc          *Service
	allowedRoots []string
}

// HandlersOption configures Handlers.
type HandlersOption func(*Handlers)

// WithAllowedRoots restricts HandleAnalyze to paths under one of roots.
// Local roots are compared as absolute, cleaned paths; URL roots by prefix.
// An empty list allows every path.
func WithAllowedRoots(roots []string) HandlersOption {
	return func(h *Handlers) {
		h.allowedRoots = roots
	}
}

// NewHandlers creates handlers for svc.
func NewHandlers(svc *Service, opts ...HandlersOption) *Handlers {
	h := &Handlers{svc: svc}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// pathAllowed reports whether p lies under one of the allowed roots.
func (h *Handlers) pathAllowed(p string) bool {
	if len(h.allowedRoots) == 0 {
		return true
	}
	for _, root := range h.allowedRoots {
		if withinRoot(root, p) {
			return true
		}
	}
	return false
}

func withinRoot(root, p string) bool {
	if strings.Contains(root, "://") || strings.Contains(p, "://") {
		root = strings.TrimSuffix(root, "/")
		return p == root || strings.HasPrefix(p, root+"/")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// getOrCreateRequestID returns the caller's X-Request-ID or a new UUID, and
// echoes it on the response.
func getOrCreateRequestID(c *gin.Context) string {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Header(requestIDHeader, id)
	return id
}

// HandleAnalyze handles POST /v1/tstype/analyze.
//
// Description:
//
//	Runs Service.Analyze over the requested paths and returns the summary
//	of the published snapshot.
//
// Response:
//
//	200 OK: AnalyzeResponse
//	400 Bad Request: Invalid body
//	403 Forbidden: A path is outside the allowed roots
//	422 Unprocessable Entity: A source file could not be read
//	409 Conflict: Aborted by a diagnostic under the abort policy
//	500 Internal Server Error: Parse or other failure
func (h *Handlers) HandleAnalyze(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleAnalyze")

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}

	for _, p := range req.Paths {
		if !h.pathAllowed(p) {
			logger.Warn("analyze path rejected", slog.String("path", p))
			c.JSON(http.StatusForbidden, ErrorResponse{
				Error: "path is outside the allowed roots: " + p,
				Code:  "PATH_NOT_ALLOWED",
			})
			return
		}
	}

	snap, err := h.svc.Analyze(c.Request.Context(), req.Paths)
	if err != nil {
		logger.Warn("analyze failed", slog.String("error", err.Error()))
		status, code := http.StatusInternalServerError, "ANALYZE_FAILED"
		switch {
		case errors.Is(err, ErrIO):
			status, code = http.StatusUnprocessableEntity, "IO_ERROR"
		case errors.Is(err, analyzer.ErrAborted):
			status, code = http.StatusConflict, "ANALYSIS_ABORTED"
		}
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	logger.Info("analyze complete", slog.String("snapshot_id", snap.ID))
	c.JSON(http.StatusOK, AnalyzeResponse{
		Snapshot: snap.Stats(),
		Paths:    snap.Paths(),
	})
}

// HandleType handles GET /v1/tstype/type.
//
// Query Parameters:
//
//	path: Analyzed file path (required)
//	node: Node id within the file (required)
//
// Response:
//
//	200 OK: TypeResponse
//	400 Bad Request: Missing or invalid parameter
//	404 Not Found: No type recorded for the node
func (h *Handlers) HandleType(c *gin.Context) {
	getOrCreateRequestID(c)

	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "path parameter is required",
			Code:  "MISSING_PARAMETER",
		})
		return
	}
	id, err := strconv.ParseInt(c.Query("node"), 10, 32)
	if err != nil || id < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "node parameter must be a non-negative integer",
			Code:  "INVALID_PARAMETER",
		})
		return
	}

	snap := h.svc.Snapshot()
	t, ok := snap.Query(path, ast.NodeID(id))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "no type recorded for node",
			Code:  "TYPE_NOT_FOUND",
		})
		return
	}

	resp := TypeResponse{Path: path, SnapshotID: snap.ID, Type: types.Describe(t)}
	if f, ok := snap.File(path); ok {
		resp.Node = nodeInfo(f.Tree, f.Tree.Node(ast.NodeID(id)))
	}
	c.JSON(http.StatusOK, resp)
}

// HandleHover handles GET /v1/tstype/hover.
//
// Query Parameters:
//
//	path: Analyzed file path (required)
//	line: 1-based line (required)
//	col: 0-based column (required)
//
// Response:
//
//	200 OK: TypeResponse for the innermost typed node at the position
//	400 Bad Request: Missing or invalid parameter
//	404 Not Found: No typed node covers the position
func (h *Handlers) HandleHover(c *gin.Context) {
	getOrCreateRequestID(c)

	path := c.Query("path")
	line, lineErr := strconv.Atoi(c.Query("line"))
	col, colErr := strconv.Atoi(c.Query("col"))
	if path == "" || lineErr != nil || colErr != nil || line < 1 || col < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "path, line (>= 1) and col (>= 0) parameters are required",
			Code:  "INVALID_PARAMETER",
		})
		return
	}

	snap := h.svc.Snapshot()
	node, t, ok := snap.TypeAt(path, line, col)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "no typed node at position",
			Code:  "TYPE_NOT_FOUND",
		})
		return
	}

	f, _ := snap.File(path)
	c.JSON(http.StatusOK, TypeResponse{
		Path:       path,
		SnapshotID: snap.ID,
		Node:       nodeInfo(f.Tree, node),
		Type:       types.Describe(t),
	})
}

// HandleDiagnostics handles GET /v1/tstype/diagnostics.
//
// Query Parameters:
//
//	path: Restrict to one file (optional, all files if omitted)
func (h *Handlers) HandleDiagnostics(c *gin.Context) {
	getOrCreateRequestID(c)

	snap := h.svc.Snapshot()
	paths := snap.Paths()
	if p := c.Query("path"); p != "" {
		if _, ok := snap.File(p); !ok {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: "file not analyzed",
				Code:  "FILE_NOT_FOUND",
			})
			return
		}
		paths = []string{p}
	}

	resp := DiagnosticsResponse{
		SnapshotID:  snap.ID,
		Diagnostics: make(map[string][]*analyzer.Diagnostic, len(paths)),
	}
	for _, p := range paths {
		diags := snap.Diagnostics(p)
		if diags == nil {
			diags = []*analyzer.Diagnostic{}
		}
		resp.Diagnostics[p] = diags
		resp.Total += len(diags)
	}
	c.JSON(http.StatusOK, resp)
}

// HandleSymbols handles GET /v1/tstype/symbols.
func (h *Handlers) HandleSymbols(c *gin.Context) {
	getOrCreateRequestID(c)

	snap := h.svc.Snapshot()
	globals := snap.Globals()
	resp := SymbolsResponse{
		SnapshotID: snap.ID,
		Symbols:    make([]SymbolInfo, 0, globals.Len()),
	}
	for _, name := range globals.Names() {
		t, _ := globals.Get(name)
		resp.Symbols = append(resp.Symbols, SymbolInfo{Name: name, Type: types.Describe(t)})
	}
	c.JSON(http.StatusOK, resp)
}

// HandleHealth handles GET /v1/tstype/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	snap := h.svc.Snapshot()
	c.JSON(http.StatusOK, HealthResponse{
		Status:     "healthy",
		SnapshotID: snap.ID,
		Files:      len(snap.Paths()),
		Timestamp:  time.Now().UTC(),
	})
}

func nodeInfo(tree *ast.Tree, n *ast.Node) *NodeInfo {
	if tree == nil || n == nil {
		return nil
	}
	return &NodeInfo{
		ID:       n.ID,
		Kind:     n.Kind,
		Location: tree.Location(n),
		Text:     tree.Text(n),
	}
}
