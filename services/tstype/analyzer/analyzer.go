// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analyzer resolves TypeScript type annotations and literal
// expressions into types.Type values keyed by syntax node.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/tstype/services/tstype/ast"
	"github.com/AleutianAI/tstype/services/tstype/symbols"
	"github.com/AleutianAI/tstype/services/tstype/types"
)

// AnalyzerOptions configures Analyzer behavior.
type AnalyzerOptions struct {
	// Policy decides whether diagnostics stop a file.
	// Default: PolicyContinue
	Policy Policy

	// Hoisting enables two-pass resolution so a file's interfaces and
	// aliases can be referenced before their declaration.
	// Default: false (declare-before-use)
	Hoisting bool

	// Logger receives debug and warning output. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultAnalyzerOptions returns the single-pass, continue-on-error setup.
func DefaultAnalyzerOptions() AnalyzerOptions {
	return AnalyzerOptions{
		Policy: PolicyContinue,
	}
}

// AnalyzerOption is a functional option for configuring Analyzer.
type AnalyzerOption func(*AnalyzerOptions)

// WithPolicy sets the unsupported-construct policy.
func WithPolicy(p Policy) AnalyzerOption {
	return func(o *AnalyzerOptions) {
		o.Policy = p
	}
}

// WithHoisting toggles two-pass resolution of top-level type declarations.
func WithHoisting(enabled bool) AnalyzerOption {
	return func(o *AnalyzerOptions) {
		o.Hoisting = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) AnalyzerOption {
	return func(o *AnalyzerOptions) {
		o.Logger = logger
	}
}

// FileResult is everything recorded for one file by its latest Visit.
type FileResult struct {
	Path        string
	ID          FileID
	Tree        *ast.Tree
	Cache       *TypeCache
	Locals      *symbols.SymbolTable
	Diagnostics []*Diagnostic
	AnalyzedAt  time.Time
}

// Analyzer is the type resolution engine.
//
// Description:
//
//	Analyzer implements ast.Visitor. Callers select the file with
//	SetCurrentPath and then pass its tree to Visit. Interfaces and type
//	aliases go into a global symbol table shared by every file the
//	Analyzer sees; functions go into the file's local table. Each Visit
//	replaces the file's previous cache, locals and diagnostics.
//
// Thread Safety:
//
//	Analyzer is not safe for concurrent use. Call Snapshot to obtain an
//	immutable view for concurrent readers.
type Analyzer struct {
	opts   AnalyzerOptions
	logger *slog.Logger

	currentPath string
	fileIDs     map[string]FileID
	files       []*FileResult // indexed by FileID
	globals     *symbols.SymbolTable
}

var _ ast.Visitor = (*Analyzer)(nil)

// NewAnalyzer creates an Analyzer with empty symbol tables and caches.
//
// Inputs:
//   - opts: Optional configuration (WithPolicy, WithHoisting, WithLogger)
//
// Outputs:
//   - *Analyzer: Ready to use, never nil
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	o := DefaultAnalyzerOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		opts:    o,
		logger:  logger,
		fileIDs: make(map[string]FileID),
		globals: symbols.NewSymbolTable(),
	}
}

// Options returns the effective configuration.
func (a *Analyzer) Options() AnalyzerOptions {
	return a.opts
}

// SetCurrentPath selects the file the next Visit records into and returns
// its FileID.
func (a *Analyzer) SetCurrentPath(path string) FileID {
	a.currentPath = path
	return a.fileID(path)
}

// CurrentPath returns the active file path.
func (a *Analyzer) CurrentPath() string {
	return a.currentPath
}

func (a *Analyzer) fileID(path string) FileID {
	if id, ok := a.fileIDs[path]; ok {
		return id
	}
	id := FileID(len(a.files))
	a.fileIDs[path] = id
	a.files = append(a.files, nil)
	return id
}

// Visit analyzes tree as the active file.
//
// Description:
//
//	Top-level items are dispatched in source order. Unsupported syntax is
//	reported as a Diagnostic on the file result. Under PolicyContinue the
//	traversal always completes; under PolicyAbort it stops at the first
//	diagnostic and Visit returns that diagnostic wrapped in ErrAborted.
//	Everything recorded before the stop is kept.
//
// Inputs:
//   - ctx: Checked between top-level items.
//   - tree: The parsed file. Must not be nil.
//
// Outputs:
//   - error: ErrNoActivePath, a context error, or ErrAborted.
func (a *Analyzer) Visit(ctx context.Context, tree *ast.Tree) error {
	if a.currentPath == "" {
		return ErrNoActivePath
	}
	if tree == nil {
		return fmt.Errorf("visit %s: nil tree", a.currentPath)
	}

	ctx, span := startVisitSpan(ctx, a.currentPath, tree.Len())
	defer span.End()
	start := time.Now()

	id := a.fileID(a.currentPath)
	result := &FileResult{
		Path:       a.currentPath,
		ID:         id,
		Tree:       tree,
		Cache:      newTypeCache(tree.Len()),
		Locals:     symbols.NewSymbolTable(),
		AnalyzedAt: start,
	}
	a.files[id] = result

	v := newFileVisit(ctx, a, result)
	err := v.run()

	span.SetAttributes(
		attribute.Int("analyze.cache_entries", result.Cache.Len()),
		attribute.Int("analyze.diagnostics", len(result.Diagnostics)),
	)
	recordVisitMetrics(result, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.Warn("file analysis stopped",
			slog.String("path", result.Path),
			slog.Int("cache_entries", result.Cache.Len()),
			slog.String("error", err.Error()))
		return err
	}

	a.logger.Debug("file analyzed",
		slog.String("path", result.Path),
		slog.Int("nodes", tree.Len()),
		slog.Int("cache_entries", result.Cache.Len()),
		slog.Int("diagnostics", len(result.Diagnostics)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// TypeInfo returns the type recorded for node in the file at path.
func (a *Analyzer) TypeInfo(path string, node ast.NodeID) (types.Type, bool) {
	id, ok := a.fileIDs[path]
	if !ok || a.files[id] == nil {
		return nil, false
	}
	return a.files[id].Cache.Get(node)
}

// File returns the latest result for path.
func (a *Analyzer) File(path string) (*FileResult, bool) {
	id, ok := a.fileIDs[path]
	if !ok || a.files[id] == nil {
		return nil, false
	}
	return a.files[id], true
}

// Globals returns the live global symbol table. Callers must not mutate it.
func (a *Analyzer) Globals() *symbols.SymbolTable {
	return a.globals
}

// Snapshot returns an immutable view of the current state.
//
// Description:
//
//	File results are shared with the Analyzer because a later Visit
//	replaces them instead of mutating them. The global table is cloned.
//
// Thread Safety:
//
//	The returned Snapshot is safe for concurrent reads.
func (a *Analyzer) Snapshot() *Snapshot {
	paths := make(map[string]FileID, len(a.fileIDs))
	for p, id := range a.fileIDs {
		paths[p] = id
	}
	files := make([]*FileResult, len(a.files))
	copy(files, a.files)
	return newSnapshot(paths, files, a.globals.Clone())
}
