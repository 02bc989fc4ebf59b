// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tstype analyzes TypeScript sources and serves the resolved types.
package tstype

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/tstype/services/tstype/analyzer"
	"github.com/AleutianAI/tstype/services/tstype/ast"
	"github.com/AleutianAI/tstype/services/tstype/config"
	"github.com/AleutianAI/tstype/services/tstype/symbols"
	"github.com/AleutianAI/tstype/services/tstype/types"
)

const serviceTracerName = "tstype.service"

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// Policy decides whether a diagnostic stops the analyze call.
	Policy analyzer.Policy

	// Hoisting enables two-pass resolution within each file.
	Hoisting bool

	// Dialect selects the grammar. DialectAuto picks by extension.
	Dialect ast.Dialect

	// MaxFileSize is the largest accepted source file in bytes.
	MaxFileSize int64
}

// DefaultServiceConfig returns the single-pass, continue-on-error setup.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Policy:      analyzer.PolicyContinue,
		Dialect:     ast.DialectAuto,
		MaxFileSize: ast.DefaultMaxFileSize,
	}
}

// ServiceConfigFromConfig maps a loaded configuration to a ServiceConfig.
func ServiceConfigFromConfig(cfg *config.Config) (ServiceConfig, error) {
	policy, err := analyzer.ParsePolicy(cfg.Analyzer.Policy)
	if err != nil {
		return ServiceConfig{}, err
	}
	return ServiceConfig{
		Policy:      policy,
		Hoisting:    cfg.Analyzer.Hoisting,
		Dialect:     ast.Dialect(cfg.Parser.Dialect),
		MaxFileSize: cfg.Parser.MaxFileSize,
	}, nil
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLoader replaces the default afs loader.
func WithLoader(l Loader) ServiceOption {
	return func(s *Service) {
		s.loader = l
	}
}

// WithServiceLogger sets the logger used by the service and its engine.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// Service drives the resolution engine over a set of files and answers
// type queries.
//
// Description:
//
//	Service owns one parser, one loader and one analyzer. Analyze runs
//	sequentially under a writer mutex and publishes an immutable snapshot
//	when it returns. Queries read the latest published snapshot and never
//	wait for a running Analyze.
//
// Thread Safety:
//
//	Safe for concurrent use. Concurrent Analyze calls are serialized.
type Service struct {
	config ServiceConfig
	logger *slog.Logger
	loader Loader
	parser *ast.TypeScriptParser

	mu       sync.Mutex // serializes writers
	engine   *analyzer.Analyzer
	snapshot atomic.Pointer[analyzer.Snapshot]
}

// NewService creates a Service with an empty engine.
//
// Inputs:
//   - cfg: Engine and parser configuration
//   - opts: WithLoader, WithServiceLogger
//
// Outputs:
//   - *Service: Ready to use, never nil
func NewService(cfg ServiceConfig, opts ...ServiceOption) *Service {
	s := &Service{config: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.parser = ast.NewTypeScriptParser(
		ast.WithTypeScriptMaxFileSize(cfg.MaxFileSize),
		ast.WithDialect(cfg.Dialect),
	)
	if s.loader == nil {
		s.loader = NewAFSLoader(s.parser.Extensions()...)
	}
	s.engine = analyzer.NewAnalyzer(
		analyzer.WithPolicy(cfg.Policy),
		analyzer.WithHoisting(cfg.Hoisting),
		analyzer.WithLogger(s.logger),
	)
	s.snapshot.Store(analyzer.EmptySnapshot())
	return s
}

// Analyze loads, parses and analyzes paths in the given order.
//
// Description:
//
//	Directories are expanded when the loader supports it. Each file is
//	read, parsed and visited in turn. Syntax errors reported by the parser
//	are logged and the best-effort tree is used. A read failure stops the
//	remaining files with an *IOError; files analyzed before it keep their
//	results. A snapshot is published on every return path.
//
// Inputs:
//   - ctx: Checked between files. Cancellation stops the remaining files.
//   - paths: Files or directories, analyzed in order.
//
// Outputs:
//   - *analyzer.Snapshot: The published snapshot, never nil.
//   - error: *IOError, a parse error, analyzer.ErrAborted or a context error.
//
// Thread Safety:
//
//	Safe for concurrent use; calls are serialized.
func (s *Service) Analyze(ctx context.Context, paths []string) (*analyzer.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := otel.Tracer(serviceTracerName).Start(ctx, "tstype.Service.Analyze",
		trace.WithAttributes(attribute.Int("analyze.requested_paths", len(paths))))
	defer span.End()
	start := time.Now()

	analyzed, err := s.analyzeLocked(ctx, paths)

	snap := s.engine.Snapshot()
	s.snapshot.Store(snap)
	recordAnalyzeMetrics(time.Since(start), analyzed, err)

	span.SetAttributes(
		attribute.Int("analyze.files", analyzed),
		attribute.String("snapshot.id", snap.ID),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("analysis failed",
			slog.Int("files_analyzed", analyzed),
			slog.String("snapshot_id", snap.ID),
			slog.String("error", err.Error()))
		return snap, err
	}

	st := snap.Stats()
	s.logger.Info("analysis complete",
		slog.Int("files_analyzed", analyzed),
		slog.Int("cache_entries", st.CacheEntries),
		slog.Int("diagnostics", st.Diagnostics),
		slog.String("snapshot_id", snap.ID),
		slog.Duration("duration", time.Since(start)))
	return snap, nil
}

// analyzeLocked runs the file queue. Callers hold s.mu.
func (s *Service) analyzeLocked(ctx context.Context, paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, ErrNoPaths
	}

	ex, expands := s.loader.(Expander)

	analyzed := 0
	for _, p := range paths {
		files := []string{p}
		if expands {
			expanded, err := ex.Expand(ctx, files)
			if err != nil {
				return analyzed, err
			}
			files = expanded
		}
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return analyzed, fmt.Errorf("analyze canceled before %s: %w", f, err)
			}
			if err := s.analyzeFile(ctx, f); err != nil {
				return analyzed, err
			}
			analyzed++
		}
	}
	return analyzed, nil
}

func (s *Service) analyzeFile(ctx context.Context, path string) error {
	content, err := s.loader.Load(ctx, path)
	if err != nil {
		var ioErr *IOError
		if errors.As(err, &ioErr) {
			return err
		}
		return &IOError{Path: path, Err: err}
	}

	tree, err := s.parser.Parse(ctx, content, path)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if len(tree.Errors) > 0 {
		s.logger.Warn("syntax errors ignored",
			slog.String("path", path),
			slog.Int("count", len(tree.Errors)),
			slog.String("first", tree.Errors[0]))
	}

	s.engine.SetCurrentPath(path)
	if err := s.engine.Visit(ctx, tree); err != nil {
		return fmt.Errorf("analyze %s: %w", path, err)
	}
	return nil
}

// Snapshot returns the latest published snapshot.
func (s *Service) Snapshot() *analyzer.Snapshot {
	return s.snapshot.Load()
}

// Query returns the type recorded for node in the file at path.
func (s *Service) Query(path string, node ast.NodeID) (types.Type, bool) {
	return s.Snapshot().Query(path, node)
}

// TypeAt returns the innermost typed node at a 1-based line and 0-based
// column.
func (s *Service) TypeAt(path string, line, col int) (*ast.Node, types.Type, bool) {
	return s.Snapshot().TypeAt(path, line, col)
}

// Diagnostics returns the diagnostics recorded for path.
func (s *Service) Diagnostics(path string) []*analyzer.Diagnostic {
	return s.Snapshot().Diagnostics(path)
}

// Globals returns the global symbol table of the latest snapshot.
func (s *Service) Globals() *symbols.SymbolTable {
	return s.Snapshot().Globals()
}

// Config returns the service configuration.
func (s *Service) Config() ServiceConfig {
	return s.config
}
