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
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/tstype/services/tstype/ast"
	"github.com/AleutianAI/tstype/services/tstype/symbols"
	"github.com/AleutianAI/tstype/services/tstype/types"
)

// Snapshot is an immutable view of the engine state after an analysis
// pass.
//
// Description:
//
//	Readers query a Snapshot without any locking. Nothing reachable from a
//	Snapshot is mutated after it is published.
//
// Thread Safety:
//
//	Safe for concurrent use.
type Snapshot struct {
	// ID is unique per published snapshot.
	ID string

	// PublishedAt is when the snapshot was taken.
	PublishedAt time.Time

	paths   map[string]FileID
	files   []*FileResult
	globals *symbols.SymbolTable
}

func newSnapshot(paths map[string]FileID, files []*FileResult, globals *symbols.SymbolTable) *Snapshot {
	return &Snapshot{
		ID:          uuid.NewString(),
		PublishedAt: time.Now(),
		paths:       paths,
		files:       files,
		globals:     globals,
	}
}

// EmptySnapshot returns a snapshot with no files.
func EmptySnapshot() *Snapshot {
	return newSnapshot(map[string]FileID{}, nil, symbols.NewSymbolTable())
}

// FileID returns the id assigned to path.
func (s *Snapshot) FileID(path string) (FileID, bool) {
	id, ok := s.paths[path]
	return id, ok
}

// Lookup returns the type recorded at (file, node).
func (s *Snapshot) Lookup(file FileID, node ast.NodeID) (types.Type, bool) {
	if file < 0 || int(file) >= len(s.files) || s.files[file] == nil {
		return nil, false
	}
	return s.files[file].Cache.Get(node)
}

// Query returns the type recorded for node in the file at path.
func (s *Snapshot) Query(path string, node ast.NodeID) (types.Type, bool) {
	id, ok := s.paths[path]
	if !ok {
		return nil, false
	}
	return s.Lookup(id, node)
}

// File returns the analyzed result for path.
func (s *Snapshot) File(path string) (*FileResult, bool) {
	id, ok := s.paths[path]
	if !ok || s.files[id] == nil {
		return nil, false
	}
	return s.files[id], true
}

// Paths returns every analyzed path, sorted.
func (s *Snapshot) Paths() []string {
	out := make([]string, 0, len(s.paths))
	for p, id := range s.paths {
		if s.files[id] != nil {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Globals returns the global symbol table as of this snapshot.
func (s *Snapshot) Globals() *symbols.SymbolTable {
	return s.globals
}

// Diagnostics returns the diagnostics of the file at path.
func (s *Snapshot) Diagnostics(path string) []*Diagnostic {
	f, ok := s.File(path)
	if !ok {
		return nil
	}
	return f.Diagnostics
}

// TypeAt returns the innermost recorded node covering the position.
//
// Inputs:
//   - path: Analyzed file path.
//   - line: 1-based line.
//   - col: 0-based column.
//
// Outputs:
//   - *ast.Node: The node whose type was found, nil if none.
//   - types.Type: The recorded type.
//   - bool: True when a recorded node covers the position.
func (s *Snapshot) TypeAt(path string, line, col int) (*ast.Node, types.Type, bool) {
	f, ok := s.File(path)
	if !ok {
		return nil, nil, false
	}
	nodes := f.Tree.NodesAt(line, col)
	for i := len(nodes) - 1; i >= 0; i-- {
		if t, ok := f.Cache.Get(nodes[i].ID); ok {
			return nodes[i], t, true
		}
	}
	return nil, nil, false
}

// Stats summarizes a snapshot.
type Stats struct {
	ID           string    `json:"id"`
	PublishedAt  time.Time `json:"published_at"`
	Files        int       `json:"files"`
	CacheEntries int       `json:"cache_entries"`
	Diagnostics  int       `json:"diagnostics"`
	Globals      int       `json:"globals"`
}

// Stats returns counts over the snapshot.
func (s *Snapshot) Stats() Stats {
	st := Stats{ID: s.ID, PublishedAt: s.PublishedAt, Globals: s.globals.Len()}
	for _, f := range s.files {
		if f == nil {
			continue
		}
		st.Files++
		st.CacheEntries += f.Cache.Len()
		st.Diagnostics += len(f.Diagnostics)
	}
	return st
}
