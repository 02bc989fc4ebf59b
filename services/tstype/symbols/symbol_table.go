// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package symbols provides the name to type mapping used during resolution.
package symbols

import (
	"sort"

	"github.com/AleutianAI/tstype/services/tstype/types"
)

// SymbolTable maps identifier text to a resolved type.
//
// Description:
//
//	Keys are unique. Insert overwrites unconditionally (last write wins, no
//	merge). There is no scope chain: the resolution engine keeps one global
//	table for interfaces and aliases and one local table per file for
//	function bindings.
//
// Thread Safety:
//
//	Not safe for concurrent use. The engine is the single writer; readers
//	receive a Clone through published snapshots.
type SymbolTable struct {
	symbols map[string]types.Type
}

// NewSymbolTable creates an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]types.Type)}
}

// Insert binds name to t, replacing any earlier binding.
func (s *SymbolTable) Insert(name string, t types.Type) {
	s.symbols[name] = t
}

// Get returns the type bound to name.
func (s *SymbolTable) Get(name string) (types.Type, bool) {
	t, ok := s.symbols[name]
	return t, ok
}

// Len returns the number of bindings.
func (s *SymbolTable) Len() int {
	return len(s.symbols)
}

// Names returns the bound names in sorted order.
func (s *SymbolTable) Names() []string {
	names := make([]string, 0, len(s.symbols))
	for name := range s.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy. Type values are deep-copied.
func (s *SymbolTable) Clone() *SymbolTable {
	cp := &SymbolTable{symbols: make(map[string]types.Type, len(s.symbols))}
	for name, t := range s.symbols {
		cp.symbols[name] = types.Clone(t)
	}
	return cp
}
