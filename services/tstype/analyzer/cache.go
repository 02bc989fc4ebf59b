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
	"github.com/AleutianAI/tstype/services/tstype/ast"
	"github.com/AleutianAI/tstype/services/tstype/types"
)

// FileID identifies a file path within one Analyzer. IDs are assigned on
// first sight of a path and never reused.
type FileID int32

// Entry is one recorded (node, type) pair.
type Entry struct {
	Node ast.NodeID
	Type types.Type
}

// TypeCache maps the nodes of one tree to their resolved types.
//
// Description:
//
//	The cache is a slice indexed by NodeID, sized to the tree it belongs
//	to. Each slot holds at most one value; recording a node twice keeps the
//	later value.
//
// Thread Safety:
//
//	Not safe for concurrent mutation. Caches published in a Snapshot are
//	never mutated again and may be read concurrently.
type TypeCache struct {
	slots []types.Type
	count int
}

func newTypeCache(size int) *TypeCache {
	return &TypeCache{slots: make([]types.Type, size)}
}

// set records t for id, growing the cache if id is past the end.
func (c *TypeCache) set(id ast.NodeID, t types.Type) {
	if id < 0 {
		return
	}
	if int(id) >= len(c.slots) {
		grown := make([]types.Type, int(id)+1)
		copy(grown, c.slots)
		c.slots = grown
	}
	if c.slots[id] == nil {
		c.count++
	}
	c.slots[id] = t
}

// Get returns the type recorded for id.
func (c *TypeCache) Get(id ast.NodeID) (types.Type, bool) {
	if c == nil || id < 0 || int(id) >= len(c.slots) {
		return nil, false
	}
	t := c.slots[id]
	return t, t != nil
}

// Len returns the number of recorded nodes.
func (c *TypeCache) Len() int {
	if c == nil {
		return 0
	}
	return c.count
}

// Entries returns every recorded pair in NodeID order.
func (c *TypeCache) Entries() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, 0, c.count)
	for i, t := range c.slots {
		if t != nil {
			out = append(out, Entry{Node: ast.NodeID(i), Type: t})
		}
	}
	return out
}
