// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast turns TypeScript source into an immutable syntax tree whose
// nodes carry stable integer identifiers.
package ast

import (
	"fmt"
)

// NodeID identifies a node within its Tree. IDs are assigned in pre-order
// starting at 0 for the root, so the same source always yields the same IDs.
type NodeID int32

// InvalidNode is the NodeID of "no node".
const InvalidNode NodeID = -1

// Tree-sitter node kinds with special handling.
const (
	KindProgram = "program"
	KindComment = "comment"
	KindError   = "ERROR"
)

// Point is a zero-based row/column position in the source.
type Point struct {
	Row    uint32
	Column uint32
}

// Location is a human-facing source span. Lines are 1-based, columns are
// 0-based byte offsets within the line.
type Location struct {
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	StartCol  int    `json:"start_col"`
	EndCol    int    `json:"end_col"`
}

// String renders the location as path:line:col.
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.FilePath, l.StartLine, l.StartCol)
}

// Node is one element of a parsed Tree.
type Node struct {
	ID NodeID

	// Kind is the tree-sitter node type, e.g. "lexical_declaration".
	Kind string

	// Field is the grammar field name this node fills in its parent, or "".
	Field string

	// Named is false for punctuation and keyword tokens.
	Named bool

	// Missing is true for zero-width nodes inserted by error recovery.
	Missing bool

	Parent   NodeID
	Children []NodeID

	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
}

// Tree is a parsed source file.
//
// Description:
//
//	Tree owns a copy of the source and a flat arena of nodes indexed by
//	NodeID. It holds no reference to the underlying tree-sitter tree, so it
//	stays valid after parsing and can be shared freely.
//
// Thread Safety:
//
//	Tree is immutable after Parse returns and safe for concurrent reads.
type Tree struct {
	FilePath      string
	Language      string
	Hash          string
	ParsedAtMilli int64
	Source        []byte
	Nodes         []Node

	// Errors lists syntax errors found by the parser. The tree is still
	// the parser's best-effort result.
	Errors []string
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.Nodes)
}

// Root returns the root node, or nil for an empty tree.
func (t *Tree) Root() *Node {
	if len(t.Nodes) == 0 {
		return nil
	}
	return &t.Nodes[0]
}

// Node returns the node with the given id, or nil if id is out of range.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.Nodes) {
		return nil
	}
	return &t.Nodes[id]
}

// Text returns the exact source text covered by n.
func (t *Tree) Text(n *Node) string {
	if n == nil || n.EndByte > uint32(len(t.Source)) || n.StartByte > n.EndByte {
		return ""
	}
	return string(t.Source[n.StartByte:n.EndByte])
}

// Parent returns the parent of n, or nil for the root.
func (t *Tree) Parent(n *Node) *Node {
	if n == nil {
		return nil
	}
	return t.Node(n.Parent)
}

// ChildByField returns the first child of n filling the given field.
func (t *Tree) ChildByField(n *Node, field string) *Node {
	if n == nil {
		return nil
	}
	for _, id := range n.Children {
		if c := &t.Nodes[id]; c.Field == field {
			return c
		}
	}
	return nil
}

// ChildByKind returns the first child of n with the given kind.
func (t *Tree) ChildByKind(n *Node, kind string) *Node {
	if n == nil {
		return nil
	}
	for _, id := range n.Children {
		if c := &t.Nodes[id]; c.Kind == kind {
			return c
		}
	}
	return nil
}

// NamedChildren returns the named children of n, skipping comments.
func (t *Tree) NamedChildren(n *Node) []*Node {
	if n == nil {
		return nil
	}
	out := make([]*Node, 0, len(n.Children))
	for _, id := range n.Children {
		c := &t.Nodes[id]
		if c.Named && c.Kind != KindComment {
			out = append(out, c)
		}
	}
	return out
}

// Location returns the source span of n.
func (t *Tree) Location(n *Node) Location {
	if n == nil {
		return Location{FilePath: t.FilePath}
	}
	return Location{
		FilePath:  t.FilePath,
		StartLine: int(n.StartPoint.Row) + 1,
		EndLine:   int(n.EndPoint.Row) + 1,
		StartCol:  int(n.StartPoint.Column),
		EndCol:    int(n.EndPoint.Column),
	}
}

// Contains reports whether n covers the position (line 1-based, col
// 0-based). The end position is inclusive so a cursor just past the last
// character still hits the node.
func (n *Node) Contains(line, col int) bool {
	if line < 1 || col < 0 {
		return false
	}
	row := uint32(line - 1)
	c := uint32(col)
	if row < n.StartPoint.Row || row > n.EndPoint.Row {
		return false
	}
	if row == n.StartPoint.Row && c < n.StartPoint.Column {
		return false
	}
	if row == n.EndPoint.Row && c > n.EndPoint.Column {
		return false
	}
	return true
}

// NodesAt returns every named node covering the position, outermost first.
func (t *Tree) NodesAt(line, col int) []*Node {
	root := t.Root()
	if root == nil || !root.Contains(line, col) {
		return nil
	}
	path := []*Node{root}
	cur := root
	for {
		var next *Node
		for _, c := range t.NamedChildren(cur) {
			if c.Contains(line, col) {
				next = c
				break
			}
		}
		if next == nil {
			return path
		}
		path = append(path, next)
		cur = next
	}
}

// Find returns the first node in pre-order with the given kind and text.
// An empty text matches any node of that kind.
func (t *Tree) Find(kind, text string) *Node {
	var found *Node
	Walk(t, func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.Kind == kind && (text == "" || t.Text(n) == text) {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindAll returns every node with the given kind in pre-order.
func (t *Tree) FindAll(kind string) []*Node {
	var out []*Node
	Walk(t, func(n *Node) bool {
		if n.Kind == kind {
			out = append(out, n)
		}
		return true
	})
	return out
}
