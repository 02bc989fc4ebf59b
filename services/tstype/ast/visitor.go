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

import "context"

// Visitor consumes a parsed Tree.
//
// Description:
//
//	Visitor is the traversal protocol between the parser and its consumers.
//	Implementations decide which nodes to descend into; Walk is available
//	for consumers that want a plain pre-order traversal.
type Visitor interface {
	// Visit traverses tree. A non-nil error means the traversal stopped
	// early; whatever was recorded before the error is kept.
	Visit(ctx context.Context, tree *Tree) error
}

// Walk calls fn for every node of tree in pre-order. Returning false from
// fn skips the node's descendants.
func Walk(tree *Tree, fn func(n *Node) bool) {
	root := tree.Root()
	if root == nil {
		return
	}
	stack := []NodeID{root.ID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &tree.Nodes[id]
		if !fn(n) {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}
