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
	"fmt"
	"log/slog"

	"github.com/AleutianAI/tstype/services/tstype/ast"
	"github.com/AleutianAI/tstype/services/tstype/types"
)

// Top-level node kinds.
const (
	kindLexicalDeclaration  = "lexical_declaration"
	kindVariableDeclaration = "variable_declaration"
	kindVariableDeclarator  = "variable_declarator"
	kindInterface           = "interface_declaration"
	kindTypeAlias           = "type_alias_declaration"
	kindFunction            = "function_declaration"
	kindFunctionSignature   = "function_signature"
	kindExpressionStatement = "expression_statement"
	kindExportStatement     = "export_statement"
	kindAmbientDeclaration  = "ambient_declaration"
	kindHashBang            = "hash_bang_line"
	kindEmptyStatement      = "empty_statement"
)

// fileVisit holds the state of one Visit call.
type fileVisit struct {
	ctx    context.Context
	a      *Analyzer
	tree   *ast.Tree
	result *FileResult

	// resolving is the stack of declaration names currently being resolved.
	resolving []string

	// pending maps hoisted names to their declarations in source order.
	// Only set with Hoisting enabled.
	pending map[string][]*ast.Node

	// done marks declarations already resolved in this visit, by NodeID.
	done map[ast.NodeID]bool

	// reached marks names whose declaration the item loop has passed.
	reached map[string]bool

	aborted *Diagnostic
}

func newFileVisit(ctx context.Context, a *Analyzer, result *FileResult) *fileVisit {
	return &fileVisit{
		ctx:     ctx,
		a:       a,
		tree:    result.Tree,
		result:  result,
		done:    make(map[ast.NodeID]bool),
		reached: make(map[string]bool),
	}
}

// run dispatches every top-level item of the tree.
func (v *fileVisit) run() error {
	root := v.tree.Root()
	if root == nil {
		return nil
	}
	items := v.tree.NamedChildren(root)

	if v.a.opts.Hoisting {
		v.hoist(items)
	}

	for _, item := range items {
		if err := v.ctx.Err(); err != nil {
			return fmt.Errorf("visit %s: %w", v.result.Path, err)
		}
		v.visitItem(item)
		if v.aborted != nil {
			return fmt.Errorf("%w: %w", ErrAborted, v.aborted)
		}
	}
	return nil
}

// hoist registers every top-level interface and alias name as pending.
func (v *fileVisit) hoist(items []*ast.Node) {
	v.pending = make(map[string][]*ast.Node)
	for _, item := range items {
		decl := unwrapDeclaration(v.tree, item)
		if decl == nil {
			continue
		}
		if decl.Kind != kindInterface && decl.Kind != kindTypeAlias {
			continue
		}
		if name := v.tree.ChildByField(decl, "name"); name != nil {
			key := v.tree.Text(name)
			v.pending[key] = append(v.pending[key], decl)
		}
	}
}

// unwrapDeclaration strips export and declare wrappers.
func unwrapDeclaration(tree *ast.Tree, n *ast.Node) *ast.Node {
	for n != nil && (n.Kind == kindExportStatement || n.Kind == kindAmbientDeclaration) {
		inner := tree.ChildByField(n, "declaration")
		if inner == nil {
			for _, c := range tree.NamedChildren(n) {
				if c.Kind != "decorator" {
					inner = c
					break
				}
			}
		}
		n = inner
	}
	return n
}

// visitItem applies the rule for one top-level item.
func (v *fileVisit) visitItem(item *ast.Node) {
	switch item.Kind {
	case ast.KindComment, kindHashBang, kindEmptyStatement:
		return
	case kindExportStatement, kindAmbientDeclaration:
		inner := unwrapDeclaration(v.tree, item)
		if inner == nil || inner.Kind == kindExportStatement || inner.Kind == kindAmbientDeclaration {
			v.unsupported(item, "export form without a declaration")
			return
		}
		v.visitItem(inner)
	case kindLexicalDeclaration, kindVariableDeclaration:
		v.declareVariables(item)
	case kindInterface, kindTypeAlias:
		v.declareType(item)
	case kindFunction, kindFunctionSignature:
		v.declareFunction(item)
	case kindExpressionStatement:
		expr := firstNamed(v.tree, item)
		if expr == nil {
			v.unsupported(item, "empty expression statement")
			return
		}
		v.resolveExpr(expr)
	default:
		v.unsupported(item, fmt.Sprintf("no rule for top-level %s", item.Kind))
	}
}

// record stores t for n in the file's cache. Nothing is recorded once the
// visit is aborted.
func (v *fileVisit) record(n *ast.Node, t types.Type) {
	if v.aborted != nil {
		return
	}
	v.result.Cache.set(n.ID, t)
}

// stopped reports whether PolicyAbort has ended the visit.
func (v *fileVisit) stopped() bool {
	return v.aborted != nil
}

// unsupported reports an unsupported construct at n.
func (v *fileVisit) unsupported(n *ast.Node, msg string) {
	v.report(&Diagnostic{
		Kind:     DiagnosticUnsupported,
		NodeKind: n.Kind,
		NodeID:   n.ID,
		Location: v.tree.Location(n),
		Message:  msg,
	})
}

// cyclic reports a reference to a declaration that is still being resolved.
func (v *fileVisit) cyclic(n *ast.Node, name string) {
	var chain []string
	for i, r := range v.resolving {
		if r == name {
			chain = append(chain, v.resolving[i:]...)
			break
		}
	}
	chain = append(chain, name)
	v.report(&Diagnostic{
		Kind:     DiagnosticCyclic,
		NodeKind: n.Kind,
		NodeID:   n.ID,
		Location: v.tree.Location(n),
		Message:  fmt.Sprintf("type %q refers to itself", name),
		Chain:    chain,
	})
}

// report records d unless the visit was already aborted.
func (v *fileVisit) report(d *Diagnostic) {
	if v.aborted != nil {
		return
	}
	v.result.Diagnostics = append(v.result.Diagnostics, d)
	recordDiagnostic(d)
	v.a.logger.Debug("diagnostic",
		slog.String("kind", d.Kind.String()),
		slog.String("node_kind", d.NodeKind),
		slog.String("location", d.Location.String()),
		slog.String("message", d.Message))
	if v.a.opts.Policy == PolicyAbort {
		v.aborted = d
	}
}

// firstNamed returns the first child of n listed by Tree.NamedChildren.
func firstNamed(tree *ast.Tree, n *ast.Node) *ast.Node {
	children := tree.NamedChildren(n)
	if len(children) == 0 {
		return nil
	}
	return children[0]
}
