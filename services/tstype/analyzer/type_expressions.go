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
	"fmt"
	"slices"

	"github.com/AleutianAI/tstype/services/tstype/ast"
	"github.com/AleutianAI/tstype/services/tstype/types"
)

// Type expression node kinds with a resolution rule.
const (
	kindPredefinedType    = "predefined_type"
	kindLiteralType       = "literal_type"
	kindTypeIdentifier    = "type_identifier"
	kindNestedTypeIdent   = "nested_type_identifier"
	kindParenthesizedType = "parenthesized_type"
	kindFunctionType      = "function_type"
	kindNull              = "null"
	kindUndefined         = "undefined"
)

// resolveAnnotation resolves a type annotation, unwrapping the leading
// colon node when present.
func (v *fileVisit) resolveAnnotation(ann *ast.Node) types.Type {
	if ann.Kind != kindTypeAnnotation {
		return v.resolveType(ann)
	}
	inner := firstNamed(v.tree, ann)
	if inner == nil {
		v.unsupported(ann, "empty type annotation")
		return types.Unknown{}
	}
	return v.resolveType(inner)
}

// resolveType maps a type expression node to a type.
//
// Keywords, literals and names are the core forms. Parenthesized,
// function and object types are resolved structurally. Every other form
// yields Unknown with a diagnostic.
func (v *fileVisit) resolveType(n *ast.Node) types.Type {
	text := v.tree.Text(n)

	switch n.Kind {
	case kindPredefinedType:
		if tag, ok := types.KeywordFromText(text); ok {
			return types.NewKeyword(tag)
		}
		v.unsupported(n, fmt.Sprintf("keyword type %q", text))
		return types.Unknown{}

	case kindLiteralType:
		return v.resolveLiteralType(n)

	case kindTypeIdentifier:
		if tag, ok := types.KeywordFromText(text); ok {
			return types.NewKeyword(tag)
		}
		return v.resolveTypeName(n, text)

	case kindNestedTypeIdent:
		return v.resolveTypeName(n, text)

	case kindParenthesizedType:
		inner := firstNamed(v.tree, n)
		if inner == nil {
			v.unsupported(n, "empty parenthesized type")
			return types.Unknown{}
		}
		return v.resolveType(inner)

	case kindFunctionType:
		if tp := v.tree.ChildByField(n, "type_parameters"); tp != nil {
			v.unsupported(tp, "generic function type parameters")
		}
		return v.buildFunction(n, v.tree.ChildByField(n, "return_type"))

	case kindObjectType:
		return types.Interface{Properties: v.resolveMembers(n)}
	}

	v.unsupported(n, fmt.Sprintf("type expression %s", n.Kind))
	return types.Unknown{}
}

// resolveLiteralType maps literal types. null and undefined are keywords,
// everything else keeps its exact text, sign included.
func (v *fileVisit) resolveLiteralType(n *ast.Node) types.Type {
	if inner := firstNamed(v.tree, n); inner != nil {
		switch inner.Kind {
		case kindNull:
			return types.NewKeyword(types.KeywordNull)
		case kindUndefined:
			return types.NewKeyword(types.KeywordUndefined)
		}
	}
	return types.NewLiteral(v.tree.Text(n))
}

// resolveTypeName looks name up in the global table.
//
// A declaration currently being resolved is a cycle. With hoisting, a name
// the item loop has not reached yet binds to its first declaration in this
// file, resolved on demand. A name already reached binds to the
// declaration in scope. A known name is inlined as a deep copy; an unknown
// one stays a Reference.
func (v *fileVisit) resolveTypeName(n *ast.Node, name string) types.Type {
	if slices.Contains(v.resolving, name) {
		v.cyclic(n, name)
		return types.NewReference(name)
	}

	if decls := v.pending[name]; len(decls) > 0 && !v.reached[name] && !v.done[decls[0].ID] {
		v.resolveDeclaration(decls[0])
	}

	if t, ok := v.a.globals.Get(name); ok {
		return types.Clone(t)
	}
	return types.NewReference(name)
}
