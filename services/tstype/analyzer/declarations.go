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

	"github.com/AleutianAI/tstype/services/tstype/ast"
	"github.com/AleutianAI/tstype/services/tstype/types"
)

const (
	kindIdentifier       = "identifier"
	kindTypeAnnotation   = "type_annotation"
	kindPropertySig      = "property_signature"
	kindRequiredParam    = "required_parameter"
	kindOptionalParam    = "optional_parameter"
	kindThis             = "this"
	kindExtendsClause    = "extends_type_clause"
	kindTypeParameters   = "type_parameters"
	kindObjectType       = "object_type"
	kindFormalParameters = "formal_parameters"
	kindRestPattern      = "rest_pattern"
)

// declareVariables handles let, const and var statements.
//
// An annotated binding is recorded at its identifier. An unannotated
// binding with an initializer is recorded at the initializer expression.
// A bare binding records Unknown at its identifier.
func (v *fileVisit) declareVariables(decl *ast.Node) {
	for _, d := range v.tree.NamedChildren(decl) {
		if v.stopped() {
			return
		}
		if d.Kind != kindVariableDeclarator {
			continue
		}
		name := v.tree.ChildByField(d, "name")
		if name == nil {
			v.unsupported(d, "declarator without a name")
			continue
		}
		if name.Kind != kindIdentifier {
			v.unsupported(name, fmt.Sprintf("destructuring binding %s", name.Kind))
			continue
		}

		if ann := v.tree.ChildByField(d, "type"); ann != nil {
			v.record(name, v.resolveAnnotation(ann))
			continue
		}
		if value := v.tree.ChildByField(d, "value"); value != nil {
			v.resolveExpr(value)
			continue
		}
		v.record(name, types.Unknown{})
	}
}

// declareType handles interface and type alias declarations. With
// hoisting, a declaration already resolved on demand is re-registered so
// the global table still reflects source order.
func (v *fileVisit) declareType(decl *ast.Node) {
	name := v.tree.ChildByField(decl, "name")
	if name != nil {
		defer func() { v.reached[v.tree.Text(name)] = true }()
	}
	if v.done[decl.ID] {
		if name == nil {
			return
		}
		if t, ok := v.result.Cache.Get(name.ID); ok {
			v.a.globals.Insert(v.tree.Text(name), t)
		}
		return
	}
	v.resolveDeclaration(decl)
}

// resolveDeclaration resolves an interface or alias, records it at its
// name node and registers it globally.
func (v *fileVisit) resolveDeclaration(decl *ast.Node) {
	v.done[decl.ID] = true

	nameNode := v.tree.ChildByField(decl, "name")
	if nameNode == nil {
		v.unsupported(decl, fmt.Sprintf("%s without a name", decl.Kind))
		return
	}
	name := v.tree.Text(nameNode)

	v.resolving = append(v.resolving, name)
	var t types.Type
	if decl.Kind == kindInterface {
		t = v.buildInterface(decl, name)
	} else {
		t = v.buildAlias(decl, name)
	}
	v.resolving = v.resolving[:len(v.resolving)-1]

	if v.stopped() {
		return
	}
	v.record(nameNode, t)
	v.a.globals.Insert(name, t)
}

func (v *fileVisit) buildInterface(decl *ast.Node, name string) types.Type {
	for _, c := range v.tree.NamedChildren(decl) {
		switch c.Kind {
		case kindTypeParameters:
			v.unsupported(c, "generic interface parameters")
		case kindExtendsClause:
			v.unsupported(c, "interface inheritance")
		}
	}

	body := v.tree.ChildByField(decl, "body")
	iface := types.Interface{Name: name}
	if body != nil {
		iface.Properties = v.resolveMembers(body)
	}
	return iface
}

func (v *fileVisit) buildAlias(decl *ast.Node, name string) types.Type {
	if tp := v.tree.ChildByField(decl, "type_parameters"); tp != nil {
		v.unsupported(tp, "generic type alias parameters")
	}
	value := v.tree.ChildByField(decl, "value")
	if value == nil {
		v.unsupported(decl, "type alias without a value")
		return types.Alias{Name: name, Aliased: types.Unknown{}}
	}
	return types.Alias{Name: name, Aliased: v.resolveType(value)}
}

// resolveMembers collects property signatures of an interface body or
// object type in declaration order.
func (v *fileVisit) resolveMembers(body *ast.Node) []types.Property {
	var props []types.Property
	for _, m := range v.tree.NamedChildren(body) {
		if v.stopped() {
			break
		}
		if m.Kind != kindPropertySig {
			v.unsupported(m, fmt.Sprintf("member %s", m.Kind))
			continue
		}
		nameNode := v.tree.ChildByField(m, "name")
		if nameNode == nil {
			v.unsupported(m, "property without a name")
			continue
		}
		var t types.Type = types.Unknown{}
		if ann := v.tree.ChildByField(m, "type"); ann != nil {
			t = v.resolveAnnotation(ann)
		}
		props = append(props, types.Property{Name: v.tree.Text(nameNode), Type: t})
	}
	return props
}

// declareFunction handles function declarations and signatures.
func (v *fileVisit) declareFunction(decl *ast.Node) {
	nameNode := v.tree.ChildByField(decl, "name")
	if nameNode == nil {
		v.unsupported(decl, "anonymous function declaration")
		return
	}
	if tp := v.tree.ChildByField(decl, "type_parameters"); tp != nil {
		v.unsupported(tp, "generic function parameters")
	}

	fn := v.buildFunction(decl, v.tree.ChildByField(decl, "return_type"))
	if v.stopped() {
		return
	}
	v.record(nameNode, fn)
	v.result.Locals.Insert(v.tree.Text(nameNode), fn)
}

// buildFunction resolves the parameters and return type of decl. Every
// parameter and the return type must be annotated; a missing annotation
// leaves that slot Unknown.
func (v *fileVisit) buildFunction(decl, ret *ast.Node) types.Function {
	fn := types.Function{Return: types.Unknown{}}

	params := v.tree.ChildByField(decl, "parameters")
	if params == nil {
		params = v.tree.ChildByKind(decl, kindFormalParameters)
	}
	if params != nil {
		for _, p := range v.tree.NamedChildren(params) {
			if v.stopped() {
				return fn
			}
			if param, ok := v.resolveParam(p); ok {
				fn.Params = append(fn.Params, param)
			}
		}
	}

	if ret == nil {
		v.unsupported(decl, "missing return type annotation")
	} else {
		fn.Return = v.resolveAnnotation(ret)
	}
	return fn
}

func (v *fileVisit) resolveParam(p *ast.Node) (types.Param, bool) {
	if p.Kind != kindRequiredParam && p.Kind != kindOptionalParam {
		v.unsupported(p, fmt.Sprintf("parameter form %s", p.Kind))
		return types.Param{}, false
	}
	pattern := v.tree.ChildByField(p, "pattern")
	if pattern == nil {
		v.unsupported(p, "parameter without a name")
		return types.Param{}, false
	}
	nameNode := pattern
	if pattern.Kind == kindRestPattern {
		if id := v.tree.ChildByKind(pattern, kindIdentifier); id != nil {
			nameNode = id
		}
	}
	if pattern.Kind != kindIdentifier && pattern.Kind != kindThis {
		v.unsupported(pattern, fmt.Sprintf("parameter pattern %s", pattern.Kind))
	}

	param := types.Param{Name: v.tree.Text(nameNode), Type: types.Unknown{}}
	ann := v.tree.ChildByField(p, "type")
	if ann == nil {
		v.unsupported(p, fmt.Sprintf("parameter %q has no type annotation", param.Name))
		return param, true
	}
	param.Type = v.resolveAnnotation(ann)
	return param, true
}
