// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package types

// Equal reports whether a and b are structurally equal.
//
// Description:
//
//	Interface properties and function parameters are compared in order;
//	the same members in a different order are not equal. Two nil values are
//	equal; a nil value never equals a non-nil one.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch x := a.(type) {
	case Keyword:
		return x.Tag == b.(Keyword).Tag
	case Literal:
		return x.Raw == b.(Literal).Raw
	case Reference:
		return x.Name == b.(Reference).Name
	case Unknown:
		return true
	case Alias:
		y := b.(Alias)
		return x.Name == y.Name && Equal(x.Aliased, y.Aliased)
	case Interface:
		y := b.(Interface)
		if x.Name != y.Name || len(x.Properties) != len(y.Properties) {
			return false
		}
		for i := range x.Properties {
			if x.Properties[i].Name != y.Properties[i].Name ||
				!Equal(x.Properties[i].Type, y.Properties[i].Type) {
				return false
			}
		}
		return true
	case Function:
		y := b.(Function)
		if len(x.Params) != len(y.Params) || !Equal(x.Return, y.Return) {
			return false
		}
		for i := range x.Params {
			if x.Params[i].Name != y.Params[i].Name ||
				!Equal(x.Params[i].Type, y.Params[i].Type) {
				return false
			}
		}
		return true
	}
	return false
}

// Clone returns a deep copy of t. Slices are never shared between the
// original and the copy.
func Clone(t Type) Type {
	switch x := t.(type) {
	case nil:
		return nil
	case Interface:
		props := make([]Property, len(x.Properties))
		for i, p := range x.Properties {
			props[i] = Property{Name: p.Name, Type: Clone(p.Type)}
		}
		return Interface{Name: x.Name, Properties: props}
	case Alias:
		return Alias{Name: x.Name, Aliased: Clone(x.Aliased)}
	case Function:
		params := make([]Param, len(x.Params))
		for i, p := range x.Params {
			params[i] = Param{Name: p.Name, Type: Clone(p.Type)}
		}
		return Function{Params: params, Return: Clone(x.Return)}
	default:
		// Keyword, Literal, Reference and Unknown hold no shared state.
		return t
	}
}
