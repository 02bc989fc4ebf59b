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

// Descriptor is the JSON-serializable form of a Type.
//
// Only the fields relevant to Kind are populated.
type Descriptor struct {
	Kind       string       `json:"kind"`
	Keyword    string       `json:"keyword,omitempty"`
	Raw        string       `json:"raw,omitempty"`
	Name       string       `json:"name,omitempty"`
	Properties []MemberDesc `json:"properties,omitempty"`
	Aliased    *Descriptor  `json:"aliased,omitempty"`
	Params     []MemberDesc `json:"params,omitempty"`
	Return     *Descriptor  `json:"return,omitempty"`
	Display    string       `json:"display"`
}

// MemberDesc is a named property or parameter inside a Descriptor.
type MemberDesc struct {
	Name string      `json:"name"`
	Type *Descriptor `json:"type"`
}

// Describe converts t into its Descriptor. A nil t describes as unknown.
func Describe(t Type) *Descriptor {
	if t == nil {
		t = Unknown{}
	}
	d := &Descriptor{Kind: t.Kind().String(), Display: t.String()}

	switch x := t.(type) {
	case Keyword:
		d.Keyword = x.Tag.String()
	case Literal:
		d.Raw = x.Raw
	case Reference:
		d.Name = x.Name
	case Alias:
		d.Name = x.Name
		d.Aliased = Describe(x.Aliased)
	case Interface:
		d.Name = x.Name
		d.Properties = make([]MemberDesc, 0, len(x.Properties))
		for _, p := range x.Properties {
			d.Properties = append(d.Properties, MemberDesc{Name: p.Name, Type: Describe(p.Type)})
		}
	case Function:
		d.Params = make([]MemberDesc, 0, len(x.Params))
		for _, p := range x.Params {
			d.Params = append(d.Params, MemberDesc{Name: p.Name, Type: Describe(p.Type)})
		}
		d.Return = Describe(x.Return)
	}
	return d
}
