// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package types defines the canonical representation of resolved
// TypeScript types.
//
// The set of variants is closed: only the types declared in this package
// implement Type. Consumers switch on the concrete type.
package types

import (
	"strings"
)

// Kind discriminates the Type variants.
type Kind int

const (
	KindKeyword Kind = iota + 1
	KindLiteral
	KindInterface
	KindAlias
	KindFunction
	KindReference
	KindUnknown
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindKeyword:
		return "keyword"
	case KindLiteral:
		return "literal"
	case KindInterface:
		return "interface"
	case KindAlias:
		return "alias"
	case KindFunction:
		return "function"
	case KindReference:
		return "reference"
	case KindUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Type is a resolved type value.
//
// Thread Safety:
//
//	Type values are treated as immutable once recorded. Use Clone before
//	mutating a value obtained from a cache or symbol table.
type Type interface {
	// Kind returns the variant discriminator.
	Kind() Kind

	// String renders the type in TypeScript-like syntax.
	String() string

	isType()
}

// Keyword is a primitive keyword type such as number or string.
type Keyword struct {
	Tag KeywordTag
}

// Literal is a literal type. Raw holds the exact source text, so 0x1A and
// 26 stay distinct. Callers needing a parsed value must reparse Raw.
type Literal struct {
	Raw string
}

// Property is one named member of an Interface.
type Property struct {
	Name string
	Type Type
}

// Interface is a structural object type. Property order is declaration
// order and is significant for equality.
type Interface struct {
	// Name is empty for inline object types.
	Name       string
	Properties []Property
}

// Alias is a named binding to a fully expanded type.
type Alias struct {
	Name    string
	Aliased Type
}

// Param is one parameter of a Function.
type Param struct {
	Name string
	Type Type
}

// Function is a function signature.
type Function struct {
	Params []Param
	Return Type
}

// Reference is a named type whose definition was not resolvable when the
// annotation was processed. It is a valid terminal value, not an error.
type Reference struct {
	Name string
}

// Unknown marks the absence of any determinable type.
type Unknown struct{}

func (Keyword) Kind() Kind   { return KindKeyword }
func (Literal) Kind() Kind   { return KindLiteral }
func (Interface) Kind() Kind { return KindInterface }
func (Alias) Kind() Kind     { return KindAlias }
func (Function) Kind() Kind  { return KindFunction }
func (Reference) Kind() Kind { return KindReference }
func (Unknown) Kind() Kind   { return KindUnknown }

func (Keyword) isType()   {}
func (Literal) isType()   {}
func (Interface) isType() {}
func (Alias) isType()     {}
func (Function) isType()  {}
func (Reference) isType() {}
func (Unknown) isType()   {}

func (t Keyword) String() string   { return t.Tag.String() }
func (t Literal) String() string   { return t.Raw }
func (t Reference) String() string { return t.Name }
func (Unknown) String() string     { return "<unknown>" }

func (t Interface) String() string {
	var b strings.Builder
	if t.Name != "" {
		b.WriteString("interface ")
		b.WriteString(t.Name)
		b.WriteString(" ")
	}
	b.WriteString("{")
	for i, p := range t.Properties {
		if i > 0 {
			b.WriteString(";")
		}
		b.WriteString(" ")
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(render(p.Type))
	}
	if len(t.Properties) > 0 {
		b.WriteString(" ")
	}
	b.WriteString("}")
	return b.String()
}

func (t Alias) String() string {
	return "type " + t.Name + " = " + render(t.Aliased)
}

func (t Function) String() string {
	var b strings.Builder
	b.WriteString("(")
	for i, p := range t.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(render(p.Type))
	}
	b.WriteString(") => ")
	b.WriteString(render(t.Return))
	return b.String()
}

// render tolerates nil members, which only appear in hand-built values.
func render(t Type) string {
	if t == nil {
		return Unknown{}.String()
	}
	return t.String()
}

// NewKeyword returns the keyword type for tag.
func NewKeyword(tag KeywordTag) Keyword {
	return Keyword{Tag: tag}
}

// NewLiteral returns a literal type holding raw source text.
func NewLiteral(raw string) Literal {
	return Literal{Raw: raw}
}

// NewReference returns an unresolved reference to name.
func NewReference(name string) Reference {
	return Reference{Name: name}
}
