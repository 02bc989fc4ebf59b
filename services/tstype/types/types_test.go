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

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func point() Interface {
	return Interface{
		Name: "Point",
		Properties: []Property{
			{Name: "x", Type: NewKeyword(KeywordNumber)},
			{Name: "y", Type: NewKeyword(KeywordNumber)},
		},
	}
}

func TestKeywordFromText_TotalAndInjective(t *testing.T) {
	spellings := []string{
		"any", "number", "boolean", "unknown", "void", "undefined",
		"null", "never", "bigint", "string", "symbol", "object",
	}

	seen := make(map[KeywordTag]string)
	for _, s := range spellings {
		tag, ok := KeywordFromText(s)
		require.True(t, ok, "keyword %q not mapped", s)
		require.True(t, tag.Valid())
		if prev, dup := seen[tag]; dup {
			t.Fatalf("keywords %q and %q share tag %v", prev, s, tag)
		}
		seen[tag] = s
		assert.Equal(t, s, tag.String())
	}

	assert.Len(t, seen, len(AllKeywords()))
}

func TestKeywordFromText_RejectsNonKeywords(t *testing.T) {
	for _, s := range []string{"", "Number", "int", "Point", "true"} {
		_, ok := KeywordFromText(s)
		assert.False(t, ok, "unexpected keyword mapping for %q", s)
	}
	assert.Equal(t, "invalid", KeywordTag(0).String())
}

func TestEqual_PropertyOrderMatters(t *testing.T) {
	a := point()
	b := Interface{
		Name: "Point",
		Properties: []Property{
			{Name: "y", Type: NewKeyword(KeywordNumber)},
			{Name: "x", Type: NewKeyword(KeywordNumber)},
		},
	}

	assert.True(t, Equal(a, point()))
	assert.False(t, Equal(a, b))
}

func TestEqual_Variants(t *testing.T) {
	tests := []struct {
		name string
		a, b Type
		want bool
	}{
		{"same keyword", NewKeyword(KeywordString), NewKeyword(KeywordString), true},
		{"different keyword", NewKeyword(KeywordString), NewKeyword(KeywordNumber), false},
		{"literal raw text", NewLiteral("0x1A"), NewLiteral("26"), false},
		{"reference", NewReference("Point"), NewReference("Point"), true},
		{"reference vs interface", NewReference("Point"), point(), false},
		{"unknown", Unknown{}, Unknown{}, true},
		{"nil pair", nil, nil, true},
		{"nil vs value", nil, Unknown{}, false},
		{"alias", Alias{Name: "Id", Aliased: NewKeyword(KeywordString)}, Alias{Name: "Id", Aliased: NewKeyword(KeywordString)}, true},
		{"alias target", Alias{Name: "Id", Aliased: NewKeyword(KeywordString)}, Alias{Name: "Id", Aliased: NewKeyword(KeywordNumber)}, false},
		{
			"function",
			Function{Params: []Param{{Name: "x", Type: NewKeyword(KeywordNumber)}}, Return: NewKeyword(KeywordVoid)},
			Function{Params: []Param{{Name: "x", Type: NewKeyword(KeywordNumber)}}, Return: NewKeyword(KeywordVoid)},
			true,
		},
		{
			"function param name",
			Function{Params: []Param{{Name: "x", Type: NewKeyword(KeywordNumber)}}, Return: NewKeyword(KeywordVoid)},
			Function{Params: []Param{{Name: "y", Type: NewKeyword(KeywordNumber)}}, Return: NewKeyword(KeywordVoid)},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestClone_DoesNotShareSlices(t *testing.T) {
	orig := point()
	cp := Clone(orig).(Interface)

	cp.Properties[0].Name = "z"
	assert.Equal(t, "x", orig.Properties[0].Name)

	fn := Function{Params: []Param{{Name: "p", Type: orig}}, Return: NewKeyword(KeywordVoid)}
	fnCopy := Clone(fn)
	assert.True(t, Equal(fn, fnCopy))
	fnCopy.(Function).Params[0].Type.(Interface).Properties[1].Name = "w"
	assert.Equal(t, "y", orig.Properties[1].Name)
}

func TestString_Rendering(t *testing.T) {
	assert.Equal(t, "interface Point { x: number; y: number }", point().String())
	assert.Equal(t, "{}", Interface{}.String())
	assert.Equal(t, "type Id = string", Alias{Name: "Id", Aliased: NewKeyword(KeywordString)}.String())
	assert.Equal(t, "(a: number, b: number) => number", Function{
		Params: []Param{
			{Name: "a", Type: NewKeyword(KeywordNumber)},
			{Name: "b", Type: NewKeyword(KeywordNumber)},
		},
		Return: NewKeyword(KeywordNumber),
	}.String())
	assert.Equal(t, "<unknown>", Unknown{}.String())
}

func TestDescribe_JSON(t *testing.T) {
	d := Describe(Alias{Name: "P", Aliased: point()})

	data, err := json.Marshal(d)
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "alias", back["kind"])
	assert.Equal(t, "P", back["name"])

	aliased := back["aliased"].(map[string]any)
	assert.Equal(t, "interface", aliased["kind"])
	props := aliased["properties"].([]any)
	require.Len(t, props, 2)
	assert.Equal(t, "x", props[0].(map[string]any)["name"])

	assert.Equal(t, "unknown", Describe(nil).Kind)
}
