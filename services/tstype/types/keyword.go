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

// KeywordTag identifies one of the primitive keyword types.
type KeywordTag int

const (
	KeywordAny KeywordTag = iota + 1
	KeywordBigInt
	KeywordBoolean
	KeywordNever
	KeywordNull
	KeywordNumber
	KeywordObject
	KeywordString
	KeywordSymbol
	KeywordUndefined
	KeywordUnknown
	KeywordVoid
)

// keywordNames is the source spelling of every keyword tag. Each tag has
// exactly one spelling and each spelling exactly one tag.
var keywordNames = map[KeywordTag]string{
	KeywordAny:       "any",
	KeywordBigInt:    "bigint",
	KeywordBoolean:   "boolean",
	KeywordNever:     "never",
	KeywordNull:      "null",
	KeywordNumber:    "number",
	KeywordObject:    "object",
	KeywordString:    "string",
	KeywordSymbol:    "symbol",
	KeywordUndefined: "undefined",
	KeywordUnknown:   "unknown",
	KeywordVoid:      "void",
}

var keywordsByName = func() map[string]KeywordTag {
	m := make(map[string]KeywordTag, len(keywordNames))
	for tag, name := range keywordNames {
		m[name] = tag
	}
	return m
}()

// String returns the TypeScript spelling of the keyword.
func (k KeywordTag) String() string {
	if name, ok := keywordNames[k]; ok {
		return name
	}
	return "invalid"
}

// Valid reports whether k is one of the defined tags.
func (k KeywordTag) Valid() bool {
	_, ok := keywordNames[k]
	return ok
}

// KeywordFromText maps the source spelling of a keyword type to its tag.
//
// Description:
//
//	The mapping is total over the keyword-type grammar (any, number,
//	boolean, unknown, void, undefined, null, never, bigint, string, symbol,
//	object) and injective: distinct spellings never share a tag.
//
// Outputs:
//
//	KeywordTag - The tag, zero when ok is false.
//	bool - False if text is not a keyword type.
func KeywordFromText(text string) (KeywordTag, bool) {
	tag, ok := keywordsByName[text]
	return tag, ok
}

// AllKeywords returns every keyword tag in declaration order.
func AllKeywords() []KeywordTag {
	tags := make([]KeywordTag, 0, len(keywordNames))
	for k := KeywordAny; k <= KeywordVoid; k++ {
		tags = append(tags, k)
	}
	return tags
}
