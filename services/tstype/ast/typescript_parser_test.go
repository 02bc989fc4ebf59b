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

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

const declarationsSource = `interface Point {
    x: number;
    y: number;
}

let p: Point;
const b = 42;
type Id = string;

function add(x: number, y: number): number {
    return x + y;
}
`

func mustParse(t *testing.T, source, path string) *Tree {
	t.Helper()
	tree, err := NewTypeScriptParser().Parse(context.Background(), []byte(source), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tree
}

func TestTypeScriptParser_Parse_EmptyFile(t *testing.T) {
	tree := mustParse(t, "", "empty.ts")

	if tree.Language != "typescript" {
		t.Errorf("expected language 'typescript', got %q", tree.Language)
	}
	if tree.FilePath != "empty.ts" {
		t.Errorf("expected file path 'empty.ts', got %q", tree.FilePath)
	}
	root := tree.Root()
	if root == nil || root.Kind != KindProgram {
		t.Fatalf("expected program root, got %+v", root)
	}
	if root.ID != 0 {
		t.Errorf("expected root id 0, got %d", root.ID)
	}
}

func TestTypeScriptParser_Parse_TopLevelKinds(t *testing.T) {
	tree := mustParse(t, declarationsSource, "decl.ts")

	var kinds []string
	for _, n := range tree.NamedChildren(tree.Root()) {
		kinds = append(kinds, n.Kind)
	}

	want := []string{
		"interface_declaration",
		"lexical_declaration",
		"lexical_declaration",
		"type_alias_declaration",
		"function_declaration",
	}
	if strings.Join(kinds, ",") != strings.Join(want, ",") {
		t.Errorf("top-level kinds = %v, want %v", kinds, want)
	}
}

func TestTypeScriptParser_Parse_FieldsAndText(t *testing.T) {
	tree := mustParse(t, declarationsSource, "decl.ts")

	iface := tree.Find("interface_declaration", "")
	if iface == nil {
		t.Fatal("expected interface_declaration")
	}
	name := tree.ChildByField(iface, "name")
	if name == nil || tree.Text(name) != "Point" {
		t.Fatalf("expected interface name Point, got %v", name)
	}

	fn := tree.Find("function_declaration", "")
	if fn == nil {
		t.Fatal("expected function_declaration")
	}
	if params := tree.ChildByField(fn, "parameters"); params == nil || params.Kind != "formal_parameters" {
		t.Errorf("expected formal_parameters field, got %v", params)
	}
	if ret := tree.ChildByField(fn, "return_type"); ret == nil || tree.Text(ret) != ": number" {
		t.Errorf("expected return type annotation ': number', got %q", tree.Text(ret))
	}

	decl := tree.Find("variable_declarator", "b = 42")
	if decl == nil {
		t.Fatal("expected declarator 'b = 42'")
	}
	if v := tree.ChildByField(decl, "value"); v == nil || v.Kind != "number" || tree.Text(v) != "42" {
		t.Errorf("expected numeric value 42, got %v", v)
	}
}

func TestTypeScriptParser_Parse_StableIDs(t *testing.T) {
	a := mustParse(t, declarationsSource, "decl.ts")
	b := mustParse(t, declarationsSource, "decl.ts")

	if a.Len() != b.Len() {
		t.Fatalf("node counts differ: %d vs %d", a.Len(), b.Len())
	}
	for i := range a.Nodes {
		if a.Nodes[i].Kind != b.Nodes[i].Kind || a.Nodes[i].StartByte != b.Nodes[i].StartByte {
			t.Fatalf("node %d differs between parses", i)
		}
	}
	if a.Hash != b.Hash {
		t.Error("expected identical content hash")
	}
}

func TestTypeScriptParser_Parse_PreOrderParents(t *testing.T) {
	tree := mustParse(t, declarationsSource, "decl.ts")

	for _, n := range tree.Nodes[1:] {
		if n.Parent >= n.ID {
			t.Fatalf("node %d has parent %d, expected a smaller id", n.ID, n.Parent)
		}
		parent := tree.Node(n.Parent)
		found := false
		for _, c := range parent.Children {
			if c == n.ID {
				found = true
			}
		}
		if !found {
			t.Fatalf("node %d missing from parent %d children", n.ID, n.Parent)
		}
	}
}

func TestTypeScriptParser_Parse_SyntaxErrorsAreReported(t *testing.T) {
	tree := mustParse(t, "let x: = ;\ninterface {", "broken.ts")

	if len(tree.Errors) == 0 {
		t.Fatal("expected syntax errors to be reported")
	}
	if tree.Root() == nil {
		t.Fatal("expected a best-effort tree")
	}
}

func TestTypeScriptParser_Parse_FileTooLarge(t *testing.T) {
	parser := NewTypeScriptParser(WithTypeScriptMaxFileSize(8))
	_, err := parser.Parse(context.Background(), []byte("let abcdef = 1;"), "big.ts")
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestTypeScriptParser_Parse_InvalidUTF8(t *testing.T) {
	_, err := NewTypeScriptParser().Parse(context.Background(), []byte{0xff, 0xfe, 0xfd}, "bad.ts")
	if !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent, got %v", err)
	}
}

func TestTypeScriptParser_Parse_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTypeScriptParser().Parse(ctx, []byte("let x = 1;"), "x.ts")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTypeScriptParser_DialectSelection(t *testing.T) {
	tests := []struct {
		dialect Dialect
		path    string
		want    string
	}{
		{DialectAuto, "a.ts", "typescript"},
		{DialectAuto, "a.tsx", "tsx"},
		{DialectTypeScript, "a.tsx", "typescript"},
		{DialectTSX, "a.ts", "tsx"},
	}

	for _, tt := range tests {
		t.Run(string(tt.dialect)+"_"+tt.path, func(t *testing.T) {
			tree, err := NewTypeScriptParser(WithDialect(tt.dialect)).Parse(context.Background(), []byte("let x = 1;"), tt.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tree.Language != tt.want {
				t.Errorf("language = %q, want %q", tree.Language, tt.want)
			}
		})
	}
}

func TestTypeScriptParser_Parse_Concurrent(t *testing.T) {
	parser := NewTypeScriptParser()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tree, err := parser.Parse(context.Background(), []byte(declarationsSource), "decl.ts")
			if err != nil {
				errs <- err
				return
			}
			if tree.Find("interface_declaration", "") == nil {
				errs <- errors.New("missing interface declaration")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
