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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Dialect selects the TypeScript grammar.
type Dialect string

const (
	// DialectAuto picks TSX for .tsx files and TypeScript otherwise.
	DialectAuto Dialect = "auto"

	// DialectTypeScript always uses the TypeScript grammar.
	DialectTypeScript Dialect = "typescript"

	// DialectTSX always uses the TSX grammar.
	DialectTSX Dialect = "tsx"
)

// TypeScriptParserOption configures a TypeScriptParser instance.
type TypeScriptParserOption func(*TypeScriptParser)

// WithTypeScriptMaxFileSize sets the maximum file size the parser will accept.
//
// Parameters:
//   - bytes: Maximum file size in bytes. Non-positive values are ignored.
//
// Example:
//
//	parser := NewTypeScriptParser(WithTypeScriptMaxFileSize(5 * 1024 * 1024)) // 5MB limit
func WithTypeScriptMaxFileSize(bytes int64) TypeScriptParserOption {
	return func(p *TypeScriptParser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// WithDialect fixes the grammar instead of choosing it by file extension.
func WithDialect(d Dialect) TypeScriptParserOption {
	return func(p *TypeScriptParser) {
		if d != "" {
			p.dialect = d
		}
	}
}

// TypeScriptParser parses TypeScript source into a Tree.
//
// Description:
//
//	TypeScriptParser uses tree-sitter to parse source and copies the result
//	into an arena Tree with stable NodeIDs. The tree-sitter tree is closed
//	before Parse returns.
//
// Thread Safety:
//
//	TypeScriptParser instances are safe for concurrent use. Each Parse call
//	creates its own tree-sitter parser internally.
//
// Example:
//
//	parser := NewTypeScriptParser()
//	tree, err := parser.Parse(ctx, []byte("let x: number;"), "main.ts")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(tree.Root().Kind) // program
type TypeScriptParser struct {
	maxFileSize int64
	dialect     Dialect
}

// NewTypeScriptParser creates a new TypeScriptParser with the given options.
//
// Inputs:
//   - opts: Optional configuration functions (WithTypeScriptMaxFileSize, WithDialect)
//
// Outputs:
//   - *TypeScriptParser: Configured parser instance, never nil
func NewTypeScriptParser(opts ...TypeScriptParserOption) *TypeScriptParser {
	p := &TypeScriptParser{
		maxFileSize: DefaultMaxFileSize,
		dialect:     DialectAuto,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Parse builds a Tree from TypeScript source.
//
// Description:
//
//	The parser is error-tolerant: syntactically invalid input still yields
//	the best-effort tree, with the problems listed in Tree.Errors.
//
// Inputs:
//   - ctx: Context for cancellation. Checked before and after parsing.
//     Tree-sitter parsing itself cannot be interrupted mid-parse.
//   - content: Raw source bytes. Must be valid UTF-8.
//   - filePath: Path used for grammar selection and locations.
//
// Outputs:
//   - *Tree: The parsed tree. Never nil on success.
//   - error: Non-nil for complete failures:
//   - ErrFileTooLarge: Content exceeds maxFileSize
//   - ErrInvalidContent: Content is not valid UTF-8
//   - Context errors: Context was canceled or timed out
//
// Thread Safety:
//
//	This method is safe for concurrent use.
func (p *TypeScriptParser) Parse(ctx context.Context, content []byte, filePath string) (*Tree, error) {
	language := p.languageFor(filePath)

	ctx, span := startParseSpan(ctx, language, filePath, len(content))
	defer span.End()

	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, language, time.Since(start), 0, false)
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	if int64(len(content)) > p.maxFileSize {
		recordParseMetrics(ctx, language, time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}

	if len(content) > WarnFileSize {
		slog.Warn("parsing large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		recordParseMetrics(ctx, language, time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	hash := sha256.Sum256(content)

	parser := sitter.NewParser()
	if language == string(DialectTSX) {
		parser.SetLanguage(tsx.GetLanguage())
	} else {
		parser.SetLanguage(typescript.GetLanguage())
	}

	sitterTree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics(ctx, language, time.Since(start), 0, false)
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer sitterTree.Close()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, language, time.Since(start), 0, false)
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	// The tree keeps its own copy so callers may reuse content.
	source := make([]byte, len(content))
	copy(source, content)

	tree := &Tree{
		FilePath:      filePath,
		Language:      language,
		Hash:          hex.EncodeToString(hash[:]),
		ParsedAtMilli: time.Now().UnixMilli(),
		Source:        source,
		Errors:        make([]string, 0),
	}

	rootNode := sitterTree.RootNode()
	if rootNode == nil {
		tree.Errors = append(tree.Errors, "tree-sitter returned nil root node")
		recordParseMetrics(ctx, language, time.Since(start), 0, true)
		return tree, nil
	}

	tree.Nodes = buildNodes(rootNode)

	if rootNode.HasError() {
		tree.Errors = append(tree.Errors, collectSyntaxErrors(tree)...)
	}

	setParseSpanResult(span, len(tree.Nodes), len(tree.Errors))
	recordParseMetrics(ctx, language, time.Since(start), len(tree.Nodes), true)

	return tree, nil
}

// Language returns the canonical language name for this parser.
func (p *TypeScriptParser) Language() string {
	return "typescript"
}

// Extensions returns the file extensions this parser handles.
func (p *TypeScriptParser) Extensions() []string {
	return []string{".ts", ".tsx", ".mts", ".cts"}
}

// languageFor resolves the grammar name for filePath.
func (p *TypeScriptParser) languageFor(filePath string) string {
	switch p.dialect {
	case DialectTSX:
		return string(DialectTSX)
	case DialectTypeScript:
		return string(DialectTypeScript)
	}
	if strings.HasSuffix(filePath, ".tsx") {
		return string(DialectTSX)
	}
	return string(DialectTypeScript)
}

// buildNodes copies the tree-sitter tree into a pre-order arena.
func buildNodes(root *sitter.Node) []Node {
	type frame struct {
		node   *sitter.Node
		parent NodeID
		field  string
	}

	nodes := make([]Node, 0, 256)
	stack := []frame{{node: root, parent: InvalidNode}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		id := NodeID(len(nodes))
		n := f.node
		nodes = append(nodes, Node{
			ID:        id,
			Kind:      n.Type(),
			Field:     f.field,
			Named:     n.IsNamed(),
			Missing:   n.IsMissing(),
			Parent:    f.parent,
			StartByte: n.StartByte(),
			EndByte:   n.EndByte(),
			StartPoint: Point{
				Row:    n.StartPoint().Row,
				Column: n.StartPoint().Column,
			},
			EndPoint: Point{
				Row:    n.EndPoint().Row,
				Column: n.EndPoint().Column,
			},
		})
		if f.parent != InvalidNode {
			nodes[f.parent].Children = append(nodes[f.parent].Children, id)
		}

		// Push in reverse so the first child is popped next.
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			child := n.Child(i)
			if child == nil {
				continue
			}
			stack = append(stack, frame{
				node:   child,
				parent: id,
				field:  n.FieldNameForChild(i),
			})
		}
	}

	return nodes
}

// collectSyntaxErrors describes every ERROR and missing node in tree.
func collectSyntaxErrors(tree *Tree) []string {
	var errs []string
	Walk(tree, func(n *Node) bool {
		switch {
		case n.Kind == KindError:
			errs = append(errs, fmt.Sprintf("syntax error at %s", tree.Location(n)))
			return false
		case n.Missing:
			errs = append(errs, fmt.Sprintf("missing %q at %s", n.Kind, tree.Location(n)))
		}
		return true
	})
	if len(errs) == 0 {
		errs = append(errs, "source contains syntax errors")
	}
	return errs
}
