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
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Grammar selects the tree-sitter grammar used for a file.
type Grammar string

const (
	// GrammarTSX parses every file as TSX: JavaScript plus JSX, type
	// annotations, decorators and class fields.
	GrammarTSX Grammar = "tsx"

	// GrammarTypeScript parses every file as plain TypeScript (no JSX).
	GrammarTypeScript Grammar = "typescript"

	// GrammarJavaScript parses every file as JavaScript with JSX.
	GrammarJavaScript Grammar = "javascript"

	// GrammarAuto picks a grammar from the file extension.
	GrammarAuto Grammar = "auto"
)

const (
	// DefaultWarnFileSize is the size above which a warning is logged.
	DefaultWarnFileSize = 1024 * 1024

	// nearSnippetLen bounds SyntaxError.Near.
	nearSnippetLen = 32
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithGrammar sets the grammar. Unknown values fall back to GrammarTSX.
func WithGrammar(g Grammar) ParserOption {
	return func(p *Parser) {
		switch g {
		case GrammarTSX, GrammarTypeScript, GrammarJavaScript, GrammarAuto:
			p.grammar = g
		default:
			p.grammar = GrammarTSX
		}
	}
}

// WithMaxFileSize rejects files larger than bytes. Zero or negative disables the limit.
func WithMaxFileSize(bytes int64) ParserOption {
	return func(p *Parser) {
		p.maxFileSize = bytes
	}
}

// WithWarnFileSize logs a warning for files larger than bytes. Zero or negative disables it.
func WithWarnFileSize(bytes int64) ParserOption {
	return func(p *Parser) {
		p.warnFileSize = bytes
	}
}

// Parser turns JavaScript and TypeScript source into tree-sitter trees.
//
// Description:
//
//	Parser holds configuration only. Every Parse call creates its own
//	sitter.Parser, so a single Parser can serve many goroutines.
//
//	Unlike the tree-sitter default, a tree that contains ERROR or MISSING
//	nodes is rejected with a *SyntaxError instead of being returned as a
//	partial result.
//
// Thread Safety: Safe for concurrent use.
type Parser struct {
	grammar      Grammar
	maxFileSize  int64
	warnFileSize int64
}

// NewParser creates a Parser that uses GrammarTSX unless configured otherwise.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		grammar:      GrammarTSX,
		warnFileSize: DefaultWarnFileSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GrammarFor returns the concrete grammar used for filePath.
func (p *Parser) GrammarFor(filePath string) Grammar {
	if p.grammar != GrammarAuto {
		return p.grammar
	}
	switch {
	case strings.HasSuffix(filePath, ".tsx"):
		return GrammarTSX
	case strings.HasSuffix(filePath, ".ts"):
		return GrammarTypeScript
	default:
		return GrammarJavaScript
	}
}

func languageFor(g Grammar) *sitter.Language {
	switch g {
	case GrammarTypeScript:
		return typescript.GetLanguage()
	case GrammarJavaScript:
		return javascript.GetLanguage()
	default:
		return tsx.GetLanguage()
	}
}

// ParsedFile is a syntax tree together with the exact bytes it was built from.
// Callers must Close it.
type ParsedFile struct {
	Path    string
	Grammar Grammar
	Content []byte
	Tree    *sitter.Tree
}

// Root returns the root node of the tree.
func (f *ParsedFile) Root() *sitter.Node {
	return f.Tree.RootNode()
}

// Text returns the source text covered by node.
func (f *ParsedFile) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(f.Content[node.StartByte():node.EndByte()])
}

// Close releases the tree-sitter tree.
func (f *ParsedFile) Close() {
	if f.Tree != nil {
		f.Tree.Close()
	}
}

// Parse builds the syntax tree for one file.
//
// Inputs:
//   - ctx: Checked before and after parsing. Tree-sitter itself cannot be
//     interrupted mid-parse.
//   - content: Raw file bytes, expected to be UTF-8.
//   - filePath: Used for grammar selection and error messages only.
//
// Outputs:
//   - *ParsedFile: Never nil on success. The caller owns it and must Close it.
//   - error: ErrFileTooLarge, a *SyntaxError (wraps ErrSyntax), a context
//     error, or a tree-sitter failure.
func (p *Parser) Parse(ctx context.Context, content []byte, filePath string) (*ParsedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	if p.maxFileSize > 0 && int64(len(content)) > p.maxFileSize {
		return nil, fmt.Errorf("%s: %w: size %d exceeds limit %d", filePath, ErrFileTooLarge, len(content), p.maxFileSize)
	}

	if p.warnFileSize > 0 && int64(len(content)) > p.warnFileSize {
		slog.Warn("parsing large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	content = normalizeSource(content, filePath)
	grammar := p.GrammarFor(filePath)

	tree, err := parseTree(ctx, grammar, content, filePath)
	if err != nil {
		return nil, err
	}
	root := tree.RootNode()

	if root.HasError() {
		// The grammars have no rule for "export v from 'mod'". Blank those
		// statements and parse again; they declare nothing.
		if blanked, n := blankDefaultReexports(root, content); n > 0 {
			tree.Close()
			slog.Debug("blanked default re-exports",
				slog.String("file", filePath),
				slog.Int("statements", n))
			tree, err = parseTree(ctx, grammar, blanked, filePath)
			if err != nil {
				return nil, err
			}
			content = blanked
			root = tree.RootNode()
		}
	}

	if root.HasError() {
		synErr := newSyntaxError(root, content, filePath)
		tree.Close()
		return nil, synErr
	}

	return &ParsedFile{
		Path:    filePath,
		Grammar: grammar,
		Content: content,
		Tree:    tree,
	}, nil
}

// parseTree runs tree-sitter once. The returned tree has a non-nil root.
func parseTree(ctx context.Context, grammar Grammar, content []byte, filePath string) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(languageFor(grammar))

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("%s: tree-sitter parse failed: %w", filePath, err)
	}

	if err := ctx.Err(); err != nil {
		tree.Close()
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	if tree.RootNode() == nil {
		tree.Close()
		return nil, fmt.Errorf("%s: tree-sitter returned nil root node", filePath)
	}
	return tree, nil
}

// normalizeSource strips a UTF-8 byte order mark and replaces invalid UTF-8
// sequences with U+FFFD, the same text a UTF-8 decoder would produce.
func normalizeSource(content []byte, filePath string) []byte {
	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		slog.Warn("file is not valid UTF-8, replacing invalid sequences",
			slog.String("file", filePath))
		content = bytes.ToValidUTF8(content, []byte(string(utf8.RuneError)))
	}
	return content
}

// newSyntaxError locates the first ERROR or MISSING node in pre-order.
func newSyntaxError(root *sitter.Node, content []byte, filePath string) *SyntaxError {
	bad := firstErrorNode(root)
	if bad == nil {
		bad = root
	}

	start := int(bad.StartByte())
	end := start + nearSnippetLen
	if end > len(content) {
		end = len(content)
	}
	near := ""
	if start < end {
		near = string(content[start:end])
		if i := strings.IndexByte(near, '\n'); i >= 0 {
			near = near[:i]
		}
		near = strings.TrimSpace(strings.ToValidUTF8(near, ""))
	}

	return &SyntaxError{
		Path:   filePath,
		Line:   int(bad.StartPoint().Row) + 1,
		Column: int(bad.StartPoint().Column) + 1,
		Near:   near,
	}
}

// firstErrorNode descends only into subtrees that report errors.
func firstErrorNode(root *sitter.Node) *sitter.Node {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node.Type() == nodeError || node.IsMissing() {
			return node
		}
		if !node.HasError() {
			continue
		}
		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			if child := node.Child(i); child != nil {
				stack = append(stack, child)
			}
		}
	}
	return nil
}
