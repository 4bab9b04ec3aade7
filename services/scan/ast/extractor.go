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
	"os"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
)

// Analyzer produces a FileReport per source file.
//
// Description:
//
//	Analyzer parses a file with its Parser and walks the tree once, recording
//	named function declarations, function and arrow expressions bound directly
//	to a single identifier, and class declarations with their method-like
//	members. Constructs without a static name are skipped silently.
//
// Thread Safety: Safe for concurrent use.
//
// Example:
//
//	analyzer := NewAnalyzer(NewParser())
//	report, err := analyzer.AnalyzeFile(ctx, "src/app.ts")
//	if err != nil {
//	    return fmt.Errorf("analyze: %w", err)
//	}
//	for _, fn := range report.Functions {
//	    fmt.Printf("%s %s\n", fn.Kind, fn.Name)
//	}
type Analyzer struct {
	parser *Parser
}

// NewAnalyzer creates an Analyzer. A nil parser means NewParser().
func NewAnalyzer(parser *Parser) *Analyzer {
	if parser == nil {
		parser = NewParser()
	}
	return &Analyzer{parser: parser}
}

// AnalyzeFile reads filePath and analyzes it.
//
// Read failures are returned wrapped, never swallowed.
func (a *Analyzer) AnalyzeFile(ctx context.Context, filePath string) (*FileReport, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filePath, err)
	}
	return a.Analyze(ctx, content, filePath)
}

// Analyze extracts declarations from content. filePath is copied verbatim
// into the report.
func (a *Analyzer) Analyze(ctx context.Context, content []byte, filePath string) (report *FileReport, err error) {
	grammar := a.parser.GrammarFor(filePath)
	ctx, span := startAnalyzeSpan(ctx, grammar, filePath, len(content))
	defer span.End()

	start := time.Now()
	defer func() {
		finishAnalyzeSpan(span, grammar, time.Since(start), report, err)
	}()

	parsed, err := a.parser.Parse(ctx, content, filePath)
	if err != nil {
		return nil, err
	}
	defer parsed.Close()

	return extract(parsed), nil
}

// extract applies the declaration rules to a parsed file.
func extract(f *ParsedFile) *FileReport {
	report := newFileReport(f.Path)

	onFunctionDeclaration := func(node, _ *sitter.Node) {
		name := node.ChildByFieldName(fieldName)
		if name == nil || name.Type() != nodeIdentifier {
			return
		}
		report.Functions = append(report.Functions, FunctionRecord{
			Name:    f.Text(name),
			Kind:    FunctionKindFunction,
			IsAsync: hasToken(node, tokenAsync),
		})
	}

	boundFunction := func(kind FunctionKind) HandlerFunc {
		return func(node, parent *sitter.Node) {
			// Older grammars name both the expression and the keyword "function".
			if !node.IsNamed() {
				return
			}
			name, ok := declaratorName(node, parent, f)
			if !ok {
				return
			}
			report.Functions = append(report.Functions, FunctionRecord{
				Name:    name,
				Kind:    kind,
				IsAsync: hasToken(node, tokenAsync),
			})
		}
	}

	onClassDeclaration := func(node, _ *sitter.Node) {
		name := node.ChildByFieldName(fieldName)
		if name == nil || (name.Type() != nodeTypeIdentifier && name.Type() != nodeIdentifier) {
			return
		}
		report.Classes = append(report.Classes, ClassRecord{
			Name:    f.Text(name),
			Methods: extractMethods(node.ChildByFieldName(fieldBody), f),
		})
	}

	Walk(f.Root(), Handlers{
		nodeFunctionDeclaration:          onFunctionDeclaration,
		nodeGeneratorFunctionDeclaration: onFunctionDeclaration,
		nodeFunctionExpression:           boundFunction(FunctionKindFunction),
		nodeFunctionExpressionOld:        boundFunction(FunctionKindFunction),
		nodeGeneratorFunction:            boundFunction(FunctionKindFunction),
		nodeArrowFunction:                boundFunction(FunctionKindArrow),
		nodeClassDeclaration:             onClassDeclaration,
		nodeAbstractClassDeclaration:     onClassDeclaration,
	})

	return report
}

// declaratorName returns the bound identifier when node is the initializer of
// a variable declarator that binds a single identifier. Parentheses around
// the initializer are looked through; any other wrapper breaks the shape.
func declaratorName(node, parent *sitter.Node, f *ParsedFile) (string, bool) {
	for parent != nil && parent.Type() == nodeParenthesizedExpression {
		node = parent
		parent = parent.Parent()
	}
	if parent == nil || parent.Type() != nodeVariableDeclarator {
		return "", false
	}

	value := parent.ChildByFieldName(fieldValue)
	if value == nil || !sameNode(value, node) {
		return "", false
	}

	name := parent.ChildByFieldName(fieldName)
	if name == nil || name.Type() != nodeIdentifier {
		return "", false
	}
	return f.Text(name), true
}

// extractMethods collects the direct method_definition members of a class body.
func extractMethods(body *sitter.Node, f *ParsedFile) []MethodRecord {
	methods := make([]MethodRecord, 0)
	if body == nil || body.Type() != nodeClassBody {
		return methods
	}

	count := int(body.ChildCount())
	for i := 0; i < count; i++ {
		member := body.Child(i)
		if member == nil {
			continue
		}

		if kind, static, ok := accessorField(member, f); ok && i+1 < count {
			if m, ok := accessorMethod(member, body.Child(i+1), f); ok {
				m.Kind = kind
				m.IsStatic = static
				methods = append(methods, m)
				i++
			}
			continue
		}

		if member.Type() != nodeMethodDefinition {
			continue
		}
		if m, ok := extractMethod(member, f); ok {
			methods = append(methods, m)
		}
	}
	return methods
}

// accessorField recognizes a bare "get" or "set" field. Automatic semicolon
// insertion turns "get<newline>name() {}" into such a field followed by a
// plain method, while the language reads it as one accessor.
func accessorField(member *sitter.Node, f *ParsedFile) (MethodKind, bool, bool) {
	if member.Type() != nodePublicFieldDefinition && member.Type() != nodeFieldDefinition {
		return "", false, false
	}
	name := member.ChildByFieldName(fieldName)
	if name == nil {
		name = member.ChildByFieldName(fieldProperty)
	}
	if name == nil || name.Type() != nodePropertyIdentifier {
		return "", false, false
	}

	var kind MethodKind
	switch f.Text(name) {
	case tokenGet:
		kind = MethodKindGetter
	case tokenSet:
		kind = MethodKindSetter
	default:
		return "", false, false
	}

	static := false
	for i := 0; i < int(member.ChildCount()); i++ {
		child := member.Child(i)
		switch {
		case child == nil || sameNode(child, name):
		case !child.IsNamed() && child.Type() == tokenStatic:
			static = true
		default:
			// Decorators, modifiers, annotations and initializers make it a real field.
			return "", false, false
		}
	}
	return kind, static, true
}

// accessorMethod returns the method that directly follows an accessor field,
// separated by whitespace only.
func accessorMethod(field, next *sitter.Node, f *ParsedFile) (MethodRecord, bool) {
	if next == nil || next.Type() != nodeMethodDefinition {
		return MethodRecord{}, false
	}
	if len(bytes.TrimSpace(f.Content[field.EndByte():next.StartByte()])) != 0 {
		return MethodRecord{}, false
	}
	m, ok := extractMethod(next, f)
	if !ok || m.IsStatic || m.IsAsync {
		return MethodRecord{}, false
	}
	if m.Kind != MethodKindMethod && m.Kind != MethodKindConstructor {
		return MethodRecord{}, false
	}
	return m, true
}

// extractMethod reads one method_definition. Private, computed, string and
// numeric keys have no identifier name and are skipped.
func extractMethod(node *sitter.Node, f *ParsedFile) (MethodRecord, bool) {
	nameNode := node.ChildByFieldName(fieldName)
	if nameNode == nil || nameNode.Type() != nodePropertyIdentifier {
		return MethodRecord{}, false
	}

	m := MethodRecord{
		Name: f.Text(nameNode),
		Kind: MethodKindMethod,
	}

	// Modifiers are anonymous tokens that precede the name. A member named
	// "get" or "static" is a named property_identifier and never matches.
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if child.StartByte() >= nameNode.StartByte() {
			break
		}
		if child.IsNamed() {
			continue
		}
		switch child.Type() {
		case tokenStatic:
			m.IsStatic = true
		case tokenStaticGet:
			m.IsStatic = true
			m.Kind = MethodKindGetter
		case tokenAsync:
			m.IsAsync = true
		case tokenGet:
			m.Kind = MethodKindGetter
		case tokenSet:
			m.Kind = MethodKindSetter
		}
	}

	if m.Kind == MethodKindMethod && !m.IsStatic && m.Name == "constructor" {
		m.Kind = MethodKindConstructor
	}
	return m, true
}

// hasToken reports whether node has a direct anonymous child of the given kind.
func hasToken(node *sitter.Node, kind string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && !child.IsNamed() && child.Type() == kind {
			return true
		}
	}
	return false
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}
