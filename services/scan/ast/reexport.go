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
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"
)

// defaultReexportPattern matches a statement that starts on its own line
// and re-exports a default binding:
//
//	export v from 'mod';
//	export v, * as ns from 'mod';
//	export v, { a, b as c } from "mod"
//
// Group 1 is the exported name.
var defaultReexportPattern = regexp.MustCompile(
	`(?m)^[ \t]*export\s+([A-Za-z_$][\w$]*)` +
		`(?:\s*,\s*(?:[A-Za-z_$][\w$]*|\*\s*as\s+[A-Za-z_$][\w$]*|\{[^{}]*\}))*` +
		`\s+from\s*(?:"[^"\n]*"|'[^'\n]*')[ \t]*;?`)

// reservedExportHeads start ordinary export declarations.
var reservedExportHeads = map[string]bool{
	"default": true, "const": true, "let": true, "var": true,
	"function": true, "class": true, "async": true, "abstract": true,
	"type": true, "interface": true, "enum": true, "declare": true,
	"namespace": true, "module": true, "import": true,
}

type byteRange struct {
	start, end uint32
}

// blankDefaultReexports overwrites every default re-export statement that
// overlaps an ERROR or MISSING node with spaces. Newlines are kept so byte
// offsets, lines and columns of the remaining source do not move. A match
// inside a string, comment or template is not an error region and is left
// alone.
//
// Returns the rewritten copy and the number of blanked statements; the
// input slice is not modified.
func blankDefaultReexports(root *sitter.Node, content []byte) ([]byte, int) {
	matches := defaultReexportPattern.FindAllSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content, 0
	}

	errs := errorRanges(root)
	var out []byte
	count := 0
	for _, m := range matches {
		if reservedExportHeads[string(content[m[2]:m[3]])] {
			continue
		}
		stmt := byteRange{start: uint32(m[0]), end: uint32(m[1])}
		if !overlapsAny(stmt, errs) {
			continue
		}
		if out == nil {
			out = append([]byte(nil), content...)
		}
		for i := m[0]; i < m[1]; i++ {
			if out[i] != '\n' && out[i] != '\r' {
				out[i] = ' '
			}
		}
		count++
	}
	if count == 0 {
		return content, 0
	}
	return out, count
}

// errorRanges collects the byte ranges of all ERROR and MISSING nodes.
func errorRanges(root *sitter.Node) []byteRange {
	var ranges []byteRange
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node.IsError() || node.IsMissing() {
			ranges = append(ranges, byteRange{start: node.StartByte(), end: node.EndByte()})
			continue
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
	return ranges
}

// overlapsAny reports whether r shares a byte with, or contains the
// zero-width position of, any range in errs.
func overlapsAny(r byteRange, errs []byteRange) bool {
	for _, e := range errs {
		if e.start == e.end {
			if e.start >= r.start && e.start <= r.end {
				return true
			}
			continue
		}
		if e.start < r.end && e.end > r.start {
			return true
		}
	}
	return false
}
