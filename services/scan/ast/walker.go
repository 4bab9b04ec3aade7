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
	sitter "github.com/smacker/go-tree-sitter"
)

// HandlerFunc is invoked for a node whose kind it was registered for.
// parent is nil for the root node.
type HandlerFunc func(node, parent *sitter.Node)

// Handlers maps a node kind (sitter.Node.Type) to its handler.
// Kinds without an entry are visited but ignored.
type Handlers map[string]HandlerFunc

// Walk visits every node below and including root in depth-first pre-order,
// children in source order, calling the handler registered for each kind.
//
// Description:
//
//	Uses an explicit stack so arbitrarily deep trees cannot exhaust the
//	goroutine stack. Each stack entry carries its parent so handlers can
//	inspect the enclosing syntax without calling back into tree-sitter.
//
// Thread Safety: Safe for concurrent use on distinct trees.
func Walk(root *sitter.Node, handlers Handlers) {
	if root == nil {
		return
	}

	type stackEntry struct {
		node   *sitter.Node
		parent *sitter.Node
	}

	stack := make([]stackEntry, 0, 64)
	stack = append(stack, stackEntry{node: root})

	for len(stack) > 0 {
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := entry.node
		if handler, ok := handlers[node.Type()]; ok {
			handler(node, entry.parent)
		}

		// Push in reverse so the first child is popped first.
		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			child := node.Child(i)
			if child != nil {
				stack = append(stack, stackEntry{node: child, parent: node})
			}
		}
	}
}
