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
	"reflect"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
)

func TestWalk_PreOrder(t *testing.T) {
	f, err := NewParser().Parse(context.Background(),
		[]byte("function a() {}\nfunction b() { function c() {} }\nfunction d() {}\n"), "order.js")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer f.Close()

	var names []string
	Walk(f.Root(), Handlers{
		nodeFunctionDeclaration: func(node, _ *sitter.Node) {
			names = append(names, f.Text(node.ChildByFieldName(fieldName)))
		},
	})

	want := []string{"a", "b", "c", "d"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("got %v, want %v", names, want)
	}
}

func TestWalk_PassesParent(t *testing.T) {
	f, err := NewParser().Parse(context.Background(), []byte("const x = () => 1;\n"), "parent.js")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer f.Close()

	var rootParent *sitter.Node
	rootSeen := false
	var arrowParent string
	Walk(f.Root(), Handlers{
		"program": func(_, parent *sitter.Node) {
			rootSeen = true
			rootParent = parent
		},
		nodeArrowFunction: func(_, parent *sitter.Node) {
			arrowParent = parent.Type()
		},
	})

	if !rootSeen || rootParent != nil {
		t.Errorf("root: seen=%v parent=%v, want seen with nil parent", rootSeen, rootParent)
	}
	if arrowParent != nodeVariableDeclarator {
		t.Errorf("arrow parent = %q, want %q", arrowParent, nodeVariableDeclarator)
	}
}

func TestWalk_NilRoot(t *testing.T) {
	called := false
	Walk(nil, Handlers{"program": func(_, _ *sitter.Node) { called = true }})
	if called {
		t.Error("handler called for nil root")
	}
}
