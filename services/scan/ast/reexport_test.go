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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlankDefaultReexports_KeepsOffsets(t *testing.T) {
	content := []byte("export v from 'mod';\nfunction f() {}\n")
	tree, err := parseTree(context.Background(), GrammarTSX, content, "b.js")
	require.NoError(t, err)
	defer tree.Close()

	blanked, n := blankDefaultReexports(tree.RootNode(), content)

	assert.Equal(t, 1, n)
	assert.Equal(t, strings.Repeat(" ", 20)+"\nfunction f() {}\n", string(blanked))
	assert.Equal(t, "export v from 'mod';\nfunction f() {}\n", string(content))
}

func TestBlankDefaultReexports_IgnoresTextOutsideErrors(t *testing.T) {
	content := []byte("const s = `\nexport w from 'x'\n`;\n")
	tree, err := parseTree(context.Background(), GrammarTSX, content, "tpl.js")
	require.NoError(t, err)
	defer tree.Close()

	blanked, n := blankDefaultReexports(tree.RootNode(), content)

	assert.Zero(t, n)
	assert.Equal(t, string(content), string(blanked))
}

func TestOverlapsAny(t *testing.T) {
	stmt := byteRange{start: 10, end: 20}

	assert.True(t, overlapsAny(stmt, []byteRange{{start: 15, end: 30}}))
	assert.True(t, overlapsAny(stmt, []byteRange{{start: 20, end: 20}}))
	assert.False(t, overlapsAny(stmt, []byteRange{{start: 20, end: 25}}))
	assert.False(t, overlapsAny(stmt, []byteRange{{start: 0, end: 10}}))
	assert.False(t, overlapsAny(stmt, nil))
}
