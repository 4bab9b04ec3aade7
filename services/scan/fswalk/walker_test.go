// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


package fswalk

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files (relative slash paths) below root.
func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, rel := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("// "+rel+"\n"), 0o644))
	}
}

func collect(t *testing.T, w *Walker, root string) []string {
	t.Helper()
	var got []string
	err := w.Walk(context.Background(), root, func(path string) error {
		got = append(got, path)
		return nil
	})
	require.NoError(t, err)
	return got
}

func TestWalk_PreOrderLexical(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"b.js",
		"a/z.ts",
		"a/inner/y.tsx",
		"c.jsx",
		"README.md",
	)

	got := collect(t, New(), root)

	assert.Equal(t, []string{
		filepath.Join(root, "a", "inner", "y.tsx"),
		filepath.Join(root, "a", "z.ts"),
		filepath.Join(root, "b.js"),
		filepath.Join(root, "c.jsx"),
	}, got)
}

func TestWalk_ExtensionMatching(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"app.test.js",
		"types.d.ts",
		"upper.JS",
		"module.mjs",
		"script.js.map",
		"noext",
	)

	got := collect(t, New(), root)

	assert.Equal(t, []string{
		filepath.Join(root, "app.test.js"),
		filepath.Join(root, "types.d.ts"),
	}, got)
}

func TestWalk_CustomExtensions(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.js", "b.mjs", "c.cjs")

	got := collect(t, New(WithExtensions([]string{".mjs", ".cjs"})), root)

	assert.Equal(t, []string{
		filepath.Join(root, "b.mjs"),
		filepath.Join(root, "c.cjs"),
	}, got)
}

func TestWalk_DirectoryWithSourceSuffix(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "lib.js/index.js")

	got := collect(t, New(), root)

	assert.Equal(t, []string{filepath.Join(root, "lib.js", "index.js")}, got)
}

func TestWalk_EmptyDirectory(t *testing.T) {
	assert.Empty(t, collect(t, New(), t.TempDir()))
}

func TestWalk_RelativeRootKeepsRelativePaths(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "src/a.js")
	t.Chdir(root)

	got := collect(t, New(), "src")

	assert.Equal(t, []string{filepath.Join("src", "a.js")}, got)
}

func TestWalk_MissingRoot(t *testing.T) {
	err := New().Walk(context.Background(), filepath.Join(t.TempDir(), "nope"), func(string) error {
		t.Fatal("visit called")
		return nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWalk_RootIsFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.js")

	err := New().Walk(context.Background(), filepath.Join(root, "a.js"), func(string) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestWalk_VisitErrorStopsWalk(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.js", "b.js", "c.js")
	boom := errors.New("boom")

	var visited []string
	err := New().Walk(context.Background(), root, func(path string) error {
		visited = append(visited, filepath.Base(path))
		if filepath.Base(path) == "b.js" {
			return boom
		}
		return nil
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a.js", "b.js"}, visited)
}

func TestWalk_CanceledContext(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.js")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New().Walk(ctx, root, func(string) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWalk_FollowsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	outside := t.TempDir()
	writeTree(t, outside, "shared/util.js", "single.ts")

	require.NoError(t, os.Symlink(filepath.Join(outside, "shared"), filepath.Join(root, "linked")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "single.ts"), filepath.Join(root, "one.ts")))

	got := collect(t, New(), root)

	assert.Equal(t, []string{
		filepath.Join(root, "linked", "util.js"),
		filepath.Join(root, "one.ts"),
	}, got)
}

func TestWalk_DanglingSymlinkFails(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	require.NoError(t, os.Symlink(filepath.Join(root, "missing.js"), filepath.Join(root, "dangling.js")))

	err := New().Walk(context.Background(), root, func(string) error { return nil })
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWalk_SymlinkLoop(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	writeTree(t, root, "sub/a.js")
	require.NoError(t, os.Symlink(root, filepath.Join(root, "sub", "loop")))

	err := New().Walk(context.Background(), root, func(string) error { return nil })
	assert.ErrorIs(t, err, ErrSymlinkLoop)
}

func TestWalk_Gitignore(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"src/app.js",
		"src/generated.js",
		"vendor/lib.js",
		"keep.ts",
	)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("vendor\ngenerated.js\n"), 0o644))

	got := collect(t, New(WithGitignore(true)), root)
	assert.Equal(t, []string{
		filepath.Join(root, "keep.ts"),
		filepath.Join(root, "src", "app.js"),
	}, got)

	all := collect(t, New(), root)
	assert.Len(t, all, 4)
}

func TestWalk_GitignoreAbsent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.js")

	assert.Len(t, collect(t, New(WithGitignore(true)), root), 1)
}

func TestMatches(t *testing.T) {
	w := New()
	assert.True(t, w.Matches("a.tsx"))
	assert.True(t, w.Matches(".js"))
	assert.False(t, w.Matches("a.TS"))
	assert.False(t, w.Matches("a.json"))
}
