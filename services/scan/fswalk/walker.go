// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package fswalk enumerates source files below a directory.
package fswalk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultExtensions are the file name suffixes visited when none are configured.
var DefaultExtensions = []string{".js", ".jsx", ".ts", ".tsx"}

// ErrSymlinkLoop is returned when a directory resolves to one of its ancestors.
var ErrSymlinkLoop = errors.New("directory symlink loop")

// VisitFunc is called for every matching file. A non-nil error stops the walk
// and is returned from Walk.
type VisitFunc func(path string) error

// Option configures a Walker.
type Option func(*Walker)

// WithExtensions sets the accepted file name suffixes. Matching is
// case-sensitive against the whole file name, so "a.test.js" matches ".js".
func WithExtensions(exts []string) Option {
	return func(w *Walker) {
		if len(exts) > 0 {
			w.extensions = append([]string(nil), exts...)
		}
	}
}

// WithGitignore skips entries matched by the .gitignore at the walk root.
func WithGitignore(enabled bool) Option {
	return func(w *Walker) {
		w.respectGitignore = enabled
	}
}

// Walker walks a directory tree in os.ReadDir order.
//
// Description:
//
//	Every entry is stat'ed, so symlinks are followed: a link to a directory
//	is descended into and a link to a matching file is visited. Directories
//	recurse before the remaining siblings are processed, giving a pre-order
//	listing. Entries that are neither directories nor regular files are
//	skipped. Any listing or stat failure aborts the walk.
//
// Thread Safety: A Walker is immutable and safe for concurrent use.
type Walker struct {
	extensions       []string
	respectGitignore bool
}

// New creates a Walker.
func New(opts ...Option) *Walker {
	w := &Walker{extensions: append([]string(nil), DefaultExtensions...)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Matches reports whether a file name carries an accepted extension.
func (w *Walker) Matches(name string) bool {
	for _, ext := range w.extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Walk visits every matching file below root.
//
// Inputs:
//   - ctx: Checked before each directory listing.
//   - root: Directory to walk. Paths handed to visit are built with
//     filepath.Join(root, ...), so they are relative when root is.
//   - visit: Called once per matching file, in walk order.
//
// Outputs:
//   - error: The first listing, stat, loop, context or visit error.
func (w *Walker) Walk(ctx context.Context, root string, visit VisitFunc) error {
	var matcher *ignore.GitIgnore
	if w.respectGitignore {
		matcher = loadGitignore(root)
	}

	rootInfo, err := os.Stat(root)
	if err != nil {
		entriesVisitedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("stat %s: %w", root, err)
	}
	if !rootInfo.IsDir() {
		entriesVisitedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%s: not a directory", root)
	}

	ws := &walkState{
		walker:  w,
		root:    root,
		matcher: matcher,
		visit:   visit,
	}
	return ws.walkDir(ctx, root, []os.FileInfo{rootInfo})
}

type walkState struct {
	walker  *Walker
	root    string
	matcher *ignore.GitIgnore
	visit   VisitFunc
}

// walkDir lists dir and handles each entry. ancestors holds the stat info
// of dir and every directory above it, for loop detection.
func (s *walkState) walkDir(ctx context.Context, dir string, ancestors []os.FileInfo) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("walk canceled: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		entriesVisitedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("reading directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		info, err := os.Stat(path)
		if err != nil {
			entriesVisitedTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("stat %s: %w", path, err)
		}

		if s.ignored(path, info.IsDir()) {
			entriesVisitedTotal.WithLabelValues("ignored").Inc()
			continue
		}

		switch {
		case info.IsDir():
			for _, anc := range ancestors {
				if os.SameFile(anc, info) {
					entriesVisitedTotal.WithLabelValues("error").Inc()
					return fmt.Errorf("%s: %w", path, ErrSymlinkLoop)
				}
			}
			entriesVisitedTotal.WithLabelValues("directory").Inc()
			if err := s.walkDir(ctx, path, append(ancestors, info)); err != nil {
				return err
			}

		case info.Mode().IsRegular() && s.walker.Matches(entry.Name()):
			entriesVisitedTotal.WithLabelValues("matched").Inc()
			if err := s.visit(path); err != nil {
				return err
			}

		default:
			entriesVisitedTotal.WithLabelValues("skipped").Inc()
		}
	}
	return nil
}

func (s *walkState) ignored(path string, isDir bool) bool {
	if s.matcher == nil {
		return false
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if isDir {
		// Directory-only patterns such as "build/" need the trailing slash.
		return s.matcher.MatchesPath(rel) || s.matcher.MatchesPath(rel+"/")
	}
	return s.matcher.MatchesPath(rel)
}

// loadGitignore compiles root/.gitignore, or returns nil when absent or invalid.
func loadGitignore(root string) *ignore.GitIgnore {
	gitignorePath := filepath.Join(root, ".gitignore")

	if _, err := os.Stat(gitignorePath); err != nil {
		return nil
	}
	gitignore, err := ignore.CompileIgnoreFile(gitignorePath)
	if err != nil {
		slog.Warn("ignoring unreadable .gitignore",
			slog.String("path", gitignorePath),
			slog.String("error", err.Error()))
		return nil
	}
	return gitignore
}
