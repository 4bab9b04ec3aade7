// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scan builds the declaration inventory of a directory tree.
package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/AleutianAI/declscan/services/scan/ast"
	"github.com/AleutianAI/declscan/services/scan/config"
	"github.com/AleutianAI/declscan/services/scan/fswalk"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// scanTracerName is the OTel tracer name for whole-tree scans.
const scanTracerName = "scan"

// FileAnalyzer turns one file into a report. *ast.Analyzer implements it.
type FileAnalyzer interface {
	AnalyzeFile(ctx context.Context, path string) (*ast.FileReport, error)
}

// Scanner walks a directory and analyzes every matching file.
//
// Description:
//
//	Run owns a fresh AnalysisResult per call; nothing is shared between
//	runs. With Jobs <= 1 files are analyzed as the walk reaches them and
//	the first failure stops the walk. With Jobs > 1 the walk finishes first
//	and files are analyzed concurrently, each report stored at its walk
//	index so the output order is identical.
//
// Thread Safety: Safe for concurrent use; each Run is independent.
type Scanner struct {
	walker   *fswalk.Walker
	analyzer FileAnalyzer
	jobs     int
}

// New creates a Scanner from cfg. A nil cfg means config.Default().
func New(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.Default()
	}
	parser := ast.NewParser(
		ast.WithGrammar(ast.Grammar(cfg.Grammar)),
		ast.WithMaxFileSize(cfg.MaxFileSize),
		ast.WithWarnFileSize(cfg.WarnFileSize),
	)
	walker := fswalk.New(
		fswalk.WithExtensions(cfg.Extensions),
		fswalk.WithGitignore(cfg.RespectGitignore),
	)
	return NewWithAnalyzer(walker, ast.NewAnalyzer(parser), cfg.Jobs)
}

// NewWithAnalyzer creates a Scanner from explicit parts.
func NewWithAnalyzer(walker *fswalk.Walker, analyzer FileAnalyzer, jobs int) *Scanner {
	if jobs < 1 {
		jobs = 1
	}
	return &Scanner{walker: walker, analyzer: analyzer, jobs: jobs}
}

// Run scans root and returns the aggregated result.
//
// Outputs:
//   - *ast.AnalysisResult: Files in walk order. Nil on error; no partial
//     result is ever returned.
//   - error: The first walk, read or parse failure, unmodified apart from
//     wrapping.
func (s *Scanner) Run(ctx context.Context, root string) (*ast.AnalysisResult, error) {
	runID := uuid.NewString()
	ctx, span := otel.Tracer(scanTracerName).Start(ctx, "scan.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", runID),
		attribute.String("root", root),
		attribute.Int("jobs", s.jobs),
	)

	logger := slog.With(slog.String("run_id", runID))
	logger.Info("scan started", slog.String("root", root), slog.Int("jobs", s.jobs))
	start := time.Now()

	var (
		result *ast.AnalysisResult
		err    error
	)
	if s.jobs > 1 {
		result, err = s.runParallel(ctx, root)
	} else {
		result, err = s.runSequential(ctx, root)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan failed")
		logger.Debug("scan failed", slog.String("error", err.Error()))
		return nil, err
	}

	span.SetAttributes(attribute.Int("files", len(result.Files)))
	span.SetStatus(codes.Ok, "")
	logger.Info("scan finished",
		slog.Int("files", len(result.Files)),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

func (s *Scanner) runSequential(ctx context.Context, root string) (*ast.AnalysisResult, error) {
	result := ast.NewAnalysisResult()
	err := s.walker.Walk(ctx, root, func(path string) error {
		report, err := s.analyzer.AnalyzeFile(ctx, path)
		if err != nil {
			return err
		}
		result.Files = append(result.Files, report)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Scanner) runParallel(ctx context.Context, root string) (*ast.AnalysisResult, error) {
	var paths []string
	err := s.walker.Walk(ctx, root, func(path string) error {
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	reports := make([]*ast.FileReport, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.jobs)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report, err := s.analyzer.AnalyzeFile(gctx, path)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := ast.NewAnalysisResult()
	result.Files = append(result.Files, reports...)
	return result, nil
}

// WriteJSON writes result as 2-space indented JSON followed by a newline.
// HTML characters are not escaped, so paths print verbatim.
func WriteJSON(w io.Writer, result *ast.AnalysisResult) error {
	if result == nil {
		result = ast.NewAnalysisResult()
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}
