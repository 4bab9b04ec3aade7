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
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// astTracerName is the OTel tracer name for parsing and extraction.
const astTracerName = "scan.ast"

// Package-level Prometheus metrics for file analysis.
// Auto-registered via promauto so no explicit registry wiring is needed.
var (
	// analyzeDuration measures parse plus extraction time per file.
	//
	// Labels:
	//   - grammar: "tsx", "typescript", "javascript"
	//   - status: "success" or "error"
	analyzeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "declscan",
			Subsystem: "ast",
			Name:      "analyze_duration_seconds",
			Help:      "Duration of parsing and extracting one file in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"grammar", "status"},
	)

	// filesAnalyzedTotal counts analyzed files.
	//
	// Labels:
	//   - grammar: "tsx", "typescript", "javascript"
	//   - status: "success", "syntax_error", "too_large", "canceled", "error"
	filesAnalyzedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "declscan",
			Subsystem: "ast",
			Name:      "files_analyzed_total",
			Help:      "Total number of analyzed files by outcome.",
		},
		[]string{"grammar", "status"},
	)

	// recordsExtractedTotal counts extracted records.
	//
	// Labels:
	//   - kind: "function", "arrow", "class", "method"
	recordsExtractedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "declscan",
			Subsystem: "ast",
			Name:      "records_extracted_total",
			Help:      "Total number of extracted declaration records by kind.",
		},
		[]string{"kind"},
	)
)

func tracer() trace.Tracer {
	return otel.Tracer(astTracerName)
}

// startAnalyzeSpan starts the per-file span.
func startAnalyzeSpan(ctx context.Context, grammar Grammar, filePath string, size int) (context.Context, trace.Span) {
	return tracer().Start(ctx, "ast.Analyze",
		trace.WithAttributes(
			attribute.String("file", filePath),
			attribute.String("grammar", string(grammar)),
			attribute.Int("size_bytes", size),
		),
	)
}

// finishAnalyzeSpan records the outcome on the span and in the metrics.
func finishAnalyzeSpan(span trace.Span, grammar Grammar, duration time.Duration, report *FileReport, err error) {
	status := classifyAnalyzeError(err)
	analyzeDuration.WithLabelValues(string(grammar), metricStatus(err)).Observe(duration.Seconds())
	filesAnalyzedTotal.WithLabelValues(string(grammar), status).Inc()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		return
	}

	methods := 0
	arrows := 0
	for _, fn := range report.Functions {
		if fn.Kind == FunctionKindArrow {
			arrows++
		}
	}
	for _, cls := range report.Classes {
		methods += len(cls.Methods)
	}

	recordsExtractedTotal.WithLabelValues(string(FunctionKindFunction)).Add(float64(len(report.Functions) - arrows))
	recordsExtractedTotal.WithLabelValues(string(FunctionKindArrow)).Add(float64(arrows))
	recordsExtractedTotal.WithLabelValues("class").Add(float64(len(report.Classes)))
	recordsExtractedTotal.WithLabelValues("method").Add(float64(methods))

	span.SetAttributes(
		attribute.Int("functions", len(report.Functions)),
		attribute.Int("classes", len(report.Classes)),
		attribute.Int("methods", methods),
	)
	span.SetStatus(codes.Ok, "")
}

// classifyAnalyzeError maps an error to a label-safe status string.
func classifyAnalyzeError(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrSyntax):
		return "syntax_error"
	case errors.Is(err, ErrFileTooLarge):
		return "too_large"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

func metricStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
