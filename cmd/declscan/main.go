// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command declscan prints a JSON inventory of the functions, arrow functions,
// classes and class methods declared in the JavaScript and TypeScript files
// below a directory.
//
// Usage:
//
//	declscan <directoryPath>
//
// Exit status is 0 with the JSON document on stdout, or 1 with a diagnostic
// on stderr and nothing on stdout.
//
// Optional flags:
//
//	declscan --jobs 8 ./src                  # analyze files concurrently
//	declscan --grammar auto ./src            # pick the grammar per extension
//	declscan --respect-gitignore .           # skip .gitignore'd entries
//	declscan --config declscan.yaml ./src    # YAML overrides
//	declscan --trace-file spans.json ./src   # write OTel spans
//	declscan --metrics-file scan.prom ./src  # write Prometheus metrics
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/AleutianAI/declscan/services/scan"
	"github.com/AleutianAI/declscan/services/scan/config"
	"github.com/AleutianAI/declscan/services/scan/telemetry"
	"github.com/spf13/cobra"
)

// errMissingDirectory is the usage error for a missing positional argument.
var errMissingDirectory = errors.New("a directory path argument is required")

// options hold flag values for one invocation.
type options struct {
	configPath       string
	logLevel         string
	level            slog.Level
	grammar          string
	jobs             int
	respectGitignore bool
	traceFile        string
	metricsFile      string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &options{}
	var usageErr bool

	cmd := &cobra.Command{
		Use:   "declscan <directoryPath>",
		Short: "Inventory functions and classes in JavaScript/TypeScript sources",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 || args[0] == "" {
				usageErr = true
				return errMissingDirectory
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := telemetry.ParseLevel(opts.logLevel)
			if err != nil {
				usageErr = true
				return err
			}
			opts.level = level
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, opts, args, stdout, stderr)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		usageErr = true
		return err
	})
	// A nil slice would make cobra fall back to os.Args.
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "YAML config file overlaid on the defaults")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flags.StringVar(&opts.grammar, "grammar", "", "grammar: tsx, typescript, javascript or auto (overrides config)")
	flags.IntVar(&opts.jobs, "jobs", 0, "files analyzed concurrently (overrides config)")
	flags.BoolVar(&opts.respectGitignore, "respect-gitignore", false, "skip entries matched by the root .gitignore")
	flags.StringVar(&opts.traceFile, "trace-file", "", "write OpenTelemetry spans as JSON to this file")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")

	if err := cmd.ExecuteContext(ctx); err != nil {
		if usageErr {
			fmt.Fprintf(stderr, "error: %v\n", err)
		} else {
			fmt.Fprintf(stderr, "analysis failed: %v\n", err)
		}
		return 1
	}
	return 0
}

// run performs one scan. The JSON document is buffered and written only
// after the whole scan succeeded.
func run(ctx context.Context, cmd *cobra.Command, opts *options, args []string, stdout, stderr io.Writer) error {
	slog.SetDefault(telemetry.NewLogger(stderr, opts.level))

	if len(args) > 1 {
		slog.Warn("ignoring extra arguments", slog.Any("args", args[1:]))
	}

	if opts.traceFile != "" {
		f, err := os.Create(opts.traceFile)
		if err != nil {
			return fmt.Errorf("creating trace file: %w", err)
		}
		defer f.Close()

		shutdown, err := telemetry.InitTracing(f)
		if err != nil {
			return err
		}
		defer func() {
			if serr := shutdown(context.WithoutCancel(ctx)); serr != nil {
				slog.Warn("flushing spans failed", slog.String("error", serr.Error()))
			}
		}()
	}

	cfg, err := config.Load(ctx, opts.configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	result, err := scan.New(cfg).Run(ctx, args[0])
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := scan.WriteJSON(&buf, result); err != nil {
		return err
	}

	if opts.metricsFile != "" {
		if err := telemetry.WriteMetrics(opts.metricsFile); err != nil {
			return err
		}
	}

	if _, err := stdout.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// applyFlagOverrides copies explicitly set flags over the loaded config.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config, opts *options) {
	flags := cmd.Flags()
	if flags.Changed("grammar") {
		cfg.Grammar = opts.grammar
	}
	if flags.Changed("jobs") {
		cfg.Jobs = opts.jobs
	}
	if flags.Changed("respect-gitignore") {
		cfg.RespectGitignore = opts.respectGitignore
	}
}
