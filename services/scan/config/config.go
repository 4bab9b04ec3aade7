// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads declscan settings from YAML.
package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Embedded Defaults
// =============================================================================

//go:embed defaults.yaml
var defaultConfigYAML []byte

// MaxYAMLFileSize bounds the size of a config file.
const MaxYAMLFileSize = 1024 * 1024

// ErrInvalidConfig wraps every parse or validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// configTracerName is the OTel tracer name for config loading.
const configTracerName = "scan.config"

// =============================================================================
// Config Types
// =============================================================================

// Config holds every tunable of a scan.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type Config struct {
	// Extensions are the accepted file name suffixes.
	Extensions []string `yaml:"extensions" validate:"required,min=1,dive,required,startswith=."`

	// Grammar is "tsx", "typescript", "javascript" or "auto".
	Grammar string `yaml:"grammar" validate:"required,oneof=tsx typescript javascript auto"`

	// MaxFileSize in bytes; 0 disables the limit.
	MaxFileSize int64 `yaml:"max_file_size" validate:"gte=0"`

	// WarnFileSize in bytes; 0 disables the warning.
	WarnFileSize int64 `yaml:"warn_file_size" validate:"gte=0"`

	// Jobs is the number of files analyzed concurrently.
	Jobs int `yaml:"jobs" validate:"gte=1,lte=256"`

	// RespectGitignore skips entries matched by the root .gitignore.
	RespectGitignore bool `yaml:"respect_gitignore"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the embedded default configuration.
//
// Panics if the embedded YAML is invalid, which is a build defect.
func Default() *Config {
	cfg, err := parse(defaultConfigYAML, nil)
	if err != nil {
		panic(fmt.Sprintf("embedded default config: %v", err))
	}
	return cfg
}

// Load returns the defaults overlaid with the YAML file at path.
//
// Description:
//
//	An empty path returns the defaults. Keys absent from the file keep their
//	default values. The merged result is validated.
//
// Outputs:
//   - *Config: Never nil on success.
//   - error: Wraps ErrInvalidConfig for parse and validation failures, or the
//     underlying I/O error.
func Load(ctx context.Context, path string) (*Config, error) {
	_, span := otel.Tracer(configTracerName).Start(ctx, "config.Load")
	defer span.End()

	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg, err := LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	span.SetAttributes(
		attribute.String("path", path),
		attribute.String("grammar", cfg.Grammar),
		attribute.Int("jobs", cfg.Jobs),
		attribute.Int("extensions", len(cfg.Extensions)),
	)

	slog.Debug("config loaded",
		slog.String("path", path),
		slog.String("grammar", cfg.Grammar),
		slog.Int("jobs", cfg.Jobs),
		slog.Bool("respect_gitignore", cfg.RespectGitignore),
	)

	return cfg, nil
}

// LoadBytes overlays data on the defaults and validates the result.
func LoadBytes(data []byte) (*Config, error) {
	if len(data) > MaxYAMLFileSize {
		return nil, fmt.Errorf("%w: YAML data exceeds maximum size (%d > %d)", ErrInvalidConfig, len(data), MaxYAMLFileSize)
	}
	return parse(data, Default())
}

func parse(data []byte, base *Config) (*Config, error) {
	cfg := &Config{}
	if base != nil {
		*cfg = *base
		cfg.Extensions = append([]string(nil), base.Extensions...)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing YAML: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
