// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads tstype configuration from YAML.
package config

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/viant/afs"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Embedded Defaults
// =============================================================================

//go:embed defaults.yaml
var defaultConfigYAML []byte

// MaxYAMLFileSize bounds the size of a configuration document (1MB).
const MaxYAMLFileSize = 1024 * 1024

const configTracerName = "tstype.config"

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the complete tstype configuration.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type Config struct {
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Parser   ParserConfig   `yaml:"parser"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// AnalyzerConfig configures the resolution engine.
type AnalyzerConfig struct {
	// Policy is "continue" or "abort".
	Policy string `yaml:"policy" validate:"oneof=continue abort"`

	// Hoisting enables two-pass resolution of top-level type declarations.
	Hoisting bool `yaml:"hoisting"`
}

// ParserConfig configures the TypeScript parser.
type ParserConfig struct {
	// Dialect is "auto", "typescript" or "tsx".
	Dialect string `yaml:"dialect" validate:"oneof=auto typescript tsx"`

	// MaxFileSize is the largest accepted source file in bytes.
	MaxFileSize int64 `yaml:"max_file_size" validate:"gt=0"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`

	// AllowedRoots limits POST /analyze to paths under these directories
	// or URL prefixes. Empty allows any path the process can read.
	AllowedRoots []string `yaml:"allowed_roots" validate:"dive,required"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// TracingConfig selects the OpenTelemetry trace exporter.
type TracingConfig struct {
	// Exporter is "none", "stdout" or "otlp".
	Exporter     string `yaml:"exporter" validate:"oneof=none stdout otlp"`
	OTLPEndpoint string `yaml:"otlp_endpoint" validate:"required_if=Exporter otlp"`
	Insecure     bool   `yaml:"insecure"`
	ServiceName  string `yaml:"service_name" validate:"required"`
}

// =============================================================================
// Loading
// =============================================================================

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Load(context.Background(), nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load builds a Config from YAML layered over the embedded defaults.
//
// Description:
//
//	The embedded defaults are decoded first and data is decoded on top, so
//	data only needs the keys it overrides. The result is normalized and
//	validated.
//
// Inputs:
//
//	ctx - Context for tracing.
//	data - YAML overrides. May be empty.
//
// Outputs:
//
//	*Config - The validated configuration.
//	error - Non-nil if parsing or validation fails.
func Load(ctx context.Context, data []byte) (*Config, error) {
	_, span := otel.Tracer(configTracerName).Start(ctx, "config.Load")
	defer span.End()

	if len(data) > MaxYAMLFileSize {
		return nil, fmt.Errorf("config: YAML data exceeds maximum size (%d > %d)", len(data), MaxYAMLFileSize)
	}

	var cfg Config
	if err := yaml.Unmarshal(defaultConfigYAML, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing defaults: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parsing YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("analyzer.policy", cfg.Analyzer.Policy),
		attribute.Bool("analyzer.hoisting", cfg.Analyzer.Hoisting),
		attribute.String("tracing.exporter", cfg.Tracing.Exporter),
	)
	return &cfg, nil
}

// LoadURL reads a configuration file from a local path or any URL afs
// supports and layers it over the defaults.
func LoadURL(ctx context.Context, URL string) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", URL, err)
	}
	cfg, err := Load(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", URL, err)
	}
	slog.Debug("config loaded", slog.String("url", URL))
	return cfg, nil
}

// Validate normalizes c in place and checks every field. Call it after
// modifying a loaded Config.
func (c *Config) Validate() error {
	c.normalize()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: validation: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	c.Analyzer.Policy = strings.ToLower(strings.TrimSpace(c.Analyzer.Policy))
	c.Parser.Dialect = strings.ToLower(strings.TrimSpace(c.Parser.Dialect))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Tracing.Exporter = strings.ToLower(strings.TrimSpace(c.Tracing.Exporter))
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "none"
	}
}

// SlogLevel maps the configured level to slog.
func (c *Config) SlogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
