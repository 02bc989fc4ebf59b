// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command tstype resolves the static types of TypeScript declarations.
//
// Usage:
//
//	tstype analyze src/types.ts src/main.ts
//	tstype analyze --json --hoisting ./src
//	tstype serve --addr 127.0.0.1:8087
//
// Example requests against a running server:
//
//	curl -X POST http://127.0.0.1:8087/v1/tstype/analyze \
//	  -H "Content-Type: application/json" \
//	  -d '{"paths": ["/path/to/project/src"]}'
//
//	curl "http://127.0.0.1:8087/v1/tstype/hover?path=/path/to/project/src/main.ts&line=3&col=4"
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tstype/services/tstype"
	"github.com/AleutianAI/tstype/services/tstype/config"
)

// cli holds state shared by the subcommands.
type cli struct {
	configURL string
	logLevel  string
	logFormat string
	trace     bool

	cfg      *config.Config
	logger   *slog.Logger
	shutdown shutdownFunc
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree writing results to out and logs and
// spans to errOut.
func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{shutdown: noopShutdown}

	root := &cobra.Command{
		Use:          "tstype",
		Short:        "TypeScript type resolution engine",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd.Context(), errOut)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configURL, "config", "", "Configuration file (local path or URL)")
	flags.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&c.logFormat, "log-format", "", "Log format: text or json")
	flags.BoolVar(&c.trace, "trace", false, "Write OpenTelemetry spans to stderr")

	root.AddCommand(newAnalyzeCmd(c), newServeCmd(c))
	return root
}

// init loads configuration, applies flag overrides, and sets up logging and
// tracing.
func (c *cli) init(ctx context.Context, errOut io.Writer) error {
	var err error
	if c.configURL != "" {
		c.cfg, err = config.LoadURL(ctx, c.configURL)
	} else {
		c.cfg, err = config.Load(ctx, nil)
	}
	if err != nil {
		return err
	}

	if c.logLevel != "" {
		c.cfg.Logging.Level = c.logLevel
	}
	if c.logFormat != "" {
		c.cfg.Logging.Format = c.logFormat
	}
	if c.trace {
		c.cfg.Tracing.Exporter = "stdout"
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	c.logger = newLogger(c.cfg.Logging, c.cfg.SlogLevel(), errOut)
	slog.SetDefault(c.logger)

	shutdown, err := setupTracing(ctx, c.cfg.Tracing, errOut)
	if err != nil {
		return err
	}
	c.shutdown = shutdown
	return nil
}

// newService builds a Service from the loaded configuration.
func (c *cli) newService() (*tstype.Service, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	sc, err := tstype.ServiceConfigFromConfig(c.cfg)
	if err != nil {
		return nil, fmt.Errorf("service config: %w", err)
	}
	return tstype.NewService(sc, tstype.WithServiceLogger(c.logger)), nil
}

// flush stops the tracer provider, exporting buffered spans.
func (c *cli) flush(ctx context.Context) {
	if err := c.shutdown(context.WithoutCancel(ctx)); err != nil {
		c.logger.Warn("trace shutdown failed", slog.String("error", err.Error()))
	}
}
