// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/tstype/services/tstype"
)

func newServeCmd(c *cli) *cobra.Command {
	var (
		addr  string
		debug bool
		paths []string
		roots []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve type queries over HTTP",
		Long: `Serve type queries over HTTP.

POST /v1/tstype/analyze reads whatever paths the caller sends, including
any URL the loader supports, with the permissions of this process. Keep
the default loopback address or set --allow-root (server.allowed_roots)
before exposing the server to other hosts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer c.flush(cmd.Context())

			if cmd.Flags().Changed("addr") {
				c.cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("allow-root") {
				c.cfg.Server.AllowedRoots = roots
			}
			svc, err := c.newService()
			if err != nil {
				return err
			}

			stopMetrics, err := setupMetrics(prometheus.DefaultRegisterer, c.cfg.Tracing.ServiceName)
			if err != nil {
				return err
			}
			defer func() {
				if err := stopMetrics(context.WithoutCancel(cmd.Context())); err != nil {
					c.logger.Warn("metrics shutdown failed", slog.String("error", err.Error()))
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if len(paths) > 0 {
				if _, err := svc.Analyze(ctx, paths); err != nil {
					return err
				}
			}
			return serve(ctx, c, svc, debug)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", "", "Listen address (default from config)")
	flags.BoolVar(&debug, "debug", false, "Enable gin debug mode and request logging")
	flags.StringSliceVar(&paths, "analyze", nil, "Paths to analyze before serving")
	flags.StringSliceVar(&roots, "allow-root", nil, "Directories or URL prefixes the analyze endpoint may read (default from config)")
	return cmd
}

// serve runs the HTTP server until ctx is canceled, then shuts it down
// within the configured timeout.
func serve(ctx context.Context, c *cli, svc *tstype.Service, debug bool) error {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	var middleware []gin.HandlerFunc
	if debug {
		middleware = append(middleware, gin.Logger())
	}
	handlers := tstype.NewHandlers(svc, tstype.WithAllowedRoots(c.cfg.Server.AllowedRoots))
	router := tstype.NewRouter(handlers, c.cfg.Tracing.ServiceName, middleware...)
	server := &http.Server{
		Addr:    c.cfg.Server.Addr,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.logger.Info("starting tstype server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		c.logger.Info("shutting down tstype server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
