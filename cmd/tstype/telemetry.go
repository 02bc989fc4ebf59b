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
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/AleutianAI/tstype/services/tstype/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// shutdownFunc flushes and stops the tracer provider.
type shutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// newLogger builds the process logger from the logging config.
func newLogger(cfg config.LoggingConfig, level slog.Level, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// setupTracing installs the global tracer provider selected by cfg.
//
// Description:
//
//	"none" leaves the default no-op provider in place. "stdout" writes
//	spans to w. "otlp" exports over gRPC to cfg.OTLPEndpoint. The W3C
//	trace context propagator is installed in every case so incoming
//	traceparent headers reach the handlers.
//
// Outputs:
//
//	shutdownFunc - Flushes pending spans. Never nil.
//	error - Non-nil if the exporter could not be created.
func setupTracing(ctx context.Context, cfg config.TracingConfig, w io.Writer) (shutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch cfg.Exporter {
	case "", "none":
		return noopShutdown, nil
	case "stdout":
		if w == nil {
			w = os.Stderr
		}
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	case "otlp":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
	default:
		return noopShutdown, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}
	if err != nil {
		return noopShutdown, fmt.Errorf("creating %s trace exporter: %w", cfg.Exporter, err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
		)),
	)
	otel.SetTracerProvider(tp)

	slog.Debug("tracing enabled",
		slog.String("exporter", cfg.Exporter),
		slog.String("service_name", cfg.ServiceName))
	return tp.Shutdown, nil
}

// setupMetrics installs a global meter provider whose instruments are
// collected by reg, so OTel instruments such as the parse metrics appear
// next to the promauto series on /metrics.
//
// Inputs:
//
//	reg - Registerer the exporter's collector is added to. Registering
//	      twice with the same registerer fails.
//	serviceName - Value of the service.name resource attribute.
//
// Outputs:
//
//	shutdownFunc - Stops the meter provider. Never nil.
//	error - Non-nil if the exporter could not be registered.
func setupMetrics(reg prometheus.Registerer, serviceName string) (shutdownFunc, error) {
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return noopShutdown, fmt.Errorf("creating prometheus metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}
