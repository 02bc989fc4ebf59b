// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tstype

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RegisterRoutes registers all tstype routes with the router.
//
// Description:
//
//	Registers all /v1/tstype/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST /v1/tstype/analyze - Analyze files and publish a snapshot
//	GET  /v1/tstype/type - Type recorded for a node
//	GET  /v1/tstype/hover - Type of the innermost node at a position
//	GET  /v1/tstype/diagnostics - Diagnostics per file
//	GET  /v1/tstype/symbols - Global symbol table
//	GET  /v1/tstype/health - Health check
//
// Example:
//
//	service := tstype.NewService(tstype.DefaultServiceConfig())
//	handlers := tstype.NewHandlers(service)
//
//	v1 := router.Group("/v1")
//	tstype.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	ts := rg.Group("/tstype")
	{
		ts.POST("/analyze", handlers.HandleAnalyze)

		ts.GET("/type", handlers.HandleType)
		ts.GET("/hover", handlers.HandleHover)
		ts.GET("/diagnostics", handlers.HandleDiagnostics)
		ts.GET("/symbols", handlers.HandleSymbols)

		ts.GET("/health", handlers.HandleHealth)
	}
}

// NewRouter builds the gin engine served by `tstype serve`: recovery,
// otelgin tracing, any extra middleware, /metrics and the /v1 routes.
func NewRouter(handlers *Handlers, serviceName string, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(middleware...)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	RegisterRoutes(v1, handlers)
	return router
}
