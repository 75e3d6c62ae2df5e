/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the
workspace engine, tracking HTTP requests, terminal backend calls, session
and workspace lifecycle, and system metrics.

# Features

- HTTP request metrics (latency, throughput, size)
- Terminal backend call metrics (duration, errors)
- Session lifecycle metrics (live count, opened by kind)
- Workspace lifecycle metrics
- Snapshot save/restore counters
- WebSocket connection metrics
- System metrics (uptime)

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record custom metrics
	metrics.SetSessionsActive(5)
	metrics.IncSessionsOpened("ssh")

	// Time operations
	timer := monitoring.NewTimer(metrics, "ssh", "connect")
	// ... perform operation ...
	timer.Stop("success")

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
