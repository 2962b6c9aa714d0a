// Package observe provides structured logging, metrics, and tracing for the
// toolkit's resilience components.
//
// It exposes a zerolog-backed Logger, an Observer that wires OpenTelemetry
// tracer and meter providers with pluggable exporters, and a Metrics bundle
// with the instruments recorded by the cache, ratelimit, and recovery
// packages.
package observe
