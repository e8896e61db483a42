// Package observe provides telemetry for the result cache and the
// invocation proxy in front of it.
//
// It wires OpenTelemetry tracing and metrics behind a validated Config with
// pluggable exporters (stdout, otlp, prometheus), exposes cache-specific
// instruments (lookup outcomes, eviction and expiry counts, hit rate), and
// provides a JSON structured logger that redacts sensitive argument fields.
package observe
