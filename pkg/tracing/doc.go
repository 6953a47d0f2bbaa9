// Package tracing carries an opentelemetry tracer through context.Context.
//
// Instrumented code asks its context for the tracer instead of reaching for
// a package global, so callers (and tests) decide which provider a given
// call tree reports to.
package tracing
