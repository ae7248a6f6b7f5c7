// Package tracing wraps OpenTelemetry so that job execution can be traced
// without the rest of the module importing the upstream packages. Until Init
// or InitWithExporter is called, spans are no-ops.
package tracing
