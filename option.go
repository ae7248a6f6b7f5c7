package chipng

import (
	"log/slog"

	"github.com/rbxxaxa/chipng/progress"
	"github.com/rbxxaxa/chipng/service/executor"
	"github.com/viant/afs"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures the Service
type Option func(s *Service)

// WithConfig replaces the whole configuration; options applied after it
// still override individual fields.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			cp := *config
			s.config = &cp
		}
	}
}

// WithWorkers sets the worker pool size
func WithWorkers(count int) Option {
	return func(s *Service) {
		s.config.Scheduler.WorkerCount = count
	}
}

// WithMaxWorkers caps the worker pool size
func WithMaxWorkers(count int) Option {
	return func(s *Service) {
		s.config.Scheduler.MaxWorkers = count
	}
}

// WithLogger installs the logger shared by every chipng package
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		SetLogger(logger)
	}
}

// WithTracing enables OpenTelemetry tracing with the stdout exporter. An
// empty outputFile writes spans to stdout.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		s.config.Tracing = TracingConfig{
			Enabled:        true,
			ServiceName:    serviceName,
			ServiceVersion: serviceVersion,
			OutputFile:     outputFile,
		}
	}
}

// WithTracingExporter enables tracing with a custom span exporter, for example
// OTLP or an in-memory exporter in tests.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		s.config.Tracing.Enabled = true
		s.config.Tracing.ServiceName = serviceName
		s.config.Tracing.ServiceVersion = serviceVersion
		s.exporter = exporter
	}
}

// WithProgressListener registers a callback invoked after every change of the
// pool counters
func WithProgressListener(fn func(progress.Counters)) Option {
	return func(s *Service) {
		s.onProgress = fn
	}
}

// WithFileSystem sets the file system used by Run, mem:// in tests
func WithFileSystem(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithExecutor replaces the job executor
func WithExecutor(executor executor.Service) Option {
	return func(s *Service) {
		s.executor = executor
	}
}
