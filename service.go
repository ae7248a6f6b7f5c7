package chipng

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rbxxaxa/chipng/bleed"
	"github.com/rbxxaxa/chipng/internal/logging"
	"github.com/rbxxaxa/chipng/model/job"
	"github.com/rbxxaxa/chipng/progress"
	"github.com/rbxxaxa/chipng/service/batch"
	"github.com/rbxxaxa/chipng/service/executor"
	"github.com/rbxxaxa/chipng/service/scheduler"
	"github.com/rbxxaxa/chipng/service/storage"
	"github.com/rbxxaxa/chipng/tracing"
	"github.com/viant/afs"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Version is the library version reported in traces
const Version = "0.1.0"

// SetLogger installs the logger shared by every chipng package. Passing nil
// silences logging again.
func SetLogger(logger *slog.Logger) {
	logging.Set(logger)
}

// Service wires the scheduler, executor, storage and batch runner
type Service struct {
	config     *Config
	fs         afs.Service
	executor   executor.Service
	exporter   sdktrace.SpanExporter
	onProgress func(progress.Counters)

	scheduler *scheduler.Service
	storage   *storage.Service
	batch     *batch.Service
}

// New creates a service; Start must be called before submitting work is
// processed.
func New(options ...Option) (*Service, error) {
	ret := &Service{config: DefaultConfig()}
	for _, option := range options {
		option(ret)
	}
	if err := ret.init(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) init() error {
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.config.Tracing.Enabled {
		var err error
		if s.exporter != nil {
			err = tracing.InitWithExporter(s.config.Tracing.ServiceName, s.config.Tracing.ServiceVersion, s.exporter)
		} else {
			err = tracing.Init(s.config.Tracing.ServiceName, s.config.Tracing.ServiceVersion, s.config.Tracing.OutputFile)
		}
		if err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	if s.executor == nil {
		s.executor = executor.NewService()
	}
	var err error
	s.scheduler, err = scheduler.New(
		scheduler.WithConfig(s.config.Scheduler),
		scheduler.WithExecutor(s.executor),
		scheduler.WithProgressListener(s.onProgress),
	)
	if err != nil {
		return err
	}
	s.storage = storage.New(s.fs)
	s.batch = batch.New(s.storage, s.scheduler)
	return nil
}

// Config returns the effective configuration
func (s *Service) Config() *Config {
	return s.config
}

// Scheduler returns the worker pool
func (s *Service) Scheduler() *scheduler.Service {
	return s.scheduler
}

// Storage returns the afs backed asset storage
func (s *Service) Storage() *storage.Service {
	return s.storage
}

// Start launches the workers
func (s *Service) Start(ctx context.Context) error {
	return s.scheduler.Start(ctx)
}

// Submit queues an image; callback, when not nil, runs exactly once on the
// worker that finished the job.
func (s *Service) Submit(ctx context.Context, image *bleed.Buffer, callback job.Callback) (*job.Handle, error) {
	return s.scheduler.Submit(ctx, image, callback)
}

// Bleed submits an image and waits for its result
func (s *Service) Bleed(ctx context.Context, image *bleed.Buffer) (*bleed.Result, error) {
	handle, err := s.scheduler.Submit(ctx, image, nil)
	if err != nil {
		return nil, err
	}
	result, err := handle.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if result.Err != nil {
		return nil, result.Err
	}
	return &bleed.Result{Buffer: result.Output, Stats: result.Stats}, nil
}

// Run processes a batch of image files. Output settings left empty on the
// request come from the configuration.
func (s *Service) Run(ctx context.Context, request *batch.Request) (*batch.Report, error) {
	if request == nil {
		return nil, errors.New("batch request was nil")
	}
	req := *request
	if req.Format == "" {
		req.Format = s.config.Output.Format
	}
	if req.Suffix == "" {
		req.Suffix = s.config.Output.Suffix
	}
	if req.Archive == "" {
		req.Archive = s.config.Output.Archive
	}
	if req.ArchiveMethod == "" {
		req.ArchiveMethod = s.config.Output.ArchiveMethod
	}
	report, err := s.batch.Run(ctx, &req)
	if report != nil {
		logging.Logger().Info("batch finished", "items", len(report.Items), "failed", report.Failed())
	}
	return report, err
}

// Progress returns the pool counters
func (s *Service) Progress() progress.Counters {
	return s.scheduler.Progress()
}

// Shutdown drains the pool, see scheduler.Service.Shutdown, and flushes
// traces.
func (s *Service) Shutdown(ctx context.Context) error {
	err := s.scheduler.Shutdown(ctx)
	if s.config.Tracing.Enabled {
		if tErr := tracing.Shutdown(ctx); tErr != nil && err == nil {
			err = tErr
		}
	}
	return err
}
