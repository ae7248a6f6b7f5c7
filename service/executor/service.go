package executor

import (
	"context"
	"fmt"

	"github.com/rbxxaxa/chipng/bleed"
	"github.com/rbxxaxa/chipng/model/job"
	"github.com/rbxxaxa/chipng/tracing"
)

// Engine processes one image.
type Engine func(src *bleed.Buffer) (*bleed.Result, error)

// Listener is invoked once an engine run completes, regardless of whether it
// returned an error. Implementations can log or collect metrics; result is
// nil on failure.
type Listener func(j *job.Job, result *bleed.Result, err error)

// Option is used to customise the executor instance.
type Option func(*service)

// WithEngine overrides the engine, bleed.Process by default.
func WithEngine(engine Engine) Option {
	return func(s *service) {
		s.engine = engine
	}
}

// WithListener sets the listener invoked after every run. Passing nil
// disables the callback.
func WithListener(l Listener) Option {
	return func(s *service) {
		s.listener = l
	}
}

// Service runs a job's image through the engine.
type Service interface {
	Execute(ctx context.Context, j *job.Job) (*bleed.Result, error)
}

// service is the concrete implementation of Service.
type service struct {
	engine   Engine
	listener Listener
}

// Execute runs the engine on the job's image. A panicking engine is reported
// as an error wrapping ErrPanic.
func (s *service) Execute(ctx context.Context, j *job.Job) (result *bleed.Result, err error) {
	_, span := tracing.StartSpan(ctx, "executor.Execute", "INTERNAL")
	span.WithAttributes(map[string]string{"job.id": j.ID, "job.name": j.Name})
	defer func() {
		tracing.EndSpan(span, err)
		if s.listener != nil {
			s.listener(j, result, err)
		}
	}()
	if img := j.Image; img != nil {
		span.WithInt("image.width", img.Width).WithInt("image.height", img.Height)
	}

	result, err = s.run(j.Image)
	if err != nil {
		return nil, err
	}
	span.WithInt("bleed.passes", result.Stats.Passes).WithInt("bleed.resolved", result.Stats.Resolved)
	return result, nil
}

func (s *service) run(src *bleed.Buffer) (result *bleed.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return s.engine(src)
}

// NewService creates an executor backed by bleed.Process unless an engine
// option says otherwise.
func NewService(opts ...Option) Service {
	ret := &service{engine: bleed.Process}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}
