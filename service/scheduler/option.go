package scheduler

import (
	"github.com/rbxxaxa/chipng/model/job"
	"github.com/rbxxaxa/chipng/progress"
	"github.com/rbxxaxa/chipng/service/dao"
	"github.com/rbxxaxa/chipng/service/executor"
	"github.com/rbxxaxa/chipng/service/messaging/memory"
)

// Option configures the scheduler service.
type Option func(*Service)

// WithWorkers sets the number of worker goroutines
func WithWorkers(count int) Option {
	return func(s *Service) {
		s.config.WorkerCount = count
	}
}

// WithMaxWorkers sets the upper bound applied to the worker count
func WithMaxWorkers(count int) Option {
	return func(s *Service) {
		s.config.MaxWorkers = count
	}
}

// WithConfig sets the configuration for the service
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithExecutor sets the job executor
func WithExecutor(executor executor.Service) Option {
	return func(s *Service) {
		s.executor = executor
	}
}

// WithQueue sets the job queue implementation
func WithQueue(queue *memory.Queue[job.Job]) Option {
	return func(s *Service) {
		s.queue = queue
	}
}

// WithJobDAO sets the registry holding in-flight job records
func WithJobDAO(jobDAO dao.Service[string, job.Record]) Option {
	return func(s *Service) {
		s.jobDAO = jobDAO
	}
}

// WithProgressListener registers a callback invoked after every counter
// change.
func WithProgressListener(fn func(progress.Counters)) Option {
	return func(s *Service) {
		s.onProgress = fn
	}
}
