package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/rbxxaxa/chipng/bleed"
	"github.com/rbxxaxa/chipng/internal/idgen"
	"github.com/rbxxaxa/chipng/internal/logging"
	"github.com/rbxxaxa/chipng/model/job"
	"github.com/rbxxaxa/chipng/progress"
	"github.com/rbxxaxa/chipng/service/dao"
	"github.com/rbxxaxa/chipng/service/dao/criteria"
	"github.com/rbxxaxa/chipng/service/dao/store"
	"github.com/rbxxaxa/chipng/service/executor"
	"github.com/rbxxaxa/chipng/service/messaging"
	"github.com/rbxxaxa/chipng/service/messaging/memory"
)

// Config represents scheduler configuration
type Config struct {
	// WorkerCount is the number of workers running jobs
	WorkerCount int `json:"workers" yaml:"workers"`

	// MaxWorkers caps WorkerCount, usually at the available parallelism
	MaxWorkers int `json:"maxWorkers" yaml:"maxWorkers"`
}

// DefaultConfig returns one worker per available CPU
func DefaultConfig() Config {
	n := runtime.GOMAXPROCS(0)
	return Config{
		WorkerCount: n,
		MaxWorkers:  n,
	}
}

// Workers returns WorkerCount clamped to [1, MaxWorkers]. A non-positive
// MaxWorkers means the available parallelism.
func (c Config) Workers() int {
	limit := c.MaxWorkers
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	n := c.WorkerCount
	if n > limit {
		n = limit
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Service owns the job queue and the fixed worker slot table
type Service struct {
	config     Config
	queue      *memory.Queue[job.Job]
	executor   executor.Service
	jobDAO     dao.Service[string, job.Record]
	progress   *progress.Progress
	onProgress func(progress.Counters)

	mu       sync.Mutex
	slots    []Slot
	dead     []*job.Record
	started  bool
	stopping bool
	cancel   context.CancelFunc

	workerWg sync.WaitGroup
}

type worker struct {
	id      int
	service *Service
	ctx     context.Context
}

// New creates a scheduler; Start must be called before jobs run.
func New(options ...Option) (*Service, error) {
	s := &Service{config: DefaultConfig()}
	for _, opt := range options {
		opt(s)
	}
	if s.executor == nil {
		s.executor = executor.NewService()
	}
	if s.queue == nil {
		s.queue = memory.NewQueue[job.Job](memory.DefaultConfig())
	}
	if s.jobDAO == nil {
		s.jobDAO = store.NewMemoryStore[string, job.Record](func(r *job.Record) string { return r.ID }).
			WithFilter(func(r *job.Record, parameters []*dao.Parameter) bool {
				return criteria.FilterByState(string(r.State), parameters)
			})
	}
	s.progress = progress.New(s.onProgress)
	return s, nil
}

// Start launches the workers. Cancelling ctx makes workers exit after their
// current job; Shutdown must still be called to settle queued jobs.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopping {
		return ErrAlreadyStarted
	}
	s.started = true

	count := s.config.Workers()
	workerCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.slots = make([]Slot, count)
	for i := 0; i < count; i++ {
		s.slots[i] = Slot{ID: i, State: SlotIdle}
		w := &worker{id: i, service: s, ctx: workerCtx}
		s.workerWg.Add(1)
		go w.run()
	}
	logging.Logger().Info("scheduler started", "workers", count)
	return nil
}

// Submit queues an image for bleeding and returns immediately.
func (s *Service) Submit(ctx context.Context, image *bleed.Buffer, callback job.Callback) (*job.Handle, error) {
	return s.SubmitNamed(ctx, "", image, callback)
}

// SubmitNamed is Submit with a caller label, usually the source file name,
// carried through to the job record and result.
func (s *Service) SubmitNamed(ctx context.Context, name string, image *bleed.Buffer, callback job.Callback) (*job.Handle, error) {
	s.mu.Lock()
	stopping := s.stopping
	s.mu.Unlock()
	if stopping {
		return nil, ErrShutdown
	}

	aJob := job.New(idgen.New(), name, image, callback)
	if err := s.jobDAO.Save(ctx, aJob.Record()); err != nil {
		return nil, fmt.Errorf("failed to register job: %w", err)
	}
	s.progress.Update(progress.Delta{Total: 1, Queued: 1})
	if err := s.queue.Publish(ctx, aJob); err != nil {
		_ = s.jobDAO.Delete(ctx, aJob.ID)
		s.progress.Update(progress.Delta{Total: -1, Queued: -1})
		if errors.Is(err, messaging.ErrQueueClosed) {
			return nil, ErrShutdown
		}
		return nil, err
	}
	logging.Logger().Debug("job queued", "job.id", aJob.ID, "job.name", name)
	return aJob.Handle(), nil
}

// run consumes jobs until the queue is closed and drained or the worker
// context is cancelled
func (w *worker) run() {
	defer w.service.workerWg.Done()
	for {
		if w.ctx.Err() != nil {
			return
		}
		msg, err := w.service.queue.Consume(w.ctx)
		if err != nil {
			return
		}
		w.service.process(w.ctx, w.id, msg)
	}
}

// process runs a single job on the given worker slot
func (s *Service) process(ctx context.Context, workerID int, message messaging.Message[job.Job]) {
	aJob := message.T()
	s.bind(workerID, aJob.ID)
	defer s.release(workerID)

	aJob.Dispatch(workerID)
	s.save(ctx, aJob)
	s.progress.Update(progress.Delta{Queued: -1, Running: 1})
	logging.Logger().Debug("job dispatched", "job.id", aJob.ID, "worker", workerID)

	aJob.Start()
	s.save(ctx, aJob)
	result, err := s.executor.Execute(ctx, aJob)
	if err == nil && result == nil {
		err = fmt.Errorf("job %s: executor returned no result", aJob.ID)
	}
	if err != nil {
		aJob.Fail(err)
		_ = message.Nack(err)
		s.bury(aJob)
		s.progress.Update(progress.Delta{Running: -1, Failed: 1})
		logging.Logger().Warn("job failed", "job.id", aJob.ID, "job.name", aJob.Name, "error", err)
	} else {
		aJob.Complete(result.Buffer, result.Stats)
		_ = message.Ack()
		s.progress.Update(progress.Delta{Running: -1, Completed: 1})
		logging.Logger().Debug("job completed", "job.id", aJob.ID, "passes", result.Stats.Passes)
	}
	s.finish(ctx, aJob)
}

// finish records the terminal state, runs the callback and forgets the job
func (s *Service) finish(ctx context.Context, aJob *job.Job) {
	s.save(ctx, aJob)
	aJob.Notify()
	_ = s.jobDAO.Delete(ctx, aJob.ID)
}

func (s *Service) save(ctx context.Context, aJob *job.Job) {
	if err := s.jobDAO.Save(ctx, aJob.Record()); err != nil {
		logging.Logger().Warn("failed to save job record", "job.id", aJob.ID, "error", err)
	}
}

// bury keeps a snapshot of a failed job; the owner calls it before the job
// is released
func (s *Service) bury(aJob *job.Job) {
	record := aJob.Record()
	s.mu.Lock()
	s.dead = append(s.dead, record)
	s.mu.Unlock()
}

func (s *Service) bind(workerID int, jobID string) {
	s.mu.Lock()
	s.slots[workerID] = Slot{ID: workerID, State: SlotBusy, JobID: jobID}
	s.mu.Unlock()
}

func (s *Service) release(workerID int) {
	s.mu.Lock()
	s.slots[workerID] = Slot{ID: workerID, State: SlotIdle}
	s.mu.Unlock()
}

// Shutdown stops intake and waits for the workers to drain the queue. When
// ctx is done first, workers stop after their current job (a running bleed
// is never interrupted) and every job still queued fails with ErrShutdown.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	started := s.started
	cancel := s.cancel
	s.mu.Unlock()

	_ = s.queue.Close()
	var err error
	if started {
		done := make(chan struct{})
		go func() {
			s.workerWg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = ctx.Err()
			cancel()
			<-done
		}
		cancel()
	}
	s.failQueued(context.Background())
	logging.Logger().Info("scheduler stopped", "progress", s.progress.Snapshot())
	return err
}

func (s *Service) failQueued(ctx context.Context) {
	for _, msg := range s.queue.Drain() {
		aJob := msg.T()
		aJob.Fail(ErrShutdown)
		_ = msg.Nack(ErrShutdown)
		s.bury(aJob)
		s.progress.Update(progress.Delta{Queued: -1, Failed: 1})
		s.finish(ctx, aJob)
	}
}

// Slots returns a snapshot of the worker slot table
func (s *Service) Slots() []Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]Slot, len(s.slots))
	copy(ret, s.slots)
	return ret
}

// Workers returns the effective worker count
func (s *Service) Workers() int {
	return s.config.Workers()
}

// Progress returns the current job counters
func (s *Service) Progress() progress.Counters {
	return s.progress.Snapshot()
}

// Job returns the record of an in-flight job
func (s *Service) Job(ctx context.Context, id string) (*job.Record, error) {
	return s.jobDAO.Load(ctx, id)
}

// Jobs lists in-flight job records, optionally restricted to given states
func (s *Service) Jobs(ctx context.Context, states ...job.State) ([]*job.Record, error) {
	if len(states) == 0 {
		return s.jobDAO.List(ctx)
	}
	values := make([]string, len(states))
	for i, state := range states {
		values[i] = string(state)
	}
	return s.jobDAO.List(ctx, &dao.Parameter{Name: criteria.StateParameter, Value: values})
}

// DeadLetters returns the records of failed jobs, frozen at failure time
func (s *Service) DeadLetters() []*job.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]*job.Record, len(s.dead))
	copy(ret, s.dead)
	return ret
}
