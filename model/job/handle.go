package job

import "context"

// Handle lets a submitter wait for a job without polling.
type Handle struct {
	ID     string
	done   chan struct{}
	result *Result
}

func newHandle(id string) *Handle {
	return &Handle{ID: id, done: make(chan struct{})}
}

// Done is closed once the job's callback has run.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result returns the job result, or nil while the job is still in flight.
func (h *Handle) Result() *Result {
	select {
	case <-h.done:
		return h.result
	default:
		return nil
	}
}

// Wait blocks until the job is terminal or ctx is done.
func (h *Handle) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-h.done:
		return h.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Handle) resolve(result *Result) {
	h.result = result
	close(h.done)
}
