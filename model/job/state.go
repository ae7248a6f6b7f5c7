package job

// State represents a job's lifecycle state.
type State string

const (
	StateQueued     State = "queued"
	StateDispatched State = "dispatched"
	StateRunning    State = "running"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// IsTerminal reports whether the state is completed or failed.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}
