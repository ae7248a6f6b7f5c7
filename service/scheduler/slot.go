package scheduler

// SlotState represents a worker slot state.
type SlotState string

const (
	SlotIdle SlotState = "idle"
	SlotBusy SlotState = "busy"
)

// Slot describes one worker and the job bound to it, if any.
type Slot struct {
	ID    int       `json:"id"`
	State SlotState `json:"state"`
	JobID string    `json:"jobId,omitempty"`
}
