package bleed

// State classifies a pixel for the duration of a single engine run.
type State uint8

const (
	// Loose is a transparent pixel with no opaque neighbour; it waits until
	// a neighbour is resolved.
	Loose State = iota
	// Pending is a transparent pixel eligible for colour in the current or
	// a later pass.
	Pending
	// Resolved is a former pending pixel that received an averaged colour.
	Resolved
	// Opaque is a pixel with nonzero alpha at the start of the run.
	Opaque
)

func (s State) String() string {
	switch s {
	case Loose:
		return "loose"
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Opaque:
		return "opaque"
	}
	return "unknown"
}

// IsSource reports whether the pixel can lend its colour to a neighbour.
func (s State) IsSource() bool {
	return s == Opaque || s == Resolved
}
