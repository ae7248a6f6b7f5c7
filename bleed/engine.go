package bleed

import "math"

// maxPriority tags opaque pixels. Each propagation pass tags the pixels it
// resolves with a priority one lower than the previous pass.
const maxPriority = math.MaxInt32

// Stats describes a single engine run.
type Stats struct {
	// Passes is the number of propagation passes executed.
	Passes int `json:"passes"`
	// Pending is the number of pixels pending after classification.
	Pending int `json:"pending"`
	// Resolved is the number of pixels that received a colour.
	Resolved int `json:"resolved"`
	// Dropped is the number of pixels that ran out of stall budget.
	Dropped int `json:"dropped,omitempty"`
}

// Result holds the bled buffer and run statistics.
type Result struct {
	Buffer *Buffer
	Stats  Stats
}

// Bleed returns a copy of src in which every transparent pixel reachable from
// opaque content carries an averaged colour. Alpha is never modified.
func Bleed(src *Buffer) (*Buffer, error) {
	result, err := Process(src)
	if err != nil {
		return nil, err
	}
	return result.Buffer, nil
}

// Process runs the engine and reports statistics alongside the output. The
// source buffer is left untouched.
func Process(src *Buffer) (*Result, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	out := src.Clone()
	g := newGrid(out)
	active := g.classify()
	stats := Stats{Pending: len(active)}
	g.propagate(active, &stats)
	return &Result{Buffer: out, Stats: stats}, nil
}

// grid holds the per-run scratch state, co-indexed with the pixel buffer.
type grid struct {
	width  int
	height int
	pix    []uint8
	state  []State
	// priority holds maxPriority for opaque pixels, the pass priority for
	// resolved pixels, and the remaining stall budget for pending ones.
	priority []int32
	budget   int32
}

func newGrid(buf *Buffer) *grid {
	n := buf.Width * buf.Height
	budget := buf.Width
	if buf.Height > budget {
		budget = buf.Height
	}
	return &grid{
		width:    buf.Width,
		height:   buf.Height,
		pix:      buf.Pix,
		state:    make([]State, n),
		priority: make([]int32, n),
		budget:   int32(budget),
	}
}

func (g *grid) alpha(i int) uint8 {
	return g.pix[i*RGBAChannels+3]
}

// classify tags every pixel and returns the initial work list.
func (g *grid) classify() []int {
	var active []int
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			i := y*g.width + x
			if g.alpha(i) != 0 {
				g.state[i] = Opaque
				g.priority[i] = maxPriority
				continue
			}
			if g.touchesOpaque(x, y) {
				g.state[i] = Pending
				g.priority[i] = g.budget
				active = append(active, i)
				continue
			}
			g.state[i] = Loose
		}
	}
	return active
}

func (g *grid) touchesOpaque(x, y int) bool {
	for dy := -1; dy <= 1; dy++ {
		ny := y + dy
		if ny < 0 || ny >= g.height {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			nx := x + dx
			if (dx == 0 && dy == 0) || nx < 0 || nx >= g.width {
				continue
			}
			if g.alpha(ny*g.width+nx) != 0 {
				return true
			}
		}
	}
	return false
}

// propagate runs passes until the work list drains.
func (g *grid) propagate(active []int, stats *Stats) {
	next := make([]int, 0, len(active))
	for pass := 1; len(active) > 0; pass++ {
		level := int32(maxPriority - pass)
		for _, i := range active {
			x, y := i%g.width, i/g.width
			r, gr, b, count := g.sample(x, y, level)
			if count == 0 {
				g.priority[i]--
				if g.priority[i] <= 0 {
					stats.Dropped++
					continue
				}
				next = append(next, i)
				continue
			}
			o := i * RGBAChannels
			g.pix[o+0] = uint8(r / count)
			g.pix[o+1] = uint8(gr / count)
			g.pix[o+2] = uint8(b / count)
			g.state[i] = Resolved
			g.priority[i] = level
			stats.Resolved++
			next = g.promote(x, y, next)
		}
		stats.Passes = pass
		active, next = next, active[:0]
	}
}

// sample sums the colour of neighbours that were sources before the pass
// tagged with level began.
func (g *grid) sample(x, y int, level int32) (r, gr, b, count int) {
	for dy := -1; dy <= 1; dy++ {
		ny := y + dy
		if ny < 0 || ny >= g.height {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			nx := x + dx
			if (dx == 0 && dy == 0) || nx < 0 || nx >= g.width {
				continue
			}
			n := ny*g.width + nx
			if !g.state[n].IsSource() || g.priority[n] <= level {
				continue
			}
			o := n * RGBAChannels
			r += int(g.pix[o+0])
			gr += int(g.pix[o+1])
			b += int(g.pix[o+2])
			count++
		}
	}
	return r, gr, b, count
}

// promote moves loose neighbours of (x, y) into the next work list.
func (g *grid) promote(x, y int, next []int) []int {
	for dy := -1; dy <= 1; dy++ {
		ny := y + dy
		if ny < 0 || ny >= g.height {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			nx := x + dx
			if (dx == 0 && dy == 0) || nx < 0 || nx >= g.width {
				continue
			}
			n := ny*g.width + nx
			if g.state[n] != Loose {
				continue
			}
			g.state[n] = Pending
			g.priority[n] = g.budget
			next = append(next, n)
		}
	}
	return next
}
