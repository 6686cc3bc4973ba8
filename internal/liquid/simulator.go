package liquid

// Simulator advances a Grid one tick at a time. It keeps only its Params and
// a delta buffer reused between ticks, so one Simulator can drive any grid.
//
// Step is not safe for concurrent use, and the grid must not be edited while
// a Step is running.
type Simulator struct {
	params Params
	diffs  []float32
}

// NewSimulator returns a Simulator using p. Unusable values fall back to the
// defaults.
func NewSimulator(p Params) *Simulator {
	return &Simulator{params: p.sanitized()}
}

// Params returns the active constants.
func (s *Simulator) Params() Params { return s.params }

// SetParams replaces the active constants. It takes effect on the next Step.
func (s *Simulator) SetParams(p Params) { s.params = p.sanitized() }

// Step runs one tick: pass one computes every flow from pre-tick liquid values
// into the delta buffer, pass two applies the buffer. Only the settled flags
// written during pass one are visible to cells scanned later in the same tick.
func (s *Simulator) Step(g *Grid) {
	total := g.w * g.h
	if cap(s.diffs) < total {
		s.diffs = make([]float32, total)
	}
	s.diffs = s.diffs[:total]
	for i := range s.diffs {
		s.diffs[i] = 0
	}

	for x := 0; x < g.w; x++ {
		for y := 0; y < g.h; y++ {
			s.flowCell(g, x, y)
		}
	}

	for i, d := range s.diffs {
		if d == 0 {
			continue
		}
		c := &g.cells[i]
		c.Liquid += d
		if c.Liquid < 0 {
			c.Liquid = 0
		}
	}
}

func (s *Simulator) flowCell(g *Grid, x, y int) {
	p := s.params
	idx := g.Index(x, y)
	cell := &g.cells[idx]
	cell.Flow = 0

	if cell.Type == Solid {
		cell.Liquid = 0
		return
	}
	if cell.Liquid == 0 || cell.settled {
		return
	}
	if cell.Liquid < p.MinValue {
		s.drain(cell, idx, cell.Liquid)
		return
	}

	start := cell.Liquid
	remaining := cell.Liquid

	// Bottom is clamped against the tick-start volume, the lateral and upward
	// flows against what is left.
	if bottom := g.Neighbor(x, y, Bottom); bottom != nil && bottom.Type == Blank {
		flow := p.verticalFlowValue(cell.Liquid, bottom.Liquid) - bottom.Liquid
		if bottom.Liquid > 0 && flow > p.MinFlow {
			flow *= p.FlowSpeed
		}
		flow = clampFlow(flow, min(p.MaxFlow, cell.Liquid))
		if flow != 0 {
			remaining -= flow
			s.move(g, cell, idx, bottom, x, y+1, Bottom, flow)
		}
	}
	if remaining < p.MinValue {
		s.drain(cell, idx, remaining)
		return
	}

	if left := g.Neighbor(x, y, Left); left != nil && left.Type == Blank {
		flow := (remaining - left.Liquid) / 4
		if flow > p.MinFlow {
			flow *= p.FlowSpeed
		}
		flow = clampFlow(flow, min(p.MaxFlow, remaining))
		if flow != 0 {
			remaining -= flow
			s.move(g, cell, idx, left, x-1, y, Left, flow)
		}
	}
	if remaining < p.MinValue {
		s.drain(cell, idx, remaining)
		return
	}

	if right := g.Neighbor(x, y, Right); right != nil && right.Type == Blank {
		flow := (remaining - right.Liquid) / 3
		if flow > p.MinFlow {
			flow *= p.FlowSpeed
		}
		flow = clampFlow(flow, min(p.MaxFlow, remaining))
		if flow != 0 {
			remaining -= flow
			s.move(g, cell, idx, right, x+1, y, Right, flow)
		}
	}
	if remaining < p.MinValue {
		s.drain(cell, idx, remaining)
		return
	}

	if top := g.Neighbor(x, y, Top); top != nil && top.Type == Blank {
		flow := remaining - p.verticalFlowValue(remaining, top.Liquid)
		if flow > p.MinFlow {
			flow *= p.FlowSpeed
		}
		flow = clampFlow(flow, min(p.MaxFlow, remaining))
		if flow != 0 {
			remaining -= flow
			s.move(g, cell, idx, top, x, y-1, Top, flow)
		}
	}
	if remaining < p.MinValue {
		s.drain(cell, idx, remaining)
		return
	}

	if remaining == start {
		cell.settleCount++
		if cell.settleCount >= p.SettleTicks {
			cell.Flow = 0
			cell.settled = true
		}
		return
	}
	// A cell that moved liquid starts its settle streak over.
	cell.settleCount = 0
	g.UnsettleNeighbors(x, y)
}

// move books flow from the cell at idx into the neighbour at (nx, ny).
func (s *Simulator) move(g *Grid, cell *Cell, idx int, dst *Cell, nx, ny int, d Direction, flow float32) {
	s.diffs[idx] -= flow
	s.diffs[g.Index(nx, ny)] += flow
	cell.Flow = cell.Flow.With(d)
	dst.SetSettled(false)
}

// drain clears a residue below MinValue. The residue is booked through the
// delta buffer so neighbours scanned later still read the pre-tick volume.
func (s *Simulator) drain(cell *Cell, idx int, residue float32) {
	s.diffs[idx] -= residue
	cell.SetSettled(false)
}

func clampFlow(flow, limit float32) float32 {
	if flow < 0 {
		flow = 0
	}
	if flow > limit {
		flow = limit
	}
	return flow
}
