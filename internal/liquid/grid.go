package liquid

// Grid stores cells in row-major order. Neighbours are resolved by index
// arithmetic, so the grid never hands out references that outlive a resize;
// it is never resized anyway.
type Grid struct {
	w, h  int
	cells []Cell
}

// NewGrid allocates a w*h grid of empty Blank cells wrapped in a one-cell
// Solid border. Dimensions below 3 are raised to 3 so at least one interior
// cell exists.
func NewGrid(w, h int) *Grid {
	if w < 3 {
		w = 3
	}
	if h < 3 {
		h = 3
	}
	g := &Grid{w: w, h: h, cells: make([]Cell, w*h)}
	g.sealBorder()
	return g
}

func (g *Grid) sealBorder() {
	for x := 0; x < g.w; x++ {
		g.cells[g.Index(x, 0)] = Cell{Type: Solid}
		g.cells[g.Index(x, g.h-1)] = Cell{Type: Solid}
	}
	for y := 0; y < g.h; y++ {
		g.cells[g.Index(0, y)] = Cell{Type: Solid}
		g.cells[g.Index(g.w-1, y)] = Cell{Type: Solid}
	}
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.w }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.h }

// Cells exposes the backing slice in row-major order. Callers must treat it as
// read-only: edit through SetCellType and AddLiquid, since Step owns the
// settle state and Flow.
func (g *Grid) Cells() []Cell { return g.cells }

// Index returns the linear slice index for coordinates (x, y).
func (g *Grid) Index(x, y int) int { return y*g.w + x }

// InBounds reports whether (x, y) addresses a cell.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.w && y >= 0 && y < g.h
}

// OnBorder reports whether (x, y) is part of the guaranteed Solid frame.
func (g *Grid) OnBorder(x, y int) bool {
	return x == 0 || y == 0 || x == g.w-1 || y == g.h-1
}

// At returns the cell at (x, y), or nil when out of bounds.
func (g *Grid) At(x, y int) *Cell {
	if !g.InBounds(x, y) {
		return nil
	}
	return &g.cells[g.Index(x, y)]
}

// Neighbor returns the cell adjacent to (x, y) in direction d, or nil at the
// edge of the grid.
func (g *Grid) Neighbor(x, y int, d Direction) *Cell {
	dx, dy := d.Offset()
	return g.At(x+dx, y+dy)
}

// SetCellType changes the type of the cell at (x, y). Making a cell Solid
// drops its liquid. Either way the four neighbours are unsettled so they
// re-evaluate on the next tick. It reports false for out-of-bounds
// coordinates.
func (g *Grid) SetCellType(x, y int, t CellType) bool {
	c := g.At(x, y)
	if c == nil {
		return false
	}
	c.Type = t
	if t == Solid {
		c.Liquid = 0
	}
	g.UnsettleNeighbors(x, y)
	return true
}

// AddLiquid pours amount into the cell at (x, y) and unsettles it. Solid cells
// ignore the pour. Neighbours are not touched; they are unsettled by the flow
// the pour causes.
func (g *Grid) AddLiquid(x, y int, amount float32) bool {
	c := g.At(x, y)
	if c == nil {
		return false
	}
	if c.Type == Solid {
		return true
	}
	c.Liquid += amount
	if c.Liquid < 0 {
		c.Liquid = 0
	}
	c.SetSettled(false)
	return true
}

// UnsettleNeighbors forces the orthogonal neighbours of (x, y) to simulate on
// the next tick.
func (g *Grid) UnsettleNeighbors(x, y int) {
	for _, d := range Directions {
		if n := g.Neighbor(x, y, d); n != nil {
			n.SetSettled(false)
		}
	}
}

// Clear empties every cell and restores the border. Settle state is reset.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = Cell{}
	}
	g.sealBorder()
}

// Stats summarises the current liquid state of a grid.
type Stats struct {
	TotalLiquid float64 `json:"total_liquid"`
	Wet         int     `json:"wet"`
	Settled     int     `json:"settled"`
	Flowing     int     `json:"flowing"`
	Solid       int     `json:"solid"`
}

// Stats walks the grid and returns aggregate counters. Totals are summed in
// float64 to keep rounding out of mass-drift measurements.
func (g *Grid) Stats() Stats {
	var s Stats
	for i := range g.cells {
		c := &g.cells[i]
		if c.Type == Solid {
			s.Solid++
			continue
		}
		if c.Liquid <= 0 {
			continue
		}
		s.Wet++
		s.TotalLiquid += float64(c.Liquid)
		if c.settled {
			s.Settled++
		}
		if !c.Flow.Empty() {
			s.Flowing++
		}
	}
	return s
}
