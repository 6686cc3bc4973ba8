package liquid

// CellType distinguishes passable cells from walls.
type CellType uint8

const (
	// Blank cells may hold liquid.
	Blank CellType = iota
	// Solid cells never hold liquid and never receive flow.
	Solid
)

// Direction names one of the four orthogonal neighbours.
type Direction uint8

const (
	Top Direction = iota
	Right
	Bottom
	Left
)

// Directions lists the neighbours in bitmask order.
var Directions = [4]Direction{Top, Right, Bottom, Left}

// Offset returns the grid delta for d. Y grows downwards.
func (d Direction) Offset() (int, int) {
	switch d {
	case Top:
		return 0, -1
	case Right:
		return 1, 0
	case Bottom:
		return 0, 1
	default:
		return -1, 0
	}
}

// FlowSet records the directions liquid left a cell during the last tick.
// The bit layout is Top=1, Right=2, Bottom=4, Left=8.
type FlowSet uint8

// Has reports whether d is in the set.
func (f FlowSet) Has(d Direction) bool { return f&(1<<d) != 0 }

// With returns the set with d added.
func (f FlowSet) With(d Direction) FlowSet { return f | 1<<d }

// Empty reports whether no flow was recorded.
func (f FlowSet) Empty() bool { return f == 0 }

// Cell is the per-position simulation record.
//
// Type and Liquid are shared with the host: edits go through Grid.SetCellType
// and Grid.AddLiquid, presentation reads them directly. The settle fields and
// Flow are written by the Simulator during Step and only read elsewhere.
type Cell struct {
	Type   CellType
	Liquid float32
	Flow   FlowSet

	settled     bool
	settleCount int
}

// Settled reports whether the cell is skipped by the flow pass.
func (c *Cell) Settled() bool { return c.settled }

// SetSettled updates the settled flag. Clearing it restarts the settle count.
func (c *Cell) SetSettled(v bool) {
	c.settled = v
	if !v {
		c.settleCount = 0
	}
}

// SettleCount returns the number of consecutive ticks without flow.
func (c *Cell) SettleCount() int { return c.settleCount }

// Blank reports whether the cell can hold liquid.
func (c *Cell) Blank() bool { return c.Type == Blank }
