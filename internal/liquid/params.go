package liquid

// Params holds the tunable constants of the flow model.
type Params struct {
	// MaxValue is the volume of one full cell.
	MaxValue float32
	// MinValue is the smallest volume a cell keeps; anything below is cleared.
	MinValue float32
	// MaxCompression is the extra volume a cell may hold over the cell above it.
	MaxCompression float32
	// MinFlow is the flow above which FlowSpeed scaling applies.
	MinFlow float32
	// MaxFlow caps the volume moved to a single neighbour per tick.
	MaxFlow float32
	// FlowSpeed scales flows above MinFlow, in (0, 1].
	FlowSpeed float32
	// SettleTicks is the number of consecutive no-flow ticks before a cell
	// settles.
	SettleTicks int
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		MaxValue:       1.0,
		MinValue:       0.001,
		MaxCompression: 0.25,
		MinFlow:        0.05,
		MaxFlow:        1.0,
		FlowSpeed:      1.0,
		SettleTicks:    10,
	}
}

// sanitized replaces unusable values with defaults so Step never divides by
// zero or settles immediately.
func (p Params) sanitized() Params {
	d := DefaultParams()
	if p.MaxValue <= 0 {
		p.MaxValue = d.MaxValue
	}
	if p.MinValue < 0 {
		p.MinValue = d.MinValue
	}
	if p.MaxCompression < 0 {
		p.MaxCompression = 0
	}
	if p.MaxValue+p.MaxCompression <= 0 {
		p.MaxCompression = d.MaxCompression
	}
	if p.MinFlow < 0 {
		p.MinFlow = 0
	}
	if p.MaxFlow <= 0 {
		p.MaxFlow = d.MaxFlow
	}
	if p.FlowSpeed <= 0 || p.FlowSpeed > 1 {
		p.FlowSpeed = d.FlowSpeed
	}
	if p.SettleTicks <= 0 {
		p.SettleTicks = d.SettleTicks
	}
	return p
}

// verticalFlowValue returns the volume the lower of two stacked cells should
// hold once pressure is accounted for, given the volume still available in
// the flowing cell and the destination's current volume.
func (p Params) verticalFlowValue(remaining float32, destination float32) float32 {
	sum := remaining + destination
	switch {
	case sum <= p.MaxValue:
		return p.MaxValue
	case sum < 2*p.MaxValue+p.MaxCompression:
		return (p.MaxValue*p.MaxValue + sum*p.MaxCompression) / (p.MaxValue + p.MaxCompression)
	default:
		return (sum + p.MaxCompression) / 2
	}
}
