package liquid

import (
	"math"
	"slices"
	"testing"
)

func TestIsolatedCellKeepsLiquid(t *testing.T) {
	g := NewGrid(3, 3)
	g.AddLiquid(1, 1, 0.5)
	sim := NewSimulator(DefaultParams())

	for i := 0; i < 50; i++ {
		sim.Step(g)
		if got := g.At(1, 1).Liquid; got != 0.5 {
			t.Fatalf("tick %d: isolated cell liquid = %v, want 0.5", i, got)
		}
	}
}

func TestCellSettlesAfterTenQuietTicks(t *testing.T) {
	// Interior is a single column of two cells: the upper one holds 0.5 and
	// the lower one holds the matching compressed volume, so nothing flows.
	g := NewGrid(5, 4)
	for _, pos := range [][2]int{{1, 1}, {3, 1}, {1, 2}, {3, 2}} {
		g.SetCellType(pos[0], pos[1], Solid)
	}
	g.AddLiquid(2, 1, 0.5)
	g.AddLiquid(2, 2, 1.125)
	sim := NewSimulator(DefaultParams())

	for tick := 1; tick <= 10; tick++ {
		sim.Step(g)
		cell := g.At(2, 1)
		if tick < 10 && cell.Settled() {
			t.Fatalf("cell settled after %d ticks, want 10", tick)
		}
		if cell.SettleCount() != tick {
			t.Fatalf("settle count after %d ticks = %d", tick, cell.SettleCount())
		}
	}
	if !g.At(2, 1).Settled() {
		t.Fatal("cell should be settled after 10 quiet ticks")
	}
	if !g.At(2, 1).Flow.Empty() {
		t.Fatal("settled cell must not report flow")
	}
	if got := g.At(2, 1).Liquid; got != 0.5 {
		t.Fatalf("settled cell liquid = %v, want 0.5", got)
	}
}

func TestAddLiquidUnsettlesAndFlowPropagates(t *testing.T) {
	g := NewGrid(5, 3)
	g.AddLiquid(2, 1, 0.5)
	center := g.At(2, 1)
	left := g.At(1, 1)
	center.SetSettled(true)
	left.SetSettled(true)

	g.AddLiquid(2, 1, 0.5)
	if center.Settled() {
		t.Fatal("AddLiquid must unsettle the cell")
	}
	if !left.Settled() {
		t.Fatal("AddLiquid must not unsettle neighbours by itself")
	}

	NewSimulator(DefaultParams()).Step(g)

	if !center.Flow.Has(Left) {
		t.Fatalf("expected flow to the left, got %04b", center.Flow)
	}
	if left.Settled() {
		t.Fatal("neighbour receiving flow must be unsettled")
	}
	if left.Liquid <= 0 {
		t.Fatalf("left neighbour liquid = %v, want > 0", left.Liquid)
	}
}

func TestBelowThresholdIsCleared(t *testing.T) {
	g := NewGrid(3, 3)
	g.AddLiquid(1, 1, 0.0009)
	sim := NewSimulator(DefaultParams())

	sim.Step(g)
	cell := g.At(1, 1)
	if cell.Liquid != 0 {
		t.Fatalf("liquid below threshold = %v, want exactly 0", cell.Liquid)
	}
	if cell.Settled() {
		t.Fatal("cleared cell must be unsettled")
	}

	sim.Step(g)
	if cell.Liquid != 0 || !cell.Flow.Empty() || cell.SettleCount() != 0 {
		t.Fatalf("empty cell should be skipped: liquid=%v flow=%04b count=%d", cell.Liquid, cell.Flow, cell.SettleCount())
	}
}

func TestVerticalCompressionConverges(t *testing.T) {
	g := NewGrid(3, 4)
	g.AddLiquid(1, 1, 1.0)
	g.AddLiquid(1, 2, 1.0)
	sim := NewSimulator(DefaultParams())
	p := sim.Params()

	for i := 0; i < 200; i++ {
		sim.Step(g)
		total := g.At(1, 1).Liquid + g.At(1, 2).Liquid
		if total > 2*p.MaxValue+p.MaxCompression {
			t.Fatalf("tick %d: column holds %v, above the compression bound", i, total)
		}
	}

	top := g.At(1, 1).Liquid
	bottom := g.At(1, 2).Liquid
	if math.Abs(float64(top+bottom)-2) > 1e-4 {
		t.Fatalf("column mass = %v, want 2", top+bottom)
	}
	if math.Abs(float64(bottom)-1.2) > 1e-3 {
		t.Fatalf("bottom cell = %v, want about 1.2", bottom)
	}
	if math.Abs(float64(top)-0.8) > 1e-3 {
		t.Fatalf("top cell = %v, want about 0.8", top)
	}
	if bottom > p.MaxValue+p.MaxCompression {
		t.Fatalf("bottom cell = %v exceeds MaxValue+MaxCompression", bottom)
	}
}

func TestBorderNeverHoldsLiquid(t *testing.T) {
	g := NewGrid(12, 8)
	sim := NewSimulator(DefaultParams())
	for tick := 0; tick < 300; tick++ {
		if tick < 100 {
			g.AddLiquid(6, 1, 1.5)
			g.AddLiquid(1, 6, 0.75)
			g.AddLiquid(10, 3, 0.75)
		}
		sim.Step(g)
		for y := 0; y < g.Height(); y++ {
			for x := 0; x < g.Width(); x++ {
				if !g.OnBorder(x, y) {
					continue
				}
				if got := g.At(x, y).Liquid; got != 0 {
					t.Fatalf("tick %d: border cell (%d,%d) holds %v", tick, x, y, got)
				}
			}
		}
	}
}

func TestStepIsDeterministic(t *testing.T) {
	run := func() []uint32 {
		g := NewGrid(20, 12)
		for x := 4; x < 15; x++ {
			g.SetCellType(x, 8, Solid)
		}
		g.SetCellType(9, 5, Solid)
		sim := NewSimulator(DefaultParams())
		for tick := 0; tick < 400; tick++ {
			if tick%3 == 0 && tick < 150 {
				g.AddLiquid(9, 1, 5)
			}
			if tick == 200 {
				g.SetCellType(4, 8, Blank)
			}
			sim.Step(g)
		}
		out := make([]uint32, 0, len(g.Cells()))
		for _, c := range g.Cells() {
			out = append(out, math.Float32bits(c.Liquid))
		}
		return out
	}

	a := run()
	b := run()
	if !slices.Equal(a, b) {
		t.Fatal("identical edit sequences produced different liquid values")
	}
}

func TestLateralDivisorsAndOrder(t *testing.T) {
	g := NewGrid(7, 3)
	g.AddLiquid(3, 1, 1.0)
	NewSimulator(DefaultParams()).Step(g)

	// Left takes a quarter first, Right a third of what is left.
	want := map[int]float32{2: 0.25, 3: 0.5, 4: 0.25}
	for x, v := range want {
		if got := g.At(x, 1).Liquid; got != v {
			t.Fatalf("cell (%d,1) = %v, want %v", x, got, v)
		}
	}
	c := g.At(3, 1)
	if !c.Flow.Has(Left) || !c.Flow.Has(Right) || c.Flow.Has(Top) || c.Flow.Has(Bottom) {
		t.Fatalf("flow set = %04b, want Left|Right", c.Flow)
	}
}

func TestBottomFlowFillsEmptyCellBelow(t *testing.T) {
	g := NewGrid(3, 4)
	g.AddLiquid(1, 1, 0.6)
	NewSimulator(DefaultParams()).Step(g)

	if got := g.At(1, 1).Liquid; got != 0 {
		t.Fatalf("upper cell = %v, want 0", got)
	}
	if got := g.At(1, 2).Liquid; got != 0.6 {
		t.Fatalf("lower cell = %v, want 0.6", got)
	}
	if !g.At(1, 1).Flow.Has(Bottom) {
		t.Fatal("expected bottom flow flag")
	}
}

func TestFlowReadsPreTickValues(t *testing.T) {
	// Both cells of the row are scanned in the same tick; the right cell must
	// see the left cell's pre-tick volume, not the post-flow one.
	g := NewGrid(4, 3)
	g.AddLiquid(1, 1, 0.8)
	g.AddLiquid(2, 1, 0.4)
	NewSimulator(DefaultParams()).Step(g)

	// (1,1): right flow = (0.8-0.4)/3. (2,1): left flow = (0.4-0.8)/4 < 0.
	wantLeft := float32(0.8) - (float32(0.8)-float32(0.4))/3
	if got := g.At(1, 1).Liquid; math.Abs(float64(got-wantLeft)) > 1e-6 {
		t.Fatalf("left cell = %v, want %v", got, wantLeft)
	}
	if g.At(2, 1).Flow.Has(Left) {
		t.Fatal("right cell must not flow uphill into the fuller cell")
	}
}

func TestSolidCellIsForcedDry(t *testing.T) {
	g := NewGrid(4, 4)
	g.At(2, 2).Type = Solid
	g.At(2, 2).Liquid = 3
	NewSimulator(DefaultParams()).Step(g)
	if got := g.At(2, 2).Liquid; got != 0 {
		t.Fatalf("solid cell liquid = %v, want 0", got)
	}
}

func TestSimulatorReusesBufferAcrossGrids(t *testing.T) {
	sim := NewSimulator(DefaultParams())
	big := NewGrid(10, 10)
	big.AddLiquid(5, 5, 2)
	sim.Step(big)

	small := NewGrid(3, 3)
	small.AddLiquid(1, 1, 0.5)
	sim.Step(small)
	if got := small.At(1, 1).Liquid; got != 0.5 {
		t.Fatalf("small grid liquid = %v, want 0.5", got)
	}
}

func TestSettledCellIsSkipped(t *testing.T) {
	g := NewGrid(5, 3)
	g.AddLiquid(2, 1, 1)
	g.At(2, 1).SetSettled(true)
	NewSimulator(DefaultParams()).Step(g)
	if got := g.At(2, 1).Liquid; got != 1 {
		t.Fatalf("settled cell moved liquid: %v", got)
	}
}

func TestVerticalFlowValue(t *testing.T) {
	p := DefaultParams()
	tests := []struct {
		name        string
		remaining   float32
		destination float32
		want        float32
	}{
		{"fits in one cell", 0.3, 0.2, 1.0},
		{"compressed", 1.0, 1.0, 1.2},
		{"equilibrium", 0.5, 1.125, 1.125},
		{"overflowing", 2.0, 1.0, 1.625},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.verticalFlowValue(tt.remaining, tt.destination)
			if math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Fatalf("verticalFlowValue(%v, %v) = %v, want %v", tt.remaining, tt.destination, got, tt.want)
			}
		})
	}
}

func TestNeighbourBelowFlowsInSameTick(t *testing.T) {
	// Column x=2: the upper cell can only flow down, into a settled cell that
	// has room to spread sideways. y is the inner loop, so the lower cell is
	// scanned after it is unsettled and moves liquid in the same Step.
	g := NewGrid(5, 4)
	g.SetCellType(1, 1, Solid)
	g.SetCellType(3, 1, Solid)
	g.AddLiquid(2, 1, 0.6)
	g.AddLiquid(2, 2, 0.4)
	g.At(2, 2).SetSettled(true)

	NewSimulator(DefaultParams()).Step(g)

	lower := g.At(2, 2)
	if lower.Settled() {
		t.Fatal("lower cell should have been unsettled by the flow from above")
	}
	if !lower.Flow.Has(Left) || !lower.Flow.Has(Right) {
		t.Fatalf("lower cell flow = %04b, want Left|Right in the same tick", lower.Flow)
	}
	if got, want := g.At(1, 2).Liquid, float32(0.4)/4; got != want {
		t.Fatalf("left of lower cell = %v, want %v", got, want)
	}
	if !g.At(2, 1).Flow.Has(Bottom) {
		t.Fatal("upper cell should flow down")
	}
}

func TestNeighbourScannedEarlierWaitsOneTick(t *testing.T) {
	// (1,1) is settled over an empty cell and is scanned before (2,1), which
	// unsettles it by flowing left. It only gets to flow on the next tick.
	g := NewGrid(5, 4)
	g.SetCellType(2, 2, Solid)
	g.SetCellType(3, 2, Solid)
	g.AddLiquid(1, 1, 0.5)
	g.At(1, 1).SetSettled(true)
	g.AddLiquid(2, 1, 1)
	sim := NewSimulator(DefaultParams())

	sim.Step(g)
	left := g.At(1, 1)
	if left.Settled() {
		t.Fatal("left cell should be unsettled by the inflow")
	}
	if !left.Flow.Empty() {
		t.Fatalf("left cell flowed in the tick it was unsettled: %04b", left.Flow)
	}
	if got := g.At(1, 2).Liquid; got != 0 {
		t.Fatalf("cell below left = %v, want 0 after first tick", got)
	}
	if got := left.Liquid; got != 0.625 {
		t.Fatalf("left cell = %v, want 0.625", got)
	}

	sim.Step(g)
	if !g.At(1, 1).Flow.Has(Bottom) {
		t.Fatalf("left cell flow on second tick = %04b, want Bottom", g.At(1, 1).Flow)
	}
	if g.At(1, 2).Liquid <= 0 {
		t.Fatal("cell below left should receive liquid on the second tick")
	}
}

func TestResidueAfterBottomFlowIsCleared(t *testing.T) {
	// MaxFlow caps the downward flow at 1, leaving 0.0005 behind: below
	// MinValue, so the remaining directions are skipped and the residue goes.
	g := NewGrid(5, 4)
	g.AddLiquid(2, 1, 1.0005)

	NewSimulator(DefaultParams()).Step(g)

	c := g.At(2, 1)
	if c.Flow != FlowSet(0).With(Bottom) {
		t.Fatalf("flow = %04b, want Bottom only", c.Flow)
	}
	if c.Settled() || c.SettleCount() != 0 {
		t.Fatalf("residue cell settled=%v count=%d, want unsettled", c.Settled(), c.SettleCount())
	}
	if c.Liquid != 0 {
		t.Fatalf("residue cell liquid = %v, want 0", c.Liquid)
	}
	if got := g.At(2, 2).Liquid; got != 1 {
		t.Fatalf("cell below = %v, want 1", got)
	}
	for _, x := range []int{1, 3} {
		if got := g.At(x, 1).Liquid; got != 0 {
			t.Fatalf("side cell (%d,1) = %v, want 0", x, got)
		}
	}
}

func TestFlowRestartsSettleCount(t *testing.T) {
	// Same quiet column as TestCellSettlesAfterTenQuietTicks. Raising
	// MaxCompression mid-streak makes the upper cell flow again, and its
	// streak starts over even though nothing unsettled it.
	g := NewGrid(5, 4)
	for _, pos := range [][2]int{{1, 1}, {3, 1}, {1, 2}, {3, 2}} {
		g.SetCellType(pos[0], pos[1], Solid)
	}
	g.AddLiquid(2, 1, 0.5)
	g.AddLiquid(2, 2, 1.125)
	sim := NewSimulator(DefaultParams())
	for i := 0; i < 3; i++ {
		sim.Step(g)
	}
	if got := g.At(2, 1).SettleCount(); got != 3 {
		t.Fatalf("settle count after 3 quiet ticks = %d", got)
	}

	p := sim.Params()
	p.MaxCompression = 0.5
	sim.SetParams(p)
	sim.Step(g)

	upper := g.At(2, 1)
	if !upper.Flow.Has(Bottom) {
		t.Fatalf("upper cell flow = %04b, want Bottom after the compression change", upper.Flow)
	}
	if upper.SettleCount() != 0 {
		t.Fatalf("settle count after flowing = %d, want 0", upper.SettleCount())
	}
}
