package sandbox

import (
	"mad-liquid/internal/core"
	"mad-liquid/internal/liquid"
	"mad-liquid/internal/scenario"
)

// World is the interactive liquid sandbox: a bordered grid, the flow engine
// driving it, and the pointer edits a host forwards between ticks.
type World struct {
	cfg Config

	grid     *liquid.Grid
	sim      *liquid.Simulator
	scenario *scenario.Scenario

	display *core.ByteGrid
	flow    []uint8

	tick   int
	poured float64
	fill   bool
	err    error
}

// New returns a sandbox with the provided dimensions using defaults.
func New(w, h int) *World {
	cfg := DefaultConfig()
	cfg.Width = w
	cfg.Height = h
	return NewWithConfig(cfg)
}

// NewWithConfig returns a sandbox configured from the provided options. A
// configured scenario file is loaded here; if it cannot be read the world
// falls back to random generation and Err reports why.
func NewWithConfig(cfg Config) *World {
	var sc *scenario.Scenario
	var err error
	if cfg.Scenario != "" {
		sc, err = scenario.Load(cfg.Scenario)
	}
	if sc != nil {
		return NewFromScenario(cfg, sc)
	}
	w := newWorld(cfg)
	w.err = err
	return w
}

// NewFromScenario returns a sandbox whose Reset rebuilds the given layout.
// The layout decides the grid size.
func NewFromScenario(cfg Config, sc *scenario.Scenario) *World {
	cfg.Width, cfg.Height = sc.Size()
	w := newWorld(cfg)
	w.scenario = sc
	return w
}

func newWorld(cfg Config) *World {
	if cfg.Width < 3 {
		cfg.Width = 3
	}
	if cfg.Height < 3 {
		cfg.Height = 3
	}
	total := cfg.Width * cfg.Height
	w := &World{
		cfg:     cfg,
		grid:    liquid.NewGrid(cfg.Width, cfg.Height),
		sim:     liquid.NewSimulator(cfg.Params.Engine),
		display: core.NewByteGrid(cfg.Width, cfg.Height),
		flow:    make([]uint8, total),
	}
	w.rebuildDisplay()
	return w
}

// Name returns the simulation identifier.
func (w *World) Name() string { return "liquid" }

// Size reports the grid dimensions.
func (w *World) Size() core.Size { return core.Size{W: w.cfg.Width, H: w.cfg.Height} }

// Cells exposes the current display buffer.
func (w *World) Cells() []uint8 { return w.display.Cells() }

// FlowField exposes the per-cell flow bitmask, zeroed when ShowFlow is off.
func (w *World) FlowField() []uint8 { return w.flow }

// Grid exposes the live simulation grid.
func (w *World) Grid() *liquid.Grid { return w.grid }

// Simulator exposes the flow engine.
func (w *World) Simulator() *liquid.Simulator { return w.sim }

// Config returns the active configuration.
func (w *World) Config() Config { return w.cfg }

// Tick returns the number of steps since the last Reset.
func (w *World) Tick() int { return w.tick }

// Stats summarises the current grid.
func (w *World) Stats() liquid.Stats { return w.grid.Stats() }

// Poured returns the volume scenario sources have added since the last Reset.
func (w *World) Poured() float64 { return w.poured }

// Scenario returns the layout driving Reset, or nil for random worlds.
func (w *World) Scenario() *scenario.Scenario { return w.scenario }

// Err reports a scenario that failed to load at construction.
func (w *World) Err() error { return w.err }

// Settled reports whether every wet cell has come to rest and no scenario
// source is still pouring.
func (w *World) Settled() bool {
	if w.scenario != nil {
		for _, src := range w.scenario.Sources {
			if src.Until == 0 || w.tick < src.Until {
				return false
			}
		}
	}
	s := w.grid.Stats()
	return s.Wet == s.Settled
}

// Reset prepares the initial world using deterministic randomness. With a
// scenario the layout is rebuilt and the seed is unused.
func (w *World) Reset(seed int64) {
	w.tick = 0
	w.poured = 0
	w.fill = false
	if w.scenario != nil {
		if g, err := w.scenario.Build(); err == nil {
			w.grid = g
		} else {
			w.err = err
			w.grid.Clear()
		}
		w.rebuildDisplay()
		return
	}

	effective := seed
	if effective == 0 {
		effective = w.cfg.Seed
	}
	rng := core.NewRNG(effective)
	w.grid.Clear()
	w.scatterPlatforms(rng)
	w.fillPools(rng)
	w.rebuildDisplay()
}

// Step advances the simulation by one tick.
func (w *World) Step() {
	if w.scenario != nil {
		w.poured += w.scenario.Pour(w.grid, w.tick)
	}
	w.sim.Step(w.grid)
	w.tick++
	w.rebuildDisplay()
}

func (w *World) editable(x, y int) bool {
	return w.grid.InBounds(x, y) && !w.grid.OnBorder(x, y)
}

// BeginStroke starts a wall stroke. Pressing on a blank cell draws walls,
// pressing on a wall erases them for the rest of the stroke.
func (w *World) BeginStroke(x, y int) {
	if !w.editable(x, y) {
		return
	}
	w.fill = w.grid.At(x, y).Type == liquid.Blank
	w.Stroke(x, y)
}

// Stroke continues the current stroke at (x, y).
func (w *World) Stroke(x, y int) {
	w.PaintWall(x, y, w.fill)
}

// PaintWall sets or clears a wall at (x, y). Border cells are never edited.
func (w *World) PaintWall(x, y int, solid bool) bool {
	if !w.editable(x, y) {
		return false
	}
	t := liquid.Blank
	if solid {
		t = liquid.Solid
	}
	if w.grid.At(x, y).Type == t {
		return true
	}
	w.grid.SetCellType(x, y, t)
	w.rebuildDisplay()
	return true
}

// Pour adds the configured pour amount at (x, y).
func (w *World) Pour(x, y int) {
	w.PourAmount(x, y, float32(w.cfg.Params.PourAmount))
}

// PourAmount adds amount at (x, y).
func (w *World) PourAmount(x, y int, amount float32) bool {
	if !w.editable(x, y) || amount <= 0 {
		return false
	}
	if !w.grid.AddLiquid(x, y, amount) {
		return false
	}
	w.rebuildDisplay()
	return true
}

// ShowFlow reports whether the flow overlay is enabled.
func (w *World) ShowFlow() bool { return w.cfg.Render.ShowFlow }

// SetShowFlow toggles the flow overlay.
func (w *World) SetShowFlow(v bool) {
	w.cfg.Render.ShowFlow = v
	w.rebuildDisplay()
}

func (w *World) scatterPlatforms(rng *core.RNG) {
	p := w.cfg.Params
	interiorW := w.cfg.Width - 2
	if p.PlatformCount <= 0 || interiorW <= 0 || w.cfg.Height < 6 {
		return
	}
	for i := 0; i < p.PlatformCount; i++ {
		length := rng.IntRange(p.PlatformLenMin, p.PlatformLenMax)
		if length > interiorW {
			length = interiorW
		}
		y := rng.IntRange(3, w.cfg.Height-2)
		x0 := 1 + rng.IntN(interiorW-length+1)
		for x := x0; x < x0+length; x++ {
			w.grid.SetCellType(x, y, liquid.Solid)
		}
		// Half of the platforms get a lip so they hold a pool.
		if rng.Bool() && y > 1 {
			w.grid.SetCellType(x0, y-1, liquid.Solid)
			w.grid.SetCellType(x0+length-1, y-1, liquid.Solid)
		}
	}
}

func (w *World) fillPools(rng *core.RNG) {
	for i := 0; i < w.cfg.Params.PoolCount; i++ {
		x := rng.IntRange(1, w.cfg.Width-2)
		y := rng.IntRange(1, w.cfg.Height-2)
		amount := w.cfg.Params.Engine.MaxValue * float32(0.5+0.5*rng.Float64())
		for dy := 0; dy < 2; dy++ {
			for dx := 0; dx < 3; dx++ {
				if w.editable(x+dx, y+dy) && w.grid.At(x+dx, y+dy).Type == liquid.Blank {
					w.grid.AddLiquid(x+dx, y+dy, amount)
				}
			}
		}
	}
}

func init() {
	core.Register("liquid", func(cfg map[string]string) core.Sim {
		c := FromMap(cfg)
		return NewWithConfig(c)
	})
}
