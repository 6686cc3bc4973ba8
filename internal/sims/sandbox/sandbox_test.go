package sandbox

import (
	"image/color"
	"math"
	"slices"
	"testing"

	"mad-liquid/internal/core"
	"mad-liquid/internal/liquid"
)

func TestFromMapParsesKeys(t *testing.T) {
	cfg := FromMap(map[string]string{
		"w":                "20",
		"h":                "10",
		"seed":             "42",
		"min_flow":         "0.1",
		"settle_ticks":     "4",
		"platform_len_min": "9",
		"platform_len_max": "3",
		"pour_amount":      "2.5",
		"show_flow":        "false",
		"render_floating":  "true",
		"max_flow":         "-1",
	})
	if cfg.Width != 20 || cfg.Height != 10 || cfg.Seed != 42 {
		t.Fatalf("unexpected world config: %+v", cfg)
	}
	if cfg.Params.Engine.MinFlow != float32(0.1) {
		t.Fatalf("min_flow = %v", cfg.Params.Engine.MinFlow)
	}
	if cfg.Params.Engine.MaxFlow != 1 {
		t.Fatalf("negative max_flow must be ignored, got %v", cfg.Params.Engine.MaxFlow)
	}
	if cfg.Params.Engine.SettleTicks != 4 {
		t.Fatalf("settle_ticks = %d", cfg.Params.Engine.SettleTicks)
	}
	if cfg.Params.PlatformLenMax != cfg.Params.PlatformLenMin {
		t.Fatalf("platform length bounds not reconciled: %d..%d", cfg.Params.PlatformLenMin, cfg.Params.PlatformLenMax)
	}
	if cfg.Params.PourAmount != 2.5 {
		t.Fatalf("pour_amount = %v", cfg.Params.PourAmount)
	}
	if cfg.Render.ShowFlow || !cfg.Render.Floating || cfg.Render.DownFlowing {
		t.Fatalf("unexpected render flags: %+v", cfg.Render)
	}
}

func TestFromMapRejectsTinyGrid(t *testing.T) {
	cfg := FromMap(map[string]string{"w": "2", "h": "x"})
	if cfg.Width != 80 || cfg.Height != 40 {
		t.Fatalf("size = %dx%d, want defaults", cfg.Width, cfg.Height)
	}
}

func TestResetDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width = 32
	cfg.Height = 24
	cfg.Seed = 99
	cfg.Params.PoolCount = 3

	world := NewWithConfig(cfg)
	world.Reset(0)
	initial := append([]uint8(nil), world.Cells()...)
	initialStats := world.Stats()

	world.Pour(5, 5)
	world.Step()
	world.Reset(0)

	if !slices.Equal(initial, world.Cells()) {
		t.Fatal("Reset with config seed not deterministic for display buffer")
	}
	if world.Stats() != initialStats {
		t.Fatalf("stats after reset = %+v, want %+v", world.Stats(), initialStats)
	}
	if world.Tick() != 0 {
		t.Fatalf("tick after reset = %d", world.Tick())
	}

	world.Reset(777)
	seeded := append([]uint8(nil), world.Cells()...)
	world.Reset(777)
	if !slices.Equal(seeded, world.Cells()) {
		t.Fatal("Reset with explicit seed not deterministic")
	}
	if slices.Equal(initial, seeded) {
		t.Fatal("different seeds should produce different layouts")
	}
}

func TestResetKeepsBorderSolid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width = 24
	cfg.Height = 16
	cfg.Params.PoolCount = 8
	cfg.Params.PlatformCount = 12
	world := NewWithConfig(cfg)
	world.Reset(5)

	g := world.Grid()
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			if !g.OnBorder(x, y) {
				continue
			}
			c := g.At(x, y)
			if c.Type != liquid.Solid || c.Liquid != 0 {
				t.Fatalf("border cell (%d,%d) = %+v", x, y, c)
			}
		}
	}
}

func TestBorderIsNotEditable(t *testing.T) {
	world := New(10, 8)
	if world.PaintWall(0, 3, false) {
		t.Fatal("border wall must not be removable")
	}
	if world.PourAmount(9, 4, 1) {
		t.Fatal("border cell must not accept liquid")
	}
	world.BeginStroke(0, 0)
	world.Stroke(1, 1)
	if world.Grid().At(1, 1).Type != liquid.Blank {
		t.Fatal("stroke started on the border must not paint")
	}
	if world.Grid().At(0, 3).Type != liquid.Solid {
		t.Fatal("border cell changed type")
	}
}

func TestStrokeFillsThenErases(t *testing.T) {
	world := New(10, 8)
	g := world.Grid()

	world.BeginStroke(3, 3)
	world.Stroke(4, 3)
	world.Stroke(5, 3)
	for x := 3; x <= 5; x++ {
		if g.At(x, 3).Type != liquid.Solid {
			t.Fatalf("cell (%d,3) not painted", x)
		}
	}

	world.BeginStroke(4, 3)
	world.Stroke(3, 3)
	world.Stroke(6, 3)
	for x := 3; x <= 6; x++ {
		if x == 5 {
			continue
		}
		if g.At(x, 3).Type != liquid.Blank {
			t.Fatalf("cell (%d,3) not erased", x)
		}
	}
	if g.At(5, 3).Type != liquid.Solid {
		t.Fatal("erase stroke touched a cell it never crossed")
	}
}

func TestPourAddsLiquid(t *testing.T) {
	world := New(8, 6)
	world.Pour(3, 2)
	if got := world.Grid().At(3, 2).Liquid; got != 5 {
		t.Fatalf("poured liquid = %v, want 5", got)
	}
	world.PaintWall(3, 2, true)
	if got := world.Grid().At(3, 2).Liquid; got != 0 {
		t.Fatalf("wall kept liquid %v", got)
	}
}

func TestDisplayEncoding(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width = 6
	cfg.Height = 5
	cfg.Render.Floating = true
	world := NewWithConfig(cfg)
	world.PourAmount(2, 3, 0.5)
	world.PourAmount(3, 3, 9)

	cells := world.Cells()
	idx := func(x, y int) int { return y*6 + x }
	if cells[idx(0, 0)] != displaySolid {
		t.Fatalf("border display = %d", cells[idx(0, 0)])
	}
	if cells[idx(1, 1)] != displayEmpty {
		t.Fatalf("empty display = %d", cells[idx(1, 1)])
	}
	level, ok := LiquidLevel(cells[idx(2, 3)])
	if !ok || level != 2 {
		t.Fatalf("half cell level = %d (ok=%v), want 2", level, ok)
	}
	level, ok = LiquidLevel(cells[idx(3, 3)])
	if !ok || level != displayLevels-1 {
		t.Fatalf("overfull cell level = %d, want %d", level, displayLevels-1)
	}
	if _, ok := LiquidLevel(displaySolid); ok {
		t.Fatal("solid must not decode as liquid")
	}
}

func TestDisplayHidesFloatingLiquid(t *testing.T) {
	world := New(6, 5)
	world.PourAmount(2, 1, 1)
	idx := 1*6 + 2
	if world.Cells()[idx] != displayEmpty {
		t.Fatalf("floating cell display = %d, want empty", world.Cells()[idx])
	}
	world.SetBoolParameter("render_floating", true)
	if world.Cells()[idx] == displayEmpty {
		t.Fatal("floating cell should render once floating liquid is shown")
	}
}

func TestDisplayDownFlowing(t *testing.T) {
	world := New(6, 5)
	world.SetBoolParameter("render_down_flowing", true)
	world.PourAmount(2, 1, 0.5)
	below := 2*6 + 2
	level, ok := LiquidLevel(world.Cells()[below])
	if !ok || level != 4 {
		t.Fatalf("cell under pour = %d (ok=%v), want full level", level, ok)
	}
}

func TestFlowField(t *testing.T) {
	world := New(7, 5)
	world.PourAmount(2, 3, 1)
	world.Step()

	idx := 3*7 + 2
	want := uint8(liquid.FlowSet(0).With(liquid.Left).With(liquid.Right))
	if got := world.FlowField()[idx]; got != want {
		t.Fatalf("flow field = %04b, want %04b", got, want)
	}
	world.SetShowFlow(false)
	if got := world.FlowField()[idx]; got != 0 {
		t.Fatalf("flow field with overlay off = %d", got)
	}
}

func TestParameterSetters(t *testing.T) {
	world := New(10, 8)
	if !world.SetFloatParameter("min_flow", 0.1) {
		t.Fatal("min_flow rejected")
	}
	if got := world.Simulator().Params().MinFlow; got != float32(0.1) {
		t.Fatalf("simulator min_flow = %v", got)
	}
	if world.SetFloatParameter("flow_speed", 2) {
		t.Fatal("flow_speed above 1 must be rejected")
	}
	if world.SetFloatParameter("unknown", 1) {
		t.Fatal("unknown key accepted")
	}
	if !world.SetIntParameter("settle_ticks", 3) {
		t.Fatal("settle_ticks rejected")
	}
	if got := world.Config().Params.Engine.SettleTicks; got != 3 {
		t.Fatalf("config settle_ticks = %d", got)
	}
	if world.SetIntParameter("settle_ticks", 0) {
		t.Fatal("zero settle_ticks accepted")
	}

	values := map[string]string{}
	for _, group := range world.Parameters().Groups {
		for _, p := range group.Params {
			values[p.Key] = p.Value
		}
	}
	if values["min_flow"] != "0.1" || values["settle_ticks"] != "3" {
		t.Fatalf("snapshot min_flow=%q settle_ticks=%q", values["min_flow"], values["settle_ticks"])
	}
	for _, ctrl := range world.ParameterControls() {
		if _, ok := values[ctrl.Key]; !ok {
			t.Fatalf("control %q missing from snapshot", ctrl.Key)
		}
	}
}

func TestScenarioWorld(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scenario = "../../scenario/testdata/basin.yaml"
	world := NewWithConfig(cfg)
	if err := world.Err(); err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	if size := world.Size(); size.W != 12 || size.H != 8 {
		t.Fatalf("size = %+v, want 12x8", size)
	}
	world.Reset(0)
	if got := world.Stats().TotalLiquid; math.Abs(got-9) > 1e-6 {
		t.Fatalf("initial liquid = %v, want 9", got)
	}
	world.Step()
	if world.Tick() != 1 {
		t.Fatalf("tick = %d", world.Tick())
	}
	if world.Settled() {
		t.Fatal("world with an active source must not report settled")
	}
}

func TestMissingScenarioFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scenario = "testdata/does-not-exist.yaml"
	world := NewWithConfig(cfg)
	if world.Err() == nil {
		t.Fatal("expected load error")
	}
	if size := world.Size(); size.W != 80 || size.H != 40 {
		t.Fatalf("fallback size = %+v", size)
	}
	if !world.Settled() {
		t.Fatal("empty world should be settled")
	}
}

func TestPalette(t *testing.T) {
	world := New(4, 4)
	palette := world.Palette()
	if len(palette) != displayLiquidBase+displayLevels {
		t.Fatalf("palette size = %d", len(palette))
	}
	if palette[displaySolid] != (color.RGBA{A: 255}) {
		t.Fatalf("wall color = %+v", palette[displaySolid])
	}
	brightness := func(c color.RGBA) int { return int(c.R) + int(c.G) + int(c.B) }
	if brightness(palette[len(palette)-1]) >= brightness(palette[displayLiquidBase+4]) {
		t.Fatal("deeper liquid should render darker")
	}
}

func TestRegistered(t *testing.T) {
	factory, ok := core.Lookup("liquid")
	if !ok {
		t.Fatal("liquid sim not registered")
	}
	sim := factory(map[string]string{"w": "16", "h": "12"})
	if size := sim.Size(); size.W != 16 || size.H != 12 {
		t.Fatalf("size = %+v", size)
	}
	if _, ok := sim.(core.Editor); !ok {
		t.Fatal("liquid sim must accept pointer edits")
	}
}
