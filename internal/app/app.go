//go:build ebiten

package app

import (
	"image/color"
	"log/slog"
	"time"

	"mad-liquid/internal/core"
	"mad-liquid/internal/render"
	"mad-liquid/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type paletteProvider interface {
	Palette() []color.RGBA
}

var (
	grayPalette = []color.RGBA{{A: 255}, {R: 255, G: 255, B: 255, A: 255}}
	flowTint    = color.RGBA{R: 220, G: 60, B: 40, A: 72}
)

// Game adapts a core simulation to the ebiten.Game interface.
type Game struct {
	sim     core.Sim
	painter *render.GridPainter
	overlay *ui.Overlay
	hud     *ui.HUD
	palette []color.RGBA
	editor  core.Editor
	logger  *slog.Logger

	scale    int
	hudWidth int
	paused   bool
	tickOnce bool
	seed     int64

	stroking bool
	lastX    int
	lastY    int
}

// New constructs a Game for the provided simulation.
func New(sim core.Sim, scale, hudWidth int, seed int64, logger *slog.Logger) *Game {
	if logger == nil {
		logger = slog.Default()
	}
	if scale <= 0 {
		scale = 1
	}
	size := sim.Size()
	g := &Game{
		sim:      sim,
		painter:  render.NewGridPainter(size.W, size.H),
		overlay:  ui.NewOverlay(sim, scale),
		hud:      ui.NewHUD(sim, hudWidth),
		palette:  grayPalette,
		logger:   logger,
		scale:    scale,
		hudWidth: hudWidth,
		seed:     seed,
	}
	if p, ok := sim.(paletteProvider); ok {
		g.palette = p.Palette()
	}
	g.editor, _ = sim.(core.Editor)
	return g
}

// Reset reinitializes the simulation state with the provided seed.
func (g *Game) Reset(seed int64) {
	g.seed = seed
	g.sim.Reset(seed)
	g.tickOnce = false
	g.stroking = false
	g.logger.Debug("reset", "sim", g.sim.Name(), "seed", seed)
}

// Update handles per-frame logic and advances the simulation.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.paused = false
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Reset(g.seed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Reset(time.Now().UnixNano())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		g.toggleFlow()
	}

	if g.overlay != nil {
		g.overlay.Update()
	}
	g.hud.Update(g.viewWidth(), g.paused)
	g.handlePointer()

	if (!g.paused) || g.tickOnce {
		g.sim.Step()
		g.tickOnce = false
	}
	return nil
}

func (g *Game) toggleFlow() {
	setter, ok := g.sim.(core.BoolParameterSetter)
	if !ok {
		return
	}
	current := true
	if p, ok := g.sim.(flowFieldProvider); ok {
		current = p.ShowFlow()
	}
	setter.SetBoolParameter("show_flow", !current)
}

// handlePointer forwards mouse edits between ticks. Left drags paint or erase
// walls along the path the cursor took, right click pours liquid.
func (g *Game) handlePointer() {
	if g.editor == nil {
		return
	}
	mx, my := ebiten.CursorPosition()
	size := g.sim.Size()
	inGrid := mx >= 0 && my >= 0 && mx < size.W*g.scale && my < size.H*g.scale
	x, y := mx/g.scale, my/g.scale

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && inGrid:
		g.editor.BeginStroke(x, y)
		g.stroking = true
		g.lastX, g.lastY = x, y
	case g.stroking && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		if !inGrid || (x == g.lastX && y == g.lastY) {
			break
		}
		for _, p := range linePoints(g.lastX, g.lastY, x, y)[1:] {
			g.editor.Stroke(p[0], p[1])
		}
		g.lastX, g.lastY = x, y
	case !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		g.stroking = false
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) && inGrid {
		g.editor.Pour(x, y)
	}
}

// Draw renders the current simulation state.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 16, G: 16, B: 20, A: 255})
	g.painter.Blit(screen, g.sim.Cells(), g.palette, g.scale)
	if flow := flowTintField(g.sim); flow != nil {
		g.painter.BlitFlow(screen, flow, flowTint, g.scale)
	}
	if g.overlay != nil {
		g.overlay.Draw(screen)
	}
	g.hud.Draw(screen, g.viewWidth(), g.scale)
}

func (g *Game) viewWidth() int {
	return g.sim.Size().W * g.scale
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.sim.Size()
	return s.W*g.scale + g.hudWidth, s.H * g.scale
}
