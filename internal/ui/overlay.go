//go:build ebiten

package ui

import (
	"image/color"
	"math"

	"mad-liquid/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type flowFieldProvider interface {
	FlowField() []uint8
}

// Overlay draws optional debugging visuals on top of the base simulation.
type Overlay struct {
	sim       core.Sim
	scale     int
	showFlow  bool
	showHover bool

	pixel  *ebiten.Image
	arrows []flowArrow
}

var (
	arrowColor = color.RGBA{R: 220, G: 60, B: 40, A: 200}
	hoverColor = color.RGBA{R: 255, G: 200, B: 40, A: 220}
)

// NewOverlay constructs a new overlay instance.
func NewOverlay(sim core.Sim, scale int) *Overlay {
	o := &Overlay{sim: sim, scale: scale, showFlow: true, showHover: true}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// Update allows the overlay to update internal state.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showFlow = !o.showFlow
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showHover = !o.showHover
	}
}

// Draw renders the overlay onto the provided screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	size := o.sim.Size()
	if size.W <= 0 || size.H <= 0 {
		return
	}
	scale := o.scale
	if scale <= 0 {
		scale = 1
	}

	if o.showFlow {
		if provider, ok := o.sim.(flowFieldProvider); ok {
			o.drawFlow(screen, provider.FlowField(), size, scale)
		}
	}
	if o.showHover {
		mx, my := ebiten.CursorPosition()
		if x, y, ok := cellAt(mx, my, size.W, size.H, scale); ok {
			o.drawCellOutline(screen, x, y, scale, hoverColor)
		}
	}
}

func (o *Overlay) drawFlow(screen *ebiten.Image, flow []uint8, size core.Size, scale int) {
	// Arrows are unreadable below a few pixels per cell.
	if scale < 4 {
		return
	}
	o.arrows = flowArrows(o.arrows, flow, size.W, size.H, scale)
	thickness := math.Max(1, float64(scale)/8)
	for _, a := range o.arrows {
		o.drawLine(screen, a.x1, a.y1, a.x2, a.y2, thickness, arrowColor)
		o.drawLine(screen, a.x2, a.y2, a.leftX, a.leftY, thickness, arrowColor)
		o.drawLine(screen, a.x2, a.y2, a.rightX, a.rightY, thickness, arrowColor)
	}
}

func (o *Overlay) drawCellOutline(screen *ebiten.Image, x, y, scale int, col color.RGBA) {
	x0 := float64(x * scale)
	y0 := float64(y * scale)
	s := float64(scale)
	o.drawLine(screen, x0, y0, x0+s, y0, 1, col)
	o.drawLine(screen, x0+s, y0, x0+s, y0+s, 1, col)
	o.drawLine(screen, x0+s, y0+s, x0, y0+s, 1, col)
	o.drawLine(screen, x0, y0+s, x0, y0, 1, col)
	o.drawPoint(screen, x0+s/2, y0+s/2, math.Max(1, s/6), col)
}

func (o *Overlay) drawPoint(screen *ebiten.Image, x, y, size float64, col color.RGBA) {
	if o.pixel == nil || size <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(size, size)
	op.GeoM.Translate(x-size*0.5, y-size*0.5)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}

func (o *Overlay) drawLine(screen *ebiten.Image, x1, y1, x2, y2, thickness float64, col color.RGBA) {
	if o.pixel == nil || thickness <= 0 {
		return
	}
	dx := x2 - x1
	dy := y2 - y1
	length := math.Hypot(dx, dy)
	if length <= 1e-4 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(length, thickness)
	op.GeoM.Translate(0, -thickness/2)
	op.GeoM.Rotate(math.Atan2(dy, dx))
	op.GeoM.Translate(x1, y1)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}
