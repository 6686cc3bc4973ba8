package sandbox

import (
	"image/color"

	"mad-liquid/internal/liquid"
)

const (
	displayEmpty      = 0
	displaySolid      = 1
	displayLiquidBase = 2
	// displayLevels buckets liquid volume in quarter units up to four
	// cells' worth of pressure.
	displayLevels = 16

	floatingThreshold = 0.99
	downFlowThreshold = 0.05
)

var (
	backgroundColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	wallColor       = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	waterColor      = color.NRGBA{R: 40, G: 120, B: 220, A: 255}
	deepWaterColor  = color.NRGBA{R: 0, G: 26, B: 51, A: 255}
)

var liquidPalette = buildLiquidPalette()

// Palette exposes the color palette used for rendering the sandbox.
func (w *World) Palette() []color.RGBA {
	return liquidPalette
}

func buildLiquidPalette() []color.RGBA {
	palette := make([]color.RGBA, displayLiquidBase+displayLevels)
	palette[displayEmpty] = toRGBA(backgroundColor)
	palette[displaySolid] = toRGBA(wallColor)
	for level := 0; level < displayLevels; level++ {
		palette[displayLiquidBase+level] = toRGBA(levelColor(level))
	}
	return palette
}

// levelColor shades a bucket: partly filled cells fade into the background,
// and deeper pressure darkens the water.
func levelColor(level int) color.NRGBA {
	volume := (float64(level) + 0.5) / 4
	fill := volume
	if fill > 1 {
		fill = 1
	}
	pressure := volume / 4
	water := blendColors(waterColor, deepWaterColor, pressure)
	return blendColors(backgroundColor, water, 0.35+0.65*fill)
}

func toRGBA(c color.NRGBA) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func blendColors(base, overlay color.NRGBA, overlayWeight float64) color.NRGBA {
	if overlayWeight <= 0 {
		return base
	}
	if overlayWeight >= 1 {
		return overlay
	}
	br, bg, bb, ba := float64(base.R), float64(base.G), float64(base.B), float64(base.A)
	or, og, ob, oa := float64(overlay.R), float64(overlay.G), float64(overlay.B), float64(overlay.A)
	w := overlayWeight
	inv := 1 - w
	return color.NRGBA{
		R: uint8(br*inv + or*w + 0.5),
		G: uint8(bg*inv + og*w + 0.5),
		B: uint8(bb*inv + ob*w + 0.5),
		A: uint8(ba*inv + oa*w + 0.5),
	}
}

func encodeLiquid(volume float32) uint8 {
	if volume <= 0 {
		return displayEmpty
	}
	level := int(volume * 4)
	if level >= displayLevels {
		level = displayLevels - 1
	}
	return uint8(displayLiquidBase + level)
}

// LiquidLevel decodes a display value back into a bucket index, reporting
// false for empty and solid cells.
func LiquidLevel(v uint8) (int, bool) {
	if v < displayLiquidBase {
		return 0, false
	}
	return int(v - displayLiquidBase), true
}

// displayValue applies the optional rendering rules to one cell.
func (w *World) displayValue(x, y int, c *liquid.Cell) uint8 {
	if c.Type == liquid.Solid {
		return displaySolid
	}
	value := encodeLiquid(c.Liquid)
	if !w.cfg.Render.Floating {
		if below := w.grid.Neighbor(x, y, liquid.Bottom); below != nil && below.Type == liquid.Blank && below.Liquid <= floatingThreshold {
			value = displayEmpty
		}
	}
	if w.cfg.Render.DownFlowing {
		above := w.grid.Neighbor(x, y, liquid.Top)
		if above != nil && (above.Liquid > downFlowThreshold || above.Flow == liquid.FlowSet(0).With(liquid.Bottom)) {
			value = encodeLiquid(w.cfg.Params.Engine.MaxValue)
		}
	}
	return value
}

func (w *World) rebuildDisplay() {
	cells := w.display.Cells()
	showFlow := w.cfg.Render.ShowFlow
	for y := 0; y < w.cfg.Height; y++ {
		for x := 0; x < w.cfg.Width; x++ {
			idx := w.display.Index(x, y)
			c := w.grid.At(x, y)
			cells[idx] = w.displayValue(x, y, c)
			if showFlow {
				w.flow[idx] = uint8(c.Flow)
			} else {
				w.flow[idx] = 0
			}
		}
	}
}
