//go:build ebiten

package ui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"mad-liquid/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

type parameterProvider interface {
	Parameters() core.ParameterSnapshot
}

var (
	panelColor  = color.RGBA{R: 16, G: 16, B: 20, A: 255}
	titleColor  = color.RGBA{R: 200, G: 200, B: 210, A: 255}
	labelColor  = color.RGBA{R: 220, G: 220, B: 230, A: 255}
	mutedColor  = color.RGBA{R: 160, G: 160, B: 170, A: 255}
	pausedColor = color.RGBA{R: 240, G: 180, B: 60, A: 255}
)

// HUD renders the parameter panel to the right of the simulation view.
type HUD struct {
	sim        core.Sim
	width      int
	panel      *ebiten.Image
	lastHeight int
	snapshot   core.ParameterSnapshot

	controls     []hudControlState
	intSetter    core.IntParameterSetter
	floatSetter  core.FloatParameterSetter
	boolSetter   core.BoolParameterSetter
	stats        statsProvider
	panelOffsetX int
	title        string
	paused       bool

	pixel *ebiten.Image
}

// NewHUD constructs a HUD for the provided simulation and panel width.
func NewHUD(sim core.Sim, width int) *HUD {
	if width < 0 {
		width = 0
	}
	h := &HUD{sim: sim, width: width}
	if width > 0 {
		h.pixel = ebiten.NewImage(1, 1)
		h.pixel.Fill(color.White)
	}
	h.title = buildTitle(sim)
	if provider, ok := sim.(core.ParameterControlsProvider); ok {
		controls := provider.ParameterControls()
		h.controls = make([]hudControlState, len(controls))
		for i, ctrl := range controls {
			h.controls[i] = hudControlState{control: ctrl, value: "--"}
		}
		layoutControls(h.controls, h.width)
	}
	h.intSetter, _ = sim.(core.IntParameterSetter)
	h.floatSetter, _ = sim.(core.FloatParameterSetter)
	h.boolSetter, _ = sim.(core.BoolParameterSetter)
	h.stats, _ = sim.(statsProvider)
	return h
}

// Update refreshes the cached parameter snapshot from the simulation and handles
// HUD interactions.
func (h *HUD) Update(panelOffsetX int, paused bool) {
	if h == nil {
		return
	}
	h.panelOffsetX = panelOffsetX
	h.paused = paused
	provider, ok := h.sim.(parameterProvider)
	if !ok {
		h.snapshot = core.ParameterSnapshot{}
		return
	}
	h.snapshot = provider.Parameters()
	h.refreshControlValues()
	h.handleInput()
}

// Draw paints the HUD panel anchored to the right edge of the simulation view.
func (h *HUD) Draw(screen *ebiten.Image, offsetX int, scale int) {
	if h == nil || h.width <= 0 {
		return
	}
	if scale <= 0 {
		scale = 1
	}
	size := h.sim.Size()
	height := size.H * scale
	if height <= 0 {
		return
	}
	if h.panel == nil || h.panel.Bounds().Dx() != h.width || h.lastHeight != height {
		h.panel = ebiten.NewImage(h.width, height)
		h.lastHeight = height
	}
	h.panel.Fill(panelColor)
	bottom := h.drawControls()
	bottom = h.drawStats(bottom + infoSpacing)
	h.drawHelp(bottom + infoSpacing)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}

func buildTitle(sim core.Sim) string {
	if sim == nil || sim.Name() == "" {
		return "Controls"
	}
	name := sim.Name()
	return fmt.Sprintf("%s%s Controls", strings.ToUpper(name[:1]), name[1:])
}

func (h *HUD) refreshControlValues() {
	if len(h.controls) == 0 {
		return
	}
	paramMap := map[string]string{}
	for _, group := range h.snapshot.Groups {
		for _, param := range group.Params {
			paramMap[param.Key] = param.Value
		}
	}
	for i := range h.controls {
		state := &h.controls[i]
		raw, ok := paramMap[state.control.Key]
		if !ok {
			state.hasValue = false
			state.value = "--"
			continue
		}
		state.setValue(raw)
	}
}

func (h *HUD) handleInput() {
	if len(h.controls) == 0 {
		return
	}
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	mx, my := ebiten.CursorPosition()
	if mx < h.panelOffsetX {
		return
	}
	px := mx - h.panelOffsetX
	for i := range h.controls {
		state := &h.controls[i]
		if !state.hasValue {
			continue
		}
		if pointInRect(px, my, state.minusRect) {
			h.applyAdjustment(state, -1)
			return
		}
		if pointInRect(px, my, state.plusRect) {
			h.applyAdjustment(state, 1)
			return
		}
	}
}

func (h *HUD) applyAdjustment(state *hudControlState, direction int) {
	if state == nil || direction == 0 {
		return
	}
	switch state.control.Type {
	case core.ParamTypeInt:
		if h.intSetter == nil {
			return
		}
		target, changed := nextInt(state.control, state.intValue, direction)
		if changed && h.intSetter.SetIntParameter(state.control.Key, target) {
			state.setValue(fmt.Sprint(target))
		}
	case core.ParamTypeFloat:
		if h.floatSetter == nil {
			return
		}
		target, changed := nextFloat(state.control, state.floatValue, direction)
		if changed && h.floatSetter.SetFloatParameter(state.control.Key, target) {
			state.floatValue = target
			state.value = formatControlFloat(state.control, target)
		}
	case core.ParamTypeBool:
		if h.boolSetter == nil {
			return
		}
		if h.boolSetter.SetBoolParameter(state.control.Key, !state.boolValue) {
			state.boolValue = !state.boolValue
			state.value = onOff(state.boolValue)
		}
	}
}

// drawControls paints the title and control rows and returns the y of the
// last row drawn.
func (h *HUD) drawControls() int {
	face := basicfont.Face7x13
	headerY := panelPadding + headerBaseline
	title := h.title
	titleCol := titleColor
	if h.paused {
		title += " (paused)"
		titleCol = pausedColor
	}
	text.Draw(h.panel, title, face, panelPadding, headerY, titleCol)
	if len(h.controls) == 0 {
		infoY := headerY + infoSpacing
		text.Draw(h.panel, "No adjustable parameters", face, panelPadding, infoY, mutedColor)
		return infoY
	}
	bottom := headerY
	for i := range h.controls {
		state := &h.controls[i]
		top := state.top
		labelY := top + labelBaseline
		text.Draw(h.panel, state.control.Label, face, panelPadding, labelY, labelColor)
		valueColor := labelColor
		if !state.hasValue {
			valueColor = mutedColor
		}
		value := state.value
		bounds := text.BoundString(face, value)
		valueX := state.plusRect.Min.X - 2*buttonGap - buttonSize - bounds.Dx()
		text.Draw(h.panel, value, face, valueX, labelY, valueColor)

		if state.control.Type == core.ParamTypeBool {
			h.drawButton(state.plusRect, "*", state.hasValue && h.boolSetter != nil)
		} else {
			h.drawButton(state.minusRect, "-", state.hasValue && h.canAdjust(state, -1))
			h.drawButton(state.plusRect, "+", state.hasValue && h.canAdjust(state, 1))
		}
		bottom = top + lineHeight
	}
	return bottom
}

func (h *HUD) drawStats(y int) int {
	if h.stats == nil {
		return y
	}
	face := basicfont.Face7x13
	for _, line := range statsLines(h.stats.Tick(), h.stats.Stats()) {
		text.Draw(h.panel, line, face, panelPadding, y, labelColor)
		y += statsLineGap
	}
	return y
}

func (h *HUD) drawHelp(y int) {
	face := basicfont.Face7x13
	for _, line := range keyHelp {
		text.Draw(h.panel, line, face, panelPadding, y, mutedColor)
		y += statsLineGap
	}
}

func (h *HUD) canAdjust(state *hudControlState, direction int) bool {
	switch state.control.Type {
	case core.ParamTypeInt:
		if h.intSetter == nil {
			return false
		}
		_, changed := nextInt(state.control, state.intValue, direction)
		return changed
	case core.ParamTypeFloat:
		if h.floatSetter == nil {
			return false
		}
		_, changed := nextFloat(state.control, state.floatValue, direction)
		return changed
	default:
		return false
	}
}

func (h *HUD) drawButton(rect image.Rectangle, label string, enabled bool) {
	if h.pixel == nil || rect.Empty() {
		return
	}
	bg := color.RGBA{R: 54, G: 56, B: 64, A: 255}
	fg := color.RGBA{R: 230, G: 230, B: 240, A: 255}
	if !enabled {
		bg = color.RGBA{R: 32, G: 34, B: 40, A: 255}
		fg = color.RGBA{R: 120, G: 120, B: 130, A: 255}
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(rect.Dx()), float64(rect.Dy()))
	op.GeoM.Translate(float64(rect.Min.X), float64(rect.Min.Y))
	op.ColorScale.ScaleWithColor(bg)
	h.panel.DrawImage(h.pixel, op)

	face := basicfont.Face7x13
	bounds := text.BoundString(face, label)
	x := rect.Min.X + (rect.Dx()-bounds.Dx())/2
	y := rect.Min.Y + (rect.Dy()-bounds.Dy())/2 + bounds.Dy()
	text.Draw(h.panel, label, face, x, y, fg)
}
