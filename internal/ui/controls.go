package ui

import (
	"image"
	"math"
	"strconv"

	"mad-liquid/internal/core"
	"mad-liquid/internal/liquid"
)

type hudControlState struct {
	control core.ParameterControl
	value   string

	intValue   int
	floatValue float64
	boolValue  bool
	hasValue   bool

	top       int
	minusRect image.Rectangle
	plusRect  image.Rectangle
}

const (
	panelPadding   = 12
	lineHeight     = 36
	buttonSize     = 24
	buttonGap      = 6
	headerBaseline = 18
	labelBaseline  = 24
	infoSpacing    = 36
	statsLineGap   = 16
	controlsTop    = panelPadding + headerBaseline + 14
)

// statsProvider is implemented by sims that report liquid totals.
type statsProvider interface {
	Stats() liquid.Stats
	Tick() int
}

// setValue parses a snapshot value into the control state.
func (s *hudControlState) setValue(raw string) {
	s.hasValue = false
	s.value = "--"
	switch s.control.Type {
	case core.ParamTypeInt:
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return
		}
		s.intValue = parsed
		s.floatValue = float64(parsed)
		s.value = strconv.Itoa(parsed)
	case core.ParamTypeFloat:
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return
		}
		s.floatValue = parsed
		s.value = formatControlFloat(s.control, parsed)
	case core.ParamTypeBool:
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return
		}
		s.boolValue = parsed
		s.value = onOff(parsed)
	default:
		return
	}
	s.hasValue = true
}

// nextInt returns the clamped value one step in direction, reporting false
// when the bound is already reached.
func nextInt(ctrl core.ParameterControl, current, direction int) (int, bool) {
	step := int(math.Round(ctrl.Step))
	if step <= 0 {
		step = 1
	}
	target := current + direction*step
	if ctrl.HasMin {
		if min := int(math.Round(ctrl.Min)); target < min {
			target = min
		}
	}
	if ctrl.HasMax {
		if max := int(math.Round(ctrl.Max)); target > max {
			target = max
		}
	}
	return target, target != current
}

func nextFloat(ctrl core.ParameterControl, current float64, direction int) (float64, bool) {
	step := ctrl.Step
	if step <= 0 {
		step = 0.05
	}
	target := current + float64(direction)*step
	if ctrl.HasMin && target < ctrl.Min {
		target = ctrl.Min
	}
	if ctrl.HasMax && target > ctrl.Max {
		target = ctrl.Max
	}
	return target, math.Abs(target-current) >= 1e-9
}

func formatControlFloat(ctrl core.ParameterControl, value float64) string {
	step := ctrl.Step
	if step <= 0 {
		step = 0.05
	}
	precision := 1
	switch {
	case step < 0.001:
		precision = 4
	case step < 0.01:
		precision = 3
	case step < 0.1:
		precision = 2
	}
	return strconv.FormatFloat(value, 'f', precision, 64)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// layoutControls places each control row below the header; bool rows use
// only the right-hand button as a toggle.
func layoutControls(controls []hudControlState, width int) {
	if width <= 0 {
		return
	}
	for i := range controls {
		top := controlsTop + i*lineHeight
		buttonY := top + (lineHeight-buttonSize)/2
		plusRect := image.Rect(width-panelPadding-buttonSize, buttonY, width-panelPadding, buttonY+buttonSize)
		minusRect := image.Rect(plusRect.Min.X-buttonGap-buttonSize, buttonY, plusRect.Min.X-buttonGap, buttonY+buttonSize)
		if controls[i].control.Type == core.ParamTypeBool {
			minusRect = image.Rectangle{}
		}
		controls[i].top = top
		controls[i].minusRect = minusRect
		controls[i].plusRect = plusRect
	}
}

// statsLines formats the liquid counters shown under the controls.
func statsLines(tick int, s liquid.Stats) []string {
	return []string{
		"tick     " + strconv.Itoa(tick),
		"liquid   " + strconv.FormatFloat(s.TotalLiquid, 'f', 2, 64),
		"wet      " + strconv.Itoa(s.Wet),
		"settled  " + strconv.Itoa(s.Settled),
		"flowing  " + strconv.Itoa(s.Flowing),
	}
}

func pointInRect(x, y int, rect image.Rectangle) bool {
	return x >= rect.Min.X && x < rect.Max.X && y >= rect.Min.Y && y < rect.Max.Y
}

var keyHelp = []string{
	"space pause  n step  r reset",
	"f flow  1 arrows  2 hover",
	"lmb wall  rmb pour  q quit",
}
