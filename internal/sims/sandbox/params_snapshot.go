package sandbox

import (
	"strconv"

	"mad-liquid/internal/core"
)

// Parameters returns the tunables grouped for display.
func (w *World) Parameters() core.ParameterSnapshot {
	params := w.cfg.Params
	engine := w.sim.Params()
	scenarioName := ""
	if w.scenario != nil {
		scenarioName = w.scenario.Name
	}
	groups := []core.ParameterGroup{
		{
			Name: "World",
			Params: []core.Parameter{
				intParam("w", "Width", w.cfg.Width),
				intParam("h", "Height", w.cfg.Height),
				int64Param("seed", "Seed", w.cfg.Seed),
				stringParam("scenario", "Scenario", scenarioName),
				intParam("tick", "Tick", w.tick),
			},
		},
		{
			Name:    "Flow",
			Summary: "Pressure model shared by every cell.",
			Params: []core.Parameter{
				float32Param("max_value", "Max value", engine.MaxValue),
				float32Param("min_value", "Min value", engine.MinValue),
				float32Param("max_compression", "Max compression", engine.MaxCompression),
				float32Param("min_flow", "Min flow", engine.MinFlow),
				float32Param("max_flow", "Max flow", engine.MaxFlow),
				float32Param("flow_speed", "Flow speed", engine.FlowSpeed),
				intParam("settle_ticks", "Settle ticks", engine.SettleTicks),
			},
		},
		{
			Name: "Generation",
			Params: []core.Parameter{
				intParam("platform_count", "Platform count", params.PlatformCount),
				intParam("platform_len_min", "Platform length min", params.PlatformLenMin),
				intParam("platform_len_max", "Platform length max", params.PlatformLenMax),
				intParam("pool_count", "Pool count", params.PoolCount),
			},
		},
		{
			Name: "Editing",
			Params: []core.Parameter{
				floatParam("pour_amount", "Pour amount", params.PourAmount),
			},
		},
		{
			Name: "Render",
			Params: []core.Parameter{
				boolParam("show_flow", "Show flow", w.cfg.Render.ShowFlow),
				boolParam("render_floating", "Render floating liquid", w.cfg.Render.Floating),
				boolParam("render_down_flowing", "Render down-flowing liquid", w.cfg.Render.DownFlowing),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}

// ParameterControls lists the values adjustable from the HUD.
func (w *World) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: "min_flow", Label: "Min flow", Type: core.ParamTypeFloat, Step: 0.01, Min: 0.001, HasMin: true, Max: 1, HasMax: true},
		{Key: "max_flow", Label: "Max flow", Type: core.ParamTypeFloat, Step: 0.25, Min: 0.25, HasMin: true, Max: 8, HasMax: true},
		{Key: "max_compression", Label: "Compression", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, HasMin: true, Max: 2, HasMax: true},
		{Key: "flow_speed", Label: "Flow speed", Type: core.ParamTypeFloat, Step: 0.1, Min: 0.1, HasMin: true, Max: 1, HasMax: true},
		{Key: "settle_ticks", Label: "Settle ticks", Type: core.ParamTypeInt, Step: 1, Min: 1, HasMin: true, Max: 120, HasMax: true},
		{Key: "pour_amount", Label: "Pour amount", Type: core.ParamTypeFloat, Step: 0.5, Min: 0.5, HasMin: true, Max: 20, HasMax: true},
		{Key: "render_floating", Label: "Floating", Type: core.ParamTypeBool},
		{Key: "render_down_flowing", Label: "Down-flowing", Type: core.ParamTypeBool},
	}
}

// SetFloatParameter updates a floating point tunable. Flow parameters take
// effect on the next Step.
func (w *World) SetFloatParameter(key string, value float64) bool {
	if value < 0 {
		return false
	}
	engine := w.sim.Params()
	switch key {
	case "max_value":
		if value <= 0 {
			return false
		}
		engine.MaxValue = float32(value)
	case "min_value":
		engine.MinValue = float32(value)
	case "max_compression":
		engine.MaxCompression = float32(value)
	case "min_flow":
		engine.MinFlow = float32(value)
	case "max_flow":
		if value <= 0 {
			return false
		}
		engine.MaxFlow = float32(value)
	case "flow_speed":
		if value <= 0 || value > 1 {
			return false
		}
		engine.FlowSpeed = float32(value)
	case "pour_amount":
		if value <= 0 {
			return false
		}
		w.cfg.Params.PourAmount = value
		return true
	default:
		return false
	}
	w.sim.SetParams(engine)
	w.cfg.Params.Engine = w.sim.Params()
	return true
}

// SetIntParameter updates an integer tunable.
func (w *World) SetIntParameter(key string, value int) bool {
	switch key {
	case "settle_ticks":
		if value <= 0 {
			return false
		}
		engine := w.sim.Params()
		engine.SettleTicks = value
		w.sim.SetParams(engine)
		w.cfg.Params.Engine = w.sim.Params()
	case "platform_count":
		if value < 0 {
			return false
		}
		w.cfg.Params.PlatformCount = value
	case "pool_count":
		if value < 0 {
			return false
		}
		w.cfg.Params.PoolCount = value
	default:
		return false
	}
	return true
}

// SetBoolParameter toggles a render rule.
func (w *World) SetBoolParameter(key string, value bool) bool {
	switch key {
	case "show_flow":
		w.cfg.Render.ShowFlow = value
	case "render_floating":
		w.cfg.Render.Floating = value
	case "render_down_flowing":
		w.cfg.Render.DownFlowing = value
	default:
		return false
	}
	w.rebuildDisplay()
	return true
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.Itoa(value),
	}
}

func int64Param(key, label string, value int64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.FormatInt(value, 10),
	}
}

func floatParam(key, label string, value float64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeFloat,
		Value: strconv.FormatFloat(value, 'f', -1, 64),
	}
}

func float32Param(key, label string, value float32) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeFloat,
		Value: strconv.FormatFloat(float64(value), 'f', -1, 32),
	}
}

func boolParam(key, label string, value bool) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeBool,
		Value: strconv.FormatBool(value),
	}
}

func stringParam(key, label, value string) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeString,
		Value: value,
	}
}
