package sandbox

import (
	"strconv"

	"mad-liquid/internal/liquid"
)

// Params holds the tunables for the sandbox: the flow model plus the knobs
// used when a fresh world is generated.
type Params struct {
	Engine liquid.Params

	PlatformCount  int
	PlatformLenMin int
	PlatformLenMax int
	PoolCount      int

	PourAmount float64
}

// Render toggles optional presentation rules.
type Render struct {
	// ShowFlow draws the per-cell flow directions.
	ShowFlow bool
	// Floating keeps liquid visible in cells whose blank cell below is not
	// yet full. When false such cells render empty.
	Floating bool
	// DownFlowing fills blank cells that liquid is pouring into from above.
	DownFlowing bool
}

// Config controls the sandbox dimensions and behaviour.
type Config struct {
	Width  int
	Height int

	Seed int64

	// Scenario is an optional layout file used instead of random generation.
	Scenario string

	Params Params
	Render Render
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Width:  80,
		Height: 40,
		Seed:   1337,
		Params: Params{
			Engine:         liquid.DefaultParams(),
			PlatformCount:  6,
			PlatformLenMin: 4,
			PlatformLenMax: 14,
			PoolCount:      0,
			PourAmount:     5,
		},
		Render: Render{
			ShowFlow:    true,
			Floating:    false,
			DownFlowing: false,
		},
	}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["w"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 3 {
			c.Width = parsed
		}
	}
	if v, ok := cfg["h"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 3 {
			c.Height = parsed
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	if v, ok := cfg["scenario"]; ok {
		c.Scenario = v
	}

	e := &c.Params.Engine
	floatKeys := map[string]*float32{
		"max_value":       &e.MaxValue,
		"min_value":       &e.MinValue,
		"max_compression": &e.MaxCompression,
		"min_flow":        &e.MinFlow,
		"max_flow":        &e.MaxFlow,
		"flow_speed":      &e.FlowSpeed,
	}
	for key, dst := range floatKeys {
		if v, ok := cfg[key]; ok {
			if parsed, err := strconv.ParseFloat(v, 32); err == nil && parsed >= 0 {
				*dst = float32(parsed)
			}
		}
	}
	if v, ok := cfg["settle_ticks"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			e.SettleTicks = parsed
		}
	}

	if v, ok := cfg["platform_count"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.Params.PlatformCount = parsed
		}
	}
	if v, ok := cfg["platform_len_min"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 1 {
			c.Params.PlatformLenMin = parsed
		}
	}
	if v, ok := cfg["platform_len_max"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 1 {
			c.Params.PlatformLenMax = parsed
		}
	}
	if c.Params.PlatformLenMax < c.Params.PlatformLenMin {
		c.Params.PlatformLenMax = c.Params.PlatformLenMin
	}
	if v, ok := cfg["pool_count"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.Params.PoolCount = parsed
		}
	}
	if v, ok := cfg["pour_amount"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.Params.PourAmount = parsed
		}
	}

	if v, ok := cfg["show_flow"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Render.ShowFlow = parsed
		}
	}
	if v, ok := cfg["render_floating"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Render.Floating = parsed
		}
	}
	if v, ok := cfg["render_down_flowing"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Render.DownFlowing = parsed
		}
	}
	return c
}
