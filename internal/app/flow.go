package app

import "mad-liquid/internal/core"

type flowFieldProvider interface {
	FlowField() []uint8
	ShowFlow() bool
}

// flowTintField returns the per-cell flow masks to tint, or nil when the sim
// has no flow field or its flow view is switched off.
func flowTintField(sim core.Sim) []uint8 {
	p, ok := sim.(flowFieldProvider)
	if !ok || !p.ShowFlow() {
		return nil
	}
	size := sim.Size()
	field := p.FlowField()
	if len(field) != size.W*size.H {
		return nil
	}
	return field
}
