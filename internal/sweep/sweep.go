// Package sweep runs one scenario under many flow parameter combinations and
// ranks how quickly and how cleanly each one comes to rest.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"mad-liquid/internal/liquid"
	"mad-liquid/internal/logging"
	"mad-liquid/internal/scenario"
	"mad-liquid/internal/sims/sandbox"
)

// Point is one parameter combination.
type Point struct {
	MinFlow        float64 `json:"min_flow"`
	MaxCompression float64 `json:"max_compression"`
	FlowSpeed      float64 `json:"flow_speed"`
}

func (p Point) String() string {
	return fmt.Sprintf("min_flow=%.4g max_compression=%.4g flow_speed=%.4g", p.MinFlow, p.MaxCompression, p.FlowSpeed)
}

// Apply overrides the swept fields of base.
func (p Point) Apply(base liquid.Params) liquid.Params {
	base.MinFlow = float32(p.MinFlow)
	base.MaxCompression = float32(p.MaxCompression)
	base.FlowSpeed = float32(p.FlowSpeed)
	return base
}

// Points returns the cartesian product of the axes. An empty axis holds the
// value from base.
func Points(base liquid.Params, minFlow, maxCompression, flowSpeed []float64) []Point {
	if len(minFlow) == 0 {
		minFlow = []float64{float64(base.MinFlow)}
	}
	if len(maxCompression) == 0 {
		maxCompression = []float64{float64(base.MaxCompression)}
	}
	if len(flowSpeed) == 0 {
		flowSpeed = []float64{float64(base.FlowSpeed)}
	}
	points := make([]Point, 0, len(minFlow)*len(maxCompression)*len(flowSpeed))
	for _, mf := range minFlow {
		for _, mc := range maxCompression {
			for _, fs := range flowSpeed {
				points = append(points, Point{MinFlow: mf, MaxCompression: mc, FlowSpeed: fs})
			}
		}
	}
	return points
}

// Result is the outcome of one run.
type Result struct {
	Point

	// SettleTick is the first tick with every wet cell settled, or -1 when
	// the run hit its tick limit first.
	SettleTick int
	Ticks      int

	InitialLiquid float64
	Poured        float64
	FinalLiquid   float64
	// Drift is the volume gained (positive) or lost against what the layout
	// and its sources supplied.
	Drift float64

	Wet     int
	Settled int
	Elapsed time.Duration
}

// Converged reports whether the run came to rest.
func (r Result) Converged() bool { return r.SettleTick >= 0 }

// Rank orders results: converged runs first by settle tick, then by the size
// of their mass drift.
func Rank(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Converged() != b.Converged() {
			return a.Converged()
		}
		if a.Converged() && a.SettleTick != b.SettleTick {
			return a.SettleTick < b.SettleTick
		}
		return math.Abs(a.Drift) < math.Abs(b.Drift)
	})
}

// Runner executes sweeps. Scenario may be nil, in which case each run
// generates a random world from Base.Seed.
type Runner struct {
	Scenario *scenario.Scenario
	Base     sandbox.Config
	MaxTicks int
	Workers  int
	Logger   *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.Discard()
	}
	return r.Logger
}

// RunPoint simulates a single combination.
func (r *Runner) RunPoint(p Point) Result {
	start := time.Now()
	cfg := r.Base
	cfg.Params.Engine = p.Apply(cfg.Params.Engine)

	var world *sandbox.World
	if r.Scenario != nil {
		world = sandbox.NewFromScenario(cfg, r.Scenario)
	} else {
		world = sandbox.NewWithConfig(cfg)
	}
	world.Reset(0)

	res := Result{Point: p, SettleTick: -1}
	res.InitialLiquid = world.Stats().TotalLiquid
	for world.Tick() < r.MaxTicks {
		world.Step()
		if world.Settled() {
			res.SettleTick = world.Tick()
			break
		}
	}
	stats := world.Stats()
	res.Ticks = world.Tick()
	res.Poured = world.Poured()
	res.FinalLiquid = stats.TotalLiquid
	res.Drift = res.FinalLiquid - res.InitialLiquid - res.Poured
	res.Wet = stats.Wet
	res.Settled = stats.Settled
	res.Elapsed = time.Since(start)
	return res
}

// Run evaluates every point on a worker pool and returns the ranked results.
func (r *Runner) Run(ctx context.Context, points []Point) ([]Result, error) {
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	log := r.logger()
	log.Info("sweep starting", "points", len(points), "workers", workers, "max_ticks", r.MaxTicks)

	jobs := make(chan int)
	results := make([]Result, len(points))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				res := r.RunPoint(points[idx])
				results[idx] = res
				log.Debug("sweep point done", "point", res.Point.String(), "settle_tick", res.SettleTick, "drift", res.Drift)
			}
		}()
	}

feed:
	for i := range points {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	Rank(results)
	return results, nil
}
