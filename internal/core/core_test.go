package core

import (
	"testing"
	"time"
)

func TestFixedStepPacesTicks(t *testing.T) {
	clock := time.Unix(0, 0)
	fs := NewFixedStep(10)
	fs.now = func() time.Time { return clock }

	if fs.Interval() != 100*time.Millisecond {
		t.Fatalf("interval = %v, want 100ms", fs.Interval())
	}
	if !fs.ShouldStep() {
		t.Fatal("first poll should step immediately")
	}
	if fs.ShouldStep() {
		t.Fatal("second poll at the same instant must not step")
	}
	clock = clock.Add(60 * time.Millisecond)
	if fs.ShouldStep() {
		t.Fatal("stepped before a full interval elapsed")
	}
	clock = clock.Add(50 * time.Millisecond)
	if !fs.ShouldStep() {
		t.Fatal("expected a step after 110ms")
	}
}

func TestFixedStepDefaultsInvalidRate(t *testing.T) {
	fs := NewFixedStep(0)
	if fs.Interval() != time.Second/60 {
		t.Fatalf("interval = %v, want 1/60s", fs.Interval())
	}
	if fs.TPS() != 60 {
		t.Fatalf("tps = %d, want 60", fs.TPS())
	}
}

func TestByteGridSetGet(t *testing.T) {
	g := NewByteGrid(4, 3)
	g.Set(3, 2, 9)
	g.Set(4, 0, 1)
	if g.Get(3, 2) != 9 {
		t.Fatalf("Get(3,2) = %d", g.Get(3, 2))
	}
	if g.Get(-1, 0) != 0 {
		t.Fatal("out-of-range Get must return 0")
	}
	if got := g.Cells()[g.Index(3, 2)]; got != 9 {
		t.Fatalf("backing slice = %d", got)
	}
	g.Clear()
	if g.Get(3, 2) != 0 {
		t.Fatal("Clear left data behind")
	}
}

func TestRNGDeterministic(t *testing.T) {
	a := NewRNG(7)
	b := NewRNG(7)
	for i := 0; i < 32; i++ {
		if a.IntRange(2, 9) != b.IntRange(2, 9) {
			t.Fatal("same seed produced different sequences")
		}
	}
	if v := a.IntRange(5, 5); v != 5 {
		t.Fatalf("degenerate range = %d", v)
	}
	if v := a.IntN(0); v != 0 {
		t.Fatalf("IntN(0) = %d", v)
	}
}

func TestRegisterIgnoresEmpty(t *testing.T) {
	Register("", func(map[string]string) Sim { return nil })
	Register("nil-factory", nil)
	if _, ok := Lookup(""); ok {
		t.Fatal("empty name must not register")
	}
	if _, ok := Lookup("nil-factory"); ok {
		t.Fatal("nil factory must not register")
	}
}
