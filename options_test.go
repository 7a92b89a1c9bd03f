package reduce

import "testing"

func TestDefaultOptions(t *testing.T) {
	o := buildOptions(nil)

	if o.strategy != StrategyLocal {
		t.Errorf("strategy = %v, want local", o.strategy)
	}
	if o.workers != 0 || o.lanes != 0 {
		t.Errorf("workers, lanes = %d, %d; want 0, 0", o.workers, o.lanes)
	}
	if o.zeroPadding || o.cpuOnly {
		t.Error("zeroPadding and cpuOnly should default to false")
	}
}

func TestOptionsApply(t *testing.T) {
	o := buildOptions([]Option{
		WithStrategy(StrategyGlobal),
		WithWorkers(3),
		WithLanes(7),
		WithZeroPadding(),
		WithoutAccelerator(),
	})

	if o.strategy != StrategyGlobal {
		t.Errorf("strategy = %v, want global", o.strategy)
	}
	if o.workers != 3 {
		t.Errorf("workers = %d, want 3", o.workers)
	}
	if o.lanes != 7 {
		t.Errorf("lanes = %d, want 7", o.lanes)
	}
	if !o.zeroPadding {
		t.Error("zeroPadding = false, want true")
	}
	if !o.cpuOnly {
		t.Error("cpuOnly = false, want true")
	}
}

func TestOptionsLastWins(t *testing.T) {
	o := buildOptions([]Option{WithLanes(2), nil, WithLanes(5)})
	if o.lanes != 5 {
		t.Errorf("lanes = %d, want 5", o.lanes)
	}
}
