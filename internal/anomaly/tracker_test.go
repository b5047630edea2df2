package anomaly

import "testing"

func TestTracker_OverallIsWeightedAverage(t *testing.T) {
	tr := NewTracker(50, DefaultDeviationWeight, DefaultSpikeWeight)

	// Warm every stream up on a steady plateau, then spike only CPU.
	var s Scores
	for i := 0; i < 50; i++ {
		s = tr.Observe(20, 1_000_000, 40, 0.001)
	}
	if s.Overall != 0 {
		t.Fatalf("steady state overall = %v, want 0", s.Overall)
	}

	s = tr.Observe(95, 1_000_000, 40, 0.001)
	if s.CPU == 0 {
		t.Fatal("cpu spike not scored")
	}
	if s.Network != 0 || s.Memory != 0 || s.Timing != 0 {
		t.Errorf("unspiked streams scored: %+v", s)
	}
	want := s.CPU * weightCPU
	if !almostEqual(s.Overall, want, 1e-9) {
		t.Errorf("Overall = %v, want %v (cpu·%v)", s.Overall, want, weightCPU)
	}
}

func TestTracker_OverallInRange(t *testing.T) {
	tr := NewTracker(10, DefaultDeviationWeight, DefaultSpikeWeight)
	inputs := [][4]float64{
		{0, 0, 0, 0},
		{100, 1e9, 100, 10},
		{0, 0, 0, 0},
		{100, 1e9, 100, 10},
		{50, 5e8, 50, 5},
	}
	for i, in := range inputs {
		s := tr.Observe(in[0], in[1], in[2], in[3])
		for name, v := range map[string]float64{
			"cpu": s.CPU, "network": s.Network, "memory": s.Memory,
			"timing": s.Timing, "overall": s.Overall,
		} {
			if v < 0 || v > 1 {
				t.Errorf("step %d: %s score %v out of [0,1]", i, name, v)
			}
		}
	}
}
