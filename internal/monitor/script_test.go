package monitor

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func TestScript_ReplaysSteps(t *testing.T) {
	steps := []Step{
		Plateau(3, 30, 1_000_000, 40, 0.001),
		Ramp(5, 30, 90, 1_000_000, 5_000_000, 40, 80, 0.05),
	}
	s := NewScript(steps, 100*time.Millisecond, 0)
	ctx := context.Background()

	var samples []*Sample
	for {
		sm, err := s.Collect(ctx)
		if errors.Is(err, ErrScriptDone) {
			break
		}
		if err != nil {
			t.Fatalf("Collect() error = %v", err)
		}
		samples = append(samples, sm)
	}

	if len(samples) != 8 {
		t.Fatalf("replayed %d samples, want 8", len(samples))
	}
	for i := 0; i < 3; i++ {
		if samples[i].CPUPercent != 30 {
			t.Errorf("plateau sample %d cpu = %v, want 30", i, samples[i].CPUPercent)
		}
	}
	// Ramp endpoints are exact; interior is strictly increasing.
	if samples[3].CPUPercent != 30 || samples[7].CPUPercent != 90 {
		t.Errorf("ramp endpoints: %v .. %v, want 30 .. 90", samples[3].CPUPercent, samples[7].CPUPercent)
	}
	for i := 4; i <= 7; i++ {
		if samples[i].CPUPercent <= samples[i-1].CPUPercent {
			t.Errorf("ramp not increasing at %d: %v <= %v", i, samples[i].CPUPercent, samples[i-1].CPUPercent)
		}
	}
	// Timestamps advance by exactly one interval per sample.
	for i := 1; i < len(samples); i++ {
		if d := samples[i].Timestamp.Sub(samples[i-1].Timestamp); d != 100*time.Millisecond {
			t.Errorf("timestamp gap at %d = %v, want 100ms", i, d)
		}
	}
}

func TestScript_DeterministicForSeed(t *testing.T) {
	mk := func() *Script {
		steps := []Step{{Samples: 20, CPUFrom: 30, CPUTo: 30, MemFrom: 40, MemTo: 40, Wiggle: 5}}
		return NewScript(steps, 100*time.Millisecond, 7)
	}
	a, b := mk(), mk()
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		sa, err := a.Collect(ctx)
		if err != nil {
			t.Fatalf("Collect a: %v", err)
		}
		sb, _ := b.Collect(ctx)
		if sa.CPUPercent != sb.CPUPercent || sa.MemoryPercent != sb.MemoryPercent {
			t.Fatalf("sample %d differs across identical seeds: %+v vs %+v", i, sa, sb)
		}
		if math.Abs(sa.CPUPercent-30) > 5 {
			t.Errorf("wiggle exceeded half-width: %v", sa.CPUPercent)
		}
	}
}

func TestDemoSteps_Shape(t *testing.T) {
	s := NewScript(DemoSteps(), 100*time.Millisecond, 1)
	ctx := context.Background()

	var cpu []float64
	for {
		sm, err := s.Collect(ctx)
		if errors.Is(err, ErrScriptDone) {
			break
		}
		cpu = append(cpu, sm.CPUPercent)
	}
	if len(cpu) != 450 {
		t.Fatalf("demo length = %d samples, want 450", len(cpu))
	}
	// Healthy at both ends, anomalous in the middle.
	if cpu[0] != 30 || cpu[len(cpu)-1] != 30 {
		t.Errorf("demo endpoints: %v .. %v, want 30 .. 30", cpu[0], cpu[len(cpu)-1])
	}
	if peak := cpu[220]; peak != 90 {
		t.Errorf("demo mid-plateau cpu = %v, want 90", peak)
	}
}

func TestJitterTracker(t *testing.T) {
	var j jitterTracker
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if got := j.observe(base); got != 0 {
		t.Errorf("first observation jitter = %v, want 0", got)
	}

	// Perfectly regular pacing → zero jitter.
	now := base
	for i := 0; i < 10; i++ {
		now = now.Add(100 * time.Millisecond)
		if got := j.observe(now); i > 0 && got != 0 {
			t.Errorf("regular pacing jitter = %v, want 0", got)
		}
	}

	// One delayed collection shows up as nonzero jitter.
	now = now.Add(500 * time.Millisecond)
	if got := j.observe(now); got <= 0 {
		t.Errorf("irregular pacing jitter = %v, want > 0", got)
	}
}
