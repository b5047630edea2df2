package monitor

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// ErrScriptDone is returned by Script.Collect once every step has been
// replayed. The pipeline treats it as a natural end of the run.
var ErrScriptDone = errors.New("monitor: script exhausted")

// Step describes one segment of a synthetic metrics script. Values ramp
// linearly from the From fields to the To fields across Samples collections.
type Step struct {
	Samples int

	CPUFrom, CPUTo float64
	NetFrom, NetTo float64
	MemFrom, MemTo float64
	Jitter         float64

	// Wiggle adds uniform noise of the given half-width to CPU and memory,
	// making the plateau sound organic instead of perfectly flat.
	Wiggle float64
}

// Plateau returns a Step holding constant values for n samples.
func Plateau(n int, cpu, net, mem, jitter float64) Step {
	return Step{
		Samples: n,
		CPUFrom: cpu, CPUTo: cpu,
		NetFrom: net, NetTo: net,
		MemFrom: mem, MemTo: mem,
		Jitter: jitter,
	}
}

// Ramp returns a Step interpolating linearly between two states over n samples.
func Ramp(n int, cpuFrom, cpuTo, netFrom, netTo, memFrom, memTo, jitter float64) Step {
	return Step{
		Samples: n,
		CPUFrom: cpuFrom, CPUTo: cpuTo,
		NetFrom: netFrom, NetTo: netTo,
		MemFrom: memFrom, MemTo: memTo,
		Jitter: jitter,
	}
}

// Script replays a fixed synthetic metrics script. It is fully deterministic
// for a given seed, which is what makes the demo WAV byte-identical across
// runs. Timestamps advance by the configured interval per sample regardless
// of wall-clock pacing.
type Script struct {
	steps    []Step
	interval time.Duration
	base     time.Time
	rng      *rand.Rand

	step int
	pos  int
	idx  int
}

// NewScript returns a Script over the given steps. seed drives the optional
// per-step wiggle; the same seed always yields the same sample sequence.
func NewScript(steps []Step, interval time.Duration, seed int64) *Script {
	return &Script{
		steps:    steps,
		interval: interval,
		base:     time.Unix(0, 0).UTC(),
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Collect returns the next scripted Sample, or ErrScriptDone when the script
// is exhausted.
func (s *Script) Collect(_ context.Context) (*Sample, error) {
	for s.step < len(s.steps) && s.pos >= s.steps[s.step].Samples {
		s.step++
		s.pos = 0
	}
	if s.step >= len(s.steps) {
		return nil, ErrScriptDone
	}

	st := s.steps[s.step]
	frac := 0.0
	if st.Samples > 1 {
		frac = float64(s.pos) / float64(st.Samples-1)
	}

	sample := &Sample{
		CPUPercent:    lerp(st.CPUFrom, st.CPUTo, frac),
		NetworkRate:   lerp(st.NetFrom, st.NetTo, frac),
		MemoryPercent: lerp(st.MemFrom, st.MemTo, frac),
		Jitter:        st.Jitter,
		Timestamp:     s.base.Add(time.Duration(s.idx) * s.interval),
	}
	if st.Wiggle > 0 {
		sample.CPUPercent += (s.rng.Float64()*2 - 1) * st.Wiggle
		sample.MemoryPercent += (s.rng.Float64()*2 - 1) * st.Wiggle
	}

	s.pos++
	s.idx++
	return sample, nil
}

// DemoSteps is the documented demo scenario: a healthy plateau, a ramp into
// an anomalous state (CPU, network and memory all climbing with rising
// jitter), and a recovery back to the plateau.
func DemoSteps() []Step {
	return []Step{
		Plateau(100, 30, 1_000_000, 40, 0.001),
		Ramp(100, 30, 90, 1_000_000, 6_000_000, 40, 90, 0.05),
		Plateau(50, 90, 6_000_000, 90, 0.05),
		Ramp(100, 90, 30, 6_000_000, 1_000_000, 90, 40, 0.005),
		Plateau(100, 30, 1_000_000, 40, 0.001),
	}
}

// lerp interpolates linearly between a and b.
func lerp(a, b, frac float64) float64 {
	return a + (b-a)*frac
}
