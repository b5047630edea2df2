package anomaly

// Per-stream weights for the overall anomaly score. They sum to 1.0.
// CPU and memory are weighted highest because they are the most direct
// indicators of host distress; network and timing are noisier signals.
const (
	weightCPU     = 0.3
	weightNetwork = 0.2
	weightMemory  = 0.3
	weightTiming  = 0.2
)

// Scores holds the per-stream anomaly scores for one interval plus their
// weighted combination. All values are in [0, 1].
type Scores struct {
	CPU     float64
	Network float64
	Memory  float64
	Timing  float64

	// Overall is the weighted average of the four stream scores. It drives
	// the noise mix and chord trigger downstream.
	Overall float64
}

// Tracker owns one Scorer per monitored metric stream and combines their
// outputs into an overall score each interval.
type Tracker struct {
	cpu     *Scorer
	network *Scorer
	memory  *Scorer
	timing  *Scorer
}

// NewTracker returns a Tracker whose four stream scorers share the given
// window capacity and component weights.
func NewTracker(window int, deviationWeight, spikeWeight float64) *Tracker {
	mk := func() *Scorer { return NewScorer(window, deviationWeight, spikeWeight) }
	return &Tracker{cpu: mk(), network: mk(), memory: mk(), timing: mk()}
}

// Observe feeds one interval's raw metric values to the stream scorers and
// returns the resulting Scores. Values the caller marked missing should be
// passed as 0; a steady 0 converges to a score of 0 like any constant stream.
func (t *Tracker) Observe(cpuPercent, networkRate, memoryPercent, jitter float64) Scores {
	s := Scores{
		CPU:     t.cpu.Observe(cpuPercent),
		Network: t.network.Observe(networkRate),
		Memory:  t.memory.Observe(memoryPercent),
		Timing:  t.timing.Observe(jitter),
	}
	s.Overall = clamp01(s.CPU*weightCPU + s.Network*weightNetwork +
		s.Memory*weightMemory + s.Timing*weightTiming)
	return s
}
