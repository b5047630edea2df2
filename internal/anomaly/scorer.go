package anomaly

import "math"

// Weights combining the deviation and spike components of a score.
// They should sum to 1.0.
const (
	DefaultDeviationWeight = 0.6
	DefaultSpikeWeight     = 0.4
)

// maxZScore is the z-score mapped to a full deviation component of 1.0.
// Deviations beyond five standard deviations carry no extra information.
const maxZScore = 5.0

// sigmaFloor guards the z-score against division by zero when every sample
// in the window is identical.
const sigmaFloor = 1e-9

// Scorer converts a rolling window of raw samples from one metric stream into
// a bounded anomaly score. It owns its window exclusively; Observe must not be
// called concurrently.
type Scorer struct {
	window    []float64
	capacity  int
	devWeight float64
	spkWeight float64
}

// NewScorer returns a Scorer with the given window capacity and component
// weights. Capacity below 2 is raised to 2; non-positive weight pairs fall
// back to the defaults.
func NewScorer(capacity int, deviationWeight, spikeWeight float64) *Scorer {
	if capacity < 2 {
		capacity = 2
	}
	if deviationWeight <= 0 && spikeWeight <= 0 {
		deviationWeight = DefaultDeviationWeight
		spikeWeight = DefaultSpikeWeight
	}
	return &Scorer{
		window:    make([]float64, 0, capacity),
		capacity:  capacity,
		devWeight: deviationWeight,
		spkWeight: spikeWeight,
	}
}

// Observe appends x to the window, evicting the oldest sample on overflow,
// and returns the anomaly score for x in [0, 1].
//
// With fewer than two samples of history the score is 0 — there is not enough
// context to call anything anomalous. A zero-variance window contributes a
// deviation component of 0 regardless of x. NaN and infinite inputs score 0
// and are not recorded.
func (s *Scorer) Observe(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}

	if len(s.window) >= s.capacity {
		s.window = s.window[1:]
	}
	s.window = append(s.window, x)

	if len(s.window) < 2 {
		return 0
	}

	mean, std := meanStd(s.window)
	lo, hi := minMax(s.window)

	deviation := 0.0
	if std > sigmaFloor {
		z := math.Abs(x-mean) / std
		if z > maxZScore {
			z = maxZScore
		}
		deviation = z / maxZScore
	}

	spike := 0.0
	if r := hi - lo; r > 0 {
		prev := s.window[len(s.window)-2]
		spike = clamp01(math.Abs(x-prev) / r)
	}

	return clamp01(deviation*s.devWeight + spike*s.spkWeight)
}

// Len returns the number of samples currently in the window.
func (s *Scorer) Len() int { return len(s.window) }

// meanStd returns the mean and population standard deviation of w.
func meanStd(w []float64) (mean, std float64) {
	for _, v := range w {
		mean += v
	}
	mean /= float64(len(w))

	var variance float64
	for _, v := range w {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(w))
	return mean, math.Sqrt(variance)
}

// minMax returns the smallest and largest values in w.
func minMax(w []float64) (lo, hi float64) {
	lo, hi = w[0], w[0]
	for _, v := range w[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// clamp01 restricts v to the range [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
