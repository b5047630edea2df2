package synth

import (
	"math"

	"github.com/rootcastleco/EchoTrace/internal/anomaly"
	"github.com/rootcastleco/EchoTrace/internal/config"
)

// Chord partial ratios added as the overall anomaly score rises. The tritone
// (√2) is maximally dissonant against the fundamental; the fifth thickens the
// texture further once the system is clearly degraded.
var (
	ratioTritone = math.Sqrt2
	ratioFifth   = 1.5
)

// chordUpperFactor scales the chord threshold to the point where the second
// partial joins.
const chordUpperFactor = 5.0 / 3.0

// Params is the set of audio control parameters for one time slice. It is a
// pure function of the metric snapshot and anomaly scores — no cross-slice
// state lives here.
type Params struct {
	// Frequency is the fundamental pitch in Hz, always > 0.
	Frequency float64

	// ChordOffsets are frequency ratios of additional partials, each with its
	// own oscillator. Empty for a healthy, single-tone state.
	ChordOffsets []float64

	// PulseRate is the amplitude-envelope rate in Hz. 0 means a steady tone.
	PulseRate float64

	// Amplitude is the overall slice loudness in [0, 1].
	Amplitude float64

	// NoiseMix is the broadband-noise fraction in [0, 1].
	NoiseMix float64
}

// Mapper converts one metric snapshot plus anomaly scores into Params.
// Mapping never fails: out-of-range inputs are clamped and NaNs are treated
// as absent (0) at this boundary.
type Mapper struct {
	cfg config.SynthConfig
}

// NewMapper returns a Mapper using the given synth tuning.
func NewMapper(cfg config.SynthConfig) Mapper {
	return Mapper{cfg: cfg}
}

// Map derives the audio parameters for the next slice.
//
//   - CPU drives pitch linearly: base + cpu/100 · range, clamped.
//   - Network drives pulse rate through log1p compression, because byte
//     rates span orders of magnitude.
//   - Memory drives amplitude linearly between the volume bounds.
//   - The overall anomaly score becomes the noise mix directly, and adds
//     dissonant chord partials above the chord threshold.
func (m Mapper) Map(cpuPercent, networkRate, memoryPercent float64, scores anomaly.Scores) Params {
	c := m.cfg
	cpu := clampRange(sanitize(cpuPercent), 0, 100)
	mem := clampRange(sanitize(memoryPercent), 0, 100)
	rate := sanitize(networkRate)
	if rate < 0 {
		rate = 0
	}

	p := Params{
		Frequency: clampRange(c.BaseFreq+cpu/100*c.FreqRange, c.MinFreq, c.MaxFreq),
		Amplitude: clampRange(c.MinVolume+mem/100*(c.MaxVolume-c.MinVolume), c.MinVolume, c.MaxVolume),
		NoiseMix:  clampRange(sanitize(scores.Overall), 0, 1),
	}

	norm := math.Log1p(rate) / math.Log1p(c.RateCeiling)
	p.PulseRate = clampRange(c.MinPulse+norm*(c.MaxPulse-c.MinPulse), c.MinPulse, c.MaxPulse)

	if scores.Overall > c.ChordThreshold {
		p.ChordOffsets = append(p.ChordOffsets, ratioTritone)
	}
	if scores.Overall > c.ChordThreshold*chordUpperFactor {
		p.ChordOffsets = append(p.ChordOffsets, ratioFifth)
	}
	return p
}

// sanitize maps NaN and infinities to 0, the documented default for
// absent or garbage metric fields.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// clampRange restricts v to [lo, hi].
func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
