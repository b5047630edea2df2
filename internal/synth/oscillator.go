package synth

import "math"

const twoPi = 2 * math.Pi

// Oscillator is a phase-accumulator sine generator. The phase survives across
// slices; when the target frequency changes between slices the phase is NOT
// reset — continuity of phase, not of frequency, is what keeps slice
// boundaries click-free.
type Oscillator struct {
	phase float64
}

// Add renders len(out) samples of a sine at freq into out, scaled by gain and
// summed onto the existing contents. The phase accumulator advances by
// 2π·f/rate per sample, wrapped to [0, 2π).
func (o *Oscillator) Add(freq float64, sampleRate int, gain float64, out []float64) {
	step := twoPi * freq / float64(sampleRate)
	for i := range out {
		out[i] += gain * math.Sin(o.phase)
		o.phase += step
		if o.phase >= twoPi {
			o.phase -= twoPi
		}
	}
}

// Phase returns the current accumulator value, in [0, 2π).
func (o *Oscillator) Phase() float64 { return o.phase }

// ToneBank renders the fundamental plus any chord partials. Each partial slot
// keeps its own Oscillator so its phase persists even while the partial is
// inactive — a partial that drops out and returns resumes from its own phase,
// not from zero.
type ToneBank struct {
	sampleRate int
	fund       Oscillator
	partials   []Oscillator
}

// NewToneBank returns a ToneBank for the given sample rate.
func NewToneBank(sampleRate int) *ToneBank {
	return &ToneBank{sampleRate: sampleRate}
}

// Render fills out with the tone for p: the fundamental at p.Frequency plus
// one partial per chord offset. Component gains are 1/(1+len(offsets)) so the
// sum stays within [-1, 1] before mixing.
func (b *ToneBank) Render(p Params, out []float64) {
	for i := range out {
		out[i] = 0
	}

	gain := 1.0 / float64(1+len(p.ChordOffsets))
	b.fund.Add(p.Frequency, b.sampleRate, gain, out)

	for i, offset := range p.ChordOffsets {
		for len(b.partials) <= i {
			b.partials = append(b.partials, Oscillator{})
		}
		b.partials[i].Add(p.Frequency*offset, b.sampleRate, gain, out)
	}
}

// Envelope applies a periodic amplitude pulse to a buffer. Like Oscillator it
// carries its phase across slices.
type Envelope struct {
	phase float64
}

// Apply multiplies buf element-wise by a raised-sine pulse at pulseRate:
// (1+sin(φ))/2, oscillating between 0 and 1. A pulse rate of 0 (or below)
// leaves buf untouched — a steady, unpulsed tone.
func (e *Envelope) Apply(pulseRate float64, sampleRate int, buf []float64) {
	if pulseRate <= 0 {
		return
	}
	step := twoPi * pulseRate / float64(sampleRate)
	for i := range buf {
		buf[i] *= (1 + math.Sin(e.phase)) / 2
		e.phase += step
		if e.phase >= twoPi {
			e.phase -= twoPi
		}
	}
}
