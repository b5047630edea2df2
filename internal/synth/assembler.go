package synth

import (
	"math"
	"time"
)

// PeakCeiling is the normalization target: the assembled stream is scaled
// down so no sample magnitude exceeds it. Streams already under the ceiling
// are never scaled up — that would amplify near-silent passages.
const PeakCeiling = 0.98

// Assembler stitches successive slice buffers into one continuous stream.
// At each boundary it blends the head of the incoming slice from the previous
// slice's final value over the crossfade length, removing the discontinuities
// that amplitude or parameter changes introduce. The blend modifies samples
// in place, so every appended slice keeps its exact length.
type Assembler struct {
	fade  int // crossfade length in samples
	buf   []float64
	limit int // rolling cap; 0 = unbounded
	last  float64
	any   bool
}

// NewAssembler returns an Assembler for the given sample rate and crossfade
// duration. The buffer grows without bound; callers running live-only should
// call SetLimit to keep memory bounded.
func NewAssembler(sampleRate int, crossfade time.Duration) *Assembler {
	fade := int(math.Round(crossfade.Seconds() * float64(sampleRate)))
	if fade < 0 {
		fade = 0
	}
	return &Assembler{fade: fade}
}

// SetLimit bounds the retained stream to at most n samples; older samples are
// discarded as new slices arrive. Use for unbounded live runs where the full
// stream is never written out.
func (a *Assembler) SetLimit(n int) { a.limit = n }

// Append blends slice onto the end of the stream and returns the blended
// slice (a view into the internal buffer, valid until the next Append). The
// blend length never exceeds half the slice.
func (a *Assembler) Append(slice []float64) []float64 {
	if len(slice) == 0 {
		return nil
	}

	fade := a.fade
	if fade > len(slice)/2 {
		fade = len(slice) / 2
	}
	if a.any && fade > 0 {
		// Walk the boundary from the previous slice's final value to the new
		// slice's own samples. Phase-continuous tones barely change here; the
		// blend exists for the amplitude and noise-mix steps that are not
		// phase-compatible.
		for i := 0; i < fade; i++ {
			w := float64(i+1) / float64(fade+1)
			slice[i] = (1-w)*a.last + w*slice[i]
		}
	}

	a.buf = append(a.buf, slice...)
	a.last = slice[len(slice)-1]
	a.any = true

	if a.limit > 0 && len(a.buf) > a.limit {
		drop := len(a.buf) - a.limit
		a.buf = append(a.buf[:0], a.buf[drop:]...)
	}
	if len(slice) > len(a.buf) {
		return a.buf
	}
	return a.buf[len(a.buf)-len(slice):]
}

// Len returns the number of assembled samples currently retained.
func (a *Assembler) Len() int { return len(a.buf) }

// Finalize applies peak normalization to the retained stream and returns it.
// The returned buffer is owned by the caller; the Assembler keeps producing
// into its own storage if appended to again.
func (a *Assembler) Finalize() []float64 {
	out := make([]float64, len(a.buf))
	copy(out, a.buf)
	Normalize(out)
	return out
}

// Normalize scales buf down in place so its peak magnitude does not exceed
// PeakCeiling. Buffers already under the ceiling are left untouched.
func Normalize(buf []float64) {
	var peak float64
	for _, v := range buf {
		if m := math.Abs(v); m > peak {
			peak = m
		}
	}
	if peak <= PeakCeiling || peak == 0 {
		return
	}
	scale := PeakCeiling / peak
	for i := range buf {
		buf[i] *= scale
	}
}
