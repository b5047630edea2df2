package synth

// Mix combines the enveloped tone and the noise buffers into out:
//
//	out = amplitude · ((1−noiseMix)·tone + noiseMix·noise)
//
// This is an equal-contribution crossfade between tonal and noise content: at
// noiseMix 0 the slice is pure modulated tone, at 1 it is pure noise.
// Amplitude is applied after mixing so loudness stays independent of the
// anomaly level. Both control values are clamped to [0, 1].
func Mix(tone, noise []float64, amplitude, noiseMix float64, out []float64) {
	amplitude = clampRange(sanitize(amplitude), 0, 1)
	noiseMix = clampRange(sanitize(noiseMix), 0, 1)

	for i := range out {
		out[i] = amplitude * ((1-noiseMix)*tone[i] + noiseMix*noise[i])
	}
}
