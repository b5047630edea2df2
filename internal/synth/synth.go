package synth

// Synthesizer owns the cross-slice synthesis state — oscillator phases,
// envelope phase and the noise source — and produces one mixed slice buffer
// per call. It is the only stateful part of the audio path; everything else
// is a pure function of Params.
type Synthesizer struct {
	sampleRate int
	tones      *ToneBank
	env        Envelope
	noise      *Noise

	toneBuf  []float64
	noiseBuf []float64
}

// New returns a Synthesizer at the given sample rate. seed feeds the noise
// source (0 = derive from the clock).
func New(sampleRate int, seed int64) *Synthesizer {
	return &Synthesizer{
		sampleRate: sampleRate,
		tones:      NewToneBank(sampleRate),
		noise:      NewNoise(seed),
	}
}

// SampleRate returns the synthesis sample rate in Hz.
func (s *Synthesizer) SampleRate() int { return s.sampleRate }

// Slice renders n samples for the given parameters and returns a freshly
// allocated buffer. Oscillator and envelope phases carry over from the
// previous call, so consecutive slices are phase-continuous even when the
// parameters step between them.
func (s *Synthesizer) Slice(p Params, n int) []float64 {
	if n <= 0 {
		return nil
	}
	s.toneBuf = resize(s.toneBuf, n)
	s.noiseBuf = resize(s.noiseBuf, n)

	s.tones.Render(p, s.toneBuf)
	s.env.Apply(p.PulseRate, s.sampleRate, s.toneBuf)
	s.noise.Fill(s.noiseBuf)

	out := make([]float64, n)
	Mix(s.toneBuf, s.noiseBuf, p.Amplitude, p.NoiseMix, out)
	return out
}

// resize returns buf with length n, reusing its storage when possible.
func resize(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}
