// Package synth turns metric snapshots into click-free audio slices.
//
// params.go maps one snapshot plus anomaly scores to the slice's control
// parameters (pitch, chord partials, pulse rate, amplitude, noise mix). The
// mapping is pure and total: bad inputs are clamped or zeroed, never
// rejected.
//
// oscillator.go holds the cross-slice synthesis state: phase-accumulator sine
// oscillators (fundamental plus chord partials, one phase per slot) and the
// raised-sine pulse envelope. Phases are never reset between slices — that is
// what keeps pitch steps inaudible as clicks.
//
// noise.go, mixer.go and assembler.go are the rest of the slice path: seeded
// uniform noise, the anomaly-driven tone/noise crossfade with post-mix
// amplitude, and the assembler that blends slice boundaries and applies
// final peak normalization (scale down only, 0.98 ceiling).
//
// synth.go ties the per-slice pieces together behind Synthesizer.Slice.
package synth
