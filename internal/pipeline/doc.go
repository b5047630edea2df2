// Package pipeline wires the sonification loop together: a metric source
// feeds the anomaly tracker, scores drive the parameter mapper, the
// synthesizer renders one slice per sample, and slices fan out to the
// configured sinks. One run produces one continuous waveform.
package pipeline
