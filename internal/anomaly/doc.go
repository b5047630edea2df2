// Package anomaly scores how statistically unusual each metric sample is
// relative to its own recent history.
//
// scorer.go provides the per-stream Scorer: a fixed-capacity sliding window
// over raw samples, scored as a weighted sum of a z-score deviation component
// (|x−μ|/σ, capped at 5σ, rescaled to [0,1]) and a spike component (newest
// delta relative to the window's observed range). Windows shorter than two
// samples score 0, as do zero-variance windows.
//
// tracker.go combines the four stream scorers (cpu, network, memory, timing)
// into an overall score using fixed weights 0.3/0.2/0.3/0.2. The overall
// score drives the noise mix and chord trigger in the synthesizer.
package anomaly
