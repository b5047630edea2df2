package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rootcastleco/EchoTrace/internal/alert"
	"github.com/rootcastleco/EchoTrace/internal/anomaly"
	"github.com/rootcastleco/EchoTrace/internal/config"
	"github.com/rootcastleco/EchoTrace/internal/monitor"
	"github.com/rootcastleco/EchoTrace/internal/sink"
	"github.com/rootcastleco/EchoTrace/internal/synth"
)

// statusEvery is how many samples pass between status log lines.
const statusEvery = 10

// liveTail bounds assembler memory on runs with no WAV output: only the most
// recent stretch of audio is retained for the boundary blend.
const liveTail = 10 * time.Second

// Engine drives the sonification loop: collect a metric sample, score it,
// map it to audio parameters, render one slice, and fan the slice out to the
// live sinks. When the run ends the assembled waveform is normalized and
// handed to the file sink.
type Engine struct {
	cfg     *config.Config
	source  monitor.Source
	tracker *anomaly.Tracker
	synth   *synth.Synthesizer
	asm     *synth.Assembler

	// mu guards the hot-swappable pieces: Retune replaces them from the
	// config watcher's goroutine while the run loop is reading them.
	mu     sync.Mutex
	mapper synth.Mapper
	alerts *alert.Engine

	live []sink.Sink
	file sink.Sink

	runID    string
	sliceLen int

	lastScores anomaly.Scores
	lastParams synth.Params

	// paced controls whether the loop waits out the sample interval between
	// slices. Demo runs and tests render as fast as possible.
	paced bool
}

// New builds an Engine from cfg and source. Sinks are attached separately.
func New(cfg *config.Config, source monitor.Source) *Engine {
	asm := synth.NewAssembler(cfg.SampleRate, cfg.Synth.Crossfade)
	if cfg.Output.WAVPath == "" {
		asm.SetLimit(int(liveTail.Seconds() * float64(cfg.SampleRate)))
	}
	return &Engine{
		cfg:      cfg,
		source:   source,
		tracker:  anomaly.NewTracker(cfg.Anomaly.Window, cfg.Anomaly.DeviationWeight, cfg.Anomaly.SpikeWeight),
		mapper:   synth.NewMapper(cfg.Synth),
		synth:    synth.New(cfg.SampleRate, cfg.Seed),
		asm:      asm,
		alerts:   alert.NewEngine(cfg.Alerts),
		runID:    uuid.NewString(),
		sliceLen: int(math.Round(cfg.Interval.Seconds() * float64(cfg.SampleRate))),
		paced:    true,
	}
}

// AddSink attaches a live sink that receives every rendered slice.
func (e *Engine) AddSink(s sink.Sink) { e.live = append(e.live, s) }

// SetFileSink attaches the sink that receives the full normalized waveform
// when the run completes.
func (e *Engine) SetFileSink(s sink.Sink) { e.file = s }

// SetPaced controls real-time pacing. Unpaced runs render slices back to
// back, which is what the demo and offline rendering want.
func (e *Engine) SetPaced(paced bool) { e.paced = paced }

// RunID returns the unique identifier for this run.
func (e *Engine) RunID() string { return e.runID }

// Retune swaps the synth tuning and alert rules for all subsequent slices.
// Sample rate, interval, source and sinks are fixed for the life of a run;
// this is the set of knobs a config reload can apply without restarting.
func (e *Engine) Retune(sc config.SynthConfig, ac config.AlertsConfig) {
	e.mu.Lock()
	e.mapper = synth.NewMapper(sc)
	e.alerts = alert.NewEngine(ac)
	e.mu.Unlock()
	slog.Info("pipeline: retuned",
		"run_id", e.runID,
		"base_freq", sc.BaseFreq,
		"alert_rules", len(ac.Rules),
	)
}

// Run executes the pipeline until the source is exhausted, the configured
// duration elapses, or ctx is cancelled. Cancellation finishes the current
// slice before flushing, so the written WAV always ends on a slice boundary.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("pipeline: run starting",
		"run_id", e.runID,
		"interval", e.cfg.Interval,
		"sample_rate", e.cfg.SampleRate,
		"slice_samples", e.sliceLen,
	)

	var ticker *time.Ticker
	if e.paced {
		ticker = time.NewTicker(e.cfg.Interval)
		defer ticker.Stop()
	}

	maxSlices := 0
	if e.cfg.Duration > 0 {
		maxSlices = int(e.cfg.Duration / e.cfg.Interval)
	}

	rendered := 0
	start := time.Now()

loop:
	for {
		if maxSlices > 0 && rendered >= maxSlices {
			break
		}
		if e.paced && rendered > 0 {
			select {
			case <-ctx.Done():
				break loop
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			break
		}

		if err := e.step(ctx); err != nil {
			if errors.Is(err, monitor.ErrScriptDone) {
				break
			}
			return err
		}
		rendered++

		if rendered%statusEvery == 0 {
			e.logStatus(rendered)
		}
	}

	if err := e.flush(); err != nil {
		return err
	}
	slog.Info("pipeline: run finished",
		"run_id", e.runID,
		"samples", rendered,
		"audio", time.Duration(rendered)*e.cfg.Interval,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// step collects one sample and renders one slice.
func (e *Engine) step(ctx context.Context) error {
	sample, err := e.source.Collect(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	mapper, alerts := e.mapper, e.alerts
	e.mu.Unlock()

	scores := e.tracker.Observe(sample.CPUPercent, sample.NetworkRate, sample.MemoryPercent, sample.Jitter)
	params := mapper.Map(sample.CPUPercent, sample.NetworkRate, sample.MemoryPercent, scores)
	slice := e.synth.Slice(params, e.sliceLen)
	blended := e.asm.Append(slice)

	for _, s := range e.live {
		if err := s.Write(e.cfg.SampleRate, blended); err != nil {
			return fmt.Errorf("pipeline: live sink: %w", err)
		}
	}

	alerts.Evaluate(alert.Reading{
		Anomaly:       scores.Overall,
		CPUPercent:    sample.CPUPercent,
		NetworkRate:   sample.NetworkRate,
		MemoryPercent: sample.MemoryPercent,
		Jitter:        sample.Jitter,
	})

	e.lastScores = scores
	e.lastParams = params
	return nil
}

// flush finalizes the assembled waveform and closes every sink.
func (e *Engine) flush() error {
	var firstErr error

	if e.file != nil {
		final := e.asm.Finalize()
		if err := e.file.Write(e.cfg.SampleRate, final); err != nil {
			firstErr = fmt.Errorf("pipeline: file sink: %w", err)
		}
		if err := e.file.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("pipeline: file sink close: %w", err)
		}
	}
	for _, s := range e.live {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("pipeline: live sink close: %w", err)
		}
	}
	return firstErr
}

func (e *Engine) logStatus(rendered int) {
	slog.Info("pipeline: status",
		"run_id", e.runID,
		"samples", rendered,
		"anomaly", round2(e.lastScores.Overall),
		"freq_hz", round2(e.lastParams.Frequency),
		"pulse_hz", round2(e.lastParams.PulseRate),
		"amplitude", round2(e.lastParams.Amplitude),
		"noise_mix", round2(e.lastParams.NoiseMix),
	)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
