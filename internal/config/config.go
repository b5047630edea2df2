package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultInterval       = 100 * time.Millisecond
	DefaultSampleRate     = 44100
	DefaultAnomalyWindow  = 50
	DefaultSpeakerBuffer  = 8
	DefaultCrossfade      = 5 * time.Millisecond
)

// Config is the top-level configuration for echotrace.
type Config struct {
	// Interval is the time between metric samples. Each sample produces one
	// audio slice of the same duration.
	Interval time.Duration `yaml:"interval"`

	// Duration limits how long the pipeline runs. Zero means run until
	// interrupted.
	Duration time.Duration `yaml:"duration"`

	// SampleRate is the audio sample rate in Hz.
	SampleRate int `yaml:"sample_rate"`

	// Seed seeds the noise generator. Zero means derive from the clock;
	// a fixed seed makes output reproducible across runs.
	Seed int64 `yaml:"seed"`

	// Source selects where metric samples come from.
	Source Source `yaml:"source"`

	// Anomaly tunes the rolling-window anomaly scorer.
	Anomaly AnomalyConfig `yaml:"anomaly"`

	// Synth tunes the metric-to-audio parameter mapping.
	Synth SynthConfig `yaml:"synth"`

	// Output selects the audio sinks.
	Output OutputConfig `yaml:"output"`

	// Alerts holds threshold rules evaluated against each interval's metrics.
	Alerts AlertsConfig `yaml:"alerts"`
}

// Source describes one metric source.
type Source struct {
	// Type is the source kind: local | prometheus | script.
	Type string `yaml:"type"`

	// Endpoint is the /metrics URL for the prometheus source type.
	Endpoint string `yaml:"endpoint"`
}

// AnomalyConfig tunes the per-stream anomaly scorers.
type AnomalyConfig struct {
	// Window is the rolling-window capacity per metric stream.
	Window int `yaml:"window"`

	// DeviationWeight and SpikeWeight combine the z-score deviation and the
	// newest-sample spike components. They should sum to 1.
	DeviationWeight float64 `yaml:"deviation_weight"`
	SpikeWeight     float64 `yaml:"spike_weight"`
}

// SynthConfig tunes how metrics map to audio control parameters.
type SynthConfig struct {
	// BaseFreq and FreqRange define the linear CPU→pitch map:
	// frequency = BaseFreq + cpu/100 · FreqRange, clamped to [MinFreq, MaxFreq].
	BaseFreq  float64 `yaml:"base_freq"`
	FreqRange float64 `yaml:"freq_range"`
	MinFreq   float64 `yaml:"min_freq"`
	MaxFreq   float64 `yaml:"max_freq"`

	// MinPulse and MaxPulse bound the network→pulse-rate map in Hz.
	MinPulse float64 `yaml:"min_pulse"`
	MaxPulse float64 `yaml:"max_pulse"`

	// RateCeiling is the network byte rate mapped to the maximum pulse rate.
	// The map is logarithmic because byte rates span orders of magnitude.
	RateCeiling float64 `yaml:"rate_ceiling"`

	// MinVolume and MaxVolume bound the memory→amplitude map.
	MinVolume float64 `yaml:"min_volume"`
	MaxVolume float64 `yaml:"max_volume"`

	// ChordThreshold is the overall anomaly score above which dissonant
	// partials are added to the tone.
	ChordThreshold float64 `yaml:"chord_threshold"`

	// Crossfade is the blend length applied at slice boundaries.
	Crossfade time.Duration `yaml:"crossfade"`
}

// OutputConfig selects where the assembled audio goes.
type OutputConfig struct {
	// WAVPath is the output WAV file. Empty disables file output.
	WAVPath string `yaml:"wav_path"`

	// Play enables live playback through the default audio device.
	Play bool `yaml:"play"`

	// ListenAddr enables the WebSocket listener (e.g. ":8800") that streams
	// PCM frames to connected clients. Empty disables it.
	ListenAddr string `yaml:"listen_addr"`

	// SpeakerBuffer is the playback queue depth in slices. When the queue is
	// full the oldest slice is evicted rather than blocking the pipeline.
	SpeakerBuffer int `yaml:"speaker_buffer"`
}

// AlertsConfig holds the threshold alert rules.
type AlertsConfig struct {
	Rules []AlertRule `yaml:"rules"`
}

// AlertRule defines a threshold condition over the current interval's metrics.
type AlertRule struct {
	// Name is the human-readable alert identifier.
	Name string `yaml:"name"`

	// Condition is an expression like "anomaly > 0.6" or "cpu_percent > 90".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after a rule fires.
	Cooldown time.Duration `yaml:"cooldown"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config pre-populated with default values. The defaults
// describe a local run with no sinks enabled; callers normally set at least
// one of Output.WAVPath, Output.Play or Output.ListenAddr.
func Default() *Config {
	return &Config{
		Interval:   DefaultInterval,
		SampleRate: DefaultSampleRate,
		Source:     Source{Type: "local"},
		Anomaly: AnomalyConfig{
			Window:          DefaultAnomalyWindow,
			DeviationWeight: 0.6,
			SpikeWeight:     0.4,
		},
		Synth: SynthConfig{
			BaseFreq:       220,
			FreqRange:      440,
			MinFreq:        110,
			MaxFreq:        1760,
			MinPulse:       1,
			MaxPulse:       10,
			RateCeiling:    10_000_000, // 10 MB/s saturates the pulse map
			MinVolume:      0.1,
			MaxVolume:      0.5,
			ChordThreshold: 0.3,
			Crossfade:      DefaultCrossfade,
		},
		Output: OutputConfig{
			SpeakerBuffer: DefaultSpeakerBuffer,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if cfg.Duration < 0 {
		return fmt.Errorf("duration must not be negative")
	}
	if cfg.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive")
	}
	switch cfg.Source.Type {
	case "local", "script", "":
	case "prometheus":
		if cfg.Source.Endpoint == "" {
			return fmt.Errorf("source: endpoint is required for type prometheus")
		}
	default:
		return fmt.Errorf("source: unknown type %q", cfg.Source.Type)
	}
	if cfg.Anomaly.Window < 2 {
		return fmt.Errorf("anomaly.window must be at least 2")
	}
	if cfg.Anomaly.DeviationWeight < 0 || cfg.Anomaly.SpikeWeight < 0 {
		return fmt.Errorf("anomaly weights must not be negative")
	}
	s := cfg.Synth
	if s.MinFreq <= 0 || s.MaxFreq <= s.MinFreq {
		return fmt.Errorf("synth: need 0 < min_freq < max_freq")
	}
	if s.MinPulse < 0 || s.MaxPulse < s.MinPulse {
		return fmt.Errorf("synth: need 0 <= min_pulse <= max_pulse")
	}
	if s.RateCeiling <= 0 {
		return fmt.Errorf("synth: rate_ceiling must be positive")
	}
	if s.MinVolume < 0 || s.MaxVolume > 1 || s.MaxVolume < s.MinVolume {
		return fmt.Errorf("synth: need 0 <= min_volume <= max_volume <= 1")
	}
	if s.Crossfade < 0 || s.Crossfade > cfg.Interval/2 {
		return fmt.Errorf("synth: crossfade must be within [0, interval/2]")
	}
	if cfg.Output.SpeakerBuffer <= 0 {
		return fmt.Errorf("output: speaker_buffer must be positive")
	}
	for i, r := range cfg.Alerts.Rules {
		if r.Name == "" {
			return fmt.Errorf("alerts.rules[%d]: name is required", i)
		}
		if r.Condition == "" {
			return fmt.Errorf("alerts.rules[%d] %q: condition is required", i, r.Name)
		}
	}
	return nil
}
