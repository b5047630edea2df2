package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/rootcastleco/EchoTrace/internal/config"
)

// Field names used in Sample.Missing.
const (
	FieldCPU     = "cpu_percent"
	FieldNetwork = "network_rate"
	FieldMemory  = "memory_percent"
	FieldJitter  = "jitter"
)

// Sample is one snapshot of the monitored quantities. Fields the source could
// not populate are zero and listed in Missing; downstream consumers treat
// them as 0 rather than failing.
type Sample struct {
	// CPUPercent is total CPU utilization in [0, 100].
	CPUPercent float64

	// NetworkRate is total network throughput in bytes per second.
	NetworkRate float64

	// MemoryPercent is virtual memory usage in [0, 100].
	MemoryPercent float64

	// Jitter is the mean absolute deviation of recent collection intervals
	// from their average, in seconds.
	Jitter float64

	Timestamp time.Time

	// Missing lists the Field* names that could not be populated this cycle.
	Missing []string
}

// Source is the common interface implemented by every metric source.
// Collect is called once per configured interval.
type Source interface {
	Collect(ctx context.Context) (*Sample, error)
}

// New returns the appropriate Source for the given configuration.
func New(cfg *config.Config) (Source, error) {
	switch cfg.Source.Type {
	case "local", "":
		return NewLocal(), nil
	case "prometheus":
		return NewPrometheus(cfg.Source.Endpoint), nil
	case "script":
		return NewScript(DemoSteps(), cfg.Interval, cfg.Seed), nil
	default:
		return nil, fmt.Errorf("monitor: unsupported source type %q", cfg.Source.Type)
	}
}

// jitterWindow is the number of recent collection intervals tracked.
const jitterWindow = 50

// jitterTracker derives timing jitter from the spacing of Collect calls.
// Jitter is the mean absolute deviation of recent intervals from their mean,
// in seconds — a loaded or stalling host shows irregular pacing long before
// individual metrics look unhealthy.
type jitterTracker struct {
	last      time.Time
	intervals []float64
}

// observe records the gap since the previous call and returns the current
// jitter. The first call establishes a baseline and returns 0.
func (j *jitterTracker) observe(now time.Time) float64 {
	if j.last.IsZero() {
		j.last = now
		return 0
	}
	interval := now.Sub(j.last).Seconds()
	j.last = now

	if len(j.intervals) >= jitterWindow {
		j.intervals = j.intervals[1:]
	}
	j.intervals = append(j.intervals, interval)

	if len(j.intervals) < 2 {
		return 0
	}
	var mean float64
	for _, v := range j.intervals {
		mean += v
	}
	mean /= float64(len(j.intervals))

	var dev float64
	for _, v := range j.intervals {
		d := v - mean
		if d < 0 {
			d = -d
		}
		dev += d
	}
	return dev / float64(len(j.intervals))
}

// deltaOf returns the positive counter delta between current and previous.
// If current < previous (counter reset after restart), returns 0.
func deltaOf(current, previous float64) float64 {
	d := current - previous
	if d < 0 {
		return 0
	}
	return d
}
