package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
)

// Local reads CPU, memory and network metrics from the host.
//
// CPU is measured since the previous Collect call (the first call primes the
// counters). The network rate is derived from the delta of the host's total
// byte counters against the previous read.
type Local struct {
	jitter   jitterTracker
	now      func() time.Time // injectable for tests
	lastNet  float64
	lastTime time.Time
	primed   bool
}

// NewLocal returns a Local source. The first Collect establishes counter
// baselines and reports the rate fields as missing.
func NewLocal() *Local {
	return &Local{now: time.Now}
}

// Collect gathers one Sample from the host. Individual probe failures are
// logged and reported via Sample.Missing, never as an error — a host with a
// broken probe should still sound, just with that stream silent at 0.
func (l *Local) Collect(ctx context.Context) (*Sample, error) {
	now := l.now()
	s := &Sample{Timestamp: now, Jitter: l.jitter.observe(now)}

	if pcts, err := cpu.PercentWithContext(ctx, 0, false); err != nil || len(pcts) == 0 {
		slog.Warn("monitor: cpu probe failed", "err", err)
		s.Missing = append(s.Missing, FieldCPU)
	} else {
		s.CPUPercent = pcts[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		slog.Warn("monitor: memory probe failed", "err", err)
		s.Missing = append(s.Missing, FieldMemory)
	} else {
		s.MemoryPercent = vm.UsedPercent
	}

	if counters, err := net.IOCountersWithContext(ctx, false); err != nil || len(counters) == 0 {
		slog.Warn("monitor: network probe failed", "err", err)
		s.Missing = append(s.Missing, FieldNetwork)
	} else {
		total := float64(counters[0].BytesSent + counters[0].BytesRecv)
		if !l.primed {
			s.Missing = append(s.Missing, FieldNetwork)
			l.primed = true
		} else if elapsed := now.Sub(l.lastTime).Seconds(); elapsed > 0 {
			s.NetworkRate = deltaOf(total, l.lastNet) / elapsed
		}
		l.lastNet = total
		l.lastTime = now
	}

	return s, nil
}
