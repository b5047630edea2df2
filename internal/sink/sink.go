package sink

import (
	"fmt"
	"sync"

	"github.com/rootcastleco/EchoTrace/internal/wav"
)

// Sink receives rendered audio slices from the pipeline. Write is called once
// per slice in render order; Close flushes whatever the sink has buffered.
type Sink interface {
	Write(sampleRate int, samples []float64) error
	Close() error
}

// FileSink accumulates every slice it receives and encodes the whole run as a
// single WAV file on Close. Nothing touches the filesystem until Close, so a
// run that is cancelled before any audio is rendered leaves no file behind.
type FileSink struct {
	path string

	mu      sync.Mutex
	rate    int
	samples []float64
	closed  bool
}

// NewFileSink returns a FileSink that will write to path on Close.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Write appends samples to the pending buffer. The sample rate is pinned by
// the first write; later writes at a different rate are rejected.
func (f *FileSink) Write(sampleRate int, samples []float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return fmt.Errorf("sink: write to closed file sink %s", f.path)
	}
	if f.rate == 0 {
		f.rate = sampleRate
	} else if f.rate != sampleRate {
		return fmt.Errorf("sink: sample rate changed mid-run: %d -> %d", f.rate, sampleRate)
	}
	f.samples = append(f.samples, samples...)
	return nil
}

// Close encodes the accumulated samples to the configured path. An empty run
// still produces a valid zero-length WAV.
func (f *FileSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	rate := f.rate
	if rate == 0 {
		rate = 44100
	}
	return wav.WriteFile(f.path, rate, f.samples)
}
