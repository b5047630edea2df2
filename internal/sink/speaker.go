package sink

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/hajimehoshi/oto/v2"
)

const (
	// speakerChannels and speakerFormat describe the stream handed to oto:
	// mono 32-bit float little-endian (format 0 in oto/v2).
	speakerChannels = 1
	speakerFormat   = 0
	bytesPerSample  = 4
)

// Speaker plays rendered slices on the local audio device. Write is
// non-blocking: slices are queued on a fixed-depth channel and the oldest
// slice is evicted when the renderer outruns playback, so a stalled audio
// device can never back-pressure the pipeline.
type Speaker struct {
	sampleRate int
	queue      *sliceQueue

	ctx    *oto.Context
	player oto.Player

	closeOnce sync.Once
}

// NewSpeaker opens the default audio device at sampleRate and starts playback
// once the device signals ready. queueDepth is the number of slices buffered
// between the renderer and the device.
func NewSpeaker(sampleRate, queueDepth int) (*Speaker, error) {
	if queueDepth < 1 {
		queueDepth = 1
	}
	ctx, ready, err := oto.NewContext(sampleRate, speakerChannels, speakerFormat)
	if err != nil {
		return nil, fmt.Errorf("sink: open audio device: %w", err)
	}

	s := &Speaker{
		sampleRate: sampleRate,
		queue:      newSliceQueue(queueDepth),
		ctx:        ctx,
	}
	s.player = ctx.NewPlayer(s.queue)

	go func() {
		<-ready
		s.player.Play()
	}()
	return s, nil
}

// Write converts samples to the device format and enqueues them.
func (s *Speaker) Write(sampleRate int, samples []float64) error {
	if sampleRate != s.sampleRate {
		return fmt.Errorf("sink: speaker opened at %d Hz, got slice at %d Hz", s.sampleRate, sampleRate)
	}
	buf := make([]byte, len(samples)*bytesPerSample)
	for i, v := range samples {
		bits := math.Float32bits(float32(v))
		buf[i*4] = byte(bits)
		buf[i*4+1] = byte(bits >> 8)
		buf[i*4+2] = byte(bits >> 16)
		buf[i*4+3] = byte(bits >> 24)
	}
	if s.queue.push(buf) {
		slog.Warn("speaker: playback behind, evicted oldest slice",
			"queue_depth", s.queue.depth())
	}
	return nil
}

// Close stops playback. Queued audio that has not reached the device yet is
// discarded.
func (s *Speaker) Close() error {
	s.closeOnce.Do(func() {
		s.player.Close()
	})
	return nil
}

// sliceQueue is the bounded buffer between the renderer and the audio device.
// push evicts the oldest slice when full. Read feeds the device and
// substitutes silence on underrun so playback never starves mid-stream.
type sliceQueue struct {
	ch  chan []byte
	rem []byte // partially consumed slice carried across Read calls
}

func newSliceQueue(depth int) *sliceQueue {
	return &sliceQueue{ch: make(chan []byte, depth)}
}

func (q *sliceQueue) depth() int { return cap(q.ch) }

// push enqueues buf, evicting the oldest entry if the queue is full.
// It reports whether an eviction happened.
func (q *sliceQueue) push(buf []byte) (evicted bool) {
	select {
	case q.ch <- buf:
		return false
	default:
	}
	select {
	case <-q.ch:
		evicted = true
	default:
	}
	q.ch <- buf
	return evicted
}

// Read implements io.Reader for the oto player. It never blocks and never
// returns io.EOF: when no audio is queued it fills p with float32 zeros so
// the device keeps running through gaps in the stream.
func (q *sliceQueue) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(q.rem) == 0 {
			select {
			case q.rem = <-q.ch:
			default:
				// Underrun: pad the rest of the request with silence.
				for i := n; i < len(p); i++ {
					p[i] = 0
				}
				return len(p), nil
			}
		}
		c := copy(p[n:], q.rem)
		q.rem = q.rem[c:]
		n += c
	}
	return n, nil
}
