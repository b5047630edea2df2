package synth

import (
	"math/rand"
	"time"
)

// Noise generates broadband noise from a seedable source. A fixed seed makes
// the sample stream reproducible within a run, which is what the demo relies
// on for byte-identical output.
type Noise struct {
	rng *rand.Rand
}

// NewNoise returns a Noise source. A seed of 0 derives one from the clock;
// any other value gives a reproducible stream.
func NewNoise(seed int64) *Noise {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Noise{rng: rand.New(rand.NewSource(seed))}
}

// Fill overwrites buf with independent uniform samples in [-1, 1].
func (n *Noise) Fill(buf []float64) {
	for i := range buf {
		buf[i] = n.rng.Float64()*2 - 1
	}
}
