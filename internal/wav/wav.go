package wav

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Format constants for the files we write: 16-bit PCM mono.
const (
	numChannels   = 1
	bitsPerSample = 16
	bytesPerFrame = numChannels * bitsPerSample / 8
	headerSize    = 44
)

// Encode writes samples as a RIFF/WAVE stream to w. Samples are quantized as
// int16 = round(sample · 32767), clamped to the int16 range, little-endian.
// The header length fields always reflect the actual sample count, so a
// successfully encoded stream is never truncated mid-header.
func Encode(w io.Writer, sampleRate int, samples []float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("wav: sample rate must be positive, got %d", sampleRate)
	}

	dataSize := len(samples) * bytesPerFrame
	var header [headerSize]byte

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(headerSize-8+dataSize))
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(header[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(header[22:24], numChannels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*bytesPerFrame))
	binary.LittleEndian.PutUint16(header[32:34], bytesPerFrame)
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)

	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("wav: write header: %w", err)
	}

	pcm := make([]byte, dataSize)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(Quantize(s)))
	}
	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("wav: write samples: %w", err)
	}
	return nil
}

// Quantize converts a float sample to 16-bit PCM, clamping out-of-range
// input rather than wrapping it.
func Quantize(s float64) int16 {
	v := math.Round(s * 32767)
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// WriteFile encodes samples to path atomically: the stream is written to a
// temp file in the same directory and renamed into place, so an interrupted
// run never leaves a WAV with header fields that disagree with its contents.
func WriteFile(path string, sampleRate int, samples []float64) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".echotrace-*.wav")
	if err != nil {
		return fmt.Errorf("wav: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, sampleRate, samples); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("wav: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("wav: rename into place: %w", err)
	}
	return nil
}
