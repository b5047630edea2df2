// Package wav encodes float sample streams as 16-bit PCM mono RIFF/WAVE.
// Quantization is int16 = round(sample·32767), clamped. WriteFile is atomic
// (temp file + rename) so header length fields can never disagree with the
// written data, even across interrupted runs.
package wav
