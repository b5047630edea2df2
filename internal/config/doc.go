// Package config loads and watches the echotrace configuration file.
//
// Top-level types:
//   - Config — interval, duration, sample_rate, seed, source, anomaly, synth,
//     output, alerts; parsed from YAML
//   - Source — type (local|prometheus|script) and endpoint
//   - AnomalyConfig — rolling-window size and component weights
//   - SynthConfig — frequency/pulse/volume maps, chord threshold, crossfade
//   - OutputConfig — wav_path, play, listen_addr, speaker_buffer
//   - AlertsConfig / AlertRule — threshold rules over interval metrics
//
// Load(path) reads the YAML file, applies Default() values, then validates
// ranges and enums. Watch(ctx, path, onChange) uses fsnotify to detect file
// changes and calls onChange with the newly parsed Config; it handles the
// rename→create pattern used by atomic-save editors by re-adding the watch.
package config
