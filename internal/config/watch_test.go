package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func startWatch(t *testing.T, path string) (<-chan *Config, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	reloads := make(chan *Config, 4)
	go func() {
		if err := Watch(ctx, path, func(cfg *Config) { reloads <- cfg }); err != nil {
			t.Errorf("Watch: %v", err)
		}
	}()
	// Give the watcher a moment to arm before the first edit.
	time.Sleep(150 * time.Millisecond)
	return reloads, cancel
}

func TestWatch_DeliversSynthRetune(t *testing.T) {
	path := filepath.Join(t.TempDir(), "echotrace.yaml")
	writeConfigFile(t, path, "interval: 150ms\n")

	reloads, cancel := startWatch(t, path)
	defer cancel()

	writeConfigFile(t, path, "interval: 150ms\nsynth:\n  base_freq: 330\n")

	select {
	case cfg := <-reloads:
		if cfg.Synth.BaseFreq != 330 {
			t.Errorf("reloaded base_freq = %v, want 330", cfg.Synth.BaseFreq)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("synth edit did not trigger a reload")
	}
}

func TestWatch_SkipsInvalidAndColdChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "echotrace.yaml")
	writeConfigFile(t, path, "interval: 150ms\n")

	reloads, cancel := startWatch(t, path)
	defer cancel()

	// A broken file must not reach the callback.
	writeConfigFile(t, path, "interval: [broken\n")
	time.Sleep(500 * time.Millisecond)

	// Neither may a change that needs a restart to apply.
	writeConfigFile(t, path, "interval: 250ms\n")
	time.Sleep(500 * time.Millisecond)

	select {
	case cfg := <-reloads:
		t.Fatalf("unexpected reload delivered: %+v", cfg)
	default:
	}

	// The watcher must still be alive after the bad reload.
	writeConfigFile(t, path, "interval: 250ms\nsynth:\n  base_freq: 440\n")
	select {
	case cfg := <-reloads:
		if cfg.Synth.BaseFreq != 440 {
			t.Errorf("reloaded base_freq = %v, want 440", cfg.Synth.BaseFreq)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher stopped reloading after an invalid file")
	}
}
