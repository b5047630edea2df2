package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"reflect"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of filesystem events one editor save
// produces into a single reload, so the running pipeline retunes once.
const watchDebounce = 200 * time.Millisecond

// Watch monitors the config file and calls onChange with a freshly loaded
// Config whenever a hot-applicable section changes. Only synth tuning and
// alert rules can be applied to a running pipeline; edits to anything else
// (interval, sample rate, sources, sinks) are logged and take effect on the
// next run. Watch runs until ctx is cancelled.
//
// If a reload fails (e.g., invalid YAML), the error is logged and the
// previous config remains active — Watch does not call onChange.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory rather than the file: editors save atomically by
	// writing a temp file and renaming it over the original, which replaces
	// the inode and silently detaches a file-level watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	base := filepath.Base(path)

	prev, err := Load(path)
	if err != nil {
		return err
	}

	slog.Info("config: watching for changes", "path", path)

	var debounce *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(watchDebounce)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(watchDebounce)
			}
			pending = debounce.C

		case <-pending:
			pending = nil
			cfg, err := Load(path)
			if err != nil {
				slog.Error("config: reload failed — keeping previous config",
					"path", path, "err", err)
				continue
			}
			hot := !reflect.DeepEqual(cfg.Synth, prev.Synth) ||
				!reflect.DeepEqual(cfg.Alerts, prev.Alerts)
			cold := !reflect.DeepEqual(cfg.Source, prev.Source) ||
				cfg.Interval != prev.Interval ||
				cfg.SampleRate != prev.SampleRate ||
				!reflect.DeepEqual(cfg.Output, prev.Output)
			prev = cfg

			if cold {
				slog.Info("config: change needs a restart to apply", "path", path)
			}
			if hot {
				slog.Info("config: retuning from reloaded file", "path", path)
				onChange(cfg)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
