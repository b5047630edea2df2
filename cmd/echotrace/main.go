package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rootcastleco/EchoTrace/internal/config"
	"github.com/rootcastleco/EchoTrace/internal/monitor"
	"github.com/rootcastleco/EchoTrace/internal/pipeline"
	"github.com/rootcastleco/EchoTrace/internal/sink"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional; defaults apply without one)")
	demo := flag.Bool("demo", false, "render the scripted healthy/anomalous/recovery demo instead of live metrics")
	duration := flag.Duration("duration", 0, "stop after this much audio (0 = run until interrupted)")
	interval := flag.Duration("interval", 0, "metric sample interval (overrides config)")
	output := flag.String("output", "", "WAV output path (overrides config)")
	listen := flag.String("listen", "", "WebSocket listen address, e.g. :8800 (overrides config)")
	play := flag.Bool("play", false, "play live audio on the default device")
	seed := flag.Int64("seed", 0, "noise seed; fixed seed makes output reproducible (overrides config)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("echotrace starting", "config", *configPath, "demo", *demo)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flag overrides win over the config file.
	if *duration > 0 {
		cfg.Duration = *duration
	}
	if *interval > 0 {
		cfg.Interval = *interval
	}
	if *output != "" {
		cfg.Output.WAVPath = *output
	}
	if *listen != "" {
		cfg.Output.ListenAddr = *listen
	}
	if *play {
		cfg.Output.Play = true
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *demo && cfg.Duration == 0 && cfg.Output.WAVPath == "" {
		cfg.Output.WAVPath = "echotrace-demo.wav"
	}

	slog.Info("config ready",
		"source", cfg.Source.Type,
		"interval", cfg.Interval,
		"sample_rate", cfg.SampleRate,
		"wav_path", cfg.Output.WAVPath,
		"play", cfg.Output.Play,
		"listen", cfg.Output.ListenAddr,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var engine *pipeline.Engine
	if *demo {
		engine = pipeline.Demo(cfg)
	} else {
		source, err := monitor.New(cfg)
		if err != nil {
			slog.Error("failed to build metric source", "err", err)
			os.Exit(1)
		}
		engine = pipeline.New(cfg, source)
	}

	// Hot-reload: synth tuning and alert rules apply to the running pipeline;
	// everything else needs a restart (the watcher logs that case).
	if *configPath != "" {
		go func() {
			if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
				engine.Retune(updated.Synth, updated.Alerts)
			}); err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	if cfg.Output.WAVPath != "" {
		engine.SetFileSink(sink.NewFileSink(cfg.Output.WAVPath))
	}

	if cfg.Output.Play {
		speaker, err := sink.NewSpeaker(cfg.SampleRate, cfg.Output.SpeakerBuffer)
		if err != nil {
			slog.Error("failed to open audio device", "err", err)
			os.Exit(1)
		}
		engine.AddSink(speaker)
	}

	var httpSrv *http.Server
	if cfg.Output.ListenAddr != "" {
		hub := sink.NewHub(cfg.SampleRate)
		go hub.Run(ctx)
		engine.AddSink(hub)

		mux := http.NewServeMux()
		mux.Handle("/ws/stream", hub)
		httpSrv = &http.Server{Addr: cfg.Output.ListenAddr, Handler: mux}
		go func() {
			slog.Info("WebSocket listener started", "addr", cfg.Output.ListenAddr)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("HTTP server stopped", "err", err)
			}
		}()
	}

	err := engine.Run(ctx)

	if httpSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
		httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
		shutdownCancel()
	}

	if err != nil {
		slog.Error("pipeline failed", "err", err)
		os.Exit(1)
	}
	slog.Info("echotrace finished", "run_id", engine.RunID())
}
