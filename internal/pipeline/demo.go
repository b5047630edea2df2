package pipeline

import (
	"github.com/rootcastleco/EchoTrace/internal/config"
	"github.com/rootcastleco/EchoTrace/internal/monitor"
)

// Demo builds an unpaced Engine fed by the scripted healthy → anomalous →
// recovery scenario. With a fixed cfg.Seed the rendered waveform is
// byte-identical across runs.
func Demo(cfg *config.Config) *Engine {
	src := monitor.NewScript(monitor.DemoSteps(), cfg.Interval, cfg.Seed)
	e := New(cfg, src)
	e.SetPaced(false)
	return e
}
