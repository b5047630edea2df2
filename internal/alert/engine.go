package alert

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rootcastleco/EchoTrace/internal/config"
)

const (
	defaultCooldown = 1 * time.Minute
	maxHistoryLen   = 200
)

// Alert represents a single alert event produced by the rule engine.
type Alert struct {
	RuleName   string     `json:"rule_name"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"` // "firing" | "resolved"
}

// Engine evaluates threshold rules against each interval's Reading and logs
// alert transitions. A rule fires at most once per cooldown window and
// resolves when its condition stops holding.
//
// Engine is safe for concurrent use.
type Engine struct {
	rules []config.AlertRule

	mu       sync.Mutex
	active   map[string]*Alert    // key: rule name
	lastFire map[string]time.Time // last fire time per rule (for cooldown)
	history  []*Alert             // recently resolved alerts

	now func() time.Time // injectable for tests
}

// NewEngine creates an Engine from the alert configuration.
// An Engine with empty rules is valid — Evaluate becomes a no-op.
func NewEngine(cfg config.AlertsConfig) *Engine {
	return &Engine{
		rules:    cfg.Rules,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Evaluate tests all configured rules against r.
// Alerts that fire are stored and logged. Alerts that were firing but whose
// condition is now false are resolved.
func (e *Engine) Evaluate(r Reading) {
	if len(e.rules) == 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	for _, rule := range e.rules {
		fires, value := evalCondition(rule.Condition, r)

		if fires {
			cooldown := rule.Cooldown
			if cooldown <= 0 {
				cooldown = defaultCooldown
			}
			if now.Sub(e.lastFire[rule.Name]) <= cooldown {
				continue
			}
			sev := rule.Severity
			if sev == "" {
				sev = "warning"
			}
			a := &Alert{
				RuleName: rule.Name,
				Severity: sev,
				Value:    value,
				Message: fmt.Sprintf("[%s] %s fired — %s = %.2f",
					sev, rule.Name, rule.Condition, value),
				FiredAt: now,
				State:   "firing",
			}
			e.active[rule.Name] = a
			e.lastFire[rule.Name] = now

			slog.Warn("alert fired",
				"rule", rule.Name,
				"value", value,
				"severity", sev,
			)
			continue
		}

		if a, ok := e.active[rule.Name]; ok && a.State == "firing" {
			resolved := now
			a.State = "resolved"
			a.ResolvedAt = &resolved
			delete(e.active, rule.Name)

			e.history = append(e.history, a)
			if len(e.history) > maxHistoryLen {
				e.history = e.history[len(e.history)-maxHistoryLen:]
			}

			slog.Info("alert resolved", "rule", rule.Name)
		}
	}
}

// Active returns copies of all currently firing alerts, newest first.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*Alert, 0, len(e.active))
	for _, a := range e.active {
		cp := *a
		out = append(out, &cp)
	}
	return out
}
