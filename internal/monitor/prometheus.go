package monitor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const defaultScrapeTimeout = 10 * time.Second

// node_exporter metric families we track.
const (
	nodeCPUSeconds   = "node_cpu_seconds_total"
	nodeMemTotal     = "node_memory_MemTotal_bytes"
	nodeMemAvailable = "node_memory_MemAvailable_bytes"
	nodeNetRecv      = "node_network_receive_bytes_total"
	nodeNetSent      = "node_network_transmit_bytes_total"
)

// Prometheus scrapes a node_exporter-style /metrics endpoint and derives the
// same quantities the local source reads directly. CPU utilization and
// network rate are computed from counter deltas between scrape cycles, so the
// first Collect reports those fields as missing.
type Prometheus struct {
	endpoint string
	client   *http.Client
	jitter   jitterTracker
	now      func() time.Time // injectable for tests

	hasBaseline bool
	prevTime    time.Time
	prevIdle    float64
	prevCPU     float64
	prevNet     float64
}

// NewPrometheus returns a Prometheus source scraping the given endpoint.
func NewPrometheus(endpoint string) *Prometheus {
	return &Prometheus{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultScrapeTimeout},
		now:      time.Now,
	}
}

// Collect scrapes the endpoint and returns one Sample. A failed scrape is
// returned as a fully-missing Sample, not an error, so the pipeline keeps
// running — the silence it produces is itself a signal to the operator.
func (p *Prometheus) Collect(ctx context.Context) (*Sample, error) {
	now := p.now()
	s := &Sample{Timestamp: now, Jitter: p.jitter.observe(now)}

	mfs, err := fetchMetrics(ctx, p.client, p.endpoint)
	if err != nil {
		slog.Warn("monitor: prometheus scrape failed", "endpoint", p.endpoint, "err", err)
		s.Missing = append(s.Missing, FieldCPU, FieldNetwork, FieldMemory)
		return s, nil
	}

	total := sumFamily(mfs[nodeMemTotal])
	avail := sumFamily(mfs[nodeMemAvailable])
	if total > 0 {
		s.MemoryPercent = (1 - avail/total) * 100
	} else {
		s.Missing = append(s.Missing, FieldMemory)
	}

	idle := sumFamilyLabel(mfs[nodeCPUSeconds], "mode", "idle")
	cpuAll := sumFamily(mfs[nodeCPUSeconds])
	netAll := sumFamily(mfs[nodeNetRecv]) + sumFamily(mfs[nodeNetSent])

	if !p.hasBaseline {
		s.Missing = append(s.Missing, FieldCPU, FieldNetwork)
	} else {
		elapsed := now.Sub(p.prevTime).Seconds()
		cpuDelta := deltaOf(cpuAll, p.prevCPU)
		if cpuDelta > 0 {
			busy := cpuDelta - deltaOf(idle, p.prevIdle)
			s.CPUPercent = busy / cpuDelta * 100
		} else {
			s.Missing = append(s.Missing, FieldCPU)
		}
		if elapsed > 0 {
			s.NetworkRate = deltaOf(netAll, p.prevNet) / elapsed
		} else {
			s.Missing = append(s.Missing, FieldNetwork)
		}
	}

	p.hasBaseline = true
	p.prevTime = now
	p.prevIdle = idle
	p.prevCPU = cpuAll
	p.prevNet = netAll
	return s, nil
}

// fetchMetrics performs an HTTP GET to url and returns parsed metric families.
func fetchMetrics(ctx context.Context, client *http.Client, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r into metric families.
// A partial result with a non-fatal parse warning is still returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	// Non-empty result with a non-nil err means partial parse (trailing lines,
	// format warnings). Treat as success.
	return mfs, nil
}

// sumFamily adds up all counter, gauge, or untyped values in a MetricFamily.
// Returns 0 if mf is nil (metric not present in the scrape).
func sumFamily(mf *dto.MetricFamily) float64 {
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		total += metricValue(m)
	}
	return total
}

// sumFamilyLabel adds up values of metrics whose label name equals value.
func sumFamilyLabel(mf *dto.MetricFamily, name, value string) float64 {
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == name && l.GetValue() == value {
				total += metricValue(m)
				break
			}
		}
	}
	return total
}

func metricValue(m *dto.Metric) float64 {
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	case m.Untyped != nil:
		return m.Untyped.GetValue()
	}
	return 0
}
