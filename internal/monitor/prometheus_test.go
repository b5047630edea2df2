package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// nodeMetrics is a realistic subset of node_exporter output. Two CPUs,
// 1000 total CPU seconds each, 80% idle.
const nodeMetrics = `
# HELP node_cpu_seconds_total Seconds the CPUs spent in each mode.
# TYPE node_cpu_seconds_total counter
node_cpu_seconds_total{cpu="0",mode="idle"} 800
node_cpu_seconds_total{cpu="0",mode="user"} 150
node_cpu_seconds_total{cpu="0",mode="system"} 50
node_cpu_seconds_total{cpu="1",mode="idle"} 800
node_cpu_seconds_total{cpu="1",mode="user"} 150
node_cpu_seconds_total{cpu="1",mode="system"} 50

# HELP node_memory_MemTotal_bytes Memory information field MemTotal_bytes.
# TYPE node_memory_MemTotal_bytes gauge
node_memory_MemTotal_bytes 8e9

# HELP node_memory_MemAvailable_bytes Memory information field MemAvailable_bytes.
# TYPE node_memory_MemAvailable_bytes gauge
node_memory_MemAvailable_bytes 2e9

# HELP node_network_receive_bytes_total Network device statistic receive_bytes.
# TYPE node_network_receive_bytes_total counter
node_network_receive_bytes_total{device="eth0"} 1000000
node_network_receive_bytes_total{device="lo"} 500000

# HELP node_network_transmit_bytes_total Network device statistic transmit_bytes.
# TYPE node_network_transmit_bytes_total counter
node_network_transmit_bytes_total{device="eth0"} 400000
node_network_transmit_bytes_total{device="lo"} 500000
`

// nodeMetricsLater is the same host one second later: 1 extra busy CPU second
// out of 2 total, and 2.4 MB more network traffic.
const nodeMetricsLater = `
node_cpu_seconds_total{cpu="0",mode="idle"} 800.5
node_cpu_seconds_total{cpu="0",mode="user"} 150.5
node_cpu_seconds_total{cpu="1",mode="idle"} 800.5
node_cpu_seconds_total{cpu="1",mode="user"} 150.5
node_memory_MemTotal_bytes 8e9
node_memory_MemAvailable_bytes 2e9
node_network_receive_bytes_total{device="eth0"} 3000000
node_network_transmit_bytes_total{device="eth0"} 800000
node_network_receive_bytes_total{device="lo"} 500000
node_network_transmit_bytes_total{device="lo"} 500000
`

func serveBodies(t *testing.T, bodies ...string) *httptest.Server {
	t.Helper()
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		body := bodies[calls]
		if calls < len(bodies)-1 {
			calls++
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPrometheus_FirstCollectMarksRatesMissing(t *testing.T) {
	srv := serveBodies(t, nodeMetrics)
	p := NewPrometheus(srv.URL)

	s, err := p.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if got := s.MemoryPercent; got != 75 {
		t.Errorf("MemoryPercent = %v, want 75", got)
	}
	if !hasMissing(s, FieldCPU) || !hasMissing(s, FieldNetwork) {
		t.Errorf("first collect Missing = %v, want cpu and network", s.Missing)
	}
}

func TestPrometheus_DeltasAcrossCollects(t *testing.T) {
	srv := serveBodies(t, nodeMetrics, nodeMetricsLater)
	p := NewPrometheus(srv.URL)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(time.Second)}
	p.now = func() time.Time {
		n := times[0]
		if len(times) > 1 {
			times = times[1:]
		}
		return n
	}

	if _, err := p.Collect(context.Background()); err != nil {
		t.Fatalf("first Collect() error = %v", err)
	}
	s, err := p.Collect(context.Background())
	if err != nil {
		t.Fatalf("second Collect() error = %v", err)
	}

	// CPU delta: 2.0 total seconds, 1.0 idle → 50% busy.
	if got := s.CPUPercent; got < 49.9 || got > 50.1 {
		t.Errorf("CPUPercent = %v, want ~50", got)
	}
	// Network delta: (3000000-1000000)+(800000-400000) = 2.4e6 bytes over 1s.
	if got := s.NetworkRate; got != 2_400_000 {
		t.Errorf("NetworkRate = %v, want 2400000", got)
	}
	if len(s.Missing) != 0 {
		t.Errorf("Missing = %v, want none", s.Missing)
	}
}

func TestPrometheus_ScrapeFailureIsMissingNotError(t *testing.T) {
	p := NewPrometheus("http://127.0.0.1:1")

	s, err := p.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() should not return err, got: %v", err)
	}
	for _, f := range []string{FieldCPU, FieldNetwork, FieldMemory} {
		if !hasMissing(s, f) {
			t.Errorf("Missing lacks %s: %v", f, s.Missing)
		}
	}
}

func TestSumFamilyLabel(t *testing.T) {
	mfs, err := parseMetrics(strings.NewReader(nodeMetrics))
	if err != nil {
		t.Fatalf("parseMetrics: %v", err)
	}
	if got := sumFamilyLabel(mfs[nodeCPUSeconds], "mode", "idle"); got != 1600 {
		t.Errorf("idle seconds = %v, want 1600", got)
	}
	if got := sumFamily(mfs[nodeCPUSeconds]); got != 2000 {
		t.Errorf("total seconds = %v, want 2000", got)
	}
}

func hasMissing(s *Sample, field string) bool {
	for _, f := range s.Missing {
		if f == field {
			return true
		}
	}
	return false
}
