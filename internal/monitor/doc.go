// Package monitor provides the metric sources that feed the sonification
// pipeline. Each source implements Collect(ctx) (*Sample, error), called once
// per configured interval.
//
// Implemented sources: host probes via gopsutil (local.go), node_exporter
// scraping via the Prometheus text exposition format (prometheus.go), and
// deterministic synthetic scripts for the demo and tests (script.go).
// Factory: New(*config.Config) returns the correct Source.
//
// Sources never fail a collection cycle outright: fields that could not be
// populated are zeroed and listed in Sample.Missing so the pipeline can keep
// producing audio. Rate fields derived from counters (network bytes, CPU
// seconds) are missing on the first cycle while baselines are established,
// and counter resets are treated as a zero delta.
//
// Timing jitter is computed by every source from the spacing of its own
// Collect calls (mean absolute deviation of recent intervals).
package monitor
