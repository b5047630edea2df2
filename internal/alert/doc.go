// Package alert evaluates threshold rules over each interval's metrics and
// anomaly score. Rules are simple "field op value" expressions from the
// config file; transitions are logged, with a per-rule cooldown to keep a
// flapping metric from spamming the log.
package alert
