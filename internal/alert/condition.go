package alert

import (
	"strconv"
	"strings"
)

// Reading is the set of values a rule condition can reference: the current
// interval's raw metrics plus the combined anomaly score.
type Reading struct {
	Anomaly       float64
	CPUPercent    float64
	NetworkRate   float64
	MemoryPercent float64
	Jitter        float64
}

// evalCondition evaluates a rule condition string against a Reading.
//
// Supported expressions (field operator value):
//
//	anomaly > 0.6
//	cpu_percent > 90
//	memory_percent >= 95
//	network_rate > 5000000
//	jitter > 0.05
//
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed or the field is unknown.
func evalCondition(cond string, r Reading) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	v, ok := numericField(field, r)
	if !ok {
		return false, 0
	}
	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}
	return compareFloat(v, op, threshold), v
}

// numericField maps a field name to its value in the reading.
func numericField(field string, r Reading) (float64, bool) {
	switch field {
	case "anomaly":
		return r.Anomaly, true
	case "cpu_percent":
		return r.CPUPercent, true
	case "network_rate":
		return r.NetworkRate, true
	case "memory_percent":
		return r.MemoryPercent, true
	case "jitter":
		return r.Jitter, true
	default:
		return 0, false
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
