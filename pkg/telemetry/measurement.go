// Package telemetry defines the text wire format shared by every
// device role: `Name:Value` fragments joined by `;` into records.
package telemetry

import (
	"math"
	"strconv"
)

// Measurement is a single named sensor reading.
type Measurement struct {
	Name  string
	Value float64
}

// Fragment encodes the measurement as `Name:Value` with one
// fractional digit, matching the firmware output format.
func (m Measurement) Fragment() string {
	return m.Name + ":" + FormatValue(m.Value)
}

// FormatValue formats a reading with one fractional digit.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// ValidValue reports whether a sensor reading may replace a cached
// value. Mirrors the firmware isnan check: only NaN is rejected.
func ValidValue(v float64) bool {
	return !math.IsNaN(v)
}
