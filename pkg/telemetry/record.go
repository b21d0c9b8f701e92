package telemetry

import (
	"strconv"
	"strings"
)

// Record is an ordered list of measurements from one device.
type Record []Measurement

// Encode joins the fragments with `;`, without a trailing separator.
func (r Record) Encode() string {
	frags := make([]string, len(r))
	for i, m := range r {
		frags[i] = m.Fragment()
	}
	return strings.Join(frags, ";")
}

// Get returns the value of the named measurement.
func (r Record) Get(name string) (float64, bool) {
	for _, m := range r {
		if m.Name == name {
			return m.Value, true
		}
	}
	return 0, false
}

// ParseRecord decodes a `;`-joined line of fragments. Empty segments
// (a non-responsive slave leaves one behind) and fragments without a
// numeric value are skipped, not errors, so a host keeps consuming
// data lines from a partially degraded bus.
func ParseRecord(line string) Record {
	var rec Record
	for _, frag := range strings.Split(line, ";") {
		name, val, ok := strings.Cut(frag, ":")
		if !ok || name == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			continue
		}
		rec = append(rec, Measurement{Name: name, Value: v})
	}
	return rec
}

// Aggregate joins the master record with each slave record in polling
// order. Every slave occupies exactly one segment even when empty, so
// the aggregated line always has numSlaves+1 top-level segments.
func Aggregate(master string, slaves []string) string {
	segs := make([]string, 0, len(slaves)+1)
	segs = append(segs, master)
	segs = append(segs, slaves...)
	return strings.Join(segs, ";")
}
