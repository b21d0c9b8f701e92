// Package sensor abstracts the physical reading sources attached to
// bus devices.
package sensor

// Sensor is a data source of readings. Read may return NaN or an
// error when the underlying source misbehaves; callers decide what a
// bad reading means (devices retain the last good value).
type Sensor interface {
	Read() (float64, error)
}

// Func adapts a plain func to Sensor.
type Func func() (float64, error)

// Read implements Sensor.
func (f Func) Read() (float64, error) {
	return f()
}

// Static is a sensor pinned to a fixed value, mostly for tests and
// wiring checks.
type Static float64

// Read implements Sensor.
func (s Static) Read() (float64, error) {
	return float64(s), nil
}
