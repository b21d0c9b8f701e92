package sensor

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Sim generates a plausible slowly varying signal: a sine around Base
// plus bounded jitter. FaultRate injects NaN readings to exercise the
// invalid-reading paths of the devices.
type Sim struct {
	Base      float64
	Amplitude float64
	Period    time.Duration
	Jitter    float64
	FaultRate float64

	mu    sync.Mutex
	rnd   *rand.Rand
	start time.Time
}

// NewSim creates a simulated sensor.
func NewSim(base, amplitude float64, period time.Duration) *Sim {
	return &Sim{
		Base:      base,
		Amplitude: amplitude,
		Period:    period,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		start:     time.Now(),
	}
}

// Read implements Sensor.
func (s *Sim) Read() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FaultRate > 0 && s.rnd.Float64() < s.FaultRate {
		return math.NaN(), nil
	}
	v := s.Base
	if s.Period > 0 {
		phase := 2 * math.Pi * float64(time.Since(s.start)) / float64(s.Period)
		v += s.Amplitude * math.Sin(phase)
	}
	if s.Jitter > 0 {
		v += (s.rnd.Float64()*2 - 1) * s.Jitter
	}
	return v, nil
}
