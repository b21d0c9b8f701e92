// Package slave implements the bus slave role: one sensor, one
// cached value, answered synchronously on read requests.
package slave

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/daqlink/sensorbus.go/pkg/bus"
	fx "github.com/daqlink/sensorbus.go/pkg/framework"
	"github.com/daqlink/sensorbus.go/pkg/sensor"
	"github.com/daqlink/sensorbus.go/pkg/telemetry"
)

// DefaultSampleInterval is how often a slave re-samples its sensor.
const DefaultSampleInterval = 2 * time.Second

// Config configures a slave device.
type Config struct {
	Name           string
	Address        bus.Address
	Source         sensor.Sensor
	SampleInterval time.Duration
}

// Slave owns exactly one sensor. Sampling runs on the device loop;
// read requests arrive asynchronously from the bus and read the
// cached value only, so the cache is a single atomically published
// scalar and the request path never touches the sensor.
type Slave struct {
	cfg Config

	// cached holds math.Float64bits of the last valid reading.
	// It starts at 0.0 until the first successful sample.
	cached atomic.Uint64

	// lastSample is touched only by the loop goroutine.
	lastSample time.Time
}

// New creates a slave device. The cached value is 0.0 until the
// first valid sample.
func New(cfg Config) *Slave {
	if cfg.SampleInterval == 0 {
		cfg.SampleInterval = DefaultSampleInterval
	}
	return &Slave{cfg: cfg}
}

// Name returns the measurement name.
func (s *Slave) Name() string {
	return s.cfg.Name
}

// Address returns the bus address.
func (s *Slave) Address() bus.Address {
	return s.cfg.Address
}

// Value returns the cached reading.
func (s *Slave) Value() float64 {
	return math.Float64frombits(s.cached.Load())
}

// AddToLoop implements framework.LoopAdder.
func (s *Slave) AddToLoop(l *fx.Loop) {
	l.At(fx.StageSample, s)
}

// Control implements framework.Controller: the sample tick. Invalid
// readings are discarded and the previous value stays published.
func (s *Slave) Control(cc fx.ControlContext) error {
	now := cc.Time()
	if now.Sub(s.lastSample) < s.cfg.SampleInterval {
		return nil
	}
	s.lastSample = now

	v, err := s.cfg.Source.Read()
	if err != nil {
		glog.V(2).Infof("%s: sensor read: %v", s.cfg.Name, err)
		return nil
	}
	if !telemetry.ValidValue(v) {
		glog.V(2).Infof("%s: invalid reading discarded", s.cfg.Name)
		return nil
	}
	s.cached.Store(math.Float64bits(v))
	return nil
}

// HandleRead implements bus.Responder. It only loads the published
// cache and serializes it, keeping the bus callback non-blocking.
func (s *Slave) HandleRead(maxLen int) []byte {
	m := telemetry.Measurement{Name: s.cfg.Name, Value: s.Value()}
	return bus.Truncate([]byte(m.Fragment()+";"), maxLen)
}
