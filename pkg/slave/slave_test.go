package slave

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/daqlink/sensorbus.go/pkg/bus"
	"github.com/daqlink/sensorbus.go/pkg/sensor"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Context() context.Context { return context.Background() }
func (c *fakeClock) Time() time.Time          { return c.now }
func (c *fakeClock) TriggerNext()             {}

func (c *fakeClock) advance(d time.Duration) *fakeClock {
	c.now = c.now.Add(d)
	return c
}

type scriptedSensor struct {
	readings []float64
	errs     []error
	reads    int
}

func (s *scriptedSensor) Read() (float64, error) {
	i := s.reads
	s.reads++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if i >= len(s.readings) {
		return 0, err
	}
	return s.readings[i], err
}

func newSlave(src sensor.Sensor) *Slave {
	return New(Config{Name: "K-Type1", Address: 8, Source: src})
}

func TestSampleUpdatesCache(t *testing.T) {
	s := newSlave(sensor.Static(101.5))
	clock := &fakeClock{now: time.Unix(100, 0)}

	require.NoError(t, s.Control(clock))
	require.Equal(t, 101.5, s.Value())
}

func TestInvalidReadingRetainsValue(t *testing.T) {
	src := &scriptedSensor{readings: []float64{101.5, math.NaN(), 102.3}}
	s := newSlave(src)
	clock := &fakeClock{now: time.Unix(100, 0)}

	require.NoError(t, s.Control(clock))
	require.Equal(t, 101.5, s.Value())

	require.NoError(t, s.Control(clock.advance(DefaultSampleInterval)))
	require.Equal(t, 101.5, s.Value(), "NaN must not overwrite the cache")

	require.NoError(t, s.Control(clock.advance(DefaultSampleInterval)))
	require.Equal(t, 102.3, s.Value())
}

func TestReadErrorRetainsValue(t *testing.T) {
	src := &scriptedSensor{
		readings: []float64{55.0, 0},
		errs:     []error{nil, errors.New("wire fault")},
	}
	s := newSlave(src)
	clock := &fakeClock{now: time.Unix(100, 0)}

	require.NoError(t, s.Control(clock))
	require.NoError(t, s.Control(clock.advance(DefaultSampleInterval)))
	require.Equal(t, 55.0, s.Value())
}

func TestSampleIntervalHonored(t *testing.T) {
	src := &scriptedSensor{readings: []float64{1, 2, 3}}
	s := newSlave(src)
	clock := &fakeClock{now: time.Unix(100, 0)}

	require.NoError(t, s.Control(clock))
	require.NoError(t, s.Control(clock.advance(DefaultSampleInterval/2)))
	require.Equal(t, 1, src.reads, "no re-sample before the interval elapses")

	require.NoError(t, s.Control(clock.advance(DefaultSampleInterval)))
	require.Equal(t, 2, src.reads)
}

func TestHandleReadIdempotent(t *testing.T) {
	s := newSlave(sensor.Static(101.5))
	clock := &fakeClock{now: time.Unix(100, 0)}
	require.NoError(t, s.Control(clock))

	first := s.HandleRead(bus.DefaultReadCap)
	require.Equal(t, "K-Type1:101.5;", string(first))
	// No intervening sample: repeated reads return identical bytes.
	for i := 0; i < 5; i++ {
		require.Equal(t, first, s.HandleRead(bus.DefaultReadCap))
	}
}

func TestHandleReadBeforeFirstSample(t *testing.T) {
	s := newSlave(sensor.Static(101.5))
	require.Equal(t, "K-Type1:0.0;", string(s.HandleRead(bus.DefaultReadCap)))
}

func TestHandleReadRespectsCap(t *testing.T) {
	s := New(Config{Name: "A-Very-Long-Thermocouple-Name", Address: 9, Source: sensor.Static(1)})
	resp := s.HandleRead(8)
	require.Equal(t, "A-Very-L", string(resp))
}
