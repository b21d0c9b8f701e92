package sensor

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSimStaysBounded(t *testing.T) {
	s := NewSim(20, 5, time.Second)
	s.Jitter = 0.5
	for i := 0; i < 100; i++ {
		v, err := s.Read()
		require.NoError(t, err)
		require.False(t, math.IsNaN(v))
		require.InDelta(t, 20, v, 5.5)
	}
}

func TestSimFaultInjection(t *testing.T) {
	s := NewSim(20, 0, 0)
	s.FaultRate = 1
	v, err := s.Read()
	require.NoError(t, err)
	require.True(t, math.IsNaN(v))
}

func TestStaticAndFunc(t *testing.T) {
	v, err := Static(12.5).Read()
	require.NoError(t, err)
	require.Equal(t, 12.5, v)

	f := Func(func() (float64, error) { return 7, nil })
	v, err = f.Read()
	require.NoError(t, err)
	require.Equal(t, 7.0, v)
}
