package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fixedResponder []byte

func (r fixedResponder) HandleRead(maxLen int) []byte {
	return r
}

type stuckResponder struct{}

func (stuckResponder) HandleRead(maxLen int) []byte {
	time.Sleep(time.Second)
	return nil
}

func TestMemBusRead(t *testing.T) {
	b := NewMemBus()
	require.NoError(t, b.Attach(8, fixedResponder("K-Type1:101.5;")))

	resp, err := b.Read(8, DefaultReadCap)
	require.NoError(t, err)
	require.Equal(t, "K-Type1:101.5;", string(resp))
}

func TestMemBusTruncatesResponse(t *testing.T) {
	b := NewMemBus()
	require.NoError(t, b.Attach(8, fixedResponder("K-Type1:101.5;\x00garbage")))

	resp, err := b.Read(8, DefaultReadCap)
	require.NoError(t, err)
	require.Equal(t, "K-Type1:101.5;", string(resp))

	resp, err = b.Read(8, 7)
	require.NoError(t, err)
	require.Equal(t, "K-Type1", string(resp))
}

func TestMemBusNoDevice(t *testing.T) {
	b := NewMemBus()
	_, err := b.Read(9, DefaultReadCap)
	require.Equal(t, ErrNoDevice, err)
}

func TestMemBusTimeout(t *testing.T) {
	b := NewMemBus()
	b.Timeout = 10 * time.Millisecond
	require.NoError(t, b.Attach(8, stuckResponder{}))

	_, err := b.Read(8, DefaultReadCap)
	require.Equal(t, ErrTimeout, err)
}

func TestMemBusDuplicateAddress(t *testing.T) {
	b := NewMemBus()
	require.NoError(t, b.Attach(8, fixedResponder("a")))
	require.Error(t, b.Attach(8, fixedResponder("b")))
	b.Detach(8)
	require.NoError(t, b.Attach(8, fixedResponder("b")))
}
