package bus

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
)

// MemBus connects master and slaves living in the same process. It
// still enforces the hardware-level request timeout so a stuck
// responder degrades to an empty segment instead of stalling the
// poll cycle.
type MemBus struct {
	Timeout time.Duration

	lock    sync.RWMutex
	devices map[Address]Responder
}

// NewMemBus creates an in-memory bus with the default timeout.
func NewMemBus() *MemBus {
	return &MemBus{
		Timeout: DefaultTimeout,
		devices: make(map[Address]Responder),
	}
}

// Attach registers a slave at an address. Addresses must be unique.
func (b *MemBus) Attach(addr Address, r Responder) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if _, exists := b.devices[addr]; exists {
		return fmt.Errorf("address %d already attached", addr)
	}
	b.devices[addr] = r
	return nil
}

// Detach removes the slave at an address.
func (b *MemBus) Detach(addr Address) {
	b.lock.Lock()
	delete(b.devices, addr)
	b.lock.Unlock()
}

// Read implements Bus.
func (b *MemBus) Read(addr Address, maxLen int) ([]byte, error) {
	b.lock.RLock()
	r := b.devices[addr]
	b.lock.RUnlock()
	if r == nil {
		return nil, ErrNoDevice
	}

	respCh := make(chan []byte, 1)
	go func() {
		respCh <- r.HandleRead(maxLen)
	}()
	select {
	case resp := <-respCh:
		return Truncate(resp, maxLen), nil
	case <-time.After(b.Timeout):
		glog.Warningf("read from %d timed out", addr)
		return nil, ErrTimeout
	}
}
