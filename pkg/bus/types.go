package bus

import (
	"errors"
	"time"
)

// Address identifies a slave on the bus. Addresses are unique small
// integers and the master polls them in ascending order.
type Address uint8

// DefaultReadCap is the byte cap of a single read request.
const DefaultReadCap = 32

// DefaultTimeout bounds how long a read waits for a slave before the
// master gives up on this cycle.
const DefaultTimeout = 50 * time.Millisecond

var (
	// ErrNoDevice indicates no slave is attached at the address.
	ErrNoDevice = errors.New("no device at address")
	// ErrTimeout indicates the slave did not answer within the bus
	// timeout. The master maps this to an empty record segment.
	ErrTimeout = errors.New("bus read timeout")
)

// Responder answers read requests from the master. It is invoked
// asynchronously by the bus, outside the device's control loop, and
// must return promptly without sampling or blocking I/O.
type Responder interface {
	// HandleRead returns at most maxLen bytes of response data.
	HandleRead(maxLen int) []byte
}

// Bus is the master-side view of the exchange channel.
type Bus interface {
	// Read issues a bounded read to the addressed slave and returns
	// the response truncated at the first NUL byte or maxLen,
	// whichever comes first.
	Read(addr Address, maxLen int) ([]byte, error)
}
