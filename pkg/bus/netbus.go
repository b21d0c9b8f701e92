package bus

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/golang/glog"
)

// The TCP transport lets slaves run as separate processes. A read
// request is two bytes (request marker, byte cap); the slave answers
// with the raw response bytes and closes the connection.
const netReadRequest byte = 'R'

// NetBus is the master side of the TCP bus transport. Endpoints maps
// each slave address to its listen address.
type NetBus struct {
	Timeout   time.Duration
	Endpoints map[Address]string
}

// NewNetBus creates a TCP bus with the default timeout.
func NewNetBus(endpoints map[Address]string) *NetBus {
	return &NetBus{
		Timeout:   DefaultTimeout,
		Endpoints: endpoints,
	}
}

// Read implements Bus.
func (b *NetBus) Read(addr Address, maxLen int) ([]byte, error) {
	endpoint, ok := b.Endpoints[addr]
	if !ok {
		return nil, ErrNoDevice
	}
	deadline := time.Now().Add(b.Timeout)
	conn, err := net.DialTimeout("tcp", endpoint, b.Timeout)
	if err != nil {
		glog.Warningf("dial %d (%s): %v", addr, endpoint, err)
		return nil, ErrTimeout
	}
	defer conn.Close()
	conn.SetDeadline(deadline)

	if _, err = conn.Write([]byte{netReadRequest, byte(maxLen)}); err != nil {
		return nil, ErrTimeout
	}
	buf := make([]byte, maxLen)
	n, err := io.ReadFull(conn, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, ErrTimeout
	}
	return Truncate(buf[:n], maxLen), nil
}

// Server exposes one slave over the TCP bus transport. It implements
// framework.Runnable.
type Server struct {
	Listener net.Listener
	Device   Responder
}

// Serve creates a Server listening on addr.
func Serve(addr string, device Responder) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{Listener: ln, Device: device}, nil
}

// Run accepts read requests until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.Listener.Close()
	}()
	for {
		conn, err := s.Listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(time.Second))
	req := make([]byte, 2)
	if _, err := io.ReadFull(conn, req); err != nil || req[0] != netReadRequest {
		return
	}
	maxLen := int(req[1])
	resp := Truncate(s.Device.HandleRead(maxLen), maxLen)
	if _, err := conn.Write(resp); err != nil {
		glog.V(2).Infof("write response: %v", err)
	}
}
