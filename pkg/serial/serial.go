// Package serial opens the serial link a host uses to reach a bus
// master (or a master daemon uses to reach a physical host port).
package serial

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// DefaultBaud matches the firmware's serial rate.
const DefaultBaud = 9600

// Config holds serial port configuration.
type Config struct {
	// Device path, e.g. "/dev/ttyACM0" or "COM3".
	Device string
	// Baud rate; DefaultBaud when zero.
	Baud int
	// ReadTimeout; zero means blocking reads.
	ReadTimeout time.Duration
}

// Port is an open serial port.
type Port struct {
	port *serial.Port
	cfg  Config
}

var _ io.ReadWriteCloser = (*Port)(nil)

// Open opens the configured serial port.
func Open(cfg Config) (*Port, error) {
	if cfg.Baud == 0 {
		cfg.Baud = DefaultBaud
	}
	p, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Device, err)
	}
	return &Port{port: p, cfg: cfg}, nil
}

// Read implements io.Reader.
func (p *Port) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

// Write implements io.Writer.
func (p *Port) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close implements io.Closer.
func (p *Port) Close() error {
	return p.port.Close()
}

// Device returns the configured device path.
func (p *Port) Device() string {
	return p.cfg.Device
}
