// Package host implements the host side of the master serial
// protocol: issuing command lines and parsing aggregated records.
package host

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/golang/glog"

	"github.com/daqlink/sensorbus.go/pkg/telemetry"
)

// Commands the master recognizes, plus the conventional poll line
// the original acquisition host sends.
const (
	CommandTest = "TEST"
	CommandPoll = "POLL"
	ReplyAck    = "ACK"
)

// Client talks to a bus master over any line-oriented byte stream.
// It is not safe for concurrent use; the protocol itself is strictly
// request/reply.
type Client struct {
	rw io.ReadWriter
	rd *bufio.Reader
}

// NewClient wraps a connected stream.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{rw: rw, rd: bufio.NewReader(rw)}
}

// Do sends one command line and returns the reply lines: the ACK
// line when the command is the liveness check, then the aggregated
// record line which every command receives.
func (c *Client) Do(cmd string) ([]string, error) {
	if _, err := io.WriteString(c.rw, cmd+"\n"); err != nil {
		return nil, err
	}
	expect := 1
	if strings.TrimSpace(cmd) == CommandTest {
		expect = 2
	}
	lines := make([]string, 0, expect)
	for len(lines) < expect {
		line, err := c.rd.ReadString('\n')
		if err != nil {
			return lines, err
		}
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}
	glog.V(2).Infof("%s -> %d line(s)", cmd, len(lines))
	return lines, nil
}

// Poll requests the current aggregated record.
func (c *Client) Poll() (telemetry.Record, error) {
	lines, err := c.Do(CommandPoll)
	if err != nil {
		return nil, err
	}
	return telemetry.ParseRecord(lines[len(lines)-1]), nil
}

// Test runs the liveness check and returns the record that follows
// the acknowledgment.
func (c *Client) Test() (telemetry.Record, error) {
	lines, err := c.Do(CommandTest)
	if err != nil {
		return nil, err
	}
	if lines[0] != ReplyAck {
		return nil, fmt.Errorf("expected %q, got %q", ReplyAck, lines[0])
	}
	return telemetry.ParseRecord(lines[1]), nil
}
