package master

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/daqlink/sensorbus.go/pkg/sensor"
)

type rwPair struct {
	io.Reader
	io.Writer
}

func readyMaster(t *testing.T) *Master {
	m, _, clock := exampleMaster()
	require.NoError(t, m.Control(clock))
	return m
}

func TestHostLinkLineProtocol(t *testing.T) {
	m := readyMaster(t)
	var out bytes.Buffer
	link := &HostLink{
		Handler: m,
		RW:      rwPair{strings.NewReader("TEST\nPING\n"), &out},
	}
	require.NoError(t, link.Run(context.Background()))

	require.Equal(t,
		"ACK\n"+
			"Humidity:45.2;Temperature:22.1;K-Type1:101.5;;\n"+
			"Humidity:45.2;Temperature:22.1;K-Type1:101.5;;\n",
		out.String())
}

func TestHostLinkTrimsWhitespace(t *testing.T) {
	m := readyMaster(t)
	var out bytes.Buffer
	link := &HostLink{
		Handler: m,
		RW:      rwPair{strings.NewReader("  TEST  \r\n"), &out},
	}
	require.NoError(t, link.Run(context.Background()))
	require.True(t, strings.HasPrefix(out.String(), "ACK\n"))
}

func TestLineServer(t *testing.T) {
	m := readyMaster(t)
	srv, err := ListenLine("127.0.0.1:0", m)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	conn, err := net.Dial("tcp", srv.Listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("TEST\n"))
	require.NoError(t, err)

	rd := bufio.NewReader(conn)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := rd.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "ACK\n", line)
	line, err = rd.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "Humidity:45.2;Temperature:22.1;K-Type1:101.5;;\n", line)

	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

// Shared-loop smoke check: a master fed by in-process slaves keeps
// the sensor package honest without real hardware.
func TestMasterWithStaticLocals(t *testing.T) {
	m := New(Config{
		Locals: []LocalSensor{{Name: "Temperature", Source: sensor.Static(22.1)}},
		Bus:    &stubBus{},
	})
	require.NoError(t, m.Control(&fakeClock{now: time.Unix(1, 0)}))
	require.Equal(t, "Temperature:22.1", m.AggregatedRecord())
}
