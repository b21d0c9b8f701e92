package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/daqlink/sensorbus.go/pkg/bridge/mqtt"
	"github.com/daqlink/sensorbus.go/pkg/bus"
	fx "github.com/daqlink/sensorbus.go/pkg/framework"
	"github.com/daqlink/sensorbus.go/pkg/master"
	"github.com/daqlink/sensorbus.go/pkg/sensor"
	"github.com/daqlink/sensorbus.go/pkg/serial"
	"github.com/daqlink/sensorbus.go/pkg/slave"
)

var (
	interval  = flag.Duration("interval", master.DefaultSampleInterval, "poll cycle interval")
	listen    = flag.String("listen", "", "TCP address serving the host line protocol")
	serialDev = flag.String("serial", "", "serial device serving the host line protocol")
	baud      = flag.Int("baud", serial.DefaultBaud, "serial baud rate")
	stdio     = flag.Bool("stdio", false, "serve the host line protocol on stdin/stdout")
	brokerURL = flag.String("mqtt", "", "MQTT broker URL for the record bridge")
	deviceID  = flag.String("device-id", "", "device identity for MQTT topics")
	simSlaves = flag.Int("sim-slaves", 2, "number of simulated thermocouple slaves")
	endpoints = flag.String("slave-endpoints", "", "remote slaves as ADDR=HOST:PORT, comma separated")
)

type stdioRW struct{}

func (stdioRW) Read(b []byte) (int, error)  { return os.Stdin.Read(b) }
func (stdioRW) Write(b []byte) (int, error) { return os.Stdout.Write(b) }

var _ io.ReadWriter = stdioRW{}

func main() {
	flag.Parse()

	runner := fx.NewRunner().HandleSignals()

	var busLink bus.Bus
	var addrs []bus.Address
	if *endpoints != "" {
		eps, err := parseEndpoints(*endpoints)
		if err != nil {
			glog.Exit(err)
		}
		for addr := range eps {
			addrs = append(addrs, addr)
		}
		busLink = bus.NewNetBus(eps)
	} else {
		mem := bus.NewMemBus()
		for i := 0; i < *simSlaves; i++ {
			addr := bus.Address(8 + i)
			probe := sensor.NewSim(100, 15, 5*time.Minute)
			probe.Jitter = 0.8
			probe.FaultRate = 0.02
			dev := slave.New(slave.Config{
				Name:           fmt.Sprintf("K-Type%d", i+1),
				Address:        addr,
				Source:         probe,
				SampleInterval: *interval,
			})
			if err := mem.Attach(addr, dev); err != nil {
				glog.Exit(err)
			}
			// Each slave keeps its own loop, like a separate device.
			runner.Go(fx.NamedRun(dev.Name(), fx.NewLoop().Add(dev)))
			addrs = append(addrs, addr)
		}
		busLink = mem
	}

	humidity := sensor.NewSim(45, 10, 10*time.Minute)
	humidity.Jitter = 0.5
	temperature := sensor.NewSim(22, 3, 10*time.Minute)
	temperature.Jitter = 0.2
	m := master.New(master.Config{
		Locals: []master.LocalSensor{
			{Name: "Humidity", Source: humidity},
			{Name: "Temperature", Source: temperature},
		},
		Slaves:         addrs,
		Bus:            busLink,
		SampleInterval: *interval,
	})

	if *brokerURL != "" {
		bridge, err := mqtt.New(*brokerURL, *deviceID, m)
		if err != nil {
			glog.Exit(err)
		}
		runner.Go(fx.NamedRun("mqtt", bridge))
	}
	if *listen != "" {
		srv, err := master.ListenLine(*listen, m)
		if err != nil {
			glog.Exit(err)
		}
		glog.Infof("host line protocol on %s", srv.Listener.Addr())
		runner.Go(fx.NamedRun("host", srv))
	}
	if *serialDev != "" {
		port, err := serial.Open(serial.Config{Device: *serialDev, Baud: *baud})
		if err != nil {
			glog.Exit(err)
		}
		runner.Go(fx.NamedRun("serial", &master.HostLink{Handler: m, RW: port}))
	}
	if *stdio {
		runner.Go(fx.NamedRun("stdio", &master.HostLink{Handler: m, RW: stdioRW{}}))
	}

	runner.Go(fx.NamedRun("master", fx.NewLoop().Add(m)))
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}

func parseEndpoints(spec string) (map[bus.Address]string, error) {
	eps := make(map[bus.Address]string)
	for _, item := range strings.Split(spec, ",") {
		addrStr, endpoint, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok {
			return nil, fmt.Errorf("invalid slave endpoint %q", item)
		}
		addr, err := strconv.ParseUint(addrStr, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid slave address %q: %v", addrStr, err)
		}
		if _, exists := eps[bus.Address(addr)]; exists {
			return nil, fmt.Errorf("duplicate slave address %d", addr)
		}
		eps[bus.Address(addr)] = endpoint
	}
	return eps, nil
}
