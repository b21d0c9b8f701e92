package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"time"

	"github.com/golang/glog"

	"github.com/daqlink/sensorbus.go/pkg/bus"
	fx "github.com/daqlink/sensorbus.go/pkg/framework"
	"github.com/daqlink/sensorbus.go/pkg/sensor"
	"github.com/daqlink/sensorbus.go/pkg/slave"
)

var (
	name      = flag.String("name", "K-Type1", "measurement name")
	address   = flag.Uint("address", 8, "bus address")
	listen    = flag.String("listen", "127.0.0.1:7208", "bus transport listen address")
	interval  = flag.Duration("interval", slave.DefaultSampleInterval, "sample interval")
	base      = flag.Float64("base", 100, "simulated sensor base value")
	amplitude = flag.Float64("amplitude", 15, "simulated sensor amplitude")
	faultRate = flag.Float64("fault-rate", 0.02, "simulated invalid reading rate")
)

func main() {
	flag.Parse()

	probe := sensor.NewSim(*base, *amplitude, 5*time.Minute)
	probe.Jitter = 0.8
	probe.FaultRate = *faultRate
	dev := slave.New(slave.Config{
		Name:           *name,
		Address:        bus.Address(*address),
		Source:         probe,
		SampleInterval: *interval,
	})

	srv, err := bus.Serve(*listen, dev)
	if err != nil {
		glog.Exit(err)
	}
	glog.Infof("slave %s (address %d) on %s", *name, *address, srv.Listener.Addr())

	runner := fx.NewRunner().HandleSignals()
	runner.Go(
		fx.NamedRun("bus", srv),
		fx.NamedRun(*name, fx.NewLoop().Add(dev)),
	)
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
