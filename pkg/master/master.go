// Package master implements the bus master role: periodic local
// sampling, ordered slave polling, and the host command protocol.
package master

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/daqlink/sensorbus.go/pkg/bus"
	fx "github.com/daqlink/sensorbus.go/pkg/framework"
	"github.com/daqlink/sensorbus.go/pkg/sensor"
	"github.com/daqlink/sensorbus.go/pkg/telemetry"
)

// DefaultSampleInterval is the default poll cycle interval.
const DefaultSampleInterval = 2 * time.Second

// Host protocol tokens.
const (
	// CommandTest is the reserved liveness-check command.
	CommandTest = "TEST"
	// ReplyAck acknowledges CommandTest on its own line.
	ReplyAck = "ACK"
)

// LocalSensor is one sensor attached directly to the master.
type LocalSensor struct {
	Name   string
	Source sensor.Sensor
}

// Config configures a master device. Slave addresses must be
// distinct; they are polled in ascending order regardless of the
// order given here.
type Config struct {
	Locals         []LocalSensor
	Slaves         []bus.Address
	Bus            bus.Bus
	SampleInterval time.Duration
	ReadCap        int
}

// Master polls its local sensors and every configured slave on a
// fixed interval and serves the aggregated record to hosts. All
// mutation happens on the device loop; host links only take
// snapshots under the lock.
type Master struct {
	cfg    Config
	slaves []bus.Address

	lock        sync.Mutex
	lastSample  time.Time
	values      []float64 // last good local readings, loop-only writes
	localRecord string
	slaveData   []string

	cycleFns []func(record string)
}

// New creates a master device. Until the first tick the local record
// reports 0.0 for every local sensor and all slave segments are
// empty.
func New(cfg Config) *Master {
	if cfg.SampleInterval == 0 {
		cfg.SampleInterval = DefaultSampleInterval
	}
	if cfg.ReadCap == 0 {
		cfg.ReadCap = bus.DefaultReadCap
	}
	slaves := append([]bus.Address(nil), cfg.Slaves...)
	sort.Slice(slaves, func(i, j int) bool { return slaves[i] < slaves[j] })
	m := &Master{
		cfg:       cfg,
		slaves:    slaves,
		values:    make([]float64, len(cfg.Locals)),
		slaveData: make([]string, len(slaves)),
	}
	m.localRecord = m.encodeLocals()
	return m
}

// Slaves returns the polling order.
func (m *Master) Slaves() []bus.Address {
	return m.slaves
}

// AddToLoop implements framework.LoopAdder.
func (m *Master) AddToLoop(l *fx.Loop) {
	l.At(fx.StageControl, m)
}

// OnCycle registers a callback invoked with the aggregated record
// after every completed poll cycle. Register before the loop starts.
func (m *Master) OnCycle(fn func(record string)) {
	m.cycleFns = append(m.cycleFns, fn)
}

// Control implements framework.Controller: the non-blocking poll
// tick. It is a no-op until the sample interval has elapsed.
func (m *Master) Control(cc fx.ControlContext) error {
	now := cc.Time()
	m.lock.Lock()
	if now.Sub(m.lastSample) < m.cfg.SampleInterval {
		m.lock.Unlock()
		return nil
	}
	m.lastSample = now
	m.lock.Unlock()

	// Local sampling. Invalid readings leave the previous value in
	// place so the record always reflects last known-good data.
	for i, ls := range m.cfg.Locals {
		v, err := ls.Source.Read()
		if err != nil {
			glog.V(2).Infof("%s: sensor read: %v", ls.Name, err)
			continue
		}
		if !telemetry.ValidValue(v) {
			glog.V(2).Infof("%s: invalid reading discarded", ls.Name)
			continue
		}
		m.values[i] = v
	}
	local := m.encodeLocals()

	// Poll every slave in address order. A failed read yields an
	// empty segment and never aborts the rest of the sequence.
	segs := make([]string, len(m.slaves))
	for i, addr := range m.slaves {
		data, err := m.cfg.Bus.Read(addr, m.cfg.ReadCap)
		if err != nil {
			glog.V(1).Infof("slave %d: %v", addr, err)
			continue
		}
		segs[i] = string(bus.Truncate(data, m.cfg.ReadCap))
	}

	m.lock.Lock()
	m.localRecord = local
	copy(m.slaveData, segs)
	m.lock.Unlock()

	record := m.AggregatedRecord()
	glog.V(2).Infof("cycle: %s", record)
	for _, fn := range m.cycleFns {
		fn(record)
	}
	return nil
}

// AggregatedRecord snapshots the current aggregated record: the
// local record plus one segment per slave, `;`-joined.
func (m *Master) AggregatedRecord() string {
	m.lock.Lock()
	defer m.lock.Unlock()
	return telemetry.Aggregate(m.localRecord, m.slaveData)
}

// HandleCommand processes one host command line and returns the
// reply lines. CommandTest is acknowledged first; every command,
// recognized or not, is answered with the aggregated record.
func (m *Master) HandleCommand(line string) []string {
	var out []string
	if strings.TrimSpace(line) == CommandTest {
		out = append(out, ReplyAck)
	}
	return append(out, m.AggregatedRecord())
}

func (m *Master) encodeLocals() string {
	rec := make(telemetry.Record, len(m.cfg.Locals))
	for i, ls := range m.cfg.Locals {
		rec[i] = telemetry.Measurement{Name: ls.Name, Value: m.values[i]}
	}
	return rec.Encode()
}
