package mqtt

import (
	"context"
	"os"
	"strings"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/daqlink/sensorbus.go/pkg/master"
)

// Topics relative to <prefix><device-id>/.
const (
	recordTopic = "/record"
	cmdTopic    = "/cmd"
	dataTopic   = "/data"
)

// DeviceID returns a stable identity for this device, falling back
// to the hostname when the machine ID is unavailable.
func DeviceID() string {
	if id, err := machineid.ID(); err == nil {
		return id
	}
	name, err := os.Hostname()
	if err != nil {
		return "sensorbus"
	}
	return name
}

// Bridge exposes a master over MQTT. Records stream on
// <id>/record; lines published to <id>/cmd are handled like serial
// host commands and answered line by line on <id>/data.
// It implements framework.Runnable.
type Bridge struct {
	Queue    *Queue
	DeviceID string
	Handler  master.CommandHandler
}

// New creates a Bridge and hooks it to the master's poll cycle.
func New(brokerURL, deviceID string, m *master.Master) (*Bridge, error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	if deviceID == "" {
		deviceID = DeviceID()
	}
	b := &Bridge{Queue: q, DeviceID: deviceID, Handler: m}
	m.OnCycle(b.PublishRecord)
	return b, nil
}

// PublishRecord publishes one aggregated record, retained so late
// subscribers see the latest cycle.
func (b *Bridge) PublishRecord(record string) {
	if !b.Queue.Client.IsConnected() {
		return
	}
	if err := b.Queue.Pub(b.DeviceID+recordTopic, []byte(record), true); err != nil {
		glog.V(1).Infof("publish record: %v", err)
	}
}

// Run implements framework.Runnable.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.Queue.Connect(ctx); err != nil {
		return err
	}
	defer b.Queue.Close()

	err := b.Queue.Sub(b.DeviceID+cmdTopic, func(topic string, payload []byte) {
		for _, line := range strings.Split(string(payload), "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			for _, reply := range b.Handler.HandleCommand(line) {
				if err := b.Queue.Pub(b.DeviceID+dataTopic, []byte(reply), false); err != nil {
					glog.V(1).Infof("publish reply: %v", err)
				}
			}
		}
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	return ctx.Err()
}
