package poller

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nerrad567/smartthings-exporter/internal/mapper"
	"github.com/nerrad567/smartthings-exporter/internal/registry"
	"github.com/nerrad567/smartthings-exporter/internal/smartthings"
)

// fakeAPI implements DeviceAPI with function hooks per call.
type fakeAPI struct {
	listDevices  func(ctx context.Context) ([]smartthings.Device, error)
	deviceStatus func(ctx context.Context, deviceID string) (*smartthings.DeviceStatus, error)
}

func (f *fakeAPI) ListDevices(ctx context.Context) ([]smartthings.Device, error) {
	return f.listDevices(ctx)
}

func (f *fakeAPI) DeviceStatus(ctx context.Context, deviceID string) (*smartthings.DeviceStatus, error) {
	return f.deviceStatus(ctx, deviceID)
}

type fakePublisher struct {
	published []string
	err       error
}

func (f *fakePublisher) PublishDeviceState(device smartthings.Device, _ []mapper.Sample) error {
	f.published = append(f.published, device.DeviceID)
	return f.err
}

func switchDevice(id, label string) smartthings.Device {
	return smartthings.Device{
		DeviceID: id,
		Label:    label,
		Components: []smartthings.Component{
			{ID: "main", Capabilities: []smartthings.CapabilityRef{{ID: "switch"}}},
		},
	}
}

func switchStatus(state string) *smartthings.DeviceStatus {
	return &smartthings.DeviceStatus{
		Components: map[string]smartthings.ComponentStatus{
			"main": {"switch": {"switch": {Value: state}}},
		},
	}
}

func newTestPoller(api DeviceAPI, reg *registry.Registry, opts Options) *Poller {
	if opts.Interval == 0 {
		opts.Interval = time.Hour
	}
	return New(api, mapper.New(mapper.Options{}), reg, opts)
}

func snapshotValues(reg *registry.Registry) map[string]float64 {
	values := make(map[string]float64)
	for _, s := range reg.Snapshot() {
		values[s.DeviceID] = s.Value
	}
	return values
}

func TestRunCycle_AllDevicesRefresh(t *testing.T) {
	api := &fakeAPI{
		listDevices: func(context.Context) ([]smartthings.Device, error) {
			return []smartthings.Device{switchDevice("d1", "Lamp"), switchDevice("d2", "Fan")}, nil
		},
		deviceStatus: func(_ context.Context, id string) (*smartthings.DeviceStatus, error) {
			if id == "d1" {
				return switchStatus("on"), nil
			}
			return switchStatus("off"), nil
		},
	}
	reg := registry.New()

	newTestPoller(api, reg, Options{}).runCycle(context.Background())

	values := snapshotValues(reg)
	if values["d1"] != 1 || values["d2"] != 0 {
		t.Errorf("snapshot values = %v, want d1=1 d2=0", values)
	}
	if got := reg.DeviceCount(); got != 2 {
		t.Errorf("DeviceCount() = %d, want 2", got)
	}
	if success, _ := reg.PollHealth(); !success {
		t.Error("PollHealth() success = false, want true")
	}
}

func TestRunCycle_FailingDeviceKeepsStaleSamples(t *testing.T) {
	healthy := true
	api := &fakeAPI{
		listDevices: func(context.Context) ([]smartthings.Device, error) {
			return []smartthings.Device{switchDevice("d1", "Lamp"), switchDevice("d2", "Fan")}, nil
		},
		deviceStatus: func(_ context.Context, id string) (*smartthings.DeviceStatus, error) {
			if id == "d2" && !healthy {
				return nil, fmt.Errorf("%w: status 502", smartthings.ErrUpstream)
			}
			return switchStatus("on"), nil
		},
	}
	reg := registry.New()
	p := newTestPoller(api, reg, Options{})

	p.runCycle(context.Background())
	healthy = false
	p.runCycle(context.Background())

	values := snapshotValues(reg)
	if _, ok := values["d2"]; !ok {
		t.Error("d2 samples were dropped, want stale samples retained")
	}
	if success, _ := reg.PollHealth(); !success {
		t.Error("PollHealth() success = false, want true (partial counts as success)")
	}
}

func TestRunCycle_RemovedDeviceIsPurged(t *testing.T) {
	gone := false
	api := &fakeAPI{
		listDevices: func(context.Context) ([]smartthings.Device, error) {
			return []smartthings.Device{switchDevice("d1", "Lamp")}, nil
		},
		deviceStatus: func(_ context.Context, id string) (*smartthings.DeviceStatus, error) {
			if gone {
				return nil, fmt.Errorf("%w: device %s", smartthings.ErrNotFound, id)
			}
			return switchStatus("on"), nil
		},
	}
	reg := registry.New()
	p := newTestPoller(api, reg, Options{})

	p.runCycle(context.Background())
	gone = true
	p.runCycle(context.Background())

	if got := reg.Snapshot(); len(got) != 0 {
		t.Errorf("Snapshot() = %v, want deleted device purged", got)
	}
	if success, _ := reg.PollHealth(); !success {
		t.Error("PollHealth() success = false, want true (removal is not a failure)")
	}
}

func TestRunCycle_DepartedDeviceIsPruned(t *testing.T) {
	devices := []smartthings.Device{switchDevice("d1", "Lamp"), switchDevice("d2", "Fan")}
	api := &fakeAPI{
		listDevices: func(context.Context) ([]smartthings.Device, error) {
			return devices, nil
		},
		deviceStatus: func(context.Context, string) (*smartthings.DeviceStatus, error) {
			return switchStatus("on"), nil
		},
	}
	reg := registry.New()
	p := newTestPoller(api, reg, Options{})

	p.runCycle(context.Background())
	devices = devices[:1]
	p.runCycle(context.Background())

	values := snapshotValues(reg)
	if _, ok := values["d2"]; ok {
		t.Error("d2 still in snapshot, want pruned after leaving the inventory")
	}
	if _, ok := values["d1"]; !ok {
		t.Error("d1 missing from snapshot")
	}
}

func TestRunCycle_ListFailurePreservesSnapshot(t *testing.T) {
	listFails := false
	api := &fakeAPI{
		listDevices: func(context.Context) ([]smartthings.Device, error) {
			if listFails {
				return nil, fmt.Errorf("%w: status 503", smartthings.ErrUpstream)
			}
			return []smartthings.Device{switchDevice("d1", "Lamp")}, nil
		},
		deviceStatus: func(context.Context, string) (*smartthings.DeviceStatus, error) {
			return switchStatus("on"), nil
		},
	}
	reg := registry.New()
	p := newTestPoller(api, reg, Options{})

	p.runCycle(context.Background())
	_, firstSuccess := reg.PollHealth()

	listFails = true
	p.runCycle(context.Background())

	if got := len(reg.Snapshot()); got != 1 {
		t.Errorf("Snapshot() has %d samples, want previous snapshot preserved", got)
	}
	success, at := reg.PollHealth()
	if success {
		t.Error("PollHealth() success = true, want false after list failure")
	}
	if !at.Equal(firstSuccess) {
		t.Errorf("last success timestamp = %v, want unchanged %v", at, firstSuccess)
	}
}

func TestRunCycle_PublishesFreshSamples(t *testing.T) {
	api := &fakeAPI{
		listDevices: func(context.Context) ([]smartthings.Device, error) {
			return []smartthings.Device{switchDevice("d1", "Lamp")}, nil
		},
		deviceStatus: func(context.Context, string) (*smartthings.DeviceStatus, error) {
			return switchStatus("on"), nil
		},
	}
	reg := registry.New()
	pub := &fakePublisher{}

	newTestPoller(api, reg, Options{Publisher: pub}).runCycle(context.Background())

	if len(pub.published) != 1 || pub.published[0] != "d1" {
		t.Errorf("published = %v, want [d1]", pub.published)
	}
}

func TestRunCycle_PublishFailureDoesNotFailCycle(t *testing.T) {
	api := &fakeAPI{
		listDevices: func(context.Context) ([]smartthings.Device, error) {
			return []smartthings.Device{switchDevice("d1", "Lamp")}, nil
		},
		deviceStatus: func(context.Context, string) (*smartthings.DeviceStatus, error) {
			return switchStatus("on"), nil
		},
	}
	reg := registry.New()
	pub := &fakePublisher{err: errors.New("broker unreachable")}

	newTestPoller(api, reg, Options{Publisher: pub}).runCycle(context.Background())

	if success, _ := reg.PollHealth(); !success {
		t.Error("PollHealth() success = false, want publish failures ignored")
	}
	if got := len(reg.Snapshot()); got != 1 {
		t.Errorf("Snapshot() has %d samples, want 1", got)
	}
}

func TestRun_FirstCycleIsImmediate(t *testing.T) {
	listed := make(chan struct{}, 1)
	api := &fakeAPI{
		listDevices: func(context.Context) ([]smartthings.Device, error) {
			select {
			case listed <- struct{}{}:
			default:
			}
			return nil, nil
		},
		deviceStatus: func(context.Context, string) (*smartthings.DeviceStatus, error) {
			return nil, nil
		},
	}
	reg := registry.New()
	p := newTestPoller(api, reg, Options{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case <-listed:
	case <-time.After(2 * time.Second):
		t.Fatal("first cycle did not start immediately")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil on cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after cancellation")
	}
}
