package registry

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/smartthings-exporter/internal/mapper"
)

func sample(deviceID, metric string, value float64) mapper.Sample {
	return mapper.Sample{
		Metric:     metric,
		Help:       "test metric",
		DeviceID:   deviceID,
		DeviceName: "Device " + deviceID,
		Component:  mapper.DefaultComponent,
		Value:      value,
	}
}

func TestReplaceDevice_ReplacesNotAccumulates(t *testing.T) {
	r := New()

	r.ReplaceDevice("d1", []mapper.Sample{
		sample("d1", "smartthings_switch", 1),
		sample("d1", "smartthings_battery", 90),
	})
	r.ReplaceDevice("d1", []mapper.Sample{
		sample("d1", "smartthings_switch", 0),
	})

	snapshot := r.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("Snapshot() returned %d samples, want 1 after replacement", len(snapshot))
	}
	if snapshot[0].Value != 0 {
		t.Errorf("switch value = %v, want 0 from the later replacement", snapshot[0].Value)
	}
}

func TestReplaceDevice_DuplicateKeysCollapse(t *testing.T) {
	r := New()

	r.ReplaceDevice("d1", []mapper.Sample{
		sample("d1", "smartthings_temperature", 20),
		sample("d1", "smartthings_temperature", 21),
	})

	snapshot := r.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("Snapshot() returned %d samples, want duplicates collapsed to 1", len(snapshot))
	}
	if snapshot[0].Value != 21 {
		t.Errorf("value = %v, want 21 (last write wins)", snapshot[0].Value)
	}
}

func TestPrune_DropsUnlistedDevices(t *testing.T) {
	r := New()
	r.ReplaceDevice("d1", []mapper.Sample{sample("d1", "smartthings_switch", 1)})
	r.ReplaceDevice("d2", []mapper.Sample{sample("d2", "smartthings_switch", 0)})
	r.ReplaceDevice("d3", []mapper.Sample{sample("d3", "smartthings_battery", 50)})

	pruned := r.Prune(map[string]struct{}{"d1": {}})
	if pruned != 2 {
		t.Errorf("Prune() = %d, want 2", pruned)
	}

	snapshot := r.Snapshot()
	if len(snapshot) != 1 || snapshot[0].DeviceID != "d1" {
		t.Errorf("Snapshot() = %v, want only d1 to survive", snapshot)
	}
}

func TestRemoveDevice(t *testing.T) {
	r := New()
	r.ReplaceDevice("d1", []mapper.Sample{sample("d1", "smartthings_switch", 1)})

	r.RemoveDevice("d1")
	r.RemoveDevice("never-stored")

	if got := r.Snapshot(); len(got) != 0 {
		t.Errorf("Snapshot() = %v, want empty after removal", got)
	}
}

func TestSetPollResult_HealthTransitions(t *testing.T) {
	r := New()

	if success, at := r.PollHealth(); success || !at.IsZero() {
		t.Errorf("PollHealth() before any cycle = (%v, %v), want (false, zero)", success, at)
	}

	first := time.Unix(1000, 0)
	r.SetPollResult(ResultSuccess, first)
	if success, at := r.PollHealth(); !success || !at.Equal(first) {
		t.Errorf("PollHealth() after success = (%v, %v), want (true, %v)", success, at, first)
	}

	// A partial cycle still delivered fresh data.
	second := time.Unix(2000, 0)
	r.SetPollResult(ResultPartial, second)
	if success, at := r.PollHealth(); !success || !at.Equal(second) {
		t.Errorf("PollHealth() after partial = (%v, %v), want (true, %v)", success, at, second)
	}

	// A failed cycle flips the flag but keeps the timestamp, so
	// staleness remains measurable.
	r.SetPollResult(ResultFailed, time.Unix(3000, 0))
	if success, at := r.PollHealth(); success || !at.Equal(second) {
		t.Errorf("PollHealth() after failure = (%v, %v), want (false, %v)", success, at, second)
	}
}

func TestCollector_DeviceMetrics(t *testing.T) {
	r := New()
	r.ReplaceDevice("d1", []mapper.Sample{
		{
			Metric:     "smartthings_switch",
			Help:       "Switch state (1 on, 0 off).",
			DeviceID:   "d1",
			DeviceName: "Lamp",
			Component:  "main",
			Value:      1,
		},
	})
	r.ReplaceDevice("d2", []mapper.Sample{
		{
			Metric:     "smartthings_switch",
			Help:       "Switch state (1 on, 0 off).",
			DeviceID:   "d2",
			DeviceName: "Fan",
			Component:  "main",
			Value:      0,
		},
	})

	expected := `
# HELP smartthings_switch Switch state (1 on, 0 off).
# TYPE smartthings_switch gauge
smartthings_switch{component="main",device_id="d1",device_name="Lamp"} 1
smartthings_switch{component="main",device_id="d2",device_name="Fan"} 0
`
	if err := testutil.CollectAndCompare(NewCollector(r), strings.NewReader(expected), "smartthings_switch"); err != nil {
		t.Errorf("unexpected exposition: %v", err)
	}
}

func TestCollector_SelfMetrics(t *testing.T) {
	r := New()
	r.SetDeviceCount(3)
	r.SetPollResult(ResultSuccess, time.Unix(1700000000, 0))
	r.SetPollResult(ResultFailed, time.Unix(1700000030, 0))
	r.AddAnomalies(2)
	r.AddAnomalies(0)

	expected := `
# HELP smartthings_devices Devices in the most recent inventory listing.
# TYPE smartthings_devices gauge
smartthings_devices 3
# HELP smartthings_last_poll_success Whether the most recent poll cycle delivered fresh data (1) or failed outright (0).
# TYPE smartthings_last_poll_success gauge
smartthings_last_poll_success 0
# HELP smartthings_last_poll_success_timestamp_seconds Unix timestamp of the most recent successful poll cycle.
# TYPE smartthings_last_poll_success_timestamp_seconds gauge
smartthings_last_poll_success_timestamp_seconds 1.7e+09
# HELP smartthings_mapping_anomalies_total Capability values skipped because they did not match their expected shape.
# TYPE smartthings_mapping_anomalies_total counter
smartthings_mapping_anomalies_total 2
# HELP smartthings_poll_cycles_total Poll cycles by outcome.
# TYPE smartthings_poll_cycles_total counter
smartthings_poll_cycles_total{result="failed"} 1
smartthings_poll_cycles_total{result="success"} 1
`
	err := testutil.CollectAndCompare(NewCollector(r), strings.NewReader(expected),
		"smartthings_devices",
		"smartthings_last_poll_success",
		"smartthings_last_poll_success_timestamp_seconds",
		"smartthings_mapping_anomalies_total",
		"smartthings_poll_cycles_total",
	)
	if err != nil {
		t.Errorf("unexpected exposition: %v", err)
	}
}

func TestCollector_Lint(t *testing.T) {
	r := New()
	r.ReplaceDevice("d1", []mapper.Sample{
		{
			Metric:     "smartthings_battery",
			Help:       "Battery charge in percent.",
			DeviceID:   "d1",
			DeviceName: "Sensor",
			Component:  "main",
			Value:      75,
		},
	})
	r.SetPollResult(ResultSuccess, time.Now())

	problems, err := testutil.CollectAndLint(NewCollector(r))
	if err != nil {
		t.Fatalf("CollectAndLint() error = %v", err)
	}
	for _, p := range problems {
		t.Errorf("lint: %s: %s", p.Metric, p.Text)
	}
}
