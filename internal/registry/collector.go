package registry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	lastPollSuccessDesc = prometheus.NewDesc(
		"smartthings_last_poll_success",
		"Whether the most recent poll cycle delivered fresh data (1) or failed outright (0).",
		nil, nil,
	)
	lastPollSuccessTimestampDesc = prometheus.NewDesc(
		"smartthings_last_poll_success_timestamp_seconds",
		"Unix timestamp of the most recent successful poll cycle.",
		nil, nil,
	)
	devicesDesc = prometheus.NewDesc(
		"smartthings_devices",
		"Devices in the most recent inventory listing.",
		nil, nil,
	)
	pollCyclesDesc = prometheus.NewDesc(
		"smartthings_poll_cycles_total",
		"Poll cycles by outcome.",
		[]string{"result"}, nil,
	)
	anomaliesDesc = prometheus.NewDesc(
		"smartthings_mapping_anomalies_total",
		"Capability values skipped because they did not match their expected shape.",
		nil, nil,
	)
)

// deviceLabels is the fixed label schema of every device metric.
var deviceLabels = []string{"device_id", "device_name", "component"}

// Collector exposes a Registry's samples and poll health in Prometheus
// exposition format. Each collection pass works from one snapshot, so a
// scrape sees an internally consistent view even while the poller writes.
type Collector struct {
	registry *Registry

	mu    sync.Mutex
	descs map[string]*prometheus.Desc
}

// NewCollector creates a Collector over the given registry.
func NewCollector(registry *Registry) *Collector {
	return &Collector{
		registry: registry,
		descs:    make(map[string]*prometheus.Desc),
	}
}

// Describe implements prometheus.Collector. The set of device metrics
// depends on what the enrolled devices report, so descriptors are
// derived from a collection pass.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, sample := range c.registry.Snapshot() {
		ch <- prometheus.MustNewConstMetric(
			c.desc(sample.Metric, sample.Help),
			prometheus.GaugeValue,
			sample.Value,
			sample.DeviceID, sample.DeviceName, sample.Component,
		)
	}

	deviceCount, lastSuccess, lastSuccessAt, cycles, anomalies := c.registry.health()

	success := 0.0
	if lastSuccess {
		success = 1
	}
	ch <- prometheus.MustNewConstMetric(lastPollSuccessDesc, prometheus.GaugeValue, success)

	timestamp := 0.0
	if !lastSuccessAt.IsZero() {
		timestamp = float64(lastSuccessAt.Unix())
	}
	ch <- prometheus.MustNewConstMetric(lastPollSuccessTimestampDesc, prometheus.GaugeValue, timestamp)

	ch <- prometheus.MustNewConstMetric(devicesDesc, prometheus.GaugeValue, float64(deviceCount))
	ch <- prometheus.MustNewConstMetric(anomaliesDesc, prometheus.CounterValue, anomalies)

	for result, count := range cycles {
		ch <- prometheus.MustNewConstMetric(pollCyclesDesc, prometheus.CounterValue, count, string(result))
	}
}

// desc returns the cached descriptor for a device metric, creating it on
// first use. The first help text seen for a metric name wins.
func (c *Collector) desc(metric, help string) *prometheus.Desc {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d, ok := c.descs[metric]; ok {
		return d
	}
	d := prometheus.NewDesc(metric, help, deviceLabels, nil)
	c.descs[metric] = d
	return d
}
