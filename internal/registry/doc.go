// Package registry is the in-memory sample store shared between the
// poller and the scrape endpoint.
//
// The poller replaces a device's sample set wholesale after each status
// fetch and prunes devices that drop out of the inventory; the scrape
// path reads detached snapshots, so a slow scrape never blocks polling
// and never observes a half-written device.
//
// Collector adapts the store to the prometheus.Collector interface and
// adds the exporter's own health series: last-poll success and
// timestamp, device count, cycle outcomes, and mapping anomalies.
package registry
