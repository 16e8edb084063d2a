// Package poller drives the periodic refresh loop: list the device
// inventory, fetch each device's capability status, map it to samples,
// and publish the result into the registry.
//
// The loop runs on a single goroutine, so cycles cannot overlap. Device
// failures are contained per cycle: a device that cannot be refreshed
// keeps its previous samples, a device deleted upstream is purged, and
// only a failed inventory listing leaves the whole snapshot untouched.
package poller
