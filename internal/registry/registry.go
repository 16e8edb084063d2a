package registry

import (
	"sync"
	"time"

	"github.com/nerrad567/smartthings-exporter/internal/mapper"
)

// PollResult classifies the outcome of one poll cycle.
type PollResult string

// Poll cycle outcomes.
const (
	// ResultSuccess means every listed device was refreshed.
	ResultSuccess PollResult = "success"

	// ResultPartial means the inventory listing succeeded but at least
	// one device could not be refreshed this cycle.
	ResultPartial PollResult = "partial"

	// ResultFailed means the cycle produced no new data at all.
	ResultFailed PollResult = "failed"
)

// Registry holds the most recent metric samples per device together with
// poll health state. It is the single point of exchange between the
// poller, which writes whole-device sample sets, and the HTTP scrape
// path, which reads consistent snapshots.
//
// All methods are safe for concurrent use.
type Registry struct {
	mu            sync.RWMutex
	devices       map[string][]mapper.Sample
	deviceCount   int
	lastSuccess   bool
	lastSuccessAt time.Time
	cycles        map[PollResult]float64
	anomalies     float64
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		devices: make(map[string][]mapper.Sample),
		cycles:  make(map[PollResult]float64),
	}
}

// ReplaceDevice atomically swaps the stored sample set for one device.
// Duplicate sample keys within the new set collapse to the last value,
// so a scrape never sees two values for the same series.
func (r *Registry) ReplaceDevice(deviceID string, samples []mapper.Sample) {
	deduped := dedupe(samples)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[deviceID] = deduped
}

// RemoveDevice drops a device and all its samples.
func (r *Registry) RemoveDevice(deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.devices, deviceID)
}

// Prune removes every device not present in keep and returns how many
// were dropped. The poller calls this after each successful inventory
// listing so samples for unenrolled devices do not linger.
func (r *Registry) Prune(keep map[string]struct{}) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	pruned := 0
	for id := range r.devices {
		if _, ok := keep[id]; !ok {
			delete(r.devices, id)
			pruned++
		}
	}
	return pruned
}

// Snapshot returns a copy of all stored samples. The copy is detached
// from the registry, so callers may hold it across a slow scrape while
// the poller keeps writing.
func (r *Registry) Snapshot() []mapper.Sample {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []mapper.Sample
	for _, samples := range r.devices {
		out = append(out, samples...)
	}
	return out
}

// SetDeviceCount records the size of the most recent inventory listing.
func (r *Registry) SetDeviceCount(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deviceCount = n
}

// DeviceCount returns the size of the most recent inventory listing.
func (r *Registry) DeviceCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.deviceCount
}

// SetPollResult records the outcome of one poll cycle. Success and
// partial outcomes both advance the last-success timestamp: partial
// cycles still delivered fresh data for most devices. A failed cycle
// flips the success flag but keeps the previous timestamp, so staleness
// stays measurable while the upstream is down.
func (r *Registry) SetPollResult(result PollResult, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cycles[result]++
	switch result {
	case ResultSuccess, ResultPartial:
		r.lastSuccess = true
		r.lastSuccessAt = at
	default:
		r.lastSuccess = false
	}
}

// AddAnomalies adds to the running total of malformed capability values.
func (r *Registry) AddAnomalies(n int) {
	if n <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.anomalies += float64(n)
}

// PollHealth returns the last-cycle success flag and the time of the
// most recent successful cycle. The zero time means no cycle has
// succeeded since startup.
func (r *Registry) PollHealth() (bool, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastSuccess, r.lastSuccessAt
}

// health returns a consistent copy of all self-metric state for one
// collection pass.
func (r *Registry) health() (deviceCount int, lastSuccess bool, lastSuccessAt time.Time, cycles map[PollResult]float64, anomalies float64) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cyclesCopy := make(map[PollResult]float64, len(r.cycles))
	for result, count := range r.cycles {
		cyclesCopy[result] = count
	}
	return r.deviceCount, r.lastSuccess, r.lastSuccessAt, cyclesCopy, r.anomalies
}

// dedupe collapses duplicate sample keys to the last value while
// preserving first-seen order.
func dedupe(samples []mapper.Sample) []mapper.Sample {
	if len(samples) < 2 {
		return append([]mapper.Sample(nil), samples...)
	}

	index := make(map[string]int, len(samples))
	out := make([]mapper.Sample, 0, len(samples))
	for _, s := range samples {
		if i, ok := index[s.Key()]; ok {
			out[i] = s
			continue
		}
		index[s.Key()] = len(out)
		out = append(out, s)
	}
	return out
}
