package poller

import (
	"context"
	"errors"
	"time"

	"github.com/nerrad567/smartthings-exporter/internal/mapper"
	"github.com/nerrad567/smartthings-exporter/internal/registry"
	"github.com/nerrad567/smartthings-exporter/internal/smartthings"
)

// DeviceAPI is the upstream surface the poller needs: list the device
// inventory and fetch one device's capability status.
type DeviceAPI interface {
	ListDevices(ctx context.Context) ([]smartthings.Device, error)
	DeviceStatus(ctx context.Context, deviceID string) (*smartthings.DeviceStatus, error)
}

// Publisher receives each device's fresh sample set after a successful
// status fetch. Publish failures are logged, never fatal.
type Publisher interface {
	PublishDeviceState(device smartthings.Device, samples []mapper.Sample) error
}

// Logger defines the logging interface used by the Poller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Poller.
type Options struct {
	// Interval is the time between cycle starts.
	Interval time.Duration

	// Publisher, when set, mirrors fresh device samples after each
	// successful status fetch.
	Publisher Publisher

	// Logger receives cycle progress and failures. Nil discards them.
	Logger Logger
}

// Poller periodically refreshes the registry from the upstream API.
//
// Cycles never overlap: a cycle that overruns the interval simply delays
// the next tick. One failing device degrades a cycle to partial instead
// of failing it, and its previous samples stay in the registry until it
// recovers or drops out of the inventory.
type Poller struct {
	api       DeviceAPI
	mapper    *mapper.Mapper
	registry  *registry.Registry
	publisher Publisher
	interval  time.Duration
	logger    Logger
}

// New creates a Poller.
func New(api DeviceAPI, m *mapper.Mapper, reg *registry.Registry, opts Options) *Poller {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Poller{
		api:       api,
		mapper:    m,
		registry:  reg,
		publisher: opts.Publisher,
		interval:  opts.Interval,
		logger:    logger,
	}
}

// Run polls until the context is cancelled. The first cycle starts
// immediately so the exporter has data before the first scrape.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.runCycle(ctx)
		}
	}
}

// runCycle performs one full refresh: list the inventory, fetch and map
// each device's status, then prune devices that dropped out.
func (p *Poller) runCycle(ctx context.Context) {
	started := time.Now()

	devices, err := p.api.ListDevices(ctx)
	if err != nil {
		// Nothing listed means nothing to trust: keep the previous
		// snapshot untouched and mark the cycle failed.
		p.registry.SetPollResult(registry.ResultFailed, started)
		p.logger.Error("device listing failed", "error", err)
		return
	}

	p.registry.SetDeviceCount(len(devices))

	keep := make(map[string]struct{}, len(devices))
	refreshed := 0
	failed := 0

	for _, device := range devices {
		if ctx.Err() != nil {
			return
		}
		keep[device.DeviceID] = struct{}{}

		status, err := p.api.DeviceStatus(ctx, device.DeviceID)
		switch {
		case errors.Is(err, smartthings.ErrNotFound):
			// Deleted between listing and fetch. Purge now rather
			// than waiting for the next listing.
			delete(keep, device.DeviceID)
			p.registry.RemoveDevice(device.DeviceID)
			p.logger.Info("device removed upstream", "device_id", device.DeviceID)
			continue

		case err != nil:
			// Stale samples beat no samples: the device stays in the
			// registry until it recovers or leaves the inventory.
			failed++
			p.logger.Warn("device status fetch failed",
				"device_id", device.DeviceID,
				"device_name", device.DisplayName(),
				"error", err,
			)
			continue
		}

		samples, anomalies := p.mapper.Map(device, status)
		p.registry.AddAnomalies(anomalies)
		p.registry.ReplaceDevice(device.DeviceID, samples)
		refreshed++

		if p.publisher != nil {
			if err := p.publisher.PublishDeviceState(device, samples); err != nil {
				p.logger.Warn("mirror publish failed",
					"device_id", device.DeviceID,
					"error", err,
				)
			}
		}
	}

	if pruned := p.registry.Prune(keep); pruned > 0 {
		p.logger.Info("pruned departed devices", "count", pruned)
	}

	result := registry.ResultSuccess
	switch {
	case failed > 0 && refreshed == 0:
		result = registry.ResultFailed
	case failed > 0:
		result = registry.ResultPartial
	}
	p.registry.SetPollResult(result, started)

	p.logger.Debug("poll cycle complete",
		"result", string(result),
		"devices", len(devices),
		"refreshed", refreshed,
		"failed", failed,
		"duration", time.Since(started).String(),
	)
}
