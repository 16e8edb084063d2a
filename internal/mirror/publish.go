package mirror

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/smartthings-exporter/internal/mapper"
	"github.com/nerrad567/smartthings-exporter/internal/smartthings"
)

// Maximum payload size for MQTT messages (1MB).
// This prevents resource exhaustion and aligns with typical broker limits.
const maxPayloadSize = 1 << 20 // 1MB

// statePayload is the retained JSON published per device.
type statePayload struct {
	DeviceID  string             `json:"device_id"`
	Name      string             `json:"name"`
	Metrics   map[string]float64 `json:"metrics"`
	UpdatedAt string             `json:"updated_at"`
}

// PublishDeviceState publishes a device's fresh samples as retained JSON.
//
// Metric keys are the metric names; samples from components other than
// "main" are prefixed with the component ID ("outlet2/smartthings_switch"),
// so multi-component devices stay unambiguous in one payload.
//
// Parameters:
//   - device: Device from the inventory listing
//   - samples: The device's samples from the current poll cycle
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) PublishDeviceState(device smartthings.Device, samples []mapper.Sample) error {
	metrics := make(map[string]float64, len(samples))
	for _, s := range samples {
		key := s.Metric
		if s.Component != mapper.DefaultComponent {
			key = s.Component + "/" + s.Metric
		}
		metrics[key] = s.Value
	}

	payload, err := json.Marshal(statePayload{
		DeviceID:  device.DeviceID,
		Name:      device.DisplayName(),
		Metrics:   metrics,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("%w: encoding state: %w", ErrPublishFailed, err)
	}

	return c.Publish(c.topics.DeviceState(device.DeviceID), payload, byte(c.cfg.QoS), true)
}

// Publish sends a message to the specified MQTT topic.
//
// Parameters:
//   - topic: The topic to publish to
//   - payload: The message payload (typically JSON, max 1MB)
//   - qos: Quality of Service level (0, 1, or 2)
//   - retained: Whether the broker should retain the message for new subscribers
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}
