package mapper

import (
	"fmt"
	"strings"

	"github.com/nerrad567/smartthings-exporter/internal/smartthings"
)

// DefaultComponent is the label value for single-component devices.
// SmartThings exposes their capabilities under the "main" component, so
// the component label is always present and the label schema of a metric
// never varies between single- and multi-component devices.
const DefaultComponent = "main"

// Sample is one translated metric observation: a metric name, the fixed
// label set, and a numeric value.
type Sample struct {
	Metric     string
	Help       string
	DeviceID   string
	DeviceName string
	Component  string
	Value      float64
}

// Key returns the sample's identity: metric name plus label values.
// Within one registry snapshot at most one value exists per key.
func (s Sample) Key() string {
	return strings.Join([]string{s.Metric, s.DeviceID, s.DeviceName, s.Component}, "\x00")
}

// Logger defines the logging interface used by the Mapper.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Options configures a Mapper.
type Options struct {
	// ConvertTemperature enables Fahrenheit→Celsius normalisation for
	// temperature-kind readings reported in Fahrenheit.
	ConvertTemperature bool

	// Rules overrides the built-in capability table. Nil uses DefaultRules.
	Rules map[string][]Rule

	// Logger receives anomaly reports. Nil discards them.
	Logger Logger
}

// Mapper translates raw device capability payloads into metric samples.
//
// Mapping never fails: malformed or unrecognised values are counted as
// anomalies and skipped, so one bad device cannot abort a poll cycle.
type Mapper struct {
	rules   map[string][]Rule
	convert bool
	logger  Logger
}

// New creates a Mapper.
func New(opts Options) *Mapper {
	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Mapper{
		rules:   rules,
		convert: opts.ConvertTemperature,
		logger:  logger,
	}
}

// Map translates one device's status into metric samples.
//
// It walks the device's declared capabilities per component, looks each
// one up in the rule table, and normalises the reported attribute value.
// Capabilities without a rule, and attributes the device has not reported
// yet (null values), are skipped silently. Values that do not match the
// rule's expected shape are skipped and counted as anomalies.
//
// Parameters:
//   - device: Device from the inventory listing
//   - status: The device's capability status for this cycle
//
// Returns:
//   - []Sample: Derivable samples (possibly empty, never nil on anomalies alone)
//   - int: Number of malformed values skipped
func (m *Mapper) Map(device smartthings.Device, status *smartthings.DeviceStatus) ([]Sample, int) {
	if status == nil {
		return nil, 0
	}

	var samples []Sample
	anomalies := 0

	for _, component := range device.Components {
		compStatus, ok := status.Components[component.ID]
		if !ok {
			continue
		}

		for _, capability := range component.Capabilities {
			rules, ok := m.rules[capability.ID]
			if !ok {
				// Unknown capability: new device types appear upstream
				// faster than the rule table grows. Not an error.
				continue
			}

			capStatus, ok := compStatus[capability.ID]
			if !ok {
				continue
			}

			for _, rule := range rules {
				attr, ok := capStatus[rule.Attribute]
				if !ok || attr.Value == nil {
					// Unreported attribute. Devices often declare
					// capabilities they have never measured.
					continue
				}

				value, err := m.normalise(rule, attr)
				if err != nil {
					anomalies++
					m.logger.Warn("skipping malformed capability value",
						"device_id", device.DeviceID,
						"component", component.ID,
						"capability", capability.ID,
						"attribute", rule.Attribute,
						"error", err,
					)
					continue
				}

				samples = append(samples, Sample{
					Metric:     rule.Metric,
					Help:       rule.Help,
					DeviceID:   device.DeviceID,
					DeviceName: device.DisplayName(),
					Component:  component.ID,
					Value:      value,
				})
			}
		}
	}

	return samples, anomalies
}

// normalise resolves a dynamically typed attribute value against a rule.
func (m *Mapper) normalise(rule Rule, attr smartthings.AttributeValue) (float64, error) {
	switch rule.Kind {
	case KindNumber:
		v, ok := toFloat(attr.Value)
		if !ok {
			return 0, fmt.Errorf("expected number, got %T", attr.Value)
		}
		if rule.IsTemperature && m.convert && isFahrenheit(attr.Unit) {
			v = fahrenheitToCelsius(v)
		}
		return v, nil

	case KindBool:
		switch v := attr.Value.(type) {
		case bool:
			if v {
				return 1, nil
			}
			return 0, nil
		case string:
			lower := strings.ToLower(v)
			for _, t := range rule.TrueValues {
				if lower == t {
					return 1, nil
				}
			}
			for _, f := range rule.FalseValues {
				if lower == f {
					return 0, nil
				}
			}
			return 0, fmt.Errorf("unrecognised state %q", v)
		case float64:
			if v == 0 || v == 1 {
				return v, nil
			}
			return 0, fmt.Errorf("numeric state %v is not binary", v)
		default:
			return 0, fmt.Errorf("expected boolean-like value, got %T", attr.Value)
		}

	case KindEnum:
		s, ok := attr.Value.(string)
		if !ok {
			return 0, fmt.Errorf("expected enumerated string, got %T", attr.Value)
		}
		v, ok := rule.EnumValues[strings.ToLower(s)]
		if !ok {
			return 0, fmt.Errorf("unrecognised state %q", s)
		}
		return v, nil

	default:
		return 0, fmt.Errorf("unknown value kind %d", rule.Kind)
	}
}

// toFloat converts JSON-decoded numeric shapes to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// isFahrenheit reports whether a unit string denotes Fahrenheit.
func isFahrenheit(unit string) bool {
	switch unit {
	case "F", "°F", "f":
		return true
	}
	return false
}

// fahrenheitToCelsius converts a Fahrenheit reading to Celsius.
func fahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}
