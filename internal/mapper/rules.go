package mapper

// ValueKind describes the shape a capability attribute is expected to take.
// The upstream API is dynamically typed; every value is resolved against
// one of these kinds and anything that does not fit is skipped as an
// anomaly rather than guessed at.
type ValueKind int

// Value kinds.
const (
	// KindNumber is a plain numeric reading (temperature, battery, power).
	KindNumber ValueKind = iota

	// KindBool is a binary state reported as a boolean or a two-state
	// enumerated string ("on"/"off", "active"/"inactive").
	KindBool

	// KindEnum is a multi-state enumerated string mapped to numeric
	// values through an explicit table.
	KindEnum
)

// Rule maps one capability attribute onto a metric.
type Rule struct {
	// Attribute is the status attribute this rule reads.
	Attribute string

	// Metric is the full metric name emitted for this attribute.
	Metric string

	// Help is the metric HELP text.
	Help string

	// Kind selects how the raw value is normalised.
	Kind ValueKind

	// TrueValues and FalseValues list the enumerated strings that map to
	// 1 and 0 for KindBool rules. Comparison is case-insensitive.
	TrueValues  []string
	FalseValues []string

	// EnumValues maps enumerated strings to metric values for KindEnum rules.
	EnumValues map[string]float64

	// IsTemperature marks readings eligible for Fahrenheit→Celsius
	// conversion when the exporter is configured for Celsius output.
	IsTemperature bool
}

// DefaultRules returns the built-in capability-to-metric table, keyed by
// SmartThings capability ID.
//
// Capabilities absent from this table are skipped silently: the upstream
// grows new device types regularly and the exporter must degrade
// gracefully rather than fail on them.
func DefaultRules() map[string][]Rule {
	return map[string][]Rule{
		"switch": {{
			Attribute:   "switch",
			Metric:      "smartthings_switch",
			Help:        "Switch state (1 on, 0 off).",
			Kind:        KindBool,
			TrueValues:  []string{"on"},
			FalseValues: []string{"off"},
		}},
		"switchLevel": {{
			Attribute: "level",
			Metric:    "smartthings_switch_level",
			Help:      "Dimmer or fan level in percent.",
			Kind:      KindNumber,
		}},
		"temperatureMeasurement": {{
			Attribute:     "temperature",
			Metric:        "smartthings_temperature",
			Help:          "Measured temperature in the reported or configured unit.",
			Kind:          KindNumber,
			IsTemperature: true,
		}},
		"thermostatHeatingSetpoint": {{
			Attribute:     "heatingSetpoint",
			Metric:        "smartthings_heating_setpoint",
			Help:          "Thermostat heating setpoint in the reported or configured unit.",
			Kind:          KindNumber,
			IsTemperature: true,
		}},
		"thermostatCoolingSetpoint": {{
			Attribute:     "coolingSetpoint",
			Metric:        "smartthings_cooling_setpoint",
			Help:          "Thermostat cooling setpoint in the reported or configured unit.",
			Kind:          KindNumber,
			IsTemperature: true,
		}},
		"relativeHumidityMeasurement": {{
			Attribute: "humidity",
			Metric:    "smartthings_humidity",
			Help:      "Relative humidity in percent.",
			Kind:      KindNumber,
		}},
		"battery": {{
			Attribute: "battery",
			Metric:    "smartthings_battery",
			Help:      "Battery charge in percent.",
			Kind:      KindNumber,
		}},
		"motionSensor": {{
			Attribute:   "motion",
			Metric:      "smartthings_motion",
			Help:        "Motion detected (1 active, 0 inactive).",
			Kind:        KindBool,
			TrueValues:  []string{"active"},
			FalseValues: []string{"inactive"},
		}},
		"presenceSensor": {{
			Attribute:   "presence",
			Metric:      "smartthings_presence",
			Help:        "Presence detected (1 present, 0 not present).",
			Kind:        KindBool,
			TrueValues:  []string{"present"},
			FalseValues: []string{"not present", "not_present"},
		}},
		"contactSensor": {{
			Attribute:   "contact",
			Metric:      "smartthings_contact",
			Help:        "Contact sensor state (1 open, 0 closed).",
			Kind:        KindBool,
			TrueValues:  []string{"open"},
			FalseValues: []string{"closed"},
		}},
		"waterSensor": {{
			Attribute:   "water",
			Metric:      "smartthings_water",
			Help:        "Water leak detected (1 wet, 0 dry).",
			Kind:        KindBool,
			TrueValues:  []string{"wet"},
			FalseValues: []string{"dry"},
		}},
		"illuminanceMeasurement": {{
			Attribute: "illuminance",
			Metric:    "smartthings_illuminance",
			Help:      "Measured illuminance in lux.",
			Kind:      KindNumber,
		}},
		"powerMeter": {{
			Attribute: "power",
			Metric:    "smartthings_power",
			Help:      "Instantaneous power draw in watts.",
			Kind:      KindNumber,
		}},
		"energyMeter": {{
			Attribute: "energy",
			Metric:    "smartthings_energy",
			Help:      "Accumulated energy consumption in kWh.",
			Kind:      KindNumber,
		}},
		"carbonDioxideMeasurement": {{
			Attribute: "carbonDioxide",
			Metric:    "smartthings_co2",
			Help:      "Measured carbon dioxide concentration in ppm.",
			Kind:      KindNumber,
		}},
		"smokeDetector": {{
			Attribute: "smoke",
			Metric:    "smartthings_smoke",
			Help:      "Smoke detector state (0 clear, 1 detected or tested).",
			Kind:      KindEnum,
			EnumValues: map[string]float64{
				"clear":    0,
				"detected": 1,
				"tested":   1,
			},
		}},
		"carbonMonoxideDetector": {{
			Attribute: "carbonMonoxide",
			Metric:    "smartthings_carbon_monoxide",
			Help:      "Carbon monoxide detector state (0 clear, 1 detected or tested).",
			Kind:      KindEnum,
			EnumValues: map[string]float64{
				"clear":    0,
				"detected": 1,
				"tested":   1,
			},
		}},
		"lock": {{
			Attribute: "lock",
			Metric:    "smartthings_lock",
			Help:      "Lock state (1 locked, 0 unlocked).",
			Kind:      KindEnum,
			EnumValues: map[string]float64{
				"locked":   1,
				"unlocked": 0,
			},
		}},
	}
}
