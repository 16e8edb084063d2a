package mirror

// defaultTopicPrefix is used when no prefix is configured.
const defaultTopicPrefix = "stexporter"

// Topics builds the mirror's MQTT topic names.
//
// Layout under the configured prefix:
//
//	<prefix>/status                     exporter online/offline (retained)
//	<prefix>/devices/<deviceId>/state   per-device state (retained)
type Topics struct {
	// Prefix is the configured topic prefix. Empty uses defaultTopicPrefix.
	Prefix string
}

// root returns the effective topic prefix.
func (t Topics) root() string {
	if t.Prefix == "" {
		return defaultTopicPrefix
	}
	return t.Prefix
}

// Status returns the exporter status topic.
func (t Topics) Status() string {
	return t.root() + "/status"
}

// DeviceState returns the state topic for one device.
func (t Topics) DeviceState(deviceID string) string {
	return t.root() + "/devices/" + deviceID + "/state"
}
