package smartthings

// Device is a single entry from the SmartThings device inventory.
//
// Devices are re-fetched every poll cycle; the exporter keeps no identity
// for a device beyond its remote ID.
type Device struct {
	DeviceID   string      `json:"deviceId"`
	Name       string      `json:"name"`
	Label      string      `json:"label"`
	TypeName   string      `json:"deviceTypeName"`
	Components []Component `json:"components"`
}

// DisplayName returns the user-assigned label, falling back to the
// manufacturer name when no label is set.
func (d Device) DisplayName() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Name
}

// Component is an addressable sub-unit of a device (e.g. one outlet of a
// multi-outlet power strip). Single-component devices expose everything
// under the "main" component.
type Component struct {
	ID           string          `json:"id"`
	Capabilities []CapabilityRef `json:"capabilities"`
}

// CapabilityRef identifies a capability supported by a component.
type CapabilityRef struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
}

// DeviceStatus is the full capability state of one device, keyed by
// component ID. Produced once per poll cycle and discarded after mapping.
type DeviceStatus struct {
	Components map[string]ComponentStatus `json:"components"`
}

// ComponentStatus maps capability ID to attribute name to value.
type ComponentStatus map[string]map[string]AttributeValue

// AttributeValue is a single reported attribute. Value is left untyped
// because the upstream mixes numbers, booleans, and enumerated strings;
// the mapper resolves the shape against its rule table.
type AttributeValue struct {
	Value any    `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// devicePage is one page of the paginated device listing.
type devicePage struct {
	Items []Device  `json:"items"`
	Links pageLinks `json:"_links"`
}

// pageLinks holds pagination links from a list response.
type pageLinks struct {
	Next *pageLink `json:"next"`
}

// pageLink is a single HAL-style link.
type pageLink struct {
	Href string `json:"href"`
}
