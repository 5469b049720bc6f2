package protocol

import (
	"sort"
	"strings"
)

// Attribute is the stable string identifier of a mug attribute. The same
// identifiers are used by the codec table, the event-refresh table and the
// public accessor names.
type Attribute string

const (
	AttrName            Attribute = "name"
	AttrMeta            Attribute = "meta"
	AttrBattery         Attribute = "battery"
	AttrFirmware        Attribute = "firmware"
	AttrLEDColour       Attribute = "led_colour"
	AttrTargetTemp      Attribute = "target_temp"
	AttrCurrentTemp     Attribute = "current_temp"
	AttrTemperatureUnit Attribute = "temperature_unit"
	AttrLiquidLevel     Attribute = "liquid_level"
	AttrLiquidState     Attribute = "liquid_state"
	AttrVolumeLevel     Attribute = "volume_level"
	AttrBatteryVoltage  Attribute = "battery_voltage"
	AttrDateTimeZone    Attribute = "date_time_zone"
	AttrUDSK            Attribute = "udsk"
	AttrDSK             Attribute = "dsk"
)

// Set is an unordered collection of attribute identifiers.
type Set map[Attribute]struct{}

// NewSet builds a Set from the given attributes.
func NewSet(attrs ...Attribute) Set {
	s := make(Set, len(attrs))
	for _, a := range attrs {
		s[a] = struct{}{}
	}
	return s
}

func (s Set) Contains(a Attribute) bool {
	_, ok := s[a]
	return ok
}

// Union returns a new Set containing the elements of both sets.
func (s Set) Union(other Set) Set {
	result := make(Set, len(s)+len(other))
	for a := range s {
		result[a] = struct{}{}
	}
	for a := range other {
		result[a] = struct{}{}
	}
	return result
}

// Difference returns a new Set with the elements of other removed.
func (s Set) Difference(other Set) Set {
	result := make(Set, len(s))
	for a := range s {
		if !other.Contains(a) {
			result[a] = struct{}{}
		}
	}
	return result
}

// Sorted returns the attributes in lexical order for deterministic iteration.
func (s Set) Sorted() []Attribute {
	result := make([]Attribute, 0, len(s))
	for a := range s {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

func (s Set) String() string {
	names := make([]string, 0, len(s))
	for _, a := range s.Sorted() {
		names = append(names, string(a))
	}
	return strings.Join(names, ", ")
}

// Attribute sets per refresh phase. Extra attributes are only fetched on
// models configured for them, the volume level only exists on travel mugs.
var (
	initialAttributes = NewSet(AttrMeta, AttrUDSK, AttrDSK, AttrFirmware)
	updateAttributes  = NewSet(
		AttrName, AttrLEDColour, AttrCurrentTemp, AttrTargetTemp,
		AttrTemperatureUnit, AttrBattery, AttrLiquidLevel, AttrLiquidState,
	)
	extraAttributes = NewSet(AttrBatteryVoltage, AttrDateTimeZone)
)

// Model describes a device variant and which attribute set it supports.
type Model struct {
	Name         string
	IncludeExtra bool
}

// NewModel builds a model descriptor from the advertised device name.
func NewModel(name string, includeExtra bool) Model {
	if name == "" {
		name = "EMBER"
	}
	return Model{Name: name, IncludeExtra: includeExtra}
}

// IsTravelMug reports whether the device is the travel variant.
func (m Model) IsTravelMug() bool {
	return strings.Contains(strings.ToLower(m.Name), "travel")
}

// HasVolumeControl reports whether the device exposes the volume attribute.
func (m Model) HasVolumeControl() bool {
	return m.IsTravelMug()
}

// InitialAttributes returns the attribute set fetched on first contact.
func (m Model) InitialAttributes() Set {
	if m.IncludeExtra {
		return initialAttributes.Union(NewSet(AttrDateTimeZone))
	}
	return initialAttributes
}

// UpdateAttributes returns the attribute set fetched on a periodic refresh.
func (m Model) UpdateAttributes() Set {
	attrs := updateAttributes
	if m.IncludeExtra {
		attrs = attrs.Union(extraAttributes)
	}
	if m.IsTravelMug() {
		attrs = attrs.Difference(NewSet(AttrLEDColour)).Union(NewSet(AttrVolumeLevel))
	}
	return attrs
}
