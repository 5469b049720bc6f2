package mug

import (
	"fmt"
	"time"

	"github.com/emberble/mugctl/internal/codec"
	"github.com/emberble/mugctl/internal/protocol"
)

// Change records one attribute transition observed while applying fetched
// values to the snapshot.
type Change struct {
	Attribute protocol.Attribute
	Old       any
	New       any
}

func (c Change) String() string {
	return fmt.Sprintf("%s: %v -> %v", c.Attribute, c.Old, c.New)
}

// Data is the in-memory mirror of the device's last-known attribute values.
// Fields are only as fresh as the last successful read; staleness is not
// tracked. UseMetric affects display formatting only, never stored values:
// temperatures are always kept in °C.
type Data struct {
	Model     protocol.Model
	UseMetric bool

	Name            string
	Meta            *codec.MugMeta
	Battery         *codec.BatteryState
	Firmware        *codec.FirmwareInfo
	LEDColour       codec.Colour
	TargetTemp      float64
	CurrentTemp     float64
	TemperatureUnit codec.TemperatureUnit
	LiquidLevel     uint8
	LiquidState     codec.LiquidState
	VolumeLevel     codec.VolumeLevel
	BatteryVoltage  uint8
	DateTimeZone    time.Time
	UDSK            string
	DSK             string
}

// NewData builds an empty snapshot for the given model.
func NewData(model protocol.Model, useMetric bool) *Data {
	return &Data{Model: model, UseMetric: useMetric}
}

// Apply merges fetched attribute values into the snapshot and returns the
// attributes whose value actually changed.
func (d *Data) Apply(values map[protocol.Attribute]any) []Change {
	var changes []Change
	record := func(attr protocol.Attribute, old, new any) {
		changes = append(changes, Change{Attribute: attr, Old: old, New: new})
	}

	for _, attr := range sortedKeys(values) {
		value := values[attr]
		switch attr {
		case protocol.AttrName:
			if v := value.(string); v != d.Name {
				record(attr, d.Name, v)
				d.Name = v
			}
		case protocol.AttrMeta:
			if v := value.(codec.MugMeta); d.Meta == nil || *d.Meta != v {
				record(attr, d.Meta, v)
				d.Meta = &v
			}
		case protocol.AttrBattery:
			if v := value.(codec.BatteryState); d.Battery == nil || *d.Battery != v {
				record(attr, d.Battery, v)
				d.Battery = &v
			}
		case protocol.AttrFirmware:
			if v := value.(codec.FirmwareInfo); d.Firmware == nil || *d.Firmware != v {
				record(attr, d.Firmware, v)
				d.Firmware = &v
			}
		case protocol.AttrLEDColour:
			if v := value.(codec.Colour); v != d.LEDColour {
				record(attr, d.LEDColour, v)
				d.LEDColour = v
			}
		case protocol.AttrTargetTemp:
			if v := value.(float64); v != d.TargetTemp {
				record(attr, d.TargetTemp, v)
				d.TargetTemp = v
			}
		case protocol.AttrCurrentTemp:
			if v := value.(float64); v != d.CurrentTemp {
				record(attr, d.CurrentTemp, v)
				d.CurrentTemp = v
			}
		case protocol.AttrTemperatureUnit:
			if v := value.(codec.TemperatureUnit); v != d.TemperatureUnit {
				record(attr, d.TemperatureUnit, v)
				d.TemperatureUnit = v
			}
		case protocol.AttrLiquidLevel:
			if v := value.(uint8); v != d.LiquidLevel {
				record(attr, d.LiquidLevel, v)
				d.LiquidLevel = v
			}
		case protocol.AttrLiquidState:
			if v := value.(codec.LiquidState); v != d.LiquidState {
				record(attr, d.LiquidState, v)
				d.LiquidState = v
			}
		case protocol.AttrVolumeLevel:
			if v := value.(codec.VolumeLevel); v != d.VolumeLevel {
				record(attr, d.VolumeLevel, v)
				d.VolumeLevel = v
			}
		case protocol.AttrBatteryVoltage:
			if v := value.(uint8); v != d.BatteryVoltage {
				record(attr, d.BatteryVoltage, v)
				d.BatteryVoltage = v
			}
		case protocol.AttrDateTimeZone:
			if v := value.(time.Time); !v.Equal(d.DateTimeZone) {
				record(attr, d.DateTimeZone, v)
				d.DateTimeZone = v
			}
		case protocol.AttrUDSK:
			if v := value.(string); v != d.UDSK {
				record(attr, d.UDSK, v)
				d.UDSK = v
			}
		case protocol.AttrDSK:
			if v := value.(string); v != d.DSK {
				record(attr, d.DSK, v)
				d.DSK = v
			}
		}
	}
	return changes
}

func sortedKeys(values map[protocol.Attribute]any) []protocol.Attribute {
	set := make(protocol.Set, len(values))
	for attr := range values {
		set[attr] = struct{}{}
	}
	return set.Sorted()
}

// DisplayTemp converts a stored °C temperature to the configured display
// unit system.
func (d *Data) DisplayTemp(celsius float64) (float64, codec.TemperatureUnit) {
	if d.UseMetric {
		return celsius, codec.Celsius
	}
	return celsius*9/5 + 32, codec.Fahrenheit
}

// FormattedValue renders the current snapshot value of an attribute for
// human output.
func (d *Data) FormattedValue(attr protocol.Attribute) string {
	switch attr {
	case protocol.AttrName:
		return d.Name
	case protocol.AttrMeta:
		if d.Meta == nil {
			return ""
		}
		return d.Meta.String()
	case protocol.AttrBattery:
		if d.Battery == nil {
			return ""
		}
		return d.Battery.String()
	case protocol.AttrFirmware:
		if d.Firmware == nil {
			return ""
		}
		return d.Firmware.String()
	case protocol.AttrLEDColour:
		return d.LEDColour.String()
	case protocol.AttrTargetTemp:
		v, unit := d.DisplayTemp(d.TargetTemp)
		return fmt.Sprintf("%.2f%s", v, unit)
	case protocol.AttrCurrentTemp:
		v, unit := d.DisplayTemp(d.CurrentTemp)
		return fmt.Sprintf("%.2f%s", v, unit)
	case protocol.AttrTemperatureUnit:
		return d.TemperatureUnit.String()
	case protocol.AttrLiquidLevel:
		return fmt.Sprintf("%d", d.LiquidLevel)
	case protocol.AttrLiquidState:
		return d.LiquidState.String()
	case protocol.AttrVolumeLevel:
		return d.VolumeLevel.String()
	case protocol.AttrBatteryVoltage:
		return fmt.Sprintf("%d", d.BatteryVoltage)
	case protocol.AttrDateTimeZone:
		if d.DateTimeZone.IsZero() {
			return ""
		}
		return d.DateTimeZone.Format(time.RFC3339)
	case protocol.AttrUDSK:
		return d.UDSK
	case protocol.AttrDSK:
		return d.DSK
	}
	return ""
}

// AttributeLabels maps attribute identifiers to human display labels.
var AttributeLabels = map[protocol.Attribute]string{
	protocol.AttrName:            "Mug Name",
	protocol.AttrMeta:            "Meta",
	protocol.AttrBattery:         "Battery",
	protocol.AttrFirmware:        "Firmware",
	protocol.AttrLEDColour:       "LED Colour",
	protocol.AttrTargetTemp:      "Target Temp",
	protocol.AttrCurrentTemp:     "Current Temp",
	protocol.AttrTemperatureUnit: "Temperature Unit",
	protocol.AttrLiquidLevel:     "Liquid Level",
	protocol.AttrLiquidState:     "Liquid State",
	protocol.AttrVolumeLevel:     "Volume Level",
	protocol.AttrBatteryVoltage:  "Battery Voltage",
	protocol.AttrDateTimeZone:    "Date Time + Zone",
	protocol.AttrUDSK:            "UDSK",
	protocol.AttrDSK:             "DSK",
}
