package codec

import "fmt"

// TemperatureUnit is the display unit configured on the device.
type TemperatureUnit byte

const (
	Celsius    TemperatureUnit = 0
	Fahrenheit TemperatureUnit = 1
)

func (u TemperatureUnit) String() string {
	if u == Fahrenheit {
		return "°F"
	}
	return "°C"
}

// LiquidState is the heating phase reported by the device.
type LiquidState byte

const (
	LiquidStateUnknown       LiquidState = 0
	LiquidStateEmpty         LiquidState = 1
	LiquidStateFilling       LiquidState = 2
	LiquidStateColdNoControl LiquidState = 3
	LiquidStateCooling       LiquidState = 4
	LiquidStateHeating       LiquidState = 5
	LiquidStateTargetTemp    LiquidState = 6
	LiquidStateWarmNoControl LiquidState = 7
)

var liquidStateNames = map[LiquidState]string{
	LiquidStateUnknown:       "Unknown",
	LiquidStateEmpty:         "Empty",
	LiquidStateFilling:       "Filling",
	LiquidStateColdNoControl: "Cold (No control)",
	LiquidStateCooling:       "Cooling",
	LiquidStateHeating:       "Heating",
	LiquidStateTargetTemp:    "Perfect",
	LiquidStateWarmNoControl: "Warm (No control)",
}

func (s LiquidState) String() string {
	if name, ok := liquidStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("LiquidState(%d)", byte(s))
}

// VolumeLevel is the speaker volume of the travel mug.
type VolumeLevel byte

const (
	VolumeLow    VolumeLevel = 0
	VolumeMedium VolumeLevel = 1
	VolumeHigh   VolumeLevel = 2
)

func (v VolumeLevel) String() string {
	switch v {
	case VolumeLow:
		return "Low"
	case VolumeMedium:
		return "Medium"
	case VolumeHigh:
		return "High"
	}
	return fmt.Sprintf("VolumeLevel(%d)", byte(v))
}

// Colour is the LED colour. Alpha is not part of the domain model; the wire
// format always carries 0xFF for it.
type Colour struct {
	R, G, B uint8
}

func (c Colour) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// BatteryState is the charge level and docking state.
type BatteryState struct {
	Percent        uint8
	OnChargingBase bool
}

func (b BatteryState) String() string {
	state := "not on charging base"
	if b.OnChargingBase {
		state = "on charging base"
	}
	return fmt.Sprintf("%d%%, %s", b.Percent, state)
}

// FirmwareInfo is the firmware, hardware and bootloader revision block.
type FirmwareInfo struct {
	Version    uint16
	Hardware   uint8
	Bootloader uint16
}

func (f FirmwareInfo) String() string {
	return fmt.Sprintf("fw %d, hw %d, bootloader %d", f.Version, f.Hardware, f.Bootloader)
}

// MugMeta is the device identity block: an opaque ID and the serial number.
type MugMeta struct {
	ID           string
	SerialNumber string
}

func (m MugMeta) String() string {
	return fmt.Sprintf("%s (serial %s)", m.ID, m.SerialNumber)
}
