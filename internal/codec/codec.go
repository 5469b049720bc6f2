// Package codec implements the stateless byte transforms between raw GATT
// characteristic payloads and typed attribute values. All multi-byte fields
// are little-endian unless a transform notes otherwise.
package codec

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"time"
	"unicode"
)

// tempStep is the temperature resolution of the wire format, in °C.
const tempStep = 0.01

// maxTemp is the highest temperature representable in two bytes.
const maxTemp = math.MaxUint16 * tempStep

// DecodeName returns the device name bytes verbatim as a string.
func DecodeName(data []byte) string {
	return string(data)
}

// EncodeName converts a name into its wire bytes. The device only accepts
// 7-bit ASCII names.
func EncodeName(name string) ([]byte, error) {
	for _, r := range name {
		if r > unicode.MaxASCII {
			return nil, &EncodingError{
				Attribute: "name",
				Reason:    fmt.Sprintf("character %q is not 7-bit ASCII", r),
			}
		}
	}
	return []byte(name), nil
}

// DecodeTemp converts a two-byte temperature payload to °C.
func DecodeTemp(data []byte) (float64, error) {
	if len(data) != 2 {
		return 0, &MalformedPayloadError{Attribute: "temperature", Want: 2, Got: len(data)}
	}
	return float64(binary.LittleEndian.Uint16(data)) * tempStep, nil
}

// EncodeTemp converts a °C temperature to its two-byte payload.
func EncodeTemp(value float64) ([]byte, error) {
	if value < 0 || value > maxTemp {
		return nil, &EncodingError{
			Attribute: "temperature",
			Reason:    fmt.Sprintf("%.2f°C is outside 0–%.2f°C", value, maxTemp),
		}
	}
	data := make([]byte, 2)
	binary.LittleEndian.PutUint16(data, uint16(math.Round(value/tempStep)))
	return data, nil
}

// DecodeLiquidLevel returns the raw liquid level (0–255).
func DecodeLiquidLevel(data []byte) (uint8, error) {
	if len(data) != 1 {
		return 0, &MalformedPayloadError{Attribute: "liquid_level", Want: 1, Got: len(data)}
	}
	return data[0], nil
}

// DecodeLiquidState returns the heating-phase enum code.
func DecodeLiquidState(data []byte) (LiquidState, error) {
	if len(data) != 1 {
		return 0, &MalformedPayloadError{Attribute: "liquid_state", Want: 1, Got: len(data)}
	}
	return LiquidState(data[0]), nil
}

// DecodeBattery unpacks [percent, chargingFlag].
func DecodeBattery(data []byte) (BatteryState, error) {
	if len(data) != 2 {
		return BatteryState{}, &MalformedPayloadError{Attribute: "battery", Want: 2, Got: len(data)}
	}
	return BatteryState{
		Percent:        data[0],
		OnChargingBase: data[1] != 0,
	}, nil
}

// EncodeBattery packs a battery state into [percent, chargingFlag].
func EncodeBattery(state BatteryState) ([]byte, error) {
	if state.Percent > 100 {
		return nil, &EncodingError{
			Attribute: "battery",
			Reason:    fmt.Sprintf("percent %d is outside 0–100", state.Percent),
		}
	}
	var charging byte
	if state.OnChargingBase {
		charging = 1
	}
	return []byte{state.Percent, charging}, nil
}

// DecodeColour unpacks an RGBA payload, discarding the alpha byte.
func DecodeColour(data []byte) (Colour, error) {
	if len(data) != 4 {
		return Colour{}, &MalformedPayloadError{Attribute: "led_colour", Want: 4, Got: len(data)}
	}
	return Colour{R: data[0], G: data[1], B: data[2]}, nil
}

// EncodeColour packs a colour as RGBA. The device always expects 0xFF alpha.
func EncodeColour(c Colour) []byte {
	return []byte{c.R, c.G, c.B, 0xff}
}

// DecodeTemperatureUnit maps 0 to Celsius and anything else to Fahrenheit.
func DecodeTemperatureUnit(data []byte) (TemperatureUnit, error) {
	if len(data) != 1 {
		return Celsius, &MalformedPayloadError{Attribute: "temperature_unit", Want: 1, Got: len(data)}
	}
	if data[0] == 0 {
		return Celsius, nil
	}
	return Fahrenheit, nil
}

// EncodeTemperatureUnit is the inverse of DecodeTemperatureUnit.
func EncodeTemperatureUnit(unit TemperatureUnit) []byte {
	if unit == Fahrenheit {
		return []byte{1}
	}
	return []byte{0}
}

// DecodeFirmware unpacks version(2 LE), hardware(1), pad(1), bootloader(2 LE).
func DecodeFirmware(data []byte) (FirmwareInfo, error) {
	if len(data) != 6 {
		return FirmwareInfo{}, &MalformedPayloadError{Attribute: "firmware", Want: 6, Got: len(data)}
	}
	return FirmwareInfo{
		Version:    binary.LittleEndian.Uint16(data[0:2]),
		Hardware:   data[2],
		Bootloader: binary.LittleEndian.Uint16(data[4:6]),
	}, nil
}

// EncodeFirmware is the inverse packing of DecodeFirmware.
func EncodeFirmware(info FirmwareInfo) []byte {
	data := make([]byte, 6)
	binary.LittleEndian.PutUint16(data[0:2], info.Version)
	data[2] = info.Hardware
	binary.LittleEndian.PutUint16(data[4:6], info.Bootloader)
	return data
}

// DecodeBatteryVoltage returns the raw voltage byte from the control
// register data. The characteristic is read-only.
func DecodeBatteryVoltage(data []byte) (uint8, error) {
	if len(data) == 0 {
		return 0, &MalformedPayloadError{Attribute: "battery_voltage", Want: 1, Got: 0}
	}
	return data[0], nil
}

// DecodeMeta unpacks the identity payload: six opaque ID bytes, a separator
// and the serial number string. The ID part is exposed base64-encoded.
func DecodeMeta(data []byte) (MugMeta, error) {
	if len(data) < 7 {
		return MugMeta{}, &MalformedPayloadError{Attribute: "meta", Want: 7, Got: len(data)}
	}
	return MugMeta{
		ID:           base64.StdEncoding.EncodeToString(data[:6]),
		SerialNumber: string(data[7:]),
	}, nil
}

// DecodeByteString base64-encodes raw characteristic bytes into a display
// string. Used for the UDSK and DSK secret keys.
func DecodeByteString(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// EncodeByteString base64-encodes the input string's bytes and returns that
// text as the raw payload. Deliberately NOT the inverse of DecodeByteString:
// the device-side expectation for this characteristic is unverified, so the
// write path keeps the behaviour known to work on real hardware.
func EncodeByteString(value string) []byte {
	return []byte(base64.StdEncoding.EncodeToString([]byte(value)))
}

// DecodeDateTime unpacks the packed device timestamp: a big-endian uint32 of
// unix seconds (the trailing zone offset, when present, is ignored). A zero
// timestamp decodes to the zero time.
func DecodeDateTime(data []byte) (time.Time, error) {
	if len(data) < 4 {
		return time.Time{}, &MalformedPayloadError{Attribute: "date_time_zone", Want: 4, Got: len(data)}
	}
	seconds := binary.BigEndian.Uint32(data[:4])
	if seconds == 0 {
		return time.Time{}, nil
	}
	return time.Unix(int64(seconds), 0).UTC(), nil
}

// EncodeDateTime is the inverse packing of DecodeDateTime.
func EncodeDateTime(t time.Time) ([]byte, error) {
	if t.IsZero() {
		return []byte{0, 0, 0, 0}, nil
	}
	seconds := t.Unix()
	if seconds < 0 || seconds > math.MaxUint32 {
		return nil, &EncodingError{
			Attribute: "date_time_zone",
			Reason:    fmt.Sprintf("time %s is outside the device epoch range", t),
		}
	}
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data, uint32(seconds))
	return data, nil
}

// DecodeVolumeLevel returns the travel-mug volume enum.
func DecodeVolumeLevel(data []byte) (VolumeLevel, error) {
	if len(data) != 1 {
		return 0, &MalformedPayloadError{Attribute: "volume_level", Want: 1, Got: len(data)}
	}
	return VolumeLevel(data[0]), nil
}

// EncodeVolumeLevel packs the volume enum into a single byte.
func EncodeVolumeLevel(v VolumeLevel) ([]byte, error) {
	if v > VolumeHigh {
		return nil, &EncodingError{
			Attribute: "volume_level",
			Reason:    fmt.Sprintf("level %d is outside 0–2", byte(v)),
		}
	}
	return []byte{byte(v)}, nil
}
