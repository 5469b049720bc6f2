// Package mug is the client-side driver for Ember BLE beverage heaters. It
// owns the connection lifecycle, converts characteristic payloads to typed
// attributes, and turns push-event notifications into selective snapshot
// refreshes.
package mug

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/emberble/mugctl/internal/codec"
	"github.com/emberble/mugctl/internal/protocol"
	"github.com/emberble/mugctl/internal/transport"
)

// Callback is invoked with the snapshot after every non-duplicate push
// event and whenever a batched update changes at least one attribute.
type Callback func(*Data)

// UnregisterFunc removes a previously registered callback.
type UnregisterFunc func()

// accessor pairs the typed read and write paths of one attribute so batch
// updates and the CLI can operate on attributes by name without reflection.
type accessor struct {
	get func(ctx context.Context) (any, error)
	set func(ctx context.Context, raw string) error // nil for read-only attributes
}

// Mug is the device facade. One Mug drives one physical device; operations
// are not safe for concurrent use from multiple goroutines, except
// notification handling which the driver synchronizes internally.
type Mug struct {
	logger    *logrus.Logger
	transport transport.Transport
	device    transport.DeviceHandle

	Data *Data
	// dataMu guards snapshot writes: batched Apply runs in the task context
	// while charger events patch Data from the notification context.
	dataMu sync.Mutex

	connMu             sync.Mutex
	state              ConnectionState
	link               transport.Link
	expectedDisconnect atomic.Bool

	dispatchMu   sync.Mutex
	queued       protocol.Set
	latestEvents map[protocol.PushEvent][]byte
	callbacks    map[unsafe.Pointer]*callbackEntry

	accessors *orderedmap.OrderedMap[protocol.Attribute, accessor]
}

// Option configures a Mug at construction.
type Option func(*options)

type options struct {
	logger       *logrus.Logger
	useMetric    bool
	includeExtra bool
}

// WithLogger injects a structured logger. The default logger discards
// nothing but logs at logrus defaults.
func WithLogger(logger *logrus.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithImperialUnits formats temperatures in °F for display. Stored values
// stay in °C.
func WithImperialUnits() Option {
	return func(o *options) { o.useMetric = false }
}

// WithExtraAttributes includes the extended attribute set (battery voltage,
// device clock) in refreshes.
func WithExtraAttributes() Option {
	return func(o *options) { o.includeExtra = true }
}

// New creates a driver for the given device handle.
func New(t transport.Transport, device transport.DeviceHandle, opts ...Option) *Mug {
	o := &options{useMetric: true}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logrus.New()
	}

	m := &Mug{
		logger:       o.logger,
		transport:    t,
		device:       device,
		Data:         NewData(protocol.NewModel(device.Name, o.includeExtra), o.useMetric),
		state:        StateDisconnected,
		queued:       make(protocol.Set),
		latestEvents: make(map[protocol.PushEvent][]byte),
		callbacks:    make(map[unsafe.Pointer]*callbackEntry),
	}
	m.accessors = m.buildAccessors()
	m.logger.WithField("device", device).Debug("New mug driver initialized")
	return m
}

// Device returns the currently bound device handle.
func (m *Mug) Device() transport.DeviceHandle {
	return m.device
}

// SetDevice rebinds the driver to a new handle, e.g. after a re-discovery.
// Other state is left untouched.
func (m *Mug) SetDevice(device transport.DeviceHandle) {
	m.logger.WithFields(logrus.Fields{
		"old": m.device,
		"new": device,
	}).Debug("Rebinding device handle")
	m.device = device
}

// ModelName is a shortcut to the model descriptor's name.
func (m *Mug) ModelName() string {
	return m.Data.Model.Name
}

// Attributes returns all attribute identifiers supported by this driver, in
// registration order.
func (m *Mug) Attributes() []protocol.Attribute {
	attrs := make([]protocol.Attribute, 0, m.accessors.Len())
	for pair := m.accessors.Oldest(); pair != nil; pair = pair.Next() {
		attrs = append(attrs, pair.Key)
	}
	return attrs
}

// GetAttr reads a single attribute by its identifier.
func (m *Mug) GetAttr(ctx context.Context, attr protocol.Attribute) (any, error) {
	acc, ok := m.accessors.Get(attr)
	if !ok {
		return nil, &UnsupportedAttributeError{Attribute: attr, Model: m.ModelName()}
	}
	return acc.get(ctx)
}

// SetAttr parses raw into the attribute's value type and writes it.
func (m *Mug) SetAttr(ctx context.Context, attr protocol.Attribute, raw string) error {
	acc, ok := m.accessors.Get(attr)
	if !ok || acc.set == nil {
		return &UnsupportedAttributeError{Attribute: attr, Model: m.ModelName()}
	}
	return acc.set(ctx, raw)
}

// buildAccessors assembles the static attribute-name-to-accessor table.
func (m *Mug) buildAccessors() *orderedmap.OrderedMap[protocol.Attribute, accessor] {
	om := orderedmap.New[protocol.Attribute, accessor]()

	om.Set(protocol.AttrName, accessor{
		get: func(ctx context.Context) (any, error) { return m.GetName(ctx) },
		set: func(ctx context.Context, raw string) error { return m.SetName(ctx, raw) },
	})
	om.Set(protocol.AttrMeta, accessor{
		get: func(ctx context.Context) (any, error) { return m.GetMeta(ctx) },
	})
	om.Set(protocol.AttrBattery, accessor{
		get: func(ctx context.Context) (any, error) { return m.GetBattery(ctx) },
	})
	om.Set(protocol.AttrFirmware, accessor{
		get: func(ctx context.Context) (any, error) { return m.GetFirmware(ctx) },
	})
	om.Set(protocol.AttrLEDColour, accessor{
		get: func(ctx context.Context) (any, error) { return m.GetLEDColour(ctx) },
		set: func(ctx context.Context, raw string) error {
			colour, err := ParseColour(raw)
			if err != nil {
				return err
			}
			return m.SetLEDColour(ctx, colour)
		},
	})
	om.Set(protocol.AttrTargetTemp, accessor{
		get: func(ctx context.Context) (any, error) { return m.GetTargetTemp(ctx) },
		set: func(ctx context.Context, raw string) error {
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return &codec.EncodingError{Attribute: "target_temp", Reason: fmt.Sprintf("%q is not a number", raw)}
			}
			return m.SetTargetTemp(ctx, value)
		},
	})
	om.Set(protocol.AttrCurrentTemp, accessor{
		get: func(ctx context.Context) (any, error) { return m.GetCurrentTemp(ctx) },
	})
	om.Set(protocol.AttrTemperatureUnit, accessor{
		get: func(ctx context.Context) (any, error) { return m.GetTemperatureUnit(ctx) },
		set: func(ctx context.Context, raw string) error {
			unit, err := ParseTemperatureUnit(raw)
			if err != nil {
				return err
			}
			return m.SetTemperatureUnit(ctx, unit)
		},
	})
	om.Set(protocol.AttrLiquidLevel, accessor{
		get: func(ctx context.Context) (any, error) { return m.GetLiquidLevel(ctx) },
	})
	om.Set(protocol.AttrLiquidState, accessor{
		get: func(ctx context.Context) (any, error) { return m.GetLiquidState(ctx) },
	})
	om.Set(protocol.AttrVolumeLevel, accessor{
		get: func(ctx context.Context) (any, error) { return m.GetVolumeLevel(ctx) },
		set: func(ctx context.Context, raw string) error {
			level, err := ParseVolumeLevel(raw)
			if err != nil {
				return err
			}
			return m.SetVolumeLevel(ctx, level)
		},
	})
	om.Set(protocol.AttrBatteryVoltage, accessor{
		get: func(ctx context.Context) (any, error) { return m.GetBatteryVoltage(ctx) },
	})
	om.Set(protocol.AttrDateTimeZone, accessor{
		get: func(ctx context.Context) (any, error) { return m.GetDateTimeZone(ctx) },
	})
	om.Set(protocol.AttrUDSK, accessor{
		get: func(ctx context.Context) (any, error) { return m.GetUDSK(ctx) },
		set: func(ctx context.Context, raw string) error { return m.SetUDSK(ctx, raw) },
	})
	om.Set(protocol.AttrDSK, accessor{
		get: func(ctx context.Context) (any, error) { return m.GetDSK(ctx) },
	})

	return om
}

// GetName reads the device name.
func (m *Mug) GetName(ctx context.Context) (string, error) {
	data, err := m.read(ctx, protocol.CharName)
	if err != nil {
		return "", err
	}
	return codec.DecodeName(data), nil
}

// SetName writes a new device name. Names must be 7-bit ASCII.
func (m *Mug) SetName(ctx context.Context, name string) error {
	data, err := codec.EncodeName(name)
	if err != nil {
		return err
	}
	if err := m.write(ctx, protocol.CharName, data); err != nil {
		return err
	}
	m.Data.Name = name
	return nil
}

// GetMeta reads the device's ID and serial number.
func (m *Mug) GetMeta(ctx context.Context) (codec.MugMeta, error) {
	data, err := m.read(ctx, protocol.CharMugID)
	if err != nil {
		return codec.MugMeta{}, err
	}
	return codec.DecodeMeta(data)
}

// GetBattery reads the charge level and docking state.
func (m *Mug) GetBattery(ctx context.Context) (codec.BatteryState, error) {
	data, err := m.read(ctx, protocol.CharBattery)
	if err != nil {
		return codec.BatteryState{}, err
	}
	return codec.DecodeBattery(data)
}

// GetLEDColour reads the LED colour.
func (m *Mug) GetLEDColour(ctx context.Context) (codec.Colour, error) {
	data, err := m.read(ctx, protocol.CharLED)
	if err != nil {
		return codec.Colour{}, err
	}
	return codec.DecodeColour(data)
}

// SetLEDColour writes the LED colour. Alpha is forced to 0xFF on the wire.
func (m *Mug) SetLEDColour(ctx context.Context, colour codec.Colour) error {
	if err := m.write(ctx, protocol.CharLED, codec.EncodeColour(colour)); err != nil {
		return err
	}
	m.Data.LEDColour = colour
	return nil
}

// GetTargetTemp reads the target temperature in °C.
func (m *Mug) GetTargetTemp(ctx context.Context) (float64, error) {
	data, err := m.read(ctx, protocol.CharTargetTemp)
	if err != nil {
		return 0, err
	}
	return codec.DecodeTemp(data)
}

// SetTargetTemp writes a new target temperature in °C.
func (m *Mug) SetTargetTemp(ctx context.Context, value float64) error {
	data, err := codec.EncodeTemp(value)
	if err != nil {
		return err
	}
	if err := m.write(ctx, protocol.CharTargetTemp, data); err != nil {
		return err
	}
	m.Data.TargetTemp = value
	return nil
}

// GetCurrentTemp reads the drink temperature in °C.
func (m *Mug) GetCurrentTemp(ctx context.Context) (float64, error) {
	data, err := m.read(ctx, protocol.CharCurrentTemp)
	if err != nil {
		return 0, err
	}
	return codec.DecodeTemp(data)
}

// GetLiquidLevel reads the raw liquid level.
func (m *Mug) GetLiquidLevel(ctx context.Context) (uint8, error) {
	data, err := m.read(ctx, protocol.CharLiquidLevel)
	if err != nil {
		return 0, err
	}
	return codec.DecodeLiquidLevel(data)
}

// GetLiquidState reads the heating phase.
func (m *Mug) GetLiquidState(ctx context.Context) (codec.LiquidState, error) {
	data, err := m.read(ctx, protocol.CharLiquidState)
	if err != nil {
		return codec.LiquidStateUnknown, err
	}
	return codec.DecodeLiquidState(data)
}

// GetVolumeLevel reads the travel mug volume. Other variants report the
// attribute as unsupported.
func (m *Mug) GetVolumeLevel(ctx context.Context) (codec.VolumeLevel, error) {
	if !m.Data.Model.HasVolumeControl() {
		return 0, &UnsupportedAttributeError{Attribute: protocol.AttrVolumeLevel, Model: m.ModelName()}
	}
	data, err := m.read(ctx, protocol.CharVolume)
	if err != nil {
		return 0, err
	}
	return codec.DecodeVolumeLevel(data)
}

// SetVolumeLevel writes the travel mug volume.
func (m *Mug) SetVolumeLevel(ctx context.Context, level codec.VolumeLevel) error {
	if !m.Data.Model.HasVolumeControl() {
		return &UnsupportedAttributeError{Attribute: protocol.AttrVolumeLevel, Model: m.ModelName()}
	}
	data, err := codec.EncodeVolumeLevel(level)
	if err != nil {
		return err
	}
	if err := m.write(ctx, protocol.CharVolume, data); err != nil {
		return err
	}
	m.Data.VolumeLevel = level
	return nil
}

// GetTemperatureUnit reads the display unit configured on the device.
func (m *Mug) GetTemperatureUnit(ctx context.Context) (codec.TemperatureUnit, error) {
	data, err := m.read(ctx, protocol.CharTemperatureUnit)
	if err != nil {
		return codec.Celsius, err
	}
	return codec.DecodeTemperatureUnit(data)
}

// SetTemperatureUnit writes the display unit.
func (m *Mug) SetTemperatureUnit(ctx context.Context, unit codec.TemperatureUnit) error {
	if err := m.write(ctx, protocol.CharTemperatureUnit, codec.EncodeTemperatureUnit(unit)); err != nil {
		return err
	}
	m.Data.TemperatureUnit = unit
	return nil
}

// EnsureCorrectUnit converges the device's display unit to the configured
// unit system, writing only when they disagree.
func (m *Mug) EnsureCorrectUnit(ctx context.Context) error {
	desired := codec.Celsius
	if !m.Data.UseMetric {
		desired = codec.Fahrenheit
	}
	if m.Data.TemperatureUnit == desired {
		return nil
	}
	return m.SetTemperatureUnit(ctx, desired)
}

// GetBatteryVoltage reads the raw battery voltage byte.
func (m *Mug) GetBatteryVoltage(ctx context.Context) (uint8, error) {
	data, err := m.read(ctx, protocol.CharControlRegisterData)
	if err != nil {
		return 0, err
	}
	return codec.DecodeBatteryVoltage(data)
}

// GetDateTimeZone reads the device clock.
func (m *Mug) GetDateTimeZone(ctx context.Context) (time.Time, error) {
	data, err := m.read(ctx, protocol.CharDateTimeZone)
	if err != nil {
		return time.Time{}, err
	}
	return codec.DecodeDateTime(data)
}

// GetFirmware reads the firmware revision block.
func (m *Mug) GetFirmware(ctx context.Context) (codec.FirmwareInfo, error) {
	data, err := m.read(ctx, protocol.CharFirmware)
	if err != nil {
		return codec.FirmwareInfo{}, err
	}
	return codec.DecodeFirmware(data)
}

// GetUDSK reads the UDSK secret key as a base64 string. Some devices refuse
// the read; that is tolerated and yields an empty string.
func (m *Mug) GetUDSK(ctx context.Context) (string, error) {
	data, err := m.read(ctx, protocol.CharUDSK)
	if err != nil {
		var terr *TransportError
		if errors.As(err, &terr) {
			m.logger.WithError(err).Debug("Unable to read UDSK")
			return "", nil
		}
		return "", err
	}
	return codec.DecodeByteString(data), nil
}

// SetUDSK writes the UDSK key. The input string's bytes are base64-encoded
// before writing, mirroring the device's observed expectations.
func (m *Mug) SetUDSK(ctx context.Context, udsk string) error {
	if err := m.write(ctx, protocol.CharUDSK, codec.EncodeByteString(udsk)); err != nil {
		return err
	}
	m.Data.UDSK = udsk
	return nil
}

// GetDSK reads the DSK secret key as a base64 string, tolerating refused
// reads like GetUDSK.
func (m *Mug) GetDSK(ctx context.Context) (string, error) {
	data, err := m.read(ctx, protocol.CharDSK)
	if err != nil {
		var terr *TransportError
		if errors.As(err, &terr) {
			m.logger.WithError(err).Debug("Unable to read DSK")
			return "", nil
		}
		return "", err
	}
	return codec.DecodeByteString(data), nil
}

// ParseColour accepts "#rrggbb", "rrggbb" or "r,g,b" forms.
func ParseColour(raw string) (codec.Colour, error) {
	value := strings.TrimPrefix(strings.TrimSpace(raw), "#")
	if strings.Contains(value, ",") {
		parts := strings.Split(value, ",")
		if len(parts) != 3 {
			return codec.Colour{}, &codec.EncodingError{Attribute: "led_colour", Reason: fmt.Sprintf("%q is not r,g,b", raw)}
		}
		channels := make([]uint8, 3)
		for i, part := range parts {
			n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
			if err != nil {
				return codec.Colour{}, &codec.EncodingError{Attribute: "led_colour", Reason: fmt.Sprintf("%q is not a channel value", part)}
			}
			channels[i] = uint8(n)
		}
		return codec.Colour{R: channels[0], G: channels[1], B: channels[2]}, nil
	}
	if len(value) != 6 {
		return codec.Colour{}, &codec.EncodingError{Attribute: "led_colour", Reason: fmt.Sprintf("%q is not a hex colour", raw)}
	}
	n, err := strconv.ParseUint(value, 16, 32)
	if err != nil {
		return codec.Colour{}, &codec.EncodingError{Attribute: "led_colour", Reason: fmt.Sprintf("%q is not a hex colour", raw)}
	}
	return codec.Colour{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
}

// ParseTemperatureUnit accepts "c", "celsius", "°c" and the Fahrenheit
// equivalents.
func ParseTemperatureUnit(raw string) (codec.TemperatureUnit, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "c", "celsius", "°c":
		return codec.Celsius, nil
	case "f", "fahrenheit", "°f":
		return codec.Fahrenheit, nil
	}
	return codec.Celsius, &codec.EncodingError{Attribute: "temperature_unit", Reason: fmt.Sprintf("%q is not a temperature unit", raw)}
}

// ParseVolumeLevel accepts "low", "medium", "high" or 0–2.
func ParseVolumeLevel(raw string) (codec.VolumeLevel, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low", "0":
		return codec.VolumeLow, nil
	case "medium", "1":
		return codec.VolumeMedium, nil
	case "high", "2":
		return codec.VolumeHigh, nil
	}
	return 0, &codec.EncodingError{Attribute: "volume_level", Reason: fmt.Sprintf("%q is not a volume level (low, medium, high)", raw)}
}
