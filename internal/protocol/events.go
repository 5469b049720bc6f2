package protocol

import "fmt"

// PushEvent is the event code carried in the first byte of a push-event
// notification payload.
type PushEvent byte

const (
	EventBatteryChanged        PushEvent = 1
	EventChargerConnected      PushEvent = 2
	EventChargerDisconnected   PushEvent = 3
	EventTargetTempChanged     PushEvent = 4
	EventDrinkTempChanged      PushEvent = 5
	EventAuthInfoMissing       PushEvent = 6
	EventLiquidLevelChanged    PushEvent = 7
	EventLiquidStateChanged    PushEvent = 8
	EventBatteryVoltageChanged PushEvent = 9
)

var pushEventNames = map[PushEvent]string{
	EventBatteryChanged:        "battery_changed",
	EventChargerConnected:      "charger_connected",
	EventChargerDisconnected:   "charger_disconnected",
	EventTargetTempChanged:     "target_temperature_changed",
	EventDrinkTempChanged:      "drink_temperature_changed",
	EventAuthInfoMissing:       "auth_info_missing",
	EventLiquidLevelChanged:    "liquid_level_changed",
	EventLiquidStateChanged:    "liquid_state_changed",
	EventBatteryVoltageChanged: "battery_voltage_changed",
}

func (e PushEvent) String() string {
	if name, ok := pushEventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("push_event(%d)", byte(e))
}

// Known reports whether the event code is part of the documented protocol.
func (e PushEvent) Known() bool {
	_, ok := pushEventNames[e]
	return ok
}

// chargerRefresh is the wide refresh set used for charger transitions:
// docking or undocking changes charging state and, indirectly, the heating
// behaviour, so everything volatile is re-read.
var chargerRefresh = NewSet(
	AttrBattery, AttrTargetTemp, AttrCurrentTemp,
	AttrLiquidLevel, AttrLiquidState, AttrBatteryVoltage,
)

// refreshSets maps each event code to the attributes that must be re-read
// when it arrives. New firmware revisions extend this table, not the
// dispatch code.
var refreshSets = map[PushEvent]Set{
	EventBatteryChanged:        NewSet(AttrBattery),
	EventChargerConnected:      chargerRefresh,
	EventChargerDisconnected:   chargerRefresh,
	EventTargetTempChanged:     NewSet(AttrTargetTemp),
	EventDrinkTempChanged:      NewSet(AttrCurrentTemp),
	EventAuthInfoMissing:       nil,
	EventLiquidLevelChanged:    NewSet(AttrLiquidLevel),
	EventLiquidStateChanged:    NewSet(AttrLiquidState),
	EventBatteryVoltageChanged: NewSet(AttrBatteryVoltage),
}

// RefreshAttributes returns the attribute set invalidated by the event.
// Unknown events and events with no attached attributes return an empty set.
func (e PushEvent) RefreshAttributes() Set {
	return refreshSets[e]
}
