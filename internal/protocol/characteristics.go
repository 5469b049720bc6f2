// Package protocol defines the GATT profile of Ember beverage heaters:
// characteristic UUIDs, attribute identifiers, push-event codes and the
// mapping from event codes to the attributes they invalidate.
package protocol

import "fmt"

// ServiceUUID is the primary Ember service advertised by all mug variants.
const ServiceUUID = "fc543622-236c-4c94-8fa9-944a3e5353fa"

// Characteristic identifies a single GATT characteristic on the mug by its
// 16-bit vendor identifier. The full 128-bit UUID is derived from it.
type Characteristic uint16

const (
	CharName                Characteristic = 0x0001
	CharCurrentTemp         Characteristic = 0x0002
	CharTargetTemp          Characteristic = 0x0003
	CharTemperatureUnit     Characteristic = 0x0004
	CharLiquidLevel         Characteristic = 0x0005
	CharDateTimeZone        Characteristic = 0x0006
	CharBattery             Characteristic = 0x0007
	CharLiquidState         Characteristic = 0x0008
	CharVolume              Characteristic = 0x0009
	CharFirmware            Characteristic = 0x000c
	CharMugID               Characteristic = 0x000d
	CharDSK                 Characteristic = 0x000e
	CharUDSK                Characteristic = 0x000f
	CharControlRegisterAddr Characteristic = 0x0010
	CharControlRegisterData Characteristic = 0x0011
	CharPushEvent           Characteristic = 0x0012
	CharStatistics          Characteristic = 0x0013
	CharLED                 Characteristic = 0x0014
)

// UUID returns the full 128-bit characteristic UUID in dashed lowercase form.
func (c Characteristic) UUID() string {
	return fmt.Sprintf("fc54%04x-236c-4c94-8fa9-944a3e5353fa", uint16(c))
}

var characteristicNames = map[Characteristic]string{
	CharName:                "Mug Name",
	CharCurrentTemp:         "Current Temp",
	CharTargetTemp:          "Target Temp",
	CharTemperatureUnit:     "Temperature Unit",
	CharLiquidLevel:         "Liquid Level",
	CharDateTimeZone:        "Date Time Zone",
	CharBattery:             "Battery",
	CharLiquidState:         "Liquid State",
	CharVolume:              "Volume",
	CharFirmware:            "Firmware",
	CharMugID:               "Mug ID",
	CharDSK:                 "DSK",
	CharUDSK:                "UDSK",
	CharControlRegisterAddr: "Control Register Address",
	CharControlRegisterData: "Control Register Data",
	CharPushEvent:           "Push Event",
	CharStatistics:          "Statistics",
	CharLED:                 "LED",
}

func (c Characteristic) String() string {
	if name, ok := characteristicNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Characteristic(0x%04x)", uint16(c))
}
