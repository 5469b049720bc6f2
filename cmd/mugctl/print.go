package main

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/emberble/mugctl/internal/mug"
	"github.com/emberble/mugctl/internal/protocol"
)

var (
	labelColour  = color.New(color.FgCyan)
	changeColour = color.New(color.FgYellow)
)

// infoAttributes is the display order for the info table.
var infoAttributes = []protocol.Attribute{
	protocol.AttrName,
	protocol.AttrMeta,
	protocol.AttrFirmware,
	protocol.AttrBattery,
	protocol.AttrCurrentTemp,
	protocol.AttrTargetTemp,
	protocol.AttrTemperatureUnit,
	protocol.AttrLiquidLevel,
	protocol.AttrLiquidState,
	protocol.AttrLEDColour,
	protocol.AttrVolumeLevel,
	protocol.AttrBatteryVoltage,
	protocol.AttrDateTimeZone,
	protocol.AttrUDSK,
	protocol.AttrDSK,
}

// printInfo renders the snapshot as a two-column table, skipping attributes
// the model never fetched.
func printInfo(data *mug.Data) {
	fetched := data.Model.InitialAttributes().Union(data.Model.UpdateAttributes())
	for _, attr := range infoAttributes {
		if !fetched.Contains(attr) {
			continue
		}
		label := mug.AttributeLabels[attr]
		labelColour.Printf("%-18s", label)
		fmt.Printf(" %s\n", data.FormattedValue(attr))
	}
}

// printChanges renders attribute transitions reported by an update.
func printChanges(changes []mug.Change) {
	for _, change := range changes {
		changeColour.Printf("%s\n", change)
	}
}
