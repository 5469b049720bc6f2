package mug

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberble/mugctl/internal/codec"
	"github.com/emberble/mugctl/internal/protocol"
)

func TestUpdateQueuedEmptyQueueNoIO(t *testing.T) {
	m, ft := newTestMug("Ember Ceramic Mug")

	changes, err := m.UpdateQueuedAttributes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Zero(t, ft.connects, "an empty queue must not touch the transport")
}

func TestUpdateQueuedReadsExactlyTheQueue(t *testing.T) {
	m, ft := newTestMug("Ember Ceramic Mug")
	require.NoError(t, m.EnsureConnection(context.Background()))
	ft.link.resetOps()

	m.handleNotification([]byte{byte(protocol.EventBatteryChanged)})
	m.handleNotification([]byte{byte(protocol.EventTargetTempChanged)})

	changes, err := m.UpdateQueuedAttributes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"read:" + protocol.CharBattery.UUID(),
		"read:" + protocol.CharTargetTemp.UUID(),
	}, ft.link.Ops())
	assert.Len(t, changes, 2)
	assert.Empty(t, m.QueuedAttributes(), "the queue drains on update")

	// A second call finds the queue empty again.
	ft.link.resetOps()
	changes, err = m.UpdateQueuedAttributes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Empty(t, ft.link.Ops())
}

func TestUpdateInitialBaseSet(t *testing.T) {
	m, ft := newTestMug("Ember Ceramic Mug")

	_, err := m.UpdateInitial(context.Background())
	require.NoError(t, err)

	ops := ft.link.Ops()
	assert.Contains(t, ops, "read:"+protocol.CharMugID.UUID())
	assert.Contains(t, ops, "read:"+protocol.CharFirmware.UUID())
	assert.NotContains(t, ops, "read:"+protocol.CharDateTimeZone.UUID())

	assert.Equal(t, "SERIAL42", m.Data.Meta.SerialNumber)
	assert.Equal(t, uint16(299), m.Data.Firmware.Version)
	assert.Equal(t, "dWRzaw==", m.Data.UDSK) // base64("udsk")
}

func TestUpdateInitialExtendedSet(t *testing.T) {
	m, ft := newTestMug("Ember Ceramic Mug", WithExtraAttributes())

	_, err := m.UpdateInitial(context.Background())
	require.NoError(t, err)
	assert.Contains(t, ft.link.Ops(), "read:"+protocol.CharDateTimeZone.UUID())
	assert.False(t, m.Data.DateTimeZone.IsZero())
}

func TestUpdateAll(t *testing.T) {
	m, ft := newTestMug("Ember Ceramic Mug")
	require.NoError(t, m.EnsureConnection(context.Background()))
	ft.link.resetOps()

	changes, err := m.UpdateAll(context.Background())
	require.NoError(t, err)
	// Every attribute except the unit changes from its zero value.
	assert.Len(t, changes, 7)

	assert.Equal(t, "EMBER", m.Data.Name)
	assert.InDelta(t, 55.60, m.Data.TargetTemp, 0.001)
	assert.InDelta(t, 55.81, m.Data.CurrentTemp, 0.001)
	assert.Equal(t, codec.Colour{R: 0xf4, G: 0x00, B: 0xa1}, m.Data.LEDColour)
	assert.Equal(t, uint8(53), m.Data.Battery.Percent)
	assert.Equal(t, uint8(10), m.Data.LiquidLevel)
	assert.Equal(t, codec.LiquidState(6), m.Data.LiquidState)

	// Unchanged values yield no changes on the next pass.
	changes, err = m.UpdateAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestUpdateAllTravelMug(t *testing.T) {
	m, ft := newTestMug("Ember Travel Mug")
	require.NoError(t, m.EnsureConnection(context.Background()))
	ft.link.resetOps()

	_, err := m.UpdateAll(context.Background())
	require.NoError(t, err)

	ops := ft.link.Ops()
	assert.Contains(t, ops, "read:"+protocol.CharVolume.UUID())
	assert.NotContains(t, ops, "read:"+protocol.CharLED.UUID())
	assert.Equal(t, codec.VolumeMedium, m.Data.VolumeLevel)
}

func TestUpdateMultiplePartialFailure(t *testing.T) {
	m, ft := newTestMug("Ember Ceramic Mug")
	require.NoError(t, m.EnsureConnection(context.Background()))
	ft.link.resetOps()
	ft.link.readErr[protocol.CharTargetTemp.UUID()] = errors.New("gatt failure")

	changes, err := m.UpdateAll(context.Background())
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, protocol.CharTargetTemp, terr.Characteristic)

	// Attributes read before the failure are still applied; attributes after
	// it in the batch are never read.
	assert.Equal(t, uint8(53), m.Data.Battery.Percent)
	assert.NotEmpty(t, changes)
	assert.NotContains(t, ft.link.Ops(), "read:"+protocol.CharTemperatureUnit.UUID())
}

func TestUpdateFiresCallbacksOnChanges(t *testing.T) {
	m, _ := newTestMug("Ember Ceramic Mug")
	require.NoError(t, m.EnsureConnection(context.Background()))

	var fired int
	m.RegisterCallback(func(*Data) { fired++ })

	_, err := m.UpdateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	// No changes, no callback.
	_, err = m.UpdateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
}
