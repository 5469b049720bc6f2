package mug

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberble/mugctl/internal/codec"
	"github.com/emberble/mugctl/internal/protocol"
)

func TestNotificationQueuesRefresh(t *testing.T) {
	m, _ := newTestMug("Ember Ceramic Mug")

	m.handleNotification([]byte{byte(protocol.EventBatteryChanged)})
	assert.Equal(t, protocol.NewSet(protocol.AttrBattery), m.QueuedAttributes())

	m.handleNotification([]byte{byte(protocol.EventTargetTempChanged)})
	assert.Equal(t,
		protocol.NewSet(protocol.AttrBattery, protocol.AttrTargetTemp),
		m.QueuedAttributes())
}

func TestNotificationDuplicateSuppression(t *testing.T) {
	m, _ := newTestMug("Ember Ceramic Mug")

	var fired int
	m.RegisterCallback(func(*Data) { fired++ })

	payload := []byte{byte(protocol.EventBatteryChanged), 50}
	m.handleNotification(payload)
	assert.Equal(t, 1, fired)

	// The identical payload is swallowed.
	m.handleNotification(payload)
	assert.Equal(t, 1, fired)

	// A changed payload for the same event dispatches again.
	m.handleNotification([]byte{byte(protocol.EventBatteryChanged), 51})
	assert.Equal(t, 2, fired)

	// Distinct events never suppress each other.
	m.handleNotification([]byte{byte(protocol.EventLiquidLevelChanged)})
	assert.Equal(t, 3, fired)
}

func TestClearPendingEvents(t *testing.T) {
	m, _ := newTestMug("Ember Ceramic Mug")

	var fired int
	m.RegisterCallback(func(*Data) { fired++ })

	payload := []byte{byte(protocol.EventDrinkTempChanged)}
	m.handleNotification(payload)
	m.handleNotification(payload)
	require.Equal(t, 1, fired)

	m.ClearPendingEvents()
	m.handleNotification(payload)
	assert.Equal(t, 2, fired)
}

func TestNotificationChargerEvents(t *testing.T) {
	m, _ := newTestMug("Ember Ceramic Mug")
	m.Data.Battery = &codec.BatteryState{Percent: 64, OnChargingBase: false}

	m.handleNotification([]byte{byte(protocol.EventChargerConnected)})
	require.NotNil(t, m.Data.Battery)
	assert.True(t, m.Data.Battery.OnChargingBase)
	assert.Equal(t, uint8(64), m.Data.Battery.Percent, "percent is preserved until the refresh")

	queued := m.QueuedAttributes()
	for _, attr := range []protocol.Attribute{
		protocol.AttrBattery, protocol.AttrTargetTemp, protocol.AttrCurrentTemp,
		protocol.AttrLiquidLevel, protocol.AttrLiquidState, protocol.AttrBatteryVoltage,
	} {
		assert.True(t, queued.Contains(attr), "queued set misses %s", attr)
	}

	m.handleNotification([]byte{byte(protocol.EventChargerDisconnected)})
	assert.False(t, m.Data.Battery.OnChargingBase)
}

func TestNotificationChargerEventWithoutBatteryState(t *testing.T) {
	m, _ := newTestMug("Ember Ceramic Mug")
	require.Nil(t, m.Data.Battery)

	m.handleNotification([]byte{byte(protocol.EventChargerConnected)})
	require.NotNil(t, m.Data.Battery)
	assert.True(t, m.Data.Battery.OnChargingBase)
	assert.Equal(t, uint8(0), m.Data.Battery.Percent)
}

func TestNotificationAuthInfoMissing(t *testing.T) {
	m, _ := newTestMug("Ember Ceramic Mug")

	m.handleNotification([]byte{byte(protocol.EventAuthInfoMissing)})
	assert.Empty(t, m.QueuedAttributes())
}

func TestNotificationUnknownEvent(t *testing.T) {
	m, _ := newTestMug("Ember Ceramic Mug")

	m.handleNotification([]byte{42})
	assert.Empty(t, m.QueuedAttributes())
}

func TestNotificationEmptyPayload(t *testing.T) {
	m, _ := newTestMug("Ember Ceramic Mug")

	var fired int
	m.RegisterCallback(func(*Data) { fired++ })

	m.handleNotification(nil)
	m.handleNotification([]byte{})
	assert.Zero(t, fired)
	assert.Empty(t, m.QueuedAttributes())
}

func TestRegisterCallbackIdempotent(t *testing.T) {
	m, _ := newTestMug("Ember Ceramic Mug")

	var fired int
	fn := func(*Data) { fired++ }

	unregister := m.RegisterCallback(fn)
	m.RegisterCallback(fn)

	m.handleNotification([]byte{byte(protocol.EventBatteryChanged)})
	assert.Equal(t, 1, fired, "double registration must not double-invoke")

	unregister()
	m.handleNotification([]byte{byte(protocol.EventBatteryChanged), 1})
	assert.Equal(t, 1, fired)
}

func TestRegisterCallbackDistinctClosures(t *testing.T) {
	m, _ := newTestMug("Ember Ceramic Mug")

	// Two closures built from the same literal share code but not identity;
	// each must register and fire independently.
	counts := make([]int, 2)
	var unregister []UnregisterFunc
	for i := range counts {
		i := i
		unregister = append(unregister, m.RegisterCallback(func(*Data) { counts[i]++ }))
	}

	m.handleNotification([]byte{byte(protocol.EventBatteryChanged)})
	assert.Equal(t, 1, counts[0])
	assert.Equal(t, 1, counts[1])

	// Each handle removes only its own callback.
	unregister[1]()
	m.handleNotification([]byte{byte(protocol.EventBatteryChanged), 1})
	assert.Equal(t, 2, counts[0])
	assert.Equal(t, 1, counts[1])
}

func TestNotificationsConcurrentWithUpdates(t *testing.T) {
	m, _ := newTestMug("Ember Ceramic Mug")
	require.NoError(t, m.EnsureConnection(context.Background()))

	// Charger patches land from the notification context while batched
	// updates apply to the same snapshot.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			m.handleNotification([]byte{byte(protocol.EventChargerConnected), byte(i)})
			m.handleNotification([]byte{byte(protocol.EventChargerDisconnected), byte(i)})
		}
	}()

	for i := 0; i < 50; i++ {
		_, err := m.UpdateAll(context.Background())
		require.NoError(t, err)
	}
	<-done

	require.NotNil(t, m.Data.Battery)
	assert.Equal(t, uint8(53), m.Data.Battery.Percent)
}

func TestUnregisterIsSafeTwice(t *testing.T) {
	m, _ := newTestMug("Ember Ceramic Mug")

	unregister := m.RegisterCallback(func(*Data) {})
	unregister()
	unregister()
}

func TestNotificationViaSubscription(t *testing.T) {
	m, ft := newTestMug("Ember Ceramic Mug")

	require.NoError(t, m.EnsureConnection(context.Background()))
	notify := ft.link.notify[protocol.CharPushEvent.UUID()]
	require.NotNil(t, notify)

	notify([]byte{byte(protocol.EventLiquidStateChanged)})
	assert.True(t, m.QueuedAttributes().Contains(protocol.AttrLiquidState))
}
