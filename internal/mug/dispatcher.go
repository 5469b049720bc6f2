package mug

import (
	"bytes"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/emberble/mugctl/internal/codec"
	"github.com/emberble/mugctl/internal/protocol"
)

type callbackEntry struct {
	fn         Callback
	unregister UnregisterFunc
}

// callbackKey identifies a callback by its func value allocation, not its
// code pointer: re-registering the same value is idempotent, while distinct
// closures built from one literal stay distinct.
func callbackKey(fn Callback) unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Pointer(&fn))
}

// RegisterCallback registers fn to be invoked on every non-duplicate push
// event and on snapshot changes. Registration is idempotent: registering an
// identity-equal function again returns the same unregister handle.
func (m *Mug) RegisterCallback(fn Callback) UnregisterFunc {
	key := callbackKey(fn)

	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	if entry, ok := m.callbacks[key]; ok {
		m.logger.Debug("Callback already registered")
		return entry.unregister
	}

	entry := &callbackEntry{fn: fn}
	entry.unregister = func() {
		m.dispatchMu.Lock()
		delete(m.callbacks, key)
		m.dispatchMu.Unlock()
		m.logger.Debug("Unregistered callback")
	}
	m.callbacks[key] = entry
	m.logger.Debug("Registered callback")
	return entry.unregister
}

// fireCallbacks invokes every registered callback with the snapshot.
func (m *Mug) fireCallbacks() {
	m.dispatchMu.Lock()
	fns := make([]Callback, 0, len(m.callbacks))
	for _, entry := range m.callbacks {
		fns = append(fns, entry.fn)
	}
	m.dispatchMu.Unlock()

	for _, fn := range fns {
		fn(m.Data)
	}
}

// handleNotification processes one push-event payload. It runs in the
// transport's callback context and never blocks: it only records the event,
// queues attribute refreshes and invokes observers.
func (m *Mug) handleNotification(data []byte) {
	if len(data) == 0 {
		m.logger.Debug("Ignoring empty push event payload")
		return
	}
	event := protocol.PushEvent(data[0])

	m.dispatchMu.Lock()
	if last, seen := m.latestEvents[event]; seen && bytes.Equal(last, data) {
		m.dispatchMu.Unlock()
		return
	}
	m.latestEvents[event] = append([]byte(nil), data...)
	for attr := range event.RefreshAttributes() {
		m.queued[attr] = struct{}{}
	}
	m.dispatchMu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"model": m.ModelName(),
		"event": event.String(),
		"data":  data,
	}).Debug("Push event received")

	switch event {
	case protocol.EventChargerConnected, protocol.EventChargerDisconnected:
		// Charger transitions are reflected immediately; the queued refresh
		// fills in the exact percentage later.
		m.dataMu.Lock()
		var percent uint8
		if m.Data.Battery != nil {
			percent = m.Data.Battery.Percent
		}
		m.Data.Battery = &codec.BatteryState{
			Percent:        percent,
			OnChargingBase: event == protocol.EventChargerConnected,
		}
		m.dataMu.Unlock()
	case protocol.EventAuthInfoMissing:
		m.logger.Warn("Auth info missing")
	default:
		if !event.Known() {
			m.logger.WithField("event", byte(event)).Debug("Unknown push event")
		}
	}

	m.fireCallbacks()
}

// ClearPendingEvents resets duplicate suppression, typically at the start
// of a polling cycle so the first event of the cycle always dispatches.
func (m *Mug) ClearPendingEvents() {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	m.latestEvents = make(map[protocol.PushEvent][]byte)
}

// QueuedAttributes returns a copy of the attribute set currently awaiting
// refresh.
func (m *Mug) QueuedAttributes() protocol.Set {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	snapshot := make(protocol.Set, len(m.queued))
	for attr := range m.queued {
		snapshot[attr] = struct{}{}
	}
	return snapshot
}

// drainQueuedAttributes atomically takes and clears the queued set. Returns
// nil when nothing is queued.
func (m *Mug) drainQueuedAttributes() protocol.Set {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	if len(m.queued) == 0 {
		return nil
	}
	drained := m.queued
	m.queued = make(protocol.Set)
	return drained
}
