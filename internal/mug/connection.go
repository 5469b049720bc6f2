package mug

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/emberble/mugctl/internal/protocol"
	"github.com/emberble/mugctl/internal/transport"
)

// ConnectionState tracks the link lifecycle. Transitions happen only inside
// this file; everything else observes the state through operations that
// implicitly ensure it.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StatePaired
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StatePaired:
		return "paired"
	case StateConnected:
		return "connected"
	}
	return "unknown"
}

// State returns the current connection state.
func (m *Mug) State() ConnectionState {
	m.connMu.Lock()
	defer m.connMu.Unlock()
	return m.state
}

// currentLink returns the live link, if any.
func (m *Mug) currentLink() transport.Link {
	m.connMu.Lock()
	defer m.connMu.Unlock()
	return m.link
}

func (m *Mug) isConnected() bool {
	link := m.currentLink()
	return link != nil && link.Connected()
}

// EnsureConnection establishes the link if it is not already up: connect,
// attempt pairing, subscribe to push events, then fetch the initial
// snapshot. Pairing reported as unsupported is downgraded to a warning; any
// other pairing failure aborts the attempt at Disconnected.
func (m *Mug) EnsureConnection(ctx context.Context) error {
	if m.isConnected() {
		return nil
	}

	m.connMu.Lock()
	// Recheck after acquiring the lock
	if m.link != nil && m.link.Connected() {
		m.connMu.Unlock()
		return nil
	}

	m.state = StateConnecting
	m.logger.WithField("device", m.device).Debug("Establishing a new connection")

	link, err := m.transport.Connect(ctx, m.device, m.handleDisconnect)
	if err != nil {
		m.state = StateDisconnected
		m.connMu.Unlock()
		m.logger.WithFields(logrus.Fields{
			"device": m.device,
			"error":  err,
		}).Error("Failed to connect to the mug")
		return &TransportError{Op: "connect", Err: err}
	}
	m.expectedDisconnect.Store(false)

	if err := link.Pair(ctx); err != nil {
		if errors.Is(err, transport.ErrPairingUnsupported) {
			m.logger.Warn("Pairing not implemented. " +
				"If your mug is still in pairing mode (blinking blue) tap the button on the bottom to exit.")
		} else {
			_ = link.Close()
			m.link = nil
			m.state = StateDisconnected
			m.connMu.Unlock()
			return &TransportError{Op: "pair", Err: err}
		}
	} else {
		m.state = StatePaired
	}

	if err := link.Subscribe(ctx, protocol.CharPushEvent.UUID(), m.handleNotification); err != nil {
		// The driver still works without notifications, just without
		// incremental updates.
		m.logger.WithError(err).Warn("Failed to subscribe to push events")
	} else {
		m.logger.Info("Subscribed to push events")
	}

	m.link = link
	m.state = StateConnected
	m.connMu.Unlock()

	// Initial snapshot runs outside the lock so its reads take the
	// already-connected fast path.
	if _, err := m.UpdateInitial(ctx); err != nil {
		return err
	}
	return nil
}

// Disconnect severs the link. Always leaves the state Disconnected with the
// link handle cleared, whether or not a link existed.
func (m *Mug) Disconnect(ctx context.Context) error {
	m.connMu.Lock()
	defer m.connMu.Unlock()

	m.expectedDisconnect.Store(true)
	var err error
	if m.link != nil {
		if uerr := m.link.Unsubscribe(ctx, protocol.CharPushEvent.UUID()); uerr != nil {
			m.logger.WithError(uerr).Debug("Failed to unsubscribe from push events")
		}
		err = m.link.Close()
	}
	m.link = nil
	m.state = StateDisconnected
	m.logger.Debug("Disconnected")
	return err
}

// handleDisconnect is invoked by the transport when the link drops. An
// unsolicited drop is only logged; reconnection is the caller's
// responsibility via the next EnsureConnection.
func (m *Mug) handleDisconnect() {
	if m.expectedDisconnect.Load() {
		m.logger.Debug("Disconnect callback called")
	} else {
		m.logger.Warn("Unexpectedly disconnected")
	}
}

// Connection establishes the link, runs fn, and guarantees a disconnect on
// every exit path.
func (m *Mug) Connection(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err = m.EnsureConnection(ctx); err != nil {
		return err
	}
	defer func() {
		derr := m.Disconnect(context.WithoutCancel(ctx))
		if err == nil {
			err = derr
		}
	}()
	return fn(ctx)
}

// read ensures the connection, reads the characteristic and returns the raw
// payload.
func (m *Mug) read(ctx context.Context, char protocol.Characteristic) ([]byte, error) {
	if err := m.EnsureConnection(ctx); err != nil {
		return nil, err
	}
	link := m.currentLink()
	if link == nil {
		// A concurrent Disconnect can clear the link right after the check.
		return nil, &TransportError{Op: "read", Characteristic: char, Err: errors.New("connection lost")}
	}
	data, err := link.Read(ctx, char.UUID())
	if err != nil {
		m.logger.WithFields(logrus.Fields{
			"characteristic": char.String(),
			"error":          err,
		}).Error("Failed to read attribute")
		return nil, &TransportError{Op: "read", Characteristic: char, Err: err}
	}
	m.logger.WithFields(logrus.Fields{
		"characteristic": char.String(),
		"value":          data,
	}).Debug("Read attribute")
	return data, nil
}

// write ensures the connection and writes the payload to the
// characteristic.
func (m *Mug) write(ctx context.Context, char protocol.Characteristic, data []byte) error {
	if err := m.EnsureConnection(ctx); err != nil {
		return err
	}
	link := m.currentLink()
	if link == nil {
		return &TransportError{Op: "write", Characteristic: char, Err: errors.New("connection lost")}
	}
	if err := link.Write(ctx, char.UUID(), data); err != nil {
		m.logger.WithFields(logrus.Fields{
			"characteristic": char.String(),
			"value":          data,
			"error":          err,
		}).Error("Failed to write attribute")
		return &TransportError{Op: "write", Characteristic: char, Err: err}
	}
	m.logger.WithFields(logrus.Fields{
		"characteristic": char.String(),
		"value":          data,
	}).Debug("Wrote attribute")
	return nil
}
