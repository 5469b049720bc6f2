package mug

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberble/mugctl/internal/protocol"
	"github.com/emberble/mugctl/internal/transport"
)

func TestEnsureConnectionSequence(t *testing.T) {
	m, ft := newTestMug("Ember Ceramic Mug")

	require.NoError(t, m.EnsureConnection(context.Background()))
	assert.Equal(t, StateConnected, m.State())
	assert.Equal(t, 1, ft.connects)

	ops := ft.link.Ops()
	require.NotEmpty(t, ops)
	assert.Equal(t, "pair", ops[0])
	assert.Equal(t, "subscribe:"+protocol.CharPushEvent.UUID(), ops[1])

	// The initial snapshot follows the subscription.
	wantReads := []string{
		"read:" + protocol.CharDSK.UUID(),
		"read:" + protocol.CharFirmware.UUID(),
		"read:" + protocol.CharMugID.UUID(),
		"read:" + protocol.CharUDSK.UUID(),
	}
	assert.Equal(t, wantReads, ops[2:])
	assert.NotNil(t, m.Data.Meta)
	assert.NotNil(t, m.Data.Firmware)
}

func TestEnsureConnectionNoopWhenConnected(t *testing.T) {
	m, ft := newTestMug("Ember Ceramic Mug")

	require.NoError(t, m.EnsureConnection(context.Background()))
	ft.link.resetOps()

	require.NoError(t, m.EnsureConnection(context.Background()))
	assert.Equal(t, 1, ft.connects)
	assert.Empty(t, ft.link.Ops())
}

func TestEnsureConnectionConnectFailure(t *testing.T) {
	m, ft := newTestMug("Ember Ceramic Mug")
	ft.connectErr = errors.New("no adapter")

	err := m.EnsureConnection(context.Background())
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "connect", terr.Op)
	assert.Equal(t, StateDisconnected, m.State())
}

func TestEnsureConnectionPairingUnsupported(t *testing.T) {
	m, ft := newTestMug("Ember Ceramic Mug")
	ft.link.pairErr = transport.ErrPairingUnsupported

	require.NoError(t, m.EnsureConnection(context.Background()))
	assert.Equal(t, StateConnected, m.State())

	// The subscription and initial snapshot still run.
	ops := ft.link.Ops()
	assert.Contains(t, ops, "subscribe:"+protocol.CharPushEvent.UUID())
	assert.Contains(t, ops, "read:"+protocol.CharMugID.UUID())
}

func TestEnsureConnectionPairingFailure(t *testing.T) {
	m, ft := newTestMug("Ember Ceramic Mug")
	ft.link.pairErr = errors.New("rejected")

	err := m.EnsureConnection(context.Background())
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "pair", terr.Op)
	assert.Equal(t, StateDisconnected, m.State())

	ops := ft.link.Ops()
	assert.Equal(t, []string{"pair", "close"}, ops)
	for _, op := range ops {
		assert.False(t, strings.HasPrefix(op, "read:"), "no reads after failed pairing")
	}
}

func TestDisconnectWithoutConnection(t *testing.T) {
	m, _ := newTestMug("Ember Ceramic Mug")

	assert.NoError(t, m.Disconnect(context.Background()))
	assert.Equal(t, StateDisconnected, m.State())
}

func TestDisconnect(t *testing.T) {
	m, ft := newTestMug("Ember Ceramic Mug")

	require.NoError(t, m.EnsureConnection(context.Background()))
	ft.link.resetOps()

	require.NoError(t, m.Disconnect(context.Background()))
	assert.Equal(t, StateDisconnected, m.State())
	assert.Equal(t, []string{
		"unsubscribe:" + protocol.CharPushEvent.UUID(),
		"close",
	}, ft.link.Ops())
}

func TestConnectionScope(t *testing.T) {
	m, ft := newTestMug("Ember Ceramic Mug")

	err := m.Connection(context.Background(), func(ctx context.Context) error {
		assert.Equal(t, StateConnected, m.State())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateDisconnected, m.State())

	// The disconnect also runs when fn fails, and fn's error wins.
	ft.link.resetOps()
	failure := errors.New("boom")
	err = m.Connection(context.Background(), func(ctx context.Context) error {
		return failure
	})
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, StateDisconnected, m.State())
	assert.Contains(t, ft.link.Ops(), "close")
}

func TestReadsSurviveConcurrentDisconnect(t *testing.T) {
	m, _ := newTestMug("Ember Ceramic Mug")
	ctx := context.Background()
	require.NoError(t, m.EnsureConnection(ctx))

	// A disconnect can clear the link between the connectivity check and the
	// characteristic operation; reads must fail with a transport error, never
	// dereference a missing link.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = m.Disconnect(ctx)
		}
	}()

	for i := 0; i < 100; i++ {
		if _, err := m.GetBattery(ctx); err != nil {
			var terr *TransportError
			require.ErrorAs(t, err, &terr)
		}
	}
	<-done

	require.NoError(t, m.Disconnect(ctx))
	assert.Equal(t, StateDisconnected, m.State())
}

func TestReconnectAfterDisconnect(t *testing.T) {
	m, ft := newTestMug("Ember Ceramic Mug")

	require.NoError(t, m.EnsureConnection(context.Background()))
	require.NoError(t, m.Disconnect(context.Background()))
	require.NoError(t, m.EnsureConnection(context.Background()))
	assert.Equal(t, 2, ft.connects)
	assert.Equal(t, StateConnected, m.State())
}
