// Package transport defines the narrow capability interface the driver
// consumes from the platform BLE stack. Connect, read, write and subscribe
// are treated as atomic async primitives; host-stack framing is out of
// scope.
package transport

import (
	"context"
	"errors"
	"fmt"
)

// ErrPairingUnsupported is returned by Link.Pair when the platform backend
// or the device does not implement pairing. Callers downgrade this to a
// warning and continue unpaired.
var ErrPairingUnsupported = errors.New("pairing not supported")

// DeviceHandle is the opaque identity of a physical device. Immutable once
// discovered; the driver can be rebound to a new handle explicitly.
type DeviceHandle struct {
	Address string
	Name    string
}

func (d DeviceHandle) String() string {
	if d.Name == "" {
		return d.Address
	}
	return fmt.Sprintf("%s (%s)", d.Name, d.Address)
}

// Transport establishes links to devices. Retry and backoff for the initial
// connection are the transport's responsibility.
type Transport interface {
	// Connect establishes a link to the device. onDisconnect, when non-nil,
	// is invoked once if the link drops for any reason, including an
	// explicit Close.
	Connect(ctx context.Context, device DeviceHandle, onDisconnect func()) (Link, error)
}

// Link is an established connection to a device. All operations address
// characteristics by their full dashed-lowercase UUID.
type Link interface {
	// Connected reports whether the underlying link is still up.
	Connected() bool

	// Pair attempts to pair with the device. Returns ErrPairingUnsupported
	// (possibly wrapped) when the backend has no pairing support.
	Pair(ctx context.Context) error

	Read(ctx context.Context, characteristicUUID string) ([]byte, error)
	Write(ctx context.Context, characteristicUUID string, data []byte) error

	// Subscribe registers fn for notifications on the characteristic. fn is
	// invoked from the transport's callback context and must not block.
	Subscribe(ctx context.Context, characteristicUUID string, fn func(data []byte)) error
	Unsubscribe(ctx context.Context, characteristicUUID string) error

	// Close severs the link. Safe to call on an already dropped link.
	Close() error
}
