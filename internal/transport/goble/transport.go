// Package goble implements transport.Transport on top of the go-ble stack.
package goble

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/emberble/mugctl/internal/transport"
)

// DefaultConnectTimeout bounds the dial plus profile discovery phase.
const DefaultConnectTimeout = 20 * time.Second

// normalizeUUID converts a UUID string to the go-ble internal format
// (lowercase, no dashes). Handles both dashed and already normalized forms.
func normalizeUUID(uuid string) string {
	return strings.ToLower(strings.ReplaceAll(uuid, "-", ""))
}

// Transport dials devices through the platform go-ble backend.
type Transport struct {
	logger  *logrus.Logger
	timeout time.Duration

	mu        sync.Mutex
	bleDevice ble.Device
}

// New creates a Transport. A nil logger falls back to a default logrus
// logger, a zero timeout falls back to DefaultConnectTimeout.
func New(logger *logrus.Logger, timeout time.Duration) *Transport {
	if logger == nil {
		logger = logrus.New()
	}
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	return &Transport{logger: logger, timeout: timeout}
}

// device lazily creates the platform ble.Device and registers it as the
// go-ble default device.
func (t *Transport) device() (ble.Device, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bleDevice != nil {
		return t.bleDevice, nil
	}
	dev, err := DeviceFactory()
	if err != nil {
		return nil, fmt.Errorf("failed to create BLE device: %w", err)
	}
	ble.SetDefaultDevice(dev)
	t.bleDevice = dev
	return dev, nil
}

// Connect dials the device and discovers its GATT profile.
func (t *Transport) Connect(ctx context.Context, device transport.DeviceHandle, onDisconnect func()) (transport.Link, error) {
	if strings.TrimSpace(device.Address) == "" {
		return nil, fmt.Errorf("device address is not set")
	}
	if _, err := t.device(); err != nil {
		return nil, err
	}

	t.logger.WithField("address", device.Address).Info("Connecting to BLE device...")

	connCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	client, err := ble.Dial(connCtx, ble.NewAddr(device.Address))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to device %q: %w", device.Address, err)
	}

	profile, err := client.DiscoverProfile(true)
	if err != nil {
		client.CancelConnection()
		return nil, fmt.Errorf("failed to discover profile: %w", err)
	}

	l := &link{
		client: client,
		logger: t.logger,
		chars:  make(map[string]*ble.Characteristic),
	}
	for _, svc := range profile.Services {
		for _, char := range svc.Characteristics {
			l.chars[normalizeUUID(char.UUID.String())] = char
		}
	}

	go func() {
		<-client.Disconnected()
		l.markDown()
		if onDisconnect != nil {
			onDisconnect()
		}
	}()

	t.logger.WithFields(logrus.Fields{
		"address":         device.Address,
		"characteristics": len(l.chars),
	}).Info("BLE device connected")
	return l, nil
}

// link wraps a live ble.Client.
type link struct {
	client ble.Client
	logger *logrus.Logger

	mu    sync.Mutex
	chars map[string]*ble.Characteristic
	down  bool
}

func (l *link) markDown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.down = true
}

func (l *link) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.down
}

// Pair reports unsupported: go-ble exposes no pairing primitive; on BlueZ
// the daemon pairs on demand when a characteristic requires it.
func (l *link) Pair(_ context.Context) error {
	return transport.ErrPairingUnsupported
}

func (l *link) characteristic(uuid string) (*ble.Characteristic, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	char, ok := l.chars[normalizeUUID(uuid)]
	if !ok {
		return nil, fmt.Errorf("characteristic %q not found", uuid)
	}
	return char, nil
}

func (l *link) Read(_ context.Context, uuid string) ([]byte, error) {
	char, err := l.characteristic(uuid)
	if err != nil {
		return nil, err
	}
	data, err := l.client.ReadCharacteristic(char)
	if err != nil {
		return nil, fmt.Errorf("failed to read characteristic %q: %w", uuid, err)
	}
	return data, nil
}

func (l *link) Write(_ context.Context, uuid string, data []byte) error {
	char, err := l.characteristic(uuid)
	if err != nil {
		return err
	}
	if err := l.client.WriteCharacteristic(char, data, false); err != nil {
		return fmt.Errorf("failed to write characteristic %q: %w", uuid, err)
	}
	return nil
}

func (l *link) Subscribe(_ context.Context, uuid string, fn func(data []byte)) error {
	char, err := l.characteristic(uuid)
	if err != nil {
		return err
	}
	if err := l.client.Subscribe(char, false, func(data []byte) {
		fn(data)
	}); err != nil {
		return fmt.Errorf("failed to subscribe to characteristic %q: %w", uuid, err)
	}
	l.logger.WithField("char_uuid", uuid).Debug("Subscribed to characteristic notifications")
	return nil
}

func (l *link) Unsubscribe(_ context.Context, uuid string) error {
	char, err := l.characteristic(uuid)
	if err != nil {
		return err
	}
	if err := l.client.Unsubscribe(char, false); err != nil {
		return fmt.Errorf("failed to unsubscribe from characteristic %q: %w", uuid, err)
	}
	return nil
}

func (l *link) Close() error {
	l.markDown()
	if err := l.client.CancelConnection(); err != nil {
		return fmt.Errorf("failed to cancel connection: %w", err)
	}
	return nil
}
