// Package scanner discovers Ember mugs over BLE advertisements.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cornelk/hashmap"
	blelib "github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/emberble/mugctl/internal/protocol"
	"github.com/emberble/mugctl/internal/transport"
	"github.com/emberble/mugctl/internal/transport/goble"
)

// Options configures discovery behavior.
type Options struct {
	// Timeout bounds the whole scan.
	Timeout time.Duration
	// Address, when set, restricts matches to one device.
	Address string
}

// DefaultOptions returns the default discovery options.
func DefaultOptions() *Options {
	return &Options{Timeout: 10 * time.Second}
}

// Scanner performs BLE discovery of mugs.
type Scanner struct {
	devices *hashmap.Map[string, transport.DeviceHandle]
	logger  *logrus.Logger
}

// New creates a Scanner. A nil logger falls back to a default logrus logger.
func New(logger *logrus.Logger) *Scanner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scanner{logger: logger}
}

// emberServiceUUID is parsed once for advertisement filtering.
var emberServiceUUID = blelib.MustParse(protocol.ServiceUUID)

// matchesMug reports whether an advertisement belongs to a mug, optionally
// restricted to a specific address.
func matchesMug(name, address string, services []blelib.UUID, wantAddress string) bool {
	if wantAddress != "" && !strings.EqualFold(address, wantAddress) {
		return false
	}
	for _, svc := range services {
		if svc.Equal(emberServiceUUID) {
			return true
		}
	}
	// Some firmware omits the service UUID from advertisements; fall back to
	// the name prefix.
	return strings.HasPrefix(strings.ToLower(name), "ember")
}

// Discover scans until the timeout and returns every mug seen. Intended for
// devices in pairing mode, which broadcast continuously.
func (s *Scanner) Discover(ctx context.Context, opts *Options) ([]transport.DeviceHandle, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	s.devices = hashmap.New[string, transport.DeviceHandle]()

	dev, err := goble.DeviceFactory()
	if err != nil {
		return nil, fmt.Errorf("failed to create BLE device: %w", err)
	}
	blelib.SetDefaultDevice(dev)

	scanCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	s.logger.WithField("timeout", opts.Timeout).Info("Scanning for mugs...")
	err = blelib.Scan(scanCtx, false, func(adv blelib.Advertisement) {
		address := adv.Addr().String()
		if !matchesMug(adv.LocalName(), address, adv.Services(), opts.Address) {
			return
		}
		handle := transport.DeviceHandle{Address: address, Name: adv.LocalName()}
		if _, loaded := s.devices.GetOrInsert(address, handle); !loaded {
			s.logger.WithFields(logrus.Fields{
				"address": address,
				"name":    adv.LocalName(),
				"rssi":    adv.RSSI(),
			}).Info("Found mug")
		}
	}, nil)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	var found []transport.DeviceHandle
	s.devices.Range(func(_ string, handle transport.DeviceHandle) bool {
		found = append(found, handle)
		return true
	})
	return found, nil
}

// Find returns the first matching mug, or the mug with the requested
// address. It stops scanning as soon as a match is seen.
func (s *Scanner) Find(ctx context.Context, opts *Options) (transport.DeviceHandle, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	dev, err := goble.DeviceFactory()
	if err != nil {
		return transport.DeviceHandle{}, fmt.Errorf("failed to create BLE device: %w", err)
	}
	blelib.SetDefaultDevice(dev)

	scanCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	results := make(chan transport.DeviceHandle, 1)
	err = blelib.Scan(scanCtx, false, func(adv blelib.Advertisement) {
		address := adv.Addr().String()
		if !matchesMug(adv.LocalName(), address, adv.Services(), opts.Address) {
			return
		}
		select {
		case results <- transport.DeviceHandle{Address: address, Name: adv.LocalName()}:
			cancel()
		default:
		}
	}, nil)

	select {
	case found := <-results:
		s.logger.WithField("device", found).Info("Found mug")
		return found, nil
	default:
	}
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return transport.DeviceHandle{}, fmt.Errorf("scan failed: %w", err)
	}
	return transport.DeviceHandle{}, errors.New("no mug was found")
}
