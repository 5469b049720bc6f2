package mug

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/emberble/mugctl/internal/protocol"
	"github.com/emberble/mugctl/internal/transport"
)

// fakeLink records every operation in order so tests can assert on the
// connection sequence.
type fakeLink struct {
	mu        sync.Mutex
	connected bool
	pairErr   error

	ops     []string
	reads   map[string][]byte
	readErr map[string]error
	written map[string][][]byte
	notify  map[string]func([]byte)
}

func (l *fakeLink) record(op string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = append(l.ops, op)
}

func (l *fakeLink) Ops() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ops...)
}

func (l *fakeLink) resetOps() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = nil
}

func (l *fakeLink) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

func (l *fakeLink) Pair(ctx context.Context) error {
	l.record("pair")
	return l.pairErr
}

func (l *fakeLink) Read(ctx context.Context, uuid string) ([]byte, error) {
	l.record("read:" + uuid)
	if err := l.readErr[uuid]; err != nil {
		return nil, err
	}
	data, ok := l.reads[uuid]
	if !ok {
		return nil, fmt.Errorf("no payload configured for %s", uuid)
	}
	return data, nil
}

func (l *fakeLink) Write(ctx context.Context, uuid string, data []byte) error {
	l.record("write:" + uuid)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.written[uuid] = append(l.written[uuid], append([]byte(nil), data...))
	return nil
}

func (l *fakeLink) Subscribe(ctx context.Context, uuid string, fn func([]byte)) error {
	l.record("subscribe:" + uuid)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notify[uuid] = fn
	return nil
}

func (l *fakeLink) Unsubscribe(ctx context.Context, uuid string) error {
	l.record("unsubscribe:" + uuid)
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.notify, uuid)
	return nil
}

func (l *fakeLink) Close() error {
	l.record("close")
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connected = false
	return nil
}

type fakeTransport struct {
	mu         sync.Mutex
	link       *fakeLink
	connectErr error
	connects   int
}

func (t *fakeTransport) Connect(ctx context.Context, device transport.DeviceHandle, onDisconnect func()) (transport.Link, error) {
	t.mu.Lock()
	t.connects++
	err := t.connectErr
	t.mu.Unlock()
	if err != nil {
		return nil, err
	}
	t.link.mu.Lock()
	t.link.connected = true
	t.link.mu.Unlock()
	return t.link, nil
}

// newFakeTransport builds a transport whose link answers every attribute
// with a plausible payload.
func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		link: &fakeLink{
			reads: map[string][]byte{
				protocol.CharName.UUID():                []byte("EMBER"),
				protocol.CharMugID.UUID():               []byte("ABCDEF-SERIAL42"),
				protocol.CharUDSK.UUID():                []byte("udsk"),
				protocol.CharDSK.UUID():                 []byte("dsk1"),
				protocol.CharFirmware.UUID():            {0x2b, 0x01, 0x0c, 0x00, 0x05, 0x00},
				protocol.CharLED.UUID():                 {0xf4, 0x00, 0xa1, 0xff},
				protocol.CharTargetTemp.UUID():          {0xb8, 0x15}, // 55.60°C
				protocol.CharCurrentTemp.UUID():         {0xcd, 0x15}, // 55.81°C
				protocol.CharTemperatureUnit.UUID():     {0},
				protocol.CharBattery.UUID():             {53, 1},
				protocol.CharLiquidLevel.UUID():         {10},
				protocol.CharLiquidState.UUID():         {6},
				protocol.CharVolume.UUID():              {1},
				protocol.CharControlRegisterData.UUID(): {0x47, 0x01},
				protocol.CharDateTimeZone.UUID():        {0x64, 0x78, 0x5c, 0x17},
			},
			readErr: map[string]error{},
			written: map[string][][]byte{},
			notify:  map[string]func([]byte){},
		},
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestMug(name string, opts ...Option) (*Mug, *fakeTransport) {
	ft := newFakeTransport()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	device := transport.DeviceHandle{Address: "aa:bb:cc:dd:ee:ff", Name: name}
	return New(ft, device, opts...), ft
}
