package actuator

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"gym_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePort struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Write(b)
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.String()
}

func TestSerialRelay_PulseWritesOpenThenClose(t *testing.T) {
	port := &fakePort{}
	var opened string
	var held time.Duration
	relay := NewSerialRelay("/dev/ttyUSB0", 9600, 3*time.Second, func(name string, baud int) (io.WriteCloser, error) {
		opened = name
		assert.Equal(t, 9600, baud)
		return port, nil
	})
	relay.sleep = func(d time.Duration) {
		held = d
		assert.Equal(t, CommandOpen, port.written())
	}

	require.NoError(t, relay.Pulse())
	assert.Equal(t, "/dev/ttyUSB0", opened)
	assert.Equal(t, 3*time.Second, held)
	assert.Equal(t, "OC", port.written())
	assert.True(t, port.closed)
}

func TestSerialRelay_OpenRunsInBackground(t *testing.T) {
	port := &fakePort{}
	relay := NewSerialRelay("COM3", 9600, time.Second, func(string, int) (io.WriteCloser, error) { return port, nil })
	relay.sleep = func(time.Duration) {}

	relay.Open()
	require.NoError(t, relay.Close())
	assert.Equal(t, "OC", port.written())
}

func TestSerialRelay_OpenError(t *testing.T) {
	relay := NewSerialRelay("COM9", 9600, time.Second, func(string, int) (io.WriteCloser, error) {
		return nil, errors.New("no such device")
	})
	assert.Error(t, relay.Pulse())

	// A failing pulse in the background is only logged.
	relay.Open()
	assert.NoError(t, relay.Close())
}

func TestNew_WithoutPortIsLogRelay(t *testing.T) {
	door := New(config.RelayConfig{})
	_, ok := door.(LogRelay)
	assert.True(t, ok)
	door.Open()
	assert.NoError(t, door.Close())

	door = New(config.RelayConfig{Port: "/dev/ttyACM0", BaudRate: 9600, Pulse: time.Second})
	_, ok = door.(*SerialRelay)
	assert.True(t, ok)
}
