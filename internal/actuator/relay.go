// Package actuator drives the turnstile/door relay after an access is granted.
package actuator

import (
	"fmt"
	"io"
	"sync"
	"time"

	"gym_backend/internal/config"
	"gym_backend/pkg/utils"

	"go.bug.st/serial"
)

// Relay commands understood by the controller board.
const (
	CommandOpen  = "O"
	CommandClose = "C"
)

// Actuator opens the door. Open must not block the caller.
type Actuator interface {
	Open()
	Close() error
}

// PortOpener opens a serial device for writing.
type PortOpener func(name string, baud int) (io.WriteCloser, error)

// OpenSerialPort is the PortOpener backed by go.bug.st/serial.
func OpenSerialPort(name string, baud int) (io.WriteCloser, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", name, err)
	}
	return port, nil
}

// SerialRelay pulses a relay over a serial line: "O", wait, "C".
type SerialRelay struct {
	port  string
	baud  int
	pulse time.Duration
	open  PortOpener
	sleep func(time.Duration)

	mu sync.Mutex // one pulse on the line at a time
	wg sync.WaitGroup
}

// NewSerialRelay creates a relay on port. A nil opener uses OpenSerialPort.
func NewSerialRelay(port string, baud int, pulse time.Duration, opener PortOpener) *SerialRelay {
	if opener == nil {
		opener = OpenSerialPort
	}
	return &SerialRelay{port: port, baud: baud, pulse: pulse, open: opener, sleep: time.Sleep}
}

// Open pulses the relay in the background. Failures are logged.
func (r *SerialRelay) Open() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.Pulse(); err != nil {
			utils.LogError(err, "Door relay pulse failed", map[string]interface{}{"port": r.port})
		}
	}()
}

// Pulse opens the door, holds it for the pulse duration and closes it.
func (r *SerialRelay) Pulse() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, err := r.open(r.port, r.baud)
	if err != nil {
		return err
	}
	defer w.Close()

	if _, err := io.WriteString(w, CommandOpen); err != nil {
		return fmt.Errorf("writing open command: %w", err)
	}
	utils.LogDebug("door relay opened", map[string]interface{}{"port": r.port})
	r.sleep(r.pulse)
	if _, err := io.WriteString(w, CommandClose); err != nil {
		return fmt.Errorf("writing close command: %w", err)
	}
	utils.LogDebug("door relay closed", map[string]interface{}{"port": r.port})
	return nil
}

// Close waits for in-flight pulses so the door is never left open on shutdown.
func (r *SerialRelay) Close() error {
	r.wg.Wait()
	return nil
}

// LogRelay stands in when no serial port is configured.
type LogRelay struct{}

// Open only logs.
func (LogRelay) Open() {
	utils.LogInfo("door relay disabled, open skipped")
}

// Close is a no-op.
func (LogRelay) Close() error { return nil }

// New picks the relay implementation from config.
func New(cfg config.RelayConfig) Actuator {
	if cfg.Port == "" {
		return LogRelay{}
	}
	return NewSerialRelay(cfg.Port, cfg.BaudRate, cfg.Pulse, nil)
}
