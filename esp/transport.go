package esp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// Transport represents an established, bidirectional byte stream to the
// WiFi/MQTT companion module.
//
// A Transport is assumed to be already connected and ready for use.
// Read must not block indefinitely: it returns whatever bytes are
// available, or (0, nil) when nothing arrived within a short internal
// window. The driver polls, it never relies on blocking reads. Typical
// implementations include serial ports with a read timeout, TCP
// connections to emulators, or in-memory fakes used for testing.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a Transport to the module.
//
// Dialer abstracts how the connection is created (serial port, TCP
// emulator, test double) and is used during device construction only.
// Once a Transport is obtained, the Dialer is no longer needed.
type Dialer interface {
	// Dial creates and returns a connected Transport. It may perform
	// blocking operations and should respect cancellation and deadlines
	// provided by the context.
	Dial(ctx context.Context) (Transport, error)
}

// serialReadTimeout bounds a single Port.Read so the driver's polling
// loops observe the non-blocking read contract.
const serialReadTimeout = 20 * time.Millisecond

// SerialDialer opens the module over a serial port using go.bug.st/serial.
type SerialDialer struct {
	// PortName is the serial device path, e.g. "/dev/ttyUSB0".
	PortName string
	// BaudRate is used when Mode is nil. Zero means 115200.
	BaudRate int
	// Mode optionally overrides the full port configuration.
	Mode *serial.Mode
}

// Dial opens and configures the serial port.
func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("esp: context is nil")
	}
	if d.PortName == "" {
		return nil, errors.New("esp: serial port name is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		baud := d.BaudRate
		if baud == 0 {
			baud = 115200
		}
		mode = &serial.Mode{
			BaudRate: baud,
			Parity:   serial.NoParity,
			DataBits: 8,
			StopBits: serial.OneStopBit,
		}
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %q: %w", d.PortName, err)
	}
	return configurePort(port, d.PortName)
}

// configurePort arms the short read timeout that gives the port the
// non-blocking Read contract: (0, nil) when no byte arrives within the
// window, so the driver's poll loops never block indefinitely.
func configurePort(port serial.Port, name string) (Transport, error) {
	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %q: %w", name, err)
	}
	return port, nil
}
