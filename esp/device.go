package esp

import (
	"context"
	"fmt"
	"sync"

	"i4.energy/across/espgw/at"
)

// Device drives an ESP-style WiFi/MQTT companion module over a byte
// transport using its textual AT command protocol.
//
// Every operation is a synchronous exchange: the command line is
// written, then the reply stream is interpreted until a marker matches
// or the operation's deadline elapses. There is no background reader.
// The device owns its transport exclusively for its entire lifetime; a
// mutex makes the one-exchange-at-a-time rule hold for concurrent
// callers as well.
type Device struct {
	// mu serializes exchanges on the shared transport
	mu sync.Mutex
	// transport is the byte-level connection to the module
	transport Transport
	// config contains the device configuration settings
	config Config
	// closed indicates the device has been shut down
	closed bool
	// fatal latches after a failed transmission cancellation, when the
	// transport framing position is no longer known
	fatal bool
}

// New creates a Device with the given configuration. It establishes the
// transport through the configured Dialer and, when Config.Probe is
// set, verifies module liveness and selects station mode before
// returning.
func New(ctx context.Context, config Config) (*Device, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	d := &Device{
		transport: transport,
		config:    config,
	}

	if config.Probe {
		if err := d.init(); err != nil {
			transport.Close()
			return nil, fmt.Errorf("initialize module: %w", err)
		}
	}

	return d, nil
}

// init performs the initial setup sequence: a liveness probe, command
// echo off, then station mode selection. The firmware echoes command
// lines by default; left on, the echo would be scanned as part of every
// reply and a command argument containing a marker substring would be
// misread as the module's answer.
func (d *Device) init() error {
	if err := d.sendAndExpect(at.CmdProbe, at.OK, d.config.ATTimeout); err != nil {
		return fmt.Errorf("module not responding: %w", err)
	}
	if err := d.sendAndExpect(at.CmdEchoOff, at.OK, d.config.ATTimeout); err != nil {
		return fmt.Errorf("could not disable command echo: %w", err)
	}
	if err := d.sendAndExpect(at.CmdStationMode, at.OK, d.config.ATTimeout); err != nil {
		return fmt.Errorf("could not select station mode: %w", err)
	}
	return nil
}

// ready reports whether the device can run an exchange.
func (d *Device) ready() error {
	if d.closed {
		return ErrAlreadyClosed
	}
	if d.fatal {
		return ErrUnrecoverable
	}
	if d.transport == nil {
		return ErrNotInitialized
	}
	return nil
}

// Probe checks module liveness with a bare probe command.
func (d *Device) Probe() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return err
	}
	return d.sendAndExpect(at.CmdProbe, at.OK, d.config.ATTimeout)
}

// Close shuts down the device and releases the transport. After Close
// the device cannot be reused.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrAlreadyClosed
	}
	d.closed = true

	if d.transport != nil {
		return d.transport.Close()
	}
	return nil
}
