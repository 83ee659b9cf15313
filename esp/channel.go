package esp

import (
	"fmt"
	"time"

	"i4.energy/across/espgw/at"
)

const (
	// cancelGuard is the quiet period before the escape sequence so the
	// module does not fold it into the aborted payload.
	cancelGuard = 20 * time.Millisecond
	// cancelTimeout bounds the wait for the cancellation acknowledgement.
	cancelTimeout = time.Second
)

// sendAndExpect writes a command line and races its success marker
// against the generic error and busy markers. A nil return means the
// success marker arrived first; every other outcome maps to a sentinel
// (ErrCommandFailed, ErrBusy, ErrTimeout), so pass/fail callers can
// treat any non-nil error uniformly while diagnostics stay available.
func (d *Device) sendAndExpect(cmd, marker string, timeout time.Duration) error {
	deadline, err := newDeadline(timeout)
	if err != nil {
		return err
	}
	return d.exchange(cmd, marker, deadline)
}

// exchange is sendAndExpect against an absolute deadline, used by the
// multi-step handshakes that spread one budget over several markers.
func (d *Device) exchange(cmd, marker string, deadline time.Time) error {
	if cmd == "" || marker == "" {
		return ErrEmptyCommand
	}
	if _, err := d.transport.Write([]byte(cmd + at.CRLF)); err != nil {
		return fmt.Errorf("write command %q: %w", cmd, err)
	}

	idx, err := d.scan(deadline, marker, at.Error, at.Busy)
	if err != nil {
		return err
	}
	switch idx {
	case 0:
		return nil
	case 1:
		return ErrCommandFailed
	default:
		return ErrBusy
	}
}

// CancelSend aborts a transmission that is stuck holding the module in
// raw payload mode. It emits a guard pause, writes the escape sequence
// and expects the cancellation acknowledgement within a short fixed
// deadline. If the acknowledgement does not arrive the transport is in
// an unknown framing position: the input is flushed and the device
// latches into an unrecoverable state.
func (d *Device) CancelSend() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return err
	}
	return d.cancelSend()
}

func (d *Device) cancelSend() error {
	if err := d.escapeTransmission(); err != nil {
		d.flushInput()
		d.fatal = true
		return fmt.Errorf("cancel transmission: %w", ErrUnrecoverable)
	}
	return nil
}

// escapeTransmission performs the raw escape handshake without touching
// device state. The restart path reuses it best-effort, since a module
// that is about to be reset cannot be made worse by a failed escape.
func (d *Device) escapeTransmission() error {
	time.Sleep(cancelGuard)
	if _, err := d.transport.Write([]byte(at.Escape)); err != nil {
		return fmt.Errorf("write escape: %w", err)
	}
	if _, err := d.scan(time.Now().Add(cancelTimeout), at.CancelAck); err != nil {
		return err
	}
	return nil
}

// Restart resets the module and waits for it to come back. One attempt
// is a reset command expecting its immediate acknowledgement, then the
// asynchronous ready notification; if the acknowledgement arrived but
// the notification did not, a liveness probe decides. Failed attempts
// escape any stuck transmission and retry until the overall deadline,
// after which the restart is reported as failed.
//
// A successful attempt returns immediately rather than polling out the
// remainder of the deadline.
func (d *Device) Restart(timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return err
	}
	deadline, err := newDeadline(timeout)
	if err != nil {
		return err
	}

	for time.Now().Before(deadline) {
		if err := d.resetOnce(deadline); err == nil {
			return nil
		}
		// The module may be holding a half-finished conversation.
		if err := d.escapeTransmission(); err != nil {
			d.flushInput()
		}
	}
	return ErrRestartFailed
}

func (d *Device) resetOnce(deadline time.Time) error {
	ackTimeout := d.config.ATTimeout
	if remaining := time.Until(deadline); remaining < ackTimeout {
		ackTimeout = remaining
	}
	if err := d.sendAndExpect(at.CmdReset, at.OK, ackTimeout); err != nil {
		return err
	}
	if _, err := d.scan(deadline, at.Ready); err != nil {
		// Partial success: the reset was acknowledged but the ready
		// notification never showed. Re-probe before declaring failure.
		if probeErr := d.sendAndExpect(at.CmdProbe, at.OK, d.config.ATTimeout); probeErr != nil {
			return err
		}
	}
	// Reset restores the firmware's command echo; turn it back off
	// before the channel is handed back to callers.
	return d.sendAndExpect(at.CmdEchoOff, at.OK, d.config.ATTimeout)
}
