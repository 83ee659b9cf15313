package esp

import (
	"fmt"
	"time"

	"i4.energy/across/espgw/at"
)

// notFound is the scan result when no target matched.
const notFound = -1

// newDeadline converts a caller-supplied timeout into an absolute
// monotonic deadline. Non-positive timeouts are a precondition
// violation, not an instant "not found".
func newDeadline(timeout time.Duration) (time.Time, error) {
	if timeout <= 0 {
		return time.Time{}, ErrInvalidTimeout
	}
	return time.Now().Add(timeout), nil
}

// readByte returns the next byte from the transport, polling with short
// sleeps while nothing is available. It returns ErrTimeout once the
// deadline elapses without a byte.
func (d *Device) readByte(deadline time.Time) (byte, error) {
	var buf [1]byte
	for {
		n, err := d.transport.Read(buf[:])
		if err != nil {
			return 0, fmt.Errorf("transport read: %w", err)
		}
		if n > 0 {
			return buf[0], nil
		}
		if !time.Now().Before(deadline) {
			return 0, ErrTimeout
		}
		time.Sleep(d.config.PollInterval)
	}
}

// scan consumes the stream one byte at a time and returns the index of
// the first target fully matched, racing all targets against each other
// and against the deadline. Match state lives entirely within this
// invocation.
func (d *Device) scan(deadline time.Time, targets ...string) (int, error) {
	m, err := at.NewMatcher(targets...)
	if err != nil {
		return notFound, err
	}
	for {
		c, err := d.readByte(deadline)
		if err != nil {
			return notFound, err
		}
		if idx, ok := m.Feed(c); ok {
			return idx, nil
		}
		// A stream that keeps delivering non-matching bytes must still
		// observe the deadline.
		if !time.Now().Before(deadline) {
			return notFound, ErrTimeout
		}
	}
}

// flushInput drains whatever bytes are currently buffered on the
// transport. Used when the conversation framing is no longer trusted.
func (d *Device) flushInput() {
	buf := make([]byte, 64)
	for i := 0; i < 64; i++ {
		n, err := d.transport.Read(buf)
		if err != nil || n == 0 {
			return
		}
	}
}
