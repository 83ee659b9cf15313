package esp

import (
	"errors"
	"time"
)

// Field extraction primitives. These pull typed fields out of the live
// byte stream after a reply prefix has already been matched. They are
// built directly on readByte, not on the multi-target scanner, and each
// is bounded by the caller's deadline. None of them push bytes back:
// per the protocol's convention every field is delimiter-terminated and
// the terminator is dropped.

// expectByte reads exactly one byte and checks it against want. It
// consumes zero bytes on timeout and exactly one otherwise.
func (d *Device) expectByte(deadline time.Time, want byte) error {
	c, err := d.readByte(deadline)
	if err != nil {
		return err
	}
	if c != want {
		return ErrUnexpectedByte
	}
	return nil
}

// readInt accumulates an optional leading '-' followed by decimal
// digits. It stops at the first non-digit byte, which is dropped, or at
// the deadline. ErrNoValue is returned when nothing, or only a minus
// sign, was accumulated. A transport failure is not a terminator: it is
// propagated regardless of what was accumulated.
func (d *Device) readInt(deadline time.Time) (int, error) {
	var (
		neg    bool
		value  int
		digits int
		first  = true
	)
	for {
		c, err := d.readByte(deadline)
		if err != nil {
			if !errors.Is(err, ErrTimeout) {
				return 0, err
			}
			break
		}
		if first && c == '-' {
			neg = true
			first = false
			continue
		}
		first = false
		if c < '0' || c > '9' {
			break
		}
		value = value*10 + int(c-'0')
		digits++
	}
	if digits == 0 {
		return 0, ErrNoValue
	}
	if neg {
		value = -value
	}
	return value, nil
}

// readUntil reads raw bytes until delim is observed and returns them
// with the delimiter dropped.
func (d *Device) readUntil(deadline time.Time, delim byte) ([]byte, error) {
	var out []byte
	for {
		c, err := d.readByte(deadline)
		if err != nil {
			return nil, err
		}
		if c == delim {
			return out, nil
		}
		out = append(out, c)
	}
}

// readFull fills buf from the stream, reading whatever the transport
// makes available on each poll. A short read at the deadline fails the
// whole operation.
func (d *Device) readFull(deadline time.Time, buf []byte) error {
	n := 0
	for n < len(buf) {
		k, err := d.transport.Read(buf[n:])
		if err != nil {
			return err
		}
		if k == 0 {
			if !time.Now().Before(deadline) {
				return ErrTimeout
			}
			time.Sleep(d.config.PollInterval)
			continue
		}
		n += k
	}
	return nil
}

// quotedAfter matches prefix on the stream, then reads the quoted
// string that follows it. Used by the structured query replies, which
// all carry their payload as `prefix"value"`.
func (d *Device) quotedAfter(deadline time.Time, prefix string) (string, error) {
	if _, err := d.scan(deadline, prefix); err != nil {
		return "", err
	}
	if err := d.expectByte(deadline, '"'); err != nil {
		return "", err
	}
	value, err := d.readUntil(deadline, '"')
	if err != nil {
		return "", err
	}
	return string(value), nil
}
