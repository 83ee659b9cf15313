package esp

import (
	"errors"
	"testing"
	"time"

	"i4.energy/across/espgw/at"
)

func TestExchangePreconditions(t *testing.T) {
	t.Run("Empty command", func(t *testing.T) {
		d, tt := newTestDevice()

		err := d.exchange("", at.OK, time.Now().Add(50*time.Millisecond))
		if !errors.Is(err, ErrEmptyCommand) {
			t.Errorf("expected ErrEmptyCommand, got: %v", err)
		}
		if n := len(tt.Written()); n != 0 {
			t.Errorf("nothing should reach the wire, wrote %d bytes", n)
		}
	})

	t.Run("Empty marker", func(t *testing.T) {
		d, tt := newTestDevice()

		err := d.sendAndExpect(at.CmdProbe, "", 50*time.Millisecond)
		if !errors.Is(err, ErrEmptyCommand) {
			t.Errorf("expected ErrEmptyCommand, got: %v", err)
		}
		if n := len(tt.Written()); n != 0 {
			t.Errorf("nothing should reach the wire, wrote %d bytes", n)
		}
	})
}
