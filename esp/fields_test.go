package esp

import (
	"errors"
	"testing"
	"time"
)

func TestExpectByte(t *testing.T) {
	t.Run("Matching byte", func(t *testing.T) {
		d, tt := newTestDevice()
		tt.QueueRead(`"`)
		if err := d.expectByte(time.Now().Add(50*time.Millisecond), '"'); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Mismatch consumes exactly one byte", func(t *testing.T) {
		d, tt := newTestDevice()
		tt.QueueRead("x\"")
		if err := d.expectByte(time.Now().Add(50*time.Millisecond), '"'); !errors.Is(err, ErrUnexpectedByte) {
			t.Fatalf("expected ErrUnexpectedByte, got: %v", err)
		}
		// The mismatched byte is gone, the next one is untouched.
		c, err := d.readByte(time.Now().Add(50 * time.Millisecond))
		if err != nil || c != '"' {
			t.Errorf("expected '\"' next, got %q, %v", c, err)
		}
	})

	t.Run("Timeout consumes zero bytes", func(t *testing.T) {
		d, _ := newTestDevice()
		if err := d.expectByte(time.Now().Add(20*time.Millisecond), '"'); !errors.Is(err, ErrTimeout) {
			t.Errorf("expected ErrTimeout, got: %v", err)
		}
	})
}

func TestReadInt(t *testing.T) {
	tests := []struct {
		name     string
		stream   string
		expected int
		wantErr  error
		next     string // bytes that must remain after the call
	}{
		{name: "Negative with delimiter", stream: "-123,x", expected: -123, next: "x"},
		{name: "Positive with delimiter", stream: "42,rest", expected: 42, next: "rest"},
		{name: "Terminated by CR", stream: "7\rmore", expected: 7, next: "more"},
		{name: "No digits", stream: "abc", wantErr: ErrNoValue, next: "bc"},
		{name: "Bare minus sign", stream: "-,x", wantErr: ErrNoValue, next: "x"},
		{name: "Zero", stream: "0,", expected: 0, next: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, transport := newTestDevice()
			transport.QueueRead(tt.stream)

			value, err := d.readInt(time.Now().Add(50 * time.Millisecond))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got: %v", tt.wantErr, err)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if value != tt.expected {
					t.Errorf("expected %d, got %d", tt.expected, value)
				}
			}

			buf := make([]byte, 32)
			n, _ := transport.Read(buf)
			if got := string(buf[:n]); got != tt.next {
				t.Errorf("expected %q left on the stream, got %q", tt.next, got)
			}
		})
	}

	t.Run("Digits pending at deadline still yield the value", func(t *testing.T) {
		d, transport := newTestDevice()
		transport.QueueRead("12")

		value, err := d.readInt(time.Now().Add(30 * time.Millisecond))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if value != 12 {
			t.Errorf("expected 12, got %d", value)
		}
	})

	t.Run("Nothing before deadline", func(t *testing.T) {
		d, _ := newTestDevice()
		start := time.Now()
		_, err := d.readInt(time.Now().Add(30 * time.Millisecond))
		if !errors.Is(err, ErrNoValue) {
			t.Fatalf("expected ErrNoValue, got: %v", err)
		}
		if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
			t.Errorf("blocked far past the deadline: %v", elapsed)
		}
	})

	t.Run("Transport error propagates", func(t *testing.T) {
		d, transport := newTestDevice()
		portErr := errors.New("port gone")
		transport.FailReads(portErr)

		_, err := d.readInt(time.Now().Add(30 * time.Millisecond))
		if !errors.Is(err, portErr) {
			t.Fatalf("expected transport error, got: %v", err)
		}
		if errors.Is(err, ErrNoValue) {
			t.Error("transport failure must not read as a missing value")
		}
	})
}

func TestReadUntil(t *testing.T) {
	t.Run("Returns bytes before the delimiter", func(t *testing.T) {
		d, tt := newTestDevice()
		tt.QueueRead(`kitchen/lamp",3`)

		got, err := d.readUntil(time.Now().Add(50*time.Millisecond), '"')
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != "kitchen/lamp" {
			t.Errorf("expected %q, got %q", "kitchen/lamp", got)
		}
	})

	t.Run("Timeout without delimiter", func(t *testing.T) {
		d, tt := newTestDevice()
		tt.QueueRead("no closing quote")

		if _, err := d.readUntil(time.Now().Add(30*time.Millisecond), '"'); !errors.Is(err, ErrTimeout) {
			t.Errorf("expected ErrTimeout, got: %v", err)
		}
	})
}

func TestReadFull(t *testing.T) {
	t.Run("Fills the buffer across polls", func(t *testing.T) {
		d, tt := newTestDevice()
		tt.QueueRead("he")
		go func() {
			time.Sleep(10 * time.Millisecond)
			tt.QueueRead("llo")
		}()

		buf := make([]byte, 5)
		if err := d.readFull(time.Now().Add(100*time.Millisecond), buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(buf) != "hello" {
			t.Errorf("expected %q, got %q", "hello", buf)
		}
	})

	t.Run("Short read fails at the deadline", func(t *testing.T) {
		d, tt := newTestDevice()
		tt.QueueRead("ab")

		buf := make([]byte, 3)
		if err := d.readFull(time.Now().Add(30*time.Millisecond), buf); !errors.Is(err, ErrTimeout) {
			t.Errorf("expected ErrTimeout, got: %v", err)
		}
	})
}
