package esp

import (
	"sync"
)

// TestTransport is a test helper that simulates the module side of the
// conversation. Reads are non-blocking like a serial port with a read
// timeout: when nothing is queued, Read returns (0, nil) and the driver
// polls again. Exported for use in tests.
type TestTransport struct {
	mu      sync.Mutex
	rx      []byte // bytes queued for the driver to read
	tx      []byte // bytes the driver wrote
	readErr error
	closed  bool
	onWrite func(p []byte)
}

// NewTestTransport creates a new test transport.
func NewTestTransport() *TestTransport {
	return &TestTransport{}
}

func (t *TestTransport) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.readErr != nil {
		return 0, t.readErr
	}
	if len(t.rx) == 0 {
		return 0, nil
	}
	n := copy(p, t.rx)
	t.rx = t.rx[n:]
	return n, nil
}

func (t *TestTransport) Write(p []byte) (int, error) {
	t.mu.Lock()
	written := append([]byte(nil), p...)
	t.tx = append(t.tx, written...)
	fn := t.onWrite
	t.mu.Unlock()
	// Invoked unlocked so the hook may queue reply bytes.
	if fn != nil {
		fn(written)
	}
	return len(p), nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// QueueRead appends data to be read by the driver, simulating bytes
// arriving from the module.
func (t *TestTransport) QueueRead(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rx = append(t.rx, data...)
}

// FailReads makes every subsequent Read return err.
func (t *TestTransport) FailReads(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readErr = err
}

// OnWrite registers a hook called with every chunk the driver writes.
// The hook may call QueueRead to script the module's reply.
func (t *TestTransport) OnWrite(fn func(p []byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onWrite = fn
}

// Written returns everything the driver has written so far.
func (t *TestTransport) Written() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.tx...)
}

// Closed reports whether Close was called.
func (t *TestTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
