package cmdmsg

import (
	"sync"
	"testing"
	"time"
)

// scriptTransport is an in-memory Transport scripted with inbound bytes and
// recording every outbound write. Safe for concurrent use so listener tests
// can feed it while the listener polls.
type scriptTransport struct {
	mu      sync.Mutex
	reads   []byte
	pos     int
	writes  [][]byte
	profile *DeviceProfile
}

func newScriptTransport(profile *DeviceProfile, reads []byte) *scriptTransport {
	return &scriptTransport{
		reads:   append([]byte(nil), reads...),
		profile: profile,
	}
}

func (t *scriptTransport) ReadByte() (byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pos >= len(t.reads) {
		return 0, ErrReadTimeout
	}
	b := t.reads[t.pos]
	t.pos++

	return b, nil
}

func (t *scriptTransport) ReadLine() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pos >= len(t.reads) {
		return nil, ErrReadTimeout
	}

	start := t.pos
	for t.pos < len(t.reads) {
		b := t.reads[t.pos]
		t.pos++
		if b == '\n' {
			break
		}
	}

	return append([]byte(nil), t.reads[start:t.pos]...), nil
}

func (t *scriptTransport) Write(p []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.writes = append(t.writes, append([]byte(nil), p...))

	return nil
}

func (t *scriptTransport) Profile() *DeviceProfile {
	return t.profile
}

func (t *scriptTransport) Close() error {
	return nil
}

// feed appends more inbound bytes, as if the device kept talking.
func (t *scriptTransport) feed(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.reads = append(t.reads, data...)
}

// writeCount returns how many frames have been written so far.
func (t *scriptTransport) writeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.writes)
}

// lastWrite returns the most recent written frame, or nil.
func (t *scriptTransport) lastWrite() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.writes) == 0 {
		return nil
	}

	return t.writes[len(t.writes)-1]
}

// newTestSession creates a session over a scriptTransport with an Uno
// profile and a small command table.
func newTestSession(t *testing.T, reads []byte, opts ...SessionOption) (*Session, *scriptTransport) {
	t.Helper()

	transport := newScriptTransport(ArduinoUnoProfile(), reads)

	session, err := NewSession(transport,
		[]string{"who_are_you", "my_name_is", "sum_two_ints", "sum_is", "error"},
		opts...)
	if err != nil {
		t.Fatalf("newTestSession: %v", err)
	}

	return session, transport
}

// waitUntil polls cond every millisecond until it holds or the deadline
// passes.
func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}

	return cond()
}
