package cmdmsg

import "sync/atomic"

// SessionMetrics contains atomic counters for a session.
// Counters can be used as the value of a prometheus CounterFunc.
type SessionMetrics struct {
	// FrameSentCount indicates the number of frames written to the transport.
	FrameSentCount atomic.Uint64
	// FrameRecvCount indicates the number of complete frames parsed.
	FrameRecvCount atomic.Uint64
	// MalformedFrameCount indicates the number of scans that ended without a
	// command separator on non-whitespace data.
	MalformedFrameCount atomic.Uint64
	// ListenerEnqueueCount indicates the number of messages the background
	// listener appended to the queue.
	ListenerEnqueueCount atomic.Uint64
	// ListenerDropCount indicates the number of inbound frames the listener
	// discarded because they failed to decode.
	ListenerDropCount atomic.Uint64
}

func (m *SessionMetrics) incFrameSentCount() {
	m.FrameSentCount.Add(1)
}

func (m *SessionMetrics) incFrameRecvCount() {
	m.FrameRecvCount.Add(1)
}

func (m *SessionMetrics) incMalformedFrameCount() {
	m.MalformedFrameCount.Add(1)
}

func (m *SessionMetrics) incListenerEnqueueCount() {
	m.ListenerEnqueueCount.Add(1)
}

func (m *SessionMetrics) incListenerDropCount() {
	m.ListenerDropCount.Add(1)
}
