package cmdmsg

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testPollInterval = 2 * time.Millisecond

func TestListenerDeliversInOrder(t *testing.T) {
	require := require.New(t)

	session, _ := newTestSession(t, []byte("4,a;4,b;4,c;"),
		WithCommandFormats(map[string]string{"error": "s"}),
		WithPollInterval(testPollInterval),
		WithLogger(quietLogger()))

	require.NoError(session.Listen())
	defer session.StopListen()

	require.True(waitUntil(t, time.Second, func() bool {
		return session.Metrics().ListenerEnqueueCount.Load() == 3
	}))

	msgs := session.Drain()
	require.Len(msgs, 3)
	require.Equal([]any{"a"}, msgs[0].Args)
	require.Equal([]any{"b"}, msgs[1].Args)
	require.Equal([]any{"c"}, msgs[2].Args)

	// A drain leaves the queue empty; nothing is delivered twice.
	require.Empty(session.Drain())
}

func TestListenerStartStop(t *testing.T) {
	require := require.New(t)

	session, _ := newTestSession(t, nil,
		WithPollInterval(testPollInterval),
		WithLogger(quietLogger()))

	require.False(session.Listening())

	require.NoError(session.Listen())
	require.True(session.Listening())

	session.StopListen()
	require.False(session.Listening())

	// Stop and start again; the listener holds no state across restarts.
	require.NoError(session.Listen())
	require.True(session.Listening())
	session.StopListen()
}

func TestListenerDoubleStartWarns(t *testing.T) {
	require := require.New(t)

	l := quietLogger()
	session, _ := newTestSession(t, nil,
		WithPollInterval(testPollInterval),
		WithLogger(l))

	require.NoError(session.Listen())
	defer session.StopListen()

	require.NoError(session.Listen())
	l.AssertCalled(t, "Warn", "already listening", mock.Anything)
	require.True(session.Listening())
}

func TestListenerStopWithoutStartWarns(t *testing.T) {
	l := quietLogger()
	session, _ := newTestSession(t, nil, WithLogger(l))

	session.StopListen()
	l.AssertCalled(t, "Warn", "not currently listening", mock.Anything)
}

func TestListenerRecoversFromMalformedFrame(t *testing.T) {
	require := require.New(t)

	// A truncated frame is logged and discarded; the listener keeps polling
	// and picks up the next complete frame.
	session, transport := newTestSession(t, []byte("2,10"),
		WithCommandFormats(map[string]string{"error": "s"}),
		WithPollInterval(testPollInterval),
		WithLogger(quietLogger()))

	require.NoError(session.Listen())
	defer session.StopListen()

	require.True(waitUntil(t, time.Second, func() bool {
		return session.Metrics().MalformedFrameCount.Load() >= 1
	}))

	transport.feed([]byte("4,ok;"))

	require.True(waitUntil(t, time.Second, func() bool {
		return session.Metrics().ListenerEnqueueCount.Load() == 1
	}))

	msgs := session.Drain()
	require.Len(msgs, 1)
	require.Equal("error", msgs[0].Name)
	require.Equal([]any{"ok"}, msgs[0].Args)
}

func TestListenerDropsUndecodableFrame(t *testing.T) {
	require := require.New(t)

	// One field where the registered formats expect two: the frame parses but
	// cannot decode, so the listener drops it and keeps going.
	session, transport := newTestSession(t, []byte{'2', ',', 1, '/', 0, ';'},
		WithCommandFormats(map[string]string{"sum_two_ints": "ii", "error": "s"}),
		WithPollInterval(testPollInterval),
		WithLogger(quietLogger()))

	require.NoError(session.Listen())
	defer session.StopListen()

	require.True(waitUntil(t, time.Second, func() bool {
		return session.Metrics().ListenerDropCount.Load() == 1
	}))

	transport.feed([]byte("4,still alive;"))

	require.True(waitUntil(t, time.Second, func() bool {
		return session.Metrics().ListenerEnqueueCount.Load() == 1
	}))

	msgs := session.Drain()
	require.Len(msgs, 1)
	require.Equal([]any{"still alive"}, msgs[0].Args)
}

// faultTransport serves its scripted bytes, then fails outright instead of
// timing out.
type faultTransport struct {
	scriptTransport
	faulted atomic.Bool
}

func (t *faultTransport) ReadByte() (byte, error) {
	b, err := t.scriptTransport.ReadByte()
	if errors.Is(err, ErrReadTimeout) {
		t.faulted.Store(true)

		return 0, errors.New("device unplugged")
	}

	return b, err
}

func TestListenerStopsOnTransportFault(t *testing.T) {
	require := require.New(t)

	transport := &faultTransport{
		scriptTransport: scriptTransport{
			reads:   []byte("4,a;"),
			profile: ArduinoUnoProfile(),
		},
	}

	session, err := NewSession(transport, []string{"who_are_you", "my_name_is", "sum_two_ints", "sum_is", "error"},
		WithCommandFormats(map[string]string{"error": "s"}),
		WithPollInterval(testPollInterval),
		WithLogger(quietLogger()))
	require.NoError(err)

	require.NoError(session.Listen())

	// The complete frame is delivered before the fault terminates the loop.
	require.True(waitUntil(t, time.Second, func() bool {
		return transport.faulted.Load()
	}))
	require.Len(session.Drain(), 1)

	// The goroutine has exited; StopListen just reclaims the bookkeeping.
	session.StopListen()
	require.False(session.Listening())
}
