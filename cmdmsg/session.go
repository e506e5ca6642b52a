package cmdmsg

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/arloliu/go-cmdmsg/internal/queue"
	"github.com/arloliu/go-cmdmsg/logger"
)

// DefaultPollInterval is the listener's default sleep between polls.
const DefaultPollInterval = 250 * time.Millisecond

// Session coordinates synchronous request/response calls and an asynchronous
// background listener over one shared Transport.
//
// Sessions are independently instantiable: each owns its own lock and queue,
// and sessions against different transports share no state. Create one with
// NewSession.
type Session struct {
	transport Transport
	registry  *CommandRegistry
	sep       Separators
	profile   *DeviceProfile
	logger    logger.Logger

	pollInterval  time.Duration
	guessFallback bool

	// mu serializes every touch of the transport (Send's write, Receive's
	// full-frame read, the listener's receive-then-enqueue step) and guards
	// msgQueue.
	mu       sync.Mutex
	msgQueue queue.Queue[*Message]

	// listenerMu guards listener start/stop state.
	listenerMu     sync.Mutex
	listenerCancel context.CancelFunc
	listenerDone   chan struct{}

	metrics SessionMetrics
}

// SessionOption is a functional option for configuring a Session.
type SessionOption interface {
	apply(*Session) error
}

type sessionOptFunc func(*Session) error

func (f sessionOptFunc) apply(s *Session) error { return f(s) }

// WithSeparators sets the three separator bytes. They must match the values
// the device's CmdMessenger instance was initialized with.
func WithSeparators(sep Separators) SessionOption {
	return sessionOptFunc(func(s *Session) error {
		if err := sep.Validate(); err != nil {
			return err
		}
		s.sep = sep

		return nil
	})
}

// WithCommandFormats registers default argument format strings per command
// name. Unknown names and unknown format letters are rejected here, at
// configuration time.
func WithCommandFormats(formats map[string]string) SessionOption {
	return sessionOptFunc(func(s *Session) error {
		for name, f := range formats {
			if err := s.registry.RegisterFormats(name, f); err != nil {
				return err
			}
		}

		return nil
	})
}

// WithLogger sets the logger for the session.
func WithLogger(l logger.Logger) SessionOption {
	return sessionOptFunc(func(s *Session) error {
		if l == nil {
			return errors.New("cmdmsg: logger must not be nil")
		}
		s.logger = l

		return nil
	})
}

// WithPollInterval sets the listener's sleep between polls.
func WithPollInterval(d time.Duration) SessionOption {
	return sessionOptFunc(func(s *Session) error {
		if d <= 0 {
			return fmt.Errorf("cmdmsg: poll interval %v must be positive", d)
		}
		s.pollInterval = d

		return nil
	})
}

// WithGuessFallback enables the per-argument guess fallback for commands
// that carry arguments but have no explicit or registered formats. The
// fallback renders and parses arguments as best-effort text and is
// explicitly unreliable, so it is off unless opted into; without it such a
// call fails with ErrNoFormat.
func WithGuessFallback() SessionOption {
	return sessionOptFunc(func(s *Session) error {
		s.guessFallback = true

		return nil
	})
}

// NewSession creates a session over transport. commands is the ordered
// command name list; a command's position is its wire id and must match the
// order the device attached its callbacks in.
func NewSession(transport Transport, commands []string, opts ...SessionOption) (*Session, error) {
	if transport == nil {
		return nil, errors.New("cmdmsg: transport is nil")
	}

	profile := transport.Profile()
	if profile == nil {
		return nil, errors.New("cmdmsg: transport declares no device profile")
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	registry, err := NewCommandRegistry(commands)
	if err != nil {
		return nil, err
	}

	session := &Session{
		transport:     transport,
		registry:      registry,
		sep:           DefaultSeparators(),
		profile:       profile,
		logger:        logger.GetLogger(),
		pollInterval:  DefaultPollInterval,
		guessFallback: false,
		msgQueue:      queue.NewSliceQueue[*Message](16),
	}

	for _, opt := range opts {
		if err := opt.apply(session); err != nil {
			return nil, err
		}
	}

	return session, nil
}

// Registry returns the session's command registry, e.g. to register formats
// after construction.
func (s *Session) Registry() *CommandRegistry {
	return s.registry
}

// Metrics returns the session's atomic counters.
func (s *Session) Metrics() *SessionMetrics {
	return &s.metrics
}

// Send encodes and transmits one command frame. Argument formats resolve by
// priority: formats registered for the command, then the per-argument guess
// fallback (ErrNoFormat unless WithGuessFallback was given). Use SendFormats
// to pass explicit formats for a single call.
//
// The frame is written in one operation while holding the session lock; on
// any error no byte is written.
func (s *Session) Send(name string, args ...any) error {
	return s.send(name, nil, args)
}

// SendFormats is Send with an explicit per-argument format string, which
// takes priority over formats registered for the command.
func (s *Session) SendFormats(name string, formats string, args ...any) error {
	codes, err := ParseFormats(formats)
	if err != nil {
		return err
	}

	return s.send(name, codes, args)
}

func (s *Session) send(name string, explicit []FormatCode, args []any) error {
	id, err := s.registry.ResolveID(name)
	if err != nil {
		return err
	}

	formats, err := s.resolveFormats(name, explicit, len(args))
	if err != nil {
		return err
	}
	if len(formats) != len(args) {
		return fmt.Errorf("%w: command %q has %d values for %d formats",
			ErrArgumentCount, name, len(args), len(formats))
	}

	encoded := make([][]byte, len(args))
	for i, arg := range args {
		encoded[i], err = encodeValue(formats[i], arg, s.profile, s.logger)
		if err != nil {
			return fmt.Errorf("command %q argument %d: %w", name, i, err)
		}
	}

	frame := buildFrame(s.sep, id, encoded)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transport.Write(frame); err != nil {
		return err
	}
	s.metrics.incFrameSentCount()

	return nil
}

// Receive scans the transport for one complete frame and decodes it.
//
// It returns (nil, nil) when the device was idle within the read timeout,
// including when only line-ending noise arrived. A scan that ends
// mid-frame returns a *MalformedFrameError.
//
// Calling Receive while a listener is running is unsupported: both compete
// for the same bytes and delivery order between the two paths is undefined.
func (s *Session) Receive() (*Message, error) {
	return s.receive(nil)
}

// ReceiveFormats is Receive with an explicit per-argument format string,
// which takes priority over formats registered for the inbound command.
func (s *Session) ReceiveFormats(formats string) (*Message, error) {
	codes, err := ParseFormats(formats)
	if err != nil {
		return nil, err
	}

	return s.receive(codes)
}

func (s *Session) receive(explicit []FormatCode) (*Message, error) {
	s.mu.Lock()
	fields, err := newFrameParser(s.sep).scan(s.transport)
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, ErrMalformedFrame) {
			s.metrics.incMalformedFrameCount()
		}

		return nil, err
	}
	if fields == nil {
		return nil, nil
	}

	s.metrics.incFrameRecvCount()

	return s.decodeFrame(fields, explicit, time.Now())
}

// decodeFrame resolves the command name and formats for raw fields and
// decodes the argument payloads. Decoding happens outside the session lock.
func (s *Session) decodeFrame(fields [][]byte, explicit []FormatCode, ts time.Time) (*Message, error) {
	msg := &Message{
		Name:       UnknownCommandName,
		Raw:        fields,
		ReceivedAt: ts,
	}

	known := false
	idText := strings.TrimSpace(string(fields[0]))
	if id, err := strconv.Atoi(idText); err == nil {
		msg.Name, known = s.registry.ResolveName(id)
	}
	if !known {
		s.logger.Warn("received unrecognized command id", "id", idText)
	}

	argFields := fields[1:]

	var formats []FormatCode
	switch {
	case explicit != nil:
		formats = explicit
	case known:
		var err error
		formats, err = s.resolveFormats(msg.Name, nil, len(argFields))
		if err != nil {
			return nil, err
		}
	default:
		// An unresolved id is never fatal: decode best-effort and keep the
		// raw fields, regardless of the guess fallback setting.
		formats = guessFormats(len(argFields))
	}

	if len(formats) != len(argFields) {
		return nil, fmt.Errorf("%w: command %q has %d fields for %d formats",
			ErrArgumentCount, msg.Name, len(argFields), len(formats))
	}

	msg.Args = make([]any, len(argFields))
	for i, field := range argFields {
		value, err := decodeValue(formats[i], field, s.profile, s.logger)
		if err != nil {
			return nil, fmt.Errorf("command %q argument %d: %w", msg.Name, i, err)
		}
		msg.Args[i] = value
	}

	return msg, nil
}

// resolveFormats applies the resolution priority: explicit per-call formats,
// then formats registered for the command, then the per-argument guess
// fallback (or ErrNoFormat unless the fallback was opted into). Zero
// arguments need no formats and never consult the fallback.
func (s *Session) resolveFormats(name string, explicit []FormatCode, argCount int) ([]FormatCode, error) {
	if explicit != nil {
		return explicit, nil
	}
	if formats, ok := s.registry.Formats(name); ok {
		return formats, nil
	}
	if argCount == 0 {
		return nil, nil
	}
	if !s.guessFallback {
		return nil, fmt.Errorf("%w: command %q has no registered formats and the guess fallback is not enabled",
			ErrNoFormat, name)
	}

	return guessFormats(argCount), nil
}

// ReceiveAll drains the listener queue, then parses every complete frame
// remaining in the transport's line buffer. Frames are returned in receipt
// order. A truncated trailing frame surfaces as a *MalformedFrameError
// alongside the messages parsed before it.
func (s *Session) ReceiveAll() ([]*Message, error) {
	msgs := s.Drain()

	for {
		s.mu.Lock()
		line, err := s.transport.ReadLine()
		s.mu.Unlock()

		if err != nil {
			if errors.Is(err, ErrReadTimeout) {
				return msgs, nil
			}

			return msgs, err
		}

		src := &memSource{data: line}
		for {
			fields, err := newFrameParser(s.sep).scan(src)
			if err != nil {
				if errors.Is(err, ErrMalformedFrame) {
					s.metrics.incMalformedFrameCount()
				}

				return msgs, err
			}
			if fields == nil {
				break
			}

			s.metrics.incFrameRecvCount()

			msg, err := s.decodeFrame(fields, nil, time.Now())
			if err != nil {
				return msgs, err
			}
			msgs = append(msgs, msg)
		}
	}
}
