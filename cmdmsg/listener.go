package cmdmsg

import (
	"context"
	"errors"
	"time"
)

// Listen starts the background listener: a goroutine that polls the
// transport for frames and appends decoded messages to the session's queue
// in parse order. Drain collects them.
//
// Starting a listener while one is already running is a no-op with a
// warning, not an error.
//
// After a malformed frame the listener logs the error, counts it, discards
// the partial bytes and keeps polling; the next scan resynchronizes at the
// next command separator. The listener stops on its own only when the
// transport fails outright.
func (s *Session) Listen() error {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()

	if s.listenerCancel != nil {
		s.logger.Warn("already listening")

		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.listenerCancel = cancel
	s.listenerDone = done

	go s.listenLoop(ctx, done)

	s.logger.Debug("listener started", "pollInterval", s.pollInterval)

	return nil
}

// StopListen stops the background listener and waits for its goroutine to
// exit. Any partially accumulated frame at that instant is discarded; a
// frame never spans a resumable state across stop and start.
//
// Stopping when no listener is running is a no-op with a warning.
func (s *Session) StopListen() {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()

	if s.listenerCancel == nil {
		s.logger.Warn("not currently listening")

		return
	}

	s.listenerCancel()
	<-s.listenerDone

	s.listenerCancel = nil
	s.listenerDone = nil

	s.logger.Debug("listener stopped")
}

// Listening reports whether the background listener is running.
func (s *Session) Listening() bool {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()

	return s.listenerCancel != nil
}

// Drain atomically removes and returns all queued listener messages in
// parse order. After Drain returns the queue is empty; no message is
// duplicated or lost between drains.
func (s *Session) Drain() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.msgQueue.Drain()
}

// listenLoop is the listener goroutine body: receive, enqueue, sleep,
// repeat until cancelled.
func (s *Session) listenLoop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in listener loop", "panic", r)
		}
	}()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		msg, err := s.receive(nil)

		switch {
		case err == nil:
			if msg != nil {
				s.mu.Lock()
				s.msgQueue.Enqueue(msg)
				s.mu.Unlock()
				s.metrics.incListenerEnqueueCount()
			}

		case errors.Is(err, ErrMalformedFrame):
			s.logger.Warn("listener discarded malformed frame", "error", err)

		case errors.Is(err, ErrArgumentCount), errors.Is(err, ErrFieldLength), errors.Is(err, ErrNoFormat):
			s.metrics.incListenerDropCount()
			s.logger.Warn("listener dropped undecodable frame", "error", err)

		default:
			s.logger.Error("listener transport failure", "error", err)

			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
