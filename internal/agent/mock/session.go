package mock

import (
	"context"
	"sync"
	"time"

	"github.com/devpane/workbench/internal/agent/client"
)

// Session is a mock implementation of client.Session for testing.
// Tests inject events with Emit; every emitted event is also recorded in
// the session history so History replay matches the live stream.
type Session struct {
	// SendFunc overrides Send when set.
	SendFunc func(ctx context.Context, prompt string) error

	// HistoryErr is returned by History when set.
	HistoryErr error

	id      string
	mu      sync.RWMutex
	events  chan client.StreamEvent
	history []client.StreamEvent
	prompts []string
	closed  bool
}

// NewSession creates a mock session with a buffered event channel.
func NewSession(id string) *Session {
	return &Session{
		id:     id,
		events: make(chan client.StreamEvent, 100),
	}
}

// ID returns the external system's own session id.
func (s *Session) ID() string {
	return s.id
}

// Send records the prompt.
func (s *Session) Send(ctx context.Context, prompt string) error {
	if s.SendFunc != nil {
		return s.SendFunc(ctx, prompt)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	return nil
}

// Events returns the live event channel.
func (s *Session) Events() <-chan client.StreamEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events
}

// History returns all recorded events.
func (s *Session) History(ctx context.Context) ([]client.StreamEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.HistoryErr != nil {
		return nil, s.HistoryErr
	}
	out := make([]client.StreamEvent, len(s.history))
	copy(out, s.history)
	return out, nil
}

// Close closes the live event channel. The session stays in the client's
// store and can be reopened by LoadSession.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}

// reopen replaces a closed event channel so a resumed handle can stream
// again.
func (s *Session) reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.events = make(chan client.StreamEvent, 100)
		s.closed = false
	}
}

// Emit delivers an event on the live stream and appends it to history.
// The event's SessionID defaults to this session's id when unset.
func (s *Session) Emit(event client.StreamEvent) {
	if event.SessionID == "" {
		event.SessionID = s.id
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	s.mu.Lock()
	s.history = append(s.history, event)
	closed := s.closed
	ch := s.events
	s.mu.Unlock()

	if closed {
		return
	}
	select {
	case ch <- event:
	default:
		// Buffer full - drop, matching the SDK's lossy delivery
	}
}

// Record appends an event to history without delivering it live. Useful
// for seeding resumable sessions with past conversation.
func (s *Session) Record(event client.StreamEvent) {
	if event.SessionID == "" {
		event.SessionID = s.id
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, event)
}

// Prompts returns every prompt passed to Send.
func (s *Session) Prompts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.prompts))
	copy(out, s.prompts)
	return out
}

// Closed reports whether the live channel has been closed.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
