// Package session orchestrates chat turns: it owns the conversation store,
// runs one generation at a time and applies assembler emissions to the
// pending reply.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"jan-server/services/chat-ui/internal/domain/chat"
	"jan-server/services/chat-ui/internal/domain/conversation"
)

var (
	// ErrTurnInProgress is returned by Submit while a reply is streaming.
	ErrTurnInProgress = errors.New("a reply is already being generated")
	// ErrEmptyInput is returned by Submit for blank input.
	ErrEmptyInput = errors.New("input is empty")
)

// State is the session lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateStreaming State = "streaming"
)

// Generator streams one reply for the given history (oldest first) and
// reports every change through onUpdate.
type Generator interface {
	Generate(ctx context.Context, history []chat.Message, onUpdate func(chat.Emission)) (chat.Outcome, error)
}

// Listener receives a newest-first snapshot of the conversation after every change.
type Listener func([]chat.Message)

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session is one chat conversation.
type Session struct {
	store     *conversation.Store
	generator Generator
	log       zerolog.Logger
	now       func() time.Time

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	turn   uint64

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// New creates a session around a generator.
func New(generator Generator, log zerolog.Logger, opts ...Option) *Session {
	s := &Session{
		store:     conversation.NewStore(),
		generator: generator,
		log:       log.With().Str("component", "session").Logger(),
		now:       time.Now,
		state:     StateIdle,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit starts a turn and blocks until the reply finishes, fails or is
// aborted. An aborted turn returns nil.
func (s *Session) Submit(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}

	s.mu.Lock()
	if s.state == StateStreaming {
		s.mu.Unlock()
		return ErrTurnInProgress
	}
	turnCtx, cancel := context.WithCancel(ctx)
	s.state = StateStreaming
	s.cancel = cancel
	s.turn++
	turnID := s.turn

	now := s.now()
	user := chat.Message{Role: chat.RoleUser, Content: text, Status: chat.StatusReady, Timestamp: now}
	reply := chat.Message{Role: chat.RoleAssistant, Status: chat.StatusLoading, Timestamp: now}
	s.store.Unshift(user, reply)
	history := s.store.History()
	s.mu.Unlock()
	s.notify()

	outcome, err := s.generator.Generate(turnCtx, history, func(e chat.Emission) {
		s.apply(turnID, reply.Key(), e)
	})
	cancel()

	switch {
	case outcome.Aborted || errors.Is(err, context.Canceled):
		// Abort or NewChat already settled the reply unless the caller's
		// context was cancelled directly.
		s.mu.Lock()
		if s.current(turnID) {
			s.abortLocked()
		}
		s.mu.Unlock()
		s.notify()
		return nil
	case err != nil:
		s.log.Error().Err(err).Msg("generate reply failed")
		s.fail(turnID, reply.Key())
		return err
	}
	s.complete(turnID, reply.Key(), outcome.Content)
	return nil
}

func (s *Session) current(turnID uint64) bool {
	return s.turn == turnID && s.state == StateStreaming
}

func (s *Session) apply(turnID uint64, key chat.Key, e chat.Emission) {
	if !e.Changed() {
		return
	}
	s.mu.Lock()
	if !s.current(turnID) {
		s.mu.Unlock()
		return
	}
	updated := s.store.Update(key, func(m *chat.Message) {
		switch e.Kind {
		case chat.EmitContent:
			m.Content = e.Content
		case chat.EmitPlan:
			m.Plan = e.Plan.Clone()
		}
	})
	s.mu.Unlock()
	if updated {
		s.notify()
	}
}

func (s *Session) complete(turnID uint64, key chat.Key, content string) {
	s.mu.Lock()
	if !s.current(turnID) {
		s.mu.Unlock()
		return
	}
	if first, ok := s.store.First(); ok && first.Matches(key) {
		first.Status = chat.StatusReady
		first.Content = content
		first.Timestamp = s.now()
		s.store.Replace(0, first)
	}
	s.finish()
	s.mu.Unlock()
	s.notify()
}

// fail leaves the partial reply in place but stops it from loading.
func (s *Session) fail(turnID uint64, key chat.Key) {
	s.mu.Lock()
	if !s.current(turnID) {
		s.mu.Unlock()
		return
	}
	s.store.Update(key, func(m *chat.Message) {
		m.Status = chat.StatusReady
	})
	s.finish()
	s.mu.Unlock()
	s.notify()
}

// finish must be called with mu held.
func (s *Session) finish() {
	s.state = StateIdle
	s.cancel = nil
}

// Abort cancels the in-flight turn and marks its reply as aborted. It
// reports false when nothing was streaming.
func (s *Session) Abort() bool {
	s.mu.Lock()
	if s.state != StateStreaming {
		s.mu.Unlock()
		return false
	}
	s.abortLocked()
	s.mu.Unlock()
	s.notify()
	return true
}

func (s *Session) abortLocked() {
	if s.cancel != nil {
		s.cancel()
	}
	s.finish()
	if first, ok := s.store.First(); ok {
		first.Aborted = true
		first.Status = chat.StatusReady
		s.store.Replace(0, first)
	}
}

// NewChat clears the conversation and cancels any in-flight turn.
func (s *Session) NewChat() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.finish()
	s.turn++
	s.store.Clear()
	s.mu.Unlock()
	s.notify()
}

// Subscribe registers a listener and returns a function that removes it.
func (s *Session) Subscribe(l Listener) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

func (s *Session) notify() {
	s.lmu.Lock()
	if len(s.listeners) == 0 {
		s.lmu.Unlock()
		return
	}
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.lmu.Unlock()

	snapshot := s.store.Snapshot()
	for _, l := range listeners {
		l(snapshot)
	}
}

// Messages returns the conversation, newest first.
func (s *Session) Messages() []chat.Message {
	return s.store.Snapshot()
}

// IsGenerating reports whether a reply is streaming.
func (s *Session) IsGenerating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateStreaming
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
