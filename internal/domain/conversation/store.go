// Package conversation keeps the ordered message list of one chat session.
package conversation

import (
	"sync"

	"jan-server/services/chat-ui/internal/domain/chat"
)

// Store is an ordered, newest-first list of messages. Index 0 is the latest
// reply or the one still streaming.
type Store struct {
	mu       sync.RWMutex
	messages []chat.Message
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Unshift inserts messages at the front in call order, so the last argument
// ends up at index 0.
func (s *Store) Unshift(msgs ...chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		s.messages = append([]chat.Message{m.Clone()}, s.messages...)
	}
}

// Update applies fn to the message identified by key. It reports false when
// the message is no longer in the store.
func (s *Store) Update(key chat.Key, fn func(*chat.Message)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].Matches(key) {
			fn(&s.messages[i])
			return true
		}
	}
	return false
}

// Replace swaps the message at index i. It reports false for an out of range index.
func (s *Store) Replace(i int, msg chat.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.messages) {
		return false
	}
	s.messages[i] = msg.Clone()
	return true
}

// First returns the message at index 0.
func (s *Store) First() (chat.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.messages) == 0 {
		return chat.Message{}, false
	}
	return s.messages[0].Clone(), true
}

// Snapshot returns a deep copy of the messages, newest first.
func (s *Store) Snapshot() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]chat.Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = m.Clone()
	}
	return out
}

// History returns the messages oldest first, leaving out the newest one
// (the pending reply of the current turn).
func (s *Store) History() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.messages) == 0 {
		return nil
	}
	out := make([]chat.Message, 0, len(s.messages)-1)
	for i := len(s.messages) - 1; i >= 1; i-- {
		out = append(out, s.messages[i].Clone())
	}
	return out
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Clear removes every message.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}
