// ABOUTME: In-memory conversation store for clarification resumption
// ABOUTME: Keeps per-conversation state keyed by conversation ID

package backend

import (
	"sync"

	"github.com/2389/grimoire/internal/ragapi"
)

// ConversationStore holds conversation state between turns so a
// clarification answer can be matched back to its pending question.
// State lives in process memory and is lost on restart.
type ConversationStore struct {
	mu      sync.RWMutex
	entries map[string]*ragapi.ConversationEntry
}

// NewConversationStore creates an empty store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{entries: make(map[string]*ragapi.ConversationEntry)}
}

// Save stores or replaces the entry for its conversation ID.
func (s *ConversationStore) Save(entry *ragapi.ConversationEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ConversationID] = entry
}

// Get returns the entry for a conversation, or nil if unknown.
func (s *ConversationStore) Get(conversationID string) *ragapi.ConversationEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[conversationID]
}

// Delete removes a conversation. Deleting an unknown ID is a no-op.
func (s *ConversationStore) Delete(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, conversationID)
}

// Len returns the number of stored conversations.
func (s *ConversationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
