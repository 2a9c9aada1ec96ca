package conversation

import (
	"sync"
	"time"
)

// Entry is one transcript line: who said what and when. Author is
// "user" for inbound messages and the agent id for responses.
type Entry struct {
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is an ordered transcript identified by a conversation id.
type Conversation struct {
	ID      string    `json:"id"`
	Entries []Entry   `json:"entries"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// Clone returns a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	out := *c
	out.Entries = make([]Entry, len(c.Entries))
	copy(out.Entries, c.Entries)
	return &out
}

// Options configures a Store.
type Options struct {
	// MaxEntries caps the transcript length per conversation; older
	// entries are pruned first.
	MaxEntries int
}

// Store is a volatile transcript store keeping conversations in a
// process local map. It is safe for concurrent access. Each returned
// conversation is cloned to prevent external mutation of internal state.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	maxEntries    int
}

// NewStore constructs an empty in-memory conversation store.
func NewStore(optFns ...func(o *Options)) *Store {
	opts := Options{
		MaxEntries: 50,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Store{
		conversations: make(map[string]*Conversation),
		maxEntries:    opts.MaxEntries,
	}
}

// Append adds an entry to an existing or newly created conversation,
// pruning the oldest entries beyond the configured cap.
func (s *Store) Append(conversationID string, e Entry) {
	if conversationID == "" {
		return
	}

	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		conv = &Conversation{ID: conversationID, Created: time.Now().UTC()}
		s.conversations[conversationID] = conv
	}

	conv.Entries = append(conv.Entries, e)
	conv.Updated = e.Timestamp

	if s.maxEntries > 0 && len(conv.Entries) > s.maxEntries {
		conv.Entries = conv.Entries[len(conv.Entries)-s.maxEntries:]
	}
}

// Get returns a clone of the conversation, or nil when unknown.
func (s *Store) Get(conversationID string) *Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil
	}

	return conv.Clone()
}

// History returns up to limit of the most recent entries, oldest first.
// A limit <= 0 returns the full transcript.
func (s *Store) History(conversationID string, limit int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil
	}

	entries := conv.Entries
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	out := make([]Entry, len(entries))
	copy(out, entries)

	return out
}

// Remove drops a conversation from the store.
func (s *Store) Remove(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conversations, conversationID)
}

// Len returns the number of live conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.conversations)
}
