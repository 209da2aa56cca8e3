package notification

import (
	"log/slog"
	"sync"
)

// Observer is called with every notification the store accepts.
type Observer func(Notification)

// Store is the process-wide notification collection. Only its own methods
// mutate the collection; readers get copies.
type Store struct {
	maxEntries int
	logger     *slog.Logger

	mu          sync.RWMutex
	items       []Notification // Newest first
	unreadCount int

	observersMu sync.RWMutex
	observers   []Observer
}

// NewStore creates an empty store bounded at maxEntries (DefaultMaxEntries
// when maxEntries < 1).
func NewStore(maxEntries int, logger *slog.Logger) *Store {
	if maxEntries < 1 {
		maxEntries = DefaultMaxEntries
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		maxEntries: maxEntries,
		logger:     logger,
	}
}

// Add inserts n at the head unless a notification with the same ID exists.
// Returns false for rejected duplicates. Oldest entries are evicted once
// the collection exceeds its bound.
func (s *Store) Add(n Notification) bool {
	s.mu.Lock()
	for _, existing := range s.items {
		if existing.ID == n.ID {
			s.mu.Unlock()
			s.logger.Debug("duplicate notification ignored", "id", n.ID)
			return false
		}
	}

	items := make([]Notification, 0, min(len(s.items)+1, s.maxEntries))
	items = append(items, n)
	items = append(items, s.items...)
	evicted := 0
	if len(items) > s.maxEntries {
		evicted = len(items) - s.maxEntries
		items = items[:s.maxEntries]
	}
	s.items = items
	s.unreadCount = countUnread(s.items)
	s.mu.Unlock()

	if evicted > 0 {
		s.logger.Debug("notifications evicted", "count", evicted)
	}

	s.observersMu.RLock()
	observers := s.observers
	s.observersMu.RUnlock()
	for _, fn := range observers {
		fn(n)
	}

	return true
}

// MarkAsRead sets the read flag of the notification with id. Unknown or
// already-read IDs are a no-op.
func (s *Store) MarkAsRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Read = true
			break
		}
	}
	s.unreadCount = countUnread(s.items)
}

// MarkAllAsRead marks every notification read.
func (s *Store) MarkAllAsRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		s.items[i].Read = true
	}
	s.unreadCount = 0
}

// Clear empties the collection.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.unreadCount = 0
}

// Notifications returns a copy of the collection, newest first.
func (s *Store) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the notification with id.
func (s *Store) Get(id string) (Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.items {
		if n.ID == id {
			return n, true
		}
	}
	return Notification{}, false
}

// UnreadCount returns the number of unread notifications.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unreadCount
}

// Len returns the number of notifications held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Subscribe registers fn to receive every accepted notification. Observers
// run on the goroutine that called Add, after the store lock is released.
func (s *Store) Subscribe(fn Observer) {
	s.observersMu.Lock()
	defer s.observersMu.Unlock()

	// Copy-on-write so Add can iterate without holding the lock
	next := make([]Observer, 0, len(s.observers)+1)
	next = append(next, s.observers...)
	s.observers = append(next, fn)
}

func countUnread(items []Notification) int {
	n := 0
	for _, item := range items {
		if !item.Read {
			n++
		}
	}
	return n
}
