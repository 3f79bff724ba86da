package antispam

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Record is the per-user state a filter keeps while a cooldown window is
// open. Count is the offense count for the current window; TotalLinks and
// texts are auxiliary fields used by the link and duplicate filters.
type Record struct {
	Expiry     time.Time
	Count      int
	TotalLinks int
	texts      *textCache
}

// Store holds one filter's records keyed by guild and user. Expired
// records are purged lazily on access and by periodic Sweep calls; an
// expired record is never observable.
type Store struct {
	mu      sync.Mutex
	clock   Clock
	records map[string]*Record
}

func NewStore() *Store {
	return &Store{
		clock:   realClock{},
		records: make(map[string]*Record),
	}
}

func (s *Store) WithClock(clock Clock) {
	s.mu.Lock()
	s.clock = clock
	s.mu.Unlock()
}

func recordKey(guildID, userID string) string {
	return guildID + ":" + userID
}

// Peek returns a copy of the user's record without creating or extending
// one. The second return is false when no active record exists.
func (s *Store) Peek(guildID, userID string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.activeLocked(recordKey(guildID, userID))
	if rec == nil {
		return Record{}, false
	}
	return *rec, true
}

// Mutate creates or extends the user's record (sliding window: the expiry
// is pushed to now+window), applies fn under the store lock, and returns a
// copy of the result. Callers must not hold references across platform
// calls; re-fetch instead.
func (s *Store) Mutate(guildID, userID string, window time.Duration, fn func(*Record)) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey(guildID, userID)
	rec := s.activeLocked(key)
	if rec == nil {
		rec = &Record{}
		s.records[key] = rec
	}
	rec.Expiry = s.clock.Now().Add(window)
	if fn != nil {
		fn(rec)
	}
	return *rec
}

// Remove drops the user's record unconditionally.
func (s *Store) Remove(guildID, userID string) {
	s.mu.Lock()
	delete(s.records, recordKey(guildID, userID))
	s.mu.Unlock()
}

// Clear is the operator-facing removal: it fails with ErrNoRecord when the
// user has no active record.
func (s *Store) Clear(guildID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey(guildID, userID)
	if s.activeLocked(key) == nil {
		return fmt.Errorf("user %s: %w", userID, ErrNoRecord)
	}
	delete(s.records, key)
	return nil
}

// ClearAll wipes every record for the guild and returns how many were
// removed.
func (s *Store) ClearAll(guildID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := guildID + ":"
	removed := 0
	for key := range s.records {
		if strings.HasPrefix(key, prefix) {
			delete(s.records, key)
			removed++
		}
	}
	return removed
}

// Sweep removes all expired records and returns how many were purged.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	keys := make([]string, 0, len(s.records))
	for key := range s.records {
		keys = append(keys, key)
	}
	removed := 0
	for _, key := range keys {
		if rec := s.records[key]; rec != nil && !rec.Expiry.After(now) {
			delete(s.records, key)
			removed++
		}
	}
	return removed
}

// Tracked counts the guild's active records.
func (s *Store) Tracked(guildID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	prefix := guildID + ":"
	count := 0
	for key, rec := range s.records {
		if strings.HasPrefix(key, prefix) && rec.Expiry.After(now) {
			count++
		}
	}
	return count
}

func (s *Store) activeLocked(key string) *Record {
	rec := s.records[key]
	if rec == nil {
		return nil
	}
	if !rec.Expiry.After(s.clock.Now()) {
		delete(s.records, key)
		return nil
	}
	return rec
}
