package antispam

import (
	"context"
	"encoding/json"
	"sync"
)

// settings caches a filter's per-guild configuration. Updates merge a JSON
// patch over the current effective document, validate the result, persist
// the whole merged document, and only then swap the cache; a failed
// validation leaves both the store and the cache untouched.
type settings[T any] struct {
	mu       sync.Mutex
	filter   string
	defaults T
	store    ConfigStore
	validate func(*T) error
	cache    map[string]T
}

func newSettings[T any](filter string, defaults T, store ConfigStore, validate func(*T) error) *settings[T] {
	return &settings[T]{
		filter:   filter,
		defaults: defaults,
		store:    store,
		validate: validate,
		cache:    make(map[string]T),
	}
}

func (s *settings[T]) guild(ctx context.Context, guildID string) T {
	s.mu.Lock()
	if cfg, ok := s.cache[guildID]; ok {
		s.mu.Unlock()
		return cfg
	}
	s.mu.Unlock()

	cfg := s.defaults
	if raw, err := s.store.Get(ctx, guildID, s.filter); err == nil && len(raw) > 0 {
		_ = json.Unmarshal(raw, &cfg)
	}

	s.mu.Lock()
	s.cache[guildID] = cfg
	s.mu.Unlock()
	return cfg
}

func (s *settings[T]) update(ctx context.Context, guildID string, patch []byte) (T, error) {
	var zero T
	cfg := s.guild(ctx, guildID)
	if err := json.Unmarshal(patch, &cfg); err != nil {
		return zero, err
	}
	if err := s.validate(&cfg); err != nil {
		return zero, err
	}
	doc, err := json.Marshal(cfg)
	if err != nil {
		return zero, err
	}
	if err := s.store.Set(ctx, guildID, s.filter, doc); err != nil {
		return zero, err
	}

	s.mu.Lock()
	s.cache[guildID] = cfg
	s.mu.Unlock()
	return cfg, nil
}

func (s *settings[T]) describe(ctx context.Context, guildID string) ([]byte, error) {
	cfg := s.guild(ctx, guildID)
	return json.MarshalIndent(cfg, "", "  ")
}
