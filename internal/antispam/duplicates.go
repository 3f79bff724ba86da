package antispam

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const maxDuplicateCache = 20

// DuplicateConfig bounds near-duplicate message repeats. Each user carries
// a bounded FIFO cache of recent texts; a message scoring at or above the
// similarity threshold against any cached text is a strike.
type DuplicateConfig struct {
	Enabled   bool    `json:"enabled"`
	Minutes   int     `json:"minutes"`
	Threshold float64 `json:"threshold"`
	CacheSize int     `json:"cache_size"`
	WarnLimit int     `json:"warn_limit"`
	BanLimit  int     `json:"ban_limit"`
}

func defaultDuplicateConfig() DuplicateConfig {
	return DuplicateConfig{Enabled: true, Minutes: 10, Threshold: 0.75, CacheSize: 10, WarnLimit: 3, BanLimit: 5}
}

func validateDuplicateConfig(cfg *DuplicateConfig) error {
	if cfg.Minutes <= 0 {
		return validationErr("minutes", "must be positive")
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return validationErr("threshold", "must be within [0,1]")
	}
	if cfg.CacheSize < 1 || cfg.CacheSize > maxDuplicateCache {
		return validationErr("cache_size", fmt.Sprintf("must be within [1,%d]", maxDuplicateCache))
	}
	if cfg.WarnLimit < 0 {
		return validationErr("warn_limit", "must not be negative")
	}
	if cfg.BanLimit < 0 {
		return validationErr("ban_limit", "must not be negative")
	}
	if cfg.BanLimit > 0 && cfg.WarnLimit > cfg.BanLimit {
		return validationErr("warn_limit", "must not exceed ban_limit")
	}
	return nil
}

type DuplicateFilter struct {
	base
	cfg *settings[DuplicateConfig]
}

func NewDuplicateFilter(deps Deps) *DuplicateFilter {
	return &DuplicateFilter{
		base: newBase("duplicates", deps),
		cfg:  newSettings("duplicates", defaultDuplicateConfig(), deps.Config, validateDuplicateConfig),
	}
}

func (f *DuplicateFilter) Process(ctx context.Context, msg *Message) {
	cfg := f.cfg.guild(ctx, msg.GuildID)
	if !cfg.Enabled || f.exempt(msg) {
		return
	}
	text := strings.ToLower(strings.TrimSpace(msg.Content))
	if text == "" {
		return
	}

	hit := false
	window := time.Duration(cfg.Minutes) * time.Minute
	rec := f.store.Mutate(msg.GuildID, msg.AuthorID, window, func(r *Record) {
		if r.texts == nil {
			r.texts = &textCache{}
		}
		for _, cached := range r.texts.texts() {
			if Similarity(text, cached) >= cfg.Threshold {
				hit = true
				r.texts.bump(cached)
				r.Count++
				break
			}
		}
		if !hit {
			r.texts.add(text, cfg.CacheSize)
		}
	})
	if !hit {
		return
	}

	f.deleteMessage(ctx, msg)
	f.escalate(ctx, msg, rec.Count, cfg.WarnLimit, cfg.BanLimit,
		fmt.Sprintf("<@%s> stop repeating yourself.", msg.AuthorID),
		"near-duplicate flood")
}

func (f *DuplicateFilter) Configure(ctx context.Context, guildID string, patch []byte) error {
	_, err := f.cfg.update(ctx, guildID, patch)
	return err
}

func (f *DuplicateFilter) Describe(ctx context.Context, guildID string) ([]byte, error) {
	return f.cfg.describe(ctx, guildID)
}

// CachedTexts exposes the user's duplicate cache in insertion order.
func (f *DuplicateFilter) CachedTexts(guildID, userID string) []string {
	rec, ok := f.store.Peek(guildID, userID)
	if !ok || rec.texts == nil {
		return nil
	}
	return rec.texts.texts()
}
