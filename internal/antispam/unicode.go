package antispam

import (
	"context"
	"fmt"
	"time"
)

// UnicodeConfig bounds messages that are mostly non-ASCII. Messages shorter
// than min_length are ignored; the warn ratio earns a strike and the higher
// delete ratio removes the message as well.
type UnicodeConfig struct {
	Enabled     bool    `json:"enabled"`
	Minutes     int     `json:"minutes"`
	MinLength   int     `json:"min_length"`
	WarnRatio   float64 `json:"warn_ratio"`
	DeleteRatio float64 `json:"delete_ratio"`
	WarnLimit   int     `json:"warn_limit"`
	BanLimit    int     `json:"ban_limit"`
}

func defaultUnicodeConfig() UnicodeConfig {
	return UnicodeConfig{Enabled: true, Minutes: 5, MinLength: 40, WarnRatio: 0.5, DeleteRatio: 0.75, WarnLimit: 2, BanLimit: 3}
}

func validateUnicodeConfig(cfg *UnicodeConfig) error {
	if cfg.Minutes <= 0 {
		return validationErr("minutes", "must be positive")
	}
	if cfg.MinLength <= 0 {
		return validationErr("min_length", "must be positive")
	}
	if cfg.WarnRatio < 0 || cfg.WarnRatio > 1 {
		return validationErr("warn_ratio", "must be within [0,1]")
	}
	if cfg.DeleteRatio < 0 || cfg.DeleteRatio > 1 {
		return validationErr("delete_ratio", "must be within [0,1]")
	}
	if cfg.DeleteRatio < cfg.WarnRatio {
		return validationErr("delete_ratio", "must not be below warn_ratio")
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

type UnicodeFilter struct {
	base
	cfg *settings[UnicodeConfig]
}

func NewUnicodeFilter(deps Deps) *UnicodeFilter {
	return &UnicodeFilter{
		base: newBase("unicode", deps),
		cfg:  newSettings("unicode", defaultUnicodeConfig(), deps.Config, validateUnicodeConfig),
	}
}

func (f *UnicodeFilter) Process(ctx context.Context, msg *Message) {
	cfg := f.cfg.guild(ctx, msg.GuildID)
	if !cfg.Enabled || f.exempt(msg) {
		return
	}

	runes := []rune(msg.Content)
	if len(runes) < cfg.MinLength {
		return
	}
	ratio := nonASCIIRatio(runes)
	if ratio < cfg.WarnRatio {
		return
	}

	if ratio >= cfg.DeleteRatio {
		f.deleteMessage(ctx, msg)
	}

	window := time.Duration(cfg.Minutes) * time.Minute
	rec := f.store.Mutate(msg.GuildID, msg.AuthorID, window, func(r *Record) {
		r.Count++
	})

	f.escalate(ctx, msg, rec.Count, cfg.WarnLimit, cfg.BanLimit,
		fmt.Sprintf("<@%s> please keep messages readable.", msg.AuthorID),
		fmt.Sprintf("non-ascii flood: ratio %.2f", ratio))
}

func nonASCIIRatio(runes []rune) float64 {
	if len(runes) == 0 {
		return 0
	}
	nonASCII := 0
	for _, r := range runes {
		if r > 127 {
			nonASCII++
		}
	}
	return float64(nonASCII) / float64(len(runes))
}

func (f *UnicodeFilter) Configure(ctx context.Context, guildID string, patch []byte) error {
	_, err := f.cfg.update(ctx, guildID, patch)
	return err
}

func (f *UnicodeFilter) Describe(ctx context.Context, guildID string) ([]byte, error) {
	return f.cfg.describe(ctx, guildID)
}
