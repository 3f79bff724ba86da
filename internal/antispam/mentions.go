package antispam

import (
	"context"
	"fmt"
	"time"
)

// MentionConfig bounds user mentions. A single message at or past the hard
// limit is deleted and the author banned immediately; messages at or past
// the soft limit feed their mention count into the windowed total.
type MentionConfig struct {
	Enabled   bool `json:"enabled"`
	Minutes   int  `json:"minutes"`
	SoftLimit int  `json:"soft_limit"`
	HardLimit int  `json:"hard_limit"`
	WarnLimit int  `json:"warn_limit"`
	BanLimit  int  `json:"ban_limit"`
}

func defaultMentionConfig() MentionConfig {
	return MentionConfig{Enabled: true, Minutes: 5, SoftLimit: 4, HardLimit: 10, WarnLimit: 8, BanLimit: 16}
}

func validateMentionConfig(cfg *MentionConfig) error {
	if cfg.Minutes <= 0 {
		return validationErr("minutes", "must be positive")
	}
	for field, value := range map[string]int{
		"soft_limit": cfg.SoftLimit,
		"hard_limit": cfg.HardLimit,
		"warn_limit": cfg.WarnLimit,
		"ban_limit":  cfg.BanLimit,
	} {
		if value < 0 {
			return validationErr(field, "must not be negative")
		}
	}
	if cfg.HardLimit > 0 && cfg.SoftLimit > cfg.HardLimit {
		return validationErr("soft_limit", "must not exceed hard_limit")
	}
	if cfg.BanLimit > 0 && cfg.WarnLimit > cfg.BanLimit {
		return validationErr("warn_limit", "must not exceed ban_limit")
	}
	return nil
}

// MentionFilter accumulates mention counts, not event counts, so a single
// message can move the total by more than one.
type MentionFilter struct {
	base
	cfg *settings[MentionConfig]
}

func NewMentionFilter(deps Deps) *MentionFilter {
	return &MentionFilter{
		base: newBase("mentions", deps),
		cfg:  newSettings("mentions", defaultMentionConfig(), deps.Config, validateMentionConfig),
	}
}

func (f *MentionFilter) Process(ctx context.Context, msg *Message) {
	cfg := f.cfg.guild(ctx, msg.GuildID)
	if !cfg.Enabled || f.exempt(msg) {
		return
	}
	if msg.Mentions == 0 {
		return
	}

	if cfg.HardLimit > 0 && msg.Mentions >= cfg.HardLimit {
		f.deleteMessage(ctx, msg)
		f.ban(ctx, msg, fmt.Sprintf("mention flood: %d mentions in one message", msg.Mentions))
		return
	}

	if cfg.SoftLimit <= 0 || msg.Mentions < cfg.SoftLimit {
		return
	}

	window := time.Duration(cfg.Minutes) * time.Minute
	rec := f.store.Mutate(msg.GuildID, msg.AuthorID, window, func(r *Record) {
		r.Count += msg.Mentions
	})

	f.escalate(ctx, msg, rec.Count, cfg.WarnLimit, cfg.BanLimit,
		fmt.Sprintf("<@%s> ease up on the mentions.", msg.AuthorID),
		"mention flood")
}

func (f *MentionFilter) Configure(ctx context.Context, guildID string, patch []byte) error {
	_, err := f.cfg.update(ctx, guildID, patch)
	return err
}

func (f *MentionFilter) Describe(ctx context.Context, guildID string) ([]byte, error) {
	return f.cfg.describe(ctx, guildID)
}
