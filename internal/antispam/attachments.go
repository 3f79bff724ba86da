package antispam

import (
	"context"
	"fmt"
	"time"
)

// AttachmentConfig bounds attachment-only message bursts within a sliding
// seconds window.
type AttachmentConfig struct {
	Enabled   bool `json:"enabled"`
	Seconds   int  `json:"seconds"`
	WarnLimit int  `json:"warn_limit"`
	BanLimit  int  `json:"ban_limit"`
}

func defaultAttachmentConfig() AttachmentConfig {
	return AttachmentConfig{Enabled: true, Seconds: 15, WarnLimit: 3, BanLimit: 5}
}

func validateAttachmentConfig(cfg *AttachmentConfig) error {
	if cfg.Seconds <= 0 {
		return validationErr("seconds", "must be positive")
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

// AttachmentFilter tracks consecutive messages carrying attachments. Any
// plain text message from a tracked user clears the record outright.
type AttachmentFilter struct {
	base
	cfg *settings[AttachmentConfig]
}

func NewAttachmentFilter(deps Deps) *AttachmentFilter {
	return &AttachmentFilter{
		base: newBase("attachments", deps),
		cfg:  newSettings("attachments", defaultAttachmentConfig(), deps.Config, validateAttachmentConfig),
	}
}

func (f *AttachmentFilter) Process(ctx context.Context, msg *Message) {
	cfg := f.cfg.guild(ctx, msg.GuildID)
	if !cfg.Enabled || f.exempt(msg) {
		return
	}

	if msg.Attachments == 0 {
		// A regular message breaks the streak.
		if _, ok := f.store.Peek(msg.GuildID, msg.AuthorID); ok {
			f.store.Remove(msg.GuildID, msg.AuthorID)
		}
		return
	}

	window := time.Duration(cfg.Seconds) * time.Second
	rec := f.store.Mutate(msg.GuildID, msg.AuthorID, window, func(r *Record) {
		r.Count++
	})

	f.escalate(ctx, msg, rec.Count, cfg.WarnLimit, cfg.BanLimit,
		fmt.Sprintf("<@%s> slow down with the attachments.", msg.AuthorID),
		"attachment flood")
}

func (f *AttachmentFilter) Configure(ctx context.Context, guildID string, patch []byte) error {
	_, err := f.cfg.update(ctx, guildID, patch)
	return err
}

func (f *AttachmentFilter) Describe(ctx context.Context, guildID string) ([]byte, error) {
	return f.cfg.describe(ctx, guildID)
}
