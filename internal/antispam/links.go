package antispam

import (
	"context"
	"fmt"
	"time"

	"floodwarden/internal/utils"
)

// LinkConfig bounds URL posting on two independent axes: links in a single
// message (delete + strike past warn_limit) and cumulative links across the
// window (early warning at 75% of total_before_ban, ban at the cap).
// Allow-listed domains are not counted at all.
type LinkConfig struct {
	Enabled        bool     `json:"enabled"`
	Minutes        int      `json:"minutes"`
	WarnLimit      int      `json:"warn_limit"`
	TotalBeforeBan int      `json:"total_before_ban"`
	AllowedDomains []string `json:"allowed_domains"`
}

func defaultLinkConfig() LinkConfig {
	return LinkConfig{Enabled: true, Minutes: 10, WarnLimit: 4, TotalBeforeBan: 12}
}

func validateLinkConfig(cfg *LinkConfig) error {
	if cfg.Minutes <= 0 {
		return validationErr("minutes", "must be positive")
	}
	if cfg.WarnLimit < 0 {
		return validationErr("warn_limit", "must not be negative")
	}
	if cfg.TotalBeforeBan < 0 {
		return validationErr("total_before_ban", "must not be negative")
	}
	return nil
}

type LinkFilter struct {
	base
	cfg *settings[LinkConfig]
}

func NewLinkFilter(deps Deps) *LinkFilter {
	return &LinkFilter{
		base: newBase("links", deps),
		cfg:  newSettings("links", defaultLinkConfig(), deps.Config, validateLinkConfig),
	}
}

func (f *LinkFilter) Process(ctx context.Context, msg *Message) {
	cfg := f.cfg.guild(ctx, msg.GuildID)
	if !cfg.Enabled || f.exempt(msg) {
		return
	}

	links := f.countLinks(msg.Content, cfg.AllowedDomains)
	if links == 0 {
		return
	}

	overPerMessage := cfg.WarnLimit > 0 && links > cfg.WarnLimit
	window := time.Duration(cfg.Minutes) * time.Minute
	rec := f.store.Mutate(msg.GuildID, msg.AuthorID, window, func(r *Record) {
		r.TotalLinks += links
		if overPerMessage {
			r.Count++
		}
	})

	if overPerMessage {
		f.deleteMessage(ctx, msg)
	}

	if cfg.TotalBeforeBan > 0 {
		if rec.TotalLinks >= cfg.TotalBeforeBan {
			f.ban(ctx, msg, fmt.Sprintf("link flood: %d links within window", rec.TotalLinks))
			return
		}
		// Early warning at 75% of the cap, fired on exact arrival only so
		// it cannot repeat as the total keeps climbing. A user who already
		// earned a per-message strike is past soft warnings.
		if rec.Count == 0 && rec.TotalLinks == (cfg.TotalBeforeBan*3)/4 {
			f.warn(ctx, msg, fmt.Sprintf("<@%s> you are posting a lot of links; keep it up and you will be banned.", msg.AuthorID))
		}
	}
}

func (f *LinkFilter) countLinks(content string, allowedDomains []string) int {
	urls := utils.ExtractURLs(content)
	if len(urls) == 0 {
		return 0
	}
	allowed := make(map[string]struct{}, len(allowedDomains))
	for _, domain := range allowedDomains {
		allowed[utils.NormalizeDomain(domain)] = struct{}{}
	}
	count := 0
	for _, raw := range urls {
		_, host, err := utils.NormalizeURL(raw)
		if err == nil {
			if _, ok := allowed[host]; ok {
				continue
			}
		}
		count++
	}
	return count
}

func (f *LinkFilter) Configure(ctx context.Context, guildID string, patch []byte) error {
	_, err := f.cfg.update(ctx, guildID, patch)
	return err
}

func (f *LinkFilter) Describe(ctx context.Context, guildID string) ([]byte, error) {
	return f.cfg.describe(ctx, guildID)
}
