package antispam

import (
	"context"
	"fmt"
	"regexp"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

var inviteRegex = regexp.MustCompile(`(?i)(?:discord\.gg|discord(?:app)?\.com/invite)/([A-Za-z0-9-]+)`)

const (
	inviteCacheSize = 256
	inviteCacheTTL  = 10 * time.Minute
	newAccountAge   = 60 * time.Second
)

// InviteConfig bounds invite-link posting. Invites resolving to an
// allow-listed guild are ignored.
type InviteConfig struct {
	Enabled       bool     `json:"enabled"`
	Minutes       int      `json:"minutes"`
	WarnLimit     int      `json:"warn_limit"`
	BanLimit      int      `json:"ban_limit"`
	AllowedGuilds []string `json:"allowed_guilds"`
}

func defaultInviteConfig() InviteConfig {
	return InviteConfig{Enabled: true, Minutes: 5, WarnLimit: 2, BanLimit: 4}
}

func validateInviteConfig(cfg *InviteConfig) error {
	if cfg.Minutes <= 0 {
		return validationErr("minutes", "must be positive")
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

// InviteFilter tracks foreign invite links. Resolved invite metadata is
// cached across users with its own TTL so repeated fragments do not hit
// the platform again. Members who joined less than a minute ago are kicked
// on the first offense regardless of thresholds.
type InviteFilter struct {
	base
	cfg   *settings[InviteConfig]
	cache *lru.LRU[string, InviteInfo]
}

func NewInviteFilter(deps Deps) *InviteFilter {
	return &InviteFilter{
		base:  newBase("invites", deps),
		cfg:   newSettings("invites", defaultInviteConfig(), deps.Config, validateInviteConfig),
		cache: lru.NewLRU[string, InviteInfo](inviteCacheSize, nil, inviteCacheTTL),
	}
}

func (f *InviteFilter) Process(ctx context.Context, msg *Message) {
	cfg := f.cfg.guild(ctx, msg.GuildID)
	if !cfg.Enabled || f.exempt(msg) {
		return
	}

	codes := extractInviteCodes(msg.Content)
	if len(codes) == 0 {
		return
	}

	foreign := false
	for _, code := range codes {
		info, err := f.resolve(ctx, code)
		if err != nil {
			// Unresolvable invites count as foreign; dead links are still
			// invite spam.
			foreign = true
			break
		}
		if info.GuildID == msg.GuildID || contains(cfg.AllowedGuilds, info.GuildID) {
			continue
		}
		foreign = true
		break
	}
	if !foreign {
		return
	}

	f.deleteMessage(ctx, msg)

	if !msg.AuthorJoinedAt.IsZero() && f.clock.Now().Sub(msg.AuthorJoinedAt) < newAccountAge {
		f.kick(ctx, msg, "invite link from brand-new account")
		return
	}

	window := time.Duration(cfg.Minutes) * time.Minute
	rec := f.store.Mutate(msg.GuildID, msg.AuthorID, window, func(r *Record) {
		r.Count++
	})

	f.escalate(ctx, msg, rec.Count, cfg.WarnLimit, cfg.BanLimit,
		fmt.Sprintf("<@%s> no invite links here, please.", msg.AuthorID),
		"invite flood")
}

func (f *InviteFilter) resolve(ctx context.Context, code string) (InviteInfo, error) {
	if info, ok := f.cache.Get(code); ok {
		return info, nil
	}
	info, err := f.mod.ResolveInvite(ctx, code)
	if err != nil {
		return InviteInfo{}, err
	}
	f.cache.Add(code, info)
	return info, nil
}

func extractInviteCodes(content string) []string {
	matches := inviteRegex.FindAllStringSubmatch(content, -1)
	codes := make([]string, 0, len(matches))
	for _, match := range matches {
		codes = append(codes, match[1])
	}
	return codes
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func (f *InviteFilter) Configure(ctx context.Context, guildID string, patch []byte) error {
	_, err := f.cfg.update(ctx, guildID, patch)
	return err
}

func (f *InviteFilter) Describe(ctx context.Context, guildID string) ([]byte, error) {
	return f.cfg.describe(ctx, guildID)
}
