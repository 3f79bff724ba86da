package antispam

import (
	"context"
	"time"
)

// Message is the slice of an inbound chat event the filters care about.
type Message struct {
	ID             string
	GuildID        string
	ChannelID      string
	AuthorID       string
	Content        string
	Attachments    int
	Mentions       int
	AuthorJoinedAt time.Time
}

// InviteInfo is the resolved metadata for an invite fragment.
type InviteInfo struct {
	GuildID   string
	GuildName string
}

// Moderator is the moderation action sink the filters escalate through.
// Implementations must treat already-deleted messages and already-gone
// users as success.
type Moderator interface {
	SendMessage(ctx context.Context, channelID, content string) (string, error)
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	BanUser(ctx context.Context, guildID, userID, reason string, purgeDays int) error
	KickUser(ctx context.Context, guildID, userID, reason string) error
	ResolveInvite(ctx context.Context, code string) (InviteInfo, error)
	IsModerator(guildID, channelID, userID string) bool
}

// ConfigStore persists per-guild filter configuration as whole JSON
// documents. Every Set writes the full document immediately.
type ConfigStore interface {
	Get(ctx context.Context, guildID, filter string) ([]byte, error)
	Set(ctx context.Context, guildID, filter string, doc []byte) error
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
