package antispam

import (
	"context"
	"time"

	"floodwarden/internal/modules/audit"

	"go.uber.org/zap"
)

// Filter is one independent heuristic over inbound messages. Filters keep
// their own record store and never share state with each other.
type Filter interface {
	Name() string
	Process(ctx context.Context, msg *Message)
	Cleanup() int
	Clear(guildID, userID string) error
	ClearAll(guildID string) int
	Configure(ctx context.Context, guildID string, patch []byte) error
	Describe(ctx context.Context, guildID string) ([]byte, error)
	Tracked(guildID string) int
}

// Deps are the collaborators every filter is built from. Clock is
// optional; a nil Clock means wall time.
type Deps struct {
	Moderator Moderator
	Config    ConfigStore
	Audit     *audit.Logger
	Logger    *zap.Logger
	Clock     Clock
}

// Engine dispatches every inbound message to each filter in turn and
// drives the periodic cleanup sweep.
type Engine struct {
	log     *zap.Logger
	filters []Filter
}

func NewEngine(deps Deps) *Engine {
	return &Engine{
		log: deps.Logger,
		filters: []Filter{
			NewAttachmentFilter(deps),
			NewInviteFilter(deps),
			NewMentionFilter(deps),
			NewLinkFilter(deps),
			NewUnicodeFilter(deps),
			NewDuplicateFilter(deps),
		},
	}
}

func (e *Engine) Filters() []Filter {
	return e.filters
}

func (e *Engine) Filter(name string) Filter {
	for _, f := range e.filters {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

// Process runs every filter against the message. A panic inside one filter
// is contained so the remaining filters and the host loop keep going.
func (e *Engine) Process(ctx context.Context, msg *Message) {
	for _, f := range e.filters {
		e.dispatch(ctx, f, msg)
	}
}

func (e *Engine) dispatch(ctx context.Context, f Filter, msg *Message) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("filter panicked",
				zap.String("filter", f.Name()),
				zap.String("guild_id", msg.GuildID),
				zap.String("user_id", msg.AuthorID),
				zap.Any("panic", r))
		}
	}()
	f.Process(ctx, msg)
}

// Cleanup sweeps every filter's expired records.
func (e *Engine) Cleanup() int {
	removed := 0
	for _, f := range e.filters {
		removed += f.Cleanup()
	}
	return removed
}

// Run sweeps on the given interval until ctx is cancelled.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := e.Cleanup(); removed > 0 {
				e.log.Debug("cooldown sweep", zap.Int("removed", removed))
			}
		}
	}
}

// base carries the shared plumbing and escalation helpers the six filters
// are built on.
type base struct {
	name  string
	store *Store
	mod   Moderator
	audit *audit.Logger
	log   *zap.Logger
	clock Clock
}

func newBase(name string, deps Deps) base {
	clock := deps.Clock
	if clock == nil {
		clock = realClock{}
	}
	store := NewStore()
	store.WithClock(clock)
	return base{
		name:  name,
		store: store,
		mod:   deps.Moderator,
		audit: deps.Audit,
		log:   deps.Logger,
		clock: clock,
	}
}

func (b *base) Name() string { return b.name }

func (b *base) Cleanup() int { return b.store.Sweep() }

func (b *base) Clear(guildID, userID string) error { return b.store.Clear(guildID, userID) }

func (b *base) ClearAll(guildID string) int { return b.store.ClearAll(guildID) }

func (b *base) Tracked(guildID string) int { return b.store.Tracked(guildID) }

// exempt reports whether the author bypasses this filter. The permission
// check goes to the platform on every message, never cached.
func (b *base) exempt(msg *Message) bool {
	if msg.AuthorID == "" {
		return true
	}
	return b.mod.IsModerator(msg.GuildID, msg.ChannelID, msg.AuthorID)
}

// escalate applies the shared warn/ban policy after a record mutation.
// The warning fires on exact equality with the warn limit, so a count that
// jumps past the limit in one event skips it; the ban fires on crossing.
func (b *base) escalate(ctx context.Context, msg *Message, count, warnLimit, banLimit int, warnText, reason string) {
	if banLimit > 0 && count >= banLimit {
		b.ban(ctx, msg, reason)
		return
	}
	if warnLimit > 0 && count == warnLimit {
		b.warn(ctx, msg, warnText)
	}
}

func (b *base) warn(ctx context.Context, msg *Message, text string) {
	_, err := b.mod.SendMessage(ctx, msg.ChannelID, text)
	if err != nil {
		b.log.Warn("warning send failed", zap.String("filter", b.name), zap.Error(err))
	}
	b.audit.Record(ctx, audit.Entry{
		Level:   audit.LevelWarn,
		GuildID: msg.GuildID,
		UserID:  msg.AuthorID,
		Filter:  b.name,
		Action:  audit.ActionWarn,
		Detail:  "channel " + msg.ChannelID,
		Err:     err,
	})
}

func (b *base) ban(ctx context.Context, msg *Message, reason string) {
	// The strike already counted stands even if the platform rejects the
	// ban; bookkeeping is not rolled back.
	err := b.mod.BanUser(ctx, msg.GuildID, msg.AuthorID, reason, 0)
	level := audit.LevelCrit
	if err != nil {
		level = audit.LevelWarn
	}
	b.audit.Record(ctx, audit.Entry{
		Level:   level,
		GuildID: msg.GuildID,
		UserID:  msg.AuthorID,
		Filter:  b.name,
		Action:  audit.ActionBan,
		Detail:  reason,
		Err:     err,
	})
	b.store.Remove(msg.GuildID, msg.AuthorID)
}

func (b *base) kick(ctx context.Context, msg *Message, reason string) {
	err := b.mod.KickUser(ctx, msg.GuildID, msg.AuthorID, reason)
	level := audit.LevelCrit
	if err != nil {
		level = audit.LevelWarn
	}
	b.audit.Record(ctx, audit.Entry{
		Level:   level,
		GuildID: msg.GuildID,
		UserID:  msg.AuthorID,
		Filter:  b.name,
		Action:  audit.ActionKick,
		Detail:  reason,
		Err:     err,
	})
	b.store.Remove(msg.GuildID, msg.AuthorID)
}

func (b *base) deleteMessage(ctx context.Context, msg *Message) {
	err := b.mod.DeleteMessage(ctx, msg.ChannelID, msg.ID)
	if err != nil {
		b.log.Warn("message delete failed", zap.String("filter", b.name), zap.Error(err))
	}
	b.audit.Record(ctx, audit.Entry{
		Level:   audit.LevelInfo,
		GuildID: msg.GuildID,
		UserID:  msg.AuthorID,
		Filter:  b.name,
		Action:  audit.ActionDelete,
		Detail:  "message " + msg.ID,
		Err:     err,
	})
}
