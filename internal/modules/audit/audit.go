package audit

import (
	"context"
	"time"

	"floodwarden/internal/storage"

	"go.uber.org/zap"
)

const (
	LevelInfo = "INFO"
	LevelWarn = "WARN"
	LevelCrit = "CRIT"
)

// Action is the moderation step a filter took, or tried to take.
type Action string

const (
	ActionWarn   Action = "warn"
	ActionDelete Action = "delete"
	ActionKick   Action = "kick"
	ActionBan    Action = "ban"
)

// Entry is one filter decision about one user. Err marks a platform
// action that was attempted but rejected; the decision is recorded either
// way.
type Entry struct {
	Level   string
	GuildID string
	UserID  string
	Filter  string
	Action  Action
	Detail  string
	Err     error
}

// Logger fans each decision out to storage, the structured log, and an
// optional notifier (the moderation log channel).
type Logger struct {
	store  *storage.Store
	logger *zap.Logger
	notify func(context.Context, storage.AuditLog)
}

func NewLogger(store *storage.Store, logger *zap.Logger) *Logger {
	return &Logger{store: store, logger: logger}
}

func (l *Logger) SetNotifier(notify func(context.Context, storage.AuditLog)) {
	l.notify = notify
}

func (l *Logger) Record(ctx context.Context, entry Entry) {
	detail := entry.Detail
	if entry.Err != nil {
		if detail != "" {
			detail += ": "
		}
		detail += entry.Err.Error()
	}

	row := storage.AuditLog{
		GuildID:   entry.GuildID,
		UserID:    entry.UserID,
		Level:     entry.Level,
		Event:     entry.Filter,
		Action:    string(entry.Action),
		Details:   detail,
		CreatedAt: time.Now(),
	}
	if l.store != nil {
		_ = l.store.AddAuditLog(ctx, row)
	}
	if l.notify != nil {
		l.notify(ctx, row)
	}
	l.logger.Info("audit",
		zap.String("level", entry.Level),
		zap.String("guild_id", entry.GuildID),
		zap.String("user_id", entry.UserID),
		zap.String("filter", entry.Filter),
		zap.String("action", string(entry.Action)),
		zap.String("detail", detail),
		zap.Error(entry.Err))
}
