package bot

import (
	"context"
	"fmt"
	"time"

	"floodwarden/internal/analytics"
	"floodwarden/internal/antispam"
	"floodwarden/internal/config"
	"floodwarden/internal/modules/audit"
	"floodwarden/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type Bot struct {
	cfg       config.Config
	logger    *zap.Logger
	store     *storage.Store
	audit     *audit.Logger
	analytics *analytics.Service
	session   *discordgo.Session
	engine    *antispam.Engine
}

func New(cfg config.Config, logger *zap.Logger, store *storage.Store, auditLogger *audit.Logger, analyticsService *analytics.Service) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	b := &Bot{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		audit:     auditLogger,
		analytics: analyticsService,
		session:   session,
	}

	b.engine = antispam.NewEngine(antispam.Deps{
		Moderator: newSessionModerator(session, logger),
		Config:    store,
		Audit:     auditLogger,
		Logger:    logger,
	})

	if b.audit != nil {
		b.audit.SetNotifier(b.notifyAudit)
	}

	return b, nil
}

// Engine exposes the filter engine so the host can drive cleanup sweeps.
func (b *Bot) Engine() *antispam.Engine {
	return b.engine
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}

	return b.registerCommands()
}

func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) logChannel(ctx context.Context, guildID string) string {
	settings, err := b.store.GetGuildSettings(ctx, guildID)
	if err != nil {
		b.logger.Warn("guild settings fallback", zap.Error(err))
		return b.cfg.DefaultLogChannel
	}
	if settings.LogChannel == "" {
		return b.cfg.DefaultLogChannel
	}
	return settings.LogChannel
}

// notifyAudit mirrors escalations into the guild's moderation log channel.
// Only WARN and CRIT entries are forwarded; INFO stays in storage.
func (b *Bot) notifyAudit(ctx context.Context, entry storage.AuditLog) {
	if entry.Level == audit.LevelInfo {
		return
	}
	channelID := b.logChannel(ctx, entry.GuildID)
	if channelID == "" {
		return
	}

	userValue := "<@" + entry.UserID + ">"
	if entry.UserID == "" {
		userValue = "system"
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: "Filter", Value: entry.Event, Inline: true},
		{Name: "Level", Value: entry.Level, Inline: true},
		{Name: "User", Value: userValue, Inline: true},
	}
	if entry.Action != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Action", Value: entry.Action, Inline: true})
	}
	if entry.Details != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Details", Value: entry.Details, Inline: false})
	}
	embed := &discordgo.MessageEmbed{
		Title:     "Moderation event",
		Color:     embedColorFor(entry.Level),
		Timestamp: entry.CreatedAt.Format(time.RFC3339),
		Fields:    fields,
	}
	_, _ = b.session.ChannelMessageSendEmbed(channelID, embed)
}

func embedColorFor(level string) int {
	switch level {
	case audit.LevelCrit:
		return 0xEF4444
	case audit.LevelWarn:
		return 0xF59E0B
	default:
		return 0x3B82F6
	}
}

func formatReport(report analytics.Report) string {
	return fmt.Sprintf("Total: %d | INFO: %d | WARN: %d | CRIT: %d",
		report.Total, report.ByLevel[audit.LevelInfo], report.ByLevel[audit.LevelWarn], report.ByLevel[audit.LevelCrit])
}
