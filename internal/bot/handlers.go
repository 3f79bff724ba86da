package bot

import (
	"context"
	"time"

	"floodwarden/internal/antispam"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready", zap.String("user", session.State.User.Username))
}

func (b *Bot) onMessageCreate(session *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Author == nil || msg.Author.Bot {
		return
	}
	if msg.GuildID == "" {
		return
	}

	// One misbehaving filter must never take the event loop down with it;
	// the engine contains per-filter panics and this is the outer net.
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("message handler panicked",
				zap.String("guild_id", msg.GuildID),
				zap.String("message_id", msg.ID),
				zap.Any("panic", r))
		}
	}()

	b.engine.Process(context.Background(), buildMessage(msg))
}

func buildMessage(msg *discordgo.MessageCreate) *antispam.Message {
	joined := time.Time{}
	if msg.Member != nil {
		joined = msg.Member.JoinedAt
	}
	return &antispam.Message{
		ID:             msg.ID,
		GuildID:        msg.GuildID,
		ChannelID:      msg.ChannelID,
		AuthorID:       msg.Author.ID,
		Content:        msg.Content,
		Attachments:    len(msg.Attachments),
		Mentions:       len(msg.Mentions),
		AuthorJoinedAt: joined,
	}
}

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}

	ctx := context.Background()
	data := interaction.ApplicationCommandData()
	switch data.Name {
	case "filters":
		b.handleFiltersCommand(ctx, session, interaction, data.Options)
	case "status":
		b.handleStatusCommand(ctx, session, interaction)
	case "logs":
		b.handleLogsCommand(ctx, session, interaction, data.Options)
	case "report":
		b.handleReportCommand(ctx, session, interaction, data.Options)
	}
}

func (b *Bot) respond(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string) {
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
