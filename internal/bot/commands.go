package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"floodwarden/internal/antispam"
	"floodwarden/internal/storage"

	"github.com/bwmarrin/discordgo"
)

func filterChoices() []*discordgo.ApplicationCommandOptionChoice {
	names := []string{"attachments", "invites", "mentions", "links", "unicode", "duplicates"}
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(names))
	for _, name := range names {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name})
	}
	return choices
}

func (b *Bot) registerCommands() error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "filters",
			Description: "Manage the moderation filters",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "action",
					Description: "view, set, clear, clearall, or sweep",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "view", Value: "view"},
						{Name: "set", Value: "set"},
						{Name: "clear", Value: "clear"},
						{Name: "clearall", Value: "clearall"},
						{Name: "sweep", Value: "sweep"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "filter",
					Description: "target filter",
					Required:    false,
					Choices:     filterChoices(),
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "field",
					Description: "config field to change",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "value",
					Description: "new value for the field",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "user whose record to clear",
					Required:    false,
				},
			},
		},
		{
			Name:        "status",
			Description: "Show tracked record counts per filter",
		},
		{
			Name:        "logs",
			Description: "View or set the moderation log channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "channel to receive moderation events",
					Required:    false,
				},
			},
		},
		{
			Name:        "report",
			Description: "Summarize moderation activity",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "period",
					Description: "day or week",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "day", Value: "day"},
						{Name: "week", Value: "week"},
					},
				},
			},
		},
	}

	for _, command := range commands {
		if _, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", command); err != nil {
			return fmt.Errorf("register command %s: %w", command.Name, err)
		}
	}
	return nil
}

func (b *Bot) requireModerator(session *discordgo.Session, interaction *discordgo.InteractionCreate) bool {
	if interaction.GuildID == "" {
		b.respond(session, interaction, "This command only works in a server.")
		return false
	}
	if interaction.Member == nil || interaction.Member.Permissions&(discordgo.PermissionManageMessages|discordgo.PermissionAdministrator) == 0 {
		b.respond(session, interaction, "You need the Manage Messages permission.")
		return false
	}
	return true
}

func (b *Bot) handleFiltersCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if !b.requireModerator(session, interaction) {
		return
	}

	var action, filterName, field, value string
	var userID string
	for _, opt := range options {
		switch opt.Name {
		case "action":
			action = opt.StringValue()
		case "filter":
			filterName = opt.StringValue()
		case "field":
			field = opt.StringValue()
		case "value":
			value = opt.StringValue()
		case "user":
			if user := opt.UserValue(session); user != nil {
				userID = user.ID
			}
		}
	}

	if action == "sweep" {
		removed := b.engine.Cleanup()
		b.respond(session, interaction, fmt.Sprintf("Sweep removed %d expired records.", removed))
		return
	}

	filter := b.engine.Filter(filterName)
	if filter == nil {
		b.respond(session, interaction, "Unknown filter.")
		return
	}

	switch action {
	case "view":
		doc, err := filter.Describe(ctx, interaction.GuildID)
		if err != nil {
			b.respond(session, interaction, "Could not load the configuration.")
			return
		}
		b.respond(session, interaction, fmt.Sprintf("`%s` configuration:\n```json\n%s\n```", filterName, doc))
	case "set":
		if field == "" || value == "" {
			b.respond(session, interaction, "Both field and value are required.")
			return
		}
		patch, err := json.Marshal(map[string]any{field: parseConfigValue(value)})
		if err != nil {
			b.respond(session, interaction, "Could not encode the change.")
			return
		}
		if err := filter.Configure(ctx, interaction.GuildID, patch); err != nil {
			var verr *antispam.ValidationError
			if errors.As(err, &verr) {
				b.respond(session, interaction, "Rejected: "+verr.Error())
				return
			}
			b.respond(session, interaction, "Update failed: "+err.Error())
			return
		}
		b.respond(session, interaction, fmt.Sprintf("`%s.%s` set to `%s`.", filterName, field, value))
	case "clear":
		if userID == "" {
			b.respond(session, interaction, "A user is required.")
			return
		}
		if err := filter.Clear(interaction.GuildID, userID); err != nil {
			if errors.Is(err, antispam.ErrNoRecord) {
				b.respond(session, interaction, "No active record for that user.")
				return
			}
			b.respond(session, interaction, "Clear failed: "+err.Error())
			return
		}
		b.respond(session, interaction, fmt.Sprintf("Cleared <@%s> from `%s`.", userID, filterName))
	case "clearall":
		removed := filter.ClearAll(interaction.GuildID)
		b.respond(session, interaction, fmt.Sprintf("Cleared %d records from `%s`.", removed, filterName))
	default:
		b.respond(session, interaction, "Unknown action.")
	}
}

// parseConfigValue maps an operator-typed string onto the JSON type the
// config field expects: bool, number, list, or plain string.
func parseConfigValue(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if strings.Contains(value, ",") {
		parts := strings.Split(value, ",")
		list := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				list = append(list, trimmed)
			}
		}
		return list
	}
	return value
}

func (b *Bot) handleStatusCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if !b.requireModerator(session, interaction) {
		return
	}

	lines := make([]string, 0, 8)
	for _, filter := range b.engine.Filters() {
		lines = append(lines, fmt.Sprintf("`%s`: %d tracked", filter.Name(), filter.Tracked(interaction.GuildID)))
	}
	channelID := b.logChannel(ctx, interaction.GuildID)
	if channelID == "" {
		lines = append(lines, "log channel: not set")
	} else {
		lines = append(lines, "log channel: <#"+channelID+">")
	}
	b.respond(session, interaction, strings.Join(lines, "\n"))
}

func (b *Bot) handleLogsCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if !b.requireModerator(session, interaction) {
		return
	}

	if len(options) == 0 {
		channelID := b.logChannel(ctx, interaction.GuildID)
		if channelID == "" {
			b.respond(session, interaction, "No moderation log channel configured.")
			return
		}
		b.respond(session, interaction, "Moderation log channel: <#"+channelID+">")
		return
	}

	channel := options[0].ChannelValue(session)
	if channel == nil {
		b.respond(session, interaction, "Could not resolve that channel.")
		return
	}
	settings := storage.GuildSettings{GuildID: interaction.GuildID, LogChannel: channel.ID}
	if err := b.store.UpsertGuildSettings(ctx, settings); err != nil {
		b.respond(session, interaction, "Saving the channel failed.")
		return
	}
	b.respond(session, interaction, "Moderation log channel set to <#"+channel.ID+">.")
}

func (b *Bot) handleReportCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if !b.requireModerator(session, interaction) {
		return
	}

	start := time.Now().Add(-24 * time.Hour)
	if len(options) > 0 && options[0].StringValue() == "week" {
		start = time.Now().Add(-7 * 24 * time.Hour)
	}
	report, err := b.analytics.Report(ctx, interaction.GuildID, start)
	if err != nil {
		b.respond(session, interaction, "Report failed.")
		return
	}

	lines := []string{formatReport(report)}
	for filter, count := range report.ByFilter {
		lines = append(lines, fmt.Sprintf("`%s`: %d", filter, count))
	}
	for action, count := range report.ByAction {
		lines = append(lines, fmt.Sprintf("%s: %d", action, count))
	}
	b.respond(session, interaction, strings.Join(lines, "\n"))
}
