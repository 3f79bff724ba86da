package bot

import (
	"context"
	"errors"

	"floodwarden/internal/antispam"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// sessionModerator adapts the discordgo session to the antispam.Moderator
// contract. NotFound-class REST failures are treated as already handled:
// a message deleted by someone else or a user who already left is not an
// error worth surfacing to the filters.
type sessionModerator struct {
	session *discordgo.Session
	log     *zap.Logger
}

func newSessionModerator(session *discordgo.Session, log *zap.Logger) *sessionModerator {
	return &sessionModerator{session: session, log: log}
}

func (m *sessionModerator) SendMessage(ctx context.Context, channelID, content string) (string, error) {
	_ = ctx
	msg, err := m.session.ChannelMessageSend(channelID, content)
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (m *sessionModerator) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	_ = ctx
	err := m.session.ChannelMessageDelete(channelID, messageID)
	if isNotFound(err) {
		m.log.Debug("message already gone", zap.String("channel_id", channelID), zap.String("message_id", messageID))
		return nil
	}
	return err
}

func (m *sessionModerator) BanUser(ctx context.Context, guildID, userID, reason string, purgeDays int) error {
	_ = ctx
	// The ban endpoint is ID-based and succeeds even when the user has
	// already left the guild.
	return m.session.GuildBanCreateWithReason(guildID, userID, reason, purgeDays)
}

func (m *sessionModerator) KickUser(ctx context.Context, guildID, userID, reason string) error {
	_ = ctx
	err := m.session.GuildMemberDeleteWithReason(guildID, userID, reason)
	if isNotFound(err) {
		m.log.Debug("member already gone", zap.String("guild_id", guildID), zap.String("user_id", userID))
		return nil
	}
	return err
}

func (m *sessionModerator) ResolveInvite(ctx context.Context, code string) (antispam.InviteInfo, error) {
	_ = ctx
	invite, err := m.session.Invite(code)
	if err != nil {
		return antispam.InviteInfo{}, err
	}
	info := antispam.InviteInfo{}
	if invite.Guild != nil {
		info.GuildID = invite.Guild.ID
		info.GuildName = invite.Guild.Name
	}
	return info, nil
}

func (m *sessionModerator) IsModerator(guildID, channelID, userID string) bool {
	perms, err := m.session.UserChannelPermissions(userID, channelID)
	if err != nil {
		m.log.Debug("permission lookup failed", zap.String("user_id", userID), zap.Error(err))
		return false
	}
	return perms&(discordgo.PermissionManageMessages|discordgo.PermissionAdministrator) != 0
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Message == nil {
		return false
	}
	switch restErr.Message.Code {
	case discordgo.ErrCodeUnknownMessage,
		discordgo.ErrCodeUnknownChannel,
		discordgo.ErrCodeUnknownMember,
		discordgo.ErrCodeUnknownUser,
		discordgo.ErrCodeUnknownInvite:
		return true
	}
	return false
}
