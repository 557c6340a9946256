// Package discord wires the bot to the Discord gateway: a capability
// adapter over the session for the core, plus the event and slash-command
// handlers.
package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/onyxroyal/invitedash/internal/core"
	"github.com/onyxroyal/invitedash/internal/core/models"
	"github.com/onyxroyal/invitedash/internal/invites"
)

const defaultEmbedColor = 0x5865F2

// Client adapts a discordgo session to the capability surface the core
// expects.
type Client struct {
	s *discordgo.Session
	l *zap.SugaredLogger
}

// NewClient wraps an existing session; it does not open it.
func NewClient(s *discordgo.Session, l *zap.SugaredLogger) *Client {
	return &Client{
		s: s,
		l: l,
	}
}

// FetchInvites lists the guild's invites with their current use counts, in
// the order the API returns them.
func (c *Client) FetchInvites(ctx context.Context, guildID string) ([]invites.Invite, error) {
	gi, err := c.s.GuildInvites(guildID)
	if err != nil {
		return nil, fmt.Errorf("error fetching invites: %s", err)
	}

	out := make([]invites.Invite, 0, len(gi))
	for _, inv := range gi {
		e := invites.Invite{
			Code: inv.Code,
			Uses: inv.Uses,
		}
		if inv.Inviter != nil {
			e.InviterID = inv.Inviter.ID
			e.InviterUsername = inv.Inviter.Username
		}
		out = append(out, e)
	}

	return out, nil
}

// FetchVanityUses reads the vanity URL's use counter. discordgo has no
// helper for the vanity-url endpoint, so this goes through Request.
func (c *Client) FetchVanityUses(ctx context.Context, guildID string) (int, error) {
	body, err := c.s.Request("GET", discordgo.EndpointGuild(guildID)+"/vanity-url", nil)
	if err != nil {
		return 0, fmt.Errorf("error fetching vanity url data: %s", err)
	}

	var v struct {
		Code string `json:"code"`
		Uses int    `json:"uses"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return 0, fmt.Errorf("error decoding vanity url data: %s", err)
	}

	return v.Uses, nil
}

// VanityCode returns the guild's vanity code, or empty when it has none.
func (c *Client) VanityCode(guildID string) string {
	g, err := c.s.State.Guild(guildID)
	if err != nil {
		g, err = c.s.Guild(guildID)
		if err != nil {
			c.l.Warnw("could not resolve guild for vanity code", "guild_id", guildID, "err", err)
			return ""
		}
	}

	return g.VanityURLCode
}

// HasManageInvitesPermission reports whether the bot user can enumerate
// the guild's invites (Manage Server, or Administrator).
func (c *Client) HasManageInvitesPermission(guildID string) bool {
	perms, err := c.guildPermissions(guildID, c.s.State.User.ID)
	if err != nil {
		c.l.Warnw("could not compute bot permissions", "guild_id", guildID, "err", err)
		return false
	}

	if perms&discordgo.PermissionAdministrator != 0 {
		return true
	}

	return perms&discordgo.PermissionManageServer != 0
}

// guildPermissions folds the guild-level role permissions for a member.
func (c *Client) guildPermissions(guildID, userID string) (int64, error) {
	g, err := c.s.State.Guild(guildID)
	if err != nil {
		g, err = c.s.Guild(guildID)
		if err != nil {
			return 0, fmt.Errorf("error resolving guild: %s", err)
		}
	}

	m, err := c.s.State.Member(guildID, userID)
	if err != nil {
		m, err = c.s.GuildMember(guildID, userID)
		if err != nil {
			return 0, fmt.Errorf("error resolving member: %s", err)
		}
	}

	var perms int64
	for _, role := range g.Roles {
		// The @everyone role shares the guild's id.
		if role.ID == guildID {
			perms |= role.Permissions
			continue
		}
		for _, rid := range m.Roles {
			if rid == role.ID {
				perms |= role.Permissions
				break
			}
		}
	}

	return perms, nil
}

// SendWelcome posts the configured welcome embed, mentioning the joined
// member.
func (c *Client) SendWelcome(channelID string, cfg models.GuildConfig, ev core.JoinEvent) error {
	embed := &discordgo.MessageEmbed{
		Title:       cfg.WelcomeTitle,
		Description: fmt.Sprintf("%s\n\n%s", welcomeGreeting(cfg.Language, ev.UserID), cfg.WelcomeDescription),
		Color:       parseEmbedColor(cfg.WelcomeColor),
	}
	if cfg.WelcomeThumbnail == "true" && ev.AvatarURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: ev.AvatarURL}
	}

	_, err := c.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: fmt.Sprintf("<@%s>", ev.UserID),
		Embed:   embed,
	})
	if err != nil {
		return fmt.Errorf("error sending welcome message: %s", err)
	}

	return nil
}

func welcomeGreeting(language, userID string) string {
	if language == "ar" {
		return fmt.Sprintf("أهلاً بك <@%s>!", userID)
	}

	return fmt.Sprintf("Welcome <@%s>!", userID)
}

// AddMemberRole grants a role to a member.
func (c *Client) AddMemberRole(guildID, userID, roleID string) error {
	if err := c.s.GuildMemberRoleAdd(guildID, userID, roleID); err != nil {
		return fmt.Errorf("error adding role: %s", err)
	}

	return nil
}

// SendPanel posts a role-selection panel: an embed and a select menu whose
// option values are role ids, handled by the role_menu component handler.
func (c *Client) SendPanel(ctx context.Context, req core.PanelRequest) error {
	embed := &discordgo.MessageEmbed{
		Title:       req.Title,
		Description: req.Description,
		Color:       parseEmbedColor(req.Color),
	}
	if req.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: req.Thumbnail}
	}

	opts := make([]discordgo.SelectMenuOption, 0, len(req.Options))
	for _, o := range req.Options {
		opt := discordgo.SelectMenuOption{
			Label:       o.Label,
			Value:       o.RoleID,
			Description: o.Description,
		}
		if o.Emoji != "" {
			opt.Emoji = discordgo.ComponentEmoji{Name: o.Emoji}
		}
		opts = append(opts, opt)
	}

	msg := &discordgo.MessageSend{
		Embed: embed,
	}
	if len(opts) > 0 {
		msg.Components = []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						CustomID:    roleMenuID,
						Placeholder: "Choose your role...",
						Options:     opts,
					},
				},
			},
		}
	}

	if _, err := c.s.ChannelMessageSendComplex(req.ChannelID, msg); err != nil {
		return fmt.Errorf("error sending panel: %s", err)
	}

	return nil
}

// parseEmbedColor turns a "#RRGGBB" config value into an embed color,
// falling back to blurple on junk.
func parseEmbedColor(hex string) int {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	n, err := strconv.ParseInt(hex, 16, 32)
	if err != nil || n < 0 || n > 0xFFFFFF {
		return defaultEmbedColor
	}

	return int(n)
}
