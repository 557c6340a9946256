package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/onyxroyal/invitedash/internal/core/models"
)

const roleMenuID = "role_menu"

// searchInvitesMax caps how many invitees one reply lists.
const searchInvitesMax = 20

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "set-welcome",
		Description: "Set the welcome channel",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         "channel",
				Type:         discordgo.ApplicationCommandOptionChannel,
				Description:  "The channel where welcome messages will be sent",
				Required:     true,
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			},
		},
	},
	{
		Name:        "set-language",
		Description: "Set the welcome language",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "lang",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The desired language (ar / en)",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Arabic (العربية)", Value: "ar"},
					{Name: "English", Value: "en"},
				},
			},
		},
	},
	{
		Name:        "set-autorole",
		Description: "Set the automatic join role",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "role",
				Type:        discordgo.ApplicationCommandOptionRole,
				Description: "The role to be given to new members",
				Required:    true,
			},
		},
	},
	{
		Name:        "send-panel",
		Description: "Send the welcome information panel",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         "channel",
				Type:         discordgo.ApplicationCommandOptionChannel,
				Description:  "The channel where the panel will be sent",
				Required:     true,
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			},
		},
	},
	{
		Name:        "search-invites",
		Description: "Search for members invited by a specific user",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "user",
				Type:        discordgo.ApplicationCommandOptionUser,
				Description: "The user to search for",
				Required:    true,
			},
		},
	},
}

func (b *Bot) registerCommands() error {
	if _, err := b.session.ApplicationCommandBulkOverwrite(b.cfg.AppID, "", commands); err != nil {
		return fmt.Errorf("error overwriting commands: %s", err)
	}

	b.l.Infow("registered commands", "count", len(commands))

	return nil
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		if i.MessageComponentData().CustomID == roleMenuID {
			b.handleRoleMenu(s, i)
		}
	}
}

func (b *Bot) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	b.l.Debugw("received command", "command", data.Name, "guild_id", i.GuildID)

	switch data.Name {
	case "set-welcome":
		b.handleSetWelcome(s, i)
	case "set-language":
		b.handleSetLanguage(s, i)
	case "set-autorole":
		b.handleSetAutoRole(s, i)
	case "send-panel":
		b.handleSendPanel(s, i)
	case "search-invites":
		b.handleSearchInvites(s, i)
	default:
		b.l.Warnw("unknown command", "command", data.Name)
	}
}

func (b *Bot) requireAdmin(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if i.Member != nil && i.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}

	b.replyEphemeral(s, i, "You do not have permission to use this command.")
	return false
}

func (b *Bot) replyEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   uint64(discordgo.MessageFlagsEphemeral),
		},
	})
	if err != nil {
		b.l.Errorw("could not respond to interaction", "err", err)
	}
}

func (b *Bot) handleSetWelcome(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireAdmin(s, i) {
		return
	}

	ch := i.ApplicationCommandData().Options[0].ChannelValue(s)
	_, err := b.cr.UpdateGuildConfig(context.Background(), models.GuildConfigPatch{
		GuildID:          i.GuildID,
		WelcomeChannelID: &ch.ID,
	})
	if err != nil {
		b.l.Errorw("could not set welcome channel", "guild_id", i.GuildID, "err", err)
		b.replyEphemeral(s, i, "Failed to set the welcome channel.")
		return
	}

	b.replyEphemeral(s, i, fmt.Sprintf("Welcome channel set successfully to: <#%s>", ch.ID))
}

func (b *Bot) handleSetLanguage(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireAdmin(s, i) {
		return
	}

	lang := i.ApplicationCommandData().Options[0].StringValue()
	_, err := b.cr.UpdateGuildConfig(context.Background(), models.GuildConfigPatch{
		GuildID:  i.GuildID,
		Language: &lang,
	})
	if err != nil {
		b.l.Errorw("could not set language", "guild_id", i.GuildID, "err", err)
		b.replyEphemeral(s, i, "Failed to set the welcome language.")
		return
	}

	msg := "Welcome language has been set to English."
	if lang == "ar" {
		msg = "Welcome language has been set to Arabic."
	}
	b.replyEphemeral(s, i, msg)
}

func (b *Bot) handleSetAutoRole(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireAdmin(s, i) {
		return
	}

	role := i.ApplicationCommandData().Options[0].RoleValue(s, i.GuildID)
	_, err := b.cr.UpdateGuildConfig(context.Background(), models.GuildConfigPatch{
		GuildID:    i.GuildID,
		AutoRoleID: &role.ID,
	})
	if err != nil {
		b.l.Errorw("could not set auto role", "guild_id", i.GuildID, "err", err)
		b.replyEphemeral(s, i, "Failed to set the automatic join role.")
		return
	}

	b.replyEphemeral(s, i, fmt.Sprintf("Automatic join role set successfully to: %s", role.Name))
}

// handleSendPanel posts an informational panel styled from the guild's
// welcome config. Panels with role options come through the dashboard API.
func (b *Bot) handleSendPanel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireAdmin(s, i) {
		return
	}

	ch := i.ApplicationCommandData().Options[0].ChannelValue(s)

	cfg, err := b.cr.GuildConfig(context.Background(), i.GuildID)
	if err != nil {
		b.l.Errorw("could not load guild config for panel", "guild_id", i.GuildID, "err", err)
		b.replyEphemeral(s, i, "Failed to send the panel.")
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       cfg.WelcomeTitle,
		Description: cfg.WelcomeDescription,
		Color:       parseEmbedColor(cfg.WelcomeColor),
	}
	if _, err := s.ChannelMessageSendEmbed(ch.ID, embed); err != nil {
		b.l.Errorw("could not send panel", "guild_id", i.GuildID, "channel_id", ch.ID, "err", err)
		b.replyEphemeral(s, i, "Failed to send the panel.")
		return
	}

	b.replyEphemeral(s, i, "Panel sent successfully.")
}

func (b *Bot) handleSearchInvites(s *discordgo.Session, i *discordgo.InteractionCreate) {
	target := i.ApplicationCommandData().Options[0].UserValue(s)
	if target == nil {
		b.replyEphemeral(s, i, "User not found.")
		return
	}

	// Acknowledge before hitting the store: the interaction deadline is
	// three seconds and the lookup may be slower.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: uint64(discordgo.MessageFlagsEphemeral),
		},
	})
	if err != nil {
		b.l.Errorw("could not defer search-invites response", "err", err)
		return
	}

	recs, err := b.cr.JoinsByInviter(context.Background(), target.ID)
	if err != nil {
		b.l.Errorw("could not search invites", "inviter_id", target.ID, "err", err)
		b.editReply(s, i, &discordgo.WebhookEdit{
			Content: "An error occurred while searching for invites.",
		})
		return
	}

	if len(recs) == 0 {
		b.editReply(s, i, &discordgo.WebhookEdit{
			Content: fmt.Sprintf("No members found invited by **%s**.", target.Username),
		})
		return
	}

	b.editReply(s, i, &discordgo.WebhookEdit{
		Embeds: []*discordgo.MessageEmbed{searchInvitesEmbed(target.Username, recs)},
	})
}

func (b *Bot) editReply(s *discordgo.Session, i *discordgo.InteractionCreate, edit *discordgo.WebhookEdit) {
	if _, err := s.InteractionResponseEdit(i.Interaction, edit); err != nil {
		b.l.Errorw("could not edit interaction response", "err", err)
	}
}

// searchInvitesEmbed lists an inviter's members, newest first, truncated
// past searchInvitesMax.
func searchInvitesEmbed(username string, recs []models.JoinRecord) *discordgo.MessageEmbed {
	desc := ""
	for n, rec := range recs {
		if n == searchInvitesMax {
			desc += fmt.Sprintf("\n*...and %d more members.*", len(recs)-searchInvitesMax)
			break
		}
		desc += fmt.Sprintf("%d. **%s** (<@%s>) - <t:%d:R>\n", n+1, rec.DiscordUsername, rec.DiscordUserID, rec.JoinedAt.Unix())
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Members invited by %s", username),
		Description: desc,
		Color:       defaultEmbedColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Total Invites: %d", len(recs))},
	}
}

// handleRoleMenu toggles the selected role on the member who used the
// panel's dropdown.
func (b *Bot) handleRoleMenu(s *discordgo.Session, i *discordgo.InteractionCreate) {
	values := i.MessageComponentData().Values
	if len(values) == 0 || i.Member == nil {
		return
	}
	roleID := values[0]

	has := false
	for _, rid := range i.Member.Roles {
		if rid == roleID {
			has = true
			break
		}
	}

	if has {
		if err := s.GuildMemberRoleRemove(i.GuildID, i.Member.User.ID, roleID); err != nil {
			b.l.Errorw("could not remove role", "guild_id", i.GuildID, "role_id", roleID, "err", err)
			b.replyEphemeral(s, i, "Failed to update role. Please ensure the bot has proper permissions.")
			return
		}
		b.replyEphemeral(s, i, fmt.Sprintf("Removed the <@&%s> role from you.", roleID))
		return
	}

	if err := s.GuildMemberRoleAdd(i.GuildID, i.Member.User.ID, roleID); err != nil {
		b.l.Errorw("could not add role", "guild_id", i.GuildID, "role_id", roleID, "err", err)
		b.replyEphemeral(s, i, "Failed to update role. Please ensure the bot has proper permissions.")
		return
	}
	b.replyEphemeral(s, i, fmt.Sprintf("Gave you the <@&%s> role.", roleID))
}
