package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/onyxroyal/invitedash/internal/core"
	"github.com/onyxroyal/invitedash/internal/invites"
)

type BotConfig struct {
	AppID string
	// If we should not try to register commands with discord
	SkipRegister bool
}

// Bot owns the gateway session and translates Discord events into core
// calls.
type Bot struct {
	cfg     BotConfig
	session *discordgo.Session
	cr      core.Core
	cache   *invites.Cache

	l *zap.SugaredLogger
}

// NewBot registers the event handlers on the session. The invite cache is
// handed in so its lifetime matches the session, not the package.
func NewBot(session *discordgo.Session, cr core.Core, cache *invites.Cache, cfg BotConfig, l *zap.SugaredLogger) *Bot {
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildInvites

	b := &Bot{
		cfg:     cfg,
		session: session,
		cr:      cr,
		cache:   cache,
		l:       l,
	}

	session.AddHandler(b.handleGuildCreate)
	session.AddHandler(b.handleMemberAdd)
	session.AddHandler(b.handleInviteCreate)
	session.AddHandler(b.handleInteraction)

	return b
}

// Start opens the gateway connection and registers the slash commands.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening gateway connection: %s", err)
	}

	b.l.Infow("connected to gateway", "user", b.session.State.User.Username)

	if !b.cfg.SkipRegister {
		if err := b.registerCommands(); err != nil {
			return fmt.Errorf("error registering commands: %s", err)
		}
	}

	return nil
}

func (b *Bot) Stop() error {
	return b.session.Close()
}

// handleGuildCreate snapshots the guild's invites as the attribution
// baseline. One guild failing only degrades that guild.
func (b *Bot) handleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if err := b.cr.SnapshotGuild(context.Background(), g.ID); err != nil {
		b.l.Errorw("could not snapshot guild invites", "guild_id", g.ID, "guild", g.Name, "err", err)
	}
}

func (b *Bot) handleMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil {
		return
	}

	b.l.Infow("member joined", "guild_id", m.GuildID, "user_id", m.User.ID, "username", m.User.Username)

	ev := core.JoinEvent{
		GuildID:   m.GuildID,
		UserID:    m.User.ID,
		Username:  m.User.Username,
		AvatarURL: m.User.AvatarURL("128"),
	}
	if _, err := b.cr.RecordJoin(context.Background(), ev); err != nil {
		b.l.Errorw("could not record join", "guild_id", m.GuildID, "user_id", m.User.ID, "err", err)
	}
}

// handleInviteCreate keeps the cached snapshot current without a full
// refresh when someone creates a new invite.
func (b *Bot) handleInviteCreate(s *discordgo.Session, i *discordgo.InviteCreate) {
	if i.GuildID == "" {
		return
	}
	b.cache.ApplyIncrementalUpdate(i.GuildID, i.Code, i.Uses)
}
