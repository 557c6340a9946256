package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/onyxroyal/invitedash/internal/core/db"
	"github.com/onyxroyal/invitedash/internal/core/models"
	"github.com/onyxroyal/invitedash/internal/invites"
)

const (
	leaderboardSize  = 10
	recentJoinsLimit = 50
)

// A JoinEvent is one member-joined notification from the platform.
type JoinEvent struct {
	GuildID   string
	UserID    string
	Username  string
	AvatarURL string
}

// A PanelRequest asks the bot to post a role-selection panel to a channel.
type PanelRequest struct {
	ChannelID   string        `json:"channelId"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Color       string        `json:"color"`
	Thumbnail   string        `json:"thumbnail"`
	Options     []PanelOption `json:"options"`
}

type PanelOption struct {
	RoleID      string `json:"roleId"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
}

// GuildClient is the slice of the chat platform the core needs: invite and
// vanity counters, a permission probe, and message sends.
type GuildClient interface {
	FetchInvites(ctx context.Context, guildID string) ([]invites.Invite, error)
	FetchVanityUses(ctx context.Context, guildID string) (int, error)
	VanityCode(guildID string) string
	HasManageInvitesPermission(guildID string) bool
	SendWelcome(channelID string, cfg models.GuildConfig, ev JoinEvent) error
	AddMemberRole(guildID, userID, roleID string) error
	SendPanel(ctx context.Context, req PanelRequest) error
}

type Core struct {
	db     db.DB
	cache  *invites.Cache
	client GuildClient
	l      *zap.SugaredLogger
}

func New(db db.DB, cache *invites.Cache, client GuildClient, l *zap.SugaredLogger) Core {
	return Core{
		db:     db,
		cache:  cache,
		client: client,
		l:      l,
	}
}

// SnapshotGuild captures the guild's current invite counters as the
// baseline for future attributions. A failing vanity fetch only costs the
// vanity counter, not the snapshot.
func (c Core) SnapshotGuild(ctx context.Context, guildID string) error {
	fresh, err := c.client.FetchInvites(ctx, guildID)
	if err != nil {
		return fmt.Errorf("error fetching invites: %s", err)
	}

	vanityUses := 0
	if code := c.client.VanityCode(guildID); code != "" {
		uses, err := c.client.FetchVanityUses(ctx, guildID)
		if err != nil {
			c.l.Warnw("could not fetch vanity uses for baseline", "guild_id", guildID, "err", err)
		} else {
			vanityUses = uses
		}
	}

	c.cache.Replace(guildID, invites.NewSnapshot(fresh, vanityUses))
	c.l.Infow("cached invite snapshot", "guild_id", guildID, "invites", len(fresh))

	return nil
}

// RecordJoin attributes a join to an invite, persists the result, and
// fires the welcome notification. The returned error only ever reflects
// persistence: every platform failure degrades to an unknown attribution
// instead of failing the event.
func (c Core) RecordJoin(ctx context.Context, ev JoinEvent) (models.JoinRecord, error) {
	res := c.attribute(ctx, ev.GuildID)
	c.l.Infow("attributed join",
		"guild_id", ev.GuildID,
		"user_id", ev.UserID,
		"kind", res.Kind,
		"invite_code", res.InviteCode,
		"reason", res.Reason,
	)

	rec := models.JoinRecord{
		DiscordUserID:   ev.UserID,
		DiscordUsername: ev.Username,
	}
	if ev.AvatarURL != "" {
		rec.DiscordAvatarURL = &ev.AvatarURL
	}
	switch res.Kind {
	case invites.KindMatched:
		rec.InviterID = &res.InviterID
		rec.InviterUsername = &res.InviterUsername
		rec.InviteCode = &res.InviteCode
	case invites.KindVanityMatched:
		rec.InviteCode = &res.InviteCode
	case invites.KindUnknown:
		// The inviter-absent case still knows which code was consumed.
		if res.InviteCode != "" {
			rec.InviteCode = &res.InviteCode
		}
	}

	rec, err := c.db.InsertJoinRecord(ctx, rec)
	if err != nil {
		return models.JoinRecord{}, fmt.Errorf("error persisting join: %s", err)
	}

	c.notifyJoin(ctx, ev)

	return rec, nil
}

// attribute runs the snapshot diff for one join and advances the cache.
// The cache is replaced whenever a fresh snapshot was fetched, regardless
// of the attribution outcome, so a run of unknowns cannot wedge the
// baseline.
func (c Core) attribute(ctx context.Context, guildID string) invites.Result {
	if !c.client.HasManageInvitesPermission(guildID) {
		return invites.Unknown(invites.ReasonNoPermission)
	}

	fresh, err := c.client.FetchInvites(ctx, guildID)
	if err != nil {
		c.l.Warnw("could not fetch invites for join", "guild_id", guildID, "err", err)
		return invites.Unknown(invites.ReasonNoCountIncrease)
	}

	var old *invites.Snapshot
	snap, ok := c.cache.Get(guildID)
	if ok {
		old = &snap
	}

	res := invites.Attribute(old, fresh, "", nil)

	// Vanity is only consulted when no regular code moved, so the extra
	// fetch is skipped on the common path.
	var fetchedVanity *int
	vanityCode := c.client.VanityCode(guildID)
	if res.Reason == invites.ReasonNoCountIncrease && vanityCode != "" {
		uses, err := c.client.FetchVanityUses(ctx, guildID)
		if err != nil {
			c.l.Warnw("could not fetch vanity uses for join", "guild_id", guildID, "err", err)
		} else {
			fetchedVanity = &uses
		}
		res = invites.Attribute(old, fresh, vanityCode, fetchedVanity)
	}

	vanityUses := 0
	if ok {
		vanityUses = snap.VanityUses
	}
	if fetchedVanity != nil {
		vanityUses = *fetchedVanity
	}
	c.cache.Replace(guildID, invites.NewSnapshot(fresh, vanityUses))

	return res
}

// notifyJoin sends the welcome message and applies the auto-role. Both are
// best effort: a failed send must never block or roll back attribution.
func (c Core) notifyJoin(ctx context.Context, ev JoinEvent) {
	cfg, err := c.GuildConfig(ctx, ev.GuildID)
	if err != nil {
		c.l.Errorw("could not load guild config for welcome", "guild_id", ev.GuildID, "err", err)
		return
	}

	if cfg.WelcomeChannelID != nil && *cfg.WelcomeChannelID != "" {
		if err := c.client.SendWelcome(*cfg.WelcomeChannelID, cfg, ev); err != nil {
			c.l.Errorw("could not send welcome message", "guild_id", ev.GuildID, "user_id", ev.UserID, "err", err)
		}
	}

	if cfg.AutoRoleID != nil && *cfg.AutoRoleID != "" {
		if err := c.client.AddMemberRole(ev.GuildID, ev.UserID, *cfg.AutoRoleID); err != nil {
			c.l.Errorw("could not assign auto role", "guild_id", ev.GuildID, "user_id", ev.UserID, "err", err)
		}
	}
}

// Leaderboard returns the top inviters by attributed joins.
func (c Core) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	entries, err := c.db.Leaderboard(ctx, leaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("error getting leaderboard: %s", err)
	}

	return entries, nil
}

// RecentJoins returns the latest join records, newest first.
func (c Core) RecentJoins(ctx context.Context) ([]models.JoinRecord, error) {
	recs, err := c.db.ListRecentJoinRecords(ctx, recentJoinsLimit)
	if err != nil {
		return nil, fmt.Errorf("error getting recent joins: %s", err)
	}

	return recs, nil
}

// JoinsByInviter returns every join attributed to one inviter.
func (c Core) JoinsByInviter(ctx context.Context, inviterID string) ([]models.JoinRecord, error) {
	recs, err := c.db.ListJoinRecordsByInviter(ctx, inviterID)
	if err != nil {
		return nil, fmt.Errorf("error getting joins by inviter: %s", err)
	}

	return recs, nil
}

// GuildConfig returns the guild's stored config, or the defaults when the
// guild was never configured.
func (c Core) GuildConfig(ctx context.Context, guildID string) (models.GuildConfig, error) {
	cfg, err := c.db.GetGuildConfig(ctx, guildID)
	if err == db.ErrNotFound {
		return models.DefaultGuildConfig(guildID), nil
	}
	if err != nil {
		return models.GuildConfig{}, fmt.Errorf("error getting guild config: %s", err)
	}

	return cfg, nil
}

// UpdateGuildConfig applies a partial config update.
func (c Core) UpdateGuildConfig(ctx context.Context, patch models.GuildConfigPatch) (models.GuildConfig, error) {
	cfg, err := c.db.UpsertGuildConfig(ctx, patch)
	if err != nil {
		return models.GuildConfig{}, fmt.Errorf("error updating guild config: %s", err)
	}

	return cfg, nil
}

// SendPanel posts a role-selection panel through the platform client.
func (c Core) SendPanel(ctx context.Context, req PanelRequest) error {
	if err := c.client.SendPanel(ctx, req); err != nil {
		return fmt.Errorf("error sending panel: %s", err)
	}

	return nil
}
