// Package models provides the structs exposed by the core package,
// but put in an independent package to break the dependency cycle
// between `core` and `db`
package models

import "time"

// A JoinRecord is the persisted fact that a user joined a guild, with the
// attributed inviter when one could be inferred. Inviter fields are nil
// when attribution resolved to unknown; InviteCode alone is set for vanity
// joins and for invites whose creator is gone.
type JoinRecord struct {
	ID               int64     `db:"id" json:"id"`
	DiscordUserID    string    `db:"discord_user_id" json:"discordUserId"`
	DiscordUsername  string    `db:"discord_username" json:"discordUsername"`
	DiscordAvatarURL *string   `db:"discord_avatar_url" json:"discordAvatarUrl"`
	InviterID        *string   `db:"inviter_id" json:"inviterId"`
	InviterUsername  *string   `db:"inviter_username" json:"inviterUsername"`
	InviteCode       *string   `db:"invite_code" json:"inviteCode"`
	JoinedAt         time.Time `db:"joined_at" json:"joinedAt"`
}

// A LeaderboardEntry is one row of the inviter leaderboard, derived from
// join records at read time and never stored.
type LeaderboardEntry struct {
	InviterID       string `db:"inviter_id" json:"inviterId"`
	InviterUsername string `db:"inviter_username" json:"inviterUsername"`
	Count           int    `db:"count" json:"count"`
}

// GuildConfig holds per-guild welcome and panel settings.
type GuildConfig struct {
	ID                 int64   `db:"id" json:"id"`
	GuildID            string  `db:"guild_id" json:"guildId"`
	WelcomeChannelID   *string `db:"welcome_channel_id" json:"welcomeChannelId"`
	Language           string  `db:"language" json:"language"`
	AutoRoleID         *string `db:"auto_role_id" json:"autoRoleId"`
	WelcomeTitle       string  `db:"welcome_title" json:"welcomeTitle"`
	WelcomeDescription string  `db:"welcome_description" json:"welcomeDescription"`
	WelcomeColor       string  `db:"welcome_color" json:"welcomeColor"`
	WelcomeThumbnail   string  `db:"welcome_thumbnail" json:"welcomeThumbnail"`
}

// A GuildConfigPatch is a partial config update: nil fields are left as
// they are (or as their defaults for a guild configured the first time).
type GuildConfigPatch struct {
	GuildID            string  `json:"guildId"`
	WelcomeChannelID   *string `json:"welcomeChannelId"`
	Language           *string `json:"language"`
	AutoRoleID         *string `json:"autoRoleId"`
	WelcomeTitle       *string `json:"welcomeTitle"`
	WelcomeDescription *string `json:"welcomeDescription"`
	WelcomeColor       *string `json:"welcomeColor"`
	WelcomeThumbnail   *string `json:"welcomeThumbnail"`
}

// DefaultGuildConfig is what a guild gets before anyone configures it.
func DefaultGuildConfig(guildID string) GuildConfig {
	return GuildConfig{
		GuildID:            guildID,
		Language:           "en",
		WelcomeTitle:       "Welcome to the Server",
		WelcomeDescription: "Welcome! We hope you have a great time here.",
		WelcomeColor:       "#5865F2",
		WelcomeThumbnail:   "true",
	}
}
