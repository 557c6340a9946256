package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/onyxroyal/invitedash/internal/core/models"
)

// A DB struct holds the connection to sqlite and provides methods for interacting with
// persistent storage
type DB struct {
	db *sqlx.DB
}

// New creates an instance of our repository using the provided connection
func New(db *sqlx.DB) DB {
	return DB{
		db: db,
	}
}

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// InsertJoinRecord persists a join record, filling in the generated id and
// the join timestamp.
func (db DB) InsertJoinRecord(ctx context.Context, rec models.JoinRecord) (models.JoinRecord, error) {
	q := `
	INSERT INTO join_logs(discord_user_id, discord_username, discord_avatar_url, inviter_id, inviter_username, invite_code, joined_at)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`

	rec.JoinedAt = time.Now().UTC()
	res, err := db.db.ExecContext(ctx, q,
		rec.DiscordUserID,
		rec.DiscordUsername,
		rec.DiscordAvatarURL,
		rec.InviterID,
		rec.InviterUsername,
		rec.InviteCode,
		rec.JoinedAt,
	)
	if err != nil {
		return models.JoinRecord{}, fmt.Errorf("error inserting join_log: %s", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.JoinRecord{}, fmt.Errorf("error reading inserted id: %s", err)
	}
	rec.ID = id

	return rec, nil
}

// ListRecentJoinRecords returns the most recent joins, newest first.
func (db DB) ListRecentJoinRecords(ctx context.Context, limit int) ([]models.JoinRecord, error) {
	q := `
	SELECT * FROM join_logs ORDER BY joined_at DESC, id DESC LIMIT ?;
	`

	recs := make([]models.JoinRecord, 0, limit)
	if err := db.db.SelectContext(ctx, &recs, q, limit); err != nil {
		return nil, fmt.Errorf("error retrieving join_logs: %s", err)
	}

	return recs, nil
}

// ListJoinRecordsByInviter returns every join attributed to the inviter,
// newest first.
func (db DB) ListJoinRecordsByInviter(ctx context.Context, inviterID string) ([]models.JoinRecord, error) {
	q := `
	SELECT * FROM join_logs WHERE inviter_id = ? ORDER BY joined_at DESC, id DESC;
	`

	var recs []models.JoinRecord
	if err := db.db.SelectContext(ctx, &recs, q, inviterID); err != nil {
		return nil, fmt.Errorf("error retrieving join_logs for inviter: %s", err)
	}

	return recs, nil
}

// Leaderboard recomputes the inviter leaderboard from the join history.
// Ties keep the order inviters first appeared in.
func (db DB) Leaderboard(ctx context.Context, top int) ([]models.LeaderboardEntry, error) {
	q := `
	SELECT inviter_id, inviter_username, COUNT(*) AS count
	FROM join_logs
	WHERE inviter_id IS NOT NULL
	GROUP BY inviter_id, inviter_username
	ORDER BY COUNT(*) DESC, MIN(id) ASC
	LIMIT ?;
	`

	entries := make([]models.LeaderboardEntry, 0, top)
	if err := db.db.SelectContext(ctx, &entries, q, top); err != nil {
		return nil, fmt.Errorf("error retrieving leaderboard: %s", err)
	}

	return entries, nil
}

// GetGuildConfig returns the stored config for a guild, or ErrNotFound.
func (db DB) GetGuildConfig(ctx context.Context, guildID string) (models.GuildConfig, error) {
	q := `
	SELECT * FROM guild_config WHERE guild_id = ? LIMIT 1;
	`

	cfg := models.GuildConfig{}
	if err := db.db.GetContext(ctx, &cfg, q, guildID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.GuildConfig{}, ErrNotFound
		}
		return models.GuildConfig{}, fmt.Errorf("error retrieving guild_config: %s", err)
	}

	return cfg, nil
}

// UpsertGuildConfig applies a partial update over the stored config, or
// over the defaults when the guild has none yet.
func (db DB) UpsertGuildConfig(ctx context.Context, patch models.GuildConfigPatch) (models.GuildConfig, error) {
	cfg, err := db.GetGuildConfig(ctx, patch.GuildID)
	if errors.Is(err, ErrNotFound) {
		cfg = models.DefaultGuildConfig(patch.GuildID)
	} else if err != nil {
		return models.GuildConfig{}, err
	}

	if patch.WelcomeChannelID != nil {
		cfg.WelcomeChannelID = patch.WelcomeChannelID
	}
	if patch.Language != nil {
		cfg.Language = *patch.Language
	}
	if patch.AutoRoleID != nil {
		cfg.AutoRoleID = patch.AutoRoleID
	}
	if patch.WelcomeTitle != nil {
		cfg.WelcomeTitle = *patch.WelcomeTitle
	}
	if patch.WelcomeDescription != nil {
		cfg.WelcomeDescription = *patch.WelcomeDescription
	}
	if patch.WelcomeColor != nil {
		cfg.WelcomeColor = *patch.WelcomeColor
	}
	if patch.WelcomeThumbnail != nil {
		cfg.WelcomeThumbnail = *patch.WelcomeThumbnail
	}

	q := `
	INSERT INTO guild_config(guild_id, welcome_channel_id, language, auto_role_id, welcome_title, welcome_description, welcome_color, welcome_thumbnail)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(guild_id) DO UPDATE SET
		welcome_channel_id=excluded.welcome_channel_id,
		language=excluded.language,
		auto_role_id=excluded.auto_role_id,
		welcome_title=excluded.welcome_title,
		welcome_description=excluded.welcome_description,
		welcome_color=excluded.welcome_color,
		welcome_thumbnail=excluded.welcome_thumbnail;
	`
	if _, err := db.db.ExecContext(ctx, q,
		cfg.GuildID,
		cfg.WelcomeChannelID,
		cfg.Language,
		cfg.AutoRoleID,
		cfg.WelcomeTitle,
		cfg.WelcomeDescription,
		cfg.WelcomeColor,
		cfg.WelcomeThumbnail,
	); err != nil {
		return models.GuildConfig{}, fmt.Errorf("error upserting guild_config: %s", err)
	}

	return db.GetGuildConfig(ctx, patch.GuildID)
}
