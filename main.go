/*
Invitedash runs a Discord bot that attributes new-member joins to the
invite link that brought them, keeps a leaderboard of top inviters, and
serves the dashboard API on top of the join history.

It takes in no flags but multiple environment variables that are documented
in the README. It will not serve TLS by default, but can be enabled if a
cert and key file are provided.

It's backed by a SQLite DB, but does not reqire CGO to compile. There are migrations
in the repo that are run on startup before the server listens to connections.
*/
package main

import (
	"context"
	"embed"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"go.uber.org/zap/zapcore"
	_ "modernc.org/sqlite"

	"github.com/onyxroyal/invitedash/internal/core"
	"github.com/onyxroyal/invitedash/internal/core/db"
	"github.com/onyxroyal/invitedash/internal/dashserv"
	"github.com/onyxroyal/invitedash/internal/discord"
	"github.com/onyxroyal/invitedash/internal/invites"
	"github.com/onyxroyal/invitedash/internal/logging"
)

//go:embed migrate/*
var f embed.FS

func main() {
	l := logging.NewLogger()
	defer func() {
		if err := l.Sync(); err != nil {
			log.Fatalf("error syncing logger: %s", err)
		}
	}()

	// A .env file is optional, envconfig reads whatever is set.
	_ = godotenv.Load()

	l.Debug("parsing config...")
	var cfg config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		l.Fatalf("error parsing config: %s", err)
	}
	l.Infow("parsed config", "config", cfg)

	// Connect to the database
	sqlDB, err := setupDB(cfg)
	if err != nil {
		l.Fatalf("error opening db: %s", err)
	}
	defer sqlDB.Close()
	d := db.New(sqlDB)

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		l.Fatalf("error creating discord session: %s", err)
	}

	// The snapshot cache lives exactly as long as this session.
	cache := invites.NewCache()

	dCli := discord.NewClient(session, l.Named("discord_client"))
	cr := core.New(d, cache, dCli, l.Named("core"))

	bot := discord.NewBot(session, cr, cache, discord.BotConfig{
		AppID:        cfg.DiscordAppID,
		SkipRegister: cfg.SkipRegister,
	}, l.Named("discord"))

	if err := bot.Start(); err != nil {
		l.Fatalf("error starting bot: %s", err)
	}
	defer func() {
		if err := bot.Stop(); err != nil {
			l.Errorw("error closing discord session", "err", err)
		}
	}()

	s, err := dashserv.New(
		l.Named("dashserv"),
		dashserv.Config{
			Port:        cfg.Port,
			TLSCertFile: cfg.TLSCertFile,
			TLSKeyFile:  cfg.TLSKeyFile,
		},
		cr,
	)
	if err != nil {
		l.Fatalf("error creating dashboard server: %s", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		l.Infof("serving on port %d", cfg.Port)
		if s.TLSConfig != nil {
			serveErr <- s.ListenAndServeTLS("", "")
		} else {
			serveErr <- s.ListenAndServe()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		l.Errorw("error while serving", "err", err)
	case sig := <-sigChan:
		l.Infow("shutting down", "signal", sig.String())
		if err := s.Shutdown(context.Background()); err != nil {
			l.Errorw("error shutting down server", "err", err)
		}
	}
}

type config struct {
	// Server
	Port        int    `env:"PORT"`
	TLSCertFile string `env:"TLS_CERT_FILE"`
	TLSKeyFile  string `env:"TLS_KEY_FILE"`

	// Database
	DBPath string `env:"DB_PATH"`

	// Discord stuffs
	DiscordToken string `env:"DISCORD_TOKEN"`
	DiscordAppID string `env:"DISCORD_APP_ID"`
	// If we should not try to register commands with discord
	SkipRegister bool `env:"SKIP_REGISTER"`
}

func (c config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("port", c.Port)
	enc.AddString("db_path", c.DBPath)
	enc.AddString("tls_cert_file", c.TLSCertFile)
	enc.AddString("tls_key_file", c.TLSKeyFile)
	enc.AddString("discord_app_id", c.DiscordAppID)
	enc.AddBool("skip_register", c.SkipRegister)

	return nil
}

// Connects to the db and migrates it
func setupDB(c config) (*sqlx.DB, error) {
	u, err := url.Parse(c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error parsing db path: %s", err)
	}
	q := u.Query()
	q.Add("_journal", "WAL")
	u.RawQuery = q.Encode()

	db, err := sqlx.Open("sqlite", u.String())
	if err != nil {
		return nil, fmt.Errorf("error opening db: %s", err)
	}

	// Perform migrations
	ups, err := f.ReadDir("migrate")
	if err != nil {
		return nil, fmt.Errorf("error reading migration dir: %s", err)
	}

	for _, up := range ups {
		if up.IsDir() {
			continue
		}

		if !strings.HasSuffix(up.Name(), "sql") {
			continue
		}

		upBytes, err := f.ReadFile(filepath.Join("migrate", up.Name()))
		if err != nil {
			return nil, fmt.Errorf("error reading up file: %s", err)
		}

		_, err = db.Exec(string(upBytes))
		if err != nil {
			return nil, fmt.Errorf("error executing up query for file %s: %s", up.Name(), err)
		}
	}

	return db, nil
}
