// Package dashserv provides the http server the dashboard consumes
// with logging and other necessary things
package dashserv

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/onyxroyal/invitedash/internal/core"
	"github.com/onyxroyal/invitedash/internal/core/models"
)

type Config struct {
	Port        int
	TLSCertFile string
	TLSKeyFile  string
}

type Server struct {
	*http.Server

	cr core.Core
	l  *zap.SugaredLogger
}

func New(l *zap.SugaredLogger, c Config, cr core.Core) (*Server, error) {
	r := mux.NewRouter()

	s := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", c.Port),
			Handler:      r,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		cr: cr,
		l:  l,
	}

	if c.TLSCertFile != "" && c.TLSKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(c.TLSCertFile, c.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("error loading tls keypair: %s", err)
		}
		s.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}

	r.HandleFunc("/api/logs", s.handleListLogs()).Methods(http.MethodGet)
	r.HandleFunc("/api/leaderboard", s.handleLeaderboard()).Methods(http.MethodGet)
	r.HandleFunc("/api/config/{guildID}", s.handleGetConfig()).Methods(http.MethodGet)
	r.HandleFunc("/api/config", s.handleUpdateConfig()).Methods(http.MethodPost)
	r.HandleFunc("/api/bot/send-panel", s.handleSendPanel()).Methods(http.MethodPost)
	r.HandleFunc("/healthz", handleHealthCheck()).Methods(http.MethodGet)

	r.Use(loggingMiddleware(l))

	return s, nil
}

func loggingMiddleware(l *zap.SugaredLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.RequestURI == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			l.Infow("request received", "uri", r.RequestURI, "method", r.Method)

			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Add("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.l.Errorw("error encoding response", "err", err)
	}
}

func (s *Server) handleListLogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := s.cr.RecentJoins(r.Context())
		if err != nil {
			http.Error(w, fmt.Sprintf("error listing joins: %s", err), http.StatusInternalServerError)
			return
		}

		s.writeJSON(w, recs)
	}
}

func (s *Server) handleLeaderboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := s.cr.Leaderboard(r.Context())
		if err != nil {
			http.Error(w, fmt.Sprintf("error getting leaderboard: %s", err), http.StatusInternalServerError)
			return
		}

		s.writeJSON(w, entries)
	}
}

func (s *Server) handleGetConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guildID := mux.Vars(r)["guildID"]

		cfg, err := s.cr.GuildConfig(r.Context(), guildID)
		if err != nil {
			http.Error(w, fmt.Sprintf("error getting config: %s", err), http.StatusInternalServerError)
			return
		}

		s.writeJSON(w, cfg)
	}
}

func (s *Server) handleUpdateConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch models.GuildConfigPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, fmt.Sprintf("error decoding: %s", err), http.StatusBadRequest)
			return
		}
		if patch.GuildID == "" {
			http.Error(w, "guildId is required", http.StatusBadRequest)
			return
		}

		cfg, err := s.cr.UpdateGuildConfig(r.Context(), patch)
		if err != nil {
			http.Error(w, fmt.Sprintf("error updating config: %s", err), http.StatusInternalServerError)
			return
		}

		s.writeJSON(w, cfg)
	}
}

func (s *Server) handleSendPanel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req core.PanelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("error decoding: %s", err), http.StatusBadRequest)
			return
		}
		if req.ChannelID == "" {
			http.Error(w, "channelId is required", http.StatusBadRequest)
			return
		}

		if err := s.cr.SendPanel(r.Context(), req); err != nil {
			http.Error(w, fmt.Sprintf("error sending panel: %s", err), http.StatusInternalServerError)
			return
		}

		s.writeJSON(w, map[string]bool{"success": true})
	}
}

func handleHealthCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {}
}
