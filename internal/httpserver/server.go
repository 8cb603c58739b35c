// internal/httpserver/server.go
//
// HTTP server wiring for the card table.
// Responsibilities:
//   - Router + middleware (access logs, JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/network".
//   - Wallet endpoints: challenge, connect, disconnect, me.
//   - Game endpoints (require a wallet): state, new, play, phase, end-turn, hand, shuffle.
//   - History endpoints (require a wallet): /games/mine, /stats/me.
//   - Websocket board stream: /game/ws.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - The websocket route sits outside the handler timeout.
//   - Tables are created lazily per wallet and started on the server's base
//     context, so shutdown stops their schedulers. Only /wallet/connect
//     connects one.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/cosmosStaker/secret-hand-showdown/internal/config"
	"github.com/cosmosStaker/secret-hand-showdown/internal/game"
	"github.com/cosmosStaker/secret-hand-showdown/internal/history"
	"github.com/cosmosStaker/secret-hand-showdown/internal/store"
	"github.com/cosmosStaker/secret-hand-showdown/internal/table"
	"github.com/cosmosStaker/secret-hand-showdown/internal/wallet"
)

// Server bundles router, table store, history and wallet challenges.
type Server struct {
	r          *chi.Mux
	cfg        config.Config
	tables     store.Store
	history    *history.Store // nil disables history routes' data
	recorder   table.Recorder
	challenges *wallet.Challenges
	upgrader   websocket.Upgrader
	base       context.Context
}

// New constructs a Server, installs middleware, and registers routes. ctx
// bounds every table scheduler the server starts.
func New(ctx context.Context, cfg config.Config, tables store.Store, hist *history.Store) *Server {
	s := &Server{
		r:          chi.NewRouter(),
		cfg:        cfg,
		tables:     tables,
		history:    hist,
		challenges: wallet.NewChallenges("Secret Hand Showdown", cfg.ChallengeTTL),
		base:       ctx,
	}
	if hist != nil {
		s.recorder = history.Recorder{Store: hist}
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))
	s.r.Use(requestIDLog)
	s.r.Use(hlog.AccessHandler(accessLog))
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(jsonContentType) // default JSON responses
	s.r.Use(s.cors)          // credentials-friendly CORS

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"secret-hand-showdown","endpoints":["/health","/network","/wallet/*","/game/*","/games/mine","/stats/me"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/network", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, s.cfg.Network)
		})

		s.mountWallet(r)
		s.mountGame(r)
		s.mountHistory(r)
	})

	s.r.With(s.requireWallet()).Get("/game/ws", s.handleWS)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", r.URL.Path)
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDLog copies chi's request id onto the request logger.
func requestIDLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
}

// checkOrigin admits same-origin requests, non-browser clients and the
// configured client origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || origin == s.cfg.ClientOrigin || origin == "http://"+r.Host || origin == "https://"+r.Host
}

// ------------------------------- tables ------------------------------------

// tableFor returns the wallet's table, creating and starting it on first use.
// A new table starts disconnected; only /wallet/connect connects it, so a
// token that outlives its table cannot reconnect the wallet.
func (s *Server) tableFor(ctx context.Context, sess *session) (*table.Table, error) {
	key := sess.Address.Hex()
	tb, created, err := s.tables.GetOrCreate(ctx, key, func() *table.Table {
		return table.New(table.Options{
			Owner:    key,
			Game:     game.Options{Rules: s.cfg.Rules, Seed: s.cfg.Seed, SeedSalt: s.cfg.SeedSalt},
			Recorder: s.recorder,
		})
	})
	if err != nil {
		return nil, err
	}
	if created {
		tb.Start(s.base, s.cfg.TickInterval)
		log.Info().Str("wallet", key).Msg("table opened")
	}
	return tb, nil
}

// SweepChallenges drops expired sign-in challenges every interval until ctx
// ends.
func (s *Server) SweepChallenges(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.challenges.Sweep(); n > 0 {
				log.Debug().Int("count", n).Msg("swept expired challenges")
			}
		}
	}
}

// ------------------------------- replies -----------------------------------

type errorRes struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorRes{Error: code, Message: message})
}

// writeGameError maps a game rule error to 409 and anything else to 500.
func writeGameError(w http.ResponseWriter, err error) {
	if game.IsRule(err) {
		writeError(w, http.StatusConflict, game.Code(err), game.NoticeText(err))
		return
	}
	log.Error().Err(err).Msg("game action")
	writeError(w, http.StatusInternalServerError, "internal", "")
}
