package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/cosmosStaker/secret-hand-showdown/internal/history"
)

// mountHistory registers /games/mine and /stats/me. Without a history store
// both answer with empty results.
func (s *Server) mountHistory(r chi.Router) {
	r.With(s.requireWallet()).Get("/games/mine", func(w http.ResponseWriter, r *http.Request) {
		if s.history == nil {
			writeJSON(w, http.StatusOK, []history.GameRecord{})
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit > 50 {
			limit = 50
		}
		games, err := s.history.ListGames(r.Context(), sessionFrom(r.Context()).Address.Hex(), limit)
		if err != nil {
			log.Error().Err(err).Msg("list games")
			writeError(w, http.StatusInternalServerError, "db_error", "")
			return
		}
		writeJSON(w, http.StatusOK, games)
	})

	r.With(s.requireWallet()).Get("/stats/me", func(w http.ResponseWriter, r *http.Request) {
		addr := sessionFrom(r.Context()).Address.Hex()
		if s.history == nil {
			writeJSON(w, http.StatusOK, history.WalletStats{Address: addr})
			return
		}
		st, err := s.history.Stats(r.Context(), addr)
		if err != nil {
			log.Error().Err(err).Msg("wallet stats")
			writeError(w, http.StatusInternalServerError, "db_error", "")
			return
		}
		writeJSON(w, http.StatusOK, st)
	})
}
