// internal/httpserver/routes_game.go
//
// HTTP routes for the table. Every mutation goes through Table.Do, so the
// response board reflects exactly the state after the action.
//   - GET  /game/state        → page shell (board only while connected)
//   - POST /game/new          → fresh deal, intro restarts
//   - POST /game/play         → play a card from the hand
//   - POST /game/phase        → main ⇄ combat
//   - POST /game/end-turn     → end the player's turn early
//   - POST /game/hand/toggle  → reveal / hide the hand
//   - POST /game/shuffle      → reorder the hand
//
// Rule violations answer 409 with {"error":code,"message":text}.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cosmosStaker/secret-hand-showdown/internal/game"
	"github.com/cosmosStaker/secret-hand-showdown/internal/store"
	"github.com/cosmosStaker/secret-hand-showdown/internal/table"
	"github.com/cosmosStaker/secret-hand-showdown/internal/view"
)

func (s *Server) mountGame(r chi.Router) {
	r.With(s.withOptionalAuth()).Get("/game/state", s.handleState)
	r.Group(func(r chi.Router) {
		r.Use(s.requireWallet())
		r.Post("/game/new", s.handleNewGame)
		r.Post("/game/play", s.handlePlay)
		r.Post("/game/phase", s.handlePhase)
		r.Post("/game/end-turn", s.handleEndTurn)
		r.Post("/game/hand/toggle", s.handleToggleHand)
		r.Post("/game/shuffle", s.handleShuffle)
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if sess == nil {
		writeJSON(w, http.StatusOK, view.Disconnected())
		return
	}
	wv := view.NewWallet(sess.Address, sess.ChainID)
	tb, err := s.tables.Get(r.Context(), sess.Address.Hex())
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusOK, view.NewShell(wv, nil))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_failed", "")
		return
	}
	var shell view.Shell
	tb.Read(func(g *game.Game) { shell = view.NewShell(wv, g) })
	writeJSON(w, http.StatusOK, shell)
}

// table resolves the caller's table or writes a 500.
func (s *Server) table(w http.ResponseWriter, r *http.Request) (*table.Table, bool) {
	tb, err := s.tableFor(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "table_failed", "")
		return nil, false
	}
	return tb, true
}

type boardRes struct {
	Board view.Board `json:"board"`
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	tb, ok := s.table(w, r)
	if !ok {
		return
	}
	tb.Reset()
	writeJSON(w, http.StatusOK, boardRes{Board: tb.Board()})
}

type playReq struct {
	CardID string `json:"cardId"`
}

type playRes struct {
	Card  game.BattlefieldCard `json:"card"`
	Board view.Board           `json:"board"`
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req playReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CardID == "" {
		writeError(w, http.StatusBadRequest, "bad_json", "cardId is required")
		return
	}
	tb, ok := s.table(w, r)
	if !ok {
		return
	}
	var res playRes
	err := tb.Do(func(g *game.Game) error {
		card, err := g.PlayCard(req.CardID)
		res = playRes{Card: card, Board: view.NewBoard(g)}
		return err
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type phaseRes struct {
	Phase game.Phase `json:"phase"`
	Board view.Board `json:"board"`
}

func (s *Server) handlePhase(w http.ResponseWriter, r *http.Request) {
	tb, ok := s.table(w, r)
	if !ok {
		return
	}
	var res phaseRes
	err := tb.Do(func(g *game.Game) error {
		p, err := g.AdvancePhase()
		res = phaseRes{Phase: p, Board: view.NewBoard(g)}
		return err
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEndTurn(w http.ResponseWriter, r *http.Request) {
	s.boardAction(w, r, (*game.Game).EndTurn)
}

func (s *Server) handleShuffle(w http.ResponseWriter, r *http.Request) {
	s.boardAction(w, r, (*game.Game).Shuffle)
}

type handRes struct {
	ShowHand bool       `json:"showHand"`
	Board    view.Board `json:"board"`
}

func (s *Server) handleToggleHand(w http.ResponseWriter, r *http.Request) {
	tb, ok := s.table(w, r)
	if !ok {
		return
	}
	var res handRes
	err := tb.Do(func(g *game.Game) error {
		shown, err := g.ToggleHand()
		res = handRes{ShowHand: shown, Board: view.NewBoard(g)}
		return err
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// boardAction runs a game method that returns only an error and replies
// with the resulting board.
func (s *Server) boardAction(w http.ResponseWriter, r *http.Request, action func(*game.Game) error) {
	tb, ok := s.table(w, r)
	if !ok {
		return
	}
	var res boardRes
	err := tb.Do(func(g *game.Game) error {
		err := action(g)
		res.Board = view.NewBoard(g)
		return err
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
