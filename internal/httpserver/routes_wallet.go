// internal/httpserver/routes_wallet.go
//
// HTTP routes for wallet connection.
//   - POST /wallet/challenge  → one-time sign-in message for an address
//   - POST /wallet/connect    → verify the signature, set the session cookie, connect the table
//   - POST /wallet/disconnect → disconnect the table, clear the cookie
//   - GET  /wallet/me         → connected wallet summary
//
// With WALLET_REQUIRE_SIGNATURE=false, connect accepts a bare address (mock
// wallet mode) and no challenge is needed.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/cosmosStaker/secret-hand-showdown/internal/game"
	"github.com/cosmosStaker/secret-hand-showdown/internal/store"
	"github.com/cosmosStaker/secret-hand-showdown/internal/view"
	"github.com/cosmosStaker/secret-hand-showdown/internal/wallet"
)

func (s *Server) mountWallet(r chi.Router) {
	r.Route("/wallet", func(r chi.Router) {
		r.Post("/challenge", s.handleChallenge)
		r.Post("/connect", s.handleConnect)
		r.With(s.requireWallet()).Post("/disconnect", s.handleDisconnect)
		r.With(s.requireWallet()).Get("/me", func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFrom(r.Context())
			writeJSON(w, http.StatusOK, view.NewWallet(sess.Address, sess.ChainID))
		})
	})
}

type challengeReq struct {
	Address string `json:"address"`
	ChainID int64  `json:"chainId"`
}

type challengeRes struct {
	Nonce     string    `json:"nonce"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	var req challengeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "")
		return
	}
	addr, chainID, ok := s.parseWallet(w, req.Address, req.ChainID)
	if !ok {
		return
	}
	ch := s.challenges.Issue(addr, chainID)
	writeJSON(w, http.StatusOK, challengeRes{Nonce: ch.Nonce, Message: ch.Message, ExpiresAt: ch.ExpiresAt})
}

type connectReq struct {
	Address   string `json:"address"`
	ChainID   int64  `json:"chainId"`
	Nonce     string `json:"nonce"`
	Signature string `json:"signature"`
}

type connectRes struct {
	view.Shell
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "")
		return
	}
	addr, chainID, ok := s.parseWallet(w, req.Address, req.ChainID)
	if !ok {
		return
	}

	if s.cfg.RequireSignature {
		ch, err := s.challenges.Consume(addr, req.Nonce)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_challenge", "Sign-in request expired, try again.")
			return
		}
		if err := wallet.Verify(addr, ch.Message, req.Signature); err != nil {
			log.Info().Err(err).Str("wallet", addr.Hex()).Msg("signature rejected")
			writeError(w, http.StatusUnauthorized, "invalid_signature", "Signature does not match this wallet.")
			return
		}
	}

	tok, exp, err := s.signJWT(addr, chainID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed", "")
		return
	}
	s.setAuthCookie(w, tok, exp)

	if s.history != nil {
		if err := s.history.TouchWallet(r.Context(), addr.Hex(), chainID); err != nil {
			log.Warn().Err(err).Str("wallet", addr.Hex()).Msg("touch wallet")
		}
	}

	sess := &session{Address: addr, ChainID: chainID}
	tb, err := s.tableFor(r.Context(), sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "table_failed", "")
		return
	}
	var shell view.Shell
	_ = tb.Do(func(g *game.Game) error {
		g.Connect()
		shell = view.NewShell(view.NewWallet(addr, chainID), g)
		return nil
	})
	log.Info().Str("wallet", addr.Hex()).Int64("chain", chainID).Msg("wallet connected")
	writeJSON(w, http.StatusOK, connectRes{Shell: shell, Token: tok, ExpiresAt: exp})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	tb, err := s.tables.Get(r.Context(), sess.Address.Hex())
	if err == nil {
		_ = tb.Do(func(g *game.Game) error { g.Disconnect(); return nil })
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Warn().Err(err).Msg("disconnect lookup")
	}
	s.clearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// parseWallet validates an address and chain id, writing a 400 on failure.
// A zero chain id means the configured chain.
func (s *Server) parseWallet(w http.ResponseWriter, address string, chainID int64) (wallet.Address, int64, bool) {
	addr, err := wallet.ParseAddress(address)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_address", "That is not a valid wallet address.")
		return wallet.Address{}, 0, false
	}
	if chainID == 0 {
		chainID = s.cfg.Network.ChainID
	}
	if err := s.cfg.Network.CheckChain(chainID); err != nil {
		writeError(w, http.StatusBadRequest, "wrong_network", "Wrong network")
		return wallet.Address{}, 0, false
	}
	return addr, chainID, true
}
