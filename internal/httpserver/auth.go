// internal/httpserver/auth.go
//
// Wallet sessions.
// Responsibilities:
//   - Sign and verify HS256 JWTs whose subject is the checksummed address.
//   - Read the token from "Authorization: Bearer" or the session cookie.
//   - Optional and required wallet middleware.
//
// Notes:
//   - Cookies are Secure + SameSite=None in production, Lax otherwise.
//   - A token only proves the address; the table still tracks whether the
//     wallet is connected.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cosmosStaker/secret-hand-showdown/internal/wallet"
)

// session is placed into request context by the auth middleware.
type session struct {
	Address wallet.Address
	ChainID int64
}

// ctxWalletKey is the context key type for storing *session.
type ctxWalletKey struct{}

func sessionFrom(ctx context.Context) *session {
	s, _ := ctx.Value(ctxWalletKey{}).(*session)
	return s
}

var errInvalidToken = errors.New("invalid token")

// signJWT creates an HS256 JWT for addr on chainID.
func (s *Server) signJWT(addr wallet.Address, chainID int64) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.cfg.JWTExpires)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   addr.Hex(),
		"chain": chainID,
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	})
	ss, err := t.SignedString([]byte(s.cfg.JWTSecret))
	return ss, exp, err
}

// parseJWT validates tok and returns its session.
func (s *Server) parseJWT(tok string) (*session, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return nil, errInvalidToken
	}
	sub, _ := claims["sub"].(string)
	addr, err := wallet.ParseAddress(sub)
	if err != nil {
		return nil, errInvalidToken
	}
	chain, _ := claims["chain"].(float64)
	if err := s.cfg.Network.CheckChain(int64(chain)); err != nil {
		return nil, errInvalidToken
	}
	return &session{Address: addr, ChainID: int64(chain)}, nil
}

// withOptionalAuth decorates requests with the wallet session if a valid JWT
// is present. It never 401s.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := s.bearerOrCookie(r); tok != "" {
				if sess, err := s.parseJWT(tok); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), ctxWalletKey{}, sess))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireWallet enforces a valid JWT and injects the session.
func (s *Server) requireWallet() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := s.bearerOrCookie(r)
			if tok == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Connect your wallet first!")
				return
			}
			sess, err := s.parseJWT(tok)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid_token", "Session expired, reconnect your wallet.")
				return
			}
			ctx := context.WithValue(r.Context(), ctxWalletKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *Server) cookieSecurity() (bool, http.SameSite) {
	if s.cfg.Production() {
		return true, http.SameSiteNoneMode // required for cross-site use when Secure
	}
	return false, http.SameSiteLaxMode
}

// setAuthCookie writes the session cookie.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	secure, sameSite := s.cookieSecurity()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// clearAuthCookie deletes the session cookie.
func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	secure, sameSite := s.cookieSecurity()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   -1,
	})
}

// bearerOrCookie extracts a token from the Authorization header or cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}
