package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmosStaker/secret-hand-showdown/assets"
	"github.com/cosmosStaker/secret-hand-showdown/internal/config"
	"github.com/cosmosStaker/secret-hand-showdown/internal/game"
	"github.com/cosmosStaker/secret-hand-showdown/internal/history"
	"github.com/cosmosStaker/secret-hand-showdown/internal/store"
	"github.com/cosmosStaker/secret-hand-showdown/internal/view"
	"github.com/cosmosStaker/secret-hand-showdown/internal/wallet"
)

const mockAddr = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func testConfig() config.Config {
	rules := game.DefaultRules()
	rules.Cost = game.Range{Min: 1, Max: 1}
	rules.Intro = []game.Step{
		{After: 10 * time.Millisecond, Phase: game.PhaseShuffling},
		{After: 10 * time.Millisecond, Phase: game.PhaseDrawing},
		{After: 10 * time.Millisecond, Phase: game.PhasePlaying},
	}
	return config.Config{
		Env:              "development",
		Port:             "0",
		ClientOrigin:     "http://localhost:5173",
		JWTSecret:        "test-secret",
		JWTExpires:       time.Hour,
		CookieName:       "showdown_token",
		RequireSignature: true,
		ChallengeTTL:     time.Minute,
		TickInterval:     5 * time.Millisecond,
		SeedSalt:         "test",
		Network:          wallet.Sepolia(),
		Rules:            rules,
	}
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *httptest.Server {
	t.Helper()
	ts, _ := newTestServerWithStore(t, mutate)
	return ts
}

func newTestServerWithStore(t *testing.T, mutate func(*config.Config)) (*httptest.Server, store.Store) {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	db, err := history.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, history.Migrate(db, assets.Migrations))

	ctx, cancel := context.WithCancel(context.Background())
	tables := store.NewMemoryStore()
	srv := New(ctx, cfg, tables, history.New(db))
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		store.StopAll(context.Background(), tables)
		_ = db.Close()
	})
	return ts, tables
}

func mockWallet(c *config.Config) { c.RequireSignature = false }

// call sends a JSON request and decodes the JSON reply into out (if non-nil).
func call(t *testing.T, ts *httptest.Server, method, path, token string, body any, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res
}

type connectReply struct {
	view.Shell
	Token string `json:"token"`
}

func connectMock(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	var res connectReply
	r := call(t, ts, http.MethodPost, "/wallet/connect", "", map[string]any{"address": mockAddr}, &res)
	require.Equal(t, http.StatusOK, r.StatusCode)
	require.NotEmpty(t, res.Token)
	return res.Token
}

func state(t *testing.T, ts *httptest.Server, token string) view.Shell {
	t.Helper()
	var sh view.Shell
	r := call(t, ts, http.MethodGet, "/game/state", token, nil, &sh)
	require.Equal(t, http.StatusOK, r.StatusCode)
	return sh
}

func waitPlaying(t *testing.T, ts *httptest.Server, token string) {
	t.Helper()
	require.Eventually(t, func() bool {
		sh := state(t, ts, token)
		return sh.Board != nil && sh.Board.Phase.Phase == game.PhasePlaying
	}, 3*time.Second, 10*time.Millisecond)
}

func TestPublicRoutes(t *testing.T) {
	ts := newTestServer(t, nil)

	var health map[string]bool
	res := call(t, ts, http.MethodGet, "/health", "", nil, &health)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, health["ok"])

	var n wallet.Network
	call(t, ts, http.MethodGet, "/network", "", nil, &n)
	assert.Equal(t, int64(11155111), n.ChainID)
	assert.Equal(t, "https://1rpc.io/sepolia", n.AltRPCURL)

	var nf errorRes
	res = call(t, ts, http.MethodGet, "/nope", "", nil, &nf)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "not_found", nf.Error)

	res = call(t, ts, http.MethodOptions, "/wallet/connect", "", nil, nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Equal(t, "http://localhost:5173", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestSignedConnect(t *testing.T) {
	ts := newTestServer(t, nil)
	key, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	addr := wallet.PubkeyAddress(key.PubKey())

	var ch challengeRes
	res := call(t, ts, http.MethodPost, "/wallet/challenge", "", map[string]any{"address": addr.Hex(), "chainId": 11155111}, &ch)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotEmpty(t, ch.Nonce)
	assert.Contains(t, ch.Message, addr.Hex())

	body := map[string]any{
		"address":   strings.ToLower(addr.Hex()),
		"chainId":   11155111,
		"nonce":     ch.Nonce,
		"signature": wallet.SignPersonal(key, ch.Message),
	}
	var cr connectReply
	res = call(t, ts, http.MethodPost, "/wallet/connect", "", body, &cr)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, cr.Connected)
	require.NotNil(t, cr.Wallet)
	assert.Equal(t, addr.Hex(), cr.Wallet.Address)
	assert.Equal(t, addr.Short(), cr.Wallet.Display)
	require.NotNil(t, cr.Board)
	assert.Len(t, cr.Board.PlayerHand, 7)

	var cookie *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == "showdown_token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	// The nonce is single use.
	var er errorRes
	res = call(t, ts, http.MethodPost, "/wallet/connect", "", body, &er)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "invalid_challenge", er.Error)

	var me view.Wallet
	res = call(t, ts, http.MethodGet, "/wallet/me", cr.Token, nil, &me)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, addr.Hex(), me.Address)
	assert.Equal(t, int64(11155111), me.ChainID)
}

func TestConnectRejectsBadSignatures(t *testing.T) {
	ts := newTestServer(t, nil)
	key, _ := secp256k1.GeneratePrivateKey()
	other, _ := secp256k1.GeneratePrivateKey()
	addr := wallet.PubkeyAddress(key.PubKey())

	var ch challengeRes
	call(t, ts, http.MethodPost, "/wallet/challenge", "", map[string]any{"address": addr.Hex()}, &ch)

	var er errorRes
	res := call(t, ts, http.MethodPost, "/wallet/connect", "", map[string]any{
		"address":   addr.Hex(),
		"nonce":     ch.Nonce,
		"signature": wallet.SignPersonal(other, ch.Message),
	}, &er)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "invalid_signature", er.Error)

	res = call(t, ts, http.MethodPost, "/wallet/challenge", "", map[string]any{"address": "0x1234"}, &er)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "invalid_address", er.Error)

	res = call(t, ts, http.MethodPost, "/wallet/challenge", "", map[string]any{"address": addr.Hex(), "chainId": 1}, &er)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "wrong_network", er.Error)
	assert.Equal(t, "Wrong network", er.Message)

	// Without a signature, a signature-required server refuses.
	res = call(t, ts, http.MethodPost, "/wallet/connect", "", map[string]any{"address": addr.Hex()}, &er)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t, mockWallet)

	sh := state(t, ts, "")
	assert.Equal(t, view.Disconnected(), sh)

	var er errorRes
	res := call(t, ts, http.MethodPost, "/game/play", "", map[string]string{"cardId": "player-0"}, &er)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "unauthorized", er.Error)

	res = call(t, ts, http.MethodPost, "/game/phase", "not-a-token", nil, &er)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "invalid_token", er.Error)

	res = call(t, ts, http.MethodGet, "/stats/me", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestGameFlow(t *testing.T) {
	ts := newTestServer(t, mockWallet)
	tok := connectMock(t, ts)
	waitPlaying(t, ts, tok)

	var pr playRes
	res := call(t, ts, http.MethodPost, "/game/play", tok, map[string]string{"cardId": "player-0"}, &pr)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "player-0", pr.Card.ID)
	assert.Equal(t, game.SidePlayer, pr.Card.Owner)
	assert.Len(t, pr.Board.PlayerHand, 6)
	assert.Len(t, pr.Board.Battlefield, 1)
	assert.Equal(t, 0, pr.Board.Player.Mana)

	var er errorRes
	res = call(t, ts, http.MethodPost, "/game/play", tok, map[string]string{"cardId": "player-1"}, &er)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, "not_enough_mana", er.Error)
	assert.Equal(t, "Not enough mana! Need 1, have 0", er.Message)

	res = call(t, ts, http.MethodPost, "/game/play", tok, map[string]string{"cardId": "player-0"}, &er)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, "card_not_in_hand", er.Error)

	res = call(t, ts, http.MethodPost, "/game/play", tok, map[string]string{}, &er)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	var hr handRes
	call(t, ts, http.MethodPost, "/game/hand/toggle", tok, nil, &hr)
	assert.True(t, hr.ShowHand)
	assert.True(t, hr.Board.PlayerHand[0].Revealed)
	assert.NotEqual(t, "Hidden Card", hr.Board.PlayerHand[0].Name)

	var ph phaseRes
	call(t, ts, http.MethodPost, "/game/phase", tok, nil, &ph)
	assert.Equal(t, game.PhaseCombat, ph.Phase)
	assert.Equal(t, "End Turn", ph.Board.Phase.Action)

	res = call(t, ts, http.MethodPost, "/game/play", tok, map[string]string{"cardId": "player-1"}, &er)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, "not_main_phase", er.Error)
	assert.Equal(t, "Can only play cards during main phase!", er.Message)

	var br boardRes
	res = call(t, ts, http.MethodPost, "/game/end-turn", tok, nil, &br)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 2, br.Board.Turn)
	assert.False(t, br.Board.Phase.YourTurn)
	assert.Equal(t, game.PhasePlaying, br.Board.Phase.Phase)
	assert.Equal(t, 2, br.Board.Player.MaxMana)

	res = call(t, ts, http.MethodPost, "/game/phase", tok, nil, &er)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, "not_your_turn", er.Error)

	res = call(t, ts, http.MethodPost, "/game/shuffle", tok, nil, &br)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var games []history.GameRecord
	call(t, ts, http.MethodGet, "/games/mine", tok, nil, &games)
	require.Len(t, games, 1)
	assert.Equal(t, br.Board.GameID, games[0].ID)
	assert.Equal(t, 1, games[0].CardsPlayed)
	assert.Equal(t, 2, games[0].Turns)

	var st history.WalletStats
	call(t, ts, http.MethodGet, "/stats/me", tok, nil, &st)
	assert.Equal(t, 1, st.Connects)
	assert.Equal(t, 1, st.Games)

	var fresh boardRes
	call(t, ts, http.MethodPost, "/game/new", tok, nil, &fresh)
	assert.NotEqual(t, br.Board.GameID, fresh.Board.GameID)
	assert.True(t, fresh.Board.Connected)
	assert.Equal(t, 1, fresh.Board.Turn)
	assert.Len(t, fresh.Board.PlayerHand, 7)
	assert.Empty(t, fresh.Board.Battlefield)
}

func TestDisconnect(t *testing.T) {
	ts := newTestServer(t, mockWallet)
	tok := connectMock(t, ts)
	waitPlaying(t, ts, tok)

	res := call(t, ts, http.MethodPost, "/wallet/disconnect", tok, nil, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var cleared bool
	for _, c := range res.Cookies() {
		if c.Name == "showdown_token" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)

	sh := state(t, ts, tok)
	assert.False(t, sh.Connected)
	assert.Nil(t, sh.Board)
	assert.NotNil(t, sh.Wallet)

	var er errorRes
	res = call(t, ts, http.MethodPost, "/game/play", tok, map[string]string{"cardId": "player-0"}, &er)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, "not_connected", er.Error)
	assert.Equal(t, "Connect your wallet first!", er.Message)

	// Reconnecting resumes the same game.
	tok = connectMock(t, ts)
	sh = state(t, ts, tok)
	require.NotNil(t, sh.Board)
	assert.Equal(t, game.PhasePlaying, sh.Board.Phase.Phase)
}

func TestReapedTableDoesNotReconnect(t *testing.T) {
	ts, tables := newTestServerWithStore(t, mockWallet)
	tok := connectMock(t, ts)
	call(t, ts, http.MethodPost, "/wallet/disconnect", tok, nil, nil)

	reaped, err := store.Reap(context.Background(), tables, time.Minute, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, reaped, 1)

	// The token still verifies, but it only identifies the wallet.
	var er errorRes
	res := call(t, ts, http.MethodPost, "/game/play", tok, map[string]string{"cardId": "player-0"}, &er)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, "not_connected", er.Error)

	sh := state(t, ts, tok)
	assert.False(t, sh.Connected)
	assert.Nil(t, sh.Board)

	tok = connectMock(t, ts)
	sh = state(t, ts, tok)
	assert.True(t, sh.Connected)
	require.NotNil(t, sh.Board)
}

type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func TestWebsocket(t *testing.T) {
	ts := newTestServer(t, mockWallet)
	tok := connectMock(t, ts)
	waitPlaying(t, ts, tok)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/game/ws"
	header := http.Header{"Authorization": []string{"Bearer " + tok}}
	conn, res, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, res.StatusCode)

	read := func() wsMessage {
		var m wsMessage
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		require.NoError(t, conn.ReadJSON(&m))
		return m
	}

	first := read()
	require.Equal(t, "board", first.Type)
	var b view.Board
	require.NoError(t, json.Unmarshal(first.Data, &b))
	assert.True(t, b.Connected)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "game.toggle_hand"}))
	for {
		m := read()
		if m.Type != "board" {
			continue
		}
		require.NoError(t, json.Unmarshal(m.Data, &b))
		if b.ShowHand {
			break
		}
	}

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "game.dance"}))
	for {
		m := read()
		if m.Type == "error" {
			var er errorRes
			require.NoError(t, json.Unmarshal(m.Data, &er))
			assert.Equal(t, "unknown_command", er.Error)
			break
		}
	}

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "game.play", "data": "opponent-0"}))
	var sawNotice, sawReply bool
	for !sawNotice || !sawReply {
		m := read()
		switch m.Type {
		case "event":
			var e game.Event
			require.NoError(t, json.Unmarshal(m.Data, &e))
			if e.Kind == game.EventNotice && e.Notice.Level == game.NoticeError {
				assert.Equal(t, "Card not in hand", e.Notice.Text)
				sawNotice = true
			}
		case "error":
			var er errorRes
			require.NoError(t, json.Unmarshal(m.Data, &er))
			assert.Equal(t, "card_not_in_hand", er.Error)
			sawReply = true
		}
	}
}

func TestWebsocketRequiresWallet(t *testing.T) {
	ts := newTestServer(t, mockWallet)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/game/ws"
	_, res, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}
