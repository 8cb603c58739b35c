// internal/httpserver/ws.go
//
// Websocket board stream.
//   - Server → client: {"type":"board","data":Board}, {"type":"event","data":Event},
//     {"type":"error","data":{"error":code,"message":text}}.
//   - Client → server: game.play (data: card id), game.phase, game.end_turn,
//     game.toggle_hand, game.shuffle.
//
// Each connection runs a read pump (commands) and a write pump (table
// messages, replies and pings). Rule violations surface as error notices in
// the event stream and as an "error" reply to the sender.

package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/cosmosStaker/secret-hand-showdown/internal/game"
	"github.com/cosmosStaker/secret-hand-showdown/internal/table"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Incoming command types.
const (
	cmdPlay       = "game.play"
	cmdPhase      = "game.phase"
	cmdEndTurn    = "game.end_turn"
	cmdToggleHand = "game.toggle_hand"
	cmdShuffle    = "game.shuffle"
)

type wsCommand struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type wsClient struct {
	conn    *websocket.Conn
	table   *table.Table
	sub     *table.Subscription
	replies chan table.Message
	wallet  string
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	tb, err := s.tableFor(r.Context(), sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "table_failed", "")
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	c := &wsClient{
		conn:    conn,
		table:   tb,
		sub:     tb.Subscribe(),
		replies: make(chan table.Message, 8),
		wallet:  sess.Address.Hex(),
	}
	log.Debug().Str("wallet", c.wallet).Msg("websocket open")

	go c.writePump()
	c.readPump()
}

func (c *wsClient) readPump() {
	defer func() {
		c.sub.Close()
		c.conn.Close()
		log.Debug().Str("wallet", c.wallet).Msg("websocket closed")
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Info().Err(err).Str("wallet", c.wallet).Msg("websocket unexpected close")
			}
			return
		}
		c.handleCommand(raw)
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case m, ok := <-c.sub.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(m); err != nil {
				return
			}
		case m := <-c.replies:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(m); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) handleCommand(raw []byte) {
	var cmd wsCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.reply("bad_json", "")
		return
	}
	var action func(g *game.Game) error
	switch cmd.Type {
	case cmdPlay:
		var id string
		if err := json.Unmarshal(cmd.Data, &id); err != nil || id == "" {
			c.reply("bad_command", "game.play needs a card id")
			return
		}
		action = func(g *game.Game) error { _, err := g.PlayCard(id); return err }
	case cmdPhase:
		action = func(g *game.Game) error { _, err := g.AdvancePhase(); return err }
	case cmdEndTurn:
		action = (*game.Game).EndTurn
	case cmdToggleHand:
		action = func(g *game.Game) error { _, err := g.ToggleHand(); return err }
	case cmdShuffle:
		action = (*game.Game).Shuffle
	default:
		c.reply("unknown_command", cmd.Type)
		return
	}
	if err := c.table.Do(action); err != nil {
		c.reply(game.Code(err), game.NoticeText(err))
	}
}

// reply queues a message for this client only; it is dropped if the client
// is not reading.
func (c *wsClient) reply(code, message string) {
	m := table.Message{Type: "error", Data: errorRes{Error: code, Message: message}}
	select {
	case c.replies <- m:
	default:
	}
}
