package history

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cosmosStaker/secret-hand-showdown/internal/game"
)

// writeTimeout bounds each best-effort history write.
const writeTimeout = 2 * time.Second

// Recorder adapts Store to table.Recorder. Writes are best effort: failures
// are logged and never reach the game.
type Recorder struct {
	Store *Store
}

func (r Recorder) GameStarted(owner, gameID string, seed uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.Store.StartGame(ctx, gameID, owner, seed); err != nil {
		log.Warn().Err(err).Str("game", gameID).Msg("history: start game")
	}
}

func (r Recorder) GameEvents(owner string, events []game.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	for _, e := range events {
		var err error
		switch e.Kind {
		case game.EventPhase:
			err = r.Store.SetPhase(ctx, e.GameID, string(e.Phase))
		case game.EventTurn:
			err = r.Store.RecordTurn(ctx, e.GameID, e.Turn)
		case game.EventCardPlayed:
			if e.Card != nil {
				err = r.Store.RecordPlay(ctx, e.GameID, e.Card.Cost)
			}
		}
		if err != nil {
			log.Warn().Err(err).Str("game", e.GameID).Str("event", string(e.Kind)).Msg("history: record event")
		}
	}
}
