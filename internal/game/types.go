// internal/game/types.go
//
// Core type definitions for the card table engine.
// Defines:
//   - Phase: named stage of a round (waiting → shuffling → drawing → playing ⇄ combat).
//   - Side: which seat owns a card.
//   - HandCard / BattlefieldCard: cards in a hand and cards in play.
//   - Event / Notice: what the engine emits after each state change.

package game

// Phase is a named stage of a single game round.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseShuffling Phase = "shuffling"
	PhaseDrawing   Phase = "drawing"
	PhasePlaying   Phase = "playing"
	PhaseCombat    Phase = "combat"
	PhaseEnded     Phase = "ended"
)

// Side identifies the owner of a card.
type Side string

const (
	SidePlayer   Side = "player"
	SideOpponent Side = "opponent"
)

// Stats are fixed when a card is dealt and never re-rolled.
type Stats struct {
	Name      string `json:"name"`
	Cost      int    `json:"cost"`
	Power     int    `json:"power"`
	Toughness int    `json:"toughness"`
}

// HandCard is a card held in a hand.
type HandCard struct {
	ID       string `json:"id"`
	Revealed bool   `json:"revealed"`
	Playable bool   `json:"playable"`
	Stats    Stats  `json:"stats"`
}

// BattlefieldCard is a card that has been played. Entries are never removed.
type BattlefieldCard struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Cost      int    `json:"cost"`
	Power     int    `json:"power"`
	Toughness int    `json:"toughness"`
	Owner     Side   `json:"owner"`
}

// NoticeLevel mirrors the client's toast styles.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient user-facing message.
type Notice struct {
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
}

// EventKind classifies an Event.
type EventKind string

const (
	EventConnection EventKind = "connection"
	EventPhase      EventKind = "phase"
	EventTurn       EventKind = "turn"
	EventCardPlayed EventKind = "card_played"
	EventHand       EventKind = "hand"
	EventShuffle    EventKind = "shuffle"
	EventNotice     EventKind = "notice"
)

// Event records one state change. Only the fields relevant to Kind are set;
// playerTurn and connected are always encoded since false is meaningful.
type Event struct {
	Kind       EventKind        `json:"kind"`
	GameID     string           `json:"gameId"`
	Phase      Phase            `json:"phase,omitempty"`
	Turn       int              `json:"turn,omitempty"`
	PlayerTurn bool             `json:"playerTurn"`
	Connected  bool             `json:"connected"`
	Card       *BattlefieldCard `json:"card,omitempty"`
	Notice     *Notice          `json:"notice,omitempty"`
}
