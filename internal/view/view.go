// internal/view/view.go
//
// View models sent to the browser client. The client only renders these; it
// never sees a hidden card's stats.
//
// Defines:
//   - CardFace: one card, face up or face down.
//   - PhaseIndicator: current phase label, turn owner, countdown and action.
//   - Board: everything on the table for one player.
//   - Shell: top-level page state (connect prompt or board).

package view

import (
	"fmt"

	"github.com/cosmosStaker/secret-hand-showdown/internal/game"
)

// Face-down cards render with these placeholder values.
const (
	hiddenName      = "Hidden Card"
	hiddenCost      = 0
	hiddenPower     = 1
	hiddenToughness = 1
)

// CardFace is the card visual component's model.
type CardFace struct {
	ID        string    `json:"id"`
	Revealed  bool      `json:"revealed"`
	Playable  bool      `json:"playable"`
	Name      string    `json:"name"`
	Cost      int       `json:"cost"`
	Power     int       `json:"power"`
	Toughness int       `json:"toughness"`
	Owner     game.Side `json:"owner,omitempty"`
}

// HandCard renders a hand card. Face-down cards carry placeholder stats only.
func HandCard(c game.HandCard, playable bool) CardFace {
	f := CardFace{ID: c.ID, Revealed: c.Revealed, Playable: playable}
	if c.Revealed {
		f.Name, f.Cost, f.Power, f.Toughness = c.Stats.Name, c.Stats.Cost, c.Stats.Power, c.Stats.Toughness
	} else {
		f.Name, f.Cost, f.Power, f.Toughness = hiddenName, hiddenCost, hiddenPower, hiddenToughness
	}
	return f
}

// BattlefieldCard renders a played card; these are always face up and inert.
func BattlefieldCard(c game.BattlefieldCard) CardFace {
	return CardFace{
		ID:        c.ID,
		Revealed:  true,
		Name:      c.Name,
		Cost:      c.Cost,
		Power:     c.Power,
		Toughness: c.Toughness,
		Owner:     c.Owner,
	}
}

// PhaseIndicator is the phase badge, turn badge, clock and progress button.
type PhaseIndicator struct {
	Phase       game.Phase `json:"phase"`
	Label       string     `json:"label"`
	Variant     string     `json:"variant"`
	YourTurn    bool       `json:"yourTurn"`
	Seconds     int        `json:"seconds"`
	Clock       string     `json:"clock,omitempty"`
	CanProgress bool       `json:"canProgress"`
	Action      string     `json:"action,omitempty"`
}

// Indicator renders the phase indicator for g.
func Indicator(g *game.Game) PhaseIndicator {
	pi := PhaseIndicator{
		Phase:       g.Phase,
		Label:       g.Phase.Label(),
		Variant:     g.Phase.Variant(),
		YourTurn:    g.PlayerTurn,
		Seconds:     g.TimeRemaining,
		Clock:       Clock(g.TimeRemaining),
		CanProgress: g.CanProgress(),
	}
	if pi.CanProgress {
		switch g.Phase {
		case game.PhasePlaying:
			pi.Action = "Combat"
		case game.PhaseCombat:
			pi.Action = "End Turn"
		}
	}
	return pi
}

// Clock formats seconds as m:ss. Zero renders as "" (no clock shown).
func Clock(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// PlayerStats is the player's status card.
type PlayerStats struct {
	Health  int    `json:"health"`
	Mana    int    `json:"mana"`
	MaxMana int    `json:"maxMana"`
	Pips    []bool `json:"pips"` // one per max mana, true while unspent
}

// OpponentStats is the opponent's status card.
type OpponentStats struct {
	Health int `json:"health"`
}

// Board is the full game board.
type Board struct {
	GameID       string         `json:"gameId"`
	Connected    bool           `json:"connected"`
	Turn         int            `json:"turn"`
	Player       PlayerStats    `json:"player"`
	Opponent     OpponentStats  `json:"opponent"`
	Phase        PhaseIndicator `json:"phase"`
	OpponentHand []CardFace     `json:"opponentHand"`
	Battlefield  []CardFace     `json:"battlefield"`
	PlayerHand   []CardFace     `json:"playerHand"`
	ShowHand     bool           `json:"showHand"`
	HandTitle    string         `json:"handTitle"`
}

// NewBoard renders g.
func NewBoard(g *game.Game) Board {
	b := Board{
		GameID:    g.ID,
		Connected: g.Connected,
		Turn:      g.Turn,
		Player: PlayerStats{
			Health:  g.PlayerHealth,
			Mana:    g.Mana,
			MaxMana: g.MaxMana,
			Pips:    Pips(g.Mana, g.MaxMana),
		},
		Opponent:     OpponentStats{Health: g.OpponentHealth},
		Phase:        Indicator(g),
		OpponentHand: make([]CardFace, 0, len(g.OpponentHand)),
		Battlefield:  make([]CardFace, 0, len(g.Battlefield)),
		PlayerHand:   make([]CardFace, 0, len(g.PlayerHand)),
		ShowHand:     g.ShowHand,
		HandTitle:    "Your Hand",
	}
	if !g.Connected {
		b.HandTitle = "Your Hand (Connect wallet to play)"
	}
	for _, c := range g.OpponentHand {
		b.OpponentHand = append(b.OpponentHand, HandCard(c, c.Playable))
	}
	for _, c := range g.Battlefield {
		b.Battlefield = append(b.Battlefield, BattlefieldCard(c))
	}
	for _, c := range g.PlayerHand {
		b.PlayerHand = append(b.PlayerHand, HandCard(c, c.Playable && g.Connected))
	}
	return b
}

// Pips returns maxMana pips with the first mana of them filled.
func Pips(mana, maxMana int) []bool {
	if maxMana < 0 {
		maxMana = 0
	}
	out := make([]bool, maxMana)
	for i := range out {
		out[i] = i < mana
	}
	return out
}
