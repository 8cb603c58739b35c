package game

import (
	"errors"
	"fmt"
)

// Rule violations returned by Game operations.
var (
	ErrNotConnected  = errors.New("wallet not connected")
	ErrNotMainPhase  = errors.New("cards can only be played in the main phase")
	ErrNotYourTurn   = errors.New("not the player's turn")
	ErrCardNotInHand = errors.New("card not in hand")
	ErrCannotAdvance = errors.New("phase cannot be changed now")
)

// ManaError reports a card that costs more than the available mana.
type ManaError struct {
	Need int
	Have int
}

func (e *ManaError) Error() string {
	return fmt.Sprintf("not enough mana: need %d, have %d", e.Need, e.Have)
}

// Code maps a rule error to a stable machine-readable code.
// It returns "" for errors that are not rule violations.
func Code(err error) string {
	var me *ManaError
	switch {
	case errors.Is(err, ErrNotConnected):
		return "not_connected"
	case errors.Is(err, ErrNotMainPhase):
		return "not_main_phase"
	case errors.Is(err, ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, ErrCardNotInHand):
		return "card_not_in_hand"
	case errors.Is(err, ErrCannotAdvance):
		return "cannot_advance"
	case errors.As(err, &me):
		return "not_enough_mana"
	}
	return ""
}

// IsRule reports whether err is a rule violation rather than an
// infrastructure failure.
func IsRule(err error) bool { return Code(err) != "" }

// NoticeText returns the toast text shown for a rule violation.
func NoticeText(err error) string {
	var me *ManaError
	switch {
	case errors.Is(err, ErrNotConnected):
		return "Connect your wallet first!"
	case errors.Is(err, ErrNotMainPhase):
		return "Can only play cards during main phase!"
	case errors.Is(err, ErrNotYourTurn):
		return "Wait for your turn!"
	case errors.Is(err, ErrCardNotInHand):
		return "Card not in hand"
	case errors.Is(err, ErrCannotAdvance):
		return "You can't change phase right now."
	case errors.As(err, &me):
		return fmt.Sprintf("Not enough mana! Need %d, have %d", me.Need, me.Have)
	}
	return err.Error()
}
