package game

import (
	"errors"
	"time"
)

// Range is an inclusive integer range.
type Range struct {
	Min int
	Max int
}

// Rules holds the tunable constants of a table.
type Rules struct {
	HandSize       int
	StartingHealth int
	StartingMana   int
	ManaCap        int
	TurnSeconds    int
	Intro          []Step
	Cost           Range
	Power          Range
	Toughness      Range
	NameSpace      int // creature names are "Creature 0" .. "Creature NameSpace-1"
}

// DefaultRules returns the standard table: 7-card hands, 20 health,
// mana 1 capped at 10, 180-second turns.
func DefaultRules() Rules {
	return Rules{
		HandSize:       7,
		StartingHealth: 20,
		StartingMana:   1,
		ManaCap:        10,
		TurnSeconds:    180,
		Intro: []Step{
			{After: 1000 * time.Millisecond, Phase: PhaseShuffling},
			{After: 2000 * time.Millisecond, Phase: PhaseDrawing},
			{After: 1500 * time.Millisecond, Phase: PhasePlaying},
		},
		Cost:      Range{1, 6},
		Power:     Range{1, 5},
		Toughness: Range{1, 5},
		NameSpace: 100,
	}
}

// Validate rejects rules the engine cannot run with.
func (r Rules) Validate() error {
	switch {
	case r.HandSize < 1:
		return errors.New("rules: hand size must be at least 1")
	case r.ManaCap < 1:
		return errors.New("rules: mana cap must be at least 1")
	case r.StartingMana < 0 || r.StartingMana > r.ManaCap:
		return errors.New("rules: starting mana must be within [0, mana cap]")
	case r.TurnSeconds < 1:
		return errors.New("rules: turn seconds must be positive")
	case r.NameSpace < 1:
		return errors.New("rules: name space must be positive")
	case r.Cost.Min > r.Cost.Max || r.Power.Min > r.Power.Max || r.Toughness.Min > r.Toughness.Max:
		return errors.New("rules: stat ranges must have min <= max")
	}
	for _, s := range r.Intro {
		if s.After < 0 {
			return errors.New("rules: intro delays must not be negative")
		}
	}
	if n := len(r.Intro); n > 0 && r.Intro[n-1].Phase != PhasePlaying {
		return errors.New("rules: intro must end in the playing phase")
	}
	return nil
}
