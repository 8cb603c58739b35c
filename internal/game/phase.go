package game

// phaseInfo holds the display label and badge variant for a phase.
type phaseInfo struct {
	label   string
	variant string
}

var phases = map[Phase]phaseInfo{
	PhaseWaiting:   {"Waiting for Players", "secondary"},
	PhaseShuffling: {"Shuffling Decks", "default"},
	PhaseDrawing:   {"Drawing Cards", "outline"},
	PhasePlaying:   {"Main Phase", "default"},
	PhaseCombat:    {"Combat Phase", "destructive"},
	PhaseEnded:     {"Game Ended", "secondary"},
}

// Label returns the human-readable phase name.
func (p Phase) Label() string {
	if info, ok := phases[p]; ok {
		return info.label
	}
	return "Unknown"
}

// Variant returns the badge style used by the phase indicator.
func (p Phase) Variant() string {
	if info, ok := phases[p]; ok {
		return info.variant
	}
	return "secondary"
}

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	_, ok := phases[p]
	return ok
}

// Intro reports whether p is part of the automatic intro sequence.
func (p Phase) Intro() bool {
	return p == PhaseWaiting || p == PhaseShuffling || p == PhaseDrawing
}

// Active reports whether the turn clock runs in p.
func (p Phase) Active() bool {
	return p == PhasePlaying || p == PhaseCombat
}

// Toggle returns the manual successor of an active phase: playing ⇄ combat.
// Any other phase has no manual successor and is returned unchanged with ok=false.
func (p Phase) Toggle() (next Phase, ok bool) {
	switch p {
	case PhasePlaying:
		return PhaseCombat, true
	case PhaseCombat:
		return PhasePlaying, true
	}
	return p, false
}
