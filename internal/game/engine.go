// internal/game/engine.go
//
// Core game engine for a single card table.
// Responsibilities:
//   - Create new games with a seeded deal (7 cards per hand).
//   - Run the intro timeline once a wallet is connected.
//   - Count down the turn clock and force end-of-turn at zero.
//   - Validate and apply card plays, phase changes and hand toggles.
//
// Notes:
//   - Game is not safe for concurrent use; internal/table serializes access.
//   - Time only moves through Advance, so tests drive it explicitly.
//   - Every mutation appends Events; callers collect them with Drain.
package game

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
)

// Options configures New. A zero Rules value means DefaultRules.
type Options struct {
	Rules    Rules
	Seed     uint64 // used as-is when non-zero
	SeedSalt string // otherwise the seed is derived from (SeedSalt, game id)
}

// Game holds the state of one table.
type Game struct {
	ID    string
	Seed  uint64
	Rules Rules

	Connected      bool
	Phase          Phase
	PlayerTurn     bool
	PlayerHealth   int
	OpponentHealth int
	Mana           int
	MaxMana        int
	Turn           int
	TimeRemaining  int // seconds left in the current turn
	ShowHand       bool

	PlayerHand   []HandCard
	OpponentHand []HandCard
	Battlefield  []BattlefieldCard

	rng     *rand.Rand
	intro   *Timeline     // non-nil while the intro sequence is running
	clock   time.Duration // partial second toward the next countdown tick
	events  []Event
	version uint64
}

// New constructs a fresh game in the waiting phase.
func New(opts Options) *Game {
	rules := opts.Rules
	if rules.HandSize == 0 {
		rules = DefaultRules()
	}
	id := ulid.Make().String()
	seed := opts.Seed
	if seed == 0 {
		seed = SeedFor(opts.SeedSalt, id)
	}
	g := &Game{
		ID:             id,
		Seed:           seed,
		Rules:          rules,
		Phase:          PhaseWaiting,
		PlayerTurn:     true,
		PlayerHealth:   rules.StartingHealth,
		OpponentHealth: rules.StartingHealth,
		Mana:           rules.StartingMana,
		MaxMana:        rules.StartingMana,
		Turn:           1,
		TimeRemaining:  rules.TurnSeconds,
		rng:            newRand(seed),
	}
	g.PlayerHand = g.deal(SidePlayer, true)
	g.OpponentHand = g.deal(SideOpponent, false)
	return g
}

func (g *Game) deal(side Side, playable bool) []HandCard {
	hand := make([]HandCard, g.Rules.HandSize)
	for i := range hand {
		hand[i] = HandCard{
			ID:       string(side) + "-" + strconv.Itoa(i),
			Playable: playable,
			Stats:    dealStats(g.rng, g.Rules),
		}
	}
	return hand
}

// Connect marks the wallet connected. From the waiting phase it starts the
// intro timeline; an in-progress game simply resumes.
func (g *Game) Connect() {
	if g.Connected {
		return
	}
	g.Connected = true
	g.emit(Event{Kind: EventConnection, Connected: true})
	g.notify(NoticeSuccess, "Wallet connected")
	if g.Phase == PhaseWaiting && g.intro == nil {
		g.notify(NoticeInfo, "Initializing game...")
		g.intro = NewTimeline(g.Rules.Intro...)
		g.advanceIntro(0)
	}
}

// Disconnect marks the wallet disconnected and freezes the table. A pending
// intro is cancelled and the phase returns to waiting so the next Connect
// replays it from the start.
func (g *Game) Disconnect() {
	if !g.Connected {
		return
	}
	g.Connected = false
	g.clock = 0
	if g.intro != nil {
		g.intro = nil
		if g.Phase != PhaseWaiting {
			g.setPhase(PhaseWaiting)
		}
	}
	g.emit(Event{Kind: EventConnection, Connected: false})
	g.notify(NoticeInfo, "Wallet disconnected")
}

// Advance moves game time forward by d: pending intro steps fire first, then
// the remaining time feeds the turn clock. Nothing moves while disconnected.
func (g *Game) Advance(d time.Duration) {
	if !g.Connected || d <= 0 {
		return
	}
	if g.intro != nil {
		d = g.advanceIntro(d)
	}
	if !g.Phase.Active() {
		return
	}
	g.clock += d
	for g.clock >= time.Second && g.Phase.Active() {
		g.clock -= time.Second
		g.tick()
	}
}

// advanceIntro feeds d into the intro timeline and returns unused time.
func (g *Game) advanceIntro(d time.Duration) time.Duration {
	fired, rest := g.intro.Advance(d)
	for _, p := range fired {
		g.setPhase(p)
	}
	if !g.intro.Done() {
		return 0
	}
	g.intro = nil
	if g.Phase != PhasePlaying {
		g.setPhase(PhasePlaying)
	}
	g.notify(NoticeSuccess, "Game started! Your turn.")
	return rest
}

// IntroPending returns the next intro phase and the time until it fires.
func (g *Game) IntroPending() (Phase, time.Duration, bool) {
	if g.intro == nil {
		return "", 0, false
	}
	s, left, ok := g.intro.Pending()
	return s.Phase, left, ok
}

// tick is one second of the turn clock.
func (g *Game) tick() {
	g.TimeRemaining--
	g.version++
	if g.TimeRemaining <= 0 {
		g.endTurn()
	}
}

// endTurn hands the turn to the other side. Ending the player's own turn grows
// max mana by one (up to the cap) and refills mana.
func (g *Game) endTurn() {
	ended := g.PlayerTurn
	g.PlayerTurn = !g.PlayerTurn
	g.Turn++
	g.TimeRemaining = g.Rules.TurnSeconds
	if g.Phase != PhasePlaying {
		g.setPhase(PhasePlaying)
	}
	if ended {
		g.MaxMana = min(g.MaxMana+1, g.Rules.ManaCap)
		g.Mana = g.MaxMana
	}
	g.emit(Event{Kind: EventTurn, Turn: g.Turn, PlayerTurn: g.PlayerTurn})
	if ended {
		g.notify(NoticeInfo, "Opponent's turn")
	} else {
		g.notify(NoticeInfo, "Your turn")
	}
}

// CanProgress reports whether the player may change phase or end the turn.
func (g *Game) CanProgress() bool {
	return g.Connected && g.PlayerTurn && g.Phase.Active()
}

func (g *Game) requireControl() error {
	if !g.Connected {
		return ErrNotConnected
	}
	if !g.Phase.Active() {
		return ErrCannotAdvance
	}
	if !g.PlayerTurn {
		return ErrNotYourTurn
	}
	return nil
}

// AdvancePhase switches playing ⇄ combat on the player's turn.
func (g *Game) AdvancePhase() (Phase, error) {
	if err := g.requireControl(); err != nil {
		return g.Phase, g.fail(err)
	}
	next, _ := g.Phase.Toggle()
	g.clock = 0
	g.setPhase(next)
	return next, nil
}

// EndTurn ends the player's turn before the clock runs out.
func (g *Game) EndTurn() error {
	if err := g.requireControl(); err != nil {
		return g.fail(err)
	}
	g.clock = 0
	g.endTurn()
	return nil
}

// PlayCard moves a card from the player's hand to the battlefield.
//
// Validation order:
//   - wallet connected
//   - phase is playing
//   - it is the player's turn
//   - the card is in the player's hand
//   - mana covers the card's cost
//
// On any failure nothing is mutated.
func (g *Game) PlayCard(id string) (BattlefieldCard, error) {
	switch {
	case !g.Connected:
		return BattlefieldCard{}, g.fail(ErrNotConnected)
	case g.Phase != PhasePlaying:
		return BattlefieldCard{}, g.fail(ErrNotMainPhase)
	case !g.PlayerTurn:
		return BattlefieldCard{}, g.fail(ErrNotYourTurn)
	}
	idx := g.handIndex(id)
	if idx < 0 {
		return BattlefieldCard{}, g.fail(ErrCardNotInHand)
	}
	card := g.PlayerHand[idx]
	if g.Mana < card.Stats.Cost {
		return BattlefieldCard{}, g.fail(&ManaError{Need: card.Stats.Cost, Have: g.Mana})
	}

	played := BattlefieldCard{
		ID:        card.ID,
		Name:      card.Stats.Name,
		Cost:      card.Stats.Cost,
		Power:     card.Stats.Power,
		Toughness: card.Stats.Toughness,
		Owner:     SidePlayer,
	}
	g.Battlefield = append(g.Battlefield, played)
	g.PlayerHand = append(g.PlayerHand[:idx], g.PlayerHand[idx+1:]...)
	g.Mana -= card.Stats.Cost

	g.emit(Event{Kind: EventCardPlayed, Card: &played})
	g.notify(NoticeSuccess, "Played "+played.Name+" for "+strconv.Itoa(played.Cost)+" mana!")
	return played, nil
}

func (g *Game) handIndex(id string) int {
	for i, c := range g.PlayerHand {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// ToggleHand flips hand visibility and sets every player card's reveal flag
// to match. It returns the new visibility.
func (g *Game) ToggleHand() (bool, error) {
	if !g.Connected {
		return g.ShowHand, g.fail(ErrNotConnected)
	}
	g.ShowHand = !g.ShowHand
	for i := range g.PlayerHand {
		g.PlayerHand[i].Revealed = g.ShowHand
	}
	g.emit(Event{Kind: EventHand})
	return g.ShowHand, nil
}

// Shuffle reorders the player's hand with the game's generator.
func (g *Game) Shuffle() error {
	if !g.Connected {
		return g.fail(ErrNotConnected)
	}
	g.rng.Shuffle(len(g.PlayerHand), func(i, j int) {
		g.PlayerHand[i], g.PlayerHand[j] = g.PlayerHand[j], g.PlayerHand[i]
	})
	g.emit(Event{Kind: EventShuffle})
	g.notify(NoticeSuccess, "Deck shuffled!")
	return nil
}

// Drain returns the events emitted since the last call and clears them.
func (g *Game) Drain() []Event {
	out := g.events
	g.events = nil
	return out
}

// Version increases with every observable change, clock ticks included.
func (g *Game) Version() uint64 { return g.version }

func (g *Game) setPhase(p Phase) {
	g.Phase = p
	g.emit(Event{Kind: EventPhase, Phase: p})
}

func (g *Game) emit(e Event) {
	e.GameID = g.ID
	g.events = append(g.events, e)
	g.version++
}

func (g *Game) notify(level NoticeLevel, text string) {
	g.emit(Event{Kind: EventNotice, Notice: &Notice{Level: level, Text: text}})
}

// fail records an error notice for a rule violation and returns err.
func (g *Game) fail(err error) error {
	g.notify(NoticeError, NoticeText(err))
	return err
}
