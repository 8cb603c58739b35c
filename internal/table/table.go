// internal/table/table.go
//
// A Table is one running game bound to one wallet.
// Responsibilities:
//   - Serialize every game mutation behind a mutex (Do / Read).
//   - Run the single scheduler goroutine that advances game time.
//   - Fan board and event messages out to subscribers (websocket clients).
//   - Hand drained events to an optional Recorder for history.
//
// Notes:
//   - The scheduler is the only source of timed transitions; nothing else calls
//     Game.Advance.
//   - A subscriber whose buffer is full is dropped, never waited on.
//   - Recorder calls happen after the table lock is released.
package table

import (
	"context"
	"sync"
	"time"

	"github.com/cosmosStaker/secret-hand-showdown/internal/game"
	"github.com/cosmosStaker/secret-hand-showdown/internal/view"
)

// Message types sent to subscribers.
const (
	TypeBoard = "board"
	TypeEvent = "event"
)

// DefaultTick is the scheduler interval when Start is given zero.
const DefaultTick = 200 * time.Millisecond

// noBoard marks that no board has been published for the current game.
const noBoard = ^uint64(0)

// Message is the envelope delivered to subscribers.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Recorder persists what happens at a table. Implementations must be safe for
// concurrent use; failures are theirs to log.
type Recorder interface {
	GameStarted(owner, gameID string, seed uint64)
	GameEvents(owner string, events []game.Event)
}

// Options configures New.
type Options struct {
	Owner    string // checksummed wallet address
	Game     game.Options
	Recorder Recorder
	Buffer   int              // per-subscriber channel size, default 32
	Now      func() time.Time // clock, default time.Now
}

// Table owns one game.
type Table struct {
	owner  string
	gopts  game.Options
	rec    Recorder
	buffer int
	now    func() time.Time

	mu       sync.Mutex
	g        *game.Game
	subs     map[*Subscription]struct{}
	sent     uint64 // game version of the last published board
	lastTick time.Time
	lastSeen time.Time

	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// New creates a table with a fresh game in the waiting phase. The Recorder
// hears about the game when Start runs, so New does no I/O.
func New(opts Options) *Table {
	if opts.Buffer <= 0 {
		opts.Buffer = 32
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	t := &Table{
		owner:  opts.Owner,
		gopts:  opts.Game,
		rec:    opts.Recorder,
		buffer: opts.Buffer,
		now:    opts.Now,
		subs:   make(map[*Subscription]struct{}),
	}
	t.g = game.New(t.gopts)
	now := t.now()
	t.lastTick, t.lastSeen = now, now
	return t
}

// Owner returns the wallet address the table belongs to.
func (t *Table) Owner() string { return t.owner }

// Do runs fn against the game under the table lock, then publishes whatever
// fn changed. fn's error is returned unchanged.
func (t *Table) Do(fn func(g *game.Game) error) error {
	t.mu.Lock()
	wasConnected := t.g.Connected
	err := fn(t.g)
	now := t.now()
	t.lastSeen = now
	if !wasConnected && t.g.Connected {
		// Time spent disconnected never counts toward the intro or the clock.
		t.lastTick = now
	}
	events := t.publishLocked()
	t.mu.Unlock()

	t.record(events)
	return err
}

// Read runs fn against the game under the table lock. fn must not mutate.
func (t *Table) Read(fn func(g *game.Game)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.g)
}

// Board renders the current board.
func (t *Table) Board() view.Board {
	var b view.Board
	t.Read(func(g *game.Game) { b = view.NewBoard(g) })
	return b
}

// Reset replaces the game with a fresh deal. A connected table stays
// connected and replays the intro.
func (t *Table) Reset() {
	t.mu.Lock()
	connected := t.g.Connected
	t.g = game.New(t.gopts)
	fresh := t.g
	now := t.now()
	t.lastSeen, t.lastTick = now, now
	if connected {
		t.g.Connect()
	}
	t.sent = noBoard // always publish the fresh deal
	events := t.publishLocked()
	t.mu.Unlock()

	t.started(fresh)
	t.record(events)
}

// LastSeen is the time of the last player action.
func (t *Table) LastSeen() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSeen
}

// Touch marks the table as seen without changing the game.
func (t *Table) Touch() {
	t.mu.Lock()
	t.lastSeen = t.now()
	t.mu.Unlock()
}

// Start launches the scheduler and reports the current game to the Recorder.
// It is a no-op if already running or stopped.
func (t *Table) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultTick
	}
	t.mu.Lock()
	if t.cancel != nil || t.stopped {
		t.mu.Unlock()
		return
	}
	ctx, t.cancel = context.WithCancel(ctx)
	t.done = make(chan struct{})
	t.lastTick = t.now()
	done := t.done
	current := t.g
	t.mu.Unlock()

	t.started(current)

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.advance(t.now())
			}
		}
	}()
}

// advance moves the game forward by the wall time since the last tick.
func (t *Table) advance(now time.Time) {
	t.mu.Lock()
	elapsed := now.Sub(t.lastTick)
	t.lastTick = now
	t.g.Advance(elapsed)
	events := t.publishLocked()
	t.mu.Unlock()

	t.record(events)
}

// Stop ends the scheduler and closes every subscription. Safe to call twice.
func (t *Table) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	cancel, done := t.cancel, t.done
	for s := range t.subs {
		delete(t.subs, s)
		close(s.c)
	}
	t.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// publishLocked drains game events and sends them, followed by a board when
// the game changed. Callers hold t.mu.
func (t *Table) publishLocked() []game.Event {
	events := t.g.Drain()
	for _, e := range events {
		t.sendLocked(Message{Type: TypeEvent, Data: e})
	}
	if v := t.g.Version(); v != t.sent {
		t.sent = v
		t.sendLocked(Message{Type: TypeBoard, Data: view.NewBoard(t.g)})
	}
	return events
}

func (t *Table) sendLocked(m Message) {
	for s := range t.subs {
		select {
		case s.c <- m:
		default:
			delete(t.subs, s)
			close(s.c)
		}
	}
}

func (t *Table) started(g *game.Game) {
	if t.rec != nil {
		t.rec.GameStarted(t.owner, g.ID, g.Seed)
	}
}

func (t *Table) record(events []game.Event) {
	if t.rec != nil && len(events) > 0 {
		t.rec.GameEvents(t.owner, events)
	}
}
