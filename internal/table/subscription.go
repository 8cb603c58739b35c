package table

import "github.com/cosmosStaker/secret-hand-showdown/internal/view"

// Subscription receives a table's messages on C. C is closed when the
// subscription is closed, when the table stops, or when the subscriber falls
// behind and is dropped.
type Subscription struct {
	C <-chan Message

	c chan Message
	t *Table
}

// Subscribe registers a subscriber. The current board is queued first so a
// new client can render immediately. Subscribing to a stopped table returns
// an already-closed subscription.
func (t *Table) Subscribe() *Subscription {
	c := make(chan Message, t.buffer)
	s := &Subscription{C: c, c: c, t: t}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		close(c)
		return s
	}
	c <- Message{Type: TypeBoard, Data: view.NewBoard(t.g)}
	t.subs[s] = struct{}{}
	return s
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	if _, ok := s.t.subs[s]; ok {
		delete(s.t.subs, s)
		close(s.c)
	}
}

// Subscribers returns the number of live subscriptions.
func (t *Table) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}
