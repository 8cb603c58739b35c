// internal/game/timeline.go
//
// Timeline is an ordered list of delayed phase steps. It replaces a chain of
// nested timers with one structure advanced by a single scheduler: the caller
// feeds elapsed time and receives the phases that came due, in order.

package game

import "time"

// Step moves the game into Phase once After has elapsed since the previous step.
type Step struct {
	After time.Duration
	Phase Phase
}

// Timeline tracks progress through a fixed list of steps.
type Timeline struct {
	steps   []Step
	next    int
	elapsed time.Duration // time accumulated toward steps[next]
}

// NewTimeline returns a timeline positioned before its first step.
func NewTimeline(steps ...Step) *Timeline {
	return &Timeline{steps: append([]Step(nil), steps...)}
}

// Advance moves the timeline forward by d. It returns the phases whose delay
// elapsed, in order, and the part of d left over after the last step fired.
// Leftover time is zero unless the timeline finished during this call.
func (t *Timeline) Advance(d time.Duration) (fired []Phase, rest time.Duration) {
	if d < 0 {
		d = 0
	}
	for t.next < len(t.steps) {
		need := t.steps[t.next].After - t.elapsed
		if d < need {
			t.elapsed += d
			return fired, 0
		}
		d -= need
		fired = append(fired, t.steps[t.next].Phase)
		t.next++
		t.elapsed = 0
	}
	return fired, d
}

// Done reports whether every step has fired.
func (t *Timeline) Done() bool { return t.next >= len(t.steps) }

// Pending returns the next step and the time remaining until it fires.
func (t *Timeline) Pending() (Step, time.Duration, bool) {
	if t.Done() {
		return Step{}, 0, false
	}
	s := t.steps[t.next]
	return s, s.After - t.elapsed, true
}
