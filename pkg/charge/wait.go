package charge

import "github.com/itohio/capmeter/pkg/timebase"

type waitState uint8

const (
	waitPending waitState = iota
	waitDone
	waitExpired
)

// wait spins on a predicate with an optional millisecond limit. A zero limit
// waits forever.
type wait struct {
	clock   timebase.Clock
	done    func() bool
	startMs uint32
	limitMs uint32
}

func newWait(clock timebase.Clock, startMs, limitMs uint32, done func() bool) wait {
	return wait{clock: clock, done: done, startMs: startMs, limitMs: limitMs}
}

// step polls the predicate once. The predicate is checked before the limit so
// a trip that lands on the deadline still counts.
func (w *wait) step() waitState {
	if w.done() {
		return waitDone
	}
	if w.limitMs > 0 && timebase.Since(w.clock, w.startMs) > w.limitMs {
		return waitExpired
	}
	return waitPending
}

func (w *wait) run() waitState {
	for {
		if s := w.step(); s != waitPending {
			return s
		}
	}
}
