package domain

import "github.com/jonboulle/clockwork"

// clockOrReal returns c, or the real clock when c is nil. Tests inject a
// fake clock so ages and supplementary timestamps are deterministic.
func clockOrReal(c clockwork.Clock) clockwork.Clock {
	if c == nil {
		return clockwork.NewRealClock()
	}
	return c
}
