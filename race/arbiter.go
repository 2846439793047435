// Package race arbitrates the two per-room single-assignment values: the
// generated track and the winner.
package race

import (
	"errors"

	"github.com/pixeldash/race-server/rooms"
	"github.com/pixeldash/race-server/track"
)

// FinishTolerancePx is how far short of the finish line a reported winning
// position may be and still be accepted. It forgives quantization and
// in-flight staleness, it is not an anti-cheat boundary.
const FinishTolerancePx = 48.0

var (
	ErrWinnerAlreadyLocked = errors.New("winner already locked")
	ErrShortOfFinish       = errors.New("reported position short of finish line")
)

// Arbiter wraps an injected track generator. The generator is treated as
// impure: it runs at most once per race instance and the result is cached
// on the room, never regenerated per requester.
type Arbiter struct {
	generate track.Generator
}

func NewArbiter(gen track.Generator) *Arbiter {
	return &Arbiter{generate: gen}
}

// EnsureTrack returns the room's track, generating one for the room's race
// length if none is locked in yet. Calling it again returns the identical
// cached track.
func (a *Arbiter) EnsureTrack(room *rooms.Room) *track.Track {
	length := Lookup(room.Length())
	return room.EnsureTrack(func() *track.Track {
		return a.generate(length.FinishPx)
	})
}

// TrySetWinner attempts to lock in name as the room's winner. On
// ErrWinnerAlreadyLocked the returned name is the winner that beat this
// claim, so callers can surface who actually won. Claims reporting a
// position short of the finish line (minus tolerance) are rejected even
// when no winner is locked yet.
func (a *Arbiter) TrySetWinner(room *rooms.Room, name string, position float64) (string, error) {
	if w := room.Winner(); w != "" {
		return w, ErrWinnerAlreadyLocked
	}

	length := Lookup(room.Length())
	if position < length.FinishPx-FinishTolerancePx {
		return "", ErrShortOfFinish
	}

	winner, ok := room.CompareAndSetWinner(name)
	if !ok {
		return winner, ErrWinnerAlreadyLocked
	}
	return winner, nil
}

// Reset clears the room's track and winner ahead of a new race instance in
// the same room.
func (a *Arbiter) Reset(room *rooms.Room) {
	room.ResetRace()
}
