package rooms

import (
	"strings"
	"sync"

	"github.com/pixeldash/race-server/track"
)

type Phase string

const (
	PhaseLobby  Phase = "lobby"
	PhaseRacing Phase = "racing"
)

// Capacity is the maximum roster size of a room, host included.
const Capacity = 4

// DefaultPlayerName replaces blank display names on create and join.
const DefaultPlayerName = "Racer"

type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Host bool   `json:"host"`
}

// Room is one race instance. All fields are guarded by mu; other packages
// go through the accessor methods and never hold references to the roster
// or track across lifecycle transitions.
type Room struct {
	mu     sync.Mutex
	code   string
	hostID string
	length string
	phase  Phase
	roster map[string]Player
	track  *track.Track
	winner string
}

func newRoom(code, hostID, hostName, length string) *Room {
	return &Room{
		code:   code,
		hostID: hostID,
		length: length,
		phase:  PhaseLobby,
		roster: map[string]Player{
			hostID: {ID: hostID, Name: normalizeName(hostName), Host: true},
		},
	}
}

func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultPlayerName
	}
	return name
}

func (r *Room) Code() string { return r.code }

func (r *Room) HostID() string { return r.hostID }

// Length returns the race-length selector the room was created with.
func (r *Room) Length() string { return r.length }

func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

func (r *Room) SetPhase(p Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phase = p
}

// Roster returns a copy of the current player list.
func (r *Room) Roster() []Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	players := make([]Player, 0, len(r.roster))
	for _, p := range r.roster {
		players = append(players, p)
	}
	return players
}

func (r *Room) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.roster)
}

// EnsureTrack returns the room's track, generating it with gen if no track
// has been locked in for the current race instance. The generator runs at
// most once per instance; every later call returns the cached value, so all
// peers see an identical course regardless of join order. Generating a
// fresh track also clears any winner left over from a previous instance.
func (r *Room) EnsureTrack(gen func() *track.Track) *track.Track {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.track == nil {
		r.track = gen()
		r.winner = ""
	}
	return r.track
}

func (r *Room) Track() *track.Track {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.track
}

func (r *Room) Winner() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.winner
}

// CompareAndSetWinner locks in name as the winner if no winner is set yet.
// It returns the winning name and whether this call won the race. The check
// and the set happen under one lock so two concurrent claims can never both
// observe an unset winner.
func (r *Room) CompareAndSetWinner(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.winner != "" {
		return r.winner, false
	}
	r.winner = name
	return r.winner, true
}

// ResetRace clears the track and winner so a new race instance can be
// started in the same room.
func (r *Room) ResetRace() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.track = nil
	r.winner = ""
}

func (r *Room) addPlayer(id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseLobby {
		return ErrRoomAlreadyStarted
	}
	if len(r.roster) >= Capacity {
		return ErrRoomFull
	}
	r.roster[id] = Player{ID: id, Name: normalizeName(name)}
	return nil
}

// removePlayer drops id from the roster and reports whether the room should
// be destroyed: the host leaving invalidates the whole room, as does an
// empty roster.
func (r *Room) removePlayer(id string) (destroy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.roster, id)
	return id == r.hostID || len(r.roster) == 0
}
