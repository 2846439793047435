package rooms

import (
	"strings"
	"sync"
)

const maxCodeAttempts = 10

// Registry owns the room table and the identity-to-room reverse index. It is
// constructed explicitly and passed into collaborators, there are no package
// level singletons.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	members map[string]string // identity -> room code
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:   make(map[string]*Room),
		members: make(map[string]string),
	}
}

// Create makes a new room with hostID as its sole member. Codes are
// regenerated until one does not collide with a live room.
func (g *Registry) Create(hostID, hostName, length string) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := 0; i < maxCodeAttempts; i++ {
		code, err := GenerateCode()
		if err != nil {
			return nil, err
		}
		if _, exists := g.rooms[code]; exists {
			continue
		}
		room := newRoom(code, hostID, hostName, length)
		g.rooms[code] = room
		g.members[hostID] = code
		return room, nil
	}
	return nil, ErrCodeSpaceExhausted
}

// Join adds id to the room identified by code. Codes match
// case-insensitively. Fails with ErrRoomNotFound, ErrRoomAlreadyStarted or
// ErrRoomFull; a failed join never mutates the roster.
func (g *Registry) Join(code, id, name string) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[NormalizeCode(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if err := room.addPlayer(id, name); err != nil {
		return nil, err
	}
	g.members[id] = room.code
	return room, nil
}

// Leave removes id from whichever room it belongs to and reports the
// affected room code and whether the room was destroyed. Destruction drops
// the room and every reverse-index entry pointing at it atomically, no
// partial roster is observable after Leave returns.
func (g *Registry) Leave(id string) (code string, destroyed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	code, ok := g.members[id]
	if !ok {
		return "", false
	}
	delete(g.members, id)

	room, ok := g.rooms[code]
	if !ok {
		return code, false
	}

	if room.removePlayer(id) {
		delete(g.rooms, code)
		for memberID, memberCode := range g.members {
			if memberCode == code {
				delete(g.members, memberID)
			}
		}
		return code, true
	}
	return code, false
}

// Get returns the room for code, or nil. Codes match case-insensitively.
func (g *Registry) Get(code string) *Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rooms[NormalizeCode(code)]
}

// RoomOf returns the code of the room id currently belongs to.
func (g *Registry) RoomOf(id string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	code, ok := g.members[id]
	return code, ok
}

// NormalizeCode maps client-supplied codes onto the canonical uppercase
// form used as registry keys and frame prefixes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
