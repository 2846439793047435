// Package state holds each racing player's latest client-reported state
// record and aggregates them into per-room binary snapshots. The server is
// a relay for these records, it never parses them.
package state

import (
	"errors"
	"sync"

	"github.com/samber/lo"
)

// SnapshotTag is the first byte of every snapshot frame.
const SnapshotTag = 0x01

var ErrEmptyPayload = errors.New("empty state payload")

// Store maps room code -> player identity -> latest state record bytes.
// Records are last-write-wins: a newer record overwrites the previous one
// unconditionally, there is no queue and no sequence numbering.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]map[string][]byte
}

func NewStore() *Store {
	return &Store{rooms: make(map[string]map[string][]byte)}
}

// Update upserts the state record for (code, id). The payload is opaque;
// the only validation is that it is non-empty. The bytes are copied so the
// caller may reuse its read buffer.
func (s *Store) Update(code, id string, payload []byte) error {
	if len(payload) == 0 {
		return ErrEmptyPayload
	}

	record := make([]byte, len(payload))
	copy(record, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		room = make(map[string][]byte)
		s.rooms[code] = room
	}
	room[id] = record
	return nil
}

// Snapshot builds the broadcast frame for one room: a tag byte, a count
// byte, then every player's raw record concatenated. Returns nil when the
// room has no stored records, so just-started or emptied rooms produce no
// broadcast at all. Record order is not stable across calls; consumers must
// key on identity fields embedded in the records, not on position.
func (s *Store) Snapshot(code string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[code]
	if !ok || len(room) == 0 {
		return nil
	}

	size := 2
	for _, record := range room {
		size += len(record)
	}

	buf := make([]byte, 0, size)
	buf = append(buf, SnapshotTag, byte(len(room)))
	for _, record := range room {
		buf = append(buf, record...)
	}
	return buf
}

// RemovePlayer drops one player's record. An inner map left empty is
// removed with it, so ActiveRooms never reports drained rooms.
func (s *Store) RemovePlayer(code, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return
	}
	delete(room, id)
	if len(room) == 0 {
		delete(s.rooms, code)
	}
}

// ClearRoom drops all state for a room. Used on race end and restart.
func (s *Store) ClearRoom(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
}

// ActiveRooms lists rooms that currently hold at least one state record.
func (s *Store) ActiveRooms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Keys(s.rooms)
}
