package ws

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pixeldash/race-server/race"
	"github.com/pixeldash/race-server/rooms"
)

func TestCreateRoomHandler(t *testing.T) {
	t.Run("creates a room with the requester as host", func(t *testing.T) {
		m := newTestManager()
		host := newTestClient(m, "Ada")

		send(t, host, EventCreateRoom, PayloadCreateRoom{Name: "Ada", RaceLength: "1000m"})

		evt := nextEvent(t, host)
		require.Equal(t, EventRoomCreated, evt.Type)

		payload := decodePayload[PayloadRoomState](t, evt)
		require.Len(t, payload.Code, rooms.CodeLength)
		require.Equal(t, "1000m", payload.RaceLength)
		require.Len(t, payload.Roster, 1)
		require.True(t, payload.Roster[0].Host)
		require.Equal(t, "Ada", payload.Roster[0].Name)

		require.Equal(t, payload.Code, host.Room())
		require.NotNil(t, m.registry.Get(payload.Code))
	})

	t.Run("unrecognized race length collapses to the default", func(t *testing.T) {
		m := newTestManager()
		host := newTestClient(m, "Ada")

		send(t, host, EventCreateRoom, PayloadCreateRoom{Name: "Ada", RaceLength: "marathon"})

		payload := decodePayload[PayloadRoomState](t, nextEvent(t, host))
		require.Equal(t, race.DefaultSelector, payload.RaceLength)
	})

	t.Run("blank name falls back to the token name", func(t *testing.T) {
		m := newTestManager()
		host := newTestClient(m, "Ada")

		send(t, host, EventCreateRoom, PayloadCreateRoom{})

		payload := decodePayload[PayloadRoomState](t, nextEvent(t, host))
		require.Equal(t, "Ada", payload.Roster[0].Name)
	})

	t.Run("a client already in a room cannot create another", func(t *testing.T) {
		m := newTestManager()
		host := newTestClient(m, "Ada")
		code := createRoom(t, host, "500m")

		send(t, host, EventCreateRoom, PayloadCreateRoom{Name: "Ada"})

		requireNoEvents(t, host)
		require.Equal(t, code, host.Room())
	})

	t.Run("malformed payload yields an error event", func(t *testing.T) {
		m := newTestManager()
		host := newTestClient(m, "Ada")

		evt := Event{Type: EventCreateRoom, Payload: []byte(`"not an object"`)}
		require.NoError(t, m.routeEvent(evt, host))

		errEvt := nextEvent(t, host)
		require.Equal(t, EventError, errEvt.Type)
	})
}

func TestJoinRoomHandler(t *testing.T) {
	t.Run("join announces the new roster to the whole room", func(t *testing.T) {
		m := newTestManager()
		host := newTestClient(m, "Ada")
		bob := newTestClient(m, "Bob")
		code := createRoom(t, host, "500m")

		send(t, bob, EventJoinRoom, PayloadJoinRoom{Code: code, Name: "Bob"})

		for _, c := range []*Client{host, bob} {
			evt := nextEvent(t, c)
			require.Equal(t, EventRoomUpdated, evt.Type)
			payload := decodePayload[PayloadRoomState](t, evt)
			require.Equal(t, code, payload.Code)
			require.Len(t, payload.Roster, 2)
		}
		require.Equal(t, code, bob.Room())
	})

	t.Run("unknown code", func(t *testing.T) {
		m := newTestManager()
		bob := newTestClient(m, "Bob")

		send(t, bob, EventJoinRoom, PayloadJoinRoom{Code: "ZZZ9", Name: "Bob"})

		evt := nextEvent(t, bob)
		require.Equal(t, EventError, evt.Type)
		require.Equal(t, rooms.ErrRoomNotFound.Error(), decodePayload[PayloadError](t, evt).Message)
		require.Empty(t, bob.Room())
	})

	t.Run("racing room rejects the join", func(t *testing.T) {
		m := newTestManager()
		host := newTestClient(m, "Ada")
		bob := newTestClient(m, "Bob")
		code := createRoom(t, host, "500m")
		m.registry.Get(code).SetPhase(rooms.PhaseRacing)

		send(t, bob, EventJoinRoom, PayloadJoinRoom{Code: code, Name: "Bob"})

		evt := nextEvent(t, bob)
		require.Equal(t, EventError, evt.Type)
		require.Equal(t, rooms.ErrRoomAlreadyStarted.Error(), decodePayload[PayloadError](t, evt).Message)
		require.Equal(t, 1, m.registry.Get(code).Size())
	})

	t.Run("full room rejects the join", func(t *testing.T) {
		m := newTestManager()
		host := newTestClient(m, "Ada")
		code := createRoom(t, host, "500m")

		for i := 2; i <= rooms.Capacity; i++ {
			member := newTestClient(m, fmt.Sprintf("racer-%d", i))
			send(t, member, EventJoinRoom, PayloadJoinRoom{Code: code})
		}

		late := newTestClient(m, "Late")
		send(t, late, EventJoinRoom, PayloadJoinRoom{Code: code, Name: "Late"})

		evt := nextEvent(t, late)
		require.Equal(t, EventError, evt.Type)
		require.Equal(t, rooms.ErrRoomFull.Error(), decodePayload[PayloadError](t, evt).Message)
	})
}

func TestStartRaceHandler(t *testing.T) {
	t.Run("any member can start and everyone gets the identical track", func(t *testing.T) {
		m := newTestManager()
		host := newTestClient(m, "Ada")
		bob := newTestClient(m, "Bob")
		code := createRoom(t, host, "500m")
		send(t, bob, EventJoinRoom, PayloadJoinRoom{Code: code, Name: "Bob"})
		drain(host)
		drain(bob)

		send(t, bob, EventStartRace, PayloadRoomCode{Code: code})

		hostEvt := nextEvent(t, host)
		bobEvt := nextEvent(t, bob)
		require.Equal(t, EventRaceStarted, hostEvt.Type)
		require.Equal(t, EventRaceStarted, bobEvt.Type)
		require.Equal(t, []byte(hostEvt.Payload), []byte(bobEvt.Payload))

		payload := decodePayload[PayloadRaceStarted](t, hostEvt)
		require.NotNil(t, payload.Track)
		require.Equal(t, "500m", payload.RaceLength)

		require.Equal(t, rooms.PhaseRacing, m.registry.Get(code).Phase())
	})

	t.Run("non-members cannot start someone else's race", func(t *testing.T) {
		m := newTestManager()
		host := newTestClient(m, "Ada")
		outsider := newTestClient(m, "Eve")
		code := createRoom(t, host, "500m")

		send(t, outsider, EventStartRace, PayloadRoomCode{Code: code})

		requireNoEvents(t, host)
		requireNoEvents(t, outsider)
		require.Equal(t, rooms.PhaseLobby, m.registry.Get(code).Phase())
	})
}

func TestWinClaimHandler(t *testing.T) {
	finish := race.Lookup("500m").FinishPx

	setup := func(t *testing.T) (*Manager, *Client, *Client, string) {
		m := newTestManager()
		host := newTestClient(m, "Ada")
		bob := newTestClient(m, "Bob")
		code := createRoom(t, host, "500m")
		send(t, bob, EventJoinRoom, PayloadJoinRoom{Code: code, Name: "Bob"})
		send(t, host, EventStartRace, PayloadRoomCode{Code: code})
		drain(host)
		drain(bob)
		return m, host, bob, code
	}

	t.Run("accepted claim ends the race for the whole room", func(t *testing.T) {
		m, host, bob, code := setup(t)
		require.NoError(t, m.store.Update(code, host.ID, []byte{1}))

		send(t, host, EventWinClaim, PayloadWinClaim{Code: code, Name: "Ada", Position: finish})

		for _, c := range []*Client{host, bob} {
			evt := nextEvent(t, c)
			require.Equal(t, EventRaceOver, evt.Type)
			require.Equal(t, "Ada", decodePayload[PayloadRaceOver](t, evt).Winner)
		}

		room := m.registry.Get(code)
		require.Equal(t, rooms.PhaseLobby, room.Phase())
		require.Equal(t, "Ada", room.Winner())
		require.Nil(t, m.store.Snapshot(code))
	})

	t.Run("losing claim is dropped silently", func(t *testing.T) {
		m, host, bob, code := setup(t)

		send(t, host, EventWinClaim, PayloadWinClaim{Code: code, Name: "Ada", Position: finish})
		drain(host)
		drain(bob)

		send(t, bob, EventWinClaim, PayloadWinClaim{Code: code, Name: "Bob", Position: finish})

		requireNoEvents(t, host)
		requireNoEvents(t, bob)
		require.Equal(t, "Ada", m.registry.Get(code).Winner())
	})

	t.Run("claim short of the finish line is dropped even with no winner", func(t *testing.T) {
		m, host, bob, code := setup(t)

		send(t, host, EventWinClaim, PayloadWinClaim{
			Code:     code,
			Name:     "Ada",
			Position: finish - race.FinishTolerancePx - 1,
		})

		requireNoEvents(t, host)
		requireNoEvents(t, bob)
		require.Empty(t, m.registry.Get(code).Winner())
	})
}

func TestRestartRaceHandler(t *testing.T) {
	setup := func(t *testing.T) (*Manager, *Client, *Client, string) {
		m := newTestManager()
		host := newTestClient(m, "Ada")
		bob := newTestClient(m, "Bob")
		code := createRoom(t, host, "500m")
		send(t, bob, EventJoinRoom, PayloadJoinRoom{Code: code, Name: "Bob"})
		send(t, host, EventStartRace, PayloadRoomCode{Code: code})
		drain(host)
		drain(bob)
		return m, host, bob, code
	}

	t.Run("host restart regenerates the track and clears state", func(t *testing.T) {
		m, host, bob, code := setup(t)
		room := m.registry.Get(code)
		before := room.Track()
		require.NoError(t, m.store.Update(code, bob.ID, []byte{1}))

		send(t, host, EventRestartRace, PayloadRoomCode{Code: code})

		for _, c := range []*Client{host, bob} {
			evt := nextEvent(t, c)
			require.Equal(t, EventRaceRestarted, evt.Type)
		}

		require.NotSame(t, before, room.Track())
		require.Empty(t, room.Winner())
		require.Equal(t, rooms.PhaseRacing, room.Phase())
		require.Nil(t, m.store.Snapshot(code))
	})

	t.Run("non-host restart is dropped without effect", func(t *testing.T) {
		m, host, bob, code := setup(t)
		room := m.registry.Get(code)
		before := room.Track()

		send(t, bob, EventRestartRace, PayloadRoomCode{Code: code})

		requireNoEvents(t, host)
		requireNoEvents(t, bob)
		require.Same(t, before, room.Track())
	})
}

func TestLeaveRoomHandler(t *testing.T) {
	t.Run("departure is announced and the roster shrinks", func(t *testing.T) {
		m := newTestManager()
		host := newTestClient(m, "Ada")
		bob := newTestClient(m, "Bob")
		code := createRoom(t, host, "500m")
		send(t, bob, EventJoinRoom, PayloadJoinRoom{Code: code, Name: "Bob"})
		drain(host)
		drain(bob)

		send(t, bob, EventLeaveRoom, PayloadRoomCode{Code: code})

		evt := nextEvent(t, host)
		require.Equal(t, EventPlayerLeft, evt.Type)
		require.Equal(t, bob.ID, decodePayload[PayloadPlayerLeft](t, evt).ID)

		require.Empty(t, bob.Room())
		require.Equal(t, 1, m.registry.Get(code).Size())
	})

	t.Run("last non-host member leaving mid-race reverts the room to lobby", func(t *testing.T) {
		m := newTestManager()
		host := newTestClient(m, "Ada")
		bob := newTestClient(m, "Bob")
		code := createRoom(t, host, "500m")
		send(t, bob, EventJoinRoom, PayloadJoinRoom{Code: code, Name: "Bob"})
		send(t, host, EventStartRace, PayloadRoomCode{Code: code})
		drain(host)
		drain(bob)

		send(t, bob, EventLeaveRoom, PayloadRoomCode{Code: code})

		room := m.registry.Get(code)
		require.NotNil(t, room)
		require.Equal(t, rooms.PhaseLobby, room.Phase())
	})

	t.Run("host leaving destroys the room silently", func(t *testing.T) {
		m := newTestManager()
		host := newTestClient(m, "Ada")
		bob := newTestClient(m, "Bob")
		code := createRoom(t, host, "500m")
		send(t, bob, EventJoinRoom, PayloadJoinRoom{Code: code, Name: "Bob"})
		require.NoError(t, m.store.Update(code, bob.ID, []byte{1}))
		drain(host)
		drain(bob)

		send(t, host, EventLeaveRoom, PayloadRoomCode{Code: code})

		require.Nil(t, m.registry.Get(code))
		require.Nil(t, m.store.Snapshot(code))
		require.Empty(t, bob.Room())
		requireNoEvents(t, bob)
	})
}
