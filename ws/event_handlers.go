package ws

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/pixeldash/race-server/race"
	"github.com/pixeldash/race-server/rooms"
)

// CreateRoomHandler creates a room with the requesting client as host and
// announces it. Clients already in a room cannot create another one; the
// request is dropped.
func CreateRoomHandler(e Event, c *Client) error {
	var payload PayloadCreateRoom
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return c.PushError("invalid payload")
	}
	if err := c.manager.validate.Struct(payload); err != nil {
		return c.PushError("invalid payload")
	}

	if c.Room() != "" {
		return nil
	}

	name := payload.Name
	if name == "" {
		name = c.Name
	}

	// Unrecognized selectors collapse to the default distance up front so
	// the room always carries a resolvable length.
	length := race.Lookup(payload.RaceLength).Selector

	room, err := c.manager.registry.Create(c.ID, name, length)
	if err != nil {
		return err
	}

	c.manager.attach(c, room.Code())

	log.Info().Str("room", room.Code()).Str("host", c.ID).Msg("room created")

	evt, err := NewEvent(EventRoomCreated, newRoomStatePayload(room))
	if err != nil {
		return err
	}
	c.manager.EmitToRoom(room.Code(), evt)
	return nil
}

// JoinRoomHandler adds the client to an existing lobby. Rejections (room
// absent, race underway, room full) go back to the requester as an error
// event; a successful join re-announces the roster to the whole room so
// every member converges on the same view.
func JoinRoomHandler(e Event, c *Client) error {
	var payload PayloadJoinRoom
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return c.PushError("invalid payload")
	}
	if err := c.manager.validate.Struct(payload); err != nil {
		return c.PushError("invalid payload")
	}

	if c.Room() != "" {
		return nil
	}

	name := payload.Name
	if name == "" {
		name = c.Name
	}

	room, err := c.manager.registry.Join(payload.Code, c.ID, name)
	if err != nil {
		switch {
		case errors.Is(err, rooms.ErrRoomNotFound),
			errors.Is(err, rooms.ErrRoomAlreadyStarted),
			errors.Is(err, rooms.ErrRoomFull):
			return c.PushError(err.Error())
		default:
			return err
		}
	}

	c.manager.attach(c, room.Code())

	evt, err := NewEvent(EventRoomUpdated, newRoomStatePayload(room))
	if err != nil {
		return err
	}
	c.manager.EmitToRoom(room.Code(), evt)
	return nil
}

// LeaveRoomHandler removes the client from its room. The same flow runs on
// disconnect, so an explicit leave and a dropped connection are
// indistinguishable to the rest of the room.
func LeaveRoomHandler(e Event, c *Client) error {
	c.manager.handleLeave(c)
	return nil
}

// StartRaceHandler locks in the room's track and flips it to racing. The
// track is generated at most once per race instance, so every member
// receives the identical course no matter when they ask.
func StartRaceHandler(e Event, c *Client) error {
	var payload PayloadRoomCode
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return c.PushError("invalid payload")
	}
	if err := c.manager.validate.Struct(payload); err != nil {
		return c.PushError("invalid payload")
	}

	room := c.manager.registry.Get(payload.Code)
	if room == nil {
		return c.PushError(rooms.ErrRoomNotFound.Error())
	}
	if c.Room() != room.Code() {
		return nil
	}

	tr := c.manager.arbiter.EnsureTrack(room)
	room.SetPhase(rooms.PhaseRacing)

	log.Info().Str("room", room.Code()).Msg("race started")

	evt, err := NewEvent(EventRaceStarted, PayloadRaceStarted{
		Track:      tr,
		RaceLength: room.Length(),
	})
	if err != nil {
		return err
	}
	c.manager.EmitToRoom(room.Code(), evt)
	return nil
}

// WinClaimHandler arbitrates a finish-line claim. Exactly one claim per
// race instance succeeds; losing and out-of-bounds claims are dropped
// without notifying the claimant, the authoritative race_over broadcast is
// what matters.
func WinClaimHandler(e Event, c *Client) error {
	var payload PayloadWinClaim
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return nil
	}
	if err := c.manager.validate.Struct(payload); err != nil {
		return nil
	}

	room := c.manager.registry.Get(payload.Code)
	if room == nil || c.Room() != room.Code() {
		return nil
	}

	name := payload.Name
	if name == "" {
		name = c.Name
	}

	winner, err := c.manager.arbiter.TrySetWinner(room, name, payload.Position)
	if err != nil {
		log.Debug().Err(err).Str("room", room.Code()).Str("claimant", name).Str("winner", winner).Msg("win claim rejected")
		return nil
	}

	room.SetPhase(rooms.PhaseLobby)
	c.manager.store.ClearRoom(room.Code())

	log.Info().Str("room", room.Code()).Str("winner", winner).Msg("race over")

	evt, err := NewEvent(EventRaceOver, PayloadRaceOver{Winner: winner})
	if err != nil {
		return err
	}
	c.manager.EmitToRoom(room.Code(), evt)
	return nil
}

// RestartRaceHandler resets the arbiter state and starts a fresh race
// instance with a newly generated track. Host only; anyone else's request
// is dropped without effect.
func RestartRaceHandler(e Event, c *Client) error {
	var payload PayloadRoomCode
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return nil
	}
	if err := c.manager.validate.Struct(payload); err != nil {
		return nil
	}

	room := c.manager.registry.Get(payload.Code)
	if room == nil || c.Room() != room.Code() {
		return nil
	}
	if room.HostID() != c.ID {
		return nil
	}

	c.manager.arbiter.Reset(room)
	tr := c.manager.arbiter.EnsureTrack(room)
	room.SetPhase(rooms.PhaseRacing)
	c.manager.store.ClearRoom(room.Code())

	log.Info().Str("room", room.Code()).Msg("race restarted")

	evt, err := NewEvent(EventRaceRestarted, PayloadRaceStarted{
		Track:      tr,
		RaceLength: room.Length(),
	})
	if err != nil {
		return err
	}
	c.manager.EmitToRoom(room.Code(), evt)
	return nil
}
