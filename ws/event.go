package ws

import (
	"encoding/json"

	"github.com/pixeldash/race-server/rooms"
	"github.com/pixeldash/race-server/track"
)

// Event is the structured half of the wire protocol. State frames travel
// as raw binary messages next to these and never pass through here.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type EventHandler func(e Event, c *Client) error

// Inbound event types.
const (
	EventCreateRoom  = "create_room"
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventStartRace   = "start_race"
	EventWinClaim    = "win_claim"
	EventRestartRace = "restart_race"
)

// Outbound event types.
const (
	EventRoomCreated   = "room_created"
	EventRoomUpdated   = "room_updated"
	EventRaceStarted   = "race_started"
	EventRaceOver      = "race_over"
	EventRaceRestarted = "race_restarted"
	EventPlayerLeft    = "player_left"
	EventError         = "error"
)

type PayloadCreateRoom struct {
	Name       string `json:"name" validate:"max=32"`
	RaceLength string `json:"race_length" validate:"max=16"`
}

type PayloadJoinRoom struct {
	Code string `json:"code" validate:"required,len=4,alphanum"`
	Name string `json:"name" validate:"max=32"`
}

type PayloadRoomCode struct {
	Code string `json:"code" validate:"required,len=4,alphanum"`
}

type PayloadWinClaim struct {
	Code     string  `json:"code" validate:"required,len=4,alphanum"`
	Name     string  `json:"name" validate:"max=32"`
	Position float64 `json:"position"`
}

type PayloadRoomState struct {
	Code       string         `json:"code"`
	RaceLength string         `json:"race_length"`
	Roster     []rooms.Player `json:"roster"`
}

type PayloadRaceStarted struct {
	Track      *track.Track `json:"track"`
	RaceLength string       `json:"race_length"`
}

type PayloadRaceOver struct {
	Winner string `json:"winner"`
}

type PayloadPlayerLeft struct {
	ID string `json:"id"`
}

type PayloadError struct {
	Message string `json:"message"`
}

func NewEvent(evtType string, payload any) (Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{
		Type:    evtType,
		Payload: b,
	}, nil
}

func newRoomStatePayload(room *rooms.Room) PayloadRoomState {
	return PayloadRoomState{
		Code:       room.Code(),
		RaceLength: room.Length(),
		Roster:     room.Roster(),
	}
}
