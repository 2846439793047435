package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/pixeldash/race-server/race"
	"github.com/pixeldash/race-server/rooms"
	"github.com/pixeldash/race-server/state"
	"github.com/pixeldash/race-server/track"
	"github.com/pixeldash/race-server/util"
)

func newTestManager() *Manager {
	cfg := &util.Config{
		Port:              "8080",
		JWTSecret:         "test-secret",
		AllowedOrigin:     "http://localhost:8080",
		BroadcastInterval: 20 * time.Millisecond,
	}
	return NewManager(cfg, rooms.NewRegistry(), state.NewStore(), race.NewArbiter(track.Generate))
}

// newTestClient registers a client without a live connection. Handlers only
// touch the egress queue, so tests inspect queued frames directly instead
// of running the write pump.
func newTestClient(m *Manager, name string) *Client {
	c := NewClient(nil, m, uuid.NewString(), name)
	m.addClient(c)
	return c
}

func send(t *testing.T, c *Client, evtType string, payload any) {
	t.Helper()
	evt, err := NewEvent(evtType, payload)
	require.NoError(t, err)
	require.NoError(t, c.manager.routeEvent(evt, c))
}

func nextEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg := <-c.egress:
		require.Equal(t, websocket.TextMessage, msg.messageType)
		var evt Event
		require.NoError(t, json.Unmarshal(msg.data, &evt))
		return evt
	default:
		t.Fatal("no event queued")
		return Event{}
	}
}

func nextBinary(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.egress:
		require.Equal(t, websocket.BinaryMessage, msg.messageType)
		return msg.data
	default:
		t.Fatal("no binary frame queued")
		return nil
	}
}

func requireNoEvents(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.egress:
		t.Fatalf("unexpected queued frame: %s", msg.data)
	default:
	}
}

func drain(c *Client) {
	for {
		select {
		case <-c.egress:
		default:
			return
		}
	}
}

func decodePayload[T any](t *testing.T, evt Event) T {
	t.Helper()
	var p T
	require.NoError(t, json.Unmarshal(evt.Payload, &p))
	return p
}

// createRoom drives the create_room flow and returns the new room's code.
func createRoom(t *testing.T, c *Client, raceLength string) string {
	t.Helper()
	send(t, c, EventCreateRoom, PayloadCreateRoom{Name: c.Name, RaceLength: raceLength})
	evt := nextEvent(t, c)
	require.Equal(t, EventRoomCreated, evt.Type)
	return decodePayload[PayloadRoomState](t, evt).Code
}
