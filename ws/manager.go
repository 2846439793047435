package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/pixeldash/race-server/race"
	"github.com/pixeldash/race-server/rooms"
	"github.com/pixeldash/race-server/state"
	"github.com/pixeldash/race-server/tokens"
	"github.com/pixeldash/race-server/util"
)

type ClientList map[string]*Client

type wsQuery struct {
	Token string `form:"token" binding:"required"`
}

// Manager routes inbound client events into the room registry, world state
// store and race arbiter, and fans outbound events back over the room's
// connections. It owns the mapping from room code to live connections.
type Manager struct {
	sync.RWMutex
	clients   ClientList
	roomConns map[string][]*Client
	handlers  map[string]EventHandler

	registry *rooms.Registry
	store    *state.Store
	arbiter  *race.Arbiter

	config   *util.Config
	validate *validator.Validate
	upgrader websocket.Upgrader
}

func NewManager(config *util.Config, registry *rooms.Registry, store *state.Store, arbiter *race.Arbiter) *Manager {
	m := &Manager{
		clients:   make(ClientList),
		roomConns: make(map[string][]*Client),
		handlers:  make(map[string]EventHandler),
		registry:  registry,
		store:     store,
		arbiter:   arbiter,
		config:    config,
		validate:  validator.New(),
	}

	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return r.Header.Get("Origin") == config.AllowedOrigin
		},
	}

	m.setupEventHandlers()

	return m
}

func (m *Manager) setupEventHandlers() {
	m.handlers[EventCreateRoom] = CreateRoomHandler
	m.handlers[EventJoinRoom] = JoinRoomHandler
	m.handlers[EventLeaveRoom] = LeaveRoomHandler
	m.handlers[EventStartRace] = StartRaceHandler
	m.handlers[EventWinClaim] = WinClaimHandler
	m.handlers[EventRestartRace] = RestartRaceHandler
}

func (m *Manager) routeEvent(evt Event, c *Client) error {
	if handler, ok := m.handlers[evt.Type]; ok {
		return handler(evt, c)
	}
	return errors.New("there is no such event type")
}

func (m *Manager) addClient(client *Client) {
	m.Lock()
	defer m.Unlock()
	m.clients[client.ID] = client
}

func (m *Manager) removeClient(client *Client) {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		client.connection.Close()
		delete(m.clients, client.ID)
	}
}

// attach binds a client's connection to a room's fan-out list.
func (m *Manager) attach(c *Client, code string) {
	m.Lock()
	defer m.Unlock()

	if !lo.Contains(m.roomConns[code], c) {
		m.roomConns[code] = append(m.roomConns[code], c)
	}
	c.setRoom(code)
}

// detach removes the client from its room's fan-out list.
func (m *Manager) detach(c *Client) {
	m.Lock()
	defer m.Unlock()

	code := c.Room()
	if code == "" {
		return
	}

	m.roomConns[code] = lo.Filter(m.roomConns[code], func(member *Client, _ int) bool {
		return member != c
	})
	if len(m.roomConns[code]) == 0 {
		delete(m.roomConns, code)
	}
	c.setRoom("")
}

// dropRoom tears down a room's fan-out list entirely. Remaining members
// stay connected but become roomless.
func (m *Manager) dropRoom(code string) {
	m.Lock()
	defer m.Unlock()

	for _, member := range m.roomConns[code] {
		member.setRoom("")
	}
	delete(m.roomConns, code)
}

// EmitToRoom queues evt on every connection currently bound to the room.
func (m *Manager) EmitToRoom(code string, evt Event) {
	m.RLock()
	members := m.roomConns[code]
	m.RUnlock()

	for _, member := range members {
		if err := member.PushEvent(evt.Type, evt.Payload); err != nil {
			log.Warn().Err(err).Str("room", code).Str("client", member.ID).Msg("emit failed")
		}
	}
}

// EmitBinaryToRoom queues a raw frame on every connection in the room.
func (m *Manager) EmitBinaryToRoom(code string, data []byte) {
	m.RLock()
	members := m.roomConns[code]
	m.RUnlock()

	for _, member := range members {
		member.pushBinary(data)
	}
}

// handleStateFrame stores one client-reported state record. The first four
// bytes of the frame carry the room code; they are stripped before storage.
// Frames that are too short, carry a room the client is not in, or have an
// empty payload are dropped silently.
func (m *Manager) handleStateFrame(c *Client, frame []byte) {
	if len(frame) <= rooms.CodeLength {
		return
	}

	code := rooms.NormalizeCode(string(frame[:rooms.CodeLength]))
	if c.Room() != code {
		return
	}

	if err := m.store.Update(code, c.ID, frame[rooms.CodeLength:]); err != nil {
		log.Debug().Err(err).Str("client", c.ID).Msg("dropping state frame")
	}
}

// handleLeave drives the full departure flow for a client, whether from an
// explicit leave_room event or a dropped connection: purge the client's
// world state, detach the connection, update the registry and notify the
// room. A host departure destroys the room; remaining members receive no
// further events for it.
func (m *Manager) handleLeave(c *Client) {
	code := c.Room()
	if code == "" {
		return
	}

	m.store.RemovePlayer(code, c.ID)
	m.detach(c)

	_, destroyed := m.registry.Leave(c.ID)
	if destroyed {
		m.store.ClearRoom(code)
		m.dropRoom(code)
		log.Info().Str("room", code).Msg("room destroyed")
		return
	}

	evt, err := NewEvent(EventPlayerLeft, PayloadPlayerLeft{ID: c.ID})
	if err != nil {
		log.Warn().Err(err).Msg("building player_left event")
		return
	}
	m.EmitToRoom(code, evt)

	// A race with everyone else gone reverts to the lobby so the room can
	// accept joins again.
	if room := m.registry.Get(code); room != nil && room.Phase() == rooms.PhaseRacing && room.Size() == 1 {
		room.SetPhase(rooms.PhaseLobby)
	}
}

// ServeWS upgrades an authenticated request to a websocket connection and
// runs the read/write pumps until the connection dies.
func (m *Manager) ServeWS(c *gin.Context) {
	var query wsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "token not sent",
		})
		return
	}

	payload, err := tokens.Parse(query.Token, []byte(m.config.JWTSecret))
	if err != nil {
		c.IndentedJSON(http.StatusUnauthorized, "unauthorized")
		return
	}

	conn, err := m.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("error upgrading to websocket connection")
		c.IndentedJSON(http.StatusInternalServerError, "something went wrong")
		return
	}

	client := NewClient(conn, m, payload.ID, payload.Username)
	m.addClient(client)

	log.Info().Str("client", client.ID).Str("name", client.Name).Msg("client connected")

	ctx, cancel := context.WithCancel(c)

	defer func() {
		cancel()
		m.handleLeave(client)
		m.removeClient(client)
		err := client.connection.WriteMessage(websocket.CloseMessage, nil)
		if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			log.Debug().Err(err).Msg("error sending close message")
		}
	}()

	go client.readMessages(ctx)
	go client.writeMessages(ctx)

	err = <-client.Err()

	log.Info().Err(err).Str("client", client.ID).Msg("client disconnected")
}
