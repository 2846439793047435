package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	pongWait     = 10 * time.Second
	pingInterval = (pongWait * 9) / 10
)

// egressSize bounds the per-connection outbound queue. A slow consumer
// drops frames instead of stalling the broadcast tick.
const egressSize = 32

type outbound struct {
	messageType int
	data        []byte
}

// Client is one websocket connection. Its identity and display name come
// from the token presented at connect time and are unique per connection
// for the life of the process.
type Client struct {
	ID   string
	Name string

	connection *websocket.Conn
	manager    *Manager
	egress     chan outbound
	err        chan error

	mu   sync.Mutex
	room string
}

func NewClient(conn *websocket.Conn, manager *Manager, id, name string) *Client {
	return &Client{
		ID:         id,
		Name:       name,
		connection: conn,
		manager:    manager,
		egress:     make(chan outbound, egressSize),
		err:        make(chan error),
	}
}

// Room returns the code of the room this client currently belongs to, or "".
func (c *Client) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Client) setRoom(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = code
}

// readMessages pumps inbound traffic. Structured events arrive as text
// frames; per-tick state records arrive as binary frames with a room-code
// prefix. Malformed input of either kind is expected noise from imperfect
// clients and is dropped without closing the connection.
func (c *Client) readMessages(ctx context.Context) {
	c.connection.SetReadLimit(1024)

	if err := c.connection.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.handleError(err)
		return
	}

	c.connection.SetPongHandler(c.pongHandler)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			messageType, payload, err := c.connection.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Debug().Err(err).Str("client", c.ID).Msg("error reading message")
				}
				c.handleError(err)
				return
			}

			if messageType == websocket.BinaryMessage {
				c.manager.handleStateFrame(c, payload)
				continue
			}

			var evt Event
			if err := json.Unmarshal(payload, &evt); err != nil {
				log.Debug().Err(err).Str("client", c.ID).Msg("dropping malformed event")
				continue
			}

			if err := c.manager.routeEvent(evt, c); err != nil {
				log.Warn().Err(err).Str("client", c.ID).Str("event", evt.Type).Msg("event handler failed")
			}
		}
	}
}

// writeMessages drains the egress queue onto the wire and keeps the
// connection alive with pings.
func (c *Client) writeMessages(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case message, ok := <-c.egress:
			if !ok {
				c.handleError(errors.New("client egress channel unexpectedly closed"))
				return
			}

			if err := c.connection.WriteMessage(message.messageType, message.data); err != nil {
				c.handleError(err)
				return
			}
		case <-ticker.C:
			if err := c.connection.WriteMessage(websocket.PingMessage, []byte("")); err != nil {
				c.handleError(err)
				return
			}
		}
	}
}

func (c *Client) pongHandler(pongMsg string) error {
	return c.connection.SetReadDeadline(time.Now().Add(pongWait))
}

func (c *Client) handleError(e error) {
	c.err <- e
}

func (c *Client) Err() chan error {
	return c.err
}

// PushEvent marshals a payload into an event and queues it for delivery.
func (c *Client) PushEvent(evtType string, payload any) error {
	evt, err := NewEvent(evtType, payload)
	if err != nil {
		return err
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	c.push(outbound{messageType: websocket.TextMessage, data: data})
	return nil
}

// PushError notifies this client of a rejected request.
func (c *Client) PushError(message string) error {
	return c.PushEvent(EventError, PayloadError{Message: message})
}

func (c *Client) pushBinary(data []byte) {
	c.push(outbound{messageType: websocket.BinaryMessage, data: data})
}

// push never blocks: delivery failure to one slow connection must not
// stall a broadcast tick or another room's traffic.
func (c *Client) push(msg outbound) {
	select {
	case c.egress <- msg:
	default:
		log.Debug().Str("client", c.ID).Msg("egress full, dropping frame")
	}
}
