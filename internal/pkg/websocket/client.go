package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 16 * 1024

	// Time allowed for one client command to finish
	commandTimeout = 10 * time.Second
)

// Session adapts one live object (an inbox or a chat room) to a socket
type Session interface {
	// Initial returns the frames sent right after the upgrade
	Initial() []Frame
	// Handle executes one client command and returns the replies
	Handle(ctx context.Context, in Frame) []Frame
	// Updates streams pushed frames. It is closed by Close.
	Updates() <-chan Frame
	Close()
}

// Client is a middleman between the websocket connection and a Session
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	session   Session
	endpoint  string
	profileID string

	// Buffered channel of outbound messages
	send     chan []byte
	sendMu   sync.Mutex
	sendDone bool

	logger zerolog.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, session Session, endpoint, profileID string, logger zerolog.Logger) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		session:   session,
		endpoint:  endpoint,
		profileID: profileID,
		send:      make(chan []byte, 256),
		logger:    logger.With().Str("endpoint", endpoint).Str("profileID", profileID).Logger(),
	}
}

// enqueue serializes f onto the outbound queue. Frames for a full queue are dropped.
func (c *Client) enqueue(f Frame) {
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now()
	}
	data, err := json.Marshal(f)
	if err != nil {
		c.logger.Error().Err(err).Str("type", f.Type).Msg("Failed to marshal frame")
		return
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendDone {
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn().Str("type", f.Type).Msg("Outbound queue full, dropping frame")
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.sendDone {
		c.sendDone = true
		close(c.send)
	}
}

// start registers the client and runs its pumps
func (c *Client) start() {
	if !c.hub.Register(c) {
		c.session.Close()
		c.conn.Close()
		return
	}
	for _, f := range c.session.Initial() {
		c.enqueue(f)
	}

	go c.forward()
	go c.writePump()
	go c.readPump()
}

// forward copies pushed frames until the session closes
func (c *Client) forward() {
	for f := range c.session.Updates() {
		c.enqueue(f)
	}
}

// readPump pumps commands from the websocket connection to the session
func (c *Client) readPump() {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		c.hub.Unregister(c)
		c.session.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info().Msg("WebSocket closed normally")
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("Unexpected WebSocket close")
			} else {
				c.logger.Debug().Err(err).Msg("WebSocket read error")
			}
			return
		}

		var in Frame
		if err := json.Unmarshal(message, &in); err != nil {
			c.enqueue(Frame{Type: "error", Error: "malformed frame"})
			continue
		}

		cmdCtx, cmdCancel := context.WithTimeout(ctx, commandTimeout)
		replies := c.session.Handle(cmdCtx, in)
		cmdCancel()
		for _, f := range replies {
			c.enqueue(f)
		}
	}
}

// writePump pumps frames from the queue to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
