package websocket

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024

	DefaultSendBuffer = 256
)

// Client is one authenticated connection. The user identity is fixed at
// handshake; rooms is only touched by the hub goroutine.
type Client struct {
	id       uuid.UUID
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	userID   uuid.UUID
	userName string
	rooms    map[string]bool

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, userName string, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Client{
		id:       uuid.New(),
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		userID:   userID,
		userName: userName,
		rooms:    make(map[string]bool),
	}
}

func (c *Client) ID() uuid.UUID     { return c.id }
func (c *Client) UserID() uuid.UUID { return c.userID }
func (c *Client) UserName() string  { return c.userName }

// trySend queues data without blocking. It reports false when the client is
// closed or its buffer is full.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close stops the write pump. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("INVALID_MESSAGE", "Message must be a JSON object with a type")
			continue
		}

		ev, err := DecodeEvent(&msg)
		if err != nil {
			if errors.Is(err, ErrUnknownEvent) {
				c.sendError("UNKNOWN_EVENT", err.Error())
			} else {
				c.sendError("INVALID_PAYLOAD", err.Error())
			}
			continue
		}

		c.handleEvent(ev)
	}
}

func (c *Client) WritePump() {
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
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
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

func (c *Client) handleEvent(ev Event) {
	switch e := ev.(type) {
	case JoinResearch:
		c.hub.Join(c, e.Research)

	case LeaveResearch:
		c.hub.Leave(c, e.Research)

	case ResearchUpdate:
		payload, err := researchUpdated(e, c.userID, c.userName, time.Now())
		if err != nil {
			log.Printf("ERROR [Client.handleEvent] build research-updated: %v", err)
			return
		}
		c.relay(e.Research, MessageTypeResearchUpdated, payload)

	case CursorPosition:
		c.relay(e.Research, MessageTypeCursorUpdate, CursorUpdatePayload{
			UserID:     c.userID,
			UserName:   c.userName,
			ResearchID: e.Research,
			Position:   e.Position,
			Timestamp:  time.Now(),
		})
	}
}

func (c *Client) relay(researchID string, msgType MessageType, payload interface{}) {
	data, err := encode(msgType, payload)
	if err != nil {
		log.Printf("ERROR [Client.relay] failed to marshal %s: %v", msgType, err)
		return
	}
	c.hub.Broadcast(c, researchID, data)
}

func (c *Client) sendError(code, message string) {
	data, err := encode(MessageTypeError, ErrorPayload{
		Code:    code,
		Message: message,
	})
	if err != nil {
		return
	}
	c.trySend(data)
}

// Reject writes a connect_error event and closes an upgraded connection
// that failed authentication.
func Reject(conn *websocket.Conn, message string) {
	data, err := encode(MessageTypeConnectError, ErrorPayload{
		Code:    "AUTHENTICATION_ERROR",
		Message: message,
	})
	if err == nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteMessage(websocket.TextMessage, data)
	}
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message))
	conn.Close()
}
