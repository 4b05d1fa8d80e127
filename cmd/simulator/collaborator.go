package main

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	gorillaWS "github.com/gorilla/websocket"
	"github.com/neuraforge/collab-gateway/internal/websocket"
)

// Collaborator is one simulated user connected to the gateway
type Collaborator struct {
	Name string

	conn    *gorillaWS.Conn
	writeMu sync.Mutex

	mu       sync.Mutex
	received map[websocket.MessageType]int

	done chan struct{}
}

// Connect opens a gateway connection. onMessage, when set, sees every
// server event.
func Connect(url, name string, onMessage func(name string, msg *websocket.Message)) (*Collaborator, error) {
	dialer := *gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	c := &Collaborator{
		Name:     name,
		conn:     conn,
		received: make(map[websocket.MessageType]int),
		done:     make(chan struct{}),
	}
	go c.readLoop(onMessage)
	return c, nil
}

func (c *Collaborator) readLoop(onMessage func(string, *websocket.Message)) {
	defer close(c.done)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg websocket.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		c.mu.Lock()
		c.received[msg.Type]++
		c.mu.Unlock()

		if onMessage != nil {
			onMessage(c.Name, &msg)
		}
	}
}

func (c *Collaborator) send(msgType websocket.MessageType, payload interface{}) error {
	msg, err := websocket.NewMessage(msgType, payload)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(msg)
}

func (c *Collaborator) Join(researchID string) error {
	return c.send(websocket.MessageTypeJoinResearch, websocket.ResearchPayload{ResearchID: researchID})
}

func (c *Collaborator) Leave(researchID string) error {
	return c.send(websocket.MessageTypeLeaveResearch, websocket.ResearchPayload{ResearchID: researchID})
}

func (c *Collaborator) MoveCursor(researchID string, x, y int) error {
	pos, _ := json.Marshal(map[string]int{"x": x, "y": y})
	return c.send(websocket.MessageTypeCursorPosition, websocket.CursorPositionPayload{
		ResearchID: researchID,
		Position:   pos,
	})
}

func (c *Collaborator) Update(researchID string, fields map[string]interface{}) error {
	payload := map[string]interface{}{"researchId": researchID}
	for k, v := range fields {
		payload[k] = v
	}
	return c.send(websocket.MessageTypeResearchUpdate, payload)
}

// Received returns how many events of the type have arrived
func (c *Collaborator) Received(msgType websocket.MessageType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.received[msgType]
}

// Close sends a close frame and waits briefly for the server to hang up
func (c *Collaborator) Close() {
	c.writeMu.Lock()
	c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
	c.writeMu.Unlock()

	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
	}
	c.conn.Close()
}
