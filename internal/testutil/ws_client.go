package testutil

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	gorillaWS "github.com/gorilla/websocket"
	"github.com/neuraforge/collab-gateway/internal/websocket"
)

// WSClient is a test WebSocket client
type WSClient struct {
	t        *testing.T
	conn     *gorillaWS.Conn
	messages chan *websocket.Message
	errors   chan error
	done     chan struct{}
	mu       sync.Mutex
}

// DialWS opens a raw connection without starting a reader. The caller owns it.
func DialWS(t *testing.T, url string, header http.Header) (*gorillaWS.Conn, *http.Response, error) {
	t.Helper()

	dialer := *gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second
	return dialer.Dial(url, header)
}

// NewWSClient creates a new WebSocket test client
func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()

	conn, _, err := DialWS(t, url, nil)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}

	client := &WSClient{
		t:        t,
		conn:     conn,
		messages: make(chan *websocket.Message, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

// readPump reads messages from the WebSocket connection
func (c *WSClient) readPump() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			case c.errors <- err:
			default:
			}
			return
		}

		var msg websocket.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			select {
			case c.errors <- err:
			default:
			}
			continue
		}

		select {
		case c.messages <- &msg:
		case <-c.done:
			return
		}
	}
}

// Close closes the WebSocket connection gracefully
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		c.conn.Close()
	}
}

// Send writes a message envelope with the given type and payload
func (c *WSClient) Send(msgType websocket.MessageType, payload interface{}) {
	c.t.Helper()

	msg, err := websocket.NewMessage(msgType, payload)
	if err != nil {
		c.t.Fatalf("failed to build message: %v", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		c.t.Fatalf("failed to marshal message: %v", err)
	}
	c.SendRaw(data)
}

// SendRaw writes a text frame as-is
func (c *WSClient) SendRaw(data []byte) {
	c.t.Helper()

	c.mu.Lock()
	err := c.conn.WriteMessage(gorillaWS.TextMessage, data)
	c.mu.Unlock()

	if err != nil {
		c.t.Fatalf("failed to send message: %v", err)
	}
}

// JoinResearch sends join-research
func (c *WSClient) JoinResearch(researchID string) {
	c.Send(websocket.MessageTypeJoinResearch, websocket.ResearchPayload{ResearchID: researchID})
}

// LeaveResearch sends leave-research
func (c *WSClient) LeaveResearch(researchID string) {
	c.Send(websocket.MessageTypeLeaveResearch, websocket.ResearchPayload{ResearchID: researchID})
}

// CursorPosition sends cursor-position
func (c *WSClient) CursorPosition(researchID string, position interface{}) {
	c.t.Helper()

	pos, err := json.Marshal(position)
	if err != nil {
		c.t.Fatalf("failed to marshal position: %v", err)
	}
	c.Send(websocket.MessageTypeCursorPosition, websocket.CursorPositionPayload{
		ResearchID: researchID,
		Position:   pos,
	})
}

// ResearchUpdate sends research-update with researchId merged into fields
func (c *WSClient) ResearchUpdate(researchID string, fields map[string]interface{}) {
	payload := map[string]interface{}{"researchId": researchID}
	for k, v := range fields {
		payload[k] = v
	}
	c.Send(websocket.MessageTypeResearchUpdate, payload)
}

// ExpectMessage waits for a message of the specified type, skipping others
func (c *WSClient) ExpectMessage(msgType websocket.MessageType, timeout time.Duration) *websocket.Message {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				c.t.Fatalf("connection closed while waiting for %s", msgType)
			}
			if msg.Type == msgType {
				return msg
			}
		case err := <-c.errors:
			c.t.Fatalf("error while waiting for %s: %v", msgType, err)
		case <-deadline:
			c.t.Fatalf("timeout waiting for message type %s", msgType)
		}
	}
}

// ExpectUserJoined waits for and decodes a user-joined message
func (c *WSClient) ExpectUserJoined(timeout time.Duration) *websocket.UserPresencePayload {
	c.t.Helper()
	return c.expectPresence(websocket.MessageTypeUserJoined, timeout)
}

// ExpectUserLeft waits for and decodes a user-left message
func (c *WSClient) ExpectUserLeft(timeout time.Duration) *websocket.UserPresencePayload {
	c.t.Helper()
	return c.expectPresence(websocket.MessageTypeUserLeft, timeout)
}

func (c *WSClient) expectPresence(msgType websocket.MessageType, timeout time.Duration) *websocket.UserPresencePayload {
	c.t.Helper()

	msg := c.ExpectMessage(msgType, timeout)

	var payload websocket.UserPresencePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode %s payload: %v", msgType, err)
	}
	return &payload
}

// ExpectCursorUpdate waits for and decodes a cursor-update message
func (c *WSClient) ExpectCursorUpdate(timeout time.Duration) *websocket.CursorUpdatePayload {
	c.t.Helper()

	msg := c.ExpectMessage(websocket.MessageTypeCursorUpdate, timeout)

	var payload websocket.CursorUpdatePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode cursor update payload: %v", err)
	}
	return &payload
}

// ExpectResearchUpdated waits for and decodes a research-updated message
func (c *WSClient) ExpectResearchUpdated(timeout time.Duration) map[string]interface{} {
	c.t.Helper()

	msg := c.ExpectMessage(websocket.MessageTypeResearchUpdated, timeout)

	var payload map[string]interface{}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode research updated payload: %v", err)
	}
	return payload
}

// ExpectError waits for and decodes an error message
func (c *WSClient) ExpectError(timeout time.Duration) *websocket.ErrorPayload {
	c.t.Helper()

	msg := c.ExpectMessage(websocket.MessageTypeError, timeout)

	var payload websocket.ErrorPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode error payload: %v", err)
	}
	return &payload
}

// ExpectNoMessage verifies no messages are received within timeout
func (c *WSClient) ExpectNoMessage(timeout time.Duration) {
	c.t.Helper()

	select {
	case msg := <-c.messages:
		if msg != nil {
			c.t.Fatalf("unexpected message received: %s", msg.Type)
		}
	case <-time.After(timeout):
		// Expected - no message received
	}
}

// DrainMessages drains all pending messages, waiting briefly for the channel to settle.
func (c *WSClient) DrainMessages() {
	deadline := time.After(100 * time.Millisecond)
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				return
			}
			deadline = time.After(50 * time.Millisecond)
		case <-deadline:
			return
		case <-c.done:
			return
		}
	}
}
