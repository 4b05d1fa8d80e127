package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	// Client to Server
	MessageTypeJoinResearch   MessageType = "join-research"
	MessageTypeLeaveResearch  MessageType = "leave-research"
	MessageTypeResearchUpdate MessageType = "research-update"
	MessageTypeCursorPosition MessageType = "cursor-position"

	// Server to Client
	MessageTypeUserJoined      MessageType = "user-joined"
	MessageTypeUserLeft        MessageType = "user-left"
	MessageTypeResearchUpdated MessageType = "research-updated"
	MessageTypeCursorUpdate    MessageType = "cursor-update"
	MessageTypeConnectError    MessageType = "connect_error"
	MessageTypeError           MessageType = "error"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Client to Server payloads

type ResearchPayload struct {
	ResearchID string `json:"researchId"`
}

type CursorPositionPayload struct {
	ResearchID string          `json:"researchId"`
	Position   json.RawMessage `json:"position"`
}

// Server to Client payloads

type UserPresencePayload struct {
	UserID     uuid.UUID `json:"userId"`
	UserName   string    `json:"userName"`
	ResearchID string    `json:"researchId"`
}

type CursorUpdatePayload struct {
	UserID     uuid.UUID       `json:"userId"`
	UserName   string          `json:"userName"`
	ResearchID string          `json:"researchId"`
	Position   json.RawMessage `json:"position"`
	Timestamp  time.Time       `json:"timestamp"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
