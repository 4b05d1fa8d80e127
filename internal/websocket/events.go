package websocket

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknownEvent   = errors.New("unknown event")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Event is one decoded client request. The concrete types are JoinResearch,
// LeaveResearch, ResearchUpdate and CursorPosition.
type Event interface {
	ResearchID() string
	event()
}

type JoinResearch struct {
	Research string
}

type LeaveResearch struct {
	Research string
}

// ResearchUpdate carries the sender's object verbatim, keyed by field name.
type ResearchUpdate struct {
	Research string
	Fields   map[string]json.RawMessage
}

type CursorPosition struct {
	Research string
	Position json.RawMessage
}

func (e JoinResearch) ResearchID() string   { return e.Research }
func (e LeaveResearch) ResearchID() string  { return e.Research }
func (e ResearchUpdate) ResearchID() string { return e.Research }
func (e CursorPosition) ResearchID() string { return e.Research }

func (JoinResearch) event()   {}
func (LeaveResearch) event()  {}
func (ResearchUpdate) event() {}
func (CursorPosition) event() {}

// DecodeEvent turns a client message into its typed event.
func DecodeEvent(msg *Message) (Event, error) {
	switch msg.Type {
	case MessageTypeJoinResearch:
		id, err := decodeResearchID(msg.Payload)
		if err != nil {
			return nil, err
		}
		return JoinResearch{Research: id}, nil

	case MessageTypeLeaveResearch:
		id, err := decodeResearchID(msg.Payload)
		if err != nil {
			return nil, err
		}
		return LeaveResearch{Research: id}, nil

	case MessageTypeResearchUpdate:
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(msg.Payload, &fields); err != nil || fields == nil {
			return nil, fmt.Errorf("%w: research-update expects an object", ErrInvalidPayload)
		}
		var id string
		if raw, ok := fields["researchId"]; ok {
			_ = json.Unmarshal(raw, &id)
		}
		if id == "" {
			return nil, fmt.Errorf("%w: researchId is required", ErrInvalidPayload)
		}
		return ResearchUpdate{Research: id, Fields: fields}, nil

	case MessageTypeCursorPosition:
		var payload CursorPositionPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if payload.ResearchID == "" {
			return nil, fmt.Errorf("%w: researchId is required", ErrInvalidPayload)
		}
		return CursorPosition{Research: payload.ResearchID, Position: payload.Position}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, msg.Type)
}

// decodeResearchID accepts either a bare JSON string or {"researchId": ...}.
func decodeResearchID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)

	var id string
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	} else {
		var payload ResearchPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		id = payload.ResearchID
	}

	if id == "" {
		return "", fmt.Errorf("%w: researchId is required", ErrInvalidPayload)
	}
	return id, nil
}

// researchUpdated builds the relayed payload: the sender's fields with
// userId, userName and timestamp set by the server.
func researchUpdated(ev ResearchUpdate, userID uuid.UUID, userName string, now time.Time) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(ev.Fields)+3)
	for k, v := range ev.Fields {
		out[k] = v
	}

	enrich := map[string]interface{}{
		"userId":    userID,
		"userName":  userName,
		"timestamp": now,
	}
	for k, v := range enrich {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[k] = b
	}
	return out, nil
}
