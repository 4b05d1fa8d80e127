package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		want    Event
		wantErr error
	}{
		{
			name: "join with object",
			msg:  Message{Type: MessageTypeJoinResearch, Payload: json.RawMessage(`{"researchId":"proj-1"}`)},
			want: JoinResearch{Research: "proj-1"},
		},
		{
			name: "join with bare id",
			msg:  Message{Type: MessageTypeJoinResearch, Payload: json.RawMessage(`"proj-1"`)},
			want: JoinResearch{Research: "proj-1"},
		},
		{
			name: "leave",
			msg:  Message{Type: MessageTypeLeaveResearch, Payload: json.RawMessage(` "proj-2" `)},
			want: LeaveResearch{Research: "proj-2"},
		},
		{
			name: "cursor position",
			msg:  Message{Type: MessageTypeCursorPosition, Payload: json.RawMessage(`{"researchId":"proj-1","position":{"x":1,"y":2}}`)},
			want: CursorPosition{Research: "proj-1", Position: json.RawMessage(`{"x":1,"y":2}`)},
		},
		{
			name:    "join without id",
			msg:     Message{Type: MessageTypeJoinResearch, Payload: json.RawMessage(`{}`)},
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "join without payload",
			msg:     Message{Type: MessageTypeJoinResearch},
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "research update that is not an object",
			msg:     Message{Type: MessageTypeResearchUpdate, Payload: json.RawMessage(`[1,2]`)},
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "research update without id",
			msg:     Message{Type: MessageTypeResearchUpdate, Payload: json.RawMessage(`{"title":"x"}`)},
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "cursor without id",
			msg:     Message{Type: MessageTypeCursorPosition, Payload: json.RawMessage(`{"position":{}}`)},
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "server event sent by client",
			msg:     Message{Type: MessageTypeUserJoined, Payload: json.RawMessage(`{}`)},
			wantErr: ErrUnknownEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEvent(&tt.msg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeEvent_ResearchUpdateKeepsFields(t *testing.T) {
	ev, err := DecodeEvent(&Message{
		Type:    MessageTypeResearchUpdate,
		Payload: json.RawMessage(`{"researchId":"proj-1","content":{"blocks":3}}`),
	})
	require.NoError(t, err)

	update, ok := ev.(ResearchUpdate)
	require.True(t, ok)
	assert.Equal(t, "proj-1", update.ResearchID())
	assert.JSONEq(t, `{"blocks":3}`, string(update.Fields["content"]))
}

func TestResearchUpdated(t *testing.T) {
	userID := uuid.New()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	out, err := researchUpdated(ResearchUpdate{
		Research: "proj-1",
		Fields: map[string]json.RawMessage{
			"researchId": json.RawMessage(`"proj-1"`),
			"userId":     json.RawMessage(`"spoofed"`),
		},
	}, userID, "Alice", now)
	require.NoError(t, err)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"researchId": "proj-1",
		"userId": "`+userID.String()+`",
		"userName": "Alice",
		"timestamp": "2026-01-02T03:04:05Z"
	}`, string(data))
}
