package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	TypeNoteUpdated        MessageType = "note_updated"
	TypeCollaboratorsAdded MessageType = "collaborators_added"
	TypePing               MessageType = "ping"
	TypePong               MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NoteUpdatedPayload announces that a note's content changed and a new
// version record was appended to its history.
type NoteUpdatedPayload struct {
	NoteID    string    `json:"note_id"`
	Title     string    `json:"title"`
	UpdatedBy string    `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CollaboratorsAddedPayload struct {
	NoteID        string   `json:"note_id"`
	Title         string   `json:"title"`
	Collaborators []string `json:"collaborators"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
