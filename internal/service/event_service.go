package service

import (
	"log"

	"collabnote-server/internal/domain"
	"collabnote-server/internal/websocket"
)

// EventService pushes note change notifications over the websocket hub
// to every user with access to the note, except the acting user's own
// connections. Delivery is best effort; failures are logged, never
// surfaced to the edit path.
type EventService struct {
	manager *websocket.Manager
}

func NewEventService(manager *websocket.Manager) *EventService {
	return &EventService{
		manager: manager,
	}
}

func (s *EventService) NoteUpdated(note *domain.Note, actorID string) {
	msg, err := websocket.NewMessage(websocket.TypeNoteUpdated, &websocket.NoteUpdatedPayload{
		NoteID:    note.ID,
		Title:     note.Title,
		UpdatedBy: actorID,
		UpdatedAt: note.UpdatedAt,
	})
	if err != nil {
		log.Printf("error building note_updated event: %v", err)
		return
	}

	if err := s.manager.BroadcastToUsers(s.audience(note), msg, actorID); err != nil {
		log.Printf("error broadcasting note_updated event: %v", err)
	}
}

func (s *EventService) CollaboratorsAdded(note *domain.Note, usernames []string, actorID string) {
	msg, err := websocket.NewMessage(websocket.TypeCollaboratorsAdded, &websocket.CollaboratorsAddedPayload{
		NoteID:        note.ID,
		Title:         note.Title,
		Collaborators: usernames,
	})
	if err != nil {
		log.Printf("error building collaborators_added event: %v", err)
		return
	}

	if err := s.manager.BroadcastToUsers(s.audience(note), msg, actorID); err != nil {
		log.Printf("error broadcasting collaborators_added event: %v", err)
	}
}

func (s *EventService) audience(note *domain.Note) []string {
	users := make([]string, 0, len(note.Collaborators)+1)
	users = append(users, note.OwnerID)
	users = append(users, note.Collaborators...)
	return users
}
