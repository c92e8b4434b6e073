package websocket

import (
	"testing"
	"time"
)

func newTestManager() *Manager {
	return NewManager(5, time.Second, 3*time.Second, 2*time.Second)
}

func newTestClient(id, userID string, manager *Manager, sendBuf int) *Client {
	return &Client{
		ID:      id,
		UserID:  userID,
		Manager: manager,
		Send:    make(chan []byte, sendBuf),
	}
}

func fillSendBuffer(c *Client) {
	for {
		select {
		case c.Send <- []byte("backlog"):
		default:
			return
		}
	}
}

func TestManager_RegisterEnforcesConnectionLimit(t *testing.T) {
	manager := NewManager(2, time.Second, 3*time.Second, 2*time.Second)

	manager.registerClient(newTestClient("c1", "user1", manager, 1))
	manager.registerClient(newTestClient("c2", "user1", manager, 1))
	manager.registerClient(newTestClient("c3", "user1", manager, 1))

	if got := manager.GetUserConnections("user1"); got != 2 {
		t.Errorf("GetUserConnections() = %d, want 2", got)
	}
}

func TestManager_BroadcastDropsStalledClients(t *testing.T) {
	manager := newTestManager()

	stalled1 := newTestClient("stalled-1", "user1", manager, 2)
	stalled2 := newTestClient("stalled-2", "user1", manager, 2)
	healthy := newTestClient("healthy", "user2", manager, 2)

	manager.registerClient(stalled1)
	manager.registerClient(stalled2)
	manager.registerClient(healthy)

	fillSendBuffer(stalled1)
	fillSendBuffer(stalled2)

	msg, err := NewMessage(TypeNoteUpdated, &NoteUpdatedPayload{
		NoteID: "note-1",
	})
	if err != nil {
		t.Fatalf("NewMessage() unexpected error = %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- manager.BroadcastToUsers([]string{"user1", "user2"}, msg, "")
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("BroadcastToUsers() unexpected error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("BroadcastToUsers() did not return with stalled clients")
	}

	if got := manager.GetUserConnections("user1"); got != 0 {
		t.Errorf("GetUserConnections(user1) = %d, want 0 after stalled clients dropped", got)
	}
	if got := manager.GetUserConnections("user2"); got != 1 {
		t.Errorf("GetUserConnections(user2) = %d, want 1", got)
	}

	select {
	case <-healthy.Send:
	default:
		t.Error("healthy client did not receive the broadcast")
	}
}

func TestManager_BroadcastExcludesActor(t *testing.T) {
	manager := newTestManager()

	actor := newTestClient("actor", "user1", manager, 2)
	other := newTestClient("other", "user2", manager, 2)

	manager.registerClient(actor)
	manager.registerClient(other)

	msg, err := NewMessage(TypeNoteUpdated, &NoteUpdatedPayload{
		NoteID: "note-1",
	})
	if err != nil {
		t.Fatalf("NewMessage() unexpected error = %v", err)
	}

	if err := manager.BroadcastToUsers([]string{"user1", "user2"}, msg, "user1"); err != nil {
		t.Fatalf("BroadcastToUsers() unexpected error = %v", err)
	}

	select {
	case <-actor.Send:
		t.Error("actor received its own event")
	default:
	}

	select {
	case <-other.Send:
	default:
		t.Error("other user did not receive the event")
	}
}
