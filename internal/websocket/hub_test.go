package websocket

import (
	"testing"
)

func TestHubRegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	client := &Client{
		ID:   "client-1",
		Room: ConsoleRoom("srv-1"),
		Send: make(chan *Message, 1),
		Hub:  hub,
	}

	hub.registerClient(client)
	if hub.GetRoomSize(ConsoleRoom("srv-1")) != 1 {
		t.Fatalf("expected room size 1")
	}

	hub.unregisterClient(client)
	if hub.GetRoomSize(ConsoleRoom("srv-1")) != 0 {
		t.Fatalf("expected room to be empty")
	}
}

func TestHubBroadcastToRoom(t *testing.T) {
	hub := NewHub()
	client := &Client{
		ID:   "client-1",
		Room: ConsoleRoom("srv-1"),
		Send: make(chan *Message, 1),
		Hub:  hub,
	}
	other := &Client{
		ID:   "client-2",
		Room: ConsoleRoom("srv-2"),
		Send: make(chan *Message, 1),
		Hub:  hub,
	}

	hub.registerClient(client)
	hub.registerClient(other)

	message := &Message{Type: "console_log"}
	hub.broadcastToRoom(&BroadcastMessage{Room: ConsoleRoom("srv-1"), Message: message})

	select {
	case received := <-client.Send:
		if received.Type != "console_log" {
			t.Fatalf("expected console_log message")
		}
	default:
		t.Fatalf("expected message to be delivered")
	}

	select {
	case <-other.Send:
		t.Fatalf("expected no delivery to another server's room")
	default:
	}
}

func TestHubDropsWhenClientBacklogged(t *testing.T) {
	hub := NewHub()
	client := &Client{
		ID:   "client-1",
		Room: ConsoleRoom("srv-1"),
		Send: make(chan *Message, 1),
		Hub:  hub,
	}

	hub.registerClient(client)

	hub.broadcastToRoom(&BroadcastMessage{Room: ConsoleRoom("srv-1"), Message: &Message{Type: "console_log"}})
	// Channel is full now; this one must be dropped, not block
	hub.broadcastToRoom(&BroadcastMessage{Room: ConsoleRoom("srv-1"), Message: &Message{Type: "console_log"}})

	if len(client.Send) != 1 {
		t.Fatalf("expected exactly one queued message, got %d", len(client.Send))
	}
}
