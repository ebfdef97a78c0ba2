package ws

import (
	"testing"

	"github.com/google/uuid"
)

func drain(c *Client) []Event {
	out := []Event{}
	for {
		select {
		case ev := <-c.send:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestHubEmitFansOutToAllConnections(t *testing.T) {
	hub := NewHub(nil)
	userID := uuid.New()

	phone := NewClient(userID, nil)
	laptop := NewClient(userID, nil)
	other := NewClient(uuid.New(), nil)
	hub.Register(phone)
	hub.Register(laptop)
	hub.Register(other)

	hub.PushMessage(userID, "hello")

	for _, c := range []*Client{phone, laptop} {
		evs := drain(c)
		if len(evs) != 1 {
			t.Fatalf("connection got %d events, want 1", len(evs))
		}
		if evs[0].Event != "private:new_message" || evs[0].Data != "hello" {
			t.Errorf("got event %+v, want private:new_message/hello", evs[0])
		}
	}
	if evs := drain(other); len(evs) != 0 {
		t.Errorf("unrelated user received %d events", len(evs))
	}
}

func TestHubEmitUnknownUser(t *testing.T) {
	hub := NewHub(nil)

	// No connections registered; must be a silent no-op.
	hub.PushNotification(uuid.New(), map[string]string{"title": "hi"})
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(nil)
	userID := uuid.New()

	slow := NewClient(userID, nil)
	hub.Register(slow)

	// Fill the send buffer without a reader on the other end.
	for i := 0; i < sendBufferSize; i++ {
		if !slow.Enqueue(Event{Event: "filler"}) {
			t.Fatalf("buffer rejected event %d before capacity", i)
		}
	}

	hub.Emit(userID, "private:new_message", "overflow")

	if hub.registry.IsConnected(userID) {
		t.Error("client that cannot keep up must be unregistered")
	}
	if slow.Enqueue(Event{Event: "late"}) {
		t.Error("dropped client must reject further events")
	}
	if got := len(drain(slow)); got != sendBufferSize {
		t.Errorf("drained %d buffered events, want %d", got, sendBufferSize)
	}
}

func TestEnqueueAfterUnregister(t *testing.T) {
	hub := NewHub(nil)
	userID := uuid.New()

	c := NewClient(userID, nil)
	hub.Register(c)

	// An emit that snapshotted the registry before the disconnect still holds
	// the client and may deliver after Unregister ran.
	snapshot := hub.registry.Clients(userID)
	if len(snapshot) != 1 {
		t.Fatalf("snapshot holds %d clients, want 1", len(snapshot))
	}

	hub.Unregister(c)

	if snapshot[0].Enqueue(Event{Event: "private:new_message", Data: "late"}) {
		t.Error("enqueue on an unregistered client must report failure")
	}
	if evs := drain(c); len(evs) != 0 {
		t.Errorf("unregistered client buffered %d events", len(evs))
	}
}

func TestHubIsOnlineWithoutRedis(t *testing.T) {
	hub := NewHub(nil)
	userID := uuid.New()

	if hub.IsOnline(userID) {
		t.Error("user with no connection and no heartbeat store must be offline")
	}

	c := NewClient(userID, nil)
	hub.Register(c)
	if !hub.IsOnline(userID) {
		t.Error("user with a live connection must be online")
	}

	hub.Unregister(c)
	if hub.IsOnline(userID) {
		t.Error("user must drop offline once the connection is gone")
	}
}

func TestHubOnlineUserIDs(t *testing.T) {
	hub := NewHub(nil)

	alice := uuid.New()
	bob := uuid.New()
	hub.Register(NewClient(alice, nil))
	hub.Register(NewClient(bob, nil))

	if got := len(hub.OnlineUserIDs()); got != 2 {
		t.Fatalf("got %d online users, want 2", got)
	}
}
