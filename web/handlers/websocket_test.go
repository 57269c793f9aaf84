package handlers

import (
	"encoding/json"
	"testing"
	"time"
)

func newRunningHub(t *testing.T) *WebSocketHub {
	t.Helper()
	hub := NewWebSocketHub("127.0.0.1", 6464)
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func TestHubBroadcastReachesClients(t *testing.T) {
	hub := newRunningHub(t)

	client := &MockClient{SendChan: make(chan []byte, 4)}
	hub.Register(client)

	hub.Broadcast(WSEvent{Type: "commit", PersonID: "p1"})

	select {
	case data := <-client.SendChan:
		var ev WSEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("broadcast payload is not valid JSON: %v", err)
		}
		if ev.Type != "commit" || ev.PersonID != "p1" {
			t.Errorf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := newRunningHub(t)

	// Zero-capacity channel: the first broadcast cannot be delivered.
	slow := &MockClient{SendChan: make(chan []byte)}
	fast := &MockClient{SendChan: make(chan []byte, 4)}
	hub.Register(slow)
	hub.Register(fast)

	hub.Broadcast(WSEvent{Type: "starters_updated", PersonID: "p2"})

	select {
	case <-fast.SendChan:
	case <-time.After(2 * time.Second):
		t.Fatal("fast client did not receive broadcast")
	}

	// The slow client's channel was closed when it was dropped.
	select {
	case _, ok := <-slow.SendChan:
		if ok {
			t.Error("expected slow client channel to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("slow client channel was not closed")
	}
}

func TestHubUnregister(t *testing.T) {
	hub := newRunningHub(t)

	client := &MockClient{SendChan: make(chan []byte, 4)}
	hub.Register(client)
	hub.Unregister(client)

	if _, ok := <-client.SendChan; ok {
		t.Error("expected channel closed after unregister")
	}
}
