package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BrendanBurkhart/RoboTiles/game/board"
	"github.com/BrendanBurkhart/RoboTiles/game/service"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}

	if hub.runs == nil {
		t.Error("Hub runs map is nil")
	}

	if hub.broadcast == nil {
		t.Error("Hub broadcast channel is nil")
	}

	if hub.register == nil {
		t.Error("Hub register channel is nil")
	}

	if hub.unregister == nil {
		t.Error("Hub unregister channel is nil")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub()

	client := &Client{
		hub:   hub,
		runID: "test-run",
		send:  make(chan []byte, 256),
	}

	hub.registerClient(client)

	if _, exists := hub.runs["test-run"]; !exists {
		t.Error("Run entry was not created")
	}

	if !hub.runs["test-run"][client] {
		t.Error("Client was not registered for run")
	}

	if len(hub.runs["test-run"]) != 1 {
		t.Errorf("Expected 1 client for run, got %d", len(hub.runs["test-run"]))
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub()

	client := &Client{
		hub:   hub,
		runID: "test-run",
		send:  make(chan []byte, 256),
	}

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.runs["test-run"]; exists {
		t.Error("Run entry should have been cleaned up after last client unregistered")
	}
}

func TestHubMultipleClientsForRun(t *testing.T) {
	hub := NewHub()
	runID := "multi-client-run"

	client1 := &Client{
		hub:   hub,
		runID: runID,
		send:  make(chan []byte, 256),
	}
	client2 := &Client{
		hub:   hub,
		runID: runID,
		send:  make(chan []byte, 256),
	}

	hub.registerClient(client1)
	hub.registerClient(client2)

	if len(hub.runs[runID]) != 2 {
		t.Errorf("Expected 2 clients for run, got %d", len(hub.runs[runID]))
	}

	hub.unregisterClient(client1)

	if len(hub.runs[runID]) != 1 {
		t.Errorf("Expected 1 client remaining for run, got %d", len(hub.runs[runID]))
	}

	if !hub.runs[runID][client2] {
		t.Error("client2 should still be registered")
	}
}

func TestHubBroadcastMessage(t *testing.T) {
	hub := NewHub()
	runID := "broadcast-test"

	client := &Client{
		hub:   hub,
		runID: runID,
		send:  make(chan []byte, 256),
	}

	hub.registerClient(client)

	state := &service.BoardState{
		Size:  3,
		Robot: board.Position{X: 1, Y: 2},
		Steps: 7,
	}

	hub.broadcastMessage(&Message{
		RunID: runID,
		State: state,
		Event: "state_update",
	})

	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}

		if message.RunID != runID {
			t.Errorf("Expected runID %s, got %s", runID, message.RunID)
		}

		if message.Event != "state_update" {
			t.Errorf("Expected event 'state_update', got %s", message.Event)
		}

		if message.State.Robot.X != 1 || message.State.Robot.Y != 2 {
			t.Error("Board state not correctly transmitted")
		}

	case <-time.After(100 * time.Millisecond):
		t.Error("No message received within timeout")
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub()
	done := make(chan bool)

	// Start hub consumer in goroutine
	go func() {
		select {
		case message := <-hub.broadcast:
			if message.RunID != "event-test" {
				t.Errorf("Expected runID 'event-test', got %s", message.RunID)
			}
			if message.Event != "custom-event" {
				t.Errorf("Expected event 'custom-event', got %s", message.Event)
			}
			if message.Data != "test-data" {
				t.Errorf("Expected data 'test-data', got %v", message.Data)
			}
			done <- true
		case <-time.After(100 * time.Millisecond):
			t.Error("No broadcast message received within timeout")
			done <- false
		}
	}()

	hub.BroadcastEvent("event-test", "custom-event", "test-data")

	<-done
}

func TestWebSocketUpgrade(t *testing.T) {
	hub := NewHub()

	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		runID := r.URL.Query().Get("runId")
		if runID == "" {
			runID = "default"
		}
		hub.ServeWS(w, r, runID)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?runId=ws-test"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	// Give some time for registration
	time.Sleep(50 * time.Millisecond)

	if len(hub.runs["ws-test"]) != 1 {
		t.Errorf("Expected 1 client for run, got %d", len(hub.runs["ws-test"]))
	}

	conn.Close()

	// Give some time for unregistration
	time.Sleep(10 * time.Millisecond)

	if _, exists := hub.runs["ws-test"]; exists {
		t.Error("Run entry should have been cleaned up after WebSocket close")
	}
}

func TestWebSocketMessageReceive(t *testing.T) {
	hub := NewHub()

	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		runID := r.URL.Query().Get("runId")
		if runID == "" {
			runID = "default"
		}
		hub.ServeWS(w, r, runID)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?runId=msg-test"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	// Give time for connection to establish
	time.Sleep(10 * time.Millisecond)

	state := &service.BoardState{
		Size:  3,
		Rows:  []string{"start 0 0", "0 1 0", "0 0 end"},
		Robot: board.Position{X: 0, Y: 1},
		Steps: 1,
	}

	hub.BroadcastToRun("msg-test", state)

	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	_, messageData, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}

	var message Message
	if err := json.Unmarshal(messageData, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}

	if message.RunID != "msg-test" {
		t.Errorf("Expected runID 'msg-test', got %s", message.RunID)
	}

	if message.State.Robot.X != 0 || message.State.Robot.Y != 1 {
		t.Error("Robot position not correctly received")
	}

	if message.State.Steps != 1 || message.State.Size != 3 {
		t.Error("Board state not correctly received")
	}
}
