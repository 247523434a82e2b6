package notify

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestMultiFansOut(t *testing.T) {
	var got []string
	multi := Multi{
		Func(func(message string) { got = append(got, "a:"+message) }),
		nil,
		Func(func(message string) { got = append(got, "b:"+message) }),
	}
	multi.Notify("Paused")

	if len(got) != 2 || got[0] != "a:Paused" || got[1] != "b:Paused" {
		t.Fatalf("unexpected deliveries: %v", got)
	}
}

func TestStatusBoardKeepsLatest(t *testing.T) {
	board := NewStatusBoard()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	board.now = func() time.Time { return fixed }

	board.Notify("first")
	board.Notify("second")
	board.SetAppStatus("Timer reset")

	status := board.Status()
	if status.PomodoroStatus != "second" {
		t.Fatalf("expected latest pomodoro status, got %q", status.PomodoroStatus)
	}
	if status.AppStatus != "Timer reset" {
		t.Fatalf("expected app status, got %q", status.AppStatus)
	}
	if !status.UpdatedAt.Equal(fixed) {
		t.Fatalf("expected updatedAt %v, got %v", fixed, status.UpdatedAt)
	}
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	hub := NewHub(nil)
	events := hub.Subscribe()
	defer hub.Unsubscribe(events)

	for i := 0; i < clientBuffer+5; i++ {
		hub.Notify("tick")
	}
	if len(events) != clientBuffer {
		t.Fatalf("expected buffer to cap at %d, got %d", clientBuffer, len(events))
	}
}

func TestHubUnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub(nil)
	events := hub.Subscribe()
	hub.Unsubscribe(events)
	hub.Unsubscribe(events)
	if hub.ClientCount() != 0 {
		t.Fatalf("expected no clients, got %d", hub.ClientCount())
	}
}

func TestHubStreamsOverWebsocket(t *testing.T) {
	hub := NewHub([]string{"*"})
	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Notify("Short break - 1 pomodoro so far at home.")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.Type != "status" || !strings.HasPrefix(event.Message, "Short break") {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestHubRejectsUnknownOrigin(t *testing.T) {
	hub := NewHub([]string{"http://allowed.test"})
	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	header := map[string][]string{"Origin": {"http://evil.test"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != 403 {
		t.Fatalf("expected 403 response, got %+v", resp)
	}
}
