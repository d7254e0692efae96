package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ws "tradeledger/internal/transport/websocket"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, hub *ws.Hub, userID int64) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r, userID)
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + server.URL[4:]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// give the hub time to register the connection
	time.Sleep(100 * time.Millisecond)
	return conn
}

func readData(t *testing.T, conn *websocket.Conn) (ws.Message, map[string]interface{}) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	var received ws.Message
	if err := conn.ReadJSON(&received); err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}

	dataBytes, err := json.Marshal(received.Data)
	if err != nil {
		t.Fatalf("Failed to marshal data: %v", err)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		t.Fatalf("Failed to unmarshal data: %v", err)
	}
	return received, data
}

func TestWebSocketClient_NotifyExportProgress(t *testing.T) {
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialHub(t, hub, 1)
	client := NewWebSocketClient(hub)

	if err := client.NotifyExportProgress(context.Background(), 1, "export-123", 50.5, ""); err != nil {
		t.Fatalf("Failed to notify progress: %v", err)
	}

	received, data := readData(t, conn)
	if received.Type != "export_progress" {
		t.Errorf("Expected type 'export_progress', got '%s'", received.Type)
	}
	if received.UserID != 1 {
		t.Errorf("Expected userID 1, got %d", received.UserID)
	}
	if received.Channel != "export_progress#1" {
		t.Errorf("Expected channel 'export_progress#1', got '%s'", received.Channel)
	}
	if data["id"] != "export-123" {
		t.Errorf("Expected id 'export-123', got '%v'", data["id"])
	}
	if data["progress"].(float64) != 50.5 {
		t.Errorf("Expected progress 50.5, got %v", data["progress"])
	}
}

func TestWebSocketClient_NotifyExportComplete(t *testing.T) {
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialHub(t, hub, 1)
	client := NewWebSocketClient(hub)

	err := client.NotifyExportComplete(context.Background(), 1, "export-123", "https://example.com/file.xlsx", "session_report_20240101.xlsx")
	if err != nil {
		t.Fatalf("Failed to notify complete: %v", err)
	}

	received, data := readData(t, conn)
	if received.Type != "export_complete" {
		t.Errorf("Expected type 'export_complete', got '%s'", received.Type)
	}
	if received.Channel != "export_complete#1" {
		t.Errorf("Expected channel 'export_complete#1', got '%s'", received.Channel)
	}
	if data["url"] != "https://example.com/file.xlsx" {
		t.Errorf("Expected url 'https://example.com/file.xlsx', got '%v'", data["url"])
	}
	if data["filename"] != "session_report_20240101.xlsx" {
		t.Errorf("Expected filename 'session_report_20240101.xlsx', got '%v'", data["filename"])
	}
	if int64(data["user_id"].(float64)) != 1 {
		t.Errorf("Expected user_id 1, got %v", data["user_id"])
	}
}

func TestWebSocketClient_NotifyExportFailed(t *testing.T) {
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialHub(t, hub, 1)
	client := NewWebSocketClient(hub)

	if err := client.NotifyExportFailed(context.Background(), 1, "export-123", "upload failed"); err != nil {
		t.Fatalf("Failed to notify failed: %v", err)
	}

	received, data := readData(t, conn)
	if received.Type != "export_failed" {
		t.Errorf("Expected type 'export_failed', got '%s'", received.Type)
	}
	if received.Channel != "export_failed#1" {
		t.Errorf("Expected channel 'export_failed#1', got '%s'", received.Channel)
	}
	if data["message"] != "upload failed" {
		t.Errorf("Expected message 'upload failed', got '%v'", data["message"])
	}
}

func TestWebSocketClient_NotifySessionClosed(t *testing.T) {
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialHub(t, hub, 7)
	client := NewWebSocketClient(hub)

	if err := client.NotifySessionClosed(context.Background(), 7, "sess-1", -1.5); err != nil {
		t.Fatalf("Failed to notify session closed: %v", err)
	}

	received, data := readData(t, conn)
	if received.Type != "session_closed" {
		t.Errorf("Expected type 'session_closed', got '%s'", received.Type)
	}
	if received.Channel != "session_closed#7" {
		t.Errorf("Expected channel 'session_closed#7', got '%s'", received.Channel)
	}
	if data["session_id"] != "sess-1" {
		t.Errorf("Expected session_id 'sess-1', got '%v'", data["session_id"])
	}
	if data["difference"].(float64) != -1.5 {
		t.Errorf("Expected difference -1.5, got %v", data["difference"])
	}
}

func TestWebSocketClient_NilHub(t *testing.T) {
	client := NewWebSocketClient(nil)

	if err := client.NotifyExportProgress(context.Background(), 1, "export-123", 50.5, ""); err != nil {
		t.Errorf("Should not return error with nil hub, got: %v", err)
	}
	if err := client.NotifyExportComplete(context.Background(), 1, "export-123", "https://example.com/file.xlsx", "file.xlsx"); err != nil {
		t.Errorf("Should not return error with nil hub, got: %v", err)
	}
	if err := client.NotifySessionClosed(context.Background(), 1, "sess-1", 0); err != nil {
		t.Errorf("Should not return error with nil hub, got: %v", err)
	}
}

func TestWebSocketClient_MultipleProgressUpdates(t *testing.T) {
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialHub(t, hub, 1)
	client := NewWebSocketClient(hub)

	progresses := []float64{10.0, 25.0, 50.0, 75.0, 100.0}
	for _, progress := range progresses {
		if err := client.NotifyExportProgress(context.Background(), 1, "export-123", progress, ""); err != nil {
			t.Fatalf("Failed to notify progress: %v", err)
		}

		_, data := readData(t, conn)
		if data["progress"].(float64) != progress {
			t.Errorf("Expected progress %.1f, got %.1f", progress, data["progress"].(float64))
		}
	}
}
