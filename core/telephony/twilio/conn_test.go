package twilio

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-callbot/core/telephony"
)

// newConnPair returns a server-side Conn and the raw client socket that plays
// the role of Twilio.
func newConnPair(t *testing.T) (*Conn, *websocket.Conn) {
	t.Helper()

	accepted := make(chan *Conn, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrade(w, r)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		accepted <- conn
	}))
	t.Cleanup(server.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	select {
	case conn := <-accepted:
		t.Cleanup(func() { _ = conn.Close() })
		return conn, client
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for upgrade")
	}
	return nil, nil
}

func TestConnReceivesEvents(t *testing.T) {
	conn, twilio := newConnPair(t)

	messages := []string{
		`{"event":"start","start":{"streamSid":"MZ1","callSid":"CA1"}}`,
		`garbage`,
		`{"event":"media","streamSid":"MZ1","media":{"payload":"AQID"}}`,
	}
	for _, msg := range messages {
		if err := twilio.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("failed to write: %v", err)
		}
	}

	ctx := context.Background()
	event, err := conn.Receive(ctx)
	if err != nil || event.Type != telephony.EventStart || event.StreamID != "MZ1" {
		t.Fatalf("expected start event, got %+v, %v", event, err)
	}

	if _, err := conn.Receive(ctx); !errors.Is(err, telephony.ErrMalformedEvent) {
		t.Fatalf("expected malformed error, got %v", err)
	}

	event, err = conn.Receive(ctx)
	if err != nil || event.Type != telephony.EventMedia || string(event.Audio) != "\x01\x02\x03" {
		t.Fatalf("expected media event, got %+v, %v", event, err)
	}

	if err := twilio.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
		t.Fatalf("failed to close: %v", err)
	}
	if _, err := conn.Receive(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after close, got %v", err)
	}
}

func TestConnReceiveStopsOnCancel(t *testing.T) {
	conn, _ := newConnPair(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := conn.Receive(ctx)
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("receive did not return after cancel")
	}
}

func TestConnSendMedia(t *testing.T) {
	conn, twilio := newConnPair(t)

	if err := conn.SendMedia(context.Background(), "", []byte{1}); err == nil {
		t.Fatalf("expected error without stream sid")
	}
	if err := conn.SendMedia(context.Background(), "MZ1", []byte{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_ = twilio.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := twilio.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}

	var msg outboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if msg.Event != "media" || msg.StreamSID != "MZ1" || msg.Media == nil || msg.Media.Payload != "AQID" {
		t.Fatalf("unexpected outbound message %s", data)
	}
}

func TestConnSendMark(t *testing.T) {
	conn, twilio := newConnPair(t)

	if err := conn.SendMark(context.Background(), "MZ1", "reply-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_ = twilio.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := twilio.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}

	var msg outboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if msg.Event != "mark" || msg.StreamSID != "MZ1" || msg.Mark == nil || msg.Mark.Name != "reply-1" {
		t.Fatalf("unexpected outbound message %s", data)
	}
}

func TestConnCloseIsIdempotent(t *testing.T) {
	conn, _ := newConnPair(t)

	_ = conn.Close()
	_ = conn.Close()
	if err := conn.SendMedia(context.Background(), "MZ1", []byte{1}); err == nil {
		t.Fatalf("expected send after close to fail")
	}
}
