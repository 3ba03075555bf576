package deepgram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newSpeakServer(t *testing.T, spoken chan<- string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("encoding"); got != "mulaw" {
			t.Errorf("expected mulaw encoding, got %q", got)
		}
		if got := r.URL.Query().Get("sample_rate"); got != "8000" {
			t.Errorf("expected 8000 sample rate, got %q", got)
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		var text string
		for {
			var msg message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			switch msg.Type {
			case "Speak":
				text += msg.Text
			case "Flush":
				spoken <- text
				_ = conn.WriteMessage(websocket.BinaryMessage, []byte{0xFF, 0x7F})
				_ = conn.WriteMessage(websocket.BinaryMessage, []byte{0x00})
				flushed, _ := json.Marshal(map[string]any{"type": "Flushed", "sequence_id": 0})
				_ = conn.WriteMessage(websocket.TextMessage, flushed)
			case "Close":
				return
			}
		}
	}))
}

func TestSynthesizeCollectsAudioUntilFlushed(t *testing.T) {
	spoken := make(chan string, 1)
	server := newSpeakServer(t, spoken)
	defer server.Close()

	client, err := NewTextToSpeechClient("k", "", WithSpeakURL("ws"+strings.TrimPrefix(server.URL, "http")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	speech, err := client.Synthesize(context.Background(), "Hello there")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(speech) != 3 || speech[0] != 0xFF {
		t.Fatalf("unexpected audio %v", speech)
	}
	if got := <-spoken; got != "Hello there" {
		t.Fatalf("expected text to be spoken, got %q", got)
	}
}

func TestSynthesizeEmptyTextReturnsNoAudio(t *testing.T) {
	client, _ := NewTextToSpeechClient("k", "")

	speech, err := client.Synthesize(context.Background(), "")
	if err != nil || speech != nil {
		t.Fatalf("expected no audio and no error, got %v, %v", speech, err)
	}
}

func TestNewTextToSpeechClientRejectsUnknownVoice(t *testing.T) {
	if _, err := NewTextToSpeechClient("k", "robot-voice"); err == nil {
		t.Fatal("expected error for unknown voice")
	}
	if _, err := NewTextToSpeechClient("k", "aura-2-thalia-en"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// newSilentServer accepts a socket and reads whatever is sent without ever
// answering.
func newSilentServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestSynthesizeGivesUpOnSilentServer(t *testing.T) {
	server := newSilentServer(t)
	defer server.Close()

	client, err := NewTextToSpeechClient("k", "", WithSpeakURL("ws"+strings.TrimPrefix(server.URL, "http")), WithReadTimeout(100*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := client.Synthesize(context.Background(), "Hello there")
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected an error from a server that never answers")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("still waiting on a server that never answers")
	}
}
