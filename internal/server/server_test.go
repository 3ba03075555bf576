package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	orchestration "github.com/koscakluka/ema-callbot/core"
	"github.com/koscakluka/ema-callbot/core/calls"
	"github.com/koscakluka/ema-callbot/core/llms"
	"github.com/koscakluka/ema-callbot/core/speechtotext"
	"github.com/koscakluka/ema-callbot/core/texttospeech"
)

type sessionsStub struct {
	mu      sync.Mutex
	served  []string
	active  []string
	serveFn func(ctx context.Context, callID string, transport calls.Transport) error
}

func (s *sessionsStub) Serve(ctx context.Context, callID string, transport calls.Transport) error {
	s.mu.Lock()
	s.served = append(s.served, callID)
	s.mu.Unlock()
	if s.serveFn != nil {
		return s.serveFn(ctx, callID, transport)
	}
	return transport.Close()
}

func (s *sessionsStub) Active() []string { return s.active }

func TestHealth(t *testing.T) {
	server := httptest.NewServer(NewRouter(&Handler{Sessions: &sessionsStub{active: []string{"CA1"}}, WebsocketPath: "/media-stream"}))
	defer server.Close()

	resp, err := http.Get(server.URL + "/")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.StatusCode != http.StatusOK || body["status"] != "healthy" || body["active_calls"] != float64(1) {
		t.Fatalf("unexpected health response %d %v", resp.StatusCode, body)
	}
}

func TestVoiceReturnsStreamTwiML(t *testing.T) {
	server := httptest.NewServer(NewRouter(&Handler{Sessions: &sessionsStub{}, WebsocketPath: "/media-stream"}))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodPost, server.URL+"/voice", strings.NewReader(url.Values{"CallSid": {"CA7"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Host = "bot.ngrok.app"

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var body strings.Builder
	_, _ = body.ReadFrom(resp.Body)
	if ct := resp.Header.Get("Content-Type"); ct != "application/xml" {
		t.Fatalf("expected xml, got %q", ct)
	}
	if !strings.Contains(body.String(), `<Stream url="wss://bot.ngrok.app/media-stream/CA7">`) {
		t.Fatalf("unexpected twiml %s", body.String())
	}
}

func TestMediaStreamUsesCallSidFromPath(t *testing.T) {
	sessions := &sessionsStub{}
	server := httptest.NewServer(NewRouter(&Handler{Sessions: sessions, WebsocketPath: "/media-stream"}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	for _, path := range []string{"/media-stream/CA9", "/media-stream"} {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL+path, nil)
		if err != nil {
			t.Fatalf("dial failed: %v", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, _ = conn.ReadMessage()
		conn.Close()
	}

	sessions.mu.Lock()
	defer sessions.mu.Unlock()
	if len(sessions.served) != 2 || sessions.served[0] != "CA9" || !strings.HasPrefix(sessions.served[1], "CALL-") {
		t.Fatalf("unexpected call ids %v", sessions.served)
	}
}

type sttStub struct{}

func (sttStub) Transcribe(context.Context, []byte, ...speechtotext.TranscriptionOption) (string, error) {
	return "we need help with our data pipeline", nil
}

type ttsStub struct{}

func (ttsStub) Synthesize(_ context.Context, text string, _ ...texttospeech.TextToSpeechOption) ([]byte, error) {
	return []byte(text), nil
}

type llmStub struct{}

func (llmStub) Prompt(context.Context, string, ...llms.PromptOption) (*llms.Response, error) {
	return &llms.Response{Content: "We build data pipelines."}, nil
}

func TestMediaStreamEndToEnd(t *testing.T) {
	speech := orchestration.NewSpeechPipeline(sttStub{}, ttsStub{})
	dialogue := orchestration.NewDialogue(orchestration.WithLLM(llmStub{}), orchestration.WithSpeechPipeline(speech))
	manager := calls.NewManager(dialogue, speech)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() {
		served <- Serve(ctx, listener, NewRouter(&Handler{Sessions: manager, WebsocketPath: "/media-stream"}), manager)
	}()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+listener.Addr().String()+"/media-stream/CA1", nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	payload := base64.StdEncoding.EncodeToString(make([]byte, 1000))
	for _, msg := range []string{
		`{"event":"connected"}`,
		`{"event":"start","start":{"streamSid":"MZ1","callSid":"CA1"}}`,
		`{"event":"media","streamSid":"MZ1","media":{"payload":"` + payload + `"}}`,
	} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	want := []string{orchestration.DefaultGreeting, "We build data pipelines."}
	for _, text := range want {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		var msg struct {
			Event     string `json:"event"`
			StreamSID string `json:"streamSid"`
			Media     struct {
				Payload string `json:"payload"`
			} `json:"media"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		audio, _ := base64.StdEncoding.DecodeString(msg.Media.Payload)
		if msg.Event != "media" || msg.StreamSID != "MZ1" || string(audio) != text {
			t.Fatalf("expected %q, got %s", text, data)
		}
	}

	if active := manager.Active(); len(active) != 1 || active[0] != "CA1" {
		t.Fatalf("expected CA1 to be active, got %v", active)
	}

	cancel()
	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("unexpected shutdown error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not shut down")
	}
	if manager.Count() != 0 {
		t.Fatalf("expected calls to be closed on shutdown")
	}
}

type drainRecorder struct {
	closed    bool
	remaining chan time.Duration
}

func (d *drainRecorder) CloseAll() { d.closed = true }

func (d *drainRecorder) Wait(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		d.remaining <- 0
		return nil
	}
	d.remaining <- time.Until(deadline)
	return nil
}

func TestServeLeavesCallsTimeToFlush(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	drainer := &drainRecorder{remaining: make(chan time.Duration, 1)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Serve(ctx, listener, http.NotFoundHandler(), drainer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !drainer.closed {
		t.Fatalf("expected running calls to be closed")
	}
	if remaining := <-drainer.remaining; remaining <= calls.DefaultFlushTimeout {
		t.Fatalf("expected more than %s to drain calls, got %s", calls.DefaultFlushTimeout, remaining)
	}
}
