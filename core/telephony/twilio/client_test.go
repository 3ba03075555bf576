package twilio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientMakeCall(t *testing.T) {
	requests := make(chan *http.Request, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		requests <- r
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"CA123","status":"queued","to":"+15550001111"}`))
	}))
	defer server.Close()

	client, err := NewClient("AC1", "secret", "+15559990000", WithBaseURL(server.URL+"/"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sid, err := client.MakeCall(context.Background(), "+15550001111", "https://bot.example.com/voice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sid != "CA123" {
		t.Fatalf("expected CA123, got %q", sid)
	}

	r := <-requests
	if r.Method != http.MethodPost || r.URL.Path != "/Accounts/AC1/Calls.json" {
		t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
	}
	user, pass, ok := r.BasicAuth()
	if !ok || user != "AC1" || pass != "secret" {
		t.Fatalf("expected basic auth, got %q:%q", user, pass)
	}
	if r.PostForm.Get("To") != "+15550001111" || r.PostForm.Get("From") != "+15559990000" || r.PostForm.Get("Url") != "https://bot.example.com/voice" {
		t.Fatalf("unexpected form %v", r.PostForm)
	}
}

func TestClientMakeCallRequiresFromNumber(t *testing.T) {
	client, err := NewClient("AC1", "secret", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := client.MakeCall(context.Background(), "+15550001111", "https://bot.example.com/voice"); err == nil {
		t.Fatalf("expected error without a from number")
	}
}

func TestClientCallStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Accounts/AC1/Calls/CA123.json":
			_, _ = w.Write([]byte(`{"sid":"CA123","status":"in-progress"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":20404,"message":"The requested resource was not found","status":404}`))
		}
	}))
	defer server.Close()

	client, err := NewClient("AC1", "secret", "", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status, err := client.CallStatus(context.Background(), "CA123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != CallStatusInProgress || status.Terminal() {
		t.Fatalf("expected in-progress, got %q", status)
	}

	_, err = client.CallStatus(context.Background(), "CA404")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 20404 {
		t.Fatalf("expected twilio api error, got %v", err)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient("", "secret", ""); err == nil {
		t.Fatalf("expected error without account sid")
	}
	if _, err := NewClient("AC1", "", ""); err == nil {
		t.Fatalf("expected error without auth token")
	}
}
