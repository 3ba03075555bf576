package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-callbot/core/calls"
	"github.com/koscakluka/ema-callbot/core/telephony/twilio"
	"github.com/koscakluka/ema-callbot/internal/version"
)

const serviceName = "CoffeeBeans Voice Agent"

// Sessions runs media stream sessions.
type Sessions interface {
	Serve(ctx context.Context, callID string, transport calls.Transport) error
	Active() []string
}

type Handler struct {
	Sessions      Sessions
	WebsocketPath string
	// PublicURL overrides the request's host when building stream URLs.
	PublicURL string
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"service":      serviceName,
		"version":      version.Version,
		"active_calls": len(h.Sessions.Active()),
	})
}

// Voice answers Twilio's voice webhook with TwiML that connects the call to
// the media stream endpoint.
func (h *Handler) Voice(w http.ResponseWriter, r *http.Request) {
	// Stream URLs cannot carry a query string, so the call SID rides in the
	// path.
	streamURL := h.streamBaseURL(r) + h.WebsocketPath
	callSID := r.FormValue("CallSid")
	if callSID != "" {
		streamURL += "/" + url.PathEscape(callSID)
	}

	twiml, err := twilio.StreamTwiML(streamURL, nil)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to build TwiML", "error", err)
		http.Error(w, "failed to build twiml", http.StatusInternalServerError)
		return
	}

	logger.InfoContext(r.Context(), "Connecting call to media stream", "call_sid", callSID, "stream_url", streamURL)
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(twiml))
}

// MediaStream upgrades to a websocket and runs the call session on it until
// the call ends.
func (h *Handler) MediaStream(w http.ResponseWriter, r *http.Request) {
	callID := r.PathValue("callSid")
	if callID == "" {
		callID = r.URL.Query().Get("callSid")
	}
	if callID == "" {
		callID = "CALL-" + uuid.NewString()
	}

	conn, err := twilio.Upgrade(w, r)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to accept media stream", "call_id", callID, "error", err)
		return
	}

	if err := h.Sessions.Serve(r.Context(), callID, conn); err != nil {
		if errors.Is(err, calls.ErrSessionActive) {
			logger.WarnContext(r.Context(), "Rejected duplicate media stream", "call_id", callID)
			return
		}
		logger.ErrorContext(r.Context(), "Call session failed", "call_id", callID, "error", err)
	}
}

func (h *Handler) ActiveCalls(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"calls": h.Sessions.Active()})
}

// streamBaseURL is the externally visible websocket origin: PublicURL when
// set, otherwise the request host behind whatever proxy forwarded it.
func (h *Handler) streamBaseURL(r *http.Request) string {
	base := h.PublicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}

	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return strings.TrimRight(base, "/")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
