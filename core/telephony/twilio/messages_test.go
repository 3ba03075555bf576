package twilio

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/koscakluka/ema-callbot/core/telephony"
)

func TestDecodeEvent(t *testing.T) {
	audio := []byte{0xff, 0x7f, 0x00, 0x10}
	payload := base64.StdEncoding.EncodeToString(audio)

	tests := []struct {
		name  string
		input string
		check func(t *testing.T, event telephony.Event)
	}{
		{
			name:  "connected",
			input: `{"event":"connected","protocol":"Call","version":"1.0.0"}`,
			check: func(t *testing.T, event telephony.Event) {
				if event.Type != telephony.EventConnected {
					t.Fatalf("expected connected, got %s", event.Type)
				}
			},
		},
		{
			name:  "start",
			input: `{"event":"start","sequenceNumber":"1","start":{"streamSid":"MZ1","accountSid":"AC1","callSid":"CA1","tracks":["inbound"],"mediaFormat":{"encoding":"audio/x-mulaw","sampleRate":8000,"channels":1}},"streamSid":"MZ1"}`,
			check: func(t *testing.T, event telephony.Event) {
				if event.Type != telephony.EventStart || event.StreamID != "MZ1" || event.CallID != "CA1" {
					t.Fatalf("unexpected start event %+v", event)
				}
			},
		},
		{
			name:  "media",
			input: `{"event":"media","streamSid":"MZ1","media":{"track":"inbound","chunk":"2","timestamp":"5","payload":"` + payload + `"}}`,
			check: func(t *testing.T, event telephony.Event) {
				if event.Type != telephony.EventMedia || string(event.Audio) != string(audio) {
					t.Fatalf("unexpected media event %+v", event)
				}
			},
		},
		{
			name:  "mark",
			input: `{"event":"mark","streamSid":"MZ1","mark":{"name":"reply-1"}}`,
			check: func(t *testing.T, event telephony.Event) {
				if event.Mark != "reply-1" {
					t.Fatalf("expected mark name, got %+v", event)
				}
			},
		},
		{
			name:  "dtmf",
			input: `{"event":"dtmf","streamSid":"MZ1","dtmf":{"track":"inbound_track","digit":"5"}}`,
			check: func(t *testing.T, event telephony.Event) {
				if event.Type != telephony.EventDTMF || event.Digit != "5" {
					t.Fatalf("unexpected dtmf event %+v", event)
				}
			},
		},
		{
			name:  "stop",
			input: `{"event":"stop","streamSid":"MZ1","stop":{"accountSid":"AC1","callSid":"CA1"}}`,
			check: func(t *testing.T, event telephony.Event) {
				if event.Type != telephony.EventStop || event.CallID != "CA1" {
					t.Fatalf("unexpected stop event %+v", event)
				}
			},
		},
		{
			name:  "unknown event passes through",
			input: `{"event":"something_new","streamSid":"MZ1"}`,
			check: func(t *testing.T, event telephony.Event) {
				if event.Known() {
					t.Fatalf("expected unknown event, got %s", event.Type)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := DecodeEvent([]byte(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, event)
		})
	}
}

func TestDecodeEventRejectsMalformedMessages(t *testing.T) {
	inputs := []string{
		`not json`,
		`{"streamSid":"MZ1"}`,
		`{"event":"start"}`,
		`{"event":"media"}`,
		`{"event":"media","media":{"payload":"***"}}`,
	}

	for _, input := range inputs {
		if _, err := DecodeEvent([]byte(input)); !errors.Is(err, telephony.ErrMalformedEvent) {
			t.Fatalf("expected malformed error for %q, got %v", input, err)
		}
	}
}

func TestEncodeMedia(t *testing.T) {
	data, err := encodeMedia("MZ1", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if msg["event"] != "media" || msg["streamSid"] != "MZ1" {
		t.Fatalf("unexpected envelope %v", msg)
	}
	media, _ := msg["media"].(map[string]any)
	if media["payload"] != base64.StdEncoding.EncodeToString([]byte{1, 2, 3}) {
		t.Fatalf("unexpected payload %v", media)
	}
}
