package twilio

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/koscakluka/ema-callbot/core/telephony"
)

// Media Streams wire messages. Inbound messages carry one of the nested
// payloads depending on event.
type inboundMessage struct {
	Event          string        `json:"event"`
	SequenceNumber string        `json:"sequenceNumber,omitempty"`
	StreamSID      string        `json:"streamSid,omitempty"`
	Start          *startPayload `json:"start,omitempty"`
	Media          *mediaPayload `json:"media,omitempty"`
	Mark           *markPayload  `json:"mark,omitempty"`
	Stop           *stopPayload  `json:"stop,omitempty"`
	DTMF           *dtmfPayload  `json:"dtmf,omitempty"`
}

type startPayload struct {
	StreamSID        string            `json:"streamSid"`
	AccountSID       string            `json:"accountSid"`
	CallSID          string            `json:"callSid"`
	Tracks           []string          `json:"tracks"`
	MediaFormat      mediaFormat       `json:"mediaFormat"`
	CustomParameters map[string]string `json:"customParameters"`
}

type mediaFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

type mediaPayload struct {
	Track     string `json:"track,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload"`
}

type markPayload struct {
	Name string `json:"name"`
}

type stopPayload struct {
	AccountSID string `json:"accountSid"`
	CallSID    string `json:"callSid"`
}

type dtmfPayload struct {
	Track string `json:"track,omitempty"`
	Digit string `json:"digit"`
}

type outboundMessage struct {
	Event     string        `json:"event"`
	StreamSID string        `json:"streamSid"`
	Media     *mediaPayload `json:"media,omitempty"`
	Mark      *markPayload  `json:"mark,omitempty"`
}

// DecodeEvent parses one Media Streams text frame. Unknown event names are
// returned as-is so the caller can ignore them; undecodable frames wrap
// telephony.ErrMalformedEvent.
func DecodeEvent(data []byte) (telephony.Event, error) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return telephony.Event{}, fmt.Errorf("%w: %v", telephony.ErrMalformedEvent, err)
	}
	if msg.Event == "" {
		return telephony.Event{}, fmt.Errorf("%w: missing event", telephony.ErrMalformedEvent)
	}

	event := telephony.Event{Type: telephony.EventType(msg.Event), StreamID: msg.StreamSID}
	switch event.Type {
	case telephony.EventStart:
		if msg.Start == nil {
			return telephony.Event{}, fmt.Errorf("%w: start without payload", telephony.ErrMalformedEvent)
		}
		if msg.Start.StreamSID != "" {
			event.StreamID = msg.Start.StreamSID
		}
		event.CallID = msg.Start.CallSID

	case telephony.EventMedia:
		if msg.Media == nil {
			return telephony.Event{}, fmt.Errorf("%w: media without payload", telephony.ErrMalformedEvent)
		}
		audio, err := base64.StdEncoding.DecodeString(msg.Media.Payload)
		if err != nil {
			return telephony.Event{}, fmt.Errorf("%w: invalid media payload: %v", telephony.ErrMalformedEvent, err)
		}
		event.Audio = audio

	case telephony.EventMark:
		if msg.Mark != nil {
			event.Mark = msg.Mark.Name
		}

	case telephony.EventDTMF:
		if msg.DTMF != nil {
			event.Digit = msg.DTMF.Digit
		}

	case telephony.EventStop:
		if msg.Stop != nil {
			event.CallID = msg.Stop.CallSID
		}
	}
	return event, nil
}

func encodeMedia(streamSID string, audio []byte) ([]byte, error) {
	return json.Marshal(outboundMessage{
		Event:     "media",
		StreamSID: streamSID,
		Media:     &mediaPayload{Payload: base64.StdEncoding.EncodeToString(audio)},
	})
}

func encodeMark(streamSID, name string) ([]byte, error) {
	return json.Marshal(outboundMessage{Event: "mark", StreamSID: streamSID, Mark: &markPayload{Name: name}})
}
