// Package telephony holds the provider-neutral view of a phone call's media
// stream. Provider packages such as twilio translate their wire protocol into
// these events.
package telephony

import "errors"

// EventType is the kind of an inbound media stream event.
type EventType string

const (
	EventConnected EventType = "connected"
	EventStart     EventType = "start"
	EventMedia     EventType = "media"
	EventMark      EventType = "mark"
	EventDTMF      EventType = "dtmf"
	EventStop      EventType = "stop"
)

// Event is one decoded message from the telephony provider.
type Event struct {
	Type     EventType
	StreamID string
	CallID   string
	// Audio is raw decoded payload for media events.
	Audio []byte
	Mark  string
	Digit string
}

// Known reports whether the event type is one the session loop understands.
func (e Event) Known() bool {
	switch e.Type {
	case EventConnected, EventStart, EventMedia, EventMark, EventDTMF, EventStop:
		return true
	}
	return false
}

// ErrMalformedEvent marks a message that could not be decoded. The stream is
// still usable; the message should be skipped.
var ErrMalformedEvent = errors.New("malformed media stream message")
