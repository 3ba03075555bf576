package events

const (
	// KindUserAudioDiscarded identifies buffered audio dropped as too short.
	KindUserAudioDiscarded Kind = "user_input.audio_discarded"
	// KindUserTranscriptFinal identifies the transcript of one utterance.
	KindUserTranscriptFinal Kind = "user_input.transcript_final"
)

// UserAudioDiscarded carries the size of the dropped audio.
type UserAudioDiscarded struct {
	Base
	Bytes int
}

// NewUserAudioDiscarded creates an audio discarded event.
func NewUserAudioDiscarded(callID string, bytes int) UserAudioDiscarded {
	return UserAudioDiscarded{Base: NewBase(KindUserAudioDiscarded, callID), Bytes: bytes}
}

// UserTranscriptFinal carries the transcript of one buffered utterance.
type UserTranscriptFinal struct {
	Base
	Transcript string
}

// NewUserTranscriptFinal creates a user transcript final event.
func NewUserTranscriptFinal(callID, transcript string) UserTranscriptFinal {
	return UserTranscriptFinal{Base: NewBase(KindUserTranscriptFinal, callID), Transcript: transcript}
}
