package texttospeech

import "github.com/koscakluka/ema-callbot/core/audio"

type TextToSpeechOptions struct {
	EncodingInfo audio.EncodingInfo
	// Voice overrides the client's voice for a single request.
	Voice string
}

type TextToSpeechOption func(*TextToSpeechOptions)

func NewTextToSpeechOptions(opts ...TextToSpeechOption) TextToSpeechOptions {
	options := TextToSpeechOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		if encodingInfo.IsZero() {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}

func WithVoice(voice string) TextToSpeechOption {
	return func(o *TextToSpeechOptions) { o.Voice = voice }
}
