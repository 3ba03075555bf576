package orchestration

import (
	"context"

	"github.com/koscakluka/ema-callbot/core/speechtotext"
	"github.com/koscakluka/ema-callbot/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte, opts ...speechtotext.TranscriptionOption) (string, error)
}

type TextToSpeech interface {
	Synthesize(ctx context.Context, text string, opts ...texttospeech.TextToSpeechOption) ([]byte, error)
}

// SpeechPipeline converts between call audio and text. It holds no per-call
// state and is shared by all sessions.
//
// Backend failures never surface: Transcribe degrades to "" and Synthesize
// to nil, so callers treat them as "nothing heard" and "nothing to say".
type SpeechPipeline struct {
	stt SpeechToText
	tts TextToSpeech

	transcriptionOptions []speechtotext.TranscriptionOption
	synthesisOptions     []texttospeech.TextToSpeechOption
}

type SpeechPipelineOption func(*SpeechPipeline)

func WithTranscriptionOptions(opts ...speechtotext.TranscriptionOption) SpeechPipelineOption {
	return func(p *SpeechPipeline) {
		p.transcriptionOptions = append(p.transcriptionOptions, opts...)
	}
}

func WithSynthesisOptions(opts ...texttospeech.TextToSpeechOption) SpeechPipelineOption {
	return func(p *SpeechPipeline) {
		p.synthesisOptions = append(p.synthesisOptions, opts...)
	}
}

func NewSpeechPipeline(stt SpeechToText, tts TextToSpeech, opts ...SpeechPipelineOption) *SpeechPipeline {
	pipeline := &SpeechPipeline{stt: stt, tts: tts}
	for _, opt := range opts {
		opt(pipeline)
	}
	return pipeline
}

func (p *SpeechPipeline) Transcribe(ctx context.Context, audio []byte) string {
	ctx, span := tracer.Start(ctx, "transcribe")
	defer span.End()
	span.SetAttributes(attribute.Int("audio.bytes", len(audio)))

	if p == nil || p.stt == nil || len(audio) == 0 {
		return ""
	}

	var transcript string
	err := panicSafe("transcription", func() (err error) {
		transcript, err = p.stt.Transcribe(ctx, audio, p.transcriptionOptions...)
		return err
	})
	if err != nil {
		logger.ErrorContext(ctx, "Speech-to-text failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "speech-to-text failed")
		return ""
	}
	return transcript
}

func (p *SpeechPipeline) Synthesize(ctx context.Context, text string) []byte {
	ctx, span := tracer.Start(ctx, "synthesize")
	defer span.End()
	span.SetAttributes(attribute.Int("text.length", len(text)))

	if p == nil || p.tts == nil || text == "" {
		return nil
	}

	var speech []byte
	err := panicSafe("synthesis", func() (err error) {
		speech, err = p.tts.Synthesize(ctx, text, p.synthesisOptions...)
		return err
	})
	if err != nil {
		logger.ErrorContext(ctx, "Text-to-speech failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "text-to-speech failed")
		return nil
	}
	if len(speech) == 0 {
		return nil
	}
	return speech
}
