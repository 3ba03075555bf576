package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	orchestration "github.com/koscakluka/ema-callbot/core"
	"github.com/koscakluka/ema-callbot/core/audio"
	"github.com/koscakluka/ema-callbot/core/calls"
	"github.com/koscakluka/ema-callbot/core/events"
	"github.com/koscakluka/ema-callbot/core/knowledge"
	"github.com/koscakluka/ema-callbot/core/llms/gemini"
	"github.com/koscakluka/ema-callbot/core/llms/groq"
	"github.com/koscakluka/ema-callbot/core/llms/openai"
	"github.com/koscakluka/ema-callbot/core/speechtotext"
	stt "github.com/koscakluka/ema-callbot/core/speechtotext/deepgram"
	"github.com/koscakluka/ema-callbot/core/telephony/twilio"
	"github.com/koscakluka/ema-callbot/core/texttospeech"
	tts "github.com/koscakluka/ema-callbot/core/texttospeech/deepgram"
	"github.com/koscakluka/ema-callbot/core/tools"
	"github.com/koscakluka/ema-callbot/internal/config"
)

type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func (a *app) configure(cfg *config.Config, logOutput io.Writer) {
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(a.logger)
}

func (a *app) newLLM(ctx context.Context) (orchestration.LLM, error) {
	llm := a.cfg.LLM
	switch llm.Provider {
	case config.ProviderOpenAI:
		return openai.NewClient(llm.APIKey(), openai.WithModel(llm.Model))
	case config.ProviderGemini:
		return gemini.NewClient(ctx, llm.APIKey(), gemini.WithModel(llm.Model))
	case config.ProviderGroq:
		return groq.NewClient(llm.APIKey(), groq.WithModel(llm.Model))
	default:
		return nil, fmt.Errorf("unknown llm provider %q", llm.Provider)
	}
}

func (a *app) newSpeechPipeline() (*orchestration.SpeechPipeline, error) {
	speech := a.cfg.Speech
	transcriber, err := stt.NewTranscriptionClient(speech.DeepgramAPIKey, stt.WithModel(speech.STTModel))
	if err != nil {
		return nil, fmt.Errorf("wire speech to text: %w", err)
	}
	synthesizer, err := tts.NewTextToSpeechClient(speech.DeepgramAPIKey, speech.Voice)
	if err != nil {
		return nil, fmt.Errorf("wire text to speech: %w", err)
	}

	encoding := audio.GetDefaultEncodingInfo()
	return orchestration.NewSpeechPipeline(transcriber, synthesizer,
		orchestration.WithTranscriptionOptions(
			speechtotext.WithEncodingInfo(encoding),
			speechtotext.WithLanguage(speech.Language),
		),
		orchestration.WithSynthesisOptions(texttospeech.WithEncodingInfo(encoding)),
	), nil
}

// newDialogue builds the orchestrator. speech may be nil for text-only use.
func (a *app) newDialogue(ctx context.Context, speech *orchestration.SpeechPipeline) (*orchestration.Dialogue, error) {
	llm, err := a.newLLM(ctx)
	if err != nil {
		return nil, fmt.Errorf("wire llm: %w", err)
	}
	kb, err := knowledge.Load()
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}

	return orchestration.NewDialogue(
		orchestration.WithLLM(llm),
		orchestration.WithSpeechPipeline(speech),
		orchestration.WithTools(tools.NewDispatcher(kb)),
		orchestration.WithKnowledge(kb),
		orchestration.WithHistoryLimit(a.cfg.Dialogue.HistoryLimit),
		orchestration.WithTemperature(a.cfg.LLM.Temperature),
		orchestration.WithMaxTokens(a.cfg.LLM.MaxTokens),
		orchestration.WithEventHandler(a.logEvent),
	), nil
}

func (a *app) newManager(ctx context.Context) (*calls.Manager, error) {
	speech, err := a.newSpeechPipeline()
	if err != nil {
		return nil, err
	}
	dialogue, err := a.newDialogue(ctx, speech)
	if err != nil {
		return nil, err
	}

	return calls.NewManager(dialogue, speech,
		calls.WithThreshold(a.cfg.Dialogue.AudioThresholdBytes),
		calls.WithHistoryLimit(a.cfg.Dialogue.HistoryLimit),
		calls.WithEventHandler(a.logEvent),
	), nil
}

func (a *app) newTwilioClient() (*twilio.Client, error) {
	tw := a.cfg.Twilio
	client, err := twilio.NewClient(tw.AccountSID, tw.AuthToken, tw.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("wire twilio client: %w", err)
	}
	return client, nil
}

func (a *app) logEvent(event events.Event) {
	a.logger.Debug("event",
		"kind", string(event.Kind()),
		"call_id", event.CallID(),
	)
}
