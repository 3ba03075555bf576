package orchestration

import (
	"context"
	"errors"
	"sync"

	"github.com/koscakluka/ema-callbot/core/llms"
	"github.com/koscakluka/ema-callbot/core/speechtotext"
	"github.com/koscakluka/ema-callbot/core/texttospeech"
)

type sttStub struct {
	transcript string
	err        error
	panics     bool
}

func (s sttStub) Transcribe(_ context.Context, _ []byte, _ ...speechtotext.TranscriptionOption) (string, error) {
	if s.panics {
		panic("stt exploded")
	}
	return s.transcript, s.err
}

type ttsStub struct {
	err error
}

func (s ttsStub) Synthesize(_ context.Context, text string, _ ...texttospeech.TextToSpeechOption) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte("audio:" + text), nil
}

// scriptedLLM answers each Prompt call with the next scripted response and
// records the options it was called with.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []llmReply
	calls     []llmCall
}

type llmReply struct {
	response llms.Response
	err      error
}

type llmCall struct {
	prompt  string
	options llms.PromptOptions
}

func (s *scriptedLLM) Prompt(_ context.Context, prompt string, opts ...llms.PromptOption) (*llms.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, llmCall{prompt: prompt, options: llms.NewPromptOptions(opts...)})
	if len(s.responses) == 0 {
		return nil, errors.New("no scripted response left")
	}
	next := s.responses[0]
	s.responses = s.responses[1:]
	if next.err != nil {
		return nil, next.err
	}
	return &next.response, nil
}

func (s *scriptedLLM) recorded() []llmCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llmCall(nil), s.calls...)
}

type panickingLLM struct{}

func (panickingLLM) Prompt(context.Context, string, ...llms.PromptOption) (*llms.Response, error) {
	panic("llm exploded")
}
