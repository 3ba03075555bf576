package orchestration

import (
	"context"

	"github.com/koscakluka/ema-callbot/core/events"
	"github.com/koscakluka/ema-callbot/core/knowledge"
	"github.com/koscakluka/ema-callbot/core/llms"
	"github.com/koscakluka/ema-callbot/core/tools"
)

type DialogueOption func(*Dialogue)

// LLM is a single-round chat backend. Tool rounds are driven by Dialogue.
type LLM interface {
	Prompt(ctx context.Context, prompt string, opts ...llms.PromptOption) (*llms.Response, error)
}

// ToolExecutor declares tools to the model and runs the ones it asks for.
type ToolExecutor interface {
	Definitions() []llms.Tool
	Execute(ctx context.Context, name string, arguments string) tools.Result
}

func WithLLM(client LLM) DialogueOption {
	return func(d *Dialogue) { d.llm = client }
}

func WithSpeechPipeline(pipeline *SpeechPipeline) DialogueOption {
	return func(d *Dialogue) { d.speech = pipeline }
}

func WithTools(executor ToolExecutor) DialogueOption {
	return func(d *Dialogue) { d.tools = executor }
}

func WithKnowledge(kb *knowledge.Base) DialogueOption {
	return func(d *Dialogue) { d.knowledge = kb }
}

// WithHistoryLimit bounds how many history entries are sent to the model.
func WithHistoryLimit(limit int) DialogueOption {
	return func(d *Dialogue) {
		if limit > 0 {
			d.historyLimit = limit
		}
	}
}

func WithGreeting(text string) DialogueOption {
	return func(d *Dialogue) {
		if text != "" {
			d.greeting = text
		}
	}
}

func WithFallback(text string) DialogueOption {
	return func(d *Dialogue) {
		if text != "" {
			d.fallback = text
		}
	}
}

func WithTemperature(temperature float64) DialogueOption {
	return func(d *Dialogue) { d.promptOptions = append(d.promptOptions, llms.WithTemperature(temperature)) }
}

func WithMaxTokens(maxTokens int) DialogueOption {
	return func(d *Dialogue) {
		if maxTokens > 0 {
			d.promptOptions = append(d.promptOptions, llms.WithMaxTokens(maxTokens))
		}
	}
}

func WithEventHandler(handler events.Handler) DialogueOption {
	return func(d *Dialogue) {
		if handler != nil {
			d.emit = handler
		}
	}
}
