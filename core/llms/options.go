package llms

type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceNone     ToolChoice = "none"
	ToolChoiceRequired ToolChoice = "required"
)

// PromptOptions contains everything a backend needs besides the new prompt.
type PromptOptions struct {
	Instructions string
	History      []Message
	Tools        []Tool
	ToolChoice   ToolChoice

	Temperature *float64
	MaxTokens   int
}

type PromptOption func(*PromptOptions)

func NewPromptOptions(opts ...PromptOption) PromptOptions {
	options := PromptOptions{ToolChoice: ToolChoiceAuto}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// WithSystemPrompt sets the system instruction for the prompt.
// Repeating this option will overwrite the previous system prompt.
func WithSystemPrompt(prompt string) PromptOption {
	return func(opts *PromptOptions) {
		opts.Instructions = prompt
	}
}

// WithHistory adds passed messages to the prompt.
// Repeating this option will sequentially add more messages.
func WithHistory(messages ...Message) PromptOption {
	return func(opts *PromptOptions) {
		opts.History = append(opts.History, messages...)
	}
}

// WithTools adds tools to the prompt
func WithTools(tools ...Tool) PromptOption {
	return func(opts *PromptOptions) {
		opts.Tools = append(opts.Tools, tools...)
	}
}

func WithToolChoice(choice ToolChoice) PromptOption {
	return func(opts *PromptOptions) {
		opts.ToolChoice = choice
	}
}

func WithTemperature(temperature float64) PromptOption {
	return func(opts *PromptOptions) {
		opts.Temperature = &temperature
	}
}

func WithMaxTokens(maxTokens int) PromptOption {
	return func(opts *PromptOptions) {
		opts.MaxTokens = maxTokens
	}
}
