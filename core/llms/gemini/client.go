package gemini

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/koscakluka/ema-callbot/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const (
	DefaultModel = "gemini-2.5-flash"

	defaultMaxOutputTokens = 150

	defaultTimeout = 30 * time.Second
)

// Client prompts Gemini through the genai SDK.
type Client struct {
	model  string
	models *genai.Models
}

type ClientOption func(*clientOptions)

type clientOptions struct {
	model      string
	baseURL    string
	httpClient *http.Client
}

func WithModel(model string) ClientOption {
	return func(o *clientOptions) {
		if model != "" {
			o.model = model
		}
	}
}

// WithBaseURL overrides the API endpoint, mostly useful for tests.
func WithBaseURL(url string) ClientOption {
	return func(o *clientOptions) { o.baseURL = url }
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(o *clientOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}

	options := clientOptions{
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: defaultTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(&options)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  options.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: options.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{model: options.model, models: client.Models}, nil
}

func (c *Client) Model() string { return c.model }

func (c *Client) Prompt(ctx context.Context, prompt string, opts ...llms.PromptOption) (*llms.Response, error) {
	ctx, span := tracer.Start(ctx, "prompt gemini")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.model))

	options := llms.NewPromptOptions(opts...)

	contents := toContents(options.History)
	if prompt != "" {
		contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))
	}

	resp, err := c.models.GenerateContent(ctx, c.model, contents, toConfig(options))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate content")
		return nil, fmt.Errorf("error generating content: %w", err)
	}

	response := fromResponse(resp)
	if response.Content == "" && !response.HasToolCalls() {
		logger.WarnContext(ctx, "gemini returned an empty response")
	}
	span.SetAttributes(attribute.Int("llm.tool_calls", len(response.ToolCalls)))
	return response, nil
}

func toConfig(options llms.PromptOptions) *genai.GenerateContentConfig {
	maxTokens := int32(defaultMaxOutputTokens)
	if options.MaxTokens > 0 {
		maxTokens = int32(options.MaxTokens)
	}

	config := &genai.GenerateContentConfig{MaxOutputTokens: maxTokens}
	if options.Instructions != "" {
		config.SystemInstruction = genai.NewContentFromText(options.Instructions, genai.RoleUser)
	}
	if options.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*options.Temperature))
	}

	if len(options.Tools) > 0 {
		declarations := make([]*genai.FunctionDeclaration, 0, len(options.Tools))
		for _, tool := range options.Tools {
			declarations = append(declarations, &genai.FunctionDeclaration{
				Name:                 tool.Function.Name,
				Description:          tool.Function.Description,
				ParametersJsonSchema: tool.Function.Parameters,
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: toMode(options.ToolChoice)},
		}
	}
	return config
}

func toMode(choice llms.ToolChoice) genai.FunctionCallingConfigMode {
	switch choice {
	case llms.ToolChoiceNone:
		return genai.FunctionCallingConfigModeNone
	case llms.ToolChoiceRequired:
		return genai.FunctionCallingConfigModeAny
	default:
		return genai.FunctionCallingConfigModeAuto
	}
}
