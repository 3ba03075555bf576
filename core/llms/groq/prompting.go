package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jinzhu/copier"
	"github.com/koscakluka/ema-callbot/core/llms"
	"github.com/koscakluka/ema-callbot/internal/utils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultURL   = "https://api.groq.com/openai/v1/chat/completions"
	DefaultModel = "llama-3.3-70b-versatile"

	defaultTemperature = 0.7
	defaultMaxTokens   = 150

	defaultTimeout = 30 * time.Second
)

// Client runs single-round chat completions against Groq's OpenAI
// compatible endpoint. Tool rounds are driven by the caller.
type Client struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func WithURL(url string) ClientOption {
	return func(c *Client) {
		if url != "" {
			c.url = url
		}
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq: api key is required")
	}

	c := &Client{
		apiKey:     apiKey,
		model:      DefaultModel,
		url:        defaultURL,
		httpClient: &http.Client{Timeout: defaultTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Model() string { return c.model }

// Prompt sends the history and, if non-empty, prompt as a new user message.
// An empty prompt continues from the history, which is how tool results are
// fed back.
func (c *Client) Prompt(ctx context.Context, prompt string, opts ...llms.PromptOption) (*llms.Response, error) {
	ctx, span := tracer.Start(ctx, "prompt groq")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.model))

	options := llms.NewPromptOptions(opts...)

	reqBody := requestBody{
		Model:       c.model,
		Messages:    toMessages(options.Instructions, options.History, prompt),
		Temperature: utils.Ptr(defaultTemperature),
		MaxTokens:   defaultMaxTokens,
	}
	if options.Temperature != nil {
		reqBody.Temperature = options.Temperature
	}
	if options.MaxTokens > 0 {
		reqBody.MaxTokens = options.MaxTokens
	}
	if len(options.Tools) > 0 {
		if err := copier.Copy(&reqBody.Tools, options.Tools); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to convert tools")
			return nil, fmt.Errorf("error converting tools: %w", err)
		}
		reqBody.ToolChoice = utils.Ptr(string(options.ToolChoice))
	}

	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to marshal request")
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create request")
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send request")
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read response")
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("non-OK HTTP status %s: %s", resp.Status, bytes.TrimSpace(body))
		logger.WarnContext(ctx, "groq request rejected", "status", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "non-OK status")
		return nil, err
	}

	var responseBody responseBody
	if err := json.Unmarshal(body, &responseBody); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to unmarshal response")
		return nil, fmt.Errorf("error unmarshalling JSON: %w", err)
	}
	if len(responseBody.Choices) == 0 {
		err := fmt.Errorf("response contained no choices")
		span.RecordError(err)
		span.SetStatus(codes.Error, "empty response")
		return nil, err
	}

	choice := responseBody.Choices[0].Message
	response := &llms.Response{
		Content:   choice.Content,
		ToolCalls: fromToolCalls(choice.ToolCalls),
	}
	span.SetAttributes(attribute.Int("llm.tool_calls", len(response.ToolCalls)))
	return response, nil
}

type requestBody struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Stream      bool      `json:"stream"`
	Tools       []Tool    `json:"tools,omitempty"`
	ToolChoice  *string   `json:"tool_choice,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type responseBody struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int    `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}
