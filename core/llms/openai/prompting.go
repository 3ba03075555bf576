package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/koscakluka/ema-callbot/core/llms"
	"github.com/koscakluka/ema-callbot/internal/utils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultURL   = "https://api.openai.com/v1/responses"
	DefaultModel = "gpt-4.1-mini"

	defaultMaxOutputTokens = 150

	defaultTimeout = 30 * time.Second
)

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
		return nil, fmt.Errorf("openai: api key is required")
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

func (c *Client) Prompt(ctx context.Context, prompt string, opts ...llms.PromptOption) (*llms.Response, error) {
	ctx, span := tracer.Start(ctx, "prompt openai")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.model))

	options := llms.NewPromptOptions(opts...)

	messages := toOpenAIMessages(options.Instructions, options.History)
	if prompt != "" {
		messages = append(messages, openAIMessage{
			Type:    messageTypeMessage,
			Role:    messageRoleUser,
			Content: prompt,
		})
	}

	reqBody := requestBody{
		Model:           c.model,
		Input:           messages,
		Stream:          false,
		Temperature:     options.Temperature,
		MaxOutputTokens: defaultMaxOutputTokens,
	}
	if options.MaxTokens > 0 {
		reqBody.MaxOutputTokens = options.MaxTokens
	}
	if len(options.Tools) > 0 {
		reqBody.Tools = toOpenAITools(options.Tools)
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

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read response")
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("non-OK HTTP status %s: %s", resp.Status, bytes.TrimSpace(bodyBytes))
		logger.WarnContext(ctx, "openai request rejected", "status", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "non-OK status")
		return nil, err
	}

	response, err := parseResponse(bodyBytes)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse response")
		return nil, err
	}
	span.SetAttributes(attribute.Int("llm.tool_calls", len(response.ToolCalls)))
	return response, nil
}

func parseResponse(body []byte) (*llms.Response, error) {
	var responseBody responseBody
	if err := json.Unmarshal(body, &responseBody); err != nil {
		return nil, fmt.Errorf("error unmarshalling response body: %w", err)
	}

	response := &llms.Response{}
	for _, output := range responseBody.Output {
		var outputType responseOutputType
		if err := json.Unmarshal(output, &outputType); err != nil {
			return nil, fmt.Errorf("error unmarshalling output type: %w", err)
		}

		switch outputType.Type {
		case outputTypeMessage:
			var outputMessage responseOutputMessage
			if err := json.Unmarshal(output, &outputMessage); err != nil {
				return nil, fmt.Errorf("error unmarshalling output message: %w", err)
			}
			for _, content := range outputMessage.Content {
				switch content.Type {
				case "output_text":
					response.Content += content.Text
				case "refusal":
					response.Content += content.Refusal
				}
			}

		case outputTypeFunctionCall:
			var functionCall responseOutputFunctionCall
			if err := json.Unmarshal(output, &functionCall); err != nil {
				return nil, fmt.Errorf("error unmarshalling output function call: %w", err)
			}
			response.ToolCalls = append(response.ToolCalls, llms.ToolCall{
				ID:        functionCall.CallID,
				Name:      functionCall.Name,
				Arguments: functionCall.Arguments,
			})

		case outputTypeReasoning:
			// Not surfaced; reasoning items are not replayed in history.
		}
	}
	return response, nil
}

type requestBody struct {
	Model           string          `json:"model"`
	Input           []openAIMessage `json:"input"`
	Stream          bool            `json:"stream"`
	ToolChoice      *string         `json:"tool_choice,omitempty"`
	Tools           []openAITool    `json:"tools,omitempty"`
	Temperature     *float64        `json:"temperature,omitempty"`
	MaxOutputTokens int             `json:"max_output_tokens,omitempty"`
}

type responseBody struct {
	Output []json.RawMessage `json:"output"`
}

type responseOutputType struct {
	Type outputTypeType `json:"type"`
}

type responseOutputMessage struct {
	ID      string `json:"id"`
	Content []struct {
		// Type is 'output_text' or 'refusal'.
		Type    string `json:"type"`
		Text    string `json:"text"`
		Refusal string `json:"refusal"`
	} `json:"content,omitempty"`
}

type responseOutputFunctionCall struct {
	ID string `json:"id"`
	// CallID is the unique ID of the function tool call generated by the model.
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type outputTypeType string

const (
	outputTypeMessage      outputTypeType = "message"
	outputTypeFunctionCall outputTypeType = "function_call"
	outputTypeReasoning    outputTypeType = "reasoning"
)
