package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-callbot/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultSpeakURL = "wss://api.deepgram.com/v1/speak"

	// DefaultReadTimeout is how long Deepgram may stay silent before the
	// synthesis is abandoned.
	DefaultReadTimeout = 10 * time.Second
)

// TextToSpeechClient synthesizes one reply per call over a Deepgram speak
// socket and returns the collected raw audio.
type TextToSpeechClient struct {
	apiKey      string
	speakURL    string
	voice       deepgramVoice
	readTimeout time.Duration
	dialer      *websocket.Dialer
}

type ClientOption func(*TextToSpeechClient)

func WithSpeakURL(speakURL string) ClientOption {
	return func(c *TextToSpeechClient) {
		if speakURL != "" {
			c.speakURL = speakURL
		}
	}
}

func WithReadTimeout(timeout time.Duration) ClientOption {
	return func(c *TextToSpeechClient) {
		if timeout > 0 {
			c.readTimeout = timeout
		}
	}
}

func NewTextToSpeechClient(apiKey string, voice string, opts ...ClientOption) (*TextToSpeechClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	client := &TextToSpeechClient{
		apiKey:      apiKey,
		speakURL:    defaultSpeakURL,
		voice:       defaultVoice,
		readTimeout: DefaultReadTimeout,
		dialer:      websocket.DefaultDialer,
	}
	if voice != "" {
		if err := client.SetVoice(voice); err != nil {
			return nil, err
		}
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *TextToSpeechClient) SetVoice(voice string) error {
	if !slices.Contains(GetAvailableVoices(), deepgramVoice(voice)) {
		return fmt.Errorf("invalid voice %q", voice)
	}
	c.voice = deepgramVoice(voice)
	return nil
}

// Synthesize speaks text and waits for Deepgram to flush before returning
// the audio. Empty text yields no audio.
func (c *TextToSpeechClient) Synthesize(ctx context.Context, text string, opts ...texttospeech.TextToSpeechOption) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "synthesize deepgram")
	defer span.End()
	span.SetAttributes(attribute.Int("text.length", len(text)))

	if text == "" {
		return nil, nil
	}

	options := texttospeech.NewTextToSpeechOptions(opts...)
	voice := c.voice
	if options.Voice != "" {
		voice = deepgramVoice(options.Voice)
	}

	conn, err := c.connectWebsocket(ctx, voice, options)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to connect")
		return nil, fmt.Errorf("failed to open websocket: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := c.speak(conn, text); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send text")
		return nil, err
	}

	var speech bytes.Buffer
	for {
		_ = conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) && speech.Len() > 0 {
				break
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to read audio")
			return nil, fmt.Errorf("failed to read deepgram websocket message: %w", err)
		}

		if msgType == websocket.BinaryMessage {
			speech.Write(msg)
			continue
		}

		var parsedMsg struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		}
		if err := json.Unmarshal(msg, &parsedMsg); err != nil {
			logger.WarnContext(ctx, "Failed to unmarshal deepgram message", "error", err)
			continue
		}
		if parsedMsg.Type == "Flushed" {
			break
		}
		if parsedMsg.Type == "Error" {
			err := fmt.Errorf("deepgram speak error: %s", parsedMsg.Description)
			span.RecordError(err)
			span.SetStatus(codes.Error, "backend error")
			return nil, err
		}
	}

	if err := conn.WriteJSON(message{Type: "Close"}); err != nil {
		logger.DebugContext(ctx, "Failed to close deepgram speak stream", "error", err)
	}

	span.SetAttributes(attribute.Int("audio.bytes", speech.Len()))
	return speech.Bytes(), nil
}

type message struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func (c *TextToSpeechClient) speak(conn *websocket.Conn, text string) error {
	if err := conn.WriteJSON(message{Type: "Speak", Text: text}); err != nil {
		return fmt.Errorf("failed to send text to deepgram through websocket: %w", err)
	}
	if err := conn.WriteJSON(message{Type: "Flush"}); err != nil {
		return fmt.Errorf("failed to flush deepgram buffer through websocket: %w", err)
	}
	return nil
}

func (c *TextToSpeechClient) connectWebsocket(ctx context.Context, voice deepgramVoice, options texttospeech.TextToSpeechOptions) (*websocket.Conn, error) {
	speakURL, err := url.Parse(c.speakURL)
	if err != nil {
		return nil, fmt.Errorf("invalid speak url: %w", err)
	}

	urlValues := speakURL.Query()
	urlValues.Set("encoding", options.EncodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(options.EncodingInfo.SampleRate))
	urlValues.Set("model", string(voice))
	urlValues.Set("container", "none")
	speakURL.RawQuery = urlValues.Encode()

	conn, _, err := c.dialer.DialContext(ctx, speakURL.String(),
		http.Header{"Authorization": {"token " + c.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}
