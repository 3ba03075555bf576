package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-callbot/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultListenURL = "wss://api.deepgram.com/v1/listen"
	DefaultModel     = "nova-3"

	// 250ms of 8kHz µ-law per websocket frame.
	audioFrameSize = 2000

	// DefaultReadTimeout is how long Deepgram may stay silent before the
	// transcription is abandoned.
	DefaultReadTimeout = 10 * time.Second
)

// TranscriptionClient transcribes finished utterances by streaming them
// through a short-lived Deepgram listen socket.
type TranscriptionClient struct {
	apiKey    string
	model     string
	listenURL   string
	readTimeout time.Duration
	dialer      *websocket.Dialer
}

type ClientOption func(*TranscriptionClient)

func WithModel(model string) ClientOption {
	return func(c *TranscriptionClient) {
		if model != "" {
			c.model = model
		}
	}
}

func WithListenURL(listenURL string) ClientOption {
	return func(c *TranscriptionClient) {
		if listenURL != "" {
			c.listenURL = listenURL
		}
	}
}

func WithReadTimeout(timeout time.Duration) ClientOption {
	return func(c *TranscriptionClient) {
		if timeout > 0 {
			c.readTimeout = timeout
		}
	}
}

func NewTranscriptionClient(apiKey string, opts ...ClientOption) (*TranscriptionClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	client := &TranscriptionClient{
		apiKey:      apiKey,
		model:       DefaultModel,
		listenURL:   defaultListenURL,
		readTimeout: DefaultReadTimeout,
		dialer:      websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Transcribe sends the whole utterance, asks Deepgram to flush and returns
// the finalized segments joined together. Silence yields an empty string.
func (c *TranscriptionClient) Transcribe(ctx context.Context, audio []byte, opts ...speechtotext.TranscriptionOption) (string, error) {
	ctx, span := tracer.Start(ctx, "transcribe deepgram")
	defer span.End()
	span.SetAttributes(attribute.Int("audio.bytes", len(audio)))

	if len(audio) == 0 {
		return "", nil
	}

	options := speechtotext.NewTranscriptionOptions(opts...)
	encoding, err := convertEncoding(options.EncodingInfo)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid encoding")
		return "", fmt.Errorf("invalid encoding: %w", err)
	}

	conn, err := c.connectWebsocket(ctx, connectionOptions{
		sampleRate: encoding.SampleRate,
		encoding:   encoding.Format.Name(),
		language:   options.Language,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to connect")
		return "", fmt.Errorf("failed to open websocket: %w", err)
	}
	defer conn.Close()

	// Unblocks ReadMessage when the caller gives up.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	writeErr := make(chan error, 1)
	go func() { writeErr <- writeAudio(conn, audio) }()

	var segments []string
	for {
		_ = conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				break
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to read transcript")
			return "", fmt.Errorf("failed to read deepgram websocket message: %w", err)
		}
		if msgType == websocket.BinaryMessage {
			continue
		}

		segment, err := parseFinalSegment(msg)
		if err != nil {
			logger.WarnContext(ctx, "Failed to unmarshal deepgram message", "error", err)
			continue
		}
		if segment == "" {
			continue
		}
		segments = append(segments, segment)
		if options.PartialTranscriptionCallback != nil {
			options.PartialTranscriptionCallback(segment)
		}
	}

	if err := <-writeErr; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send audio")
		return "", err
	}

	transcript := strings.Join(segments, " ")
	span.SetAttributes(attribute.Int("transcript.length", len(transcript)))
	return transcript, nil
}

type connectionOptions struct {
	sampleRate int
	encoding   string
	language   string
}

func (c *TranscriptionClient) connectWebsocket(ctx context.Context, options connectionOptions) (*websocket.Conn, error) {
	listenURL, err := url.Parse(c.listenURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listen url: %w", err)
	}
	queryParams := listenURL.Query()
	queryParams.Set("encoding", options.encoding)
	queryParams.Set("sample_rate", strconv.Itoa(options.sampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", c.model)
	queryParams.Set("language", options.language)
	queryParams.Set("smart_format", "true")
	queryParams.Set("punctuate", "true")
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := c.dialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + c.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}

func writeAudio(conn *websocket.Conn, audio []byte) error {
	for start := 0; start < len(audio); start += audioFrameSize {
		end := min(start+audioFrameSize, len(audio))
		if err := conn.WriteMessage(websocket.BinaryMessage, audio[start:end]); err != nil {
			return fmt.Errorf("failed to write to deepgram client: %w", err)
		}
	}

	if err := conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return fmt.Errorf("failed to close deepgram stream: %w", err)
	}
	return nil
}

// parseFinalSegment returns the transcript of a final Results message and
// an empty string for anything else.
func parseFinalSegment(msg []byte) (string, error) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		return "", err
	}

	if api.TypeResponse(parsedMsg.Type) != api.TypeMessageResponse {
		return "", nil
	}

	var msgResp api.MessageResponse
	if err := json.Unmarshal(msg, &msgResp); err != nil {
		return "", err
	}
	if !msgResp.IsFinal || len(msgResp.Channel.Alternatives) == 0 {
		return "", nil
	}
	return strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript), nil
}
