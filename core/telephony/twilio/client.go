package twilio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultBaseURL = "https://api.twilio.com/2010-04-01"

// CallStatus is the lifecycle state Twilio reports for a call.
type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in-progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusBusy       CallStatus = "busy"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no-answer"
	CallStatusCanceled   CallStatus = "canceled"
)

// Terminal reports whether the call can no longer change state.
func (s CallStatus) Terminal() bool {
	switch s {
	case CallStatusCompleted, CallStatusBusy, CallStatusFailed, CallStatusNoAnswer, CallStatusCanceled:
		return true
	}
	return false
}

// Call is the subset of the Twilio call resource the bot uses.
type Call struct {
	SID       string     `json:"sid"`
	To        string     `json:"to"`
	From      string     `json:"from"`
	Status    CallStatus `json:"status"`
	Direction string     `json:"direction"`
	Duration  string     `json:"duration"`
}

// APIError is an error body returned by the Twilio REST API.
type APIError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twilio error %d: %s", e.Code, e.Message)
}

// Client places outbound calls and looks up their status.
type Client struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient creates a REST client. from is the caller id used for outbound
// calls.
func NewClient(accountSID, authToken, from string, opts ...ClientOption) (*Client, error) {
	if accountSID == "" {
		return nil, errors.New("twilio account sid is required")
	}
	if authToken == "" {
		return nil, errors.New("twilio auth token is required")
	}

	client := &Client{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// MakeCall dials to and points the answered call at callbackURL, which must
// serve the voice webhook. It returns the new call's SID.
func (c *Client) MakeCall(ctx context.Context, to, callbackURL string) (string, error) {
	ctx, span := tracer.Start(ctx, "make call")
	defer span.End()

	if c.from == "" {
		return "", errors.New("twilio phone number is required to place calls")
	}
	if to == "" || callbackURL == "" {
		return "", errors.New("destination number and callback url are required")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.from)
	form.Set("Url", callbackURL)
	form.Set("Method", http.MethodPost)

	var call Call
	if err := c.do(ctx, http.MethodPost, c.callsURL(""), form, &call); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "make call failed")
		return "", fmt.Errorf("failed to make call: %w", err)
	}

	span.SetAttributes(attribute.String("call.sid", call.SID))
	logger.InfoContext(ctx, "Call initiated", "call_sid", call.SID, "to", to)
	return call.SID, nil
}

// CallStatus looks up the current status of a call.
func (c *Client) CallStatus(ctx context.Context, sid string) (CallStatus, error) {
	ctx, span := tracer.Start(ctx, "get call status")
	defer span.End()
	span.SetAttributes(attribute.String("call.sid", sid))

	if sid == "" {
		return "", errors.New("call sid is required")
	}

	var call Call
	if err := c.do(ctx, http.MethodGet, c.callsURL(sid), nil, &call); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "get call status failed")
		return "", fmt.Errorf("failed to get call status: %w", err)
	}
	return call.Status, nil
}

func (c *Client) callsURL(sid string) string {
	if sid == "" {
		return fmt.Sprintf("%s/Accounts/%s/Calls.json", c.baseURL, c.accountSID)
	}
	return fmt.Sprintf("%s/Accounts/%s/Calls/%s.json", c.baseURL, c.accountSID, url.PathEscape(sid))
}

func (c *Client) do(ctx context.Context, method, endpoint string, form url.Values, result any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr APIError
		if err := json.Unmarshal(respBody, &apiErr); err != nil || apiErr.Message == "" {
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
		}
		return &apiErr
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
