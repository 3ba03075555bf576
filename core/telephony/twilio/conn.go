package twilio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-callbot/core/telephony"
)

const closeGracePeriod = time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Twilio does not send an Origin header.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Conn is one Media Streams websocket. Receive must be called from a single
// goroutine; sends may come from anywhere.
type Conn struct {
	ws *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Upgrade accepts a Media Streams websocket on an HTTP request.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket upgrade failed: %w", err)
	}
	return NewConn(ws), nil
}

func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// Receive blocks until the next event. A closed stream returns io.EOF and a
// cancelled ctx closes the connection. Frames that cannot be decoded return
// an error wrapping telephony.ErrMalformedEvent and leave the stream usable.
func (c *Conn) Receive(ctx context.Context) (telephony.Event, error) {
	stop := context.AfterFunc(ctx, func() { _ = c.ws.Close() })
	defer stop()

	msgType, data, err := c.ws.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return telephony.Event{}, ctx.Err()
		}
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return telephony.Event{}, io.EOF
		}
		return telephony.Event{}, fmt.Errorf("failed to read media stream: %w", err)
	}
	if msgType != websocket.TextMessage {
		return telephony.Event{}, fmt.Errorf("%w: unexpected binary frame", telephony.ErrMalformedEvent)
	}
	return DecodeEvent(data)
}

// SendMedia plays audio to the caller. Audio must already be in the
// stream's encoding (8kHz mu-law).
func (c *Conn) SendMedia(ctx context.Context, streamSID string, audio []byte) error {
	if streamSID == "" {
		return errors.New("stream sid is required to send media")
	}
	msg, err := encodeMedia(streamSID, audio)
	if err != nil {
		return fmt.Errorf("failed to encode media: %w", err)
	}
	return c.write(ctx, msg)
}

// SendMark asks Twilio to echo name back once all preceding media played.
func (c *Conn) SendMark(ctx context.Context, streamSID, name string) error {
	msg, err := encodeMark(streamSID, name)
	if err != nil {
		return fmt.Errorf("failed to encode mark: %w", err)
	}
	return c.write(ctx, msg)
}

func (c *Conn) write(ctx context.Context, msg []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	// Zero means no deadline.
	deadline, _ := ctx.Deadline()
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("failed to write to media stream: %w", err)
	}
	return nil
}

// Close sends a close frame and closes the socket. It is safe to call more
// than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeGracePeriod),
		)
		c.writeMu.Unlock()
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
