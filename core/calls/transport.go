package calls

import (
	"context"

	orchestration "github.com/koscakluka/ema-callbot/core"
	"github.com/koscakluka/ema-callbot/core/conversations"
	"github.com/koscakluka/ema-callbot/core/telephony"
)

// Transport is one call's media stream. Receive is only ever called from the
// session's own goroutine.
type Transport interface {
	// Receive returns the next event. Errors wrapping
	// telephony.ErrMalformedEvent are skipped; any other error ends the
	// session.
	Receive(ctx context.Context) (telephony.Event, error)
	SendMedia(ctx context.Context, streamID string, audio []byte) error
	// SendMark asks the provider to echo name back as a mark event once the
	// media sent before it has played.
	SendMark(ctx context.Context, streamID, name string) error
	Close() error
}

// Dialogue produces the bot's side of the conversation.
type Dialogue interface {
	Greet(ctx context.Context, state *conversations.State) ([]byte, string)
	HandleUserTurn(ctx context.Context, state *conversations.State, text string) orchestration.TurnResult
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) string
}
