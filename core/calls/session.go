package calls

import (
	"context"
	"time"

	"github.com/koscakluka/ema-callbot/core/audio"
	"github.com/koscakluka/ema-callbot/core/conversations"
)

// session is owned by the goroutine running Manager.Serve for its call. Only
// cancel and done are touched from outside.
type session struct {
	callID    string
	streamID  string
	startedAt time.Time

	transport Transport
	buffer    *audio.FrameBuffer
	state     *conversations.State
	greeted   bool
	// replies counts audio sent, for naming playback marks.
	replies int

	cancel context.CancelFunc
	done   chan struct{}
}

func newSession(callID string, transport Transport, threshold, historyLimit int, cancel context.CancelFunc) *session {
	return &session{
		callID:    callID,
		startedAt: time.Now(),
		transport: transport,
		buffer:    audio.NewFrameBuffer(threshold),
		state:     conversations.NewState(callID, historyLimit),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}
