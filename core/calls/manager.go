package calls

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/koscakluka/ema-callbot/core/audio"
	"github.com/koscakluka/ema-callbot/core/conversations"
	"github.com/koscakluka/ema-callbot/core/events"
	"github.com/koscakluka/ema-callbot/core/telephony"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrSessionActive is returned by Serve when the call already has a running
// session. The running session is left alone.
var ErrSessionActive = errors.New("call already has an active session")

const (
	DefaultFlushTimeout = 15 * time.Second
	// DefaultTurnTimeout bounds one turn: transcription, dialogue and
	// sending the reply.
	DefaultTurnTimeout = 30 * time.Second
)

// Manager runs one session per call and keeps track of the live ones.
type Manager struct {
	dialogue    Dialogue
	transcriber Transcriber

	threshold    int
	minViable    int
	historyLimit int
	flushTimeout time.Duration
	turnTimeout  time.Duration
	emit         events.Handler

	mu       sync.Mutex
	sessions map[string]*session
}

type ManagerOption func(*Manager)

// WithThreshold sets how many buffered audio bytes make up a turn.
func WithThreshold(bytes int) ManagerOption {
	return func(m *Manager) {
		if bytes > 0 {
			m.threshold = bytes
		}
	}
}

// WithMinViableBytes sets the smallest leftover that is still processed when
// a stream ends without a stop. Shorter leftovers count as noise.
func WithMinViableBytes(bytes int) ManagerOption {
	return func(m *Manager) {
		if bytes > 0 {
			m.minViable = bytes
		}
	}
}

func WithHistoryLimit(limit int) ManagerOption {
	return func(m *Manager) {
		if limit > 0 {
			m.historyLimit = limit
		}
	}
}

// WithFlushTimeout bounds how long buffered audio may still be processed
// after the call's context is gone.
func WithFlushTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		if timeout > 0 {
			m.flushTimeout = timeout
		}
	}
}

// WithTurnTimeout bounds how long a single turn, greeting included, may
// hold up the session's event loop.
func WithTurnTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		if timeout > 0 {
			m.turnTimeout = timeout
		}
	}
}

func WithEventHandler(handler events.Handler) ManagerOption {
	return func(m *Manager) {
		if handler != nil {
			m.emit = handler
		}
	}
}

func NewManager(dialogue Dialogue, transcriber Transcriber, opts ...ManagerOption) *Manager {
	m := &Manager{
		dialogue:     dialogue,
		transcriber:  transcriber,
		threshold:    audio.DefaultProcessingThreshold,
		minViable:    audio.DefaultProcessingThreshold,
		historyLimit: conversations.DefaultHistoryLimit,
		flushTimeout: DefaultFlushTimeout,
		turnTimeout:  DefaultTurnTimeout,
		emit:         func(events.Event) {},
		sessions:     map[string]*session{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Serve runs the call's media stream until Twilio stops it, the transport
// drops, or ctx is cancelled. Events are handled strictly in order and a
// turn finishes, reply included, before the next event is read. The
// transport is always closed when Serve returns.
func (m *Manager) Serve(ctx context.Context, callID string, transport Transport) error {
	ctx, span := tracer.Start(ctx, "serve call")
	defer span.End()
	span.SetAttributes(attribute.String("call.id", callID))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s, err := m.register(callID, transport, cancel)
	if err != nil {
		_ = transport.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "session rejected")
		return err
	}

	reason := events.EndReasonDisconnected
	defer func() { m.teardown(ctx, s, reason) }()

	logger.InfoContext(ctx, "Call session started", "call_id", callID)
	reason, err = m.run(ctx, s)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (m *Manager) register(callID string, transport Transport, cancel context.CancelFunc) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[callID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionActive, callID)
	}
	s := newSession(callID, transport, m.threshold, m.historyLimit, cancel)
	m.sessions[callID] = s
	activeCalls.Add(context.Background(), 1)
	return s, nil
}

// run is the session's event loop. Only an unexpected transport failure is
// reported as an error; a stop, a clean close and cancellation are normal
// endings.
func (m *Manager) run(ctx context.Context, s *session) (events.EndReason, error) {
	for {
		event, err := s.transport.Receive(ctx)
		if err != nil {
			switch {
			case errors.Is(err, telephony.ErrMalformedEvent):
				logger.WarnContext(ctx, "Skipping malformed media stream message", "call_id", s.callID, "error", err)
				continue
			case ctx.Err() != nil:
				m.flushViable(ctx, s)
				return events.EndReasonCancelled, nil
			case errors.Is(err, io.EOF):
				m.flushViable(ctx, s)
				return events.EndReasonDisconnected, nil
			default:
				m.flushViable(ctx, s)
				return events.EndReasonDisconnected, fmt.Errorf("media stream failed: %w", err)
			}
		}

		if !event.Known() {
			logger.DebugContext(ctx, "Ignoring unknown media stream event", "call_id", s.callID, "event", string(event.Type))
			continue
		}

		switch event.Type {
		case telephony.EventStart:
			m.handleStart(ctx, s, event)

		case telephony.EventMedia:
			s.buffer.Append(event.Audio)
			if s.buffer.IsReadyForProcessing() {
				m.processTurn(ctx, s, s.buffer.Drain())
			}

		case telephony.EventStop:
			logger.InfoContext(ctx, "Media stream stopped", "call_id", s.callID)
			if s.buffer.Len() > 0 {
				m.processTurn(ctx, s, s.buffer.Drain())
			}
			return events.EndReasonStopped, nil

		case telephony.EventMark:
			logger.DebugContext(ctx, "Reply played", "call_id", s.callID, "mark", event.Mark)

		case telephony.EventDTMF:
			logger.DebugContext(ctx, "Ignoring DTMF", "call_id", s.callID, "digit", event.Digit)
		}
	}
}

func (m *Manager) handleStart(ctx context.Context, s *session, event telephony.Event) {
	s.streamID = event.StreamID
	trace.SpanFromContext(ctx).AddEvent("stream started", trace.WithAttributes(attribute.String("stream.id", s.streamID)))
	logger.InfoContext(ctx, "Media stream started", "call_id", s.callID, "stream_id", s.streamID)
	m.emit(events.NewCallStarted(s.callID, s.streamID))

	if s.greeted {
		return
	}
	s.greeted = true

	ctx, cancel := context.WithTimeout(ctx, m.turnTimeout)
	defer cancel()

	speech, text := m.dialogue.Greet(ctx, s.state)
	if text == "" {
		return
	}
	if m.send(ctx, s, speech) {
		m.emit(events.NewCallGreetingSent(s.callID, text))
	}
	s.state.MarkGreeted()
}

// processTurn runs speech through the dialogue and plays the reply. Audio
// that arrives after the conversation ended is dropped.
func (m *Manager) processTurn(ctx context.Context, s *session, speech []byte) {
	ctx, cancel := context.WithTimeout(ctx, m.turnTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "process turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("call.id", s.callID),
		attribute.Int("audio.bytes", len(speech)),
		attribute.Int64("audio.duration_ms", audio.GetDefaultEncodingInfo().Duration(len(speech)).Milliseconds()),
	)

	if s.state.Phase == conversations.PhaseEnded {
		span.AddEvent("audio after conversation end", trace.WithAttributes(attribute.Int("audio.bytes", len(speech))))
		m.emit(events.NewUserAudioDiscarded(s.callID, len(speech)))
		return
	}

	transcript := m.transcriber.Transcribe(ctx, speech)
	if transcript == "" {
		logger.DebugContext(ctx, "Nothing heard", "call_id", s.callID, "bytes", len(speech))
		m.emit(events.NewUserAudioDiscarded(s.callID, len(speech)))
		return
	}
	logger.InfoContext(ctx, "User said", "call_id", s.callID, "transcript", transcript)
	m.emit(events.NewUserTranscriptFinal(s.callID, transcript))

	// A caller who talks before the greeting was played is past it anyway.
	s.state.MarkGreeted()

	result := m.dialogue.HandleUserTurn(ctx, s.state, transcript)
	if result.Reply != "" {
		m.send(ctx, s, result.Audio)
		m.emit(events.NewAssistantResponseFinalized(s.callID, result.Reply, len(result.Audio)))
	}

	if result.EndCall {
		span.AddEvent("conversation ended", trace.WithAttributes(attribute.Int("conversation.user_turns", s.state.UserTurns)))
		logger.InfoContext(ctx, "Conversation ended", "call_id", s.callID, "user_turns", s.state.UserTurns)
		s.state.End()
	}
}

// flushViable processes what is left in the buffer when the stream ended
// without a stop. Anything below the threshold is treated as noise.
func (m *Manager) flushViable(ctx context.Context, s *session) {
	remaining := s.buffer.Drain()
	if len(remaining) == 0 {
		return
	}
	if !audio.IsViable(remaining, min(m.minViable, s.buffer.Threshold())) {
		m.emit(events.NewUserAudioDiscarded(s.callID, len(remaining)))
		return
	}

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.flushTimeout)
	defer cancel()
	m.processTurn(flushCtx, s, remaining)
}

// send reports whether audio went out. Failures are logged; the session
// carries on and finds out about a dead transport on the next Receive.
func (m *Manager) send(ctx context.Context, s *session, speech []byte) bool {
	if len(speech) == 0 {
		return false
	}
	if s.streamID == "" {
		logger.WarnContext(ctx, "No stream id yet, dropping outbound audio", "call_id", s.callID, "bytes", len(speech))
		return false
	}
	if err := s.transport.SendMedia(ctx, s.streamID, speech); err != nil {
		logger.ErrorContext(ctx, "Failed to send audio", "call_id", s.callID, "error", err)
		return false
	}

	s.replies++
	mark := fmt.Sprintf("reply-%d", s.replies)
	if err := s.transport.SendMark(ctx, s.streamID, mark); err != nil {
		logger.DebugContext(ctx, "Failed to send mark", "call_id", s.callID, "mark", mark, "error", err)
	}
	return true
}

func (m *Manager) teardown(ctx context.Context, s *session, reason events.EndReason) {
	if remaining := s.buffer.Drain(); len(remaining) > 0 {
		m.emit(events.NewUserAudioDiscarded(s.callID, len(remaining)))
	}
	if s.state.Phase == conversations.PhaseEnded && reason != events.EndReasonCancelled {
		reason = events.EndReasonConversation
	}
	s.state.End()

	if err := s.transport.Close(); err != nil {
		logger.DebugContext(ctx, "Failed to close transport", "call_id", s.callID, "error", err)
	}

	m.mu.Lock()
	delete(m.sessions, s.callID)
	m.mu.Unlock()
	activeCalls.Add(context.WithoutCancel(ctx), -1)
	close(s.done)

	logger.InfoContext(ctx, "Call session ended",
		"call_id", s.callID,
		"reason", string(reason),
		"user_turns", s.state.UserTurns,
		"duration", time.Since(s.startedAt).String())
	m.emit(events.NewCallEnded(s.callID, reason, s.state.UserTurns))
}

// Active returns the ids of calls with a running session, sorted.
func (m *Manager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CloseAll cancels every running session. Use Wait to block until they have
// torn down.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		s.cancel()
	}
}

// Wait blocks until no session is running or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	for {
		m.mu.Lock()
		var pending *session
		for _, s := range m.sessions {
			pending = s
			break
		}
		m.mu.Unlock()

		if pending == nil {
			return nil
		}
		select {
		case <-pending.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
