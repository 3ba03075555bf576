package orchestration

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/koscakluka/ema-callbot/core/conversations"
	"github.com/koscakluka/ema-callbot/core/events"
	"github.com/koscakluka/ema-callbot/core/knowledge"
	"github.com/koscakluka/ema-callbot/core/llms"
	"github.com/koscakluka/ema-callbot/core/tools"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var ErrEmptyReply = errors.New("model returned an empty reply")

// Dialogue turns user utterances into spoken replies for one or many calls.
// It keeps no per-call state of its own; everything lives in the
// conversations.State passed in, which the caller must not share between
// goroutines.
type Dialogue struct {
	llm       LLM
	speech    *SpeechPipeline
	tools     ToolExecutor
	knowledge *knowledge.Base

	historyLimit  int
	greeting      string
	fallback      string
	promptOptions []llms.PromptOption
	emit          events.Handler
}

func NewDialogue(opts ...DialogueOption) *Dialogue {
	d := &Dialogue{
		historyLimit: conversations.DefaultHistoryLimit,
		greeting:     DefaultGreeting,
		fallback:     DefaultFallbackReply,
		emit:         func(events.Event) {},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// TurnResult is the outcome of one user turn.
type TurnResult struct {
	Reply string
	// Audio is nil when synthesis failed; the reply is still in history.
	Audio     []byte
	ToolCalls int
	// Failed means the fallback reply was used.
	Failed  bool
	EndCall bool
}

// Greet synthesizes the opening line once per conversation. It returns no
// audio once the conversation has left the greeting phase. The caller sends
// the audio and then calls state.MarkGreeted.
func (d *Dialogue) Greet(ctx context.Context, state *conversations.State) ([]byte, string) {
	ctx, span := tracer.Start(ctx, "greet")
	defer span.End()

	if state.Phase != conversations.PhaseGreeting {
		return nil, ""
	}

	state.Append(llms.NewAssistantMessage(d.greeting))
	return d.speech.Synthesize(ctx, d.greeting), d.greeting
}

// HandleUserTurn runs one turn: analyse, prompt, resolve tools, prompt
// again, synthesize. History is only extended once the turn has a reply; a
// failed turn leaves just the user message and answers with the fallback.
func (d *Dialogue) HandleUserTurn(ctx context.Context, state *conversations.State, text string) TurnResult {
	ctx, span := tracer.Start(ctx, "handle user turn")
	defer span.End()
	span.SetAttributes(attribute.String("call.id", state.CallID))

	text = strings.TrimSpace(text)
	if text == "" {
		return TurnResult{}
	}

	analysis := state.ApplyUserTurn(text)
	span.SetAttributes(
		attribute.String("conversation.sentiment", string(analysis.Sentiment)),
		attribute.String("conversation.engagement", string(analysis.Engagement)),
	)

	var turn pendingTurn
	err := panicSafe("dialogue turn", func() error {
		return d.respond(ctx, state, text, &turn)
	})

	result := TurnResult{ToolCalls: len(turn.toolResults)}
	if err != nil {
		logger.ErrorContext(ctx, "Failed to produce reply, using fallback", "call_id", state.CallID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "turn failed")
		turnCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "fallback")))
		d.emit(events.NewTurnFailed(state.CallID, err.Error()))

		state.Append(llms.NewUserMessage(text))
		result.Reply = d.fallback
		result.Failed = true
	} else {
		state.Append(turn.messages...)
		for _, toolResult := range turn.toolResults {
			state.RecordToolResult(toolResult)
			if tools.KindMatchService.String() == toolResult.Name {
				if service := matchedService(toolResult.Output); service != "" {
					state.ServicesDiscussed.Add(service)
				}
			}
		}
		result.Reply = turn.reply
	}

	result.EndCall = ShouldEnd(state)
	if !result.Failed {
		turnCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "reply")))
		d.emit(events.NewTurnCompleted(state.CallID, result.ToolCalls, result.EndCall))
	}

	result.Audio = d.speech.Synthesize(ctx, result.Reply)
	return result
}

// ShouldEnd reports whether the conversation has run its course: the caller
// stayed negative past three turns, or something asked to hang up.
func ShouldEnd(state *conversations.State) bool {
	if state.EndRequested() {
		return true
	}
	return state.Sentiment == conversations.SentimentNegative && state.UserTurns > 3
}

// pendingTurn collects what a turn would add to the state so it can be
// committed in one go.
type pendingTurn struct {
	messages    []llms.Message
	toolResults []conversations.ToolResult
	reply       string
}

func (d *Dialogue) respond(ctx context.Context, state *conversations.State, text string, turn *pendingTurn) error {
	if d.llm == nil {
		return fmt.Errorf("no llm configured")
	}

	history := llms.TrimHistory(slices.Clone(state.History), d.historyLimit)
	instructions, err := buildInstructions(d.knowledge, state)
	if err != nil {
		return err
	}

	var toolDefinitions []llms.Tool
	if d.tools != nil {
		toolDefinitions = d.tools.Definitions()
	}

	opts := append([]llms.PromptOption{
		llms.WithSystemPrompt(instructions),
		llms.WithHistory(history...),
		llms.WithTools(toolDefinitions...),
	}, d.promptOptions...)
	response, err := d.llm.Prompt(ctx, text, opts...)
	if err != nil {
		return fmt.Errorf("failed to prompt llm: %w", err)
	}

	turn.messages = append(turn.messages, llms.NewUserMessage(text))
	if !response.HasToolCalls() {
		return turn.finish(response.Content)
	}

	turn.messages = append(turn.messages, llms.NewAssistantMessage(response.Content, response.ToolCalls...))
	var lastResult *conversations.ToolResult
	for _, call := range response.ToolCalls {
		toolResult := d.executeTool(ctx, state.CallID, call)
		turn.toolResults = append(turn.toolResults, toolResult)
		turn.messages = append(turn.messages, llms.NewToolMessage(call, toolResult.Output))
		lastResult = &toolResult
	}

	// The follow-up instruction sees this turn's tool output without
	// committing it to the real state yet.
	preview := state.Snapshot()
	preview.RecordToolResult(*lastResult)
	if instructions, err = buildInstructions(d.knowledge, preview); err != nil {
		return err
	}

	followUp := append([]llms.PromptOption{
		llms.WithSystemPrompt(instructions),
		llms.WithHistory(history...),
		llms.WithHistory(turn.messages...),
		llms.WithTools(toolDefinitions...),
		llms.WithToolChoice(llms.ToolChoiceNone),
	}, d.promptOptions...)
	response, err = d.llm.Prompt(ctx, "", followUp...)
	if err != nil {
		return fmt.Errorf("failed to prompt llm with tool results: %w", err)
	}
	return turn.finish(response.Content)
}

func (t *pendingTurn) finish(reply string) error {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return ErrEmptyReply
	}
	t.reply = reply
	t.messages = append(t.messages, llms.NewAssistantMessage(reply))
	return nil
}

func (d *Dialogue) executeTool(ctx context.Context, callID string, call llms.ToolCall) conversations.ToolResult {
	var result tools.Result
	if d.tools == nil {
		result = tools.Result{Output: `{"error":"Unknown tool: ` + call.Name + `"}`, Err: tools.ErrUnknownTool}
	} else {
		result = d.tools.Execute(ctx, call.Name, call.Arguments)
	}

	if result.Failed() {
		d.emit(events.NewToolCallFailed(callID, call.ID, call.Name, result.Err.Error()))
	} else {
		d.emit(events.NewToolCallCompleted(callID, call.ID, call.Name, call.Arguments, result.Output))
	}

	return conversations.ToolResult{
		Name:      call.Name,
		Arguments: call.Arguments,
		Output:    result.Output,
		EndCall:   result.EndCall,
	}
}
