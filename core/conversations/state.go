// Package conversations tracks per-call dialogue progress.
//
// A State belongs to exactly one call and is mutated only by that call's
// sequential event loop; use Snapshot to hand a copy to anything else.
package conversations

import (
	"slices"
	"time"

	"github.com/koscakluka/ema-callbot/core/llms"
)

const DefaultHistoryLimit = 20

// NextActionCallEnded marks a conversation that should hang up.
const NextActionCallEnded = "call_ended"

type Phase string

const (
	PhaseGreeting Phase = "greeting"
	PhaseActive   Phase = "active"
	PhaseEnded    Phase = "ended"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

type Engagement string

const (
	EngagementHigh   Engagement = "high"
	EngagementMedium Engagement = "medium"
	EngagementLow    Engagement = "low"
)

// ToolResult is the outcome of the latest tool invocation.
type ToolResult struct {
	Name      string
	Arguments string
	Output    string
	EndCall   bool
}

type State struct {
	CallID    string
	SessionID string
	StartedAt time.Time
	Phase     Phase

	Sentiment  Sentiment
	Engagement Engagement

	Interests         TagSet
	Objections        TagSet
	ServicesDiscussed TagSet

	History        []llms.Message
	HistoryLimit   int
	LastToolResult *ToolResult
	NextAction     string
	UserTurns      int
}

func NewState(callID string, historyLimit int) *State {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &State{
		CallID:            callID,
		SessionID:         "SESSION-" + callID,
		StartedAt:         time.Now(),
		Phase:             PhaseGreeting,
		Sentiment:         SentimentNeutral,
		Engagement:        EngagementMedium,
		Interests:         TagSet{},
		Objections:        TagSet{},
		ServicesDiscussed: TagSet{},
		HistoryLimit:      historyLimit,
	}
}

// TurnAnalysis is what a single user utterance contributed to the state.
type TurnAnalysis struct {
	Sentiment  Sentiment
	Engagement Engagement
	Interests  []string
	Objections []string
}

// ApplyUserTurn analyses text and merges the result. Sentiment and
// engagement are replaced, tag sets are unioned.
func (s *State) ApplyUserTurn(text string) TurnAnalysis {
	sentiment := AnalyzeSentiment(text)
	analysis := TurnAnalysis{
		Sentiment:  sentiment,
		Engagement: DeriveEngagement(text, sentiment),
		Interests:  ExtractInterests(text),
		Objections: DetectObjections(text),
	}

	s.Sentiment = analysis.Sentiment
	s.Engagement = analysis.Engagement
	s.Interests.Add(analysis.Interests...)
	s.Objections.Add(analysis.Objections...)
	s.UserTurns++
	return analysis
}

// Append adds messages to the history and evicts the oldest entries beyond
// the limit.
func (s *State) Append(messages ...llms.Message) {
	s.History = llms.TrimHistory(append(s.History, messages...), s.HistoryLimit)
}

func (s *State) RecordToolResult(result ToolResult) {
	s.LastToolResult = &result
	if result.EndCall {
		s.NextAction = NextActionCallEnded
	}
}

// MarkGreeted moves a fresh conversation into the active phase.
func (s *State) MarkGreeted() {
	if s.Phase == PhaseGreeting {
		s.Phase = PhaseActive
	}
}

// End is idempotent.
func (s *State) End() {
	s.Phase = PhaseEnded
}

func (s *State) EndRequested() bool {
	return s.NextAction == NextActionCallEnded
}

// Snapshot returns a deep copy that shares nothing with s.
func (s *State) Snapshot() *State {
	snapshot := *s
	snapshot.Interests = s.Interests.Clone()
	snapshot.Objections = s.Objections.Clone()
	snapshot.ServicesDiscussed = s.ServicesDiscussed.Clone()

	snapshot.History = make([]llms.Message, len(s.History))
	for i, msg := range s.History {
		msg.ToolCalls = slices.Clone(msg.ToolCalls)
		snapshot.History[i] = msg
	}
	if s.LastToolResult != nil {
		result := *s.LastToolResult
		snapshot.LastToolResult = &result
	}
	return &snapshot
}
