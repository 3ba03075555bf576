// Package chat is a terminal harness for talking to the dialogue without a
// phone line: typed text stands in for transcribed speech.
package chat

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	orchestration "github.com/koscakluka/ema-callbot/core"
	"github.com/koscakluka/ema-callbot/core/conversations"
	"github.com/muesli/reflow/wordwrap"
)

const defaultWidth = 80

// Dialogue is the part of the orchestrator the chat drives.
type Dialogue interface {
	Greet(ctx context.Context, state *conversations.State) ([]byte, string)
	HandleUserTurn(ctx context.Context, state *conversations.State, text string) orchestration.TurnResult
}

type speaker int

const (
	speakerAgent speaker = iota
	speakerUser
)

type line struct {
	speaker  speaker
	text     string
	fallback bool
}

// summary is copied out of the state after each turn so View never reads
// state while a turn is running.
type summary struct {
	phase      conversations.Phase
	sentiment  conversations.Sentiment
	engagement conversations.Engagement
	interests  []string
	objections []string
	turns      int
}

func summarize(state *conversations.State) summary {
	return summary{
		phase:      state.Phase,
		sentiment:  state.Sentiment,
		engagement: state.Engagement,
		interests:  state.Interests.Sorted(),
		objections: state.Objections.Sorted(),
		turns:      state.UserTurns,
	}
}

type turnDoneMsg struct {
	result  orchestration.TurnResult
	summary summary
}

type model struct {
	ctx      context.Context
	dialogue Dialogue
	state    *conversations.State

	input   textinput.Model
	spinner spinner.Model
	styles  styles
	width   int

	lines   []line
	summary summary
	waiting bool
	ended   bool
}

func newModel(ctx context.Context, dialogue Dialogue, state *conversations.State) model {
	input := textinput.New()
	input.Placeholder = "Say something to the agent..."
	input.Prompt = "> "
	input.CharLimit = 500
	input.Focus()

	m := model{
		ctx:      ctx,
		dialogue: dialogue,
		state:    state,
		input:    input,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69")))),
		styles:   newStyles(),
		width:    defaultWidth,
	}

	if _, greeting := dialogue.Greet(ctx, state); greeting != "" {
		state.MarkGreeted()
		m.lines = append(m.lines, line{speaker: speakerAgent, text: greeting})
	}
	m.summary = summarize(state)
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case turnDoneMsg:
		m.waiting = false
		m.summary = msg.summary
		if msg.result.Reply != "" {
			m.lines = append(m.lines, line{speaker: speakerAgent, text: msg.result.Reply, fallback: msg.result.Failed})
		}
		if msg.result.EndCall {
			m.ended = true
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.waiting || m.ended {
		return m, nil
	}

	m.input.Reset()
	m.lines = append(m.lines, line{speaker: speakerUser, text: text})
	m.waiting = true

	ctx, dialogue, state := m.ctx, m.dialogue, m.state
	runTurn := func() tea.Msg {
		result := dialogue.HandleUserTurn(ctx, state, text)
		if result.EndCall {
			state.End()
		}
		return turnDoneMsg{result: result, summary: summarize(state)}
	}
	return m, tea.Batch(runTurn, m.spinner.Tick)
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("CoffeeBeans sales agent (text mode)"))
	b.WriteString("\n\n")

	wrap := max(m.width-10, 20)
	for _, l := range m.lines {
		label, style := m.styles.agent.Render("Agent:"), m.styles.text
		if l.speaker == speakerUser {
			label = m.styles.user.Render("You:  ")
		}
		if l.fallback {
			style = m.styles.fallback
		}
		text := wordwrap.String(l.text, wrap)
		b.WriteString(label + " " + style.Render(strings.ReplaceAll(text, "\n", "\n       ")) + "\n")
	}

	b.WriteString(m.styles.status.Render(m.statusLine()))
	b.WriteString("\n")

	switch {
	case m.ended:
		b.WriteString(m.styles.ended.Render("Conversation ended."))
		b.WriteString("\n")
	case m.waiting:
		b.WriteString(m.spinner.View() + " thinking...\n")
	default:
		b.WriteString(m.input.View() + "\n")
	}
	return b.String()
}

func (m model) statusLine() string {
	parts := []string{
		"phase: " + string(m.summary.phase),
		"sentiment: " + string(m.summary.sentiment),
		"engagement: " + string(m.summary.engagement),
		fmt.Sprintf("turns: %d", m.summary.turns),
	}
	if len(m.summary.interests) > 0 {
		parts = append(parts, "interests: "+strings.Join(m.summary.interests, ","))
	}
	if len(m.summary.objections) > 0 {
		parts = append(parts, "objections: "+strings.Join(m.summary.objections, ","))
	}
	return strings.Join(parts, " | ")
}

// Run starts an interactive chat against dialogue until the user quits or
// the conversation ends.
func Run(ctx context.Context, dialogue Dialogue, callID string, historyLimit int, input io.Reader, output io.Writer) error {
	state := conversations.NewState(callID, historyLimit)
	p := tea.NewProgram(
		newModel(ctx, dialogue, state),
		tea.WithInput(input),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run chat: %w", err)
	}
	return nil
}
