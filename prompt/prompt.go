// Package prompt collects answers to a fixed sequence of questions in a
// small inline terminal UI built on [charm.land/bubbletea/v2].
//
// Questions are asked one at a time. Each may carry a default, used when the
// answer is left blank, a validator, and a condition that skips it based on
// earlier answers. Answered questions stay on screen, so the finished prompt
// reads as a transcript.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// ErrCanceled is returned when the user aborts the prompt.
var ErrCanceled = errors.New("prompt canceled")

// Question is one prompt in the sequence.
type Question struct {
	// Validate checks the answer after the default is applied. Nil accepts
	// anything.
	Validate func(string) error
	// When reports whether the question applies given the answers so far.
	// Nil always asks.
	When    func(Answers) bool
	Key     string
	Label   string
	Default string
}

var (
	labelStyle  = lipgloss.NewStyle().Bold(true)
	hintStyle   = lipgloss.NewStyle().Faint(true)
	answerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Model is the [tea.Model] driving the prompt.
//
// Create instances with [NewModel].
type Model struct {
	err       error
	answers   Answers
	questions []Question
	asked     []int
	input     []rune
	current   int
	canceled  bool
}

// NewModel creates a [Model] for questions.
func NewModel(questions []Question) *Model {
	m := &Model{
		questions: questions,
		answers:   make(Answers, len(questions)),
		current:   -1,
	}
	m.advance()

	return m
}

// Init implements [tea.Model].
func (m *Model) Init() tea.Cmd {
	if m.Done() {
		return tea.Quit
	}

	return nil
}

// Update implements [tea.Model].
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.Done() {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.canceled = true

			return m, tea.Quit

		case "enter":
			return m, m.submit()

		case "backspace":
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}

			return m, nil
		}

		m.input = append(m.input, []rune(msg.Text)...)

	case tea.PasteMsg:
		m.input = append(m.input, []rune(strings.TrimRight(msg.Content, "\r\n"))...)
	}

	return m, nil
}

// View implements [tea.Model].
func (m *Model) View() tea.View {
	return tea.NewView(m.Transcript())
}

// Transcript renders the answered questions followed by the current one.
func (m *Model) Transcript() string {
	var b strings.Builder

	for _, i := range m.asked {
		q := m.questions[i]
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(q.Label), answerStyle.Render(m.answers[q.Key]))
	}

	if !m.Done() {
		q := m.questions[m.current]

		b.WriteString(labelStyle.Render(q.Label))

		if q.Default != "" {
			b.WriteString(" " + hintStyle.Render("["+q.Default+"]"))
		}

		b.WriteString(" " + string(m.input) + "█\n")

		if m.err != nil {
			b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
		}
	}

	return b.String()
}

// Done reports whether every applicable question was answered or the
// prompt was canceled.
func (m *Model) Done() bool {
	return m.canceled || m.current >= len(m.questions)
}

// Result returns the collected answers, or [ErrCanceled].
func (m *Model) Result() (Answers, error) {
	if m.canceled {
		return nil, ErrCanceled
	}

	if !m.Done() {
		return nil, fmt.Errorf("%w: prompt not finished", ErrCanceled)
	}

	return m.answers, nil
}

func (m *Model) submit() tea.Cmd {
	q := m.questions[m.current]

	value := strings.TrimSpace(string(m.input))
	if value == "" {
		value = q.Default
	}

	if q.Validate != nil {
		err := q.Validate(value)
		if err != nil {
			m.err = err

			return nil
		}
	}

	m.answers[q.Key] = value
	m.asked = append(m.asked, m.current)
	m.input = m.input[:0]
	m.err = nil

	m.advance()

	if m.Done() {
		return tea.Quit
	}

	return nil
}

// advance moves to the next question that applies.
func (m *Model) advance() {
	for m.current++; m.current < len(m.questions); m.current++ {
		q := m.questions[m.current]
		if q.When == nil || q.When(m.answers) {
			return
		}
	}
}

// Run asks questions on in and out and returns the answers.
func Run(ctx context.Context, in io.Reader, out io.Writer, questions []Question) (Answers, error) {
	m := NewModel(questions)
	if m.Done() {
		return m.Result()
	}

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("running prompt: %w", err)
	}

	fm, ok := final.(*Model)
	if !ok {
		return nil, fmt.Errorf("running prompt: unexpected model %T", final)
	}

	return fm.Result()
}
