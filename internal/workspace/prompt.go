package workspace

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	promptTitleStyle = lipgloss.NewStyle().Bold(true)
	promptHintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272a4"))
	promptErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5555"))
)

// TerminalPrompter asks the operator for a workspace on an interactive
// terminal. Non-TTY environments fail fast instead of hanging on input that
// will never arrive.
type TerminalPrompter struct {
	// In defaults to os.Stdin.
	In *os.File
	// Out defaults to os.Stdout.
	Out *os.File
}

// AskWorkspace runs a one-field prompt and returns the raw operator input.
// The caller normalizes; the prompt only rejects input that normalizes to
// empty so the operator gets immediate feedback.
func (p *TerminalPrompter) AskWorkspace(ctx context.Context) (string, error) {
	in := p.In
	if in == nil {
		in = os.Stdin
	}
	out := p.Out
	if out == nil {
		out = os.Stdout
	}

	if !term.IsTerminal(int(in.Fd())) {
		return "", fmt.Errorf("stdin is not a terminal; pass --workspace or set it in config")
	}

	model := newPromptModel()
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	final, err := program.Run()
	if err != nil {
		return "", err
	}

	m, ok := final.(promptModel)
	if !ok || m.canceled {
		return "", fmt.Errorf("workspace prompt canceled")
	}
	return m.value, nil
}

type promptModel struct {
	input    textinput.Model
	errText  string
	value    string
	canceled bool
}

func newPromptModel() promptModel {
	input := textinput.New()
	input.Placeholder = "acme or acme" + DomainSuffix
	input.CharLimit = 120
	input.Width = 42
	input.Focus()

	return promptModel{input: input}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.canceled = true
			return m, tea.Quit
		case tea.KeyEnter:
			raw := m.input.Value()
			if Normalize(raw) == "" {
				m.errText = "enter a workspace like acme or acme" + DomainSuffix
				return m, nil
			}
			m.value = raw
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	view := promptTitleStyle.Render("Helpdesk workspace") + "\n" +
		m.input.View() + "\n" +
		promptHintStyle.Render("enter to confirm, esc to cancel")
	if m.errText != "" {
		view += "\n" + promptErrStyle.Render(m.errText)
	}
	return view + "\n"
}
