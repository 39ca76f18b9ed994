package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vvka-141/tilevault/internal/tui/components"
)

func PromptContinue(message string) bool {
	if !IsInteractive() {
		return true
	}

	fmt.Printf("%s [Y/n]: ", message)

	var response string
	fmt.Scanln(&response)

	return response == "" || response == "y" || response == "Y"
}

type ProgressDisplay struct {
	program *tea.Program
}

func NewProgressDisplay() *ProgressDisplay {
	return &ProgressDisplay{}
}

func (p *ProgressDisplay) Start(message string) {
	if !IsInteractive() {
		fmt.Println(message)
		return
	}
	fmt.Printf("◐ %s\n", message)
}

func (p *ProgressDisplay) Success(message string) {
	fmt.Printf("✓ %s\n", message)
}

func (p *ProgressDisplay) Error(message string) {
	fmt.Printf("✗ %s\n", message)
}

// spinnerRunModel drives a spinner while fn runs in the background.
type spinnerRunModel struct {
	spin    components.Spinner
	run     func() error
	doneMsg string
	err     error
}

func (m spinnerRunModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Init(), func() tea.Msg {
		if err := m.run(); err != nil {
			return components.SpinnerFailed(err)
		}
		return components.SpinnerDone(m.doneMsg)
	})
}

func (m spinnerRunModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if done, ok := msg.(components.SpinnerDoneMsg); ok {
		m.err = done.Err
		m.spin, _ = m.spin.Update(msg)
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)
	return m, cmd
}

func (m spinnerRunModel) View() string {
	return m.spin.View() + "\n"
}

// RunWithSpinner runs fn while showing a spinner with the given message.
// In non-interactive mode it falls back to plain progress lines. The
// function's error is returned either way.
func RunWithSpinner(message, doneMsg string, fn func() error) error {
	if !IsInteractive() {
		display := NewProgressDisplay()
		display.Start(message)
		if err := fn(); err != nil {
			display.Error(err.Error())
			return err
		}
		display.Success(doneMsg)
		return nil
	}

	model := spinnerRunModel{
		spin:    components.NewSpinner(message),
		run:     fn,
		doneMsg: doneMsg,
	}

	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return fmt.Errorf("progress display failed: %w", err)
	}
	return final.(spinnerRunModel).err
}
