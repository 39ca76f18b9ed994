package components

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SpinnerDoneMsg ends the spinner with either a result line or an error.
type SpinnerDoneMsg struct {
	Success bool
	Result  string
	Err     error
}

// SpinnerDone builds the success completion message.
func SpinnerDone(result string) SpinnerDoneMsg {
	return SpinnerDoneMsg{Success: true, Result: result}
}

// SpinnerFailed builds the failure completion message.
func SpinnerFailed(err error) SpinnerDoneMsg {
	return SpinnerDoneMsg{Success: false, Err: err}
}

// Spinner shows progress while a checkout or import runs, then replaces
// itself with a one-line result.
type Spinner struct {
	spinner spinner.Model
	message string
	done    bool
	success bool
	result  string
	err     error
	styles  spinnerStyles
}

type spinnerStyles struct {
	Message lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
}

func defaultSpinnerStyles() spinnerStyles {
	return spinnerStyles{
		Message: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// NewSpinner creates a spinner with the given progress message.
func NewSpinner(message string) Spinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	return Spinner{
		spinner: s,
		message: message,
		styles:  defaultSpinnerStyles(),
	}
}

// Init implements tea.Model.
func (s Spinner) Init() tea.Cmd {
	return s.spinner.Tick
}

// Update implements tea.Model.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	switch msg := msg.(type) {
	case SpinnerDoneMsg:
		s.done = true
		s.success = msg.Success
		s.result = msg.Result
		s.err = msg.Err
		return s, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	}
	return s, nil
}

// View implements tea.Model.
func (s Spinner) View() string {
	switch {
	case !s.done:
		return s.spinner.View() + " " + s.styles.Message.Render(s.message)
	case s.success:
		return s.styles.Success.Render("✓ " + s.result)
	default:
		return s.styles.Error.Render("✗ " + s.err.Error())
	}
}

// SetMessage updates the progress message.
func (s *Spinner) SetMessage(msg string) {
	s.message = msg
}

// IsDone reports whether a completion message was received.
func (s Spinner) IsDone() bool {
	return s.done
}

// IsSuccess reports whether the operation finished without error.
func (s Spinner) IsSuccess() bool {
	return s.success
}

// Error returns the failure cause, or nil.
func (s Spinner) Error() error {
	return s.err
}
