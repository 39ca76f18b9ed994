package components

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrFieldRequired is returned by Validate when a required field is blank.
var ErrFieldRequired = errors.New("this field is required")

// TextField is a single labeled input line, the building block the
// connection and path prompts are assembled from. Builder methods return
// a modified copy so fields can be declared inline.
type TextField struct {
	label     string
	input     textinput.Model
	focused   bool
	width     int
	required  bool
	validator func(string) error
	err       error
	styles    textFieldStyles
}

type textFieldStyles struct {
	Label        lipgloss.Style
	Input        lipgloss.Style
	FocusedInput lipgloss.Style
	Problem      lipgloss.Style
}

func defaultTextFieldStyles() textFieldStyles {
	return textFieldStyles{
		Label:        lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Input:        lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		FocusedInput: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		Problem:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// NewTextField creates a field with a label and placeholder text.
func NewTextField(label, placeholder string) TextField {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 256
	in.Width = 40

	return TextField{
		label:  label,
		input:  in,
		width:  50,
		styles: defaultTextFieldStyles(),
	}
}

// WithWidth sets the rendered width.
func (t TextField) WithWidth(width int) TextField {
	t.width = width
	t.input.Width = width - 4
	return t
}

// WithRequired makes Validate reject a blank value.
func (t TextField) WithRequired(required bool) TextField {
	t.required = required
	return t
}

// WithValidator attaches a validation function, re-run on every edit.
func (t TextField) WithValidator(fn func(string) error) TextField {
	t.validator = fn
	return t
}

// WithValue seeds the field with an initial value.
func (t TextField) WithValue(value string) TextField {
	t.input.SetValue(value)
	return t
}

// WithPassword masks the typed characters.
func (t TextField) WithPassword() TextField {
	t.input.EchoMode = textinput.EchoPassword
	t.input.EchoCharacter = '•'
	return t
}

// Focus gives the field keyboard focus.
func (t *TextField) Focus() tea.Cmd {
	t.focused = true
	return t.input.Focus()
}

// Blur removes keyboard focus.
func (t *TextField) Blur() {
	t.focused = false
	t.input.Blur()
}

// IsFocused reports whether the field has keyboard focus.
func (t TextField) IsFocused() bool {
	return t.focused
}

// Init implements tea.Model.
func (t TextField) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (t TextField) Update(msg tea.Msg) (TextField, tea.Cmd) {
	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)

	if t.validator != nil {
		t.err = t.validator(t.input.Value())
	}

	return t, cmd
}

// View implements tea.Model.
func (t TextField) View() string {
	var b strings.Builder

	label := t.label
	if t.required {
		label += t.styles.Problem.Render(" *")
	}
	b.WriteString(t.styles.Label.Render(label))
	b.WriteString("\n")

	style := t.styles.Input
	if t.focused {
		style = t.styles.FocusedInput
	}
	b.WriteString(style.Render(t.input.View()))

	if t.err != nil {
		b.WriteString("\n")
		b.WriteString(t.styles.Problem.Render(t.err.Error()))
	}

	return b.String()
}

// Value returns the current text.
func (t TextField) Value() string {
	return t.input.Value()
}

// SetValue replaces the current text.
func (t *TextField) SetValue(v string) {
	t.input.SetValue(v)
}

// Error returns the validation error from the last edit or Validate call.
func (t TextField) Error() error {
	return t.err
}

// Validate checks the required constraint, then the validator if set.
func (t *TextField) Validate() error {
	if t.required && strings.TrimSpace(t.input.Value()) == "" {
		t.err = ErrFieldRequired
		return t.err
	}
	if t.validator != nil {
		t.err = t.validator(t.input.Value())
		return t.err
	}
	t.err = nil
	return nil
}
