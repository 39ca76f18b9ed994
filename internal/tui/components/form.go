package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Form stacks text fields and walks focus through them. Enter on the last
// field marks the form submitted once every field validates; esc marks it
// cancelled. The form is embedded in a parent model: the parent feeds it
// messages and watches Submitted and Cancelled after each update, so the
// form never quits the program itself.
type Form struct {
	title     string
	fields    []TextField
	focusIdx  int
	width     int
	submitted bool
	cancelled bool
	keyMap    formKeyMap
	styles    formStyles
}

type formKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Cancel key.Binding
}

func defaultFormKeyMap() formKeyMap {
	return formKeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab/↓", "next"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab/↑", "prev"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

type formStyles struct {
	Title lipgloss.Style
	Help  lipgloss.Style
}

func defaultFormStyles() formStyles {
	return formStyles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginBottom(1),
		Help:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1),
	}
}

// NewForm creates a form over the given fields.
func NewForm(title string, fields ...TextField) Form {
	return Form{
		title:  title,
		fields: fields,
		width:  60,
		keyMap: defaultFormKeyMap(),
		styles: defaultFormStyles(),
	}
}

// WithWidth sets the rendered width.
func (f Form) WithWidth(width int) Form {
	f.width = width
	return f
}

// Focus gives the first field keyboard focus.
func (f Form) Focus() tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	return f.fields[0].Focus()
}

// Update feeds one message to the form and returns the next state.
func (f Form) Update(msg tea.Msg) (Form, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, f.keyMap.Next):
			return f.nextField()
		case key.Matches(msg, f.keyMap.Prev):
			return f.prevField()
		case key.Matches(msg, f.keyMap.Submit):
			// Enter advances until the last field, then submits.
			if f.focusIdx != len(f.fields)-1 {
				return f.nextField()
			}
			if f.validate() {
				f.submitted = true
			}
			return f, nil
		case key.Matches(msg, f.keyMap.Cancel):
			f.cancelled = true
			return f, nil
		}
	case tea.WindowSizeMsg:
		f.width = msg.Width
	}

	var cmd tea.Cmd
	if f.focusIdx < len(f.fields) {
		f.fields[f.focusIdx], cmd = f.fields[f.focusIdx].Update(msg)
	}
	return f, cmd
}

func (f Form) nextField() (Form, tea.Cmd) {
	// A field that fails validation holds focus.
	if f.focusIdx < len(f.fields) {
		if err := f.fields[f.focusIdx].Validate(); err != nil {
			return f, nil
		}
	}

	if f.focusIdx < len(f.fields)-1 {
		f.fields[f.focusIdx].Blur()
		f.focusIdx++
		return f, f.fields[f.focusIdx].Focus()
	}
	return f, nil
}

func (f Form) prevField() (Form, tea.Cmd) {
	if f.focusIdx > 0 {
		f.fields[f.focusIdx].Blur()
		f.focusIdx--
		return f, f.fields[f.focusIdx].Focus()
	}
	return f, nil
}

func (f *Form) validate() bool {
	valid := true
	for i := range f.fields {
		if err := f.fields[i].Validate(); err != nil {
			valid = false
		}
	}
	return valid
}

// View renders the title, the stacked fields and a help line.
func (f Form) View() string {
	var b strings.Builder

	b.WriteString(f.styles.Title.Render(f.title))
	b.WriteString("\n\n")

	for i, field := range f.fields {
		b.WriteString(field.View())
		if i < len(f.fields)-1 {
			b.WriteString("\n\n")
		}
	}

	b.WriteString(f.styles.Help.Render("\ntab next • shift+tab prev • enter submit • esc cancel"))

	return b.String()
}

// Submitted reports whether the form completed with valid values.
func (f Form) Submitted() bool {
	return f.submitted
}

// Cancelled reports whether the user backed out.
func (f Form) Cancelled() bool {
	return f.cancelled
}

// Values maps field labels to their entered values.
func (f Form) Values() map[string]string {
	result := make(map[string]string, len(f.fields))
	for _, field := range f.fields {
		result[field.label] = field.Value()
	}
	return result
}

// Field returns the field at idx, or nil when out of range.
func (f Form) Field(idx int) *TextField {
	if idx < 0 || idx >= len(f.fields) {
		return nil
	}
	return &f.fields[idx]
}

// FieldValue returns the value of the field at idx, or "".
func (f Form) FieldValue(idx int) string {
	if field := f.Field(idx); field != nil {
		return field.Value()
	}
	return ""
}
