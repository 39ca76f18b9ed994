package wizards

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vvka-141/tilevault/internal/tui/components"
)

// TemplateInfo holds template metadata for display.
type TemplateInfo struct {
	Name        string
	Description string
}

// DefaultTemplates returns the built-in repository templates.
func DefaultTemplates() []TemplateInfo {
	return []TemplateInfo{
		{Name: "gpkg", Description: "GeoPackage working copy — a single file, no server required"},
		{Name: "postgres", Description: "PostgreSQL working copy with optional cloud IAM authentication"},
	}
}

// InitResult holds the result of the init wizard. The connection fields
// are set only for the postgres template.
type InitResult struct {
	Cancelled bool
	Template  string
	GpkgPath  string
	Host      string
	Port      string
	Username  string
	Database  string
}

// InitWizard guides users through repository initialization.
type InitWizard struct {
	step     initStep
	repoName string

	// Template selection
	templates   []TemplateInfo
	templateIdx int

	// GeoPackage path input (gpkg template only)
	pathField components.TextField
	completer *components.PathCompleter

	// Connection form (postgres template only)
	connForm components.Form

	// Result
	result InitResult

	// Dimensions
	width  int
	height int

	// Styles and keys
	styles wizardStyles
	keys   wizardKeys
}

type initStep int

const (
	initStepTemplate initStep = iota
	initStepGpkgPath
	initStepConnection
	initStepComplete
)

// NewInitWizard creates a new init wizard. The repository name seeds the
// default GeoPackage path.
func NewInitWizard(repoName string, templates []TemplateInfo) InitWizard {
	defaultPath := "./" + repoName + ".gpkg"
	field := components.NewTextField("GeoPackage file", defaultPath).
		WithValue(defaultPath).
		WithRequired(true)

	return InitWizard{
		step:      initStepTemplate,
		repoName:  repoName,
		templates: templates,
		pathField: field,
		completer: components.NewPathCompleter(false),
		connForm:  newConnectionForm(repoName),
		width:     80,
		height:    24,
		styles:    defaultWizardStyles(),
		keys:      defaultWizardKeys(),
	}
}

// newConnectionForm builds the postgres connection form, seeded with the
// same defaults the template config ships with.
func newConnectionForm(repoName string) components.Form {
	return components.NewForm("PostgreSQL connection",
		components.NewTextField("Host", "localhost").
			WithValue("localhost").WithRequired(true),
		components.NewTextField("Port", "5432").
			WithValue("5432").WithRequired(true).WithValidator(validatePort),
		components.NewTextField("Username", "postgres").
			WithValue("postgres").WithRequired(true),
		components.NewTextField("Database", repoName+"_wc").
			WithValue(repoName+"_wc").WithRequired(true),
	)
}

func validatePort(v string) error {
	if _, err := strconv.Atoi(strings.TrimSpace(v)); err != nil {
		return errors.New("port must be a number")
	}
	return nil
}

// Init implements tea.Model.
func (w InitWizard) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (w InitWizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		w.height = msg.Height
		return w, nil

	case tea.KeyMsg:
		// "q" quits only outside the typing steps.
		typing := w.step == initStepGpkgPath || w.step == initStepConnection
		if !typing && key.Matches(msg, w.keys.Quit) {
			w.result.Cancelled = true
			return w, tea.Quit
		}

		switch w.step {
		case initStepTemplate:
			return w.updateTemplate(msg)
		case initStepGpkgPath:
			return w.updateGpkgPath(msg)
		case initStepConnection:
			return w.updateConnection(msg)
		case initStepComplete:
			return w.updateComplete(msg)
		}
	}

	return w, nil
}

func (w InitWizard) updateTemplate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, w.keys.Up):
		if w.templateIdx > 0 {
			w.templateIdx--
		}
	case key.Matches(msg, w.keys.Down):
		if w.templateIdx < len(w.templates)-1 {
			w.templateIdx++
		}
	case key.Matches(msg, w.keys.Select):
		w.result.Template = w.templates[w.templateIdx].Name
		switch w.result.Template {
		case "gpkg":
			w.step = initStepGpkgPath
			return w, w.pathField.Focus()
		case "postgres":
			w.step = initStepConnection
			return w, w.connForm.Focus()
		}
		w.step = initStepComplete
	case key.Matches(msg, w.keys.Back):
		w.result.Cancelled = true
		return w, tea.Quit
	}
	return w, nil
}

func (w InitWizard) updateGpkgPath(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, w.keys.Quit) && msg.String() == "ctrl+c":
		w.result.Cancelled = true
		return w, tea.Quit

	case key.Matches(msg, w.keys.Tab):
		// Cycle through filesystem completions for the typed prefix.
		w.pathField.SetValue(w.completer.Next(w.pathField.Value()))
		return w, nil

	case key.Matches(msg, w.keys.Select):
		if err := w.pathField.Validate(); err != nil {
			return w, nil
		}
		w.result.GpkgPath = w.pathField.Value()
		w.step = initStepComplete
		return w, nil

	case key.Matches(msg, w.keys.Back):
		w.step = initStepTemplate
		return w, nil
	}

	w.completer.Reset()
	var cmd tea.Cmd
	w.pathField, cmd = w.pathField.Update(msg)
	return w, cmd
}

func (w InitWizard) updateConnection(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		w.result.Cancelled = true
		return w, tea.Quit
	}

	var cmd tea.Cmd
	w.connForm, cmd = w.connForm.Update(msg)

	switch {
	case w.connForm.Cancelled():
		w.connForm = newConnectionForm(w.repoName)
		w.step = initStepTemplate
		return w, nil
	case w.connForm.Submitted():
		w.result.Host = w.connForm.FieldValue(0)
		w.result.Port = w.connForm.FieldValue(1)
		w.result.Username = w.connForm.FieldValue(2)
		w.result.Database = w.connForm.FieldValue(3)
		w.step = initStepComplete
	}
	return w, cmd
}

func (w InitWizard) updateComplete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, w.keys.Select):
		return w, tea.Quit
	case key.Matches(msg, w.keys.Back):
		switch w.result.Template {
		case "gpkg":
			w.step = initStepGpkgPath
			w.result.GpkgPath = ""
		case "postgres":
			w.connForm = newConnectionForm(w.repoName)
			w.step = initStepConnection
			return w, w.connForm.Focus()
		default:
			w.step = initStepTemplate
		}
	}
	return w, nil
}

// View implements tea.Model.
func (w InitWizard) View() string {
	var b strings.Builder

	b.WriteString(w.styles.Title.Render("tilevault init - Repository Setup"))
	b.WriteString("\n")

	switch w.step {
	case initStepTemplate:
		b.WriteString(w.viewTemplate())
	case initStepGpkgPath:
		b.WriteString(w.viewGpkgPath())
	case initStepConnection:
		b.WriteString(w.connForm.View())
	case initStepComplete:
		b.WriteString(w.viewComplete())
	}

	return b.String()
}

func (w InitWizard) viewTemplate() string {
	var b strings.Builder

	b.WriteString(w.styles.Subtitle.Render("Select a working-copy template"))
	b.WriteString("\n\n")

	for i, t := range w.templates {
		cursor := "  "
		style := w.styles.Unselected
		symbol := "○"

		if i == w.templateIdx {
			cursor = ""
			style = w.styles.Selected
			symbol = "●"
		}

		b.WriteString(cursor)
		b.WriteString(style.Render(symbol + " " + t.Name))
		b.WriteString("\n")
		b.WriteString(w.styles.Description.Render(t.Description))
		b.WriteString("\n")
	}

	b.WriteString(w.styles.Help.Render("\n↑/↓ navigate • enter select • q quit"))

	return b.String()
}

func (w InitWizard) viewGpkgPath() string {
	var b strings.Builder

	b.WriteString(w.styles.Subtitle.Render("Where should the GeoPackage live?"))
	b.WriteString("\n\n")
	b.WriteString(w.pathField.View())
	b.WriteString(w.styles.Help.Render("\ntab complete path • enter continue • esc back"))

	return b.String()
}

func (w InitWizard) viewComplete() string {
	var b strings.Builder

	b.WriteString(w.styles.Success.Render("✓ Ready to create repository"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Template: %s\n", w.result.Template))
	if w.result.GpkgPath != "" {
		b.WriteString(fmt.Sprintf("GeoPackage: %s\n", w.result.GpkgPath))
	}
	if w.result.Host != "" {
		b.WriteString(fmt.Sprintf("Connection: %s@%s:%s/%s\n",
			w.result.Username, w.result.Host, w.result.Port, w.result.Database))
	}

	b.WriteString(w.styles.Help.Render("\nenter create repository • esc back"))

	return b.String()
}

// Result returns the wizard result.
func (w InitWizard) Result() InitResult {
	return w.result
}

// RunInitWizard executes the init wizard.
func RunInitWizard(repoName string) (InitResult, error) {
	templates := DefaultTemplates()

	wizard := NewInitWizard(repoName, templates)
	p := tea.NewProgram(wizard, tea.WithAltScreen())

	model, err := p.Run()
	if err != nil {
		return InitResult{Cancelled: true}, err
	}

	return model.(InitWizard).Result(), nil
}
