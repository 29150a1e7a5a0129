// Package reportview drives template-based report generation: picking a
// template, filling its parameters through a generated form, viewing the
// result, and exporting or saving the run.
package reportview

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nicway1/truelog-cli/internal/api"
	"github.com/nicway1/truelog-cli/internal/keys"
	"github.com/nicway1/truelog-cli/internal/model"
	"github.com/nicway1/truelog-cli/internal/report"
	"github.com/nicway1/truelog-cli/internal/theme"
)

// mode is the view's internal step.
type mode int

const (
	modeTemplates mode = iota
	modeForm
	modeResult
	modeSaved
)

// TemplatesLoadedMsg carries the available report templates.
type TemplatesLoadedMsg struct {
	Templates []model.ReportTemplate
}

// GeneratedMsg carries a finished report run.
type GeneratedMsg struct {
	Result *model.ReportResult
}

// ExportedMsg reports where an export was written.
type ExportedMsg struct {
	Path string
}

// ErrorMsg carries a user-presentable failure.
type ErrorMsg struct {
	Text string
}

// Generator is the backend surface the view needs. *api.Client satisfies it.
type Generator interface {
	ReportTemplates(ctx context.Context) ([]model.ReportTemplate, error)
	GenerateReport(ctx context.Context, templateID string, parameters map[string]any) (*model.ReportResult, error)
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	text  map[string]*string
	multi map[string]*[]string
}

// Model is the report generation view.
type Model struct {
	gen       Generator
	saved     *report.SavedStore
	keys      *keys.KeyMap
	exportDir string

	mode      mode
	templates []model.ReportTemplate
	cursor    int

	selected   *model.ReportTemplate
	form       *huh.Form
	fb         *formBindings
	parameters map[string]any

	result     *model.ReportResult
	statusText string
	errorText  string
	generating bool

	width  int
	height int
}

// New creates the report view. Exports are written to exportDir.
func New(gen Generator, saved *report.SavedStore, k *keys.KeyMap, exportDir string, width, height int) Model {
	return Model{
		gen:       gen,
		saved:     saved,
		keys:      k,
		exportDir: exportDir,
		width:     width,
		height:    height,
	}
}

// Init loads the template list.
func (m Model) Init() tea.Cmd {
	gen := m.gen
	return func() tea.Msg {
		templates, err := gen.ReportTemplates(context.Background())
		if err != nil {
			return ErrorMsg{Text: api.Message(err, "could not load report templates")}
		}
		return TemplatesLoadedMsg{Templates: templates}
	}
}

// Update handles messages for the report view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TemplatesLoadedMsg:
		m.templates = msg.Templates
		if m.cursor >= len(m.templates) {
			m.cursor = 0
		}
		return m, nil

	case GeneratedMsg:
		m.generating = false
		m.result = msg.Result
		m.mode = modeResult
		if m.selected != nil {
			for _, s := range m.saved.List() {
				if s.TemplateID == m.selected.ID {
					m.saved.TouchLastRun(s.ID, time.Now())
					break
				}
			}
		}
		return m, nil

	case ExportedMsg:
		m.statusText = "exported to " + msg.Path
		return m, nil

	case ErrorMsg:
		m.generating = false
		m.errorText = msg.Text
		return m, nil

	case tea.KeyMsg:
		m.statusText = ""
		m.errorText = ""
		switch m.mode {
		case modeTemplates:
			return m.handleTemplateKeys(msg)
		case modeForm:
			return m.updateForm(msg)
		case modeResult:
			return m.handleResultKeys(msg)
		case modeSaved:
			return m.handleSavedKeys(msg)
		}
	}

	if m.mode == modeForm {
		return m.updateForm(msg)
	}
	return m, nil
}

// handleTemplateKeys processes the template picker.
func (m Model) handleTemplateKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.templates)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Select):
		if len(m.templates) == 0 {
			return m, nil
		}
		tpl := m.templates[m.cursor]
		return m.startForm(tpl, nil)
	case msg.String() == "S":
		m.mode = modeSaved
		m.cursor = 0
	case key.Matches(msg, m.keys.Refresh):
		return m, m.Init()
	}
	return m, nil
}

// startForm opens the parameter form for tpl, seeding values from the
// computed defaults overlaid with any saved run.
func (m Model) startForm(tpl model.ReportTemplate, savedParams map[string]any) (Model, tea.Cmd) {
	values := report.DefaultParameters(tpl, time.Now())
	if savedParams != nil {
		values = report.MergeSaved(values, savedParams)
	}

	m.selected = &tpl
	m.parameters = values
	m.fb = &formBindings{
		text:  make(map[string]*string),
		multi: make(map[string]*[]string),
	}

	fields := make([]huh.Field, 0, len(tpl.Parameters))
	for _, p := range tpl.Parameters {
		fields = append(fields, m.buildField(p, values[p.Key]))
	}
	if len(fields) == 0 {
		// Parameterless template: generate straight away.
		return m, m.generate()
	}

	m.form = huh.NewForm(huh.NewGroup(fields...)).
		WithWidth(m.formWidth()).
		WithHeight(m.height - 4)
	m.mode = modeForm
	return m, m.form.Init()
}

// buildField maps one template parameter to a huh field.
func (m *Model) buildField(p model.TemplateParameter, initial any) huh.Field {
	label := p.Label
	if label == "" {
		label = p.Key
	}

	switch p.Type {
	case model.ParamSelect:
		v := new(string)
		if s, ok := initial.(string); ok {
			*v = s
		}
		m.fb.text[p.Key] = v
		opts := make([]huh.Option[string], 0, len(p.Options)+1)
		if !p.Required {
			opts = append(opts, huh.NewOption("(any)", ""))
		}
		for _, o := range p.Options {
			opts = append(opts, huh.NewOption(o.Label, o.Value))
		}
		return huh.NewSelect[string]().Title(label).Options(opts...).Value(v)

	case model.ParamMultiSelect:
		v := new([]string)
		if list, ok := initial.([]string); ok {
			*v = list
		}
		m.fb.multi[p.Key] = v
		opts := make([]huh.Option[string], len(p.Options))
		for i, o := range p.Options {
			opts[i] = huh.NewOption(o.Label, o.Value)
		}
		return huh.NewMultiSelect[string]().Title(label).Options(opts...).Value(v)

	case model.ParamDate:
		v := new(string)
		if s, ok := initial.(string); ok {
			*v = s
		}
		m.fb.text[p.Key] = v
		return huh.NewInput().
			Title(label).
			Placeholder("YYYY-MM-DD").
			Value(v).
			Validate(validateDate(p.Required))

	case model.ParamNumber:
		v := new(string)
		if initial != nil {
			*v = fmt.Sprintf("%v", initial)
		}
		m.fb.text[p.Key] = v
		return huh.NewInput().Title(label).Value(v)

	default: // text
		v := new(string)
		if s, ok := initial.(string); ok {
			*v = s
		}
		m.fb.text[p.Key] = v
		return huh.NewInput().Title(label).Value(v)
	}
}

// updateForm advances the huh form and reacts to completion.
func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.collectFormValues()
		if !report.CanGenerate(*m.selected, m.parameters) {
			m.errorText = "required parameters are missing"
			m.mode = modeTemplates
			return m, nil
		}
		return m, m.generate()
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeTemplates
		m.form = nil
		return m, nil
	}

	return m, cmd
}

// collectFormValues folds the form bindings back into the parameter map.
func (m *Model) collectFormValues() {
	for k, v := range m.fb.text {
		if *v == "" {
			m.parameters[k] = nil
			continue
		}
		m.parameters[k] = *v
	}
	for k, v := range m.fb.multi {
		m.parameters[k] = *v
	}
}

// generate submits the run.
func (m *Model) generate() tea.Cmd {
	m.generating = true
	gen := m.gen
	id := m.selected.ID
	params := m.parameters
	return func() tea.Msg {
		result, err := gen.GenerateReport(context.Background(), id, params)
		if err != nil {
			return ErrorMsg{Text: api.Message(err, "report generation failed")}
		}
		return GeneratedMsg{Result: result}
	}
}

// handleResultKeys processes the result screen: exports and saving.
func (m Model) handleResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "c":
		return m, m.export(report.FormatCSV)
	case "x":
		return m, m.export(report.FormatExcel)
	case "o":
		return m, m.export(report.FormatJSON)
	case "p":
		return m, m.export(report.FormatPrint)
	case "w":
		return m, m.saveRun()
	case "esc":
		m.mode = modeTemplates
		m.result = nil
	}
	return m, nil
}

// export encodes the current result and writes it under the export dir.
func (m Model) export(format report.Format) tea.Cmd {
	result := m.result
	dir := m.exportDir
	return func() tea.Msg {
		export, err := report.ExportResult(result, format)
		if err != nil {
			return ErrorMsg{Text: "export failed: " + err.Error()}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ErrorMsg{Text: "export failed: " + err.Error()}
		}
		path := filepath.Join(dir, export.Filename)
		if err := os.WriteFile(path, export.Data, 0o644); err != nil {
			return ErrorMsg{Text: "export failed: " + err.Error()}
		}
		return ExportedMsg{Path: path}
	}
}

// saveRun stores the current template and parameters as a saved report.
func (m Model) saveRun() tea.Cmd {
	saved := m.saved
	tpl := m.selected
	params := m.parameters
	return func() tea.Msg {
		_, err := saved.Save(model.SavedReport{
			Name:         tpl.Name,
			TemplateID:   tpl.ID,
			TemplateName: tpl.Name,
			Parameters:   params,
		})
		if err != nil {
			return ErrorMsg{Text: "could not save report: " + err.Error()}
		}
		return ExportedMsg{Path: "saved report \"" + tpl.Name + "\""}
	}
}

// handleSavedKeys processes the saved-report list.
func (m Model) handleSavedKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	saved := m.saved.List()
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(saved)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Select):
		if len(saved) == 0 {
			return m, nil
		}
		run := saved[m.cursor]
		for _, tpl := range m.templates {
			if tpl.ID == run.TemplateID {
				return m.startForm(tpl, run.Parameters)
			}
		}
		m.errorText = "template no longer available: " + run.TemplateName
	case key.Matches(msg, m.keys.Delete):
		if len(saved) > 0 {
			m.saved.Delete(saved[m.cursor].ID)
			if m.cursor > 0 {
				m.cursor--
			}
		}
	case key.Matches(msg, m.keys.Back):
		m.mode = modeTemplates
		m.cursor = 0
	}
	return m, nil
}

// View renders the report view for the current step.
func (m Model) View() string {
	header := ""
	if m.errorText != "" {
		header = theme.HelpStyle.Foreground(theme.ColorRed).Render(m.errorText) + "\n"
	} else if m.statusText != "" {
		header = theme.HelpStyle.Render(m.statusText) + "\n"
	}

	switch m.mode {
	case modeForm:
		if m.form == nil {
			return header
		}
		title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1).
			Render(m.selected.Name)
		return header + lipgloss.NewStyle().Padding(1, 2).Render(title+"\n"+m.form.View())

	case modeResult:
		return header + m.viewResult()

	case modeSaved:
		return header + m.viewSaved()

	default:
		return header + m.viewTemplates()
	}
}

// viewTemplates renders the template picker.
func (m Model) viewTemplates() string {
	if m.generating {
		return theme.HelpStyle.Render("Generating report...")
	}
	if len(m.templates) == 0 {
		return theme.HelpStyle.Render("No report templates available. Press r to reload.")
	}

	out := theme.HeaderStyle.Render("Report Templates") + "\n\n"
	for i, tpl := range m.templates {
		line := tpl.Name
		if tpl.Category != "" {
			line += "  " + theme.HelpStyle.Render(tpl.Category)
		}
		if i == m.cursor {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		out += line + "\n"
	}
	out += "\n" + theme.HelpStyle.Render("enter run | S saved reports | r reload")
	return out
}

// viewResult renders the generated table using the print encoding.
func (m Model) viewResult() string {
	if m.result == nil {
		return ""
	}
	export, err := report.ExportResult(m.result, report.FormatPrint)
	if err != nil {
		return theme.HelpStyle.Render("could not render result: " + err.Error())
	}
	hints := theme.HelpStyle.Render("c csv | x excel | o json | p print file | w save run | esc back")
	return string(export.Data) + "\n" + hints
}

// viewSaved renders the saved report list.
func (m Model) viewSaved() string {
	saved := m.saved.List()
	out := theme.HeaderStyle.Render("Saved Reports") + "\n\n"
	if len(saved) == 0 {
		return out + theme.HelpStyle.Render("No saved reports. Press w on a result to save one.")
	}

	for i, r := range saved {
		line := fmt.Sprintf("%s  %s", r.Name, theme.HelpStyle.Render(r.SavedAt.Format("2006-01-02")))
		if r.LastRun != nil {
			line += theme.HelpStyle.Render("  last run " + r.LastRun.Format("2006-01-02"))
		}
		if i == m.cursor {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		out += line + "\n"
	}
	out += "\n" + theme.HelpStyle.Render("enter replay | d delete | esc back")
	return out
}

// Typing reports whether the parameter form has keyboard focus, so the
// root model leaves its keystrokes alone.
func (m Model) Typing() bool {
	return m.mode == modeForm
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func validateDate(required bool) func(string) error {
	return func(s string) error {
		if s == "" {
			if required {
				return fmt.Errorf("a date is required")
			}
			return nil
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD")
		}
		return nil
	}
}
