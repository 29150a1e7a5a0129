package model

import "time"

// ParameterType is the input type of a report template parameter.
type ParameterType string

const (
	ParamDate        ParameterType = "date"
	ParamSelect      ParameterType = "select"
	ParamMultiSelect ParameterType = "multi_select"
	ParamNumber      ParameterType = "number"
	ParamText        ParameterType = "text"
)

// ParameterOption is one selectable choice for select/multi_select parameters.
type ParameterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// TemplateParameter describes a single typed input of a report template.
type TemplateParameter struct {
	Key      string            `json:"key"`
	Label    string            `json:"label"`
	Type     ParameterType     `json:"type"`
	Required bool              `json:"required"`
	Default  any               `json:"default,omitempty"`
	Options  []ParameterOption `json:"options,omitempty"`
}

// ReportTemplate is a server-defined report definition.
type ReportTemplate struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Parameters  []TemplateParameter `json:"parameters"`
}

// ReportResult is the generated output of a template run.
type ReportResult struct {
	TemplateID   string           `json:"template_id"`
	TemplateName string           `json:"template_name"`
	GeneratedAt  time.Time        `json:"generated_at"`
	Columns      []string         `json:"columns"`
	Rows         []map[string]any `json:"rows"`
	TotalRows    int              `json:"total_rows"`
}

// SavedReport is a client-only saved report configuration: the parameter
// values of a previous run, replayable against the same template.
type SavedReport struct {
	ID           string         `json:"id"`
	Name         string         `json:"name" validate:"required"`
	TemplateID   string         `json:"template_id" validate:"required"`
	TemplateName string         `json:"template_name"`
	Parameters   map[string]any `json:"parameters"`
	SavedAt      time.Time      `json:"savedAt"`
	LastRun      *time.Time     `json:"lastRun,omitempty"`
}
