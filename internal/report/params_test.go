package report

import (
	"reflect"
	"testing"
	"time"

	"github.com/nicway1/truelog-cli/internal/model"
)

var paramsNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func TestDefaultParametersDateWindow(t *testing.T) {
	tpl := model.ReportTemplate{
		ID:   "ticket_volume",
		Name: "Ticket Volume",
		Parameters: []model.TemplateParameter{
			{Key: "date_from", Type: model.ParamDate, Required: true},
			{Key: "date_to", Type: model.ParamDate, Required: true},
		},
	}

	values := DefaultParameters(tpl, paramsNow)

	if got := values["date_from"]; got != "2026-02-13" {
		t.Errorf("date_from = %v, want 2026-02-13", got)
	}
	if got := values["date_to"]; got != "2026-03-15" {
		t.Errorf("date_to = %v, want 2026-03-15", got)
	}
}

func TestDefaultParametersExplicitDefaultWins(t *testing.T) {
	tpl := model.ReportTemplate{
		Parameters: []model.TemplateParameter{
			{Key: "date_from", Type: model.ParamDate, Default: "2026-01-01"},
			{Key: "status", Type: model.ParamSelect, Default: "open"},
		},
	}

	values := DefaultParameters(tpl, paramsNow)

	if got := values["date_from"]; got != "2026-01-01" {
		t.Errorf("explicit default overridden: %v", got)
	}
	if got := values["status"]; got != "open" {
		t.Errorf("status = %v, want open", got)
	}
}

func TestDefaultParametersMultiSelectAndFallback(t *testing.T) {
	tpl := model.ReportTemplate{
		Parameters: []model.TemplateParameter{
			{Key: "categories", Type: model.ParamMultiSelect},
			{Key: "assignee", Type: model.ParamSelect},
			{Key: "limit", Type: model.ParamNumber},
		},
	}

	values := DefaultParameters(tpl, paramsNow)

	if got, ok := values["categories"].([]string); !ok || len(got) != 0 {
		t.Errorf("categories = %v, want empty string slice", values["categories"])
	}
	if values["assignee"] != nil {
		t.Errorf("assignee = %v, want nil", values["assignee"])
	}
	if values["limit"] != nil {
		t.Errorf("limit = %v, want nil", values["limit"])
	}
}

func TestDefaultParametersOtherDateKeysGetNoWindow(t *testing.T) {
	tpl := model.ReportTemplate{
		Parameters: []model.TemplateParameter{
			{Key: "warranty_expiry", Type: model.ParamDate},
		},
	}

	if got := DefaultParameters(tpl, paramsNow)["warranty_expiry"]; got != nil {
		t.Errorf("warranty_expiry = %v, want nil", got)
	}
}

func TestMergeSavedShallow(t *testing.T) {
	defaults := map[string]any{"date_from": "2026-02-13", "date_to": "2026-03-15", "status": nil}
	saved := map[string]any{"status": "closed", "date_from": "2026-01-01"}

	got := MergeSaved(defaults, saved)

	want := map[string]any{"date_from": "2026-01-01", "date_to": "2026-03-15", "status": "closed"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("merged = %v, want %v", got, want)
	}

	// Inputs stay untouched.
	if defaults["status"] != nil {
		t.Error("merge must not mutate the defaults map")
	}
}

func TestCanGenerate(t *testing.T) {
	tpl := model.ReportTemplate{
		Parameters: []model.TemplateParameter{
			{Key: "date_from", Type: model.ParamDate, Required: true},
			{Key: "categories", Type: model.ParamMultiSelect, Required: true},
			{Key: "note", Type: model.ParamText},
		},
	}

	tests := []struct {
		name   string
		values map[string]any
		want   bool
	}{
		{"all present", map[string]any{"date_from": "2026-01-01", "categories": []string{"hw"}}, true},
		{"missing key", map[string]any{"categories": []string{"hw"}}, false},
		{"nil value", map[string]any{"date_from": nil, "categories": []string{"hw"}}, false},
		{"whitespace string", map[string]any{"date_from": "   ", "categories": []string{"hw"}}, false},
		{"empty string list", map[string]any{"date_from": "2026-01-01", "categories": []string{}}, false},
		{"empty any list", map[string]any{"date_from": "2026-01-01", "categories": []any{}}, false},
		{"optional missing is fine", map[string]any{"date_from": "2026-01-01", "categories": []any{"hw"}}, true},
		{"zero number counts as present", map[string]any{"date_from": "2026-01-01", "categories": []string{"hw"}, "note": float64(0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanGenerate(tpl, tt.values); got != tt.want {
				t.Errorf("CanGenerate(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}
