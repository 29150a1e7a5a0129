// Package report implements the client side of template-driven report
// generation: parameter defaulting and readiness, export encoding, and
// the client-only saved report list.
package report

import (
	"strings"
	"time"

	"github.com/nicway1/truelog-cli/internal/model"
)

// dateLayout is the wire format for date parameters.
const dateLayout = "2006-01-02"

// DefaultParameters computes the initial value for every template
// parameter. Priority per parameter: an explicit template default; else a
// rolling 30-day window for the date_from/date_to keys; else an empty
// list for multi_select; else nil.
func DefaultParameters(tpl model.ReportTemplate, now time.Time) map[string]any {
	values := make(map[string]any, len(tpl.Parameters))
	for _, p := range tpl.Parameters {
		switch {
		case p.Default != nil:
			values[p.Key] = p.Default
		case p.Type == model.ParamDate && p.Key == "date_from":
			values[p.Key] = now.AddDate(0, 0, -30).Format(dateLayout)
		case p.Type == model.ParamDate && p.Key == "date_to":
			values[p.Key] = now.Format(dateLayout)
		case p.Type == model.ParamMultiSelect:
			values[p.Key] = []string{}
		default:
			values[p.Key] = nil
		}
	}
	return values
}

// MergeSaved lays saved parameter values over computed defaults. It is a
// shallow merge: any parameter missing from the saved set keeps its
// computed default.
func MergeSaved(defaults, saved map[string]any) map[string]any {
	out := make(map[string]any, len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range saved {
		out[k] = v
	}
	return out
}

// CanGenerate reports whether every required parameter has a usable
// value: non-nil, not whitespace-only for strings, not empty for lists.
func CanGenerate(tpl model.ReportTemplate, values map[string]any) bool {
	for _, p := range tpl.Parameters {
		if !p.Required {
			continue
		}
		if missing(values[p.Key]) {
			return false
		}
	}
	return true
}

// missing implements the per-type emptiness rules.
func missing(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []string:
		return len(val) == 0
	case []any:
		return len(val) == 0
	default:
		return false
	}
}
