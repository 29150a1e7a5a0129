package model

import "time"

// WidgetSize is the rendered footprint of a dashboard widget.
type WidgetSize string

const (
	WidgetSmall  WidgetSize = "small"
	WidgetMedium WidgetSize = "medium"
	WidgetLarge  WidgetSize = "large"
	WidgetFull   WidgetSize = "full"
)

// WidgetConfig describes one widget slot in a dashboard layout.
// Positions need not be contiguous; render order is ascending position.
type WidgetConfig struct {
	WidgetID string         `json:"widgetId"`
	Enabled  bool           `json:"enabled"`
	Position int            `json:"position"`
	Size     WidgetSize     `json:"size"`
	Config   map[string]any `json:"config,omitempty"`
}

// DashboardLayout is the full widget configuration for a user's dashboard.
type DashboardLayout struct {
	Widgets     []WidgetConfig `json:"widgets"`
	LastUpdated *time.Time     `json:"lastUpdated"`
}

// Clone returns a deep copy of the layout, so a draft can be edited
// without aliasing the committed widget slices or config maps.
func (l DashboardLayout) Clone() DashboardLayout {
	out := DashboardLayout{
		Widgets: make([]WidgetConfig, len(l.Widgets)),
	}
	if l.LastUpdated != nil {
		ts := *l.LastUpdated
		out.LastUpdated = &ts
	}
	for i, w := range l.Widgets {
		cw := w
		if w.Config != nil {
			cw.Config = make(map[string]any, len(w.Config))
			for k, v := range w.Config {
				cw.Config[k] = v
			}
		}
		out.Widgets[i] = cw
	}
	return out
}

// DefaultDashboardLayout returns the hard-coded layout used when the user
// has never customized their dashboard.
func DefaultDashboardLayout() DashboardLayout {
	return DashboardLayout{
		Widgets: []WidgetConfig{
			{WidgetID: "open_tickets", Enabled: true, Position: 0, Size: WidgetMedium},
			{WidgetID: "my_assignments", Enabled: true, Position: 1, Size: WidgetMedium},
			{WidgetID: "asset_summary", Enabled: true, Position: 2, Size: WidgetLarge},
			{WidgetID: "recent_activity", Enabled: true, Position: 3, Size: WidgetFull},
			{WidgetID: "queue_load", Enabled: false, Position: 4, Size: WidgetSmall},
			{WidgetID: "license_expiry", Enabled: false, Position: 5, Size: WidgetSmall},
		},
	}
}
