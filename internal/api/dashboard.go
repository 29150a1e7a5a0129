package api

import (
	"context"

	"github.com/nicway1/truelog-cli/internal/model"
)

// GetDashboardLayout fetches the user's dashboard preferences.
func (c *Client) GetDashboardLayout(ctx context.Context) (*model.DashboardLayout, error) {
	var out model.DashboardLayout
	if err := c.get(ctx, "/api/users/me/dashboard", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PutDashboardLayout stores the user's dashboard preferences.
func (c *Client) PutDashboardLayout(ctx context.Context, layout model.DashboardLayout) error {
	return c.put(ctx, "/api/users/me/dashboard", layout, nil)
}
