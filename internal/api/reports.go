package api

import (
	"context"

	"github.com/nicway1/truelog-cli/internal/model"
)

// ReportTemplates lists the report templates available to the user.
func (c *Client) ReportTemplates(ctx context.Context) ([]model.ReportTemplate, error) {
	var out []model.ReportTemplate
	if err := c.get(ctx, "/api/reports/templates", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateReport submits a template run with the collected parameters and
// returns the generated result.
func (c *Client) GenerateReport(
	ctx context.Context,
	templateID string,
	parameters map[string]any,
) (*model.ReportResult, error) {
	body := map[string]any{
		"template_id": templateID,
		"parameters":  parameters,
	}

	var out model.ReportResult
	if err := c.post(ctx, "/api/reports/generate", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
