package api

import (
	"context"
	"net/url"

	"github.com/nicway1/truelog-cli/internal/model"
)

// MentionSuggestions queries the backend for user/group completions
// matching the in-progress @mention token.
func (c *Client) MentionSuggestions(
	ctx context.Context,
	query string,
) ([]model.MentionSuggestion, error) {
	values := url.Values{}
	values.Set("q", query)

	var out []model.MentionSuggestion
	if err := c.get(ctx, "/api/users/mention-suggestions"+queryString(values), &out); err != nil {
		return nil, err
	}
	return out, nil
}
