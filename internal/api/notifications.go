package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/nicway1/truelog-cli/internal/model"
)

// NotificationQuery is the filter state sent to the notification list
// endpoint. Nil/zero fields are omitted from the query string.
type NotificationQuery struct {
	Page    int
	PerPage int
	Type    *model.NotificationType
	IsRead  *bool
	Search  string
}

// NotificationPage is one server page of notifications plus the
// authoritative unread counter.
type NotificationPage struct {
	Items       []model.Notification
	Pagination  model.Pagination
	UnreadCount int
}

// ListNotifications fetches one page of notifications.
func (c *Client) ListNotifications(
	ctx context.Context,
	q NotificationQuery,
) (*NotificationPage, error) {
	values := url.Values{}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.Type != nil {
		values.Set("type", string(*q.Type))
	}
	if q.IsRead != nil {
		values.Set("is_read", strconv.FormatBool(*q.IsRead))
	}
	if q.Search != "" {
		values.Set("search", q.Search)
	}

	var items []model.Notification
	meta, err := c.doList(ctx, "/api/notifications"+queryString(values), &items)
	if err != nil {
		return nil, err
	}

	page := &NotificationPage{
		Items: items,
		Pagination: model.Pagination{
			CurrentPage: meta.Pagination.CurrentPage,
			TotalPages:  meta.Pagination.TotalPages,
			TotalItems:  meta.Pagination.TotalItems,
			PerPage:     meta.Pagination.PerPage,
			HasNext:     meta.Pagination.CurrentPage < meta.Pagination.TotalPages,
			HasPrev:     meta.Pagination.CurrentPage > 1,
		},
	}
	if meta.UnreadCount != nil {
		page.UnreadCount = *meta.UnreadCount
	}
	return page, nil
}

// UnreadCount fetches only the unread counter. Used by the poller to keep
// background load minimal.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.get(ctx, "/api/notifications/unread-count", &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// MarkRead marks a single notification read.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	return c.patch(ctx, "/api/notifications/"+id+"/read", nil, nil)
}

// MarkUnread marks a single notification unread.
func (c *Client) MarkUnread(ctx context.Context, id string) error {
	return c.patch(ctx, "/api/notifications/"+id+"/unread", nil, nil)
}

// MarkAllRead marks every notification read, optionally limited to one type.
func (c *Client) MarkAllRead(ctx context.Context, typ *model.NotificationType) error {
	body := map[string]any{}
	if typ != nil {
		body["type"] = string(*typ)
	}
	return c.post(ctx, "/api/notifications/mark-all-read", body, nil)
}

// DeleteNotification removes one notification.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.del(ctx, "/api/notifications/"+id, nil, nil)
}

// BulkDeleteNotifications removes the given notifications by id.
func (c *Client) BulkDeleteNotifications(ctx context.Context, ids []string) error {
	body := map[string]any{"ids": ids}
	return c.post(ctx, "/api/notifications/bulk-delete", body, nil)
}

// DeleteAllRead removes every notification already marked read.
func (c *Client) DeleteAllRead(ctx context.Context) error {
	return c.del(ctx, "/api/notifications/read", nil, nil)
}
