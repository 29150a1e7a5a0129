package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nicway1/truelog-cli/internal/model"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, func() string { return "test-token" })
}

func TestEnvelopeDataDecoding(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/notifications/unread-count" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"success":true,"data":{"count":5}}`))
	})

	count, err := c.UnreadCount(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
}

func TestBearerTokenHeader(t *testing.T) {
	var got string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{"success":true}`))
	})

	if err := c.MarkRead(context.Background(), "n1"); err != nil {
		t.Fatal(err)
	}
	if got != "Bearer test-token" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestEmptyTokenOmitsHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Error("unauthenticated request must not carry an Authorization header")
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, nil)
	if err := c.get(context.Background(), "/api/health", nil); err != nil {
		t.Fatal(err)
	}
}

func TestUnauthorizedBecomesAuthError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"message":"token expired"}`))
	})

	_, err := c.UnreadCount(context.Background())
	if !IsAuthError(err) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Message != "token expired" {
		t.Errorf("auth message = %v", err)
	}
}

func TestUnauthorizedWithoutMessageUsesFallback(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.UnreadCount(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Message != "session expired" {
		t.Errorf("expected fallback auth message, got %v", err)
	}
}

func TestServerErrorBecomesAPIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"success":false,"message":"notification already deleted"}`))
	})

	err := c.DeleteNotification(context.Background(), "n1")
	if err == nil {
		t.Fatal("expected an error")
	}
	if IsAuthError(err) {
		t.Error("409 must not read as an auth error")
	}
	if got := Message(err, "delete failed"); got != "notification already deleted" {
		t.Errorf("Message = %q, want the server message", got)
	}
}

func TestMessageFallsBackForTransportErrors(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second, nil)

	err := c.MarkRead(context.Background(), "n1")
	if err == nil {
		t.Fatal("expected a transport error")
	}
	if got := Message(err, "could not mark as read"); got != "could not mark as read" {
		t.Errorf("Message = %q, want the fallback", got)
	}
}

func TestRateLimitRetries(t *testing.T) {
	attempts := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"success":true,"data":{"count":1}}`))
	})

	count, err := c.UnreadCount(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestRateLimitGivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	if _, err := c.UnreadCount(context.Background()); err == nil {
		t.Fatal("expected a rate-limit error after exhausting retries")
	}
	if attempts != 4 {
		t.Errorf("attempts = %d, want initial try + 3 retries", attempts)
	}
}

func TestNoContentResponse(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.DeleteAllRead(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestListNotificationsQueryAndMeta(t *testing.T) {
	typ := model.NotificationMention
	read := false

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("type") != "mention" || q.Get("is_read") != "false" || q.Get("search") != "printer" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{
			"data": [{"id":"n1","type":"mention","title":"You were mentioned"}],
			"meta": {
				"pagination": {"current_page":2,"total_pages":4,"total_items":80,"per_page":20},
				"unread_count": 12
			}
		}`))
	})

	page, err := c.ListNotifications(context.Background(), NotificationQuery{
		Page:   2,
		Type:   &typ,
		IsRead: &read,
		Search: "printer",
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(page.Items) != 1 || page.Items[0].ID != "n1" {
		t.Errorf("items = %+v", page.Items)
	}
	if page.UnreadCount != 12 {
		t.Errorf("unread = %d, want 12", page.UnreadCount)
	}
	p := page.Pagination
	if !p.HasNext || !p.HasPrev {
		t.Errorf("pagination flags = %+v, want both set for a middle page", p)
	}
	if p.TotalItems != 80 {
		t.Errorf("total items = %d", p.TotalItems)
	}
}

func TestListNotificationsLastPageHasNoNext(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"data": [],
			"meta": {"pagination": {"current_page":3,"total_pages":3,"total_items":60,"per_page":20}}
		}`))
	})

	page, err := c.ListNotifications(context.Background(), NotificationQuery{Page: 3})
	if err != nil {
		t.Fatal(err)
	}
	if page.Pagination.HasNext {
		t.Error("last page must not report a next page")
	}
	if !page.Pagination.HasPrev {
		t.Error("page 3 must report a previous page")
	}
}

func TestBulkDeleteBody(t *testing.T) {
	var gotBody string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.Write([]byte(`{"success":true}`))
	})

	if err := c.BulkDeleteNotifications(context.Background(), []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	if gotBody != `{"ids":["a","b"]}` {
		t.Errorf("body = %q", gotBody)
	}
}
