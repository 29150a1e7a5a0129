package api

import (
	"context"

	"github.com/nicway1/truelog-cli/internal/model"
)

// Ticket is the subset of a ticket the client renders in a tab.
type Ticket struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Status  string `json:"status"`
}

// Comment is a posted ticket comment.
type Comment struct {
	ID        string     `json:"id"`
	TicketID  string     `json:"ticket_id"`
	Author    model.User `json:"author"`
	Body      string     `json:"body"`
	CreatedAt string     `json:"created_at"`
}

// GetTicket fetches one ticket.
func (c *Client) GetTicket(ctx context.Context, id string) (*Ticket, error) {
	var out Ticket
	if err := c.get(ctx, "/api/tickets/"+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddComment posts a comment on a ticket. Mentions are plain @handles in
// the body; the backend resolves them.
func (c *Client) AddComment(ctx context.Context, ticketID, body string) (*Comment, error) {
	var out Comment
	payload := map[string]string{"body": body}
	if err := c.post(ctx, "/api/tickets/"+ticketID+"/comments", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
