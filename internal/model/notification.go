package model

import "time"

// NotificationType identifies what kind of event produced a notification.
type NotificationType string

const (
	NotificationMention        NotificationType = "mention"
	NotificationGroupMention   NotificationType = "group_mention"
	NotificationTicketAssigned NotificationType = "ticket_assigned"
	NotificationTicketUpdated  NotificationType = "ticket_updated"
	NotificationAssetCheckout  NotificationType = "asset_checkout"
	NotificationAssetCheckin   NotificationType = "asset_checkin"
	NotificationSystem         NotificationType = "system"
)

// ReferenceType identifies the kind of record a notification points at.
type ReferenceType string

const (
	ReferenceTicket  ReferenceType = "ticket"
	ReferenceAsset   ReferenceType = "asset"
	ReferenceComment ReferenceType = "comment"
)

// Notification is a single alert surfaced to the user.
// ReadAt is non-nil iff IsRead is true.
type Notification struct {
	ID            string           `json:"id"`
	Type          NotificationType `json:"type"`
	Title         string           `json:"title"`
	Message       string           `json:"message"`
	IsRead        bool             `json:"is_read"`
	ReferenceType *ReferenceType   `json:"reference_type"`
	ReferenceID   *string          `json:"reference_id"`
	CreatedAt     time.Time        `json:"created_at"`
	ReadAt        *time.Time       `json:"read_at"`
}

// Pagination describes one page of a server-side list.
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	TotalItems  int  `json:"total_items"`
	PerPage     int  `json:"per_page"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
}
