package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeBilling             NotificationType = "billing"
	NotificationTypeAnnouncement        NotificationType = "announcement"
	NotificationTypeServiceRequest      NotificationType = "service_request"
	NotificationTypeDocumentComment     NotificationType = "document_comment"
	NotificationTypeVehicleRegistration NotificationType = "vehicle_registration"
	NotificationTypeVisitorPass         NotificationType = "visitor_pass"
	NotificationTypeGeneral             NotificationType = "general"
)

// IsValid reports whether t is one of the known notification types.
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationTypeBilling, NotificationTypeAnnouncement, NotificationTypeServiceRequest,
		NotificationTypeDocumentComment, NotificationTypeVehicleRegistration,
		NotificationTypeVisitorPass, NotificationTypeGeneral:
		return true
	}
	return false
}

// Notification is an in-app message owned by a single user.
type Notification struct {
	ID         uuid.UUID        `json:"id"`
	UserID     string           `json:"user_id"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Type       NotificationType `json:"type"`
	Link       string           `json:"link,omitempty"`
	IsRead     bool             `json:"is_read"`
	CreatedAt  time.Time        `json:"created_at"`
	ArchivedAt *time.Time       `json:"archived_at,omitempty"`
}

// NotificationPatch is a partial update. Nil fields are left untouched.
type NotificationPatch struct {
	IsRead     *bool
	ArchivedAt *time.Time
}

// Apply copies the set fields of p onto n.
func (p NotificationPatch) Apply(n *Notification) {
	if p.IsRead != nil {
		n.IsRead = *p.IsRead
	}
	if p.ArchivedAt != nil {
		archived := *p.ArchivedAt
		n.ArchivedAt = &archived
	}
}
