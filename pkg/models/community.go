package models

import (
	"time"

	"github.com/google/uuid"
)

type ResidentRole string

const (
	ResidentRoleResident ResidentRole = "resident"
	ResidentRoleAdmin    ResidentRole = "admin"
)

type Resident struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Email          string       `json:"email,omitempty"`
	Unit           string       `json:"unit"`
	TelegramChatID int64        `json:"telegram_chat_id,omitempty"`
	Role           ResidentRole `json:"role"`
	CreatedAt      time.Time    `json:"created_at"`
}

type Announcement struct {
	ID        uuid.UUID  `json:"id"`
	AuthorID  string     `json:"author_id"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	EventDate *time.Time `json:"event_date,omitempty"` // set for community events
	CreatedAt time.Time  `json:"created_at"`
}

type VehicleStatus string

const (
	VehicleStatusPending  VehicleStatus = "pending"
	VehicleStatusApproved VehicleStatus = "approved"
	VehicleStatusRejected VehicleStatus = "rejected"
)

type Vehicle struct {
	ID              uuid.UUID     `json:"id"`
	ResidentID      string        `json:"resident_id"`
	Plate           string        `json:"plate"`
	Make            string        `json:"make"`
	Model           string        `json:"model"`
	Color           string        `json:"color,omitempty"`
	Status          VehicleStatus `json:"status"`
	PermitNumber    string        `json:"permit_number,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type VisitorPassStatus string

const (
	VisitorPassStatusPending  VisitorPassStatus = "pending"
	VisitorPassStatusApproved VisitorPassStatus = "approved"
	VisitorPassStatusDenied   VisitorPassStatus = "denied"
	VisitorPassStatusRevoked  VisitorPassStatus = "revoked"
	VisitorPassStatusExpired  VisitorPassStatus = "expired"
)

type VisitorPass struct {
	ID          uuid.UUID         `json:"id"`
	ResidentID  string            `json:"resident_id"`
	VisitorName string            `json:"visitor_name"`
	Plate       string            `json:"plate,omitempty"`
	ValidFrom   time.Time         `json:"valid_from"`
	ValidUntil  time.Time         `json:"valid_until"`
	Status      VisitorPassStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type ServiceRequestStatus string

const (
	ServiceRequestStatusOpen       ServiceRequestStatus = "open"
	ServiceRequestStatusInProgress ServiceRequestStatus = "in_progress"
	ServiceRequestStatusResolved   ServiceRequestStatus = "resolved"
	ServiceRequestStatusClosed     ServiceRequestStatus = "closed"
)

type ServiceRequest struct {
	ID          uuid.UUID            `json:"id"`
	ResidentID  string               `json:"resident_id"`
	Category    string               `json:"category"`
	Description string               `json:"description"`
	Status      ServiceRequestStatus `json:"status"`
	Note        string               `json:"note,omitempty"` // last staff note
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}
