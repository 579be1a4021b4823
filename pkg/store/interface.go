package store

import (
	"errors"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaportal/pkg/models"
)

var (
	// ErrNotFound is wrapped by every lookup that misses.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is wrapped when an insert collides with an existing id.
	ErrAlreadyExists = errors.New("already exists")
)

// NotificationStore is the narrow persistence contract of the notification
// service.
type NotificationStore interface {
	// AppendNotification inserts n and returns its assigned id.
	AppendNotification(n *models.Notification) (uuid.UUID, error)
	// QueryNotificationsByOwner returns the user's notifications in insertion order.
	QueryNotificationsByOwner(userID string) ([]*models.Notification, error)
	// UpdateNotification applies patch; a missing id is a silent no-op.
	UpdateNotification(id uuid.UUID, patch models.NotificationPatch) error
}

type ResidentStore interface {
	CreateResident(r *models.Resident) error
	GetResident(id string) (*models.Resident, error)
	ListResidents() ([]*models.Resident, error)
}

type BillingStore interface {
	CreateBillingAccount(a *models.BillingAccount) error
	GetBillingAccount(id uuid.UUID) (*models.BillingAccount, error)
	UpdateBillingAccount(a *models.BillingAccount) error
	DeleteBillingAccount(id uuid.UUID) error
	ListBillingAccounts() ([]*models.BillingAccount, error)
	ListBillingAccountsByResident(residentID string) ([]*models.BillingAccount, error)
}

type CommunityStore interface {
	CreateAnnouncement(a *models.Announcement) error
	ListAnnouncements() ([]*models.Announcement, error)

	CreateVehicle(v *models.Vehicle) error
	GetVehicle(id uuid.UUID) (*models.Vehicle, error)
	UpdateVehicle(v *models.Vehicle) error
	CountVehiclePermits() (int, error)

	CreateVisitorPass(p *models.VisitorPass) error
	GetVisitorPass(id uuid.UUID) (*models.VisitorPass, error)
	UpdateVisitorPass(p *models.VisitorPass) error
	ListVisitorPassesByStatus(status models.VisitorPassStatus) ([]*models.VisitorPass, error)

	CreateServiceRequest(r *models.ServiceRequest) error
	GetServiceRequest(id uuid.UUID) (*models.ServiceRequest, error)
	UpdateServiceRequest(r *models.ServiceRequest) error
}

// Storage defines every persistence operation of the portal.
type Storage interface {
	NotificationStore
	ResidentStore
	BillingStore
	CommunityStore

	Close() error
}
