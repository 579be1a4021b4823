// Package community implements the portal workflows that produce
// notifications: billing, announcements, vehicle permits, visitor passes,
// service requests and document comments.
package community

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mcclellann/hoaportal/pkg/models"
	"github.com/mcclellann/hoaportal/pkg/store"
	"github.com/sirupsen/logrus"
)

// ErrInvalidTransition is returned when a record is not in a state that
// allows the requested change.
var ErrInvalidTransition = errors.New("invalid status transition")

// Notifier is the part of the notification service the workflows use.
type Notifier interface {
	Create(userID, title, message string, typ models.NotificationType, link string) (*models.Notification, error)
	Broadcast(userIDs []string, title, message string, typ models.NotificationType, link string) (int, error)
}

// Service runs the community workflows against a Storage.
type Service struct {
	storage  store.Storage
	notifier Notifier
	logger   *logrus.Logger

	// mu serializes read-modify-write transitions.
	mu  sync.Mutex
	now func() time.Time
}

func NewService(s store.Storage, n Notifier, logger *logrus.Logger) *Service {
	return &Service{
		storage:  s,
		notifier: n,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// notify sends a notification to a single user. The workflow that
// triggered it has already been persisted, so failures are only logged.
func (s *Service) notify(userID, title, message string, typ models.NotificationType, link string) {
	if _, err := s.notifier.Create(userID, title, message, typ, link); err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"type":    typ,
		}).WithError(err).Error("Failed to create notification")
	}
}

func (s *Service) notifyAdmins(title, message string, typ models.NotificationType, link string) {
	residents, err := s.storage.ListResidents()
	if err != nil {
		s.logger.WithError(err).Error("Failed to load administrators")
		return
	}
	var admins []string
	for _, r := range residents {
		if r.Role == models.ResidentRoleAdmin {
			admins = append(admins, r.ID)
		}
	}
	if len(admins) == 0 {
		return
	}
	if _, err := s.notifier.Broadcast(admins, title, message, typ, link); err != nil {
		s.logger.WithField("type", typ).WithError(err).Error("Failed to notify administrators")
	}
}

func invalidTransition(what string, id fmt.Stringer, from, action string) error {
	return fmt.Errorf("cannot %s %s %s in status %s: %w", action, what, id, from, ErrInvalidTransition)
}
