// Package notification creates per-user in-app notifications and tracks
// their read state.
package notification

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaportal/pkg/models"
	"github.com/mcclellann/hoaportal/pkg/store"
	"github.com/mcclellann/hoaportal/pkg/validation"
	"github.com/sirupsen/logrus"
)

// Dispatcher delivers a freshly created notification outside the portal.
type Dispatcher interface {
	Dispatch(n *models.Notification) error
}

// Result is the outcome of a per-notification mutation. A missing or foreign
// notification is reported here rather than as an error.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

const notFoundMessage = "notification not found"

// Service owns the notification collection.
type Service struct {
	store       store.NotificationStore
	logger      *logrus.Logger
	dispatchers []Dispatcher

	// mu serializes writers so concurrent read-modify-write calls never lose updates.
	mu     sync.Mutex
	now    func() time.Time
	lastTS time.Time
}

func NewService(s store.NotificationStore, logger *logrus.Logger, dispatchers ...Dispatcher) *Service {
	return &Service{
		store:       s,
		logger:      logger,
		dispatchers: dispatchers,
		now:         time.Now,
	}
}

// nextTimestamp returns a creation time strictly after every previous one.
// Must be called with mu held.
func (s *Service) nextTimestamp() time.Time {
	ts := s.now().UTC().Truncate(time.Microsecond)
	if !ts.After(s.lastTS) {
		ts = s.lastTS.Add(time.Microsecond)
	}
	s.lastTS = ts
	return ts
}

// Create appends a new unread notification for userID.
func (s *Service) Create(userID, title, message string, typ models.NotificationType, link string) (*models.Notification, error) {
	if err := validation.Required("user_id", userID); err != nil {
		return nil, err
	}
	if err := validation.Required("title", title); err != nil {
		return nil, err
	}
	if err := validation.Required("message", message); err != nil {
		return nil, err
	}
	if typ == "" {
		typ = models.NotificationTypeGeneral
	}

	s.mu.Lock()
	n := &models.Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		Link:      link,
		IsRead:    false,
		CreatedAt: s.nextTimestamp(),
	}
	_, err := s.store.AppendNotification(n)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"user_id":         userID,
		"type":            typ,
	}).Debug("Notification created")

	s.dispatch(n)
	return n, nil
}

func (s *Service) dispatch(n *models.Notification) {
	for _, d := range s.dispatchers {
		if err := d.Dispatch(n); err != nil {
			s.logger.WithFields(logrus.Fields{
				"notification_id": n.ID,
				"user_id":         n.UserID,
				"dispatcher":      fmt.Sprintf("%T", d),
			}).WithError(err).Warn("Failed to dispatch notification")
		}
	}
}

// Broadcast creates one notification per user id and returns how many were
// created. Blank ids are skipped. A failed recipient does not stop the
// fan-out; the failures come back joined.
func (s *Service) Broadcast(userIDs []string, title, message string, typ models.NotificationType, link string) (int, error) {
	if err := validation.Required("title", title); err != nil {
		return 0, err
	}
	if err := validation.Required("message", message); err != nil {
		return 0, err
	}

	created := 0
	var errs []error
	for _, userID := range userIDs {
		if strings.TrimSpace(userID) == "" {
			continue
		}
		if _, err := s.Create(userID, title, message, typ, link); err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		created++
	}

	fields := logrus.Fields{"type": typ, "recipients": created}
	if len(errs) > 0 {
		s.logger.WithFields(fields).WithField("failed", len(errs)).Warn("Notification broadcast partially sent")
		return created, fmt.Errorf("broadcast failed for %d of %d recipients: %w", len(errs), created+len(errs), errors.Join(errs...))
	}
	s.logger.WithFields(fields).Info("Notification broadcast sent")
	return created, nil
}

// List returns the user's notifications newest first. Archived
// notifications are left out.
func (s *Service) List(userID string) ([]*models.Notification, error) {
	all, err := s.store.QueryNotificationsByOwner(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	visible := make([]*models.Notification, 0, len(all))
	for _, n := range all {
		if n.UserID != userID || n.ArchivedAt != nil {
			continue
		}
		visible = append(visible, n)
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].CreatedAt.After(visible[j].CreatedAt)
	})
	return visible, nil
}

func (s *Service) find(notificationID uuid.UUID, userID string) (*models.Notification, error) {
	all, err := s.store.QueryNotificationsByOwner(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}
	for _, n := range all {
		if n.ID == notificationID && n.UserID == userID {
			return n, nil
		}
	}
	return nil, nil
}

// MarkAsRead marks one of the user's notifications as read. Marking an
// already read notification succeeds without writing.
func (s *Service) MarkAsRead(notificationID uuid.UUID, userID string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.find(notificationID, userID)
	if err != nil {
		return Result{}, err
	}
	if n == nil {
		return Result{Success: false, Message: notFoundMessage}, nil
	}
	if n.IsRead {
		return Result{Success: true, Message: "notification already read"}, nil
	}

	read := true
	if err := s.store.UpdateNotification(n.ID, models.NotificationPatch{IsRead: &read}); err != nil {
		return Result{}, fmt.Errorf("failed to mark notification %s as read: %w", n.ID, err)
	}
	return Result{Success: true, Message: "notification marked as read"}, nil
}

// MarkAllAsRead marks every unread notification of the user as read and
// returns how many changed.
func (s *Service) MarkAllAsRead(userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.store.QueryNotificationsByOwner(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load notifications: %w", err)
	}

	read := true
	updated := 0
	for _, n := range all {
		if n.UserID != userID || n.IsRead || n.ArchivedAt != nil {
			continue
		}
		if err := s.store.UpdateNotification(n.ID, models.NotificationPatch{IsRead: &read}); err != nil {
			return updated, fmt.Errorf("failed to mark notification %s as read: %w", n.ID, err)
		}
		updated++
	}

	s.logger.WithFields(logrus.Fields{"user_id": userID, "updated": updated}).Debug("Marked all notifications as read")
	return updated, nil
}

// UnreadCount is the number of visible unread notifications of the user.
func (s *Service) UnreadCount(userID string) (int, error) {
	list, err := s.List(userID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range list {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

// Archive hides a notification from List without deleting it.
func (s *Service) Archive(notificationID uuid.UUID, userID string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.find(notificationID, userID)
	if err != nil {
		return Result{}, err
	}
	if n == nil {
		return Result{Success: false, Message: notFoundMessage}, nil
	}
	if n.ArchivedAt != nil {
		return Result{Success: true, Message: "notification already archived"}, nil
	}

	archivedAt := s.now().UTC().Truncate(time.Microsecond)
	if err := s.store.UpdateNotification(n.ID, models.NotificationPatch{ArchivedAt: &archivedAt}); err != nil {
		return Result{}, fmt.Errorf("failed to archive notification %s: %w", n.ID, err)
	}
	return Result{Success: true, Message: "notification archived"}, nil
}
