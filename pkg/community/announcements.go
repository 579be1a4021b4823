package community

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaportal/pkg/models"
	"github.com/mcclellann/hoaportal/pkg/validation"
	"github.com/sirupsen/logrus"
)

// NewAnnouncement is the input of PostAnnouncement. EventDate is set for
// community events.
type NewAnnouncement struct {
	AuthorID  string     `json:"author_id" validate:"required"`
	Title     string     `json:"title" validate:"required,max=200"`
	Body      string     `json:"body" validate:"required"`
	EventDate *time.Time `json:"event_date,omitempty"`
}

// PostAnnouncement stores the announcement and notifies every resident.
func (s *Service) PostAnnouncement(in NewAnnouncement) (*models.Announcement, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	a := &models.Announcement{
		ID:        uuid.New(),
		AuthorID:  in.AuthorID,
		Title:     in.Title,
		Body:      in.Body,
		EventDate: in.EventDate,
		CreatedAt: s.timestamp(),
	}
	if err := s.storage.CreateAnnouncement(a); err != nil {
		return nil, fmt.Errorf("failed to post announcement: %w", err)
	}

	recipients, err := s.residentIDs()
	if err != nil {
		s.logger.WithError(err).Error("Failed to load residents for announcement")
		return a, nil
	}

	message := a.Body
	if a.EventDate != nil {
		message = fmt.Sprintf("%s (event on %s)", a.Body, a.EventDate.Format(dueDateLayout))
	}
	sent, err := s.notifier.Broadcast(recipients, a.Title, message, models.NotificationTypeAnnouncement, "/announcements/"+a.ID.String())
	if err != nil {
		s.logger.WithField("announcement_id", a.ID).WithError(err).Error("Failed to broadcast announcement")
	}

	s.logger.WithFields(logrus.Fields{
		"announcement_id": a.ID,
		"recipients":      sent,
	}).Info("Announcement posted")
	return a, nil
}

// ListAnnouncements returns announcements newest first.
func (s *Service) ListAnnouncements() ([]*models.Announcement, error) {
	return s.storage.ListAnnouncements()
}
