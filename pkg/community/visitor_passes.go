package community

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaportal/pkg/models"
	"github.com/mcclellann/hoaportal/pkg/validation"
)

const passTimeLayout = "Jan 2 15:04"

// NewVisitorPass is the input of RequestVisitorPass.
type NewVisitorPass struct {
	ResidentID  string    `json:"resident_id" validate:"required"`
	VisitorName string    `json:"visitor_name" validate:"required"`
	Plate       string    `json:"plate"`
	ValidFrom   time.Time `json:"valid_from" validate:"required"`
	ValidUntil  time.Time `json:"valid_until" validate:"required"`
}

// RequestVisitorPass files a pending gate pass for a visitor.
func (s *Service) RequestVisitorPass(in NewVisitorPass) (*models.VisitorPass, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if !in.ValidFrom.Before(in.ValidUntil) {
		return nil, validation.Invalid("valid_until", "must be after valid_from")
	}
	if _, err := s.storage.GetResident(in.ResidentID); err != nil {
		return nil, err
	}

	now := s.timestamp()
	p := &models.VisitorPass{
		ID:          uuid.New(),
		ResidentID:  in.ResidentID,
		VisitorName: in.VisitorName,
		Plate:       in.Plate,
		ValidFrom:   in.ValidFrom.UTC(),
		ValidUntil:  in.ValidUntil.UTC(),
		Status:      models.VisitorPassStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.storage.CreateVisitorPass(p); err != nil {
		return nil, fmt.Errorf("failed to request visitor pass: %w", err)
	}

	s.notifyAdmins("Visitor pass requested",
		fmt.Sprintf("A pass for %s is waiting for approval.", p.VisitorName),
		models.NotificationTypeVisitorPass, passLink(p.ID))
	return p, nil
}

func (s *Service) ApproveVisitorPass(id uuid.UUID) (*models.VisitorPass, error) {
	return s.transitionPass(id, models.VisitorPassStatusPending, models.VisitorPassStatusApproved, "approve",
		func(p *models.VisitorPass) (string, string) {
			return "Visitor pass approved", fmt.Sprintf("The pass for %s is valid from %s to %s.",
				p.VisitorName, p.ValidFrom.Format(passTimeLayout), p.ValidUntil.Format(passTimeLayout))
		})
}

func (s *Service) DenyVisitorPass(id uuid.UUID) (*models.VisitorPass, error) {
	return s.transitionPass(id, models.VisitorPassStatusPending, models.VisitorPassStatusDenied, "deny",
		func(p *models.VisitorPass) (string, string) {
			return "Visitor pass denied", fmt.Sprintf("The pass for %s was denied.", p.VisitorName)
		})
}

// RevokeVisitorPass cancels an approved pass before it expires.
func (s *Service) RevokeVisitorPass(id uuid.UUID) (*models.VisitorPass, error) {
	return s.transitionPass(id, models.VisitorPassStatusApproved, models.VisitorPassStatusRevoked, "revoke",
		func(p *models.VisitorPass) (string, string) {
			return "Visitor pass revoked", fmt.Sprintf("The pass for %s was revoked.", p.VisitorName)
		})
}

func (s *Service) transitionPass(id uuid.UUID, from, to models.VisitorPassStatus, action string,
	message func(*models.VisitorPass) (string, string)) (*models.VisitorPass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.storage.GetVisitorPass(id)
	if err != nil {
		return nil, err
	}
	if p.Status != from {
		return nil, invalidTransition("visitor pass", p.ID, string(p.Status), action)
	}

	p.Status = to
	p.UpdatedAt = s.timestamp()
	if err := s.storage.UpdateVisitorPass(p); err != nil {
		return nil, fmt.Errorf("failed to update visitor pass: %w", err)
	}

	title, body := message(p)
	s.notify(p.ResidentID, title, body, models.NotificationTypeVisitorPass, passLink(p.ID))
	return p, nil
}

// ExpireVisitorPasses moves approved passes whose window ended before now
// to expired and returns how many changed.
func (s *Service) ExpireVisitorPasses(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	approved, err := s.storage.ListVisitorPassesByStatus(models.VisitorPassStatusApproved)
	if err != nil {
		return 0, fmt.Errorf("failed to list visitor passes: %w", err)
	}

	expired := 0
	for _, p := range approved {
		if !now.After(p.ValidUntil) {
			continue
		}
		p.Status = models.VisitorPassStatusExpired
		p.UpdatedAt = s.timestamp()
		if err := s.storage.UpdateVisitorPass(p); err != nil {
			return expired, fmt.Errorf("failed to expire visitor pass %s: %w", p.ID, err)
		}
		s.notify(p.ResidentID, "Visitor pass expired",
			fmt.Sprintf("The pass for %s has expired.", p.VisitorName),
			models.NotificationTypeVisitorPass, passLink(p.ID))
		expired++
	}

	if expired > 0 {
		s.logger.WithField("expired", expired).Info("Visitor passes expired")
	}
	return expired, nil
}

func passLink(id uuid.UUID) string {
	return "/visitor-passes/" + id.String()
}
