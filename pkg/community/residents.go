package community

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mcclellann/hoaportal/pkg/models"
	"github.com/mcclellann/hoaportal/pkg/store"
	"github.com/mcclellann/hoaportal/pkg/validation"
)

// NewResident is the input of RegisterResident.
type NewResident struct {
	ID             string              `json:"id" validate:"required,max=64"`
	Name           string              `json:"name" validate:"required"`
	Email          string              `json:"email" validate:"omitempty,email"`
	Unit           string              `json:"unit"`
	TelegramChatID int64               `json:"telegram_chat_id"`
	Role           models.ResidentRole `json:"role" validate:"omitempty,oneof=resident admin"`
}

func (s *Service) RegisterResident(in NewResident) (*models.Resident, error) {
	in.ID = strings.TrimSpace(in.ID)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.ResidentRoleResident
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.storage.GetResident(in.ID); err == nil {
		return nil, fmt.Errorf("resident %s: %w", in.ID, store.ErrAlreadyExists)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to register resident: %w", err)
	}

	r := &models.Resident{
		ID:             in.ID,
		Name:           in.Name,
		Email:          in.Email,
		Unit:           in.Unit,
		TelegramChatID: in.TelegramChatID,
		Role:           in.Role,
		CreatedAt:      s.timestamp(),
	}
	if err := s.storage.CreateResident(r); err != nil {
		return nil, fmt.Errorf("failed to register resident: %w", err)
	}
	s.logger.WithField("resident_id", r.ID).Info("Resident registered")
	return r, nil
}

func (s *Service) GetResident(id string) (*models.Resident, error) {
	return s.storage.GetResident(id)
}

func (s *Service) ListResidents() ([]*models.Resident, error) {
	return s.storage.ListResidents()
}

// residentIDs returns the ids of every registered resident.
func (s *Service) residentIDs() ([]string, error) {
	residents, err := s.storage.ListResidents()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(residents))
	for _, r := range residents {
		ids = append(ids, r.ID)
	}
	return ids, nil
}
