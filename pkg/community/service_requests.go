package community

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaportal/pkg/models"
	"github.com/mcclellann/hoaportal/pkg/validation"
)

// NewServiceRequest is the input of OpenServiceRequest.
type NewServiceRequest struct {
	ResidentID  string `json:"resident_id" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// allowed service request transitions
var serviceRequestFlow = map[models.ServiceRequestStatus][]models.ServiceRequestStatus{
	models.ServiceRequestStatusOpen:       {models.ServiceRequestStatusInProgress, models.ServiceRequestStatusClosed},
	models.ServiceRequestStatusInProgress: {models.ServiceRequestStatusResolved},
	models.ServiceRequestStatusResolved:   {models.ServiceRequestStatusClosed},
}

func canMove(from, to models.ServiceRequestStatus) bool {
	for _, next := range serviceRequestFlow[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *Service) OpenServiceRequest(in NewServiceRequest) (*models.ServiceRequest, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.storage.GetResident(in.ResidentID); err != nil {
		return nil, err
	}

	now := s.timestamp()
	r := &models.ServiceRequest{
		ID:          uuid.New(),
		ResidentID:  in.ResidentID,
		Category:    in.Category,
		Description: in.Description,
		Status:      models.ServiceRequestStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.storage.CreateServiceRequest(r); err != nil {
		return nil, fmt.Errorf("failed to open service request: %w", err)
	}

	s.notifyAdmins("New service request",
		fmt.Sprintf("A %s request was opened: %s", r.Category, r.Description),
		models.NotificationTypeServiceRequest, serviceRequestLink(r.ID))
	return r, nil
}

// UpdateServiceRequestStatus moves a request along
// open -> in_progress -> resolved -> closed. An open request may also be
// closed directly.
func (s *Service) UpdateServiceRequestStatus(id uuid.UUID, status models.ServiceRequestStatus, note string) (*models.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.storage.GetServiceRequest(id)
	if err != nil {
		return nil, err
	}
	if !canMove(r.Status, status) {
		return nil, invalidTransition("service request", r.ID, string(r.Status), "move to "+string(status))
	}

	r.Status = status
	if note != "" {
		r.Note = note
	}
	r.UpdatedAt = s.timestamp()
	if err := s.storage.UpdateServiceRequest(r); err != nil {
		return nil, fmt.Errorf("failed to update service request: %w", err)
	}

	message := fmt.Sprintf("Your %s request is now %s.", r.Category, strings.ReplaceAll(string(status), "_", " "))
	if note != "" {
		message += " " + note
	}
	s.notify(r.ResidentID, "Service request updated", message, models.NotificationTypeServiceRequest, serviceRequestLink(r.ID))
	return r, nil
}

func serviceRequestLink(id uuid.UUID) string {
	return "/service-requests/" + id.String()
}
