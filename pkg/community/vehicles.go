package community

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaportal/pkg/models"
	"github.com/mcclellann/hoaportal/pkg/validation"
	"github.com/sirupsen/logrus"
)

// NewVehicle is the input of RegisterVehicle.
type NewVehicle struct {
	ResidentID string `json:"resident_id" validate:"required"`
	Plate      string `json:"plate" validate:"required,max=16"`
	Make       string `json:"make"`
	Model      string `json:"model"`
	Color      string `json:"color"`
}

// RegisterVehicle files a pending parking permit request.
func (s *Service) RegisterVehicle(in NewVehicle) (*models.Vehicle, error) {
	in.Plate = strings.ToUpper(strings.TrimSpace(in.Plate))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.storage.GetResident(in.ResidentID); err != nil {
		return nil, err
	}

	now := s.timestamp()
	v := &models.Vehicle{
		ID:         uuid.New(),
		ResidentID: in.ResidentID,
		Plate:      in.Plate,
		Make:       in.Make,
		Model:      in.Model,
		Color:      in.Color,
		Status:     models.VehicleStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.storage.CreateVehicle(v); err != nil {
		return nil, fmt.Errorf("failed to register vehicle: %w", err)
	}

	s.notifyAdmins("Vehicle registration pending",
		fmt.Sprintf("Vehicle %s is waiting for permit approval.", v.Plate),
		models.NotificationTypeVehicleRegistration, vehicleLink(v.ID))
	return v, nil
}

// ApproveVehicle issues a parking permit for a pending vehicle.
func (s *Service) ApproveVehicle(id uuid.UUID) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.storage.GetVehicle(id)
	if err != nil {
		return nil, err
	}
	if v.Status != models.VehicleStatusPending {
		return nil, invalidTransition("vehicle", v.ID, string(v.Status), "approve")
	}

	issued, err := s.storage.CountVehiclePermits()
	if err != nil {
		return nil, fmt.Errorf("failed to count permits: %w", err)
	}
	now := s.timestamp()
	v.Status = models.VehicleStatusApproved
	v.PermitNumber = fmt.Sprintf("PRM-%d-%06d", now.Year(), issued+1)
	v.UpdatedAt = now
	if err := s.storage.UpdateVehicle(v); err != nil {
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"vehicle_id": v.ID,
		"permit":     v.PermitNumber,
	}).Info("Parking permit issued")
	s.notify(v.ResidentID, "Parking permit issued",
		fmt.Sprintf("Your vehicle %s was approved. Permit number: %s.", v.Plate, v.PermitNumber),
		models.NotificationTypeVehicleRegistration, vehicleLink(v.ID))
	return v, nil
}

// RejectVehicle rejects a pending vehicle with a reason shown to the resident.
func (s *Service) RejectVehicle(id uuid.UUID, reason string) (*models.Vehicle, error) {
	if err := validation.Required("reason", reason); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.storage.GetVehicle(id)
	if err != nil {
		return nil, err
	}
	if v.Status != models.VehicleStatusPending {
		return nil, invalidTransition("vehicle", v.ID, string(v.Status), "reject")
	}

	v.Status = models.VehicleStatusRejected
	v.RejectionReason = reason
	v.UpdatedAt = s.timestamp()
	if err := s.storage.UpdateVehicle(v); err != nil {
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}

	s.notify(v.ResidentID, "Vehicle registration rejected",
		fmt.Sprintf("Your vehicle %s was not approved: %s", v.Plate, reason),
		models.NotificationTypeVehicleRegistration, vehicleLink(v.ID))
	return v, nil
}

func vehicleLink(id uuid.UUID) string {
	return "/vehicles/" + id.String()
}
