package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaportal/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every backend must satisfy the same contract.
func backends(t *testing.T) map[string]func(t *testing.T) Storage {
	return map[string]func(t *testing.T) Storage{
		"memory": func(t *testing.T) Storage {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Storage {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test_store.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func TestStorage_Notifications(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			base := now()

			first := &models.Notification{UserID: "u1", Title: "Dues", Message: "due soon", Type: models.NotificationTypeBilling, CreatedAt: base}
			id1, err := s.AppendNotification(first)
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, id1)
			assert.Equal(t, id1, first.ID)

			_, err = s.AppendNotification(&models.Notification{UserID: "u2", Title: "Other", Message: "x", Type: models.NotificationTypeGeneral, CreatedAt: base})
			require.NoError(t, err)

			id3, err := s.AppendNotification(&models.Notification{UserID: "u1", Title: "Pool", Message: "closed", Type: models.NotificationTypeAnnouncement, Link: "/announcements/1", CreatedAt: base.Add(time.Second)})
			require.NoError(t, err)

			list, err := s.QueryNotificationsByOwner("u1")
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, id1, list[0].ID)
			assert.Equal(t, id3, list[1].ID)
			assert.Equal(t, "/announcements/1", list[1].Link)
			assert.False(t, list[0].IsRead)
			assert.Nil(t, list[0].ArchivedAt)
			assert.True(t, list[0].CreatedAt.Equal(base))

			read := true
			require.NoError(t, s.UpdateNotification(id1, models.NotificationPatch{IsRead: &read}))
			archivedAt := base.Add(time.Minute)
			require.NoError(t, s.UpdateNotification(id3, models.NotificationPatch{ArchivedAt: &archivedAt}))

			list, err = s.QueryNotificationsByOwner("u1")
			require.NoError(t, err)
			assert.True(t, list[0].IsRead)
			require.NotNil(t, list[1].ArchivedAt)
			assert.True(t, list[1].ArchivedAt.Equal(archivedAt))

			// unknown ids are ignored
			assert.NoError(t, s.UpdateNotification(uuid.New(), models.NotificationPatch{IsRead: &read}))

			empty, err := s.QueryNotificationsByOwner("nobody")
			require.NoError(t, err)
			assert.NotNil(t, empty)
			assert.Empty(t, empty)
		})
	}
}

func TestStorage_Residents(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			r := &models.Resident{ID: "res-1", Name: "Ada", Email: "ada@example.com", Unit: "4B", TelegramChatID: 42, Role: models.ResidentRoleResident, CreatedAt: now()}
			require.NoError(t, s.CreateResident(r))
			require.NoError(t, s.CreateResident(&models.Resident{ID: "res-2", Name: "Bo", Role: models.ResidentRoleAdmin, CreatedAt: now()}))

			fetched, err := s.GetResident("res-1")
			require.NoError(t, err)
			assert.Equal(t, "Ada", fetched.Name)
			assert.Equal(t, int64(42), fetched.TelegramChatID)
			assert.Equal(t, models.ResidentRoleResident, fetched.Role)

			all, err := s.ListResidents()
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "res-2", all[1].ID)

			_, err = s.GetResident("missing")
			assert.True(t, errors.Is(err, ErrNotFound))

			err = s.CreateResident(&models.Resident{ID: "res-1", Name: "Imposter", Role: models.ResidentRoleResident, CreatedAt: now()})
			assert.ErrorIs(t, err, ErrAlreadyExists)
			fetched, err = s.GetResident("res-1")
			require.NoError(t, err)
			assert.Equal(t, "Ada", fetched.Name)
		})
	}
}

func TestStorage_BillingAccounts(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			a := &models.BillingAccount{
				ID:                uuid.New(),
				ResidentID:        "res-1",
				Description:       "Roof assessment",
				LoanAmount:        decimal.RequireFromString("18000.00"),
				AnnualRatePercent: decimal.RequireFromString("6.25"),
				TermYears:         5,
				MonthlyPayment:    decimal.RequireFromString("350.08"),
				StartDate:         time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
				Status:            models.BillingStatusActive,
				CreatedAt:         now(),
				UpdatedAt:         now(),
			}
			require.NoError(t, s.CreateBillingAccount(a))
			require.NoError(t, s.CreateBillingAccount(&models.BillingAccount{
				ID: uuid.New(), ResidentID: "res-2", LoanAmount: decimal.NewFromInt(1), AnnualRatePercent: decimal.Zero,
				TermYears: 1, MonthlyPayment: decimal.NewFromInt(1), StartDate: now(), Status: models.BillingStatusActive,
				CreatedAt: now(), UpdatedAt: now(),
			}))

			fetched, err := s.GetBillingAccount(a.ID)
			require.NoError(t, err)
			assert.True(t, fetched.LoanAmount.Equal(a.LoanAmount))
			assert.True(t, fetched.AnnualRatePercent.Equal(a.AnnualRatePercent))
			assert.True(t, fetched.MonthlyPayment.Equal(a.MonthlyPayment))
			assert.True(t, fetched.StartDate.Equal(a.StartDate))

			fetched.PaymentsMade = 3
			fetched.UpdatedAt = now()
			require.NoError(t, s.UpdateBillingAccount(fetched))
			again, err := s.GetBillingAccount(a.ID)
			require.NoError(t, err)
			assert.Equal(t, 3, again.PaymentsMade)

			mine, err := s.ListBillingAccountsByResident("res-1")
			require.NoError(t, err)
			require.Len(t, mine, 1)
			assert.Equal(t, a.ID, mine[0].ID)

			all, err := s.ListBillingAccounts()
			require.NoError(t, err)
			assert.Len(t, all, 2)

			require.NoError(t, s.DeleteBillingAccount(a.ID))
			_, err = s.GetBillingAccount(a.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.DeleteBillingAccount(a.ID), ErrNotFound)
			assert.ErrorIs(t, s.UpdateBillingAccount(a), ErrNotFound)
		})
	}
}

func TestStorage_Community(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)

			event := now().Add(48 * time.Hour)
			require.NoError(t, s.CreateAnnouncement(&models.Announcement{ID: uuid.New(), AuthorID: "admin", Title: "Old", Body: "b", CreatedAt: now()}))
			require.NoError(t, s.CreateAnnouncement(&models.Announcement{ID: uuid.New(), AuthorID: "admin", Title: "New", Body: "b", EventDate: &event, CreatedAt: now()}))
			announcements, err := s.ListAnnouncements()
			require.NoError(t, err)
			require.Len(t, announcements, 2)
			assert.Equal(t, "New", announcements[0].Title)
			require.NotNil(t, announcements[0].EventDate)
			assert.Nil(t, announcements[1].EventDate)

			v := &models.Vehicle{ID: uuid.New(), ResidentID: "res-1", Plate: "ABC123", Status: models.VehicleStatusPending, CreatedAt: now(), UpdatedAt: now()}
			require.NoError(t, s.CreateVehicle(v))
			count, err := s.CountVehiclePermits()
			require.NoError(t, err)
			assert.Zero(t, count)
			v.Status = models.VehicleStatusApproved
			v.PermitNumber = "PRM-2024-000001"
			require.NoError(t, s.UpdateVehicle(v))
			got, err := s.GetVehicle(v.ID)
			require.NoError(t, err)
			assert.Equal(t, "PRM-2024-000001", got.PermitNumber)
			count, err = s.CountVehiclePermits()
			require.NoError(t, err)
			assert.Equal(t, 1, count)
			_, err = s.GetVehicle(uuid.New())
			assert.ErrorIs(t, err, ErrNotFound)

			p := &models.VisitorPass{ID: uuid.New(), ResidentID: "res-1", VisitorName: "Cy", ValidFrom: now(), ValidUntil: now().Add(time.Hour), Status: models.VisitorPassStatusPending, CreatedAt: now(), UpdatedAt: now()}
			require.NoError(t, s.CreateVisitorPass(p))
			p.Status = models.VisitorPassStatusApproved
			require.NoError(t, s.UpdateVisitorPass(p))
			approved, err := s.ListVisitorPassesByStatus(models.VisitorPassStatusApproved)
			require.NoError(t, err)
			require.Len(t, approved, 1)
			assert.Equal(t, "Cy", approved[0].VisitorName)
			pending, err := s.ListVisitorPassesByStatus(models.VisitorPassStatusPending)
			require.NoError(t, err)
			assert.Empty(t, pending)

			r := &models.ServiceRequest{ID: uuid.New(), ResidentID: "res-1", Category: "plumbing", Description: "leak", Status: models.ServiceRequestStatusOpen, CreatedAt: now(), UpdatedAt: now()}
			require.NoError(t, s.CreateServiceRequest(r))
			r.Status = models.ServiceRequestStatusInProgress
			r.Note = "plumber booked"
			require.NoError(t, s.UpdateServiceRequest(r))
			gotReq, err := s.GetServiceRequest(r.ID)
			require.NoError(t, err)
			assert.Equal(t, models.ServiceRequestStatusInProgress, gotReq.Status)
			assert.Equal(t, "plumber booked", gotReq.Note)
			_, err = s.GetServiceRequest(uuid.New())
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestMemoryStore_CopiesRecords(t *testing.T) {
	s := NewMemoryStore()
	n := &models.Notification{UserID: "u1", Title: "t", Message: "m", Type: models.NotificationTypeGeneral, CreatedAt: now()}
	_, err := s.AppendNotification(n)
	require.NoError(t, err)

	n.Title = "changed"
	list, err := s.QueryNotificationsByOwner("u1")
	require.NoError(t, err)
	list[0].IsRead = true

	again, err := s.QueryNotificationsByOwner("u1")
	require.NoError(t, err)
	assert.Equal(t, "t", again[0].Title)
	assert.False(t, again[0].IsRead)

	_, err = s.AppendNotification(&models.Notification{ID: n.ID, UserID: "u1"})
	assert.Error(t, err)
}
