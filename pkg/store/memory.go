package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaportal/pkg/models"
)

// MemoryStore keeps every collection in process memory. Records are copied
// on the way in and out so callers never share state with the store.
type MemoryStore struct {
	mu sync.RWMutex

	notifications     map[uuid.UUID]models.Notification
	notificationOrder []uuid.UUID

	residents     map[string]models.Resident
	residentOrder []string

	billing      map[uuid.UUID]models.BillingAccount
	billingOrder []uuid.UUID

	announcements []models.Announcement

	vehicles        map[uuid.UUID]models.Vehicle
	visitorPasses   map[uuid.UUID]models.VisitorPass
	passOrder       []uuid.UUID
	serviceRequests map[uuid.UUID]models.ServiceRequest
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		notifications:   make(map[uuid.UUID]models.Notification),
		residents:       make(map[string]models.Resident),
		billing:         make(map[uuid.UUID]models.BillingAccount),
		vehicles:        make(map[uuid.UUID]models.Vehicle),
		visitorPasses:   make(map[uuid.UUID]models.VisitorPass),
		serviceRequests: make(map[uuid.UUID]models.ServiceRequest),
	}
}

func (m *MemoryStore) AppendNotification(n *models.Notification) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if _, exists := m.notifications[n.ID]; exists {
		return uuid.Nil, fmt.Errorf("notification %s: %w", n.ID, ErrAlreadyExists)
	}
	m.notifications[n.ID] = cloneNotification(*n)
	m.notificationOrder = append(m.notificationOrder, n.ID)
	return n.ID, nil
}

func (m *MemoryStore) QueryNotificationsByOwner(userID string) ([]*models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []*models.Notification{}
	for _, id := range m.notificationOrder {
		n := m.notifications[id]
		if n.UserID == userID {
			c := cloneNotification(n)
			result = append(result, &c)
		}
	}
	return result, nil
}

func (m *MemoryStore) UpdateNotification(id uuid.UUID, patch models.NotificationPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notifications[id]
	if !ok {
		return nil
	}
	patch.Apply(&n)
	m.notifications[id] = n
	return nil
}

func cloneNotification(n models.Notification) models.Notification {
	if n.ArchivedAt != nil {
		archived := *n.ArchivedAt
		n.ArchivedAt = &archived
	}
	return n
}

func (m *MemoryStore) CreateResident(r *models.Resident) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.residents[r.ID]; exists {
		return fmt.Errorf("resident %s: %w", r.ID, ErrAlreadyExists)
	}
	m.residents[r.ID] = *r
	m.residentOrder = append(m.residentOrder, r.ID)
	return nil
}

func (m *MemoryStore) GetResident(id string) (*models.Resident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.residents[id]
	if !ok {
		return nil, fmt.Errorf("resident %s: %w", id, ErrNotFound)
	}
	return &r, nil
}

func (m *MemoryStore) ListResidents() ([]*models.Resident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	residents := make([]*models.Resident, 0, len(m.residentOrder))
	for _, id := range m.residentOrder {
		r := m.residents[id]
		residents = append(residents, &r)
	}
	return residents, nil
}

func (m *MemoryStore) CreateBillingAccount(a *models.BillingAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.billing[a.ID] = *a
	m.billingOrder = append(m.billingOrder, a.ID)
	return nil
}

func (m *MemoryStore) GetBillingAccount(id uuid.UUID) (*models.BillingAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.billing[id]
	if !ok {
		return nil, fmt.Errorf("billing account %s: %w", id, ErrNotFound)
	}
	return &a, nil
}

func (m *MemoryStore) UpdateBillingAccount(a *models.BillingAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.billing[a.ID]; !ok {
		return fmt.Errorf("billing account %s: %w", a.ID, ErrNotFound)
	}
	m.billing[a.ID] = *a
	return nil
}

func (m *MemoryStore) DeleteBillingAccount(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.billing[id]; !ok {
		return fmt.Errorf("billing account %s: %w", id, ErrNotFound)
	}
	delete(m.billing, id)
	for i, existing := range m.billingOrder {
		if existing == id {
			m.billingOrder = append(m.billingOrder[:i], m.billingOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) ListBillingAccounts() ([]*models.BillingAccount, error) {
	return m.listBilling(func(*models.BillingAccount) bool { return true }), nil
}

func (m *MemoryStore) ListBillingAccountsByResident(residentID string) ([]*models.BillingAccount, error) {
	return m.listBilling(func(a *models.BillingAccount) bool { return a.ResidentID == residentID }), nil
}

func (m *MemoryStore) listBilling(keep func(*models.BillingAccount) bool) []*models.BillingAccount {
	m.mu.RLock()
	defer m.mu.RUnlock()

	accounts := []*models.BillingAccount{}
	for _, id := range m.billingOrder {
		a := m.billing[id]
		if keep(&a) {
			accounts = append(accounts, &a)
		}
	}
	return accounts
}

func (m *MemoryStore) CreateAnnouncement(a *models.Announcement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.announcements = append(m.announcements, *a)
	return nil
}

// ListAnnouncements returns announcements newest first.
func (m *MemoryStore) ListAnnouncements() ([]*models.Announcement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*models.Announcement, 0, len(m.announcements))
	for i := len(m.announcements) - 1; i >= 0; i-- {
		a := m.announcements[i]
		result = append(result, &a)
	}
	return result, nil
}

func (m *MemoryStore) CreateVehicle(v *models.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.vehicles[v.ID] = *v
	return nil
}

func (m *MemoryStore) GetVehicle(id uuid.UUID) (*models.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("vehicle %s: %w", id, ErrNotFound)
	}
	return &v, nil
}

func (m *MemoryStore) UpdateVehicle(v *models.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.vehicles[v.ID]; !ok {
		return fmt.Errorf("vehicle %s: %w", v.ID, ErrNotFound)
	}
	m.vehicles[v.ID] = *v
	return nil
}

func (m *MemoryStore) CountVehiclePermits() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, v := range m.vehicles {
		if v.PermitNumber != "" {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) CreateVisitorPass(p *models.VisitorPass) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.visitorPasses[p.ID] = *p
	m.passOrder = append(m.passOrder, p.ID)
	return nil
}

func (m *MemoryStore) GetVisitorPass(id uuid.UUID) (*models.VisitorPass, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.visitorPasses[id]
	if !ok {
		return nil, fmt.Errorf("visitor pass %s: %w", id, ErrNotFound)
	}
	return &p, nil
}

func (m *MemoryStore) UpdateVisitorPass(p *models.VisitorPass) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.visitorPasses[p.ID]; !ok {
		return fmt.Errorf("visitor pass %s: %w", p.ID, ErrNotFound)
	}
	m.visitorPasses[p.ID] = *p
	return nil
}

func (m *MemoryStore) ListVisitorPassesByStatus(status models.VisitorPassStatus) ([]*models.VisitorPass, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	passes := []*models.VisitorPass{}
	for _, id := range m.passOrder {
		p := m.visitorPasses[id]
		if p.Status == status {
			passes = append(passes, &p)
		}
	}
	return passes, nil
}

func (m *MemoryStore) CreateServiceRequest(r *models.ServiceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.serviceRequests[r.ID] = *r
	return nil
}

func (m *MemoryStore) GetServiceRequest(id uuid.UUID) (*models.ServiceRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.serviceRequests[id]
	if !ok {
		return nil, fmt.Errorf("service request %s: %w", id, ErrNotFound)
	}
	return &r, nil
}

func (m *MemoryStore) UpdateServiceRequest(r *models.ServiceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.serviceRequests[r.ID]; !ok {
		return fmt.Errorf("service request %s: %w", r.ID, ErrNotFound)
	}
	m.serviceRequests[r.ID] = *r
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
