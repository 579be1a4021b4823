package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/mcclellann/hoaportal/pkg/models"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// SQLStore implements Storage over database/sql. Queries are written with
// '?' placeholders and rebound for Postgres.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

func newSQLStore(db *sql.DB, d dialect) *SQLStore {
	return &SQLStore{db: db, dialect: d}
}

func (s *SQLStore) initSchema() error {
	schema := sqliteSchema
	if s.dialect == dialectPostgres {
		schema = postgresSchema
	}
	_, err := s.db.Exec(schema)
	return err
}

// rebind rewrites '?' placeholders to '$1', '$2', ... for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) exec(query string, args ...any) (sql.Result, error) {
	return s.db.Exec(s.rebind(query), args...)
}

func (s *SQLStore) query(query string, args ...any) (*sql.Rows, error) {
	return s.db.Query(s.rebind(query), args...)
}

func (s *SQLStore) queryRow(query string, args ...any) *sql.Row {
	return s.db.QueryRow(s.rebind(query), args...)
}

// execOne runs an UPDATE/DELETE and reports ErrNotFound when no row matched.
func (s *SQLStore) execOne(what string, query string, args ...any) error {
	result, err := s.exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", what, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// --- notifications ---

const notificationColumns = `id, user_id, title, message, type, link, is_read, created_at, archived_at`

func (s *SQLStore) AppendNotification(n *models.Notification) (uuid.UUID, error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	_, err := s.exec(
		`INSERT INTO notifications (`+notificationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID.String(), n.UserID, n.Title, n.Message, string(n.Type), n.Link, n.IsRead, n.CreatedAt, n.ArchivedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to append notification: %w", err)
	}
	return n.ID, nil
}

func (s *SQLStore) QueryNotificationsByOwner(userID string) ([]*models.Notification, error) {
	rows, err := s.query(`SELECT `+notificationColumns+` FROM notifications WHERE user_id = ? ORDER BY seq ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications for %s: %w", userID, err)
	}
	defer rows.Close()

	notifications := []*models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during notification rows iteration: %w", err)
	}
	return notifications, nil
}

func scanNotification(row scanner) (*models.Notification, error) {
	var n models.Notification
	var typ string
	var archived sql.NullTime
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &typ, &n.Link, &n.IsRead, &n.CreatedAt, &archived); err != nil {
		return nil, fmt.Errorf("failed to scan notification row: %w", err)
	}
	n.Type = models.NotificationType(typ)
	n.ArchivedAt = nullTimePtr(archived)
	return &n, nil
}

func (s *SQLStore) UpdateNotification(id uuid.UUID, patch models.NotificationPatch) error {
	var sets []string
	var args []any
	if patch.IsRead != nil {
		sets = append(sets, "is_read = ?")
		args = append(args, *patch.IsRead)
	}
	if patch.ArchivedAt != nil {
		sets = append(sets, "archived_at = ?")
		args = append(args, *patch.ArchivedAt)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id.String())

	// A missing id is not an error for notifications.
	if _, err := s.exec(`UPDATE notifications SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
		return fmt.Errorf("failed to update notification %s: %w", id, err)
	}
	return nil
}

// --- residents ---

const residentColumns = `id, name, email, unit, telegram_chat_id, role, created_at`

func (s *SQLStore) CreateResident(r *models.Resident) error {
	_, err := s.exec(
		`INSERT INTO residents (`+residentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Email, r.Unit, r.TelegramChatID, string(r.Role), r.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("resident %s: %w", r.ID, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create resident: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure from
// either driver.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func (s *SQLStore) GetResident(id string) (*models.Resident, error) {
	row := s.queryRow(`SELECT `+residentColumns+` FROM residents WHERE id = ?`, id)
	r, err := scanResident(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resident %s: %w", id, ErrNotFound)
	}
	return r, err
}

func (s *SQLStore) ListResidents() ([]*models.Resident, error) {
	rows, err := s.query(`SELECT ` + residentColumns + ` FROM residents ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list residents: %w", err)
	}
	defer rows.Close()

	residents := []*models.Resident{}
	for rows.Next() {
		r, err := scanResident(rows)
		if err != nil {
			return nil, err
		}
		residents = append(residents, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during resident rows iteration: %w", err)
	}
	return residents, nil
}

func scanResident(row scanner) (*models.Resident, error) {
	var r models.Resident
	var role string
	if err := row.Scan(&r.ID, &r.Name, &r.Email, &r.Unit, &r.TelegramChatID, &role, &r.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan resident row: %w", err)
	}
	r.Role = models.ResidentRole(role)
	return &r, nil
}

// --- billing accounts ---

const billingColumns = `id, resident_id, description, loan_amount, annual_rate_percent, term_years, monthly_payment, payments_made, start_date, status, created_at, updated_at`

func (s *SQLStore) CreateBillingAccount(a *models.BillingAccount) error {
	_, err := s.exec(
		`INSERT INTO billing_accounts (`+billingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.ResidentID, a.Description, a.LoanAmount, a.AnnualRatePercent, a.TermYears,
		a.MonthlyPayment, a.PaymentsMade, a.StartDate, string(a.Status), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create billing account: %w", err)
	}
	return nil
}

func (s *SQLStore) GetBillingAccount(id uuid.UUID) (*models.BillingAccount, error) {
	row := s.queryRow(`SELECT `+billingColumns+` FROM billing_accounts WHERE id = ?`, id.String())
	a, err := scanBillingAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("billing account %s: %w", id, ErrNotFound)
	}
	return a, err
}

func (s *SQLStore) UpdateBillingAccount(a *models.BillingAccount) error {
	return s.execOne("billing account "+a.ID.String(),
		`UPDATE billing_accounts SET resident_id = ?, description = ?, loan_amount = ?, annual_rate_percent = ?, term_years = ?, monthly_payment = ?, payments_made = ?, start_date = ?, status = ?, updated_at = ? WHERE id = ?`,
		a.ResidentID, a.Description, a.LoanAmount, a.AnnualRatePercent, a.TermYears, a.MonthlyPayment,
		a.PaymentsMade, a.StartDate, string(a.Status), a.UpdatedAt, a.ID.String(),
	)
}

func (s *SQLStore) DeleteBillingAccount(id uuid.UUID) error {
	return s.execOne("billing account "+id.String(), `DELETE FROM billing_accounts WHERE id = ?`, id.String())
}

func (s *SQLStore) ListBillingAccounts() ([]*models.BillingAccount, error) {
	return s.listBillingAccounts(`SELECT ` + billingColumns + ` FROM billing_accounts ORDER BY seq ASC`)
}

func (s *SQLStore) ListBillingAccountsByResident(residentID string) ([]*models.BillingAccount, error) {
	return s.listBillingAccounts(`SELECT `+billingColumns+` FROM billing_accounts WHERE resident_id = ? ORDER BY seq ASC`, residentID)
}

func (s *SQLStore) listBillingAccounts(query string, args ...any) ([]*models.BillingAccount, error) {
	rows, err := s.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list billing accounts: %w", err)
	}
	defer rows.Close()

	accounts := []*models.BillingAccount{}
	for rows.Next() {
		a, err := scanBillingAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during billing rows iteration: %w", err)
	}
	return accounts, nil
}

func scanBillingAccount(row scanner) (*models.BillingAccount, error) {
	var a models.BillingAccount
	var status string
	err := row.Scan(&a.ID, &a.ResidentID, &a.Description, &a.LoanAmount, &a.AnnualRatePercent, &a.TermYears,
		&a.MonthlyPayment, &a.PaymentsMade, &a.StartDate, &status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan billing account row: %w", err)
	}
	a.Status = models.BillingStatus(status)
	return &a, nil
}

// --- announcements ---

func (s *SQLStore) CreateAnnouncement(a *models.Announcement) error {
	_, err := s.exec(
		`INSERT INTO announcements (id, author_id, title, body, event_date, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.AuthorID, a.Title, a.Body, a.EventDate, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create announcement: %w", err)
	}
	return nil
}

func (s *SQLStore) ListAnnouncements() ([]*models.Announcement, error) {
	rows, err := s.query(`SELECT id, author_id, title, body, event_date, created_at FROM announcements ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	defer rows.Close()

	announcements := []*models.Announcement{}
	for rows.Next() {
		var a models.Announcement
		var eventDate sql.NullTime
		if err := rows.Scan(&a.ID, &a.AuthorID, &a.Title, &a.Body, &eventDate, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan announcement row: %w", err)
		}
		a.EventDate = nullTimePtr(eventDate)
		announcements = append(announcements, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during announcement rows iteration: %w", err)
	}
	return announcements, nil
}

// --- vehicles ---

const vehicleColumns = `id, resident_id, plate, make, model, color, status, permit_number, rejection_reason, created_at, updated_at`

func (s *SQLStore) CreateVehicle(v *models.Vehicle) error {
	_, err := s.exec(
		`INSERT INTO vehicles (`+vehicleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID.String(), v.ResidentID, v.Plate, v.Make, v.Model, v.Color, string(v.Status),
		v.PermitNumber, v.RejectionReason, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}
	return nil
}

func (s *SQLStore) GetVehicle(id uuid.UUID) (*models.Vehicle, error) {
	var v models.Vehicle
	var status string
	err := s.queryRow(`SELECT `+vehicleColumns+` FROM vehicles WHERE id = ?`, id.String()).Scan(
		&v.ID, &v.ResidentID, &v.Plate, &v.Make, &v.Model, &v.Color, &status,
		&v.PermitNumber, &v.RejectionReason, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("vehicle %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	v.Status = models.VehicleStatus(status)
	return &v, nil
}

func (s *SQLStore) UpdateVehicle(v *models.Vehicle) error {
	return s.execOne("vehicle "+v.ID.String(),
		`UPDATE vehicles SET plate = ?, make = ?, model = ?, color = ?, status = ?, permit_number = ?, rejection_reason = ?, updated_at = ? WHERE id = ?`,
		v.Plate, v.Make, v.Model, v.Color, string(v.Status), v.PermitNumber, v.RejectionReason, v.UpdatedAt, v.ID.String(),
	)
}

func (s *SQLStore) CountVehiclePermits() (int, error) {
	var count int
	if err := s.queryRow(`SELECT COUNT(*) FROM vehicles WHERE permit_number <> ''`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count vehicle permits: %w", err)
	}
	return count, nil
}

// --- visitor passes ---

const visitorPassColumns = `id, resident_id, visitor_name, plate, valid_from, valid_until, status, created_at, updated_at`

func (s *SQLStore) CreateVisitorPass(p *models.VisitorPass) error {
	_, err := s.exec(
		`INSERT INTO visitor_passes (`+visitorPassColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.ResidentID, p.VisitorName, p.Plate, p.ValidFrom, p.ValidUntil, string(p.Status), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create visitor pass: %w", err)
	}
	return nil
}

func (s *SQLStore) GetVisitorPass(id uuid.UUID) (*models.VisitorPass, error) {
	p, err := scanVisitorPass(s.queryRow(`SELECT `+visitorPassColumns+` FROM visitor_passes WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("visitor pass %s: %w", id, ErrNotFound)
	}
	return p, err
}

func (s *SQLStore) UpdateVisitorPass(p *models.VisitorPass) error {
	return s.execOne("visitor pass "+p.ID.String(),
		`UPDATE visitor_passes SET visitor_name = ?, plate = ?, valid_from = ?, valid_until = ?, status = ?, updated_at = ? WHERE id = ?`,
		p.VisitorName, p.Plate, p.ValidFrom, p.ValidUntil, string(p.Status), p.UpdatedAt, p.ID.String(),
	)
}

func (s *SQLStore) ListVisitorPassesByStatus(status models.VisitorPassStatus) ([]*models.VisitorPass, error) {
	rows, err := s.query(`SELECT `+visitorPassColumns+` FROM visitor_passes WHERE status = ? ORDER BY seq ASC`, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list visitor passes: %w", err)
	}
	defer rows.Close()

	passes := []*models.VisitorPass{}
	for rows.Next() {
		p, err := scanVisitorPass(rows)
		if err != nil {
			return nil, err
		}
		passes = append(passes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during visitor pass rows iteration: %w", err)
	}
	return passes, nil
}

func scanVisitorPass(row scanner) (*models.VisitorPass, error) {
	var p models.VisitorPass
	var status string
	err := row.Scan(&p.ID, &p.ResidentID, &p.VisitorName, &p.Plate, &p.ValidFrom, &p.ValidUntil, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan visitor pass row: %w", err)
	}
	p.Status = models.VisitorPassStatus(status)
	return &p, nil
}

// --- service requests ---

const serviceRequestColumns = `id, resident_id, category, description, status, note, created_at, updated_at`

func (s *SQLStore) CreateServiceRequest(r *models.ServiceRequest) error {
	_, err := s.exec(
		`INSERT INTO service_requests (`+serviceRequestColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.ResidentID, r.Category, r.Description, string(r.Status), r.Note, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create service request: %w", err)
	}
	return nil
}

func (s *SQLStore) GetServiceRequest(id uuid.UUID) (*models.ServiceRequest, error) {
	var r models.ServiceRequest
	var status string
	err := s.queryRow(`SELECT `+serviceRequestColumns+` FROM service_requests WHERE id = ?`, id.String()).Scan(
		&r.ID, &r.ResidentID, &r.Category, &r.Description, &status, &r.Note, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("service request %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get service request: %w", err)
	}
	r.Status = models.ServiceRequestStatus(status)
	return &r, nil
}

func (s *SQLStore) UpdateServiceRequest(r *models.ServiceRequest) error {
	return s.execOne("service request "+r.ID.String(),
		`UPDATE service_requests SET category = ?, description = ?, status = ?, note = ?, updated_at = ? WHERE id = ?`,
		r.Category, r.Description, string(r.Status), r.Note, r.UpdatedAt, r.ID.String(),
	)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
