package community

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaportal/pkg/models"
	"github.com/mcclellann/hoaportal/pkg/notification"
	"github.com/mcclellann/hoaportal/pkg/store"
	"github.com/mcclellann/hoaportal/pkg/validation"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc           *Service
	notifications *notification.Service
	store         *store.MemoryStore
}

func setup(t *testing.T) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	st := store.NewMemoryStore()
	notifications := notification.NewService(st, logger)
	svc := NewService(st, notifications, logger)
	svc.now = func() time.Time { return fixedNow }

	for _, r := range []NewResident{
		{ID: "admin", Name: "Board", Role: models.ResidentRoleAdmin},
		{ID: "ada", Name: "Ada", Email: "ada@example.com", Unit: "4B"},
		{ID: "bo", Name: "Bo", Unit: "7A"},
	} {
		_, err := svc.RegisterResident(r)
		require.NoError(t, err)
	}
	return &fixture{svc: svc, notifications: notifications, store: st}
}

func (f *fixture) inbox(t *testing.T, userID string) []*models.Notification {
	t.Helper()
	list, err := f.notifications.List(userID)
	require.NoError(t, err)
	return list
}

func TestRegisterResident(t *testing.T) {
	f := setup(t)

	r, err := f.svc.GetResident("bo")
	require.NoError(t, err)
	assert.Equal(t, models.ResidentRoleResident, r.Role)

	_, err = f.svc.RegisterResident(NewResident{ID: "x", Name: "X", Email: "not-an-email"})
	var inputErr *validation.InvalidInputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "email", inputErr.Field)

	_, err = f.svc.RegisterResident(NewResident{ID: "  ", Name: "X"})
	assert.True(t, validation.IsInvalidInput(err))

	_, err = f.svc.GetResident("ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.svc.RegisterResident(NewResident{ID: " ada ", Name: "Other Ada"})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
	r, err = f.svc.GetResident("ada")
	require.NoError(t, err)
	assert.Equal(t, "Ada", r.Name)

	all, err := f.svc.ListResidents()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestOpenBillingAccount(t *testing.T) {
	f := setup(t)

	statement, err := f.svc.OpenBillingAccount(NewBillingAccount{
		ResidentID:        "ada",
		Description:       "Roof assessment",
		LoanAmount:        decimal.NewFromInt(250000),
		AnnualRatePercent: decimal.RequireFromString("3.5"),
		TermYears:         30,
		PaymentsMade:      60,
		StartDate:         time.Date(2019, time.July, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.True(t, statement.Account.MonthlyPayment.Equal(decimal.RequireFromString("1122.61")))
	assert.Len(t, statement.PaymentHistory, 60)
	assert.Equal(t, 300, statement.PaymentsLeft)
	assert.Equal(t, models.BillingStatusActive, statement.Account.Status)

	inbox := f.inbox(t, "ada")
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationTypeBilling, inbox[0].Type)
	assert.Contains(t, inbox[0].Message, "1122.61")

	again, err := f.svc.GetBillingStatement(statement.Account.ID)
	require.NoError(t, err)
	assert.True(t, again.RemainingBalance.Equal(statement.RemainingBalance))
}

func TestOpenBillingAccount_Invalid(t *testing.T) {
	f := setup(t)
	base := NewBillingAccount{
		ResidentID:        "ada",
		LoanAmount:        decimal.NewFromInt(1200),
		AnnualRatePercent: decimal.Zero,
		TermYears:         1,
		StartDate:         fixedNow,
	}

	noPrincipal := base
	noPrincipal.LoanAmount = decimal.Zero
	_, err := f.svc.OpenBillingAccount(noPrincipal)
	assert.True(t, validation.IsInvalidInput(err))

	tooMany := base
	tooMany.PaymentsMade = 13
	_, err = f.svc.OpenBillingAccount(tooMany)
	assert.True(t, validation.IsInvalidInput(err))

	noStart := base
	noStart.StartDate = time.Time{}
	_, err = f.svc.OpenBillingAccount(noStart)
	assert.True(t, validation.IsInvalidInput(err))

	stranger := base
	stranger.ResidentID = "ghost"
	_, err = f.svc.OpenBillingAccount(stranger)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecordPayment_UntilPaid(t *testing.T) {
	f := setup(t)
	statement, err := f.svc.OpenBillingAccount(NewBillingAccount{
		ResidentID:        "bo",
		LoanAmount:        decimal.NewFromInt(1200),
		AnnualRatePercent: decimal.Zero,
		TermYears:         1,
		PaymentsMade:      10,
		StartDate:         time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	id := statement.Account.ID
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), statement.Account.StartDate)

	statement, err = f.svc.RecordPayment(id)
	require.NoError(t, err)
	assert.Equal(t, 11, statement.Account.PaymentsMade)
	assert.True(t, statement.RemainingBalance.Equal(decimal.NewFromInt(100)))

	statement, err = f.svc.RecordPayment(id)
	require.NoError(t, err)
	assert.Equal(t, models.BillingStatusPaid, statement.Account.Status)
	assert.True(t, statement.RemainingBalance.IsZero())
	assert.Zero(t, statement.PaymentsLeft)

	_, err = f.svc.RecordPayment(id)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.RecordPayment(uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)

	inbox := f.inbox(t, "bo")
	require.Len(t, inbox, 3)
	assert.Contains(t, inbox[0].Message, "paid in full")
}

func TestSendBillingStatements(t *testing.T) {
	f := setup(t)
	open := func(resident string, made int) uuid.UUID {
		s, err := f.svc.OpenBillingAccount(NewBillingAccount{
			ResidentID:        resident,
			Description:       "Lot loan",
			LoanAmount:        decimal.NewFromInt(1200),
			AnnualRatePercent: decimal.Zero,
			TermYears:         1,
			PaymentsMade:      made,
			StartDate:         time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		return s.Account.ID
	}
	open("ada", 5)
	open("bo", 12)

	sent, err := f.svc.SendBillingStatements(fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	inbox := f.inbox(t, "ada")
	require.Len(t, inbox, 2)
	assert.Equal(t, "Billing statement", inbox[0].Title)
	assert.Contains(t, inbox[0].Message, "June 1, 2024")
	assert.Contains(t, inbox[0].Message, "700.00")
}

func TestListAndDeleteBillingAccounts(t *testing.T) {
	f := setup(t)
	in := NewBillingAccount{ResidentID: "ada", LoanAmount: decimal.NewFromInt(500), AnnualRatePercent: decimal.Zero, TermYears: 1, StartDate: fixedNow}
	a, err := f.svc.OpenBillingAccount(in)
	require.NoError(t, err)
	in.ResidentID = "bo"
	_, err = f.svc.OpenBillingAccount(in)
	require.NoError(t, err)

	mine, err := f.svc.ListBillingAccounts("ada")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	all, err := f.svc.ListBillingAccounts("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, f.svc.DeleteBillingAccount(a.Account.ID))
	_, err = f.svc.GetBillingStatement(a.Account.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostAnnouncement_FansOut(t *testing.T) {
	f := setup(t)
	event := time.Date(2024, time.July, 4, 18, 0, 0, 0, time.UTC)

	a, err := f.svc.PostAnnouncement(NewAnnouncement{AuthorID: "admin", Title: "Block party", Body: "Bring snacks", EventDate: &event})
	require.NoError(t, err)

	for _, user := range []string{"admin", "ada", "bo"} {
		inbox := f.inbox(t, user)
		require.Len(t, inbox, 1, user)
		assert.Equal(t, models.NotificationTypeAnnouncement, inbox[0].Type)
		assert.Equal(t, "/announcements/"+a.ID.String(), inbox[0].Link)
		assert.Contains(t, inbox[0].Message, "July 4, 2024")
	}

	_, err = f.svc.PostAnnouncement(NewAnnouncement{AuthorID: "admin", Title: "Second", Body: "b"})
	require.NoError(t, err)
	list, err := f.svc.ListAnnouncements()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Second", list[0].Title)

	_, err = f.svc.PostAnnouncement(NewAnnouncement{AuthorID: "admin", Body: "no title"})
	assert.True(t, validation.IsInvalidInput(err))
}

func TestVehicleWorkflow(t *testing.T) {
	f := setup(t)

	v, err := f.svc.RegisterVehicle(NewVehicle{ResidentID: "ada", Plate: " abc123 ", Make: "Volvo"})
	require.NoError(t, err)
	assert.Equal(t, "ABC123", v.Plate)
	assert.Equal(t, models.VehicleStatusPending, v.Status)
	assert.Len(t, f.inbox(t, "admin"), 1)

	approved, err := f.svc.ApproveVehicle(v.ID)
	require.NoError(t, err)
	assert.Equal(t, "PRM-2024-000001", approved.PermitNumber)

	_, err = f.svc.ApproveVehicle(v.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	second, err := f.svc.RegisterVehicle(NewVehicle{ResidentID: "bo", Plate: "XYZ"})
	require.NoError(t, err)
	approved, err = f.svc.ApproveVehicle(second.ID)
	require.NoError(t, err)
	assert.Equal(t, "PRM-2024-000002", approved.PermitNumber)

	inbox := f.inbox(t, "ada")
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationTypeVehicleRegistration, inbox[0].Type)
	assert.Contains(t, inbox[0].Message, "PRM-2024-000001")
}

func TestRejectVehicle(t *testing.T) {
	f := setup(t)
	v, err := f.svc.RegisterVehicle(NewVehicle{ResidentID: "bo", Plate: "BOAT1"})
	require.NoError(t, err)

	_, err = f.svc.RejectVehicle(v.ID, " ")
	assert.True(t, validation.IsInvalidInput(err))

	rejected, err := f.svc.RejectVehicle(v.ID, "commercial vehicles are not allowed")
	require.NoError(t, err)
	assert.Equal(t, models.VehicleStatusRejected, rejected.Status)
	assert.Empty(t, rejected.PermitNumber)

	_, err = f.svc.ApproveVehicle(v.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	inbox := f.inbox(t, "bo")
	require.Len(t, inbox, 1)
	assert.Contains(t, inbox[0].Message, "commercial vehicles")
}

func TestVisitorPassWorkflow(t *testing.T) {
	f := setup(t)
	from := fixedNow
	until := fixedNow.Add(4 * time.Hour)

	_, err := f.svc.RequestVisitorPass(NewVisitorPass{ResidentID: "ada", VisitorName: "Cy", ValidFrom: until, ValidUntil: from})
	var inputErr *validation.InvalidInputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "valid_until", inputErr.Field)

	p, err := f.svc.RequestVisitorPass(NewVisitorPass{ResidentID: "ada", VisitorName: "Cy", ValidFrom: from, ValidUntil: until})
	require.NoError(t, err)
	assert.Equal(t, models.VisitorPassStatusPending, p.Status)

	_, err = f.svc.RevokeVisitorPass(p.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	p, err = f.svc.ApproveVisitorPass(p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorPassStatusApproved, p.Status)

	_, err = f.svc.DenyVisitorPass(p.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	p, err = f.svc.RevokeVisitorPass(p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorPassStatusRevoked, p.Status)

	denied, err := f.svc.RequestVisitorPass(NewVisitorPass{ResidentID: "ada", VisitorName: "Dee", ValidFrom: from, ValidUntil: until})
	require.NoError(t, err)
	denied, err = f.svc.DenyVisitorPass(denied.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorPassStatusDenied, denied.Status)

	inbox := f.inbox(t, "ada")
	require.Len(t, inbox, 3)
	for _, n := range inbox {
		assert.Equal(t, models.NotificationTypeVisitorPass, n.Type)
	}
}

func TestExpireVisitorPasses(t *testing.T) {
	f := setup(t)
	request := func(until time.Time) uuid.UUID {
		p, err := f.svc.RequestVisitorPass(NewVisitorPass{ResidentID: "bo", VisitorName: "Guest", ValidFrom: until.Add(-time.Hour), ValidUntil: until})
		require.NoError(t, err)
		_, err = f.svc.ApproveVisitorPass(p.ID)
		require.NoError(t, err)
		return p.ID
	}
	past := request(fixedNow.Add(-time.Minute))
	future := request(fixedNow.Add(time.Hour))

	expired, err := f.svc.ExpireVisitorPasses(fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	p, err := f.store.GetVisitorPass(past)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorPassStatusExpired, p.Status)
	p, err = f.store.GetVisitorPass(future)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorPassStatusApproved, p.Status)

	expired, err = f.svc.ExpireVisitorPasses(fixedNow)
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestServiceRequestWorkflow(t *testing.T) {
	f := setup(t)
	r, err := f.svc.OpenServiceRequest(NewServiceRequest{ResidentID: "ada", Category: "plumbing", Description: "Leak under sink"})
	require.NoError(t, err)
	assert.Len(t, f.inbox(t, "admin"), 1)

	_, err = f.svc.UpdateServiceRequestStatus(r.ID, models.ServiceRequestStatusResolved, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	for _, next := range []models.ServiceRequestStatus{
		models.ServiceRequestStatusInProgress,
		models.ServiceRequestStatusResolved,
		models.ServiceRequestStatusClosed,
	} {
		r, err = f.svc.UpdateServiceRequestStatus(r.ID, next, "")
		require.NoError(t, err)
		assert.Equal(t, next, r.Status)
	}

	_, err = f.svc.UpdateServiceRequestStatus(r.ID, models.ServiceRequestStatusOpen, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	inbox := f.inbox(t, "ada")
	require.Len(t, inbox, 3)
	assert.Contains(t, inbox[2].Message, "in progress")

	quick, err := f.svc.OpenServiceRequest(NewServiceRequest{ResidentID: "bo", Category: "noise", Description: "Loud party"})
	require.NoError(t, err)
	quick, err = f.svc.UpdateServiceRequestStatus(quick.ID, models.ServiceRequestStatusClosed, "Duplicate of an earlier report")
	require.NoError(t, err)
	assert.Equal(t, "Duplicate of an earlier report", quick.Note)
}

func TestCommentOnDocument(t *testing.T) {
	f := setup(t)

	n, err := f.svc.CommentOnDocument(DocumentComment{DocumentID: "bylaws", DocumentTitle: "Bylaws", OwnerID: "admin", CommenterID: "ada", CommenterName: "Ada", Body: "Section 4 is unclear"})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "admin", n.UserID)
	assert.Equal(t, models.NotificationTypeDocumentComment, n.Type)
	assert.Equal(t, "/documents/bylaws", n.Link)

	own, err := f.svc.CommentOnDocument(DocumentComment{DocumentID: "bylaws", OwnerID: "admin", CommenterID: "admin", Body: "Fixed"})
	require.NoError(t, err)
	assert.Nil(t, own)
	assert.Len(t, f.inbox(t, "admin"), 1)

	_, err = f.svc.CommentOnDocument(DocumentComment{DocumentID: "bylaws", OwnerID: "admin", CommenterID: "ada"})
	assert.True(t, validation.IsInvalidInput(err))
}
