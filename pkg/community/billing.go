package community

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaportal/pkg/amortization"
	"github.com/mcclellann/hoaportal/pkg/models"
	"github.com/mcclellann/hoaportal/pkg/validation"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const dueDateLayout = "January 2, 2006"

// NewBillingAccount is the input of OpenBillingAccount.
type NewBillingAccount struct {
	ResidentID        string          `json:"resident_id" validate:"required"`
	Description       string          `json:"description"`
	LoanAmount        decimal.Decimal `json:"loan_amount"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	TermYears         int             `json:"term_years"`
	PaymentsMade      int             `json:"payments_made" validate:"gte=0"`
	StartDate         time.Time       `json:"start_date" validate:"required"`
}

// OpenBillingAccount creates a financed assessment for a resident and
// notifies them of the monthly payment.
func (s *Service) OpenBillingAccount(in NewBillingAccount) (*models.BillingStatement, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	payment, err := amortization.ComputeMonthlyPayment(in.LoanAmount, in.AnnualRatePercent, in.TermYears)
	if err != nil {
		return nil, err
	}
	if in.PaymentsMade > in.TermYears*12 {
		return nil, validation.Invalid("payments_made", "must not exceed the number of scheduled payments")
	}
	if _, err := s.storage.GetResident(in.ResidentID); err != nil {
		return nil, err
	}

	now := s.timestamp()
	account := &models.BillingAccount{
		ID:                uuid.New(),
		ResidentID:        in.ResidentID,
		Description:       in.Description,
		LoanAmount:        in.LoanAmount,
		AnnualRatePercent: in.AnnualRatePercent,
		TermYears:         in.TermYears,
		MonthlyPayment:    payment,
		PaymentsMade:      in.PaymentsMade,
		StartDate:         amortization.FirstOfMonth(in.StartDate),
		Status:            models.BillingStatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	statement := buildStatement(account)
	if statement.PaymentsLeft == 0 || statement.RemainingBalance.IsZero() {
		account.Status = models.BillingStatusPaid
	}

	if err := s.storage.CreateBillingAccount(account); err != nil {
		return nil, fmt.Errorf("failed to create billing account: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"account_id":      account.ID,
		"resident_id":     account.ResidentID,
		"monthly_payment": payment.StringFixed(2),
	}).Info("Billing account opened")

	s.notify(account.ResidentID, "New billing account",
		fmt.Sprintf("%s: %s financed over %d years. Your monthly payment is %s.",
			describeAccount(account), account.LoanAmount.StringFixed(2), account.TermYears, payment.StringFixed(2)),
		models.NotificationTypeBilling, billingLink(account.ID))
	return statement, nil
}

func (s *Service) GetBillingStatement(id uuid.UUID) (*models.BillingStatement, error) {
	account, err := s.storage.GetBillingAccount(id)
	if err != nil {
		return nil, err
	}
	return buildStatement(account), nil
}

// ListBillingAccounts returns the accounts of residentID, or every account
// when residentID is empty.
func (s *Service) ListBillingAccounts(residentID string) ([]*models.BillingAccount, error) {
	if residentID == "" {
		return s.storage.ListBillingAccounts()
	}
	return s.storage.ListBillingAccountsByResident(residentID)
}

func (s *Service) DeleteBillingAccount(id uuid.UUID) error {
	if err := s.storage.DeleteBillingAccount(id); err != nil {
		return err
	}
	s.logger.WithField("account_id", id).Info("Billing account deleted")
	return nil
}

// RecordPayment books the next scheduled monthly payment.
func (s *Service) RecordPayment(id uuid.UUID) (*models.BillingStatement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.storage.GetBillingAccount(id)
	if err != nil {
		return nil, err
	}
	if account.Status != models.BillingStatusActive || account.PaymentsMade >= account.TotalPayments() {
		return nil, invalidTransition("billing account", account.ID, string(account.Status), "record a payment on")
	}

	account.PaymentsMade++
	account.UpdatedAt = s.timestamp()
	statement := buildStatement(account)
	if statement.PaymentsLeft == 0 || statement.RemainingBalance.IsZero() {
		account.Status = models.BillingStatusPaid
	}

	if err := s.storage.UpdateBillingAccount(account); err != nil {
		return nil, fmt.Errorf("failed to update billing account: %w", err)
	}

	message := fmt.Sprintf("We received your payment of %s for %s. Remaining balance: %s.",
		account.MonthlyPayment.StringFixed(2), describeAccount(account), statement.RemainingBalance.StringFixed(2))
	if account.Status == models.BillingStatusPaid {
		message = fmt.Sprintf("%s is now paid in full.", describeAccount(account))
	}
	s.notify(account.ResidentID, "Payment received", message, models.NotificationTypeBilling, billingLink(account.ID))
	return statement, nil
}

// SendBillingStatements notifies the owner of every active account of its
// next due payment and returns how many statements were sent.
func (s *Service) SendBillingStatements(now time.Time) (int, error) {
	accounts, err := s.storage.ListBillingAccounts()
	if err != nil {
		return 0, fmt.Errorf("failed to list billing accounts: %w", err)
	}

	sent := 0
	for _, account := range accounts {
		if account.Status != models.BillingStatusActive || account.PaymentsMade >= account.TotalPayments() {
			continue
		}
		statement := buildStatement(account)
		due := account.StartDate.AddDate(0, account.PaymentsMade, 0)
		verb := "is due on"
		if due.Before(amortization.FirstOfMonth(now)) {
			verb = "was due on"
		}
		s.notify(account.ResidentID, "Billing statement",
			fmt.Sprintf("Your payment of %s for %s %s %s. Remaining balance: %s.",
				account.MonthlyPayment.StringFixed(2), describeAccount(account), verb, due.Format(dueDateLayout),
				statement.RemainingBalance.StringFixed(2)),
			models.NotificationTypeBilling, billingLink(account.ID))
		sent++
	}

	s.logger.WithField("statements", sent).Info("Billing statements sent")
	return sent, nil
}

func buildStatement(account *models.BillingAccount) *models.BillingStatement {
	history, balance := amortization.GeneratePaymentHistory(
		account.LoanAmount, account.AnnualRatePercent, account.MonthlyPayment, account.PaymentsMade, account.StartDate)
	left := account.TotalPayments() - account.PaymentsMade
	if left < 0 {
		left = 0
	}
	return &models.BillingStatement{
		Account:          account,
		PaymentHistory:   history,
		RemainingBalance: balance,
		PaymentsLeft:     left,
	}
}

func describeAccount(a *models.BillingAccount) string {
	if a.Description != "" {
		return a.Description
	}
	return "your billing account"
}

func billingLink(id uuid.UUID) string {
	return "/billing/" + id.String()
}
