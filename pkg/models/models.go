package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanTerms are the inputs of the amortization engine.
type LoanTerms struct {
	Principal         decimal.Decimal `json:"principal"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	TermYears         int             `json:"term_years"`
}

// PaymentRecord is one elapsed month of a payment history.
type PaymentRecord struct {
	SequenceNumber   int             `json:"sequence_number"`
	PaymentDate      time.Time       `json:"payment_date"`
	AmountPaid       decimal.Decimal `json:"amount_paid"`
	PrincipalPaid    decimal.Decimal `json:"principal_paid"`
	InterestPaid     decimal.Decimal `json:"interest_paid"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

type BillingStatus string

const (
	BillingStatusActive BillingStatus = "active"
	BillingStatusPaid   BillingStatus = "paid"
)

// BillingAccount is a resident's financed assessment (a special assessment,
// a lot loan, etc.). Payment history is derived, never stored.
type BillingAccount struct {
	ID                uuid.UUID       `json:"id"`
	ResidentID        string          `json:"resident_id"`
	Description       string          `json:"description"`
	LoanAmount        decimal.Decimal `json:"loan_amount"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	TermYears         int             `json:"term_years"`
	MonthlyPayment    decimal.Decimal `json:"monthly_payment"`
	PaymentsMade      int             `json:"payments_made"`
	StartDate         time.Time       `json:"start_date"`
	Status            BillingStatus   `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Terms returns the loan terms of the account.
func (a *BillingAccount) Terms() LoanTerms {
	return LoanTerms{
		Principal:         a.LoanAmount,
		AnnualRatePercent: a.AnnualRatePercent,
		TermYears:         a.TermYears,
	}
}

// TotalPayments is the number of scheduled monthly payments.
func (a *BillingAccount) TotalPayments() int {
	return a.TermYears * 12
}

// BillingStatement is a billing account with its derived ledger.
type BillingStatement struct {
	Account          *BillingAccount `json:"account"`
	PaymentHistory   []PaymentRecord `json:"payment_history"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	PaymentsLeft     int             `json:"payments_left"`
}
