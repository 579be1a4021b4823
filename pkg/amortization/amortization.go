// Package amortization computes fixed-rate monthly payments and the
// payment-history ledger of a billing account.
//
// Currency amounts are rounded to two places, half away from zero
// (decimal.Round).
package amortization

import (
	"time"

	"github.com/mcclellann/hoaportal/pkg/models"
	"github.com/mcclellann/hoaportal/pkg/validation"
	"github.com/shopspring/decimal"
)

const (
	monthsPerYear  = 12
	currencyPlaces = 2
	// intermediate precision for (1+r)^n
	factorPlaces = 20
)

var (
	oneHundred = decimal.NewFromInt(100)
	twelve     = decimal.NewFromInt(monthsPerYear)
)

// Summary is a full amortization view of a set of loan terms.
type Summary struct {
	MonthlyPayment   decimal.Decimal        `json:"monthly_payment"`
	PaymentHistory   []models.PaymentRecord `json:"payment_history"`
	RemainingBalance decimal.Decimal        `json:"remaining_balance"`
	TotalPaid        decimal.Decimal        `json:"total_paid"`
	TotalInterest    decimal.Decimal        `json:"total_interest"`
}

// Validate checks that the terms can be amortized.
func Validate(terms models.LoanTerms) error {
	if !terms.Principal.IsPositive() {
		return validation.Invalid("principal", "must be greater than 0")
	}
	if terms.AnnualRatePercent.IsNegative() {
		return validation.Invalid("annual_rate_percent", "must not be negative")
	}
	if terms.TermYears <= 0 {
		return validation.Invalid("term_years", "must be greater than 0")
	}
	return nil
}

// MonthlyRate converts an annual percentage rate to a monthly fraction.
func MonthlyRate(annualRatePercent decimal.Decimal) decimal.Decimal {
	return annualRatePercent.Div(oneHundred).Div(twelve)
}

// ComputeMonthlyPayment returns the fixed monthly payment that retires
// principal over termYears at annualRatePercent.
func ComputeMonthlyPayment(principal, annualRatePercent decimal.Decimal, termYears int) (decimal.Decimal, error) {
	terms := models.LoanTerms{Principal: principal, AnnualRatePercent: annualRatePercent, TermYears: termYears}
	if err := Validate(terms); err != nil {
		return decimal.Zero, err
	}

	n := termYears * monthsPerYear
	if annualRatePercent.IsZero() {
		return principal.Div(decimal.NewFromInt(int64(n))).Round(currencyPlaces), nil
	}

	r := MonthlyRate(annualRatePercent)
	factor := compound(decimal.NewFromInt(1).Add(r), n)
	payment := principal.Mul(r.Mul(factor)).Div(factor.Sub(decimal.NewFromInt(1)))
	return payment.Round(currencyPlaces), nil
}

// compound raises base to the n-th power, keeping factorPlaces digits
// after each step so the mantissa does not grow with n.
func compound(base decimal.Decimal, n int) decimal.Decimal {
	result := decimal.NewFromInt(1)
	for i := 0; i < n; i++ {
		result = result.Mul(base).Round(factorPlaces)
	}
	return result
}

// GeneratePaymentHistory replays paymentsMade monthly payments starting on
// the first of startDate's month and returns the records and the final
// balance.
//
// A payment after payoff still reports the full principal portion; only the
// balance is clamped at zero.
func GeneratePaymentHistory(principal, annualRatePercent, monthlyPayment decimal.Decimal, paymentsMade int, startDate time.Time) ([]models.PaymentRecord, decimal.Decimal) {
	if paymentsMade <= 0 {
		return []models.PaymentRecord{}, principal
	}

	r := MonthlyRate(annualRatePercent)
	first := FirstOfMonth(startDate)
	balance := principal
	records := make([]models.PaymentRecord, 0, paymentsMade)

	for i := 0; i < paymentsMade; i++ {
		interest := balance.Mul(r).Round(currencyPlaces)
		principalPaid := monthlyPayment.Sub(interest).Round(currencyPlaces)
		balance = decimal.Max(decimal.Zero, balance.Sub(principalPaid).Round(currencyPlaces))

		records = append(records, models.PaymentRecord{
			SequenceNumber:   i + 1,
			PaymentDate:      first.AddDate(0, i, 0),
			AmountPaid:       monthlyPayment,
			PrincipalPaid:    principalPaid,
			InterestPaid:     interest,
			RemainingBalance: balance,
		})
	}
	return records, balance
}

// RemainingBalance returns the balance after the last record, or principal
// when nothing has been paid.
func RemainingBalance(history []models.PaymentRecord, principal decimal.Decimal) decimal.Decimal {
	if len(history) == 0 {
		return principal
	}
	return history[len(history)-1].RemainingBalance
}

// Schedule validates terms and derives the monthly payment, the history of
// paymentsMade payments from start and the totals.
func Schedule(terms models.LoanTerms, paymentsMade int, start time.Time) (*Summary, error) {
	payment, err := ComputeMonthlyPayment(terms.Principal, terms.AnnualRatePercent, terms.TermYears)
	if err != nil {
		return nil, err
	}

	history, balance := GeneratePaymentHistory(terms.Principal, terms.AnnualRatePercent, payment, paymentsMade, start)
	summary := &Summary{
		MonthlyPayment:   payment,
		PaymentHistory:   history,
		RemainingBalance: balance,
		TotalPaid:        decimal.Zero,
		TotalInterest:    decimal.Zero,
	}
	for _, rec := range history {
		summary.TotalPaid = summary.TotalPaid.Add(rec.AmountPaid)
		summary.TotalInterest = summary.TotalInterest.Add(rec.InterestPaid)
	}
	return summary, nil
}

// FirstOfMonth truncates t to midnight on the first day of its month.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
