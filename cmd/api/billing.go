package main

import (
	"net/http"
	"time"

	"github.com/mcclellann/hoaportal/pkg/amortization"
	"github.com/mcclellann/hoaportal/pkg/community"
	"github.com/mcclellann/hoaportal/pkg/models"
	"github.com/shopspring/decimal"
)

// quoteHandler amortizes arbitrary terms without storing anything.
func (s *Server) quoteHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Principal         decimal.Decimal `json:"principal"`
		AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
		TermYears         int             `json:"term_years"`
		PaymentsMade      int             `json:"payments_made"`
		StartDate         time.Time       `json:"start_date"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.StartDate.IsZero() {
		req.StartDate = time.Now().UTC()
	}

	terms := models.LoanTerms{Principal: req.Principal, AnnualRatePercent: req.AnnualRatePercent, TermYears: req.TermYears}
	summary, err := amortization.Schedule(terms, req.PaymentsMade, req.StartDate)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) openBillingAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req community.NewBillingAccount
	if !decode(w, r, &req) {
		return
	}
	statement, err := s.community.OpenBillingAccount(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, statement)
}

func (s *Server) listBillingAccountsHandler(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.community.ListBillingAccounts(r.URL.Query().Get("resident_id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) getBillingStatementHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "billing account")
	if !ok {
		return
	}
	statement, err := s.community.GetBillingStatement(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statement)
}

func (s *Server) deleteBillingAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "billing account")
	if !ok {
		return
	}
	if err := s.community.DeleteBillingAccount(id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) recordPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "billing account")
	if !ok {
		return
	}
	statement, err := s.community.RecordPayment(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, statement)
}

func (s *Server) sendStatementsHandler(w http.ResponseWriter, r *http.Request) {
	sent, err := s.community.SendBillingStatements(time.Now().UTC())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}
