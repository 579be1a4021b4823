package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mcclellann/hoaportal/pkg/community"
	"github.com/mcclellann/hoaportal/pkg/notification"
	"github.com/mcclellann/hoaportal/pkg/store"
	"github.com/mcclellann/hoaportal/pkg/validation"
	"github.com/sirupsen/logrus"
)

// userHeader carries the id of the signed-in user. Session handling lives
// in front of this service.
const userHeader = "X-User-ID"

// Server holds the portal services.
type Server struct {
	community     *community.Service
	notifications *notification.Service
	storage       store.Storage // Keep a reference to the storage to close it
	logger        *logrus.Logger
}

func NewServer(s store.Storage, logger *logrus.Logger, dispatchers ...notification.Dispatcher) *Server {
	notifications := notification.NewService(s, logger, dispatchers...)
	return &Server{
		community:     community.NewService(s, notifications, logger),
		notifications: notifications,
		storage:       s,
		logger:        logger,
	}
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.logRequests)

	router.HandleFunc("/notifications", s.listNotificationsHandler).Methods("GET")
	router.HandleFunc("/notifications/unread-count", s.unreadCountHandler).Methods("GET")
	router.HandleFunc("/notifications/read-all", s.markAllAsReadHandler).Methods("POST")
	router.HandleFunc("/notifications/{id}/read", s.markAsReadHandler).Methods("POST")
	router.HandleFunc("/notifications/{id}/archive", s.archiveNotificationHandler).Methods("POST")

	router.HandleFunc("/billing/quote", s.quoteHandler).Methods("POST")
	router.HandleFunc("/billing/statements", s.sendStatementsHandler).Methods("POST")
	router.HandleFunc("/billing/accounts", s.listBillingAccountsHandler).Methods("GET")
	router.HandleFunc("/billing/accounts", s.openBillingAccountHandler).Methods("POST")
	router.HandleFunc("/billing/accounts/{id}", s.getBillingStatementHandler).Methods("GET")
	router.HandleFunc("/billing/accounts/{id}", s.deleteBillingAccountHandler).Methods("DELETE")
	router.HandleFunc("/billing/accounts/{id}/payments", s.recordPaymentHandler).Methods("POST")

	router.HandleFunc("/residents", s.listResidentsHandler).Methods("GET")
	router.HandleFunc("/residents", s.registerResidentHandler).Methods("POST")
	router.HandleFunc("/residents/{id}", s.getResidentHandler).Methods("GET")

	router.HandleFunc("/announcements", s.listAnnouncementsHandler).Methods("GET")
	router.HandleFunc("/announcements", s.postAnnouncementHandler).Methods("POST")

	router.HandleFunc("/vehicles", s.registerVehicleHandler).Methods("POST")
	router.HandleFunc("/vehicles/{id}/approve", s.approveVehicleHandler).Methods("POST")
	router.HandleFunc("/vehicles/{id}/reject", s.rejectVehicleHandler).Methods("POST")

	router.HandleFunc("/visitor-passes", s.requestVisitorPassHandler).Methods("POST")
	router.HandleFunc("/visitor-passes/expire", s.expireVisitorPassesHandler).Methods("POST")
	router.HandleFunc("/visitor-passes/{id}/{action:approve|deny|revoke}", s.visitorPassActionHandler).Methods("POST")

	router.HandleFunc("/service-requests", s.openServiceRequestHandler).Methods("POST")
	router.HandleFunc("/service-requests/{id}/status", s.updateServiceRequestHandler).Methods("POST")

	router.HandleFunc("/documents/{id}/comments", s.commentOnDocumentHandler).Methods("POST")

	return router
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"user_id":  r.Header.Get(userHeader),
			"duration": time.Since(start),
		}).Debug("Request handled")
	})
}

// currentUser returns the signed-in user id, writing a 401 when it is absent.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		http.Error(w, "Missing "+userHeader+" header", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func pathID(w http.ResponseWriter, r *http.Request, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid "+what+" ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case validation.IsInvalidInput(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, community.ErrInvalidTransition), errors.Is(err, store.ErrAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		s.logger.WithError(err).Error("Request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
