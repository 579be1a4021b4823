package main

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaportal/pkg/notification"
)

func (s *Server) listNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	list, err := s.notifications.List(userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) unreadCountHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	count, err := s.notifications.UnreadCount(userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (s *Server) markAllAsReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	updated, err := s.notifications.MarkAllAsRead(userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func (s *Server) markAsReadHandler(w http.ResponseWriter, r *http.Request) {
	s.notificationAction(w, r, s.notifications.MarkAsRead)
}

func (s *Server) archiveNotificationHandler(w http.ResponseWriter, r *http.Request) {
	s.notificationAction(w, r, s.notifications.Archive)
}

// notificationAction runs a per-notification mutation. A soft failure is
// answered with 404 and the result body.
func (s *Server) notificationAction(w http.ResponseWriter, r *http.Request, action func(uuid.UUID, string) (notification.Result, error)) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "notification")
	if !ok {
		return
	}

	result, err := action(id, userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	status := http.StatusOK
	if !result.Success {
		status = http.StatusNotFound
	}
	writeJSON(w, status, result)
}
