package main

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mcclellann/hoaportal/pkg/community"
	"github.com/mcclellann/hoaportal/pkg/models"
)

func (s *Server) registerResidentHandler(w http.ResponseWriter, r *http.Request) {
	var req community.NewResident
	if !decode(w, r, &req) {
		return
	}
	resident, err := s.community.RegisterResident(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resident)
}

func (s *Server) listResidentsHandler(w http.ResponseWriter, r *http.Request) {
	residents, err := s.community.ListResidents()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, residents)
}

func (s *Server) getResidentHandler(w http.ResponseWriter, r *http.Request) {
	resident, err := s.community.GetResident(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resident)
}

func (s *Server) postAnnouncementHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req community.NewAnnouncement
	if !decode(w, r, &req) {
		return
	}
	req.AuthorID = userID

	announcement, err := s.community.PostAnnouncement(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, announcement)
}

func (s *Server) listAnnouncementsHandler(w http.ResponseWriter, r *http.Request) {
	announcements, err := s.community.ListAnnouncements()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, announcements)
}

func (s *Server) registerVehicleHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req community.NewVehicle
	if !decode(w, r, &req) {
		return
	}
	req.ResidentID = userID

	vehicle, err := s.community.RegisterVehicle(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, vehicle)
}

func (s *Server) approveVehicleHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "vehicle")
	if !ok {
		return
	}
	vehicle, err := s.community.ApproveVehicle(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

func (s *Server) rejectVehicleHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "vehicle")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if !decode(w, r, &req) {
		return
	}
	vehicle, err := s.community.RejectVehicle(id, req.Reason)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

func (s *Server) requestVisitorPassHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req community.NewVisitorPass
	if !decode(w, r, &req) {
		return
	}
	req.ResidentID = userID

	pass, err := s.community.RequestVisitorPass(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pass)
}

func (s *Server) visitorPassActionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "visitor pass")
	if !ok {
		return
	}

	var (
		pass *models.VisitorPass
		err  error
	)
	switch mux.Vars(r)["action"] {
	case "approve":
		pass, err = s.community.ApproveVisitorPass(id)
	case "deny":
		pass, err = s.community.DenyVisitorPass(id)
	case "revoke":
		pass, err = s.community.RevokeVisitorPass(id)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pass)
}

func (s *Server) expireVisitorPassesHandler(w http.ResponseWriter, r *http.Request) {
	expired, err := s.community.ExpireVisitorPasses(time.Now().UTC())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"expired": expired})
}

func (s *Server) openServiceRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req community.NewServiceRequest
	if !decode(w, r, &req) {
		return
	}
	req.ResidentID = userID

	request, err := s.community.OpenServiceRequest(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

func (s *Server) updateServiceRequestHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "service request")
	if !ok {
		return
	}
	var req struct {
		Status models.ServiceRequestStatus `json:"status"`
		Note   string                      `json:"note"`
	}
	if !decode(w, r, &req) {
		return
	}
	request, err := s.community.UpdateServiceRequestStatus(id, req.Status, req.Note)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

func (s *Server) commentOnDocumentHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req community.DocumentComment
	if !decode(w, r, &req) {
		return
	}
	req.DocumentID = mux.Vars(r)["id"]
	req.CommenterID = userID

	n, err := s.community.CommentOnDocument(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"owner_notified": n != nil})
}
