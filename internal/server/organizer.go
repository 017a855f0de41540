package server

import (
	"net/http"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/report"
)

func (s *Server) handleListGuests(w http.ResponseWriter, r *http.Request) {
	list, err := s.guests.List(r.Context(), organizerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Guest{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddGuest(w http.ResponseWriter, r *http.Request) {
	var in models.GuestInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.guests.Add(r.Context(), organizerID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleGetGuest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.guests.Get(r.Context(), organizerID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleUpdateGuest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.GuestInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.guests.Update(r.Context(), organizerID(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleDeleteGuest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.guests.Delete(r.Context(), organizerID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateInvitation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	inv, err := s.invitations.CreateAndSend(r.Context(), organizerID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	share, err := s.invitations.GetOrCreate(r.Context(), organizerID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, share)
}

func (s *Server) handleSendWhatsApp(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	share, err := s.invitations.SendWhatsApp(r.Context(), organizerID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, share)
}

func (s *Server) handleListInvitations(w http.ResponseWriter, r *http.Request) {
	list, err := s.invitations.List(r.Context(), organizerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.InvitationDetail{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleResend(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := s.invitations.Resend(r.Context(), organizerID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.Build(r.Context(), organizerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleResponses(w http.ResponseWriter, r *http.Request) {
	filter, err := report.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.reports.Responses(r.Context(), organizerID(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.ResponseDetail{}
	}
	writeJSON(w, http.StatusOK, list)
}
