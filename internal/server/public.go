package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"wedding-rsvp/internal/accounts"
	"wedding-rsvp/internal/links"
	"wedding-rsvp/internal/models"
)

type rsvpPage struct {
	*models.InvitationLookup
	Wedding links.Wedding `json:"wedding"`
}

func (s *Server) handleGetRSVP(w http.ResponseWriter, r *http.Request) {
	lookup, err := s.rsvp.Open(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rsvpPage{InvitationLookup: lookup, Wedding: s.wedding})
}

func (s *Server) handleSubmitRSVP(w http.ResponseWriter, r *http.Request) {
	var form models.RSVPForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := s.rsvp.SubmitByToken(r.Context(), mux.Vars(r)["token"], form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg accounts.Registration
	if err := decodeJSON(r, &reg); err != nil {
		writeError(w, r, err)
		return
	}
	org, err := s.accounts.Register(r.Context(), reg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, org)
}
