// Package server exposes the guest list, invitations and RSVP intake as a
// JSON HTTP API.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"wedding-rsvp/internal/accounts"
	"wedding-rsvp/internal/guests"
	"wedding-rsvp/internal/invitation"
	"wedding-rsvp/internal/links"
	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/report"
	"wedding-rsvp/internal/rsvp"
)

// Services are the application services the API routes to
type Services struct {
	Accounts    *accounts.Service
	Guests      *guests.Service
	Invitations *invitation.Service
	RSVP        *rsvp.Service
	Reports     *report.Service
}

type Server struct {
	accounts    *accounts.Service
	guests      *guests.Service
	invitations *invitation.Service
	rsvp        *rsvp.Service
	reports     *report.Service
	wedding     links.Wedding
	router      *mux.Router
}

// New builds the router. corsOrigins lists the browser origins allowed to
// call the API.
func New(svc Services, wedding links.Wedding, corsOrigins []string, log zerolog.Logger) http.Handler {
	s := &Server{
		accounts:    svc.Accounts,
		guests:      svc.Guests,
		invitations: svc.Invitations,
		rsvp:        svc.RSVP,
		reports:     svc.Reports,
		wedding:     wedding,
		router:      mux.NewRouter(),
	}
	s.routes()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", OrganizerHeader},
		AllowCredentials: true,
	}).Handler(s.router)

	return logger.Requests(log)(corsHandler)
}

func (s *Server) routes() {
	r := s.router

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	// public
	r.HandleFunc("/api/rsvp/{token}", s.handleGetRSVP).Methods(http.MethodGet)
	r.HandleFunc("/api/rsvp/{token}", s.handleSubmitRSVP).Methods(http.MethodPost)
	r.HandleFunc("/api/accounts", s.handleRegister).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireOrganizer)

	api.HandleFunc("/guests", s.handleListGuests).Methods(http.MethodGet)
	api.HandleFunc("/guests", s.handleAddGuest).Methods(http.MethodPost)
	api.HandleFunc("/guests/{id}", s.handleGetGuest).Methods(http.MethodGet)
	api.HandleFunc("/guests/{id}", s.handleUpdateGuest).Methods(http.MethodPut)
	api.HandleFunc("/guests/{id}", s.handleDeleteGuest).Methods(http.MethodDelete)
	api.HandleFunc("/guests/{id}/invitation", s.handleCreateInvitation).Methods(http.MethodPost)
	api.HandleFunc("/guests/{id}/share", s.handleShare).Methods(http.MethodPost)
	api.HandleFunc("/guests/{id}/whatsapp", s.handleSendWhatsApp).Methods(http.MethodPost)

	api.HandleFunc("/invitations", s.handleListInvitations).Methods(http.MethodGet)
	api.HandleFunc("/invitations/{id}/resend", s.handleResend).Methods(http.MethodPost)

	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/responses", s.handleResponses).Methods(http.MethodGet)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
