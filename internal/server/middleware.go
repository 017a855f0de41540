package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

// OrganizerHeader carries the organizer id established by the upstream
// auth layer.
const OrganizerHeader = "X-Organizer-ID"

type contextKey string

const organizerContextKey contextKey = "organizer"

// OrganizerFromContext returns the organizer resolved by requireOrganizer
func OrganizerFromContext(ctx context.Context) (*models.Organizer, bool) {
	org, ok := ctx.Value(organizerContextKey).(*models.Organizer)
	return org, ok
}

func (s *Server) requireOrganizer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(OrganizerHeader)
		if raw == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing " + OrganizerHeader + " header"})
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid " + OrganizerHeader + " header"})
			return
		}

		org, err := s.accounts.Get(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unknown organizer"})
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), organizerContextKey, org)
		ctx = zerolog.Ctx(ctx).With().Str("organizer_id", org.ID.String()).Logger().WithContext(ctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func organizerID(r *http.Request) uuid.UUID {
	org, _ := OrganizerFromContext(r.Context())
	return org.ID
}
