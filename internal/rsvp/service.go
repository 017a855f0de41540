// Package rsvp records guest answers submitted through a tokenized link.
package rsvp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

// Store is the persistence RSVP intake needs
type Store interface {
	storage.InvitationStore
	storage.ResponseStore
}

type Service struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With().Str("component", "rsvp").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces time.Now, for tests
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Lookup resolves a token to the invitation, guest and any earlier answer
func (s *Service) Lookup(ctx context.Context, token string) (*models.InvitationLookup, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("invitation: %w", storage.ErrNotFound)
	}
	lookup, err := s.store.LookupToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up invitation: %w", err)
	}
	return lookup, nil
}

// Open marks a sent invitation as opened and returns the lookup, as the
// public page does when it first renders.
func (s *Service) Open(ctx context.Context, token string) (*models.InvitationLookup, error) {
	lookup, err := s.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	opened, err := s.store.MarkInvitationOpened(ctx, lookup.Token, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to mark invitation opened: %w", err)
	}
	if opened {
		lookup.Status = models.StatusOpened
		s.logger.Debug().Str("invitation_id", lookup.InvitationID.String()).Msg("Invitation opened")
	}
	return lookup, nil
}

// Submit stores the answer for an invitation, replacing any earlier one,
// and marks the invitation responded.
func (s *Service) Submit(ctx context.Context, invitationID uuid.UUID, form models.RSVPForm) (*models.RSVPResponse, error) {
	resp := form.Normalize(invitationID)
	resp.ID = uuid.New()
	resp.RespondedAt = s.now()

	if err := s.store.UpsertResponse(ctx, &resp); err != nil {
		return nil, fmt.Errorf("failed to save response: %w", err)
	}
	if err := s.store.MarkInvitationResponded(ctx, invitationID); err != nil {
		return nil, fmt.Errorf("failed to mark invitation responded: %w", err)
	}

	s.logger.Info().
		Str("invitation_id", invitationID.String()).
		Bool("attending", resp.Attending).
		Int("party_size", resp.PartySize).
		Msg("RSVP recorded")
	return &resp, nil
}

// SubmitByToken resolves the token and submits the form
func (s *Service) SubmitByToken(ctx context.Context, token string, form models.RSVPForm) (*models.RSVPResponse, error) {
	lookup, err := s.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.Submit(ctx, lookup.InvitationID, form)
}
