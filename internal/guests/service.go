// Package guests manages an organizer's guest list.
package guests

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
	"wedding-rsvp/internal/whatsapp"
)

type Service struct {
	store       storage.GuestStore
	countryCode string
	logger      zerolog.Logger
	now         func() time.Time
}

// NewService creates a guest service. Phone numbers are normalized with
// countryCode so inbound chat replies can be matched to guests.
func NewService(store storage.GuestStore, countryCode string, logger zerolog.Logger) *Service {
	return &Service{
		store:       store,
		countryCode: countryCode,
		logger:      logger.With().Str("component", "guests").Logger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) prepare(in *models.GuestInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if in.Phone != "" {
		in.Phone = whatsapp.NormalizePhoneNumber(in.Phone, s.countryCode)
		if in.Phone == "" {
			return &models.ValidationError{Field: "phone", Message: "phone number has no digits"}
		}
	}
	return nil
}

// Add creates a guest owned by organizerID
func (s *Service) Add(ctx context.Context, organizerID uuid.UUID, in models.GuestInput) (*models.Guest, error) {
	if err := s.prepare(&in); err != nil {
		return nil, err
	}

	g := &models.Guest{
		ID:          uuid.New(),
		OrganizerID: organizerID,
		CreatedAt:   s.now(),
	}
	in.Apply(g)

	if err := s.store.CreateGuest(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to add guest: %w", err)
	}
	s.logger.Debug().Str("guest_id", g.ID.String()).Str("name", g.Name).Msg("Guest added")
	return g, nil
}

// Update replaces the editable fields of a guest
func (s *Service) Update(ctx context.Context, organizerID, guestID uuid.UUID, in models.GuestInput) (*models.Guest, error) {
	if err := s.prepare(&in); err != nil {
		return nil, err
	}

	g, err := s.store.GetGuest(ctx, organizerID, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guest: %w", err)
	}
	in.Apply(g)

	if err := s.store.UpdateGuest(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to update guest: %w", err)
	}
	return g, nil
}

// Delete removes a guest with its invitations and responses
func (s *Service) Delete(ctx context.Context, organizerID, guestID uuid.UUID) error {
	if err := s.store.DeleteGuest(ctx, organizerID, guestID); err != nil {
		return fmt.Errorf("failed to delete guest: %w", err)
	}
	s.logger.Debug().Str("guest_id", guestID.String()).Msg("Guest deleted")
	return nil
}

func (s *Service) Get(ctx context.Context, organizerID, guestID uuid.UUID) (*models.Guest, error) {
	g, err := s.store.GetGuest(ctx, organizerID, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guest: %w", err)
	}
	return g, nil
}

// List returns guests newest first with their invitations
func (s *Service) List(ctx context.Context, organizerID uuid.UUID) ([]models.Guest, error) {
	guests, err := s.store.ListGuests(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}
	return guests, nil
}
