// Package invitation manages the invitation lifecycle: creating tokens,
// sending them by email or WhatsApp, and tracking status.
package invitation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wedding-rsvp/internal/links"
	"wedding-rsvp/internal/mailer"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

// ErrMessengerDisabled is returned by SendWhatsApp when no chat client is wired
var ErrMessengerDisabled = errors.New("whatsapp is not enabled")

// Store is the persistence the lifecycle needs
type Store interface {
	storage.GuestStore
	storage.InvitationStore
}

// Messenger delivers a chat message to a phone number
type Messenger interface {
	SendText(ctx context.Context, phone, message string) error
}

// Share is what an organizer gets back when asking for a shareable link
type Share struct {
	Invitation  models.Invitation `json:"invitation"`
	RSVPURL     string            `json:"rsvp_url"`
	WhatsAppURL string            `json:"whatsapp_url,omitempty"`
	Created     bool              `json:"created"`
}

type Service struct {
	store     Store
	mailer    mailer.Sender
	links     links.Builder
	messenger Messenger
	logger    zerolog.Logger
	now       func() time.Time
	newToken  func() string
}

type Option func(*Service)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTokenGenerator overrides the random token source
func WithTokenGenerator(gen func() string) Option {
	return func(s *Service) { s.newToken = gen }
}

// WithMessenger enables SendWhatsApp
func WithMessenger(m Messenger) Option {
	return func(s *Service) { s.messenger = m }
}

func NewService(store Store, sender mailer.Sender, lb links.Builder, logger zerolog.Logger, opts ...Option) *Service {
	if sender == nil {
		sender = mailer.Disabled{}
	}
	s := &Service{
		store:    store,
		mailer:   sender,
		links:    lb,
		logger:   logger.With().Str("component", "invitation").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
		newToken: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAndSend creates a fresh invitation, emails it and marks it sent.
// Email failures are logged and do not fail the call.
func (s *Service) CreateAndSend(ctx context.Context, organizerID, guestID uuid.UUID) (*models.Invitation, error) {
	guest, err := s.store.GetGuest(ctx, organizerID, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guest: %w", err)
	}

	inv := &models.Invitation{
		ID:        uuid.New(),
		GuestID:   guest.ID,
		Token:     s.newToken(),
		Status:    models.StatusPending,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateInvitation(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	err = s.mailer.SendInvitation(ctx, mailer.Invitation{
		To:        guest.Email,
		GuestName: guest.Name,
		RSVPURL:   s.links.RSVPURL(inv.Token),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("guest_id", guest.ID.String()).Msg("Failed to send invitation email")
	}

	sentAt := s.now()
	if err := s.store.MarkInvitationSent(ctx, inv.ID, sentAt); err != nil {
		return nil, fmt.Errorf("failed to mark invitation sent: %w", err)
	}
	inv.Status = models.StatusSent
	inv.SentAt = &sentAt

	s.logger.Info().Str("guest", guest.Name).Str("invitation_id", inv.ID.String()).Msg("Invitation created")
	return inv, nil
}

// GetOrCreate returns the guest's current invitation link, promoting a
// pending invitation to sent, or creates one already marked sent.
func (s *Service) GetOrCreate(ctx context.Context, organizerID, guestID uuid.UUID) (*Share, error) {
	guest, err := s.store.GetGuest(ctx, organizerID, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guest: %w", err)
	}
	return s.getOrCreate(ctx, guest)
}

func (s *Service) getOrCreate(ctx context.Context, guest *models.Guest) (*Share, error) {
	share := &Share{}

	if latest := models.LatestInvitation(guest.Invitations); latest != nil {
		inv := *latest
		if inv.Status == models.StatusPending {
			sentAt := s.now()
			if err := s.store.MarkInvitationSent(ctx, inv.ID, sentAt); err != nil {
				return nil, fmt.Errorf("failed to mark invitation sent: %w", err)
			}
			inv.Status = models.StatusSent
			inv.SentAt = &sentAt
		}
		share.Invitation = inv
	} else {
		sentAt := s.now()
		inv := models.Invitation{
			ID:        uuid.New(),
			GuestID:   guest.ID,
			Token:     s.newToken(),
			Status:    models.StatusSent,
			SentAt:    &sentAt,
			CreatedAt: sentAt,
		}
		if err := s.store.CreateInvitation(ctx, &inv); err != nil {
			return nil, fmt.Errorf("failed to create invitation: %w", err)
		}
		share.Invitation = inv
		share.Created = true
	}

	share.RSVPURL = s.links.RSVPURL(share.Invitation.Token)
	if guest.Phone != nil {
		msg := s.links.InvitationMessage(guest.Name, share.RSVPURL)
		share.WhatsAppURL = links.WhatsAppURL(*guest.Phone, msg)
	}
	return share, nil
}

// Resend emails an existing invitation again and refreshes sent_at. The
// status is left as it is.
func (s *Service) Resend(ctx context.Context, organizerID, invitationID uuid.UUID) (*models.InvitationDetail, error) {
	detail, err := s.store.GetInvitation(ctx, organizerID, invitationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invitation: %w", err)
	}

	err = s.mailer.SendInvitation(ctx, mailer.Invitation{
		To:        detail.Guest.Email,
		GuestName: detail.Guest.Name,
		RSVPURL:   s.links.RSVPURL(detail.Token),
	})
	if err != nil {
		return nil, &models.ExternalError{Service: "email", Err: err}
	}

	sentAt := s.now()
	if err := s.store.RefreshSentAt(ctx, detail.ID, sentAt); err != nil {
		return nil, fmt.Errorf("failed to refresh sent_at: %w", err)
	}
	detail.SentAt = &sentAt
	return detail, nil
}

// MarkOpened records the first view of a sent invitation. It reports false
// when the invitation was in any other status.
func (s *Service) MarkOpened(ctx context.Context, token string) (bool, error) {
	ok, err := s.store.MarkInvitationOpened(ctx, token, s.now())
	if err != nil {
		return false, fmt.Errorf("failed to mark invitation opened: %w", err)
	}
	return ok, nil
}

// List returns the organizer's invitations newest first
func (s *Service) List(ctx context.Context, organizerID uuid.UUID) ([]models.InvitationDetail, error) {
	invs, err := s.store.ListInvitations(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invs, nil
}

// SendWhatsApp delivers the guest's invitation link as a chat message
func (s *Service) SendWhatsApp(ctx context.Context, organizerID, guestID uuid.UUID) (*Share, error) {
	guest, err := s.store.GetGuest(ctx, organizerID, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guest: %w", err)
	}
	if guest.Phone == nil {
		return nil, &models.ValidationError{Field: "phone", Message: "guest has no phone number"}
	}
	if s.messenger == nil {
		return nil, &models.ExternalError{Service: "whatsapp", Err: ErrMessengerDisabled}
	}

	share, err := s.getOrCreate(ctx, guest)
	if err != nil {
		return nil, err
	}

	msg := s.links.InvitationMessage(guest.Name, share.RSVPURL)
	if err := s.messenger.SendText(ctx, *guest.Phone, msg); err != nil {
		return nil, &models.ExternalError{Service: "whatsapp", Err: err}
	}

	s.logger.Info().Str("guest", guest.Name).Str("phone", *guest.Phone).Msg("Invitation sent via WhatsApp")
	return share, nil
}
