// Package storage defines the persistence contract shared by the guest,
// invitation, RSVP and account services.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"wedding-rsvp/internal/models"
)

// Sentinel errors returned by every Store implementation
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// AccountStore persists organizer accounts.
type AccountStore interface {
	// CreateOrganizer returns ErrConflict when the email is taken.
	CreateOrganizer(ctx context.Context, org *models.Organizer) error
	GetOrganizer(ctx context.Context, id uuid.UUID) (*models.Organizer, error)
}

// GuestStore persists guests. Every read is scoped to one organizer except
// FindGuestsByPhone, which serves inbound chat messages.
type GuestStore interface {
	CreateGuest(ctx context.Context, guest *models.Guest) error
	// GetGuest returns the guest with its invitations attached.
	GetGuest(ctx context.Context, organizerID, guestID uuid.UUID) (*models.Guest, error)
	UpdateGuest(ctx context.Context, guest *models.Guest) error
	// DeleteGuest removes the guest together with its invitations and responses.
	DeleteGuest(ctx context.Context, organizerID, guestID uuid.UUID) error
	// ListGuests returns guests newest first, invitations attached.
	ListGuests(ctx context.Context, organizerID uuid.UUID) ([]models.Guest, error)
	FindGuestsByPhone(ctx context.Context, phone string) ([]models.Guest, error)
}

// InvitationStore persists invitations and their status transitions.
type InvitationStore interface {
	// CreateInvitation returns ErrConflict on a duplicate token and
	// ErrNotFound when the guest does not exist.
	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	GetInvitation(ctx context.Context, organizerID, invitationID uuid.UUID) (*models.InvitationDetail, error)
	// ListInvitations returns invitations newest first with guest and response.
	ListInvitations(ctx context.Context, organizerID uuid.UUID) ([]models.InvitationDetail, error)
	// MarkInvitationSent sets status sent and sent_at.
	MarkInvitationSent(ctx context.Context, invitationID uuid.UUID, at time.Time) error
	// RefreshSentAt only touches sent_at.
	RefreshSentAt(ctx context.Context, invitationID uuid.UUID, at time.Time) error
	// MarkInvitationOpened moves sent to opened and reports whether a row changed.
	MarkInvitationOpened(ctx context.Context, token string, at time.Time) (bool, error)
	// MarkInvitationResponded sets status responded whatever the current status.
	MarkInvitationResponded(ctx context.Context, invitationID uuid.UUID) error
	LookupToken(ctx context.Context, token string) (*models.InvitationLookup, error)
}

// ResponseStore persists RSVP responses.
type ResponseStore interface {
	// UpsertResponse inserts or replaces the response keyed by invitation id.
	// On return resp.ID holds the id of the stored row.
	UpsertResponse(ctx context.Context, resp *models.RSVPResponse) error
	// ListResponses returns responses newest first.
	ListResponses(ctx context.Context, organizerID uuid.UUID) ([]models.ResponseDetail, error)
}

// Store is the full persistence surface.
type Store interface {
	AccountStore
	GuestStore
	InvitationStore
	ResponseStore
	Close() error
}
