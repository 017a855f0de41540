package models

import (
	"time"

	"github.com/google/uuid"
)

// InvitationStatus represents where an invitation is in its lifecycle
type InvitationStatus string

const (
	StatusPending   InvitationStatus = "pending"
	StatusSent      InvitationStatus = "sent"
	StatusOpened    InvitationStatus = "opened"
	StatusResponded InvitationStatus = "responded"

	// StatusNotInvited is never stored; it describes a guest with no invitations.
	StatusNotInvited InvitationStatus = ""
)

// Valid reports whether s is a storable status
func (s InvitationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSent, StatusOpened, StatusResponded:
		return true
	}
	return false
}

// AwaitingResponse reports whether the invitation went out and has no answer yet
func (s InvitationStatus) AwaitingResponse() bool {
	return s == StatusSent || s == StatusOpened
}

// Invitation is a tokenized link sent to one guest
type Invitation struct {
	ID        uuid.UUID        `json:"id"`
	GuestID   uuid.UUID        `json:"guest_id"`
	Token     string           `json:"token"`
	Status    InvitationStatus `json:"status"`
	SentAt    *time.Time       `json:"sent_at,omitempty"`
	OpenedAt  *time.Time       `json:"opened_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// InvitationDetail joins an invitation with its guest and response
type InvitationDetail struct {
	Invitation
	Guest    Guest         `json:"guest"`
	Response *RSVPResponse `json:"response,omitempty"`
}

// LastUpdated returns the most recent timestamp recorded on the invitation
func (d *InvitationDetail) LastUpdated() time.Time {
	latest := d.CreatedAt
	for _, t := range []*time.Time{d.SentAt, d.OpenedAt} {
		if t != nil && t.After(latest) {
			latest = *t
		}
	}
	if d.Response != nil && d.Response.RespondedAt.After(latest) {
		latest = d.Response.RespondedAt
	}
	return latest
}

// LatestInvitation returns the invitation with the greatest CreatedAt, or nil
// for an empty slice. Equal timestamps resolve to the later element.
func LatestInvitation(invitations []Invitation) *Invitation {
	var latest *Invitation
	for i := range invitations {
		if latest == nil || !invitations[i].CreatedAt.Before(latest.CreatedAt) {
			latest = &invitations[i]
		}
	}
	return latest
}

// LatestStatus is the status of LatestInvitation, or StatusNotInvited.
func LatestStatus(invitations []Invitation) InvitationStatus {
	if inv := LatestInvitation(invitations); inv != nil {
		return inv.Status
	}
	return StatusNotInvited
}
