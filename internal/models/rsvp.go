package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RSVPResponse is a guest's answer to one invitation
type RSVPResponse struct {
	ID                  uuid.UUID `json:"id"`
	InvitationID        uuid.UUID `json:"invitation_id"`
	Attending           bool      `json:"attending"`
	PartySize           int       `json:"party_size"`
	DietaryRestrictions *string   `json:"dietary_restrictions,omitempty"`
	Message             *string   `json:"message,omitempty"`
	Notes               *string   `json:"notes,omitempty"`
	RespondedAt         time.Time `json:"responded_at"`
}

// RSVPForm is what a guest submits on the public page
type RSVPForm struct {
	Attending           bool   `json:"attending"`
	PartySize           int    `json:"party_size"`
	DietaryRestrictions string `json:"dietary_restrictions,omitempty"`
	Message             string `json:"message,omitempty"`
}

// Normalize applies the stored-form rules: declining always records a party
// of zero, attending records at least one person, blanks become absent.
func (f RSVPForm) Normalize(invitationID uuid.UUID) RSVPResponse {
	resp := RSVPResponse{
		InvitationID:        invitationID,
		Attending:           f.Attending,
		PartySize:           f.PartySize,
		DietaryRestrictions: optional(strings.TrimSpace(f.DietaryRestrictions)),
		Message:             optional(strings.TrimSpace(f.Message)),
	}
	switch {
	case !f.Attending:
		resp.PartySize = 0
	case f.PartySize < 1:
		resp.PartySize = 1
	}
	return resp
}

// InvitationLookup is what a token resolves to on the public page
type InvitationLookup struct {
	InvitationID      uuid.UUID        `json:"invitation_id"`
	Token             string           `json:"-"`
	Status            InvitationStatus `json:"invitation_status"`
	GuestName         string           `json:"guest_name"`
	GuestEmail        string           `json:"guest_email"`
	ExpectedAttendees int              `json:"expected_attendees"`
	ExistingResponse  *RSVPResponse    `json:"existing_response"`
}

// ResponseDetail is a response joined with the guest who gave it
type ResponseDetail struct {
	RSVPResponse
	GuestID           uuid.UUID        `json:"guest_id"`
	GuestName         string           `json:"guest_name"`
	GuestEmail        string           `json:"guest_email"`
	GuestPhone        *string          `json:"guest_phone,omitempty"`
	GroupName         *string          `json:"group_name,omitempty"`
	ExpectedAttendees int              `json:"expected_attendees"`
	InvitationStatus  InvitationStatus `json:"invitation_status"`
}
