package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Guest represents a wedding guest on an organizer's list
type Guest struct {
	ID                uuid.UUID `json:"id"`
	OrganizerID       uuid.UUID `json:"organizer_id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Phone             *string   `json:"phone,omitempty"`
	GroupName         *string   `json:"group_name,omitempty"`
	ExpectedAttendees int       `json:"expected_attendees"`
	CreatedAt         time.Time `json:"created_at"`

	// Invitations is populated by list queries; nil when not loaded.
	Invitations []Invitation `json:"invitations,omitempty"`
}

// GuestInput carries the organizer-editable guest fields
type GuestInput struct {
	Name              string `json:"name" yaml:"name"`
	Email             string `json:"email" yaml:"email"`
	Phone             string `json:"phone,omitempty" yaml:"phone"`
	GroupName         string `json:"group_name,omitempty" yaml:"group"`
	ExpectedAttendees int    `json:"expected_attendees,omitempty" yaml:"expected_attendees"`
}

// Validate checks required fields and fills defaults
func (in *GuestInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.GroupName = strings.TrimSpace(in.GroupName)

	if in.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if in.Email == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	if !strings.Contains(in.Email, "@") {
		return &ValidationError{Field: "email", Message: "email is invalid"}
	}
	if in.ExpectedAttendees == 0 {
		in.ExpectedAttendees = 1
	}
	if in.ExpectedAttendees < 0 {
		return &ValidationError{Field: "expected_attendees", Message: "expected attendees must be at least 1"}
	}
	return nil
}

// Apply copies validated input onto the guest
func (in GuestInput) Apply(g *Guest) {
	g.Name = in.Name
	g.Email = in.Email
	g.Phone = optional(in.Phone)
	g.GroupName = optional(in.GroupName)
	g.ExpectedAttendees = in.ExpectedAttendees
}

// LatestStatus returns the status of the guest's authoritative invitation,
// or StatusNotInvited when the guest has none.
func (g *Guest) LatestStatus() InvitationStatus {
	return LatestStatus(g.Invitations)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
