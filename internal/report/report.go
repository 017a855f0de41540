// Package report derives dashboard numbers from the guest list. Nothing is
// cached; every call recomputes from the rows it is given.
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

// Stats are the organizer dashboard counters
type Stats struct {
	TotalGuests       int `json:"total_guests"`
	ExpectedAttendees int `json:"expected_attendees"`
	InvitationsSent   int `json:"invitations_sent"`
	AwaitingResponse  int `json:"awaiting_response"`
	Confirmed         int `json:"confirmed"`
	Declined          int `json:"declined"`
	TotalAttendees    int `json:"total_attendees"`
	DietaryNeeds      int `json:"dietary_needs"`

	// ResponseRate is (confirmed + declined) / invitations sent
	ResponseRate float64 `json:"response_rate"`
	// AttendanceRate is confirmed / (confirmed + declined)
	AttendanceRate float64 `json:"attendance_rate"`
}

// Responded is the number of answers received
func (s Stats) Responded() int {
	return s.Confirmed + s.Declined
}

// GuestRow is one line of the guest overview
type GuestRow struct {
	Guest    models.Guest            `json:"guest"`
	Status   models.InvitationStatus `json:"status"`
	Response *models.RSVPResponse    `json:"response,omitempty"`
	// Partial is set when the guest confirmed fewer people than expected
	Partial bool `json:"partial"`
}

// Report bundles the counters with the per-guest overview
type Report struct {
	Stats  Stats      `json:"stats"`
	Guests []GuestRow `json:"guests"`
}

// Summarize computes the counters. Invitations are read from each guest's
// Invitations slice.
func Summarize(guests []models.Guest, responses []models.ResponseDetail) Stats {
	var s Stats
	s.TotalGuests = len(guests)

	for _, g := range guests {
		s.ExpectedAttendees += g.ExpectedAttendees
		for _, inv := range g.Invitations {
			if inv.Status != models.StatusPending {
				s.InvitationsSent++
			}
			if inv.Status.AwaitingResponse() {
				s.AwaitingResponse++
			}
		}
	}

	for _, r := range responses {
		if r.Attending {
			s.Confirmed++
			s.TotalAttendees += r.PartySize
			if r.DietaryRestrictions != nil {
				s.DietaryNeeds++
			}
		} else {
			s.Declined++
		}
	}

	if s.InvitationsSent > 0 {
		s.ResponseRate = float64(s.Responded()) / float64(s.InvitationsSent)
	}
	if s.Responded() > 0 {
		s.AttendanceRate = float64(s.Confirmed) / float64(s.Responded())
	}
	return s
}

// GuestRows pairs every guest with the status and response of its latest
// invitation. Order follows guests.
func GuestRows(guests []models.Guest, responses []models.ResponseDetail) []GuestRow {
	byInvitation := make(map[uuid.UUID]models.RSVPResponse, len(responses))
	for _, r := range responses {
		byInvitation[r.InvitationID] = r.RSVPResponse
	}

	rows := make([]GuestRow, 0, len(guests))
	for _, g := range guests {
		row := GuestRow{Guest: g, Status: models.StatusNotInvited}
		if latest := models.LatestInvitation(g.Invitations); latest != nil {
			row.Status = latest.Status
			if r, ok := byInvitation[latest.ID]; ok {
				row.Response = &r
				row.Partial = r.Attending && r.PartySize < g.ExpectedAttendees
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Filter selects which responses to list
type Filter string

const (
	FilterAll       Filter = "all"
	FilterAttending Filter = "attending"
	FilterDeclined  Filter = "declined"
)

// ParseFilter accepts "", "all", "attending" and "declined"
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterAttending, FilterDeclined:
		return f, nil
	}
	return "", &models.ValidationError{Field: "filter", Message: fmt.Sprintf("unknown filter %q", s)}
}

// Apply keeps the responses matching f, preserving order
func (f Filter) Apply(responses []models.ResponseDetail) []models.ResponseDetail {
	if f == FilterAll || f == "" {
		return responses
	}
	out := make([]models.ResponseDetail, 0, len(responses))
	for _, r := range responses {
		if r.Attending == (f == FilterAttending) {
			out = append(out, r)
		}
	}
	return out
}

// Store is the read side the reports need
type Store interface {
	ListGuests(ctx context.Context, organizerID uuid.UUID) ([]models.Guest, error)
	ListResponses(ctx context.Context, organizerID uuid.UUID) ([]models.ResponseDetail, error)
}

var _ Store = (storage.Store)(nil)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Build loads the organizer's guests and responses and summarizes them
func (s *Service) Build(ctx context.Context, organizerID uuid.UUID) (*Report, error) {
	guests, err := s.store.ListGuests(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}
	responses, err := s.store.ListResponses(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	return &Report{
		Stats:  Summarize(guests, responses),
		Guests: GuestRows(guests, responses),
	}, nil
}

// Responses lists the organizer's responses newest first, filtered
func (s *Service) Responses(ctx context.Context, organizerID uuid.UUID, filter Filter) ([]models.ResponseDetail, error) {
	responses, err := s.store.ListResponses(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	return filter.Apply(responses), nil
}
