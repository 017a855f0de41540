// Package jsonfile keeps the whole guest list in a single JSON document on
// disk. It suits one organizer running the console on a laptop.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

var _ storage.Store = (*Storage)(nil)

type organizerRecord struct {
	models.Organizer
	PasswordHash []byte `json:"password_hash"`
}

type document struct {
	Organizers  []organizerRecord     `json:"organizers"`
	Guests      []models.Guest        `json:"guests"`
	Invitations []models.Invitation   `json:"invitations"`
	Responses   []models.RSVPResponse `json:"responses"`
}

// clone copies the record slices. Records are replaced, never mutated
// through shared pointers, so a shallow element copy is enough.
func (d document) clone() document {
	return document{
		Organizers:  append([]organizerRecord(nil), d.Organizers...),
		Guests:      append([]models.Guest(nil), d.Guests...),
		Invitations: append([]models.Invitation(nil), d.Invitations...),
		Responses:   append([]models.RSVPResponse(nil), d.Responses...),
	}
}

type Storage struct {
	mu   sync.RWMutex
	doc  document
	file string
}

// NewStorage creates a new storage instance
func NewStorage(filePath string) (*Storage, error) {
	s := &Storage{file: filePath}

	// Load existing data if file exists
	if _, err := os.Stat(filePath); err == nil {
		if err := s.Load(); err != nil {
			return nil, fmt.Errorf("failed to load storage: %w", err)
		}
	}

	return s, nil
}

// Close is a no-op; every write is flushed by commit.
func (s *Storage) Close() error { return nil }

func (s *Storage) CreateOrganizer(ctx context.Context, org *models.Organizer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.doc.Organizers {
		if o.ID == org.ID || strings.EqualFold(o.Email, org.Email) {
			return storage.ErrConflict
		}
	}
	return s.commit(func(doc *document) {
		doc.Organizers = append(doc.Organizers, organizerRecord{Organizer: *org, PasswordHash: org.PasswordHash})
	})
}

func (s *Storage) GetOrganizer(ctx context.Context, id uuid.UUID) (*models.Organizer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.doc.Organizers {
		if o.ID == id {
			org := o.Organizer
			org.PasswordHash = o.PasswordHash
			return &org, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Storage) CreateGuest(ctx context.Context, guest *models.Guest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.guestIndex(guest.OrganizerID, guest.ID) >= 0 {
		return storage.ErrConflict
	}
	g := *guest
	g.Invitations = nil
	return s.commit(func(doc *document) {
		doc.Guests = append(doc.Guests, g)
	})
}

func (s *Storage) GetGuest(ctx context.Context, organizerID, guestID uuid.UUID) (*models.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.guestIndex(organizerID, guestID)
	if i < 0 {
		return nil, storage.ErrNotFound
	}
	g := s.withInvitations(s.doc.Guests[i])
	return &g, nil
}

func (s *Storage) UpdateGuest(ctx context.Context, guest *models.Guest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.guestIndex(guest.OrganizerID, guest.ID)
	if i < 0 {
		return storage.ErrNotFound
	}
	g := *guest
	g.Invitations = nil
	g.CreatedAt = s.doc.Guests[i].CreatedAt
	return s.commit(func(doc *document) {
		doc.Guests[i] = g
	})
}

func (s *Storage) DeleteGuest(ctx context.Context, organizerID, guestID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.guestIndex(organizerID, guestID)
	if i < 0 {
		return storage.ErrNotFound
	}
	return s.commit(func(doc *document) {
		doc.Guests = append(doc.Guests[:i], doc.Guests[i+1:]...)

		removed := make(map[uuid.UUID]bool)
		invitations := doc.Invitations[:0]
		for _, inv := range doc.Invitations {
			if inv.GuestID == guestID {
				removed[inv.ID] = true
				continue
			}
			invitations = append(invitations, inv)
		}
		doc.Invitations = invitations

		responses := doc.Responses[:0]
		for _, r := range doc.Responses {
			if !removed[r.InvitationID] {
				responses = append(responses, r)
			}
		}
		doc.Responses = responses
	})
}

func (s *Storage) ListGuests(ctx context.Context, organizerID uuid.UUID) ([]models.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	guests := make([]models.Guest, 0)
	for _, g := range s.doc.Guests {
		if g.OrganizerID == organizerID {
			guests = append(guests, s.withInvitations(g))
		}
	}
	sort.SliceStable(guests, func(i, j int) bool {
		return guests[i].CreatedAt.After(guests[j].CreatedAt)
	})
	return guests, nil
}

func (s *Storage) FindGuestsByPhone(ctx context.Context, phone string) ([]models.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var guests []models.Guest
	for _, g := range s.doc.Guests {
		if g.Phone != nil && *g.Phone == phone {
			guests = append(guests, s.withInvitations(g))
		}
	}
	return guests, nil
}

func (s *Storage) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.guestByID(inv.GuestID) == nil {
		return storage.ErrNotFound
	}
	for _, existing := range s.doc.Invitations {
		if existing.ID == inv.ID || existing.Token == inv.Token {
			return storage.ErrConflict
		}
	}
	return s.commit(func(doc *document) {
		doc.Invitations = append(doc.Invitations, *inv)
	})
}

func (s *Storage) GetInvitation(ctx context.Context, organizerID, invitationID uuid.UUID) (*models.InvitationDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, inv := range s.doc.Invitations {
		if inv.ID != invitationID {
			continue
		}
		g := s.guestByID(inv.GuestID)
		if g == nil || g.OrganizerID != organizerID {
			return nil, storage.ErrNotFound
		}
		return &models.InvitationDetail{Invitation: inv, Guest: *g, Response: s.responseFor(inv.ID)}, nil
	}
	return nil, storage.ErrNotFound
}

func (s *Storage) ListInvitations(ctx context.Context, organizerID uuid.UUID) ([]models.InvitationDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	details := make([]models.InvitationDetail, 0)
	for _, inv := range s.doc.Invitations {
		g := s.guestByID(inv.GuestID)
		if g == nil || g.OrganizerID != organizerID {
			continue
		}
		details = append(details, models.InvitationDetail{Invitation: inv, Guest: *g, Response: s.responseFor(inv.ID)})
	}
	sort.SliceStable(details, func(i, j int) bool {
		return details[i].CreatedAt.After(details[j].CreatedAt)
	})
	return details, nil
}

func (s *Storage) MarkInvitationSent(ctx context.Context, invitationID uuid.UUID, at time.Time) error {
	return s.updateInvitation(invitationID, func(inv *models.Invitation) {
		inv.Status = models.StatusSent
		inv.SentAt = &at
	})
}

func (s *Storage) RefreshSentAt(ctx context.Context, invitationID uuid.UUID, at time.Time) error {
	return s.updateInvitation(invitationID, func(inv *models.Invitation) {
		inv.SentAt = &at
	})
}

func (s *Storage) MarkInvitationResponded(ctx context.Context, invitationID uuid.UUID) error {
	return s.updateInvitation(invitationID, func(inv *models.Invitation) {
		inv.Status = models.StatusResponded
	})
}

func (s *Storage) MarkInvitationOpened(ctx context.Context, token string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, inv := range s.doc.Invitations {
		if inv.Token == token && inv.Status == models.StatusSent {
			err := s.commit(func(doc *document) {
				doc.Invitations[i].Status = models.StatusOpened
				doc.Invitations[i].OpenedAt = &at
			})
			return err == nil, err
		}
	}
	return false, nil
}

func (s *Storage) LookupToken(ctx context.Context, token string) (*models.InvitationLookup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, inv := range s.doc.Invitations {
		if inv.Token != token {
			continue
		}
		g := s.guestByID(inv.GuestID)
		if g == nil {
			return nil, storage.ErrNotFound
		}
		return &models.InvitationLookup{
			InvitationID:      inv.ID,
			Token:             inv.Token,
			Status:            inv.Status,
			GuestName:         g.Name,
			GuestEmail:        g.Email,
			ExpectedAttendees: g.ExpectedAttendees,
			ExistingResponse:  s.responseFor(inv.ID),
		}, nil
	}
	return nil, storage.ErrNotFound
}

func (s *Storage) UpsertResponse(ctx context.Context, resp *models.RSVPResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, inv := range s.doc.Invitations {
		if inv.ID == resp.InvitationID {
			found = true
			break
		}
	}
	if !found {
		return storage.ErrNotFound
	}

	for i, r := range s.doc.Responses {
		if r.InvitationID == resp.InvitationID {
			resp.ID = r.ID
			resp.Notes = r.Notes
			return s.commit(func(doc *document) {
				doc.Responses[i] = *resp
			})
		}
	}
	if resp.ID == uuid.Nil {
		resp.ID = uuid.New()
	}
	return s.commit(func(doc *document) {
		doc.Responses = append(doc.Responses, *resp)
	})
}

func (s *Storage) ListResponses(ctx context.Context, organizerID uuid.UUID) ([]models.ResponseDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invitations := make(map[uuid.UUID]models.Invitation, len(s.doc.Invitations))
	for _, inv := range s.doc.Invitations {
		invitations[inv.ID] = inv
	}

	details := make([]models.ResponseDetail, 0)
	for _, r := range s.doc.Responses {
		inv, ok := invitations[r.InvitationID]
		if !ok {
			continue
		}
		g := s.guestByID(inv.GuestID)
		if g == nil || g.OrganizerID != organizerID {
			continue
		}
		details = append(details, models.ResponseDetail{
			RSVPResponse:      r,
			GuestID:           g.ID,
			GuestName:         g.Name,
			GuestEmail:        g.Email,
			GuestPhone:        g.Phone,
			GroupName:         g.GroupName,
			ExpectedAttendees: g.ExpectedAttendees,
			InvitationStatus:  inv.Status,
		})
	}
	sort.SliceStable(details, func(i, j int) bool {
		return details[i].RespondedAt.After(details[j].RespondedAt)
	})
	return details, nil
}

// commit applies fn to a copy of the document and swaps the copy in only
// once it is on disk, so a failed write leaves memory matching the file.
// Callers hold the write lock.
func (s *Storage) commit(fn func(doc *document)) error {
	next := s.doc.clone()
	fn(&next)
	if err := s.write(next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

func (s *Storage) write(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(s.file)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(s.file, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Load loads the document from file
func (s *Storage) Load() error {
	data, err := os.ReadFile(s.file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		s.doc = document{}
		return nil
	}

	if err := json.Unmarshal(data, &s.doc); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	return nil
}

func (s *Storage) updateInvitation(id uuid.UUID, fn func(*models.Invitation)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Invitations {
		if s.doc.Invitations[i].ID == id {
			return s.commit(func(doc *document) {
				fn(&doc.Invitations[i])
			})
		}
	}
	return storage.ErrNotFound
}

func (s *Storage) guestIndex(organizerID, guestID uuid.UUID) int {
	for i, g := range s.doc.Guests {
		if g.ID == guestID && g.OrganizerID == organizerID {
			return i
		}
	}
	return -1
}

func (s *Storage) guestByID(id uuid.UUID) *models.Guest {
	for i := range s.doc.Guests {
		if s.doc.Guests[i].ID == id {
			return &s.doc.Guests[i]
		}
	}
	return nil
}

func (s *Storage) withInvitations(g models.Guest) models.Guest {
	g.Invitations = nil
	for _, inv := range s.doc.Invitations {
		if inv.GuestID == g.ID {
			g.Invitations = append(g.Invitations, inv)
		}
	}
	return g
}

func (s *Storage) responseFor(invitationID uuid.UUID) *models.RSVPResponse {
	for _, r := range s.doc.Responses {
		if r.InvitationID == invitationID {
			resp := r
			return &resp
		}
	}
	return nil
}
