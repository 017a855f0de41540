// Package storagetest holds the behaviour every storage.Store must share.
// Backend packages call Run from their own tests.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

// Factory returns an empty store; cleanup is registered on t.
type Factory func(t *testing.T) storage.Store

// Run exercises st against the shared contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("organizers", func(t *testing.T) { testOrganizers(t, newStore(t)) })
	t.Run("guests", func(t *testing.T) { testGuests(t, newStore(t)) })
	t.Run("invitations", func(t *testing.T) { testInvitations(t, newStore(t)) })
	t.Run("responses", func(t *testing.T) { testResponses(t, newStore(t)) })
	t.Run("delete cascades", func(t *testing.T) { testDeleteCascade(t, newStore(t)) })
}

// Epoch is the base timestamp for fixtures.
var Epoch = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

// NewOrganizer inserts an organizer and returns it.
func NewOrganizer(t *testing.T, st storage.Store, email string) *models.Organizer {
	t.Helper()
	org := &models.Organizer{ID: uuid.New(), Email: email, PasswordHash: []byte("hash"), CreatedAt: Epoch}
	require.NoError(t, st.CreateOrganizer(context.Background(), org))
	return org
}

// NewGuest inserts a guest owned by organizerID.
func NewGuest(t *testing.T, st storage.Store, organizerID uuid.UUID, name string, createdAt time.Time) *models.Guest {
	t.Helper()
	phone := "972501234567"
	g := &models.Guest{
		ID:                uuid.New(),
		OrganizerID:       organizerID,
		Name:              name,
		Email:             name + "@example.com",
		Phone:             &phone,
		ExpectedAttendees: 2,
		CreatedAt:         createdAt,
	}
	require.NoError(t, st.CreateGuest(context.Background(), g))
	return g
}

// NewInvitation inserts an invitation in the given status.
func NewInvitation(t *testing.T, st storage.Store, guestID uuid.UUID, status models.InvitationStatus, createdAt time.Time) *models.Invitation {
	t.Helper()
	inv := &models.Invitation{
		ID:        uuid.New(),
		GuestID:   guestID,
		Token:     uuid.NewString(),
		Status:    status,
		CreatedAt: createdAt,
	}
	require.NoError(t, st.CreateInvitation(context.Background(), inv))
	return inv
}

func testOrganizers(t *testing.T, st storage.Store) {
	ctx := context.Background()
	org := NewOrganizer(t, st, "couple@example.com")

	got, err := st.GetOrganizer(ctx, org.ID)
	require.NoError(t, err)
	require.Equal(t, "couple@example.com", got.Email)
	require.Equal(t, []byte("hash"), got.PasswordHash)

	dup := &models.Organizer{ID: uuid.New(), Email: "couple@example.com", PasswordHash: []byte("hash"), CreatedAt: Epoch}
	require.ErrorIs(t, st.CreateOrganizer(ctx, dup), storage.ErrConflict)

	_, err = st.GetOrganizer(ctx, uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testGuests(t *testing.T, st storage.Store) {
	ctx := context.Background()
	org := NewOrganizer(t, st, "a@example.com")
	other := NewOrganizer(t, st, "b@example.com")

	first := NewGuest(t, st, org.ID, "ana", Epoch)
	second := NewGuest(t, st, org.ID, "ben", Epoch.Add(time.Minute))
	NewGuest(t, st, other.ID, "carl", Epoch)

	guests, err := st.ListGuests(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, guests, 2)
	require.Equal(t, second.ID, guests[0].ID, "newest first")
	require.Equal(t, first.ID, guests[1].ID)

	_, err = st.GetGuest(ctx, other.ID, first.ID)
	require.ErrorIs(t, err, storage.ErrNotFound, "scoped to organizer")

	group := "Family"
	first.GroupName = &group
	first.ExpectedAttendees = 4
	require.NoError(t, st.UpdateGuest(ctx, first))

	got, err := st.GetGuest(ctx, org.ID, first.ID)
	require.NoError(t, err)
	require.Equal(t, "Family", models.Deref(got.GroupName))
	require.Equal(t, 4, got.ExpectedAttendees)

	missing := *first
	missing.ID = uuid.New()
	require.ErrorIs(t, st.UpdateGuest(ctx, &missing), storage.ErrNotFound)

	byPhone, err := st.FindGuestsByPhone(ctx, "972501234567")
	require.NoError(t, err)
	require.Len(t, byPhone, 3)

	require.NoError(t, st.DeleteGuest(ctx, org.ID, second.ID))
	require.ErrorIs(t, st.DeleteGuest(ctx, org.ID, second.ID), storage.ErrNotFound)
}

func testInvitations(t *testing.T, st storage.Store) {
	ctx := context.Background()
	org := NewOrganizer(t, st, "a@example.com")
	guest := NewGuest(t, st, org.ID, "ana", Epoch)

	older := NewInvitation(t, st, guest.ID, models.StatusPending, Epoch)
	newer := NewInvitation(t, st, guest.ID, models.StatusPending, Epoch.Add(time.Hour))

	dup := &models.Invitation{ID: uuid.New(), GuestID: guest.ID, Token: older.Token, Status: models.StatusPending, CreatedAt: Epoch}
	require.ErrorIs(t, st.CreateInvitation(ctx, dup), storage.ErrConflict)

	orphan := &models.Invitation{ID: uuid.New(), GuestID: uuid.New(), Token: uuid.NewString(), Status: models.StatusPending, CreatedAt: Epoch}
	require.ErrorIs(t, st.CreateInvitation(ctx, orphan), storage.ErrNotFound)

	g, err := st.GetGuest(ctx, org.ID, guest.ID)
	require.NoError(t, err)
	require.Len(t, g.Invitations, 2)
	require.Equal(t, newer.ID, models.LatestInvitation(g.Invitations).ID)

	sentAt := Epoch.Add(2 * time.Hour)
	require.NoError(t, st.MarkInvitationSent(ctx, newer.ID, sentAt))

	opened, err := st.MarkInvitationOpened(ctx, older.Token, sentAt)
	require.NoError(t, err)
	require.False(t, opened, "pending invitations are not opened")

	opened, err = st.MarkInvitationOpened(ctx, newer.Token, sentAt.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, opened)

	opened, err = st.MarkInvitationOpened(ctx, newer.Token, sentAt.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, opened, "second visit does nothing")

	detail, err := st.GetInvitation(ctx, org.ID, newer.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusOpened, detail.Status)
	require.NotNil(t, detail.SentAt)
	require.True(t, sentAt.Equal(*detail.SentAt))
	require.NotNil(t, detail.OpenedAt)
	require.True(t, sentAt.Add(time.Minute).Equal(*detail.OpenedAt))
	require.Equal(t, "ana", detail.Guest.Name)
	require.Nil(t, detail.Response)

	resent := sentAt.Add(3 * time.Hour)
	require.NoError(t, st.RefreshSentAt(ctx, newer.ID, resent))
	detail, err = st.GetInvitation(ctx, org.ID, newer.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusOpened, detail.Status, "refresh keeps status")
	require.True(t, resent.Equal(*detail.SentAt))

	other := NewOrganizer(t, st, "b@example.com")
	_, err = st.GetInvitation(ctx, other.ID, newer.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.ErrorIs(t, st.MarkInvitationSent(ctx, uuid.New(), sentAt), storage.ErrNotFound)

	list, err := st.ListInvitations(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, newer.ID, list[0].ID)

	lookup, err := st.LookupToken(ctx, newer.Token)
	require.NoError(t, err)
	require.Equal(t, newer.ID, lookup.InvitationID)
	require.Equal(t, "ana", lookup.GuestName)
	require.Equal(t, 2, lookup.ExpectedAttendees)
	require.Nil(t, lookup.ExistingResponse)

	_, err = st.LookupToken(ctx, "no-such-token")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, st.MarkInvitationResponded(ctx, older.ID))
	detail, err = st.GetInvitation(ctx, org.ID, older.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusResponded, detail.Status, "responded is set from pending")
}

func testResponses(t *testing.T, st storage.Store) {
	ctx := context.Background()
	org := NewOrganizer(t, st, "a@example.com")
	guest := NewGuest(t, st, org.ID, "ana", Epoch)
	inv := NewInvitation(t, st, guest.ID, models.StatusSent, Epoch)

	first := models.RSVPForm{Attending: true, PartySize: 2, DietaryRestrictions: "vegetarian"}.Normalize(inv.ID)
	first.RespondedAt = Epoch.Add(time.Hour)
	require.NoError(t, st.UpsertResponse(ctx, &first))
	require.NotEqual(t, uuid.Nil, first.ID)

	second := models.RSVPForm{Attending: false, PartySize: 3, Message: "sorry"}.Normalize(inv.ID)
	second.RespondedAt = Epoch.Add(2 * time.Hour)
	require.NoError(t, st.UpsertResponse(ctx, &second))
	require.Equal(t, first.ID, second.ID, "same row is updated")

	responses, err := st.ListResponses(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	got := responses[0]
	require.False(t, got.Attending)
	require.Equal(t, 0, got.PartySize)
	require.Nil(t, got.DietaryRestrictions)
	require.Equal(t, "sorry", models.Deref(got.Message))
	require.True(t, second.RespondedAt.Equal(got.RespondedAt))
	require.Equal(t, "ana", got.GuestName)

	lookup, err := st.LookupToken(ctx, inv.Token)
	require.NoError(t, err)
	require.NotNil(t, lookup.ExistingResponse)
	require.False(t, lookup.ExistingResponse.Attending)

	missing := models.RSVPForm{Attending: true, PartySize: 1}.Normalize(uuid.New())
	missing.RespondedAt = Epoch
	require.ErrorIs(t, st.UpsertResponse(ctx, &missing), storage.ErrNotFound)

	other := NewOrganizer(t, st, "b@example.com")
	responses, err = st.ListResponses(ctx, other.ID)
	require.NoError(t, err)
	require.Empty(t, responses)
}

func testDeleteCascade(t *testing.T, st storage.Store) {
	ctx := context.Background()
	org := NewOrganizer(t, st, "a@example.com")
	guest := NewGuest(t, st, org.ID, "ana", Epoch)
	inv := NewInvitation(t, st, guest.ID, models.StatusSent, Epoch)

	resp := models.RSVPForm{Attending: true, PartySize: 1}.Normalize(inv.ID)
	resp.RespondedAt = Epoch
	require.NoError(t, st.UpsertResponse(ctx, &resp))

	require.NoError(t, st.DeleteGuest(ctx, org.ID, guest.ID))

	_, err := st.LookupToken(ctx, inv.Token)
	require.ErrorIs(t, err, storage.ErrNotFound)

	responses, err := st.ListResponses(ctx, org.ID)
	require.NoError(t, err)
	require.Empty(t, responses)
}
