package rsvp

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/report"
	"wedding-rsvp/internal/storage"
	"wedding-rsvp/internal/storage/jsonfile"
	"wedding-rsvp/internal/storage/storagetest"
)

var t0 = time.Date(2026, 8, 15, 18, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, storage.Store) {
	t.Helper()
	st, err := jsonfile.NewStorage(filepath.Join(t.TempDir(), "rsvp.json"))
	require.NoError(t, err)

	clock := t0
	svc := NewService(st, zerolog.Nop()).WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})
	return svc, st
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)
	org := storagetest.NewOrganizer(t, st, "couple@example.com")
	g := storagetest.NewGuest(t, st, org.ID, "ana", t0)
	inv := storagetest.NewInvitation(t, st, g.ID, models.StatusSent, t0)

	got, err := svc.Lookup(ctx, inv.Token)
	require.NoError(t, err)
	require.Equal(t, inv.ID, got.InvitationID)
	require.Equal(t, "ana", got.GuestName)
	require.Equal(t, 2, got.ExpectedAttendees)
	require.Nil(t, got.ExistingResponse)

	_, err = svc.Lookup(ctx, "nope")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = svc.Lookup(ctx, "  ")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)
	org := storagetest.NewOrganizer(t, st, "couple@example.com")
	g := storagetest.NewGuest(t, st, org.ID, "ana", t0)

	sent := storagetest.NewInvitation(t, st, g.ID, models.StatusSent, t0)
	got, err := svc.Open(ctx, sent.Token)
	require.NoError(t, err)
	require.Equal(t, models.StatusOpened, got.Status)

	responded := storagetest.NewInvitation(t, st, g.ID, models.StatusResponded, t0.Add(time.Hour))
	got, err = svc.Open(ctx, responded.Token)
	require.NoError(t, err)
	require.Equal(t, models.StatusResponded, got.Status)
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("second submission replaces the first", func(t *testing.T) {
		svc, st := newService(t)
		org := storagetest.NewOrganizer(t, st, "couple@example.com")
		g := storagetest.NewGuest(t, st, org.ID, "ana", t0)
		inv := storagetest.NewInvitation(t, st, g.ID, models.StatusOpened, t0)

		first, err := svc.Submit(ctx, inv.ID, models.RSVPForm{Attending: true, PartySize: 2, DietaryRestrictions: "vegan"})
		require.NoError(t, err)

		second, err := svc.Submit(ctx, inv.ID, models.RSVPForm{Attending: false, PartySize: 5})
		require.NoError(t, err)
		require.Equal(t, first.ID, second.ID)
		require.True(t, second.RespondedAt.After(first.RespondedAt))

		responses, err := st.ListResponses(ctx, org.ID)
		require.NoError(t, err)
		require.Len(t, responses, 1)
		require.False(t, responses[0].Attending)
		require.Equal(t, 0, responses[0].PartySize)
		require.Nil(t, responses[0].DietaryRestrictions)
	})

	t.Run("pending invitation goes straight to responded", func(t *testing.T) {
		svc, st := newService(t)
		org := storagetest.NewOrganizer(t, st, "couple@example.com")
		g := storagetest.NewGuest(t, st, org.ID, "ana", t0)
		inv := storagetest.NewInvitation(t, st, g.ID, models.StatusPending, t0)

		_, err := svc.Submit(ctx, inv.ID, models.RSVPForm{Attending: true})
		require.NoError(t, err)

		lookup, err := svc.Lookup(ctx, inv.Token)
		require.NoError(t, err)
		require.Equal(t, models.StatusResponded, lookup.Status)
		require.Equal(t, 1, lookup.ExistingResponse.PartySize)
	})

	t.Run("unknown invitation", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.Submit(ctx, uuid.New(), models.RSVPForm{Attending: true, PartySize: 1})
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestSubmitByToken(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)
	org := storagetest.NewOrganizer(t, st, "couple@example.com")
	g := storagetest.NewGuest(t, st, org.ID, "ana", t0)
	inv := storagetest.NewInvitation(t, st, g.ID, models.StatusSent, t0)

	resp, err := svc.SubmitByToken(ctx, inv.Token, models.RSVPForm{Attending: true, PartySize: 2, Message: " See you! "})
	require.NoError(t, err)
	require.Equal(t, inv.ID, resp.InvitationID)
	require.Equal(t, "See you!", models.Deref(resp.Message))

	_, err = svc.SubmitByToken(ctx, "missing", models.RSVPForm{})
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPartialAttendanceScenario(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)
	org := storagetest.NewOrganizer(t, st, "couple@example.com")

	ana := &models.Guest{
		ID:                uuid.New(),
		OrganizerID:       org.ID,
		Name:              "Ana",
		Email:             "ana@example.com",
		ExpectedAttendees: 3,
		CreatedAt:         t0,
	}
	require.NoError(t, st.CreateGuest(ctx, ana))
	inv := storagetest.NewInvitation(t, st, ana.ID, models.StatusSent, t0)

	opened, err := svc.Open(ctx, inv.Token)
	require.NoError(t, err)
	require.Equal(t, models.StatusOpened, opened.Status)

	_, err = svc.SubmitByToken(ctx, inv.Token, models.RSVPForm{Attending: true, PartySize: 2})
	require.NoError(t, err)

	lookup, err := svc.Lookup(ctx, inv.Token)
	require.NoError(t, err)
	require.Equal(t, models.StatusResponded, lookup.Status)
	require.Equal(t, 2, lookup.ExistingResponse.PartySize)

	rep, err := report.NewService(st).Build(ctx, org.ID)
	require.NoError(t, err)
	require.Equal(t, 1, rep.Stats.Confirmed)
	require.Equal(t, 2, rep.Stats.TotalAttendees)
	require.Len(t, rep.Guests, 1)
	require.True(t, rep.Guests[0].Partial)
}
