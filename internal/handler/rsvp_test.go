package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"wedding-rsvp/internal/links"
	"wedding-rsvp/internal/models"
)

type fakeGuests struct {
	byPhone map[string][]models.Guest
	asked   string
}

func (f *fakeGuests) FindGuestsByPhone(_ context.Context, phone string) ([]models.Guest, error) {
	f.asked = phone
	return f.byPhone[phone], nil
}

type submission struct {
	invitationID uuid.UUID
	form         models.RSVPForm
}

type fakeSubmitter struct {
	got []submission
	err error
}

func (f *fakeSubmitter) Submit(_ context.Context, invitationID uuid.UUID, form models.RSVPForm) (*models.RSVPResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.got = append(f.got, submission{invitationID, form})
	resp := form.Normalize(invitationID)
	return &resp, nil
}

type fakeReplier struct {
	phone, message string
}

func (f *fakeReplier) SendText(_ context.Context, phone, message string) error {
	f.phone, f.message = phone, message
	return nil
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		text string
		want Reply
	}{
		{"YES", ReplyYes},
		{"  yes please ", ReplyYes},
		{"We'll be coming!", ReplyYes},
		{"✅", ReplyYes},
		{"yes✅", ReplyYes},
		{"no", ReplyNo},
		{"Sorry, not coming", ReplyNo},
		{"can't make it ❌", ReplyNo},
		{"I know the venue", ReplyUnknown},
		{"Nothing to add", ReplyUnknown},
		{"", ReplyUnknown},
		{"what time?", ReplyUnknown},
		{"Yes, no problem", ReplyUnknown},
		{"no, we are coming", ReplyUnknown},
		{"nope ❌", ReplyNo},
		{"not coming, sorry, no", ReplyNo},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			require.Equal(t, tt.want, ParseReply(tt.text))
		})
	}
}

func newHandler(guests map[string][]models.Guest) (*RSVPHandler, *fakeGuests, *fakeSubmitter, *fakeReplier) {
	g := &fakeGuests{byPhone: guests}
	s := &fakeSubmitter{}
	r := &fakeReplier{}
	h := NewRSVPHandler(g, s, r, links.Wedding{BrideName: "Lili", GroomName: "José", Date: "05.01.2026"}, "972", zerolog.Nop())
	return h, g, s, r
}

func TestHandleReply(t *testing.T) {
	ctx := context.Background()
	latest := models.Invitation{ID: uuid.New(), Status: models.StatusSent}
	guest := models.Guest{
		Name:              "Ana",
		ExpectedAttendees: 3,
		Invitations:       []models.Invitation{{ID: uuid.New(), Status: models.StatusResponded}, latest},
	}

	t.Run("yes confirms expected attendees", func(t *testing.T) {
		h, g, s, r := newHandler(map[string][]models.Guest{"972501234567": {guest}})

		ok, err := h.HandleReply(ctx, "0501234567", "Yes!")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "972501234567", g.asked)
		require.Len(t, s.got, 1)
		require.Equal(t, latest.ID, s.got[0].invitationID)
		require.True(t, s.got[0].form.Attending)
		require.Equal(t, 3, s.got[0].form.PartySize)
		require.Equal(t, "972501234567", r.phone)
		require.Contains(t, r.message, "Lili & José on 05.01.2026")
	})

	t.Run("no declines", func(t *testing.T) {
		h, _, s, r := newHandler(map[string][]models.Guest{"972501234567": {guest}})

		ok, err := h.HandleReply(ctx, "972501234567", "no, sorry")
		require.NoError(t, err)
		require.True(t, ok)
		require.False(t, s.got[0].form.Attending)
		require.Contains(t, r.message, "We'll miss you")
	})

	t.Run("unknown sender ignored", func(t *testing.T) {
		h, _, s, r := newHandler(nil)

		ok, err := h.HandleReply(ctx, "15550109999", "yes")
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, s.got)
		require.Empty(t, r.message)
	})

	t.Run("guest never invited", func(t *testing.T) {
		h, _, s, _ := newHandler(map[string][]models.Guest{"972501234567": {{Name: "Ben"}}})

		ok, err := h.HandleReply(ctx, "972501234567", "yes")
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, s.got)
	})

	t.Run("unclear text ignored", func(t *testing.T) {
		h, g, _, _ := newHandler(map[string][]models.Guest{"972501234567": {guest}})

		ok, err := h.HandleReply(ctx, "972501234567", "what should I wear?")
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, g.asked)
	})

	t.Run("submit failure", func(t *testing.T) {
		h, _, s, r := newHandler(map[string][]models.Guest{"972501234567": {guest}})
		s.err = errors.New("db down")

		_, err := h.HandleReply(ctx, "972501234567", "yes")
		require.Error(t, err)
		require.Empty(t, r.message)
	})
}

func TestHandleMessage(t *testing.T) {
	invID := uuid.New()
	h, _, s, _ := newHandler(map[string][]models.Guest{
		"972501234567": {{Name: "Ana", ExpectedAttendees: 1, Invitations: []models.Invitation{{ID: invID}}}},
	})

	text := "yes"
	msg := &events.Message{
		Info:    types.MessageInfo{MessageSource: types.MessageSource{Sender: types.NewJID("972501234567", types.DefaultUserServer)}},
		Message: &waE2E.Message{Conversation: &text},
	}
	require.NoError(t, h.HandleMessage(msg))
	require.Len(t, s.got, 1)
	require.Equal(t, invID, s.got[0].invitationID)

	require.NoError(t, h.HandleMessage(&events.Message{}))
}
