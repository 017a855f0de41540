package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRSVPForm_Normalize(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name      string
		form      RSVPForm
		partySize int
	}{
		{name: "declining forces zero", form: RSVPForm{Attending: false, PartySize: 4}, partySize: 0},
		{name: "attending keeps size", form: RSVPForm{Attending: true, PartySize: 2}, partySize: 2},
		{name: "attending with zero counts the guest", form: RSVPForm{Attending: true}, partySize: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.form.Normalize(id)
			require.Equal(t, id, resp.InvitationID)
			require.Equal(t, tt.partySize, resp.PartySize)
		})
	}
}

func TestRSVPForm_NormalizeBlanks(t *testing.T) {
	resp := RSVPForm{Attending: true, PartySize: 1, DietaryRestrictions: "  ", Message: " see you! "}.Normalize(uuid.New())
	require.Nil(t, resp.DietaryRestrictions)
	require.NotNil(t, resp.Message)
	require.Equal(t, "see you!", *resp.Message)
}

func TestGuestInput_Validate(t *testing.T) {
	t.Run("defaults expected attendees", func(t *testing.T) {
		in := GuestInput{Name: " Ana ", Email: "ana@example.com"}
		require.NoError(t, in.Validate())
		require.Equal(t, "Ana", in.Name)
		require.Equal(t, 1, in.ExpectedAttendees)
	})

	t.Run("missing name", func(t *testing.T) {
		in := GuestInput{Email: "ana@example.com"}
		err := in.Validate()
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, "name", verr.Field)
	})

	t.Run("missing email", func(t *testing.T) {
		in := GuestInput{Name: "Ana"}
		var verr *ValidationError
		require.ErrorAs(t, in.Validate(), &verr)
		require.Equal(t, "email", verr.Field)
	})

	t.Run("negative attendees", func(t *testing.T) {
		in := GuestInput{Name: "Ana", Email: "ana@example.com", ExpectedAttendees: -2}
		require.Error(t, in.Validate())
	})

	t.Run("apply maps blanks to nil", func(t *testing.T) {
		in := GuestInput{Name: "Ana", Email: "ana@example.com", GroupName: "Family"}
		require.NoError(t, in.Validate())
		var g Guest
		in.Apply(&g)
		require.Nil(t, g.Phone)
		require.Equal(t, "Family", Deref(g.GroupName))
	})
}
