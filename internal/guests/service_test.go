package guests

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
	"wedding-rsvp/internal/storage/jsonfile"
	"wedding-rsvp/internal/storage/storagetest"
)

func newService(t *testing.T) (*Service, storage.Store, uuid.UUID) {
	t.Helper()
	st, err := jsonfile.NewStorage(filepath.Join(t.TempDir(), "rsvp.json"))
	require.NoError(t, err)
	org := storagetest.NewOrganizer(t, st, "couple@example.com")
	return NewService(st, "972", zerolog.Nop()), st, org.ID
}

func TestAdd(t *testing.T) {
	ctx := context.Background()
	svc, st, orgID := newService(t)

	g, err := svc.Add(ctx, orgID, models.GuestInput{
		Name:      " Ana ",
		Email:     "ana@example.com",
		Phone:     "050-123-4567",
		GroupName: "Family",
	})
	require.NoError(t, err)
	require.Equal(t, "Ana", g.Name)
	require.Equal(t, 1, g.ExpectedAttendees)
	require.Equal(t, "972501234567", models.Deref(g.Phone))
	require.Equal(t, "Family", models.Deref(g.GroupName))

	found, err := st.FindGuestsByPhone(ctx, "972501234567")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, g.ID, found[0].ID)
}

func TestAdd_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    models.GuestInput
		field string
	}{
		{name: "missing name", in: models.GuestInput{Email: "a@b.c"}, field: "name"},
		{name: "missing email", in: models.GuestInput{Name: "Ana"}, field: "email"},
		{name: "bad email", in: models.GuestInput{Name: "Ana", Email: "ana"}, field: "email"},
		{name: "negative attendees", in: models.GuestInput{Name: "Ana", Email: "a@b.c", ExpectedAttendees: -1}, field: "expected_attendees"},
		{name: "phone without digits", in: models.GuestInput{Name: "Ana", Email: "a@b.c", Phone: "n/a"}, field: "phone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, orgID := newService(t)
			_, err := svc.Add(context.Background(), orgID, tt.in)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestUpdateDeleteList(t *testing.T) {
	ctx := context.Background()
	svc, _, orgID := newService(t)

	ana, err := svc.Add(ctx, orgID, models.GuestInput{Name: "Ana", Email: "ana@example.com", Phone: "0501234567"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, orgID, models.GuestInput{Name: "Ben", Email: "ben@example.com"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, orgID, ana.ID, models.GuestInput{Name: "Ana Silva", Email: "ana@example.com", ExpectedAttendees: 3})
	require.NoError(t, err)
	require.Equal(t, "Ana Silva", updated.Name)
	require.Nil(t, updated.Phone)

	got, err := svc.Get(ctx, orgID, ana.ID)
	require.NoError(t, err)
	require.Equal(t, 3, got.ExpectedAttendees)

	_, err = svc.Update(ctx, uuid.New(), ana.ID, models.GuestInput{Name: "X", Email: "x@y.z"})
	require.ErrorIs(t, err, storage.ErrNotFound)

	list, err := svc.List(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, svc.Delete(ctx, orgID, ana.ID))
	_, err = svc.Get(ctx, orgID, ana.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, orgID, ana.ID), storage.ErrNotFound)
}

func TestParseImport(t *testing.T) {
	src := `
guests:
  - name: Ana Silva
    email: ana@example.com
    phone: "050-123-4567"
    group: Bride's family
    expected_attendees: 3
  - name: Ben
    email: ben@example.com
`
	inputs, err := ParseImport(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	require.Equal(t, "Bride's family", inputs[0].GroupName)
	require.Equal(t, 3, inputs[0].ExpectedAttendees)

	_, err = ParseImport(strings.NewReader("guests:\n  - name: Ana\n    mail: typo@example.com\n"))
	require.Error(t, err)

	inputs, err = ParseImport(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, inputs)
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	svc, _, orgID := newService(t)

	res := svc.Import(ctx, orgID, []models.GuestInput{
		{Name: "Ana", Email: "ana@example.com"},
		{Name: "", Email: "nobody@example.com"},
		{Name: "Ben", Email: "ben@example.com", ExpectedAttendees: 2},
	})
	require.Len(t, res.Added, 2)
	require.Len(t, res.Failed, 1)
	require.Contains(t, res.Failed, 1)

	list, err := svc.List(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, list, 2)
}
