package accounts

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
	"wedding-rsvp/internal/storage/jsonfile"
)

func newService(t *testing.T) *Service {
	t.Helper()
	st, err := jsonfile.NewStorage(filepath.Join(t.TempDir(), "rsvp.json"))
	require.NoError(t, err)
	svc := NewService(st)
	svc.cost = bcrypt.MinCost
	return svc
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	org, err := svc.Register(ctx, Registration{Email: " couple@example.com ", Password: "secret1", ConfirmPassword: "secret1"})
	require.NoError(t, err)
	require.Equal(t, "couple@example.com", org.Email)
	require.True(t, CheckPassword(org, "secret1"))
	require.False(t, CheckPassword(org, "secret2"))

	got, err := svc.Get(ctx, org.ID)
	require.NoError(t, err)
	require.Equal(t, org.Email, got.Email)
	require.True(t, CheckPassword(got, "secret1"))

	_, err = svc.Register(ctx, Registration{Email: "COUPLE@example.com", Password: "secret1", ConfirmPassword: "secret1"})
	require.ErrorIs(t, err, storage.ErrConflict)

	_, err = svc.Get(ctx, uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRegistration_Validate(t *testing.T) {
	tests := []struct {
		name    string
		reg     Registration
		field   string
		message string
	}{
		{name: "missing email", reg: Registration{Password: "secret1", ConfirmPassword: "secret1"}, field: "email"},
		{name: "invalid email", reg: Registration{Email: "couple", Password: "secret1", ConfirmPassword: "secret1"}, field: "email"},
		{name: "mismatch", reg: Registration{Email: "a@b.c", Password: "secret1", ConfirmPassword: "secret2"}, field: "confirm_password", message: "passwords do not match"},
		{name: "too short", reg: Registration{Email: "a@b.c", Password: "abc", ConfirmPassword: "abc"}, field: "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reg.Validate()
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.field, verr.Field)
			if tt.message != "" {
				require.Equal(t, tt.message, verr.Message)
			}
		})
	}
}
