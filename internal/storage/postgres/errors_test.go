package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/storage"
)

func TestMapPostgresError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{
			name:   "unique violation is a conflict",
			err:    &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "invitations_token_key"},
			target: storage.ErrConflict,
		},
		{
			name:   "foreign key violation is not found",
			err:    &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation},
			target: storage.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, mapPostgresError(tt.err), tt.target)
		})
	}

	t.Run("other postgres errors keep the cause", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "guests_expected_attendees_check"}
		err := mapPostgresError(pgErr)
		require.ErrorIs(t, err, pgErr)
		require.NotErrorIs(t, err, storage.ErrConflict)
	})

	t.Run("non postgres errors pass through", func(t *testing.T) {
		plain := errors.New("boom")
		require.Equal(t, plain, mapPostgresError(plain))
		require.NoError(t, mapPostgresError(nil))
	})
}
