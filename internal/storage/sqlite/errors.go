package sqlite

import (
	"errors"

	"github.com/mattn/go-sqlite3"

	"wedding-rsvp/internal/storage"
)

// mapSQLiteError turns constraint failures into storage sentinels.
func mapSQLiteError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return storage.ErrConflict
	case sqlite3.ErrConstraintForeignKey:
		return storage.ErrNotFound
	}
	return err
}
