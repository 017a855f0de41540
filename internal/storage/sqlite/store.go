// Package sqlite provides a SQLite-backed storage.Store using the same
// go-sqlite3 driver as the WhatsApp device store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store persists guests, invitations and responses in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateOrganizer(ctx context.Context, org *models.Organizer) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO organizers (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		org.ID, org.Email, org.PasswordHash, org.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create organizer: %w", mapSQLiteError(err))
	}

	log.Debug().Str("organizer_id", org.ID.String()).Msg("Created organizer")
	return nil
}

func (s *Store) GetOrganizer(ctx context.Context, id uuid.UUID) (*models.Organizer, error) {
	var org models.Organizer
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM organizers WHERE id = ?`, id,
	).Scan(&org.ID, &org.Email, &org.PasswordHash, &org.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get organizer: %w", err)
	}
	return &org, nil
}

func (s *Store) CreateGuest(ctx context.Context, g *models.Guest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO guests (
			id, organizer_id, name, email, phone, group_name, expected_attendees, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.OrganizerID, g.Name, g.Email, g.Phone, g.GroupName, g.ExpectedAttendees, g.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create guest: %w", mapSQLiteError(err))
	}

	log.Debug().Str("guest_id", g.ID.String()).Str("name", g.Name).Msg("Created guest")
	return nil
}

const guestColumns = `g.id, g.organizer_id, g.name, g.email, g.phone, g.group_name, g.expected_attendees, g.created_at`

func (s *Store) GetGuest(ctx context.Context, organizerID, guestID uuid.UUID) (*models.Guest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+guestColumns+` FROM guests g WHERE g.id = ? AND g.organizer_id = ?`, guestID, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guest: %w", err)
	}
	guests, err := s.collectGuests(ctx, rows)
	if err != nil {
		return nil, err
	}
	if len(guests) == 0 {
		return nil, storage.ErrNotFound
	}
	return &guests[0], nil
}

func (s *Store) UpdateGuest(ctx context.Context, g *models.Guest) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE guests SET
			name = ?, email = ?, phone = ?, group_name = ?, expected_attendees = ?
		WHERE id = ? AND organizer_id = ?`,
		g.Name, g.Email, g.Phone, g.GroupName, g.ExpectedAttendees, g.ID, g.OrganizerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update guest: %w", mapSQLiteError(err))
	}
	return requireRow(result)
}

func (s *Store) DeleteGuest(ctx context.Context, organizerID, guestID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM guests WHERE id = ? AND organizer_id = ?`, guestID, organizerID)
	if err != nil {
		return fmt.Errorf("failed to delete guest: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}

	log.Debug().Str("guest_id", guestID.String()).Msg("Deleted guest")
	return nil
}

func (s *Store) ListGuests(ctx context.Context, organizerID uuid.UUID) ([]models.Guest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+guestColumns+` FROM guests g WHERE g.organizer_id = ? ORDER BY g.created_at DESC`, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}
	return s.collectGuests(ctx, rows)
}

func (s *Store) FindGuestsByPhone(ctx context.Context, phone string) ([]models.Guest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+guestColumns+` FROM guests g WHERE g.phone = ? ORDER BY g.created_at DESC`, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to find guests: %w", err)
	}
	return s.collectGuests(ctx, rows)
}

// collectGuests scans guest rows, closes them, then attaches invitations.
func (s *Store) collectGuests(ctx context.Context, rows *sql.Rows) ([]models.Guest, error) {
	guests, err := scanGuests(rows)
	if err != nil {
		return nil, err
	}

	for i := range guests {
		invitations, err := s.guestInvitations(ctx, guests[i].ID)
		if err != nil {
			return nil, err
		}
		guests[i].Invitations = invitations
	}
	return guests, nil
}

func scanGuests(rows *sql.Rows) ([]models.Guest, error) {
	defer rows.Close()

	guests := make([]models.Guest, 0)
	for rows.Next() {
		var g models.Guest
		err := rows.Scan(&g.ID, &g.OrganizerID, &g.Name, &g.Email, &g.Phone, &g.GroupName, &g.ExpectedAttendees, &g.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guest: %w", err)
		}
		guests = append(guests, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating guests: %w", err)
	}
	return guests, nil
}

func (s *Store) guestInvitations(ctx context.Context, guestID uuid.UUID) ([]models.Invitation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guest_id, token, status, sent_at, opened_at, created_at
		FROM invitations WHERE guest_id = ?`, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []models.Invitation
	for rows.Next() {
		var inv models.Invitation
		var sentAt, openedAt sql.NullTime
		if err := rows.Scan(&inv.ID, &inv.GuestID, &inv.Token, &inv.Status, &sentAt, &openedAt, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		inv.SentAt = timePtr(sentAt)
		inv.OpenedAt = timePtr(openedAt)
		invitations = append(invitations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invitations: %w", err)
	}
	return invitations, nil
}

func (s *Store) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invitations (id, guest_id, token, status, sent_at, opened_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.GuestID, inv.Token, inv.Status, utcPtr(inv.SentAt), utcPtr(inv.OpenedAt), inv.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", mapSQLiteError(err))
	}

	log.Debug().
		Str("invitation_id", inv.ID.String()).
		Str("status", string(inv.Status)).
		Msg("Created invitation")
	return nil
}

const invitationDetailQuery = `
	SELECT i.id, i.guest_id, i.token, i.status, i.sent_at, i.opened_at, i.created_at,
	       ` + guestColumns + `,
	       r.id, r.attending, r.party_size, r.dietary_restrictions, r.message, r.notes, r.responded_at
	FROM invitations i
	JOIN guests g ON g.id = i.guest_id
	LEFT JOIN rsvp_responses r ON r.invitation_id = i.id`

func (s *Store) GetInvitation(ctx context.Context, organizerID, invitationID uuid.UUID) (*models.InvitationDetail, error) {
	row := s.db.QueryRowContext(ctx, invitationDetailQuery+` WHERE i.id = ? AND g.organizer_id = ?`, invitationID, organizerID)
	d, err := scanInvitationDetail(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return d, nil
}

func (s *Store) ListInvitations(ctx context.Context, organizerID uuid.UUID) ([]models.InvitationDetail, error) {
	rows, err := s.db.QueryContext(ctx, invitationDetailQuery+` WHERE g.organizer_id = ? ORDER BY i.created_at DESC`, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	details := make([]models.InvitationDetail, 0)
	for rows.Next() {
		d, err := scanInvitationDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		details = append(details, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invitations: %w", err)
	}
	return details, nil
}

func (s *Store) MarkInvitationSent(ctx context.Context, invitationID uuid.UUID, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE invitations SET status = ?, sent_at = ? WHERE id = ?`, models.StatusSent, at.UTC(), invitationID)
	if err != nil {
		return fmt.Errorf("failed to mark invitation sent: %w", err)
	}
	return requireRow(result)
}

func (s *Store) RefreshSentAt(ctx context.Context, invitationID uuid.UUID, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE invitations SET sent_at = ? WHERE id = ?`, at.UTC(), invitationID)
	if err != nil {
		return fmt.Errorf("failed to refresh sent_at: %w", err)
	}
	return requireRow(result)
}

func (s *Store) MarkInvitationOpened(ctx context.Context, token string, at time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE invitations SET status = ?, opened_at = ? WHERE token = ? AND status = ?`,
		models.StatusOpened, at.UTC(), token, models.StatusSent)
	if err != nil {
		return false, fmt.Errorf("failed to mark invitation opened: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Store) MarkInvitationResponded(ctx context.Context, invitationID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE invitations SET status = ? WHERE id = ?`, models.StatusResponded, invitationID)
	if err != nil {
		return fmt.Errorf("failed to mark invitation responded: %w", err)
	}
	return requireRow(result)
}

func (s *Store) LookupToken(ctx context.Context, token string) (*models.InvitationLookup, error) {
	row := s.db.QueryRowContext(ctx, invitationDetailQuery+` WHERE i.token = ?`, token)
	d, err := scanInvitationDetail(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}
	return &models.InvitationLookup{
		InvitationID:      d.ID,
		Token:             d.Token,
		Status:            d.Status,
		GuestName:         d.Guest.Name,
		GuestEmail:        d.Guest.Email,
		ExpectedAttendees: d.Guest.ExpectedAttendees,
		ExistingResponse:  d.Response,
	}, nil
}

func (s *Store) UpsertResponse(ctx context.Context, resp *models.RSVPResponse) error {
	if resp.ID == uuid.Nil {
		resp.ID = uuid.New()
	}

	var storedID uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO rsvp_responses (
			id, invitation_id, attending, party_size, dietary_restrictions, message, responded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (invitation_id) DO UPDATE SET
			attending = excluded.attending,
			party_size = excluded.party_size,
			dietary_restrictions = excluded.dietary_restrictions,
			message = excluded.message,
			responded_at = excluded.responded_at
		RETURNING id`,
		resp.ID, resp.InvitationID, resp.Attending, resp.PartySize,
		resp.DietaryRestrictions, resp.Message, resp.RespondedAt.UTC(),
	).Scan(&storedID)
	if err != nil {
		return fmt.Errorf("failed to upsert response: %w", mapSQLiteError(err))
	}
	resp.ID = storedID

	log.Debug().
		Str("invitation_id", resp.InvitationID.String()).
		Bool("attending", resp.Attending).
		Int("party_size", resp.PartySize).
		Msg("Stored RSVP response")
	return nil
}

func (s *Store) ListResponses(ctx context.Context, organizerID uuid.UUID) ([]models.ResponseDetail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.invitation_id, r.attending, r.party_size, r.dietary_restrictions, r.message, r.notes, r.responded_at,
		       g.id, g.name, g.email, g.phone, g.group_name, g.expected_attendees, i.status
		FROM rsvp_responses r
		JOIN invitations i ON i.id = r.invitation_id
		JOIN guests g ON g.id = i.guest_id
		WHERE g.organizer_id = ?
		ORDER BY r.responded_at DESC`, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	details := make([]models.ResponseDetail, 0)
	for rows.Next() {
		var d models.ResponseDetail
		err := rows.Scan(
			&d.ID, &d.InvitationID, &d.Attending, &d.PartySize, &d.DietaryRestrictions, &d.Message, &d.Notes, &d.RespondedAt,
			&d.GuestID, &d.GuestName, &d.GuestEmail, &d.GuestPhone, &d.GroupName, &d.ExpectedAttendees, &d.InvitationStatus,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating responses: %w", err)
	}
	return details, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvitationDetail(row scanner) (*models.InvitationDetail, error) {
	var (
		d                 models.InvitationDetail
		sentAt, openedAt  sql.NullTime
		respID            uuid.NullUUID
		attending         sql.NullBool
		partySize         sql.NullInt64
		dietary, msg, nts sql.NullString
		respondedAt       sql.NullTime
	)
	err := row.Scan(
		&d.ID, &d.GuestID, &d.Token, &d.Status, &sentAt, &openedAt, &d.CreatedAt,
		&d.Guest.ID, &d.Guest.OrganizerID, &d.Guest.Name, &d.Guest.Email, &d.Guest.Phone, &d.Guest.GroupName,
		&d.Guest.ExpectedAttendees, &d.Guest.CreatedAt,
		&respID, &attending, &partySize, &dietary, &msg, &nts, &respondedAt,
	)
	if err != nil {
		return nil, err
	}
	d.SentAt = timePtr(sentAt)
	d.OpenedAt = timePtr(openedAt)
	if respID.Valid {
		d.Response = &models.RSVPResponse{
			ID:                  respID.UUID,
			InvitationID:        d.ID,
			Attending:           attending.Bool,
			PartySize:           int(partySize.Int64),
			DietaryRestrictions: stringPtr(dietary),
			Message:             stringPtr(msg),
			Notes:               stringPtr(nts),
			RespondedAt:         respondedAt.Time,
		}
	}
	return &d, nil
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
