package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store implements storage.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Open creates the pool, optionally migrates, and returns the store.
func Open(ctx context.Context, cfg *PoolConfig, autoMigrate bool) (*Store, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if autoMigrate {
		if err := runMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return NewStore(pool), nil
}

// NewStore wraps an existing pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) CreateOrganizer(ctx context.Context, org *models.Organizer) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO organizers (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`,
		org.ID, org.Email, org.PasswordHash, org.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create organizer: %w", mapPostgresError(err))
	}

	log.Debug().Str("organizer_id", org.ID.String()).Msg("Created organizer")
	return nil
}

func (s *Store) GetOrganizer(ctx context.Context, id uuid.UUID) (*models.Organizer, error) {
	var org models.Organizer
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM organizers WHERE id = $1`, id,
	).Scan(&org.ID, &org.Email, &org.PasswordHash, &org.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get organizer: %w", err)
	}
	return &org, nil
}

func (s *Store) CreateGuest(ctx context.Context, g *models.Guest) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO guests (
			id, organizer_id, name, email, phone, group_name, expected_attendees, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)`,
		g.ID, g.OrganizerID, g.Name, g.Email, g.Phone, g.GroupName, g.ExpectedAttendees, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create guest: %w", mapPostgresError(err))
	}

	log.Debug().Str("guest_id", g.ID.String()).Str("name", g.Name).Msg("Created guest")
	return nil
}

// guestQuery aggregates each guest's invitations into a JSON array so one
// round trip returns the guest list with invitations attached.
const guestQuery = `
	SELECT g.id, g.organizer_id, g.name, g.email, g.phone, g.group_name, g.expected_attendees, g.created_at,
	       COALESCE(
	           json_agg(json_build_object(
	               'id', i.id, 'guest_id', i.guest_id, 'token', i.token, 'status', i.status,
	               'sent_at', i.sent_at, 'opened_at', i.opened_at, 'created_at', i.created_at
	           )) FILTER (WHERE i.id IS NOT NULL),
	           '[]'
	       )
	FROM guests g
	LEFT JOIN invitations i ON i.guest_id = g.id`

func (s *Store) GetGuest(ctx context.Context, organizerID, guestID uuid.UUID) (*models.Guest, error) {
	guests, err := s.queryGuests(ctx, guestQuery+` WHERE g.id = $1 AND g.organizer_id = $2 GROUP BY g.id`, guestID, organizerID)
	if err != nil {
		return nil, err
	}
	if len(guests) == 0 {
		return nil, storage.ErrNotFound
	}
	return &guests[0], nil
}

func (s *Store) UpdateGuest(ctx context.Context, g *models.Guest) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE guests SET
			name = $3,
			email = $4,
			phone = $5,
			group_name = $6,
			expected_attendees = $7
		WHERE id = $1 AND organizer_id = $2`,
		g.ID, g.OrganizerID, g.Name, g.Email, g.Phone, g.GroupName, g.ExpectedAttendees,
	)
	if err != nil {
		return fmt.Errorf("failed to update guest: %w", mapPostgresError(err))
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteGuest cascades to invitations and responses via FK constraints.
func (s *Store) DeleteGuest(ctx context.Context, organizerID, guestID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM guests WHERE id = $1 AND organizer_id = $2`, guestID, organizerID)
	if err != nil {
		return fmt.Errorf("failed to delete guest: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	log.Info().Str("guest_id", guestID.String()).Msg("Deleted guest")
	return nil
}

func (s *Store) ListGuests(ctx context.Context, organizerID uuid.UUID) ([]models.Guest, error) {
	return s.queryGuests(ctx, guestQuery+` WHERE g.organizer_id = $1 GROUP BY g.id ORDER BY g.created_at DESC`, organizerID)
}

func (s *Store) FindGuestsByPhone(ctx context.Context, phone string) ([]models.Guest, error) {
	return s.queryGuests(ctx, guestQuery+` WHERE g.phone = $1 GROUP BY g.id ORDER BY g.created_at DESC`, phone)
}

func (s *Store) queryGuests(ctx context.Context, query string, args ...any) ([]models.Guest, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query guests: %w", err)
	}
	defer rows.Close()

	guests := make([]models.Guest, 0)
	for rows.Next() {
		var g models.Guest
		var invitations []models.Invitation
		err := rows.Scan(
			&g.ID, &g.OrganizerID, &g.Name, &g.Email, &g.Phone, &g.GroupName, &g.ExpectedAttendees, &g.CreatedAt,
			&invitations,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guest: %w", err)
		}
		if len(invitations) > 0 {
			g.Invitations = invitations
		}
		guests = append(guests, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating guests: %w", err)
	}
	return guests, nil
}

func (s *Store) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO invitations (id, guest_id, token, status, sent_at, opened_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		inv.ID, inv.GuestID, inv.Token, string(inv.Status), inv.SentAt, inv.OpenedAt, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("invitation_id", inv.ID.String()).
		Str("status", string(inv.Status)).
		Msg("Created invitation")
	return nil
}

const invitationDetailQuery = `
	SELECT i.id, i.guest_id, i.token, i.status, i.sent_at, i.opened_at, i.created_at,
	       g.id, g.organizer_id, g.name, g.email, g.phone, g.group_name, g.expected_attendees, g.created_at,
	       r.id, r.attending, r.party_size, r.dietary_restrictions, r.message, r.notes, r.responded_at
	FROM invitations i
	JOIN guests g ON g.id = i.guest_id
	LEFT JOIN rsvp_responses r ON r.invitation_id = i.id`

func (s *Store) GetInvitation(ctx context.Context, organizerID, invitationID uuid.UUID) (*models.InvitationDetail, error) {
	row := s.pool.QueryRow(ctx, invitationDetailQuery+` WHERE i.id = $1 AND g.organizer_id = $2`, invitationID, organizerID)
	d, err := scanInvitationDetail(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return d, nil
}

func (s *Store) ListInvitations(ctx context.Context, organizerID uuid.UUID) ([]models.InvitationDetail, error) {
	rows, err := s.pool.Query(ctx, invitationDetailQuery+` WHERE g.organizer_id = $1 ORDER BY i.created_at DESC`, organizerID)
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
	return s.execOne(ctx, "mark invitation sent",
		`UPDATE invitations SET status = $2, sent_at = $3 WHERE id = $1`,
		invitationID, string(models.StatusSent), at)
}

func (s *Store) RefreshSentAt(ctx context.Context, invitationID uuid.UUID, at time.Time) error {
	return s.execOne(ctx, "refresh sent_at",
		`UPDATE invitations SET sent_at = $2 WHERE id = $1`, invitationID, at)
}

func (s *Store) MarkInvitationResponded(ctx context.Context, invitationID uuid.UUID) error {
	return s.execOne(ctx, "mark invitation responded",
		`UPDATE invitations SET status = $2 WHERE id = $1`, invitationID, string(models.StatusResponded))
}

func (s *Store) MarkInvitationOpened(ctx context.Context, token string, at time.Time) (bool, error) {
	result, err := s.pool.Exec(ctx, `
		UPDATE invitations SET status = $2, opened_at = $3
		WHERE token = $1 AND status = $4`,
		token, string(models.StatusOpened), at, string(models.StatusSent),
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark invitation opened: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (s *Store) LookupToken(ctx context.Context, token string) (*models.InvitationLookup, error) {
	row := s.pool.QueryRow(ctx, invitationDetailQuery+` WHERE i.token = $1`, token)
	d, err := scanInvitationDetail(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

// UpsertResponse relies on the rsvp_responses_invitation_id_key constraint:
// a second submission for the same invitation updates the row in place.
func (s *Store) UpsertResponse(ctx context.Context, resp *models.RSVPResponse) error {
	if resp.ID == uuid.Nil {
		resp.ID = uuid.New()
	}

	var (
		storedID uuid.UUID
		inserted bool
	)
	err := s.pool.QueryRow(ctx, `
		INSERT INTO rsvp_responses (
			id, invitation_id, attending, party_size, dietary_restrictions, message, responded_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		ON CONFLICT ON CONSTRAINT rsvp_responses_invitation_id_key DO UPDATE SET
			attending = EXCLUDED.attending,
			party_size = EXCLUDED.party_size,
			dietary_restrictions = EXCLUDED.dietary_restrictions,
			message = EXCLUDED.message,
			responded_at = EXCLUDED.responded_at
		RETURNING id, (xmax = 0)`,
		resp.ID, resp.InvitationID, resp.Attending, resp.PartySize,
		resp.DietaryRestrictions, resp.Message, resp.RespondedAt,
	).Scan(&storedID, &inserted)
	if err != nil {
		return fmt.Errorf("failed to upsert response: %w", mapPostgresError(err))
	}
	resp.ID = storedID

	log.Debug().
		Str("invitation_id", resp.InvitationID.String()).
		Bool("inserted", inserted).
		Bool("attending", resp.Attending).
		Msg("Stored RSVP response")
	return nil
}

func (s *Store) ListResponses(ctx context.Context, organizerID uuid.UUID) ([]models.ResponseDetail, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.invitation_id, r.attending, r.party_size, r.dietary_restrictions, r.message, r.notes, r.responded_at,
		       g.id, g.name, g.email, g.phone, g.group_name, g.expected_attendees, i.status
		FROM rsvp_responses r
		JOIN invitations i ON i.id = r.invitation_id
		JOIN guests g ON g.id = i.guest_id
		WHERE g.organizer_id = $1
		ORDER BY r.responded_at DESC`, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	details := make([]models.ResponseDetail, 0)
	for rows.Next() {
		var d models.ResponseDetail
		var status string
		err := rows.Scan(
			&d.ID, &d.InvitationID, &d.Attending, &d.PartySize, &d.DietaryRestrictions, &d.Message, &d.Notes, &d.RespondedAt,
			&d.GuestID, &d.GuestName, &d.GuestEmail, &d.GuestPhone, &d.GroupName, &d.ExpectedAttendees, &status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		d.InvitationStatus = models.InvitationStatus(status)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating responses: %w", err)
	}
	return details, nil
}

func (s *Store) execOne(ctx context.Context, what, query string, args ...any) error {
	result, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanInvitationDetail(row pgx.Row) (*models.InvitationDetail, error) {
	var (
		d           models.InvitationDetail
		status      string
		respID      *uuid.UUID
		attending   *bool
		partySize   *int
		dietary     *string
		message     *string
		notes       *string
		respondedAt *time.Time
	)
	err := row.Scan(
		&d.ID, &d.GuestID, &d.Token, &status, &d.SentAt, &d.OpenedAt, &d.CreatedAt,
		&d.Guest.ID, &d.Guest.OrganizerID, &d.Guest.Name, &d.Guest.Email, &d.Guest.Phone, &d.Guest.GroupName,
		&d.Guest.ExpectedAttendees, &d.Guest.CreatedAt,
		&respID, &attending, &partySize, &dietary, &message, &notes, &respondedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Status = models.InvitationStatus(status)
	if respID != nil {
		d.Response = &models.RSVPResponse{
			ID:                  *respID,
			InvitationID:        d.ID,
			Attending:           attending != nil && *attending,
			DietaryRestrictions: dietary,
			Message:             message,
			Notes:               notes,
		}
		if partySize != nil {
			d.Response.PartySize = *partySize
		}
		if respondedAt != nil {
			d.Response.RespondedAt = *respondedAt
		}
	}
	return &d, nil
}
