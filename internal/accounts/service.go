// Package accounts registers organizers and resolves their identity.
package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

const minPasswordLength = 6

// Registration is the sign-up form
type Registration struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate applies the sign-up rules
func (r *Registration) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	switch {
	case r.Email == "":
		return &models.ValidationError{Field: "email", Message: "email is required"}
	case !strings.Contains(r.Email, "@"):
		return &models.ValidationError{Field: "email", Message: "email is invalid"}
	case r.Password != r.ConfirmPassword:
		return &models.ValidationError{Field: "confirm_password", Message: "passwords do not match"}
	case len(r.Password) < minPasswordLength:
		return &models.ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}
	return nil
}

type Service struct {
	store storage.AccountStore
	cost  int
}

func NewService(store storage.AccountStore) *Service {
	return &Service{store: store, cost: bcrypt.DefaultCost}
}

// Register creates an organizer. A taken email returns storage.ErrConflict.
func (s *Service) Register(ctx context.Context, r Registration) (*models.Organizer, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	org := &models.Organizer{
		ID:           uuid.New(),
		Email:        r.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateOrganizer(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to register organizer: %w", err)
	}
	return org, nil
}

// Get resolves an organizer id
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Organizer, error) {
	org, err := s.store.GetOrganizer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get organizer: %w", err)
	}
	return org, nil
}

// CheckPassword reports whether password matches the organizer's hash
func CheckPassword(org *models.Organizer, password string) bool {
	return bcrypt.CompareHashAndPassword(org.PasswordHash, []byte(password)) == nil
}
