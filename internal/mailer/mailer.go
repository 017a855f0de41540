// Package mailer delivers invitation emails.
package mailer

import (
	"context"
	"errors"
)

var (
	// ErrDelivery is returned when the email provider rejects or fails a send
	ErrDelivery = errors.New("email delivery failed")
	// ErrNotConfigured is returned by the disabled sender
	ErrNotConfigured = errors.New("email sending is not configured")
)

// Invitation is the per-guest content of an invitation email
type Invitation struct {
	To        string
	GuestName string
	RSVPURL   string
}

// Sender delivers invitation emails
type Sender interface {
	SendInvitation(ctx context.Context, inv Invitation) error
}

// Disabled is used when no API key is configured. Every send fails with
// ErrNotConfigured so callers can log it and move on.
type Disabled struct{}

func (Disabled) SendInvitation(context.Context, Invitation) error {
	return ErrNotConfigured
}
