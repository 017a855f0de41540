package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"wedding-rsvp/internal/links"
)

const defaultEndpoint = "https://api.resend.com/emails"

// ResendConfig configures the Resend client
type ResendConfig struct {
	APIKey  string
	From    string
	ReplyTo string
	Subject string
	Wedding links.Wedding

	// Endpoint overrides the API URL, used by tests
	Endpoint string
	// MaxTries bounds delivery attempts per invitation, default 3
	MaxTries uint
	// InitialInterval is the first retry delay, default 500ms
	InitialInterval time.Duration
}

// Resend sends invitations through the Resend HTTP API
type Resend struct {
	cfg    ResendConfig
	client *http.Client
	logger zerolog.Logger
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// NewResend creates a client. An empty API key is rejected so callers fall
// back to Disabled.
func NewResend(cfg ResendConfig, logger zerolog.Logger) (*Resend, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("email from address is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.MaxTries == 0 {
		cfg.MaxTries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 500 * time.Millisecond
	}
	if cfg.Subject == "" {
		cfg.Subject = fmt.Sprintf("You're invited to %s's wedding", cfg.Wedding.Couple())
	}
	return &Resend{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger.With().Str("component", "mailer").Logger(),
	}, nil
}

// SendInvitation renders and delivers one invitation email
func (r *Resend) SendInvitation(ctx context.Context, inv Invitation) error {
	text, html, err := render(templateData{
		GuestName: inv.GuestName,
		RSVPURL:   inv.RSVPURL,
		Wedding:   r.cfg.Wedding,
	})
	if err != nil {
		return fmt.Errorf("failed to render invitation email: %w", err)
	}

	body, err := json.Marshal(sendRequest{
		From:    r.cfg.From,
		To:      []string{inv.To},
		ReplyTo: r.cfg.ReplyTo,
		Subject: r.cfg.Subject,
		HTML:    html,
		Text:    text,
	})
	if err != nil {
		return fmt.Errorf("failed to encode email request: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialInterval

	id, err := backoff.Retry(ctx, func() (string, error) {
		return r.post(ctx, body)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.cfg.MaxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			r.logger.Warn().Err(err).Dur("retry_in", next).Str("to", inv.To).Msg("Email send failed, retrying")
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	r.logger.Info().Str("to", inv.To).Str("email_id", id).Msg("Invitation email sent")
	return nil
}

func (r *Resend) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("resend returned %d: %s", resp.StatusCode, bytes.TrimSpace(payload))
	case resp.StatusCode >= 300:
		return "", backoff.Permanent(fmt.Errorf("resend returned %d: %s", resp.StatusCode, bytes.TrimSpace(payload)))
	}

	var out sendResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to decode resend response: %w", err))
	}
	return out.ID, nil
}
