package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wedding-rsvp/internal/accounts"
	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/guests"
	"wedding-rsvp/internal/handler"
	"wedding-rsvp/internal/invitation"
	"wedding-rsvp/internal/mailer"
	"wedding-rsvp/internal/report"
	"wedding-rsvp/internal/rsvp"
	"wedding-rsvp/internal/storage"
	"wedding-rsvp/internal/storage/jsonfile"
	"wedding-rsvp/internal/storage/postgres"
	"wedding-rsvp/internal/storage/sqlite"
	"wedding-rsvp/internal/whatsapp"
)

type Globals struct {
	Debug   bool
	Version string
}

// OrganizerFlag selects whose guest list a command works on
type OrganizerFlag struct {
	Organizer string `help:"organizer account id" env:"ORGANIZER_ID" required:""`
}

func (f OrganizerFlag) ID() (uuid.UUID, error) {
	id, err := uuid.Parse(f.Organizer)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid organizer id %q: %w", f.Organizer, err)
	}
	return id, nil
}

func configureHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}

// app wires the store and services for one command run
type app struct {
	cfg *config.Config
	log zerolog.Logger

	store       storage.Store
	accounts    *accounts.Service
	guests      *guests.Service
	invitations *invitation.Service
	rsvp        *rsvp.Service
	reports     *report.Service
	whatsapp    *whatsapp.Service
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, withWhatsApp bool) (*app, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		store:    st,
		accounts: accounts.NewService(st),
		guests:   guests.NewService(st, cfg.DefaultCountryCode, log),
		rsvp:     rsvp.NewService(st, log),
		reports:  report.NewService(st),
	}

	var sender mailer.Sender = mailer.Disabled{}
	if resend, err := mailer.NewResend(cfg.Resend(), log); err == nil {
		sender = resend
	} else {
		log.Warn().Err(err).Msg("Email invitations disabled")
	}

	var opts []invitation.Option
	if withWhatsApp && cfg.WhatsAppEnabled {
		a.whatsapp, err = whatsapp.NewService(ctx, cfg.WhatsApp(), log)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to initialize WhatsApp service: %w", err)
		}
		chat := handler.NewRSVPHandler(st, a.rsvp, a.whatsapp, cfg.Wedding.Wedding(), cfg.DefaultCountryCode, log)
		a.whatsapp.SetMessageHandler(chat.HandleMessage)
		opts = append(opts, invitation.WithMessenger(a.whatsapp))
	}
	a.invitations = invitation.NewService(st, sender, cfg.Links(), log, opts...)

	return a, nil
}

// connectWhatsApp pairs and connects the chat client when it is enabled
func (a *app) connectWhatsApp(ctx context.Context) error {
	if a.whatsapp == nil {
		return nil
	}
	fmt.Println("Connecting to WhatsApp...")
	if err := a.whatsapp.Connect(ctx, os.Stdout); err != nil {
		return err
	}
	fmt.Println("✅ Connected to WhatsApp! Listening for RSVP replies.")
	return nil
}

func (a *app) Close() {
	if a.whatsapp != nil {
		a.whatsapp.Disconnect()
	}
	if err := a.store.Close(); err != nil {
		a.log.Error().Err(err).Msg("Failed to close store")
	}
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.Store, error) {
	switch cfg.StoreType {
	case config.StorePostgres:
		st, err := postgres.Open(ctx, cfg.PoolConfig(), cfg.Postgres.AutoMigrate)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		log.Info().Msg("Using PostgreSQL store")
		return st, nil
	case config.StoreSQLite:
		path := cfg.SQLiteFile()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite dir: %w", err)
		}
		st, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		log.Info().Str("path", path).Msg("Using SQLite store")
		return st, nil
	default:
		st, err := jsonfile.NewStorage(cfg.JSONPath())
		if err != nil {
			return nil, fmt.Errorf("error initializing storage: %w", err)
		}
		log.Info().Str("path", cfg.JSONPath()).Msg("Using JSON file store")
		return st, nil
	}
}
