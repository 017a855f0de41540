package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/server"
)

type ServeCmd struct {
	Listen      string   `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"LISTEN_ADDR"`
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"*" env:"CORS_ORIGINS"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.connectWhatsApp(ctx); err != nil {
		return err
	}

	handler := server.New(server.Services{
		Accounts:    a.accounts,
		Guests:      a.guests,
		Invitations: a.invitations,
		RSVP:        a.rsvp,
		Reports:     a.reports,
	}, cfg.Wedding.Wedding(), c.CORSOrigins, log)

	srv := configureHTTPServer(c.Listen, handler)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", c.Listen).Str("store", cfg.StoreType).Msg("Starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
