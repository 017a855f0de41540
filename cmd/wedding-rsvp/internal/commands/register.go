package commands

import (
	"context"
	"fmt"

	"wedding-rsvp/internal/accounts"
	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/logger"
)

type RegisterCmd struct {
	Email    string `arg:"" help:"organizer email"`
	Password string `help:"account password" env:"ORGANIZER_PASSWORD" required:""`
}

func (c *RegisterCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, log, false)
	if err != nil {
		return err
	}
	defer a.Close()

	org, err := a.accounts.Register(ctx, accounts.Registration{
		Email:           c.Email,
		Password:        c.Password,
		ConfirmPassword: c.Password,
	})
	if err != nil {
		return err
	}

	fmt.Printf("✅ Organizer %s registered\n", org.Email)
	fmt.Printf("   export ORGANIZER_ID=%s\n", org.ID)
	return nil
}
