package commands

import (
	"context"
	"fmt"
	"os"
	"sort"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/guests"
	"wedding-rsvp/internal/logger"
)

type ImportCmd struct {
	OrganizerFlag
	File string `arg:"" help:"YAML guest list" type:"existingfile"`
	Send bool   `help:"email an invitation to every imported guest"`
}

func (c *ImportCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	orgID, err := c.ID()
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("failed to open guest list: %w", err)
	}
	defer f.Close()

	inputs, err := guests.ParseImport(f)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, log, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.accounts.Get(ctx, orgID); err != nil {
		return err
	}

	res := a.guests.Import(ctx, orgID, inputs)

	rows := make([]int, 0, len(res.Failed))
	for i := range res.Failed {
		rows = append(rows, i)
	}
	sort.Ints(rows)
	for _, i := range rows {
		fmt.Printf("❌ Row %d (%s): %v\n", i+1, inputs[i].Name, res.Failed[i])
	}
	fmt.Printf("✅ Imported %d of %d guests\n", len(res.Added), len(inputs))

	if !c.Send {
		return nil
	}
	for _, g := range res.Added {
		if _, err := a.invitations.CreateAndSend(ctx, orgID, g.ID); err != nil {
			fmt.Printf("❌ Invitation for %s: %v\n", g.Name, err)
			continue
		}
		fmt.Printf("📧 Invitation sent to %s <%s>\n", g.Name, g.Email)
	}
	return nil
}
