package main

import (
	"context"

	"github.com/alecthomas/kong"

	"wedding-rsvp/cmd/wedding-rsvp/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug mode."`
		Version kong.VersionFlag

		Serve    commands.ServeCmd    `cmd:"" help:"Start the HTTP API (and the WhatsApp listener when enabled)"`
		Console  commands.ConsoleCmd  `cmd:"" help:"Interactive organizer menu"`
		Register commands.RegisterCmd `cmd:"" help:"Create an organizer account"`
		Import   commands.ImportCmd   `cmd:"" help:"Import guests from a YAML file"`
		Stats    commands.StatsCmd    `cmd:"" help:"Print the RSVP dashboard"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("wedding-rsvp"),
		kong.Description("Wedding guest list and RSVP service."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
