package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/report"
)

type StatsCmd struct {
	OrganizerFlag
}

func (c *StatsCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	orgID, err := c.ID()
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, log, false)
	if err != nil {
		return err
	}
	defer a.Close()

	rep, err := a.reports.Build(ctx, orgID)
	if err != nil {
		return err
	}
	printStats(os.Stdout, rep.Stats)
	return nil
}

func printStats(w io.Writer, s report.Stats) {
	fmt.Fprintln(w, "\n📊 RSVP Dashboard")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "Total guests:       %d\n", s.TotalGuests)
	fmt.Fprintf(w, "Invitations sent:   %d\n", s.InvitationsSent)
	fmt.Fprintf(w, "Awaiting response:  %d\n", s.AwaitingResponse)
	fmt.Fprintf(w, "Confirmed:          %d\n", s.Confirmed)
	fmt.Fprintf(w, "Declined:           %d\n", s.Declined)
	fmt.Fprintf(w, "Total attendees:    %d (of %d expected)\n", s.TotalAttendees, s.ExpectedAttendees)
	fmt.Fprintf(w, "Dietary needs:      %d\n", s.DietaryNeeds)
	if s.InvitationsSent > 0 {
		fmt.Fprintf(w, "Response rate:      %.0f%% (%d/%d)\n", s.ResponseRate*100, s.Responded(), s.InvitationsSent)
	}
	if s.Responded() > 0 {
		fmt.Fprintf(w, "Attendance rate:    %.0f%%\n", s.AttendanceRate*100)
	}
	fmt.Fprintln(w, strings.Repeat("-", 40))
}
