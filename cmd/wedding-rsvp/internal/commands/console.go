package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/guests"
	"wedding-rsvp/internal/invitation"
	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/report"
)

type ConsoleCmd struct {
	OrganizerFlag
}

func (c *ConsoleCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	orgID, err := c.ID()
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	fmt.Println("🎉 Wedding RSVP Console")
	fmt.Println("=======================")

	a, err := newApp(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer a.Close()

	org, err := a.accounts.Get(ctx, orgID)
	if err != nil {
		return err
	}
	if err := a.connectWhatsApp(ctx); err != nil {
		return err
	}

	fmt.Printf("Signed in as %s\n", org.Email)

	con := &Console{
		in:          bufio.NewScanner(os.Stdin),
		out:         os.Stdout,
		organizerID: orgID,
		guests:      a.guests,
		invitations: a.invitations,
		reports:     a.reports,
	}
	con.Run(ctx)

	fmt.Println("Goodbye! 👋")
	return nil
}

// Console is the interactive organizer menu
type Console struct {
	in          *bufio.Scanner
	out         io.Writer
	organizerID uuid.UUID
	guests      *guests.Service
	invitations *invitation.Service
	reports     *report.Service
}

// Run reads commands until exit or end of input
func (c *Console) Run(ctx context.Context) {
	for {
		fmt.Fprintln(c.out, "\nCommands:")
		fmt.Fprintln(c.out, "  1. Add guest")
		fmt.Fprintln(c.out, "  2. Send email invitation")
		fmt.Fprintln(c.out, "  3. Send WhatsApp invitation")
		fmt.Fprintln(c.out, "  4. Get share link")
		fmt.Fprintln(c.out, "  5. View all guests")
		fmt.Fprintln(c.out, "  6. View guests by status")
		fmt.Fprintln(c.out, "  7. View stats")
		fmt.Fprintln(c.out, "  8. Exit")
		fmt.Fprint(c.out, "\nEnter command (1-8): ")

		command, ok := c.readLine()
		if !ok {
			return
		}

		switch command {
		case "1":
			c.addGuest(ctx)
		case "2":
			c.sendEmail(ctx)
		case "3":
			c.sendWhatsApp(ctx)
		case "4":
			c.shareLink(ctx)
		case "5":
			c.viewAllGuests(ctx)
		case "6":
			c.viewGuestsByStatus(ctx)
		case "7":
			c.viewStats(ctx)
		case "8":
			fmt.Fprintln(c.out, "Exiting...")
			return
		default:
			fmt.Fprintln(c.out, "Invalid command. Please try again.")
		}
	}
}

func (c *Console) readLine() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *Console) prompt(label string) (string, bool) {
	fmt.Fprint(c.out, label)
	return c.readLine()
}

func (c *Console) addGuest(ctx context.Context) {
	var in models.GuestInput
	var ok bool
	if in.Name, ok = c.prompt("Enter guest name: "); !ok {
		return
	}
	if in.Email, ok = c.prompt("Enter email: "); !ok {
		return
	}
	if in.Phone, ok = c.prompt("Enter phone number (optional): "); !ok {
		return
	}
	if in.GroupName, ok = c.prompt("Enter group (optional): "); !ok {
		return
	}
	attendees, ok := c.prompt("Expected attendees [1]: ")
	if !ok {
		return
	}
	if attendees != "" {
		n, err := strconv.Atoi(attendees)
		if err != nil {
			fmt.Fprintln(c.out, "❌ Expected attendees must be a number.")
			return
		}
		in.ExpectedAttendees = n
	}

	g, err := c.guests.Add(ctx, c.organizerID, in)
	if err != nil {
		fmt.Fprintf(c.out, "❌ Error adding guest: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "✅ Added %s\n", g.Name)
}

// chooseGuest lists the guests and reads a selection by number
func (c *Console) chooseGuest(ctx context.Context) (*models.Guest, bool) {
	list, err := c.guests.List(ctx, c.organizerID)
	if err != nil {
		fmt.Fprintf(c.out, "❌ Error loading guests: %v\n", err)
		return nil, false
	}
	if len(list) == 0 {
		fmt.Fprintln(c.out, "\nNo guests found.")
		return nil, false
	}

	fmt.Fprintln(c.out)
	for i, g := range list {
		fmt.Fprintf(c.out, "  %d. %s <%s> [%s]\n", i+1, g.Name, g.Email, statusLabel(g.LatestStatus()))
	}
	choice, ok := c.prompt(fmt.Sprintf("Select guest (1-%d): ", len(list)))
	if !ok {
		return nil, false
	}
	n, err := strconv.Atoi(choice)
	if err != nil || n < 1 || n > len(list) {
		fmt.Fprintln(c.out, "Invalid choice.")
		return nil, false
	}
	return &list[n-1], true
}

func (c *Console) sendEmail(ctx context.Context) {
	g, ok := c.chooseGuest(ctx)
	if !ok {
		return
	}
	fmt.Fprintf(c.out, "\nSending invitation to %s (%s)...\n", g.Name, g.Email)
	inv, err := c.invitations.CreateAndSend(ctx, c.organizerID, g.ID)
	if err != nil {
		fmt.Fprintf(c.out, "❌ Error sending invitation: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "✅ Invitation %s is %s\n", inv.Token, inv.Status)
}

func (c *Console) sendWhatsApp(ctx context.Context) {
	g, ok := c.chooseGuest(ctx)
	if !ok {
		return
	}
	fmt.Fprintf(c.out, "\nSending WhatsApp invitation to %s...\n", g.Name)
	share, err := c.invitations.SendWhatsApp(ctx, c.organizerID, g.ID)
	if err != nil {
		fmt.Fprintf(c.out, "❌ Error sending invitation: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "✅ Invitation sent successfully! %s\n", share.RSVPURL)
}

func (c *Console) shareLink(ctx context.Context) {
	g, ok := c.chooseGuest(ctx)
	if !ok {
		return
	}
	share, err := c.invitations.GetOrCreate(ctx, c.organizerID, g.ID)
	if err != nil {
		fmt.Fprintf(c.out, "❌ Error creating link: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "\n🔗 RSVP link: %s\n", share.RSVPURL)
	if share.WhatsAppURL != "" {
		fmt.Fprintf(c.out, "💬 WhatsApp:  %s\n", share.WhatsAppURL)
	}
}

func (c *Console) viewAllGuests(ctx context.Context) {
	rep, err := c.reports.Build(ctx, c.organizerID)
	if err != nil {
		fmt.Fprintf(c.out, "❌ Error loading guests: %v\n", err)
		return
	}
	if len(rep.Guests) == 0 {
		fmt.Fprintln(c.out, "\nNo guests found.")
		return
	}
	fmt.Fprintf(c.out, "\n📋 All Guests (%d total):\n", len(rep.Guests))
	c.printRows(rep.Guests)
}

func (c *Console) viewGuestsByStatus(ctx context.Context) {
	fmt.Fprintln(c.out, "\nSelect status:")
	fmt.Fprintln(c.out, "  1. Not invited")
	fmt.Fprintln(c.out, "  2. Pending")
	fmt.Fprintln(c.out, "  3. Sent")
	fmt.Fprintln(c.out, "  4. Opened")
	fmt.Fprintln(c.out, "  5. Responded")
	choice, ok := c.prompt("Enter choice (1-5): ")
	if !ok {
		return
	}

	statuses := map[string]models.InvitationStatus{
		"1": models.StatusNotInvited,
		"2": models.StatusPending,
		"3": models.StatusSent,
		"4": models.StatusOpened,
		"5": models.StatusResponded,
	}
	status, found := statuses[choice]
	if !found {
		fmt.Fprintln(c.out, "Invalid choice.")
		return
	}

	rep, err := c.reports.Build(ctx, c.organizerID)
	if err != nil {
		fmt.Fprintf(c.out, "❌ Error loading guests: %v\n", err)
		return
	}
	var rows []report.GuestRow
	for _, row := range rep.Guests {
		if row.Status == status {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		fmt.Fprintf(c.out, "\nNo guests with status '%s'.\n", statusLabel(status))
		return
	}
	fmt.Fprintf(c.out, "\n📋 Guests with status '%s' (%d total):\n", statusLabel(status), len(rows))
	c.printRows(rows)
}

func (c *Console) printRows(rows []report.GuestRow) {
	fmt.Fprintln(c.out, strings.Repeat("-", 60))
	for _, row := range rows {
		g := row.Guest
		fmt.Fprintf(c.out, "Name: %s\n", g.Name)
		fmt.Fprintf(c.out, "Email: %s\n", g.Email)
		if g.Phone != nil {
			fmt.Fprintf(c.out, "Phone: %s\n", *g.Phone)
		}
		if g.GroupName != nil {
			fmt.Fprintf(c.out, "Group: %s\n", *g.GroupName)
		}
		fmt.Fprintf(c.out, "Status: %s\n", statusLabel(row.Status))
		if r := row.Response; r != nil {
			if r.Attending {
				fmt.Fprintf(c.out, "Attending: yes, %d of %d\n", r.PartySize, g.ExpectedAttendees)
			} else {
				fmt.Fprintln(c.out, "Attending: no")
			}
			if row.Partial {
				fmt.Fprintln(c.out, "⚠️  Partial attendance")
			}
			fmt.Fprintf(c.out, "RSVP Date: %s\n", r.RespondedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintln(c.out, strings.Repeat("-", 60))
	}
}

func (c *Console) viewStats(ctx context.Context) {
	rep, err := c.reports.Build(ctx, c.organizerID)
	if err != nil {
		fmt.Fprintf(c.out, "❌ Error loading stats: %v\n", err)
		return
	}
	printStats(c.out, rep.Stats)
}

func statusLabel(s models.InvitationStatus) string {
	if s == models.StatusNotInvited {
		return "not invited"
	}
	return string(s)
}
