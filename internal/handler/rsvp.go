// Package handler turns inbound WhatsApp chat replies into RSVP answers.
package handler

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow/types/events"

	"wedding-rsvp/internal/links"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/whatsapp"
)

// GuestFinder finds guests by normalized phone number
type GuestFinder interface {
	FindGuestsByPhone(ctx context.Context, phone string) ([]models.Guest, error)
}

// Submitter records an RSVP answer
type Submitter interface {
	Submit(ctx context.Context, invitationID uuid.UUID, form models.RSVPForm) (*models.RSVPResponse, error)
}

// Replier sends a chat message back
type Replier interface {
	SendText(ctx context.Context, phone, message string) error
}

// Reply is a recognised answer in a chat message
type Reply int

const (
	ReplyUnknown Reply = iota
	ReplyYes
	ReplyNo
)

var (
	yesKeywords = []string{"yes", "yep", "yeah", "accept", "accepting", "attending", "coming", "will come", "will be there", "✅"}
	noKeywords  = []string{"no", "nope", "decline", "declining", "not coming", "can't come", "won't come", "can't make it", "❌"}
)

// ParseReply classifies free text as yes, no or neither. Negative phrases
// are removed before looking for positive ones so "not coming" is a no.
// A reply carrying both polarities ("yes, no problem") is left unknown.
func ParseReply(text string) Reply {
	text = strings.ToLower(strings.TrimSpace(text))
	rest, no := cutKeywords(text, noKeywords...)
	_, yes := cutKeywords(rest, yesKeywords...)
	switch {
	case no && !yes:
		return ReplyNo
	case yes && !no:
		return ReplyYes
	}
	return ReplyUnknown
}

type RSVPHandler struct {
	guests      GuestFinder
	rsvp        Submitter
	replier     Replier
	wedding     links.Wedding
	countryCode string
	log         zerolog.Logger
}

// NewRSVPHandler creates a new RSVP handler
func NewRSVPHandler(guests GuestFinder, rsvp Submitter, replier Replier, wedding links.Wedding, countryCode string, logger zerolog.Logger) *RSVPHandler {
	return &RSVPHandler{
		guests:      guests,
		rsvp:        rsvp,
		replier:     replier,
		wedding:     wedding,
		countryCode: countryCode,
		log:         logger.With().Str("component", "chat-rsvp").Logger(),
	}
}

// HandleMessage processes incoming WhatsApp messages for RSVP responses
func (h *RSVPHandler) HandleMessage(msg *events.Message) error {
	if msg.Message == nil {
		return nil
	}
	text := msg.Message.GetConversation()
	if text == "" {
		text = msg.Message.GetExtendedTextMessage().GetText()
	}
	if text == "" {
		return nil
	}
	_, err := h.HandleReply(context.Background(), whatsapp.SenderPhone(msg.Info.Sender), text)
	return err
}

// HandleReply records a yes/no answer from phone against the latest
// invitation of every guest with that number. It reports whether anything
// was recorded. Unknown senders and unclear text are ignored.
func (h *RSVPHandler) HandleReply(ctx context.Context, phone, text string) (bool, error) {
	reply := ParseReply(text)
	if reply == ReplyUnknown {
		return false, nil
	}

	phone = whatsapp.NormalizePhoneNumber(phone, h.countryCode)
	guests, err := h.guests.FindGuestsByPhone(ctx, phone)
	if err != nil {
		return false, fmt.Errorf("failed to find guest: %w", err)
	}

	recorded := false
	for _, g := range guests {
		inv := models.LatestInvitation(g.Invitations)
		if inv == nil {
			continue
		}
		form := models.RSVPForm{Attending: reply == ReplyYes}
		if form.Attending {
			form.PartySize = g.ExpectedAttendees
		}
		if _, err := h.rsvp.Submit(ctx, inv.ID, form); err != nil {
			return recorded, fmt.Errorf("failed to update RSVP: %w", err)
		}
		recorded = true
		h.log.Info().Str("guest", g.Name).Bool("attending", form.Attending).Msg("RSVP received via WhatsApp")
	}
	if !recorded {
		return false, nil
	}

	if err := h.replier.SendText(ctx, phone, h.confirmation(reply)); err != nil {
		return true, fmt.Errorf("failed to send confirmation: %w", err)
	}
	return true, nil
}

func (h *RSVPHandler) confirmation(reply Reply) string {
	if reply == ReplyYes {
		return fmt.Sprintf(
			"🎉 Wonderful! We're so excited to celebrate with you!\n\n"+
				"We've confirmed your attendance for the wedding of %s & %s on %s.\n\n"+
				"See you there! 💕",
			h.wedding.BrideName, h.wedding.GroomName, h.wedding.Date,
		)
	}
	return fmt.Sprintf(
		"Thank you for letting us know. We're sorry you won't be able to join us for the wedding of %s & %s.\n\n"+
			"We'll miss you! 💕",
		h.wedding.BrideName, h.wedding.GroomName,
	)
}

// cutKeywords blanks out every keyword found in text as a whole word or
// phrase and reports whether any matched.
func cutKeywords(text string, keywords ...string) (string, bool) {
	found := false
	for _, keyword := range keywords {
		for from := 0; from < len(text); {
			i := strings.Index(text[from:], keyword)
			if i < 0 {
				break
			}
			start, end := from+i, from+i+len(keyword)
			if (!isWordByte(keyword[0]) || !isWordAt(text, start-1)) &&
				(!isWordByte(keyword[len(keyword)-1]) || !isWordAt(text, end)) {
				text = text[:start] + " " + text[end:]
				found = true
				from = start + 1
				continue
			}
			from = start + 1
		}
	}
	return text, found
}

func isWordAt(text string, i int) bool {
	return i >= 0 && i < len(text) && isWordByte(text[i])
}

func isWordByte(b byte) bool {
	return b < utf8.RuneSelf && (unicode.IsLetter(rune(b)) || unicode.IsDigit(rune(b)))
}
