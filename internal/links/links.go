// Package links builds the URLs and message text that carry an invitation
// token to a guest.
package links

import (
	"fmt"
	"net/url"
	"strings"
)

// Wedding holds the event details quoted in invitation messages
type Wedding struct {
	BrideName string `json:"bride_name"`
	GroomName string `json:"groom_name"`
	Date      string `json:"date,omitempty"`
	Location  string `json:"location,omitempty"`
}

// Couple renders "Bride & Groom"
func (w Wedding) Couple() string {
	return fmt.Sprintf("%s & %s", w.BrideName, w.GroomName)
}

// Builder turns tokens into absolute links
type Builder struct {
	BaseURL string
	Wedding Wedding
}

// RSVPURL returns the public RSVP page for token
func (b Builder) RSVPURL(token string) string {
	return strings.TrimRight(b.BaseURL, "/") + "/rsvp/" + url.PathEscape(token)
}

// InvitationMessage is the chat text sent with an RSVP link
func (b Builder) InvitationMessage(guestName, rsvpURL string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎉 *Wedding Invitation*\n\nDear %s,\n\n", guestName)
	fmt.Fprintf(&sb, "You are cordially invited to celebrate the wedding of\n\n*%s* & *%s*\n\n", b.Wedding.BrideName, b.Wedding.GroomName)
	if b.Wedding.Date != "" {
		fmt.Fprintf(&sb, "📅 Date: %s\n", b.Wedding.Date)
	}
	if b.Wedding.Location != "" {
		fmt.Fprintf(&sb, "📍 Location: %s\n", b.Wedding.Location)
	}
	fmt.Fprintf(&sb, "\nPlease confirm your attendance here:\n%s", rsvpURL)
	return sb.String()
}

// WhatsAppURL returns a wa.me deep link that opens a chat with phone and
// prefills message. Non-digits are stripped from phone.
func WhatsAppURL(phone, message string) string {
	digits := DigitsOnly(phone)
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return fmt.Sprintf("https://wa.me/%s?text=%s", digits, text)
}

// DigitsOnly drops every character that is not 0-9
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
