package links

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilder_RSVPURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		token   string
		want    string
	}{
		{name: "plain", baseURL: "https://rsvp.example.com", token: "abc", want: "https://rsvp.example.com/rsvp/abc"},
		{name: "trailing slash", baseURL: "https://rsvp.example.com/", token: "abc", want: "https://rsvp.example.com/rsvp/abc"},
		{name: "escaped", baseURL: "http://localhost:8080", token: "a b", want: "http://localhost:8080/rsvp/a%20b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Builder{BaseURL: tt.baseURL}.RSVPURL(tt.token))
		})
	}
}

func TestWhatsAppURL(t *testing.T) {
	got := WhatsAppURL("+972 (50) 123-4567", "Hi Ana & co!")
	require.Equal(t, "https://wa.me/972501234567?text=Hi%20Ana%20%26%20co%21", got)
}

func TestBuilder_InvitationMessage(t *testing.T) {
	b := Builder{Wedding: Wedding{BrideName: "Lili", GroomName: "José", Date: "05.01.2026"}}
	msg := b.InvitationMessage("Ana", "https://x/rsvp/t")

	require.Contains(t, msg, "Dear Ana")
	require.Contains(t, msg, "*Lili* & *José*")
	require.Contains(t, msg, "📅 Date: 05.01.2026")
	require.NotContains(t, msg, "Location")
	require.Contains(t, msg, "https://x/rsvp/t")
	require.Equal(t, "Lili & José", b.Wedding.Couple())
}
