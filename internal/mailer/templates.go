package mailer

import (
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"wedding-rsvp/internal/links"
)

type templateData struct {
	GuestName string
	RSVPURL   string
	Wedding   links.Wedding
}

var textBody = texttemplate.Must(texttemplate.New("text").Parse(`Dear {{.GuestName}},

You are cordially invited to celebrate the wedding of {{.Wedding.BrideName}} & {{.Wedding.GroomName}}.
{{if .Wedding.Date}}
Date: {{.Wedding.Date}}{{end}}{{if .Wedding.Location}}
Location: {{.Wedding.Location}}{{end}}

Please let us know if you can make it:
{{.RSVPURL}}

With love,
{{.Wedding.BrideName}} & {{.Wedding.GroomName}}
`))

var htmlBody = htmltemplate.Must(htmltemplate.New("html").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Georgia, serif; color: #333; max-width: 560px; margin: 0 auto;">
  <h1 style="text-align: center; font-weight: normal;">{{.Wedding.BrideName}} &amp; {{.Wedding.GroomName}}</h1>
  <p>Dear {{.GuestName}},</p>
  <p>You are cordially invited to celebrate our wedding.</p>
  {{if .Wedding.Date}}<p><strong>Date:</strong> {{.Wedding.Date}}</p>{{end}}
  {{if .Wedding.Location}}<p><strong>Location:</strong> {{.Wedding.Location}}</p>{{end}}
  <p style="text-align: center; margin: 32px 0;">
    <a href="{{.RSVPURL}}" style="background: #b76e79; color: #fff; padding: 12px 24px; border-radius: 4px; text-decoration: none;">RSVP</a>
  </p>
  <p style="font-size: 12px; color: #888;">Or open this link: {{.RSVPURL}}</p>
</body>
</html>
`))

func render(data templateData) (text, html string, err error) {
	var tb, hb strings.Builder
	if err := textBody.Execute(&tb, data); err != nil {
		return "", "", err
	}
	if err := htmlBody.Execute(&hb, data); err != nil {
		return "", "", err
	}
	return tb.String(), hb.String(), nil
}
