package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/accounts"
	"wedding-rsvp/internal/guests"
	"wedding-rsvp/internal/invitation"
	"wedding-rsvp/internal/links"
	"wedding-rsvp/internal/mailer"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/report"
	"wedding-rsvp/internal/rsvp"
	"wedding-rsvp/internal/storage/jsonfile"
	"wedding-rsvp/internal/storage/storagetest"
)

type stubMailer struct{ err error }

func (m *stubMailer) SendInvitation(context.Context, mailer.Invitation) error { return m.err }

type testServer struct {
	*httptest.Server
	orgID uuid.UUID
	mail  *stubMailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st, err := jsonfile.NewStorage(filepath.Join(t.TempDir(), "rsvp.json"))
	require.NoError(t, err)

	log := zerolog.Nop()
	lb := links.Builder{BaseURL: "https://rsvp.example.com", Wedding: links.Wedding{BrideName: "Lili", GroomName: "José"}}
	mail := &stubMailer{}

	h := New(Services{
		Accounts:    accounts.NewService(st),
		Guests:      guests.NewService(st, "972", log),
		Invitations: invitation.NewService(st, mail, lb, log),
		RSVP:        rsvp.NewService(st, log),
		Reports:     report.NewService(st),
	}, lb.Wedding, []string{"*"}, log)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	org := storagetest.NewOrganizer(t, st, "couple@example.com")
	return &testServer{Server: srv, orgID: org.ID, mail: mail}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, organizer bool) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if organizer {
		req.Header.Set(OrganizerHeader, ts.orgID.String())
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	status, body := ts.do(t, http.MethodGet, "/health", nil, false)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"status":"healthy"}`, string(body))
}

func TestOrganizerHeader(t *testing.T) {
	ts := newTestServer(t)

	status, _ := ts.do(t, http.MethodGet, "/api/guests", nil, false)
	require.Equal(t, http.StatusUnauthorized, status)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/guests", nil)
	require.NoError(t, err)
	req.Header.Set(OrganizerHeader, uuid.NewString())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	status, body := ts.do(t, http.MethodGet, "/api/guests", nil, true)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `[]`, string(body))
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodPost, "/api/accounts", accounts.Registration{
		Email: "new@example.com", Password: "secret1", ConfirmPassword: "secret1",
	}, false)
	require.Equal(t, http.StatusCreated, status)
	org := decode[models.Organizer](t, body)
	require.Equal(t, "new@example.com", org.Email)
	require.NotContains(t, string(body), "password")

	status, _ = ts.do(t, http.MethodPost, "/api/accounts", accounts.Registration{
		Email: "new@example.com", Password: "secret1", ConfirmPassword: "secret1",
	}, false)
	require.Equal(t, http.StatusConflict, status)

	status, body = ts.do(t, http.MethodPost, "/api/accounts", accounts.Registration{
		Email: "x@example.com", Password: "secret1", ConfirmPassword: "other",
	}, false)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "passwords do not match", decode[errorBody](t, body).Error)
}

func TestGuestCRUD(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodPost, "/api/guests", models.GuestInput{Name: "Ana", Email: "ana@example.com", ExpectedAttendees: 3}, true)
	require.Equal(t, http.StatusCreated, status)
	ana := decode[models.Guest](t, body)

	status, body = ts.do(t, http.MethodPost, "/api/guests", models.GuestInput{Email: "x@example.com"}, true)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "name", decode[errorBody](t, body).Field)

	status, body = ts.do(t, http.MethodPut, "/api/guests/"+ana.ID.String(), models.GuestInput{Name: "Ana Silva", Email: "ana@example.com", ExpectedAttendees: 3}, true)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Ana Silva", decode[models.Guest](t, body).Name)

	status, body = ts.do(t, http.MethodGet, "/api/guests/"+ana.ID.String(), nil, true)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 3, decode[models.Guest](t, body).ExpectedAttendees)

	status, _ = ts.do(t, http.MethodGet, "/api/guests/not-a-uuid", nil, true)
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = ts.do(t, http.MethodDelete, "/api/guests/"+ana.ID.String(), nil, true)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = ts.do(t, http.MethodGet, "/api/guests/"+ana.ID.String(), nil, true)
	require.Equal(t, http.StatusNotFound, status)
}

func TestInvitationFlow(t *testing.T) {
	ts := newTestServer(t)

	_, body := ts.do(t, http.MethodPost, "/api/guests", models.GuestInput{Name: "Ana", Email: "ana@example.com", Phone: "050-123-4567", ExpectedAttendees: 3}, true)
	ana := decode[models.Guest](t, body)

	ts.mail.err = mailer.ErrDelivery
	status, body := ts.do(t, http.MethodPost, "/api/guests/"+ana.ID.String()+"/invitation", nil, true)
	require.Equal(t, http.StatusCreated, status)
	inv := decode[models.Invitation](t, body)
	require.Equal(t, models.StatusSent, inv.Status)

	status, body = ts.do(t, http.MethodPost, "/api/guests/"+ana.ID.String()+"/share", nil, true)
	require.Equal(t, http.StatusOK, status)
	share := decode[invitation.Share](t, body)
	require.Equal(t, inv.Token, share.Invitation.Token)
	require.False(t, share.Created)
	require.Equal(t, "https://rsvp.example.com/rsvp/"+inv.Token, share.RSVPURL)
	require.Contains(t, share.WhatsAppURL, "https://wa.me/972501234567")

	status, _ = ts.do(t, http.MethodPost, "/api/invitations/"+inv.ID.String()+"/resend", nil, true)
	require.Equal(t, http.StatusBadGateway, status)

	ts.mail.err = nil
	status, _ = ts.do(t, http.MethodPost, "/api/invitations/"+inv.ID.String()+"/resend", nil, true)
	require.Equal(t, http.StatusOK, status)

	status, _ = ts.do(t, http.MethodPost, "/api/guests/"+ana.ID.String()+"/whatsapp", nil, true)
	require.Equal(t, http.StatusBadGateway, status)

	// guest opens the public page
	status, body = ts.do(t, http.MethodGet, "/api/rsvp/"+inv.Token, nil, false)
	require.Equal(t, http.StatusOK, status)
	var page struct {
		Status    models.InvitationStatus `json:"invitation_status"`
		GuestName string                  `json:"guest_name"`
		Wedding   links.Wedding           `json:"wedding"`
	}
	require.NoError(t, json.Unmarshal(body, &page))
	require.Equal(t, models.StatusOpened, page.Status)
	require.Equal(t, "Ana", page.GuestName)
	require.Equal(t, "Lili", page.Wedding.BrideName)
	require.NotContains(t, string(body), inv.Token)

	status, body = ts.do(t, http.MethodPost, "/api/rsvp/"+inv.Token, models.RSVPForm{Attending: true, PartySize: 2, DietaryRestrictions: "vegetarian"}, false)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 2, decode[models.RSVPResponse](t, body).PartySize)

	status, _ = ts.do(t, http.MethodGet, "/api/rsvp/unknown-token", nil, false)
	require.Equal(t, http.StatusNotFound, status)

	status, body = ts.do(t, http.MethodGet, "/api/invitations", nil, true)
	require.Equal(t, http.StatusOK, status)
	invs := decode[[]models.InvitationDetail](t, body)
	require.Len(t, invs, 1)
	require.Equal(t, models.StatusResponded, invs[0].Status)
	require.NotNil(t, invs[0].Response)

	status, body = ts.do(t, http.MethodGet, "/api/stats", nil, true)
	require.Equal(t, http.StatusOK, status)
	rep := decode[report.Report](t, body)
	require.Equal(t, 1, rep.Stats.Confirmed)
	require.Equal(t, 2, rep.Stats.TotalAttendees)
	require.Equal(t, 1, rep.Stats.DietaryNeeds)
	require.True(t, rep.Guests[0].Partial)

	status, body = ts.do(t, http.MethodGet, "/api/responses?filter=declined", nil, true)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `[]`, string(body))

	status, body = ts.do(t, http.MethodGet, "/api/responses?filter=attending", nil, true)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, decode[[]models.ResponseDetail](t, body), 1)

	status, _ = ts.do(t, http.MethodGet, "/api/responses?filter=maybe", nil, true)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&models.ValidationError{Message: "bad"}, http.StatusBadRequest},
		{&models.ExternalError{Service: "email", Err: mailer.ErrDelivery}, http.StatusBadGateway},
		{mailer.ErrNotConfigured, http.StatusBadGateway},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	// browsers send request header names lowercased
	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/guests", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", strings.ToLower(OrganizerHeader)+",content-type")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
