package mailer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/yanqian/daily-briefing/internal/domain/briefing"
	"github.com/yanqian/daily-briefing/internal/infra/vault"
)

func TestBuildMultipartAlternative(t *testing.T) {
	now := time.Date(2024, 7, 9, 6, 0, 0, 0, time.UTC)
	html := "<b>Today</b><br>" + string(bytes.Repeat([]byte("é"), 60))
	raw, err := build("me@example.com", []string{"a@example.com", "b@example.com"},
		briefing.Email{Subject: "Morning Briefing 20240709", HTML: html}, now)
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, "me@example.com", parsed.Header.Get("From"))
	require.Equal(t, "a@example.com, b@example.com", parsed.Header.Get("To"))
	require.Equal(t, "Morning Briefing 20240709", parsed.Header.Get("Subject"))
	require.Equal(t, "1.0", parsed.Header.Get("MIME-Version"))
	require.Contains(t, parsed.Header.Get("Message-ID"), "@example.com>")

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/alternative", mediaType)

	reader := multipart.NewReader(parsed.Body, params["boundary"])
	part, err := reader.NextRawPart()
	require.NoError(t, err)
	require.Equal(t, "text/html; charset=utf-8", part.Header.Get("Content-Type"))
	decoded, err := io.ReadAll(quotedprintable.NewReader(part))
	require.NoError(t, err)
	require.Equal(t, html, string(decoded))

	_, err = reader.NextPart()
	require.ErrorIs(t, err, io.EOF)
}

func TestXOAuth2Auth(t *testing.T) {
	a := &xoauth2Auth{username: "me@example.com", token: "ya29.token"}

	_, _, err := a.Start(&smtp.ServerInfo{Name: "smtp.gmail.com", TLS: false})
	require.Error(t, err)

	mech, resp, err := a.Start(&smtp.ServerInfo{Name: "smtp.gmail.com", TLS: true})
	require.NoError(t, err)
	require.Equal(t, "XOAUTH2", mech)
	require.Equal(t, "user=me@example.com\x01auth=Bearer ya29.token\x01\x01", string(resp))

	next, err := a.Next([]byte(`{"status":"400"}`), true)
	require.NoError(t, err)
	require.Empty(t, next)
}

type staticCreds struct {
	creds vault.Credentials
	err   error
}

func (s staticCreds) Credentials(context.Context) (vault.Credentials, error) {
	return s.creds, s.err
}

func TestSMTPMailerAuthSelection(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	creds := vault.Credentials{Server: "smtp.example.com", Port: 587, From: "me@example.com", Pass: "p", To: vault.Recipients{"you@example.com"}}

	m := NewSMTPMailer(staticCreds{creds: creds}, 0, logger)
	auth, err := m.auth(creds)
	require.NoError(t, err)
	_, isXOAuth := auth.(*xoauth2Auth)
	require.False(t, isXOAuth)

	m.WithXOAuth2(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "ya29.token"}))
	auth, err = m.auth(creds)
	require.NoError(t, err)
	x, ok := auth.(*xoauth2Auth)
	require.True(t, ok)
	require.Equal(t, "ya29.token", x.token)
}

func TestSMTPMailerCredentialFailure(t *testing.T) {
	m := NewSMTPMailer(staticCreds{err: errors.New("key missing")}, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := m.Send(context.Background(), briefing.Email{Subject: "s", HTML: "h"})
	require.ErrorContains(t, err, "key missing")
}

func TestMockMailerRecords(t *testing.T) {
	m := NewMockMailer(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, m.Send(context.Background(), briefing.Email{Subject: "Midday Briefing 20240709", HTML: "<p>hi</p>"}))
	require.Equal(t, []briefing.Email{{Subject: "Midday Briefing 20240709", HTML: "<p>hi</p>"}}, m.Sent())
}
