package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/yanqian/daily-briefing/internal/domain/briefing"
	"github.com/yanqian/daily-briefing/internal/infra/vault"
)

// CredentialSource yields SMTP credentials at send time.
type CredentialSource interface {
	Credentials(ctx context.Context) (vault.Credentials, error)
}

// SMTPMailer delivers over SMTP with mandatory STARTTLS.
type SMTPMailer struct {
	creds   CredentialSource
	tokens  oauth2.TokenSource
	timeout time.Duration
	tls     func(server string) *tls.Config
	now     func() time.Time
	logger  *slog.Logger
}

// NewSMTPMailer uses PLAIN auth with the sealed password.
func NewSMTPMailer(creds CredentialSource, timeout time.Duration, logger *slog.Logger) *SMTPMailer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SMTPMailer{
		creds:   creds,
		timeout: timeout,
		tls: func(server string) *tls.Config {
			return &tls.Config{ServerName: server, MinVersion: tls.VersionTLS12}
		},
		now:    time.Now,
		logger: logger.With("component", "mailer.smtp"),
	}
}

// WithXOAuth2 switches to XOAUTH2 with access tokens from tokens.
func (m *SMTPMailer) WithXOAuth2(tokens oauth2.TokenSource) *SMTPMailer {
	m.tokens = tokens
	return m
}

// GoogleTokenSource refreshes Gmail access tokens from a long lived refresh token.
func GoogleTokenSource(ctx context.Context, clientID, clientSecret, refreshToken string) oauth2.TokenSource {
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"https://mail.google.com/"},
	}
	return oauth2.ReuseTokenSource(nil, conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}))
}

// Send delivers msg to every configured recipient.
func (m *SMTPMailer) Send(ctx context.Context, msg briefing.Email) error {
	creds, err := m.creds.Credentials(ctx)
	if err != nil {
		return fmt.Errorf("load smtp credentials: %w", err)
	}
	payload, err := build(creds.From, creds.To, msg, m.now())
	if err != nil {
		return err
	}
	auth, err := m.auth(creds)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(creds.Server, strconv.Itoa(creds.Port))
	dialer := net.Dialer{Timeout: m.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	deadline := time.Now().Add(m.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	c, err := smtp.NewClient(conn, creds.Server)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); !ok {
		return errors.New("smtp server does not offer STARTTLS")
	}
	if err := c.StartTLS(m.tls(creds.Server)); err != nil {
		return fmt.Errorf("starttls: %w", err)
	}
	if err := c.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := c.Mail(creds.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range creds.To {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		w.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish message: %w", err)
	}
	if err := c.Quit(); err != nil {
		m.logger.Warn("smtp quit failed", "error", err)
	}
	m.logger.Info("email sent", "subject", msg.Subject, "recipients", len(creds.To), "bytes", len(payload))
	return nil
}

func (m *SMTPMailer) auth(creds vault.Credentials) (smtp.Auth, error) {
	if m.tokens == nil {
		return smtp.PlainAuth("", creds.From, creds.Pass, creds.Server), nil
	}
	tok, err := m.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh oauth token: %w", err)
	}
	return &xoauth2Auth{username: creds.From, token: tok.AccessToken}, nil
}

// xoauth2Auth implements the SASL XOAUTH2 mechanism used by Gmail and Outlook.
type xoauth2Auth struct {
	username string
	token    string
}

func (a *xoauth2Auth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if !server.TLS {
		return "", nil, errors.New("xoauth2 requires an encrypted connection")
	}
	return "XOAUTH2", []byte("user=" + a.username + "\x01auth=Bearer " + a.token + "\x01\x01"), nil
}

// Next answers the error challenge with an empty response so the server reports the failure.
func (a *xoauth2Auth) Next(_ []byte, more bool) ([]byte, error) {
	if more {
		return []byte{}, nil
	}
	return nil, nil
}
