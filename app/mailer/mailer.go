package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strings"

	"github.com/transmission-savoirs/api/config"
	"github.com/transmission-savoirs/api/internal/types"
)

// Client is the subset of *smtp.Client the mailer needs. Tests substitute a
// recording implementation.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Transport produces connected SMTP clients.
type Transport interface {
	Connect() (Client, error)
}

type smtpClientWrapper struct {
	client *smtp.Client
}

func (w *smtpClientWrapper) Mail(from string) error          { return w.client.Mail(from) }
func (w *smtpClientWrapper) Rcpt(to string) error            { return w.client.Rcpt(to) }
func (w *smtpClientWrapper) Data() (io.WriteCloser, error)   { return w.client.Data() }
func (w *smtpClientWrapper) Quit() error                     { return w.client.Quit() }
func (w *smtpClientWrapper) Close() error                    { return w.client.Close() }

// SMTPTransport dials the configured SMTP server with STARTTLS and plain auth.
type SMTPTransport struct {
	cfg    config.SMTPConfig
	logger *slog.Logger
}

func NewSMTPTransport(cfg config.SMTPConfig, logger *slog.Logger) *SMTPTransport {
	return &SMTPTransport{cfg: cfg, logger: logger}
}

func (t *SMTPTransport) Connect() (Client, error) {
	addr := net.JoinHostPort(t.cfg.Host, t.cfg.Port)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial SMTP server: %w", err)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if ok, _ := client.Extension("STARTTLS"); !ok {
		client.Close()
		return nil, fmt.Errorf("smtp server does not support STARTTLS")
	}
	tlsConfig := &tls.Config{
		ServerName: t.cfg.Host,
		MinVersion: tls.VersionTLS12,
	}
	if err = client.StartTLS(tlsConfig); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start TLS: %w", err)
	}

	auth := smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)
	if err = client.Auth(auth); err != nil {
		client.Close()
		return nil, fmt.Errorf("smtp auth failed: %w", err)
	}

	return &smtpClientWrapper{client: client}, nil
}

// Mailer sends the application's two transactional emails: the password-reset
// link and the contact-form relay.
type Mailer struct {
	transport Transport
	cfg       config.SMTPConfig
	logger    *slog.Logger
}

func New(transport Transport, cfg config.SMTPConfig, logger *slog.Logger) *Mailer {
	return &Mailer{
		transport: transport,
		cfg:       cfg,
		logger:    logger,
	}
}

// SendResetLink emails the password-reset link to the account's address. The
// token is appended to the front end's /nouveau-mot-de-passe route as-is.
func (m *Mailer) SendResetLink(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/nouveau-mot-de-passe?%s", m.cfg.BaseURL, token)
	body := fmt.Sprintf(`<p>Bonjour,</p>
    <p>Une demande de réinitialisation de mot de passe a été générée pour l'adresse %s.<br />
    Si celle-ci ne provient pas de vous merci de ne pas tenir compte de cet email.</p>
    <p>Sinon, voici un lien vous permettant de réinitiliser votre mot de passe :
    <a href='%s'>Réinitisaliser mon mot de passe.</a></p>
    <p>Si ce lien ne fonctionne pas vous pouvez coller cette adresse dans votre navigateur : <br />
    %s</p>`, email, link, link)

	m.logger.InfoContext(ctx, "Sending password reset email", slog.String("to", email))
	return m.send(m.cfg.From, email, "Réinitialisez votre mot de passe", body)
}

// SendContactMessage relays a contact-form submission to the site's own inbox.
func (m *Mailer) SendContactMessage(ctx context.Context, fullname, email, message string) error {
	body := fmt.Sprintf(`<p>Vous avez reçu un nouveau message depuis le formulaire de contact.</p>
        <p>Email : %s
        <p>Nom : %s </p>
        <p>Message : <br />
        %s</p>`, email, fullname, message)

	m.logger.InfoContext(ctx, "Relaying contact form message", slog.String("from", email))
	from := fmt.Sprintf("Formulaire de contact <%s>", m.cfg.Username)
	return m.send(from, m.cfg.Username, "Nouveau message", body)
}

// send performs one full SMTP exchange. Every transport-level failure is
// wrapped in types.ErrMailUnavailable so handlers can map it to the legacy
// "service indisponible" response.
func (m *Mailer) send(from, to, subject, htmlBody string) error {
	client, err := m.transport.Connect()
	if err != nil {
		return fmt.Errorf("%w: %s", types.ErrMailUnavailable, err)
	}
	defer client.Close()

	if err = client.Mail(m.cfg.Username); err != nil {
		return fmt.Errorf("%w: %s", types.ErrMailUnavailable, err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("%w: %s", types.ErrMailUnavailable, err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("%w: %s", types.ErrMailUnavailable, err)
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if _, err = wc.Write([]byte(msg.String())); err != nil {
		wc.Close()
		return fmt.Errorf("%w: %s", types.ErrMailUnavailable, err)
	}
	if err = wc.Close(); err != nil {
		return fmt.Errorf("%w: %s", types.ErrMailUnavailable, err)
	}

	// The message is accepted once DATA closes cleanly.
	_ = client.Quit()
	return nil
}
