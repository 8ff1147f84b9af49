package mailer

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transmission-savoirs/api/config"
	"github.com/transmission-savoirs/api/internal/types"
)

type recordingClient struct {
	from    string
	rcpt    []string
	data    bytes.Buffer
	quit    bool
	mailErr error
	rcptErr error
}

func (c *recordingClient) Mail(from string) error {
	c.from = from
	return c.mailErr
}

func (c *recordingClient) Rcpt(to string) error {
	c.rcpt = append(c.rcpt, to)
	return c.rcptErr
}

func (c *recordingClient) Data() (io.WriteCloser, error) {
	return nopWriteCloser{&c.data}, nil
}

func (c *recordingClient) Quit() error {
	c.quit = true
	return nil
}

func (c *recordingClient) Close() error { return nil }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type stubTransport struct {
	client *recordingClient
	err    error
}

func (t *stubTransport) Connect() (Client, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.client, nil
}

func testSMTPConfig() config.SMTPConfig {
	return config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     "587",
		Username: "contact@transmission-savoirs.fr",
		Password: "pw",
		From:     "Transmission des savoirs",
		BaseURL:  "https://transmission-savoirs.fr",
	}
}

func newTestMailer(transport Transport) *Mailer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(transport, testSMTPConfig(), logger)
}

func TestSendResetLink_BuildsLinkFromBaseURL(t *testing.T) {
	client := &recordingClient{}
	m := newTestMailer(&stubTransport{client: client})

	err := m.SendResetLink(context.Background(), "alice@example.com", "tok-123")
	require.NoError(t, err)

	assert.Equal(t, []string{"alice@example.com"}, client.rcpt)
	body := client.data.String()
	assert.Contains(t, body, "https://transmission-savoirs.fr/nouveau-mot-de-passe?tok-123")
	assert.Contains(t, body, "alice@example.com")
	assert.True(t, client.quit)
}

func TestSendContactMessage_RelaysToOwnInbox(t *testing.T) {
	client := &recordingClient{}
	m := newTestMailer(&stubTransport{client: client})

	err := m.SendContactMessage(context.Background(), "Test User", "test@example.com", "Bonjour")
	require.NoError(t, err)

	assert.Equal(t, []string{"contact@transmission-savoirs.fr"}, client.rcpt)
	body := client.data.String()
	assert.Contains(t, body, "Test User")
	assert.Contains(t, body, "test@example.com")
	assert.Contains(t, body, "Bonjour")
}

func TestSend_ConnectFailureIsMailUnavailable(t *testing.T) {
	m := newTestMailer(&stubTransport{err: assert.AnError})

	err := m.SendResetLink(context.Background(), "alice@example.com", "tok")
	assert.ErrorIs(t, err, types.ErrMailUnavailable)
}

func TestSend_RcptFailureIsMailUnavailable(t *testing.T) {
	client := &recordingClient{rcptErr: assert.AnError}
	m := newTestMailer(&stubTransport{client: client})

	err := m.SendContactMessage(context.Background(), "Test User", "test@example.com", "Bonjour")
	assert.ErrorIs(t, err, types.ErrMailUnavailable)
}
