package contact

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/transmission-savoirs/api/internal/types"
)

type MockContactMailer struct {
	mock.Mock
}

func (m *MockContactMailer) SendContactMessage(ctx context.Context, fullname, email, message string) error {
	args := m.Called(ctx, fullname, email, message)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func postForm(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.SendForm(rr, req)
	return rr
}

func TestSendForm_Success(t *testing.T) {
	mailer := new(MockContactMailer)
	h := NewContactHandler(mailer, nil, discardLogger())

	mailer.On("SendContactMessage", mock.Anything, "Test User", "test@example.com", "Bonjour").
		Return(nil)

	rr := postForm(t, h, `{"fullname":"Test User","email":"test@example.com","message":"Bonjour"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t,
		`{"status":"Merci. Votre message a bien été envoyé, nous vous répondrons dans les plus brefs délais."}`,
		rr.Body.String())
	mailer.AssertExpectations(t)
}

func TestSendForm_TransportDownIsStillHTTP200(t *testing.T) {
	mailer := new(MockContactMailer)
	h := NewContactHandler(mailer, nil, discardLogger())

	mailer.On("SendContactMessage", mock.Anything, "Test User", "test@example.com", "Bonjour").
		Return(types.ErrMailUnavailable)

	rr := postForm(t, h, `{"fullname":"Test User","email":"test@example.com","message":"Bonjour"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t,
		`{"status":"Désolé test le service est inactif pour le moment. Merci de ressayer dans quelques minutes."}`,
		rr.Body.String())
}

func TestSendForm_UnexpectedFailure(t *testing.T) {
	mailer := new(MockContactMailer)
	h := NewContactHandler(mailer, nil, discardLogger())

	mailer.On("SendContactMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(assert.AnError)

	rr := postForm(t, h, `{"fullname":"Test User","email":"test@example.com","message":"Bonjour"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestSendForm_MissingFields(t *testing.T) {
	mailer := new(MockContactMailer)
	h := NewContactHandler(mailer, nil, discardLogger())

	rr := postForm(t, h, `{"fullname":"Test User"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mailer.AssertNotCalled(t, "SendContactMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
