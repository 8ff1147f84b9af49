package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/transmission-savoirs/api/app/observability/metrics"
	"github.com/transmission-savoirs/api/internal/api"
	"github.com/transmission-savoirs/api/internal/types"
)

const msgContactSent = "Merci. Votre message a bien été envoyé, nous vous répondrons dans les plus brefs délais."

var validate = validator.New()

// ContactMailer relays a contact-form submission. Satisfied by
// app/mailer.Mailer.
type ContactMailer interface {
	SendContactMessage(ctx context.Context, fullname, email, message string) error
}

// ContactRequest is the body of POST /api/contact.
type ContactRequest struct {
	Fullname string `json:"fullname" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Message  string `json:"message" validate:"required"`
}

type Handler struct {
	logger  *slog.Logger
	mailer  ContactMailer
	metrics *metrics.AppMetrics
}

func NewContactHandler(mailer ContactMailer, appMetrics *metrics.AppMetrics, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		mailer:  mailer,
		metrics: appMetrics,
	}
}

// SendForm handles POST /api/contact. A transport outage is not an HTTP
// failure: the client gets a 200 with an apology naming the sender, matching
// what the front end renders.
func (h *Handler) SendForm(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ContactHandler").Start(r.Context(), "SendForm")
	defer span.End()

	l := h.logger.With(slog.String("handler", "SendForm"))

	var req ContactRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.BadRequest(w, r, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		span.SetStatus(codes.Error, "Validation failed")
		api.BadRequest(w, r, err.Error())
		return
	}

	err := h.mailer.SendContactMessage(ctx, req.Fullname, req.Email, req.Message)
	if err != nil {
		if h.metrics != nil {
			h.metrics.MailSendErrorsTotal.Add(ctx, 1)
		}
		if errors.Is(err, types.ErrMailUnavailable) {
			l.WarnContext(ctx, "Mail transport unavailable", slog.Any("error", err))
			span.SetStatus(codes.Error, "Mail transport unavailable")
			api.WriteJSONResponse(w, r, http.StatusOK,
				map[string]string{"status": serviceDownMessage(req.Email)})
			return
		}
		l.ErrorContext(ctx, "Failed to relay contact message", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Send failed")
		api.ServerError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Message relayed")
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"status": msgContactSent})
}

// serviceDownMessage addresses the sender by the local part of their email,
// as the previous backend did.
func serviceDownMessage(email string) string {
	name := email
	if at := strings.Index(email, "@"); at > 0 {
		name = email[:at]
	}
	return fmt.Sprintf("Désolé %s le service est inactif pour le moment. Merci de ressayer dans quelques minutes.", name)
}
