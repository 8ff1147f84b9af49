package auth

import (
	"errors"
	"net/http"
	"strings"

	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/transmission-savoirs/api/app/observability/metrics"
	"github.com/transmission-savoirs/api/internal/api"
	"github.com/transmission-savoirs/api/internal/types"
)

const (
	msgLoginFailed        = "Email ou mot de passe incorrect."
	msgRegisterFailed     = "L'utilisateur·ice n'a pas pu être ajouté·e"
	msgResetUserNotFound  = "Nous n'avons trouvé aucun·e utilisateur·ice avec cet email."
	msgResetEmailSent     = "Un email contenant les instructions pour réinitialiser votre mot de passe vous a été envoyé."
	msgPasswordChanged    = "Votre mot de passe vient d'être modifié."
	msgPasswordChangeFail = "Votre mot de passe n'a pas pu être modifié."
)

type AuthHandler struct {
	service AuthService
	logger  *slog.Logger
	metrics *metrics.AppMetrics
}

func NewAuthHandler(service AuthService, appMetrics *metrics.AppMetrics, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
		metrics: appMetrics,
	}
}

// decodeBody fills dst from either a JSON body or a form-encoded one. The
// historic clients of these endpoints post both encodings.
func decodeBody(w http.ResponseWriter, r *http.Request, dst map[string]*string) error {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return err
		}
		for field, target := range dst {
			if v := r.PostFormValue(field); v != "" {
				*target = v
			}
		}
		return nil
	}

	body := make(map[string]string)
	if err := api.DecodeJSONBody(w, r, &body); err != nil {
		return err
	}
	for field, target := range dst {
		if v, ok := body[field]; ok {
			*target = v
		}
	}
	return nil
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Login")
	defer span.End()

	l := h.logger.With(slog.String("handler", "Login"))

	var req LoginRequest
	if err := decodeBody(w, r, map[string]*string{
		"email":    &req.Email,
		"password": &req.Password,
	}); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.BadRequest(w, r, err.Error())
		return
	}

	user, tokens, err := h.service.Login(ctx, req.Email, req.Password)
	if h.metrics != nil {
		h.metrics.LoginRequestsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.Bool("success", err == nil)))
	}
	if err != nil {
		if errors.Is(err, types.ErrUnauthenticated) {
			span.SetStatus(codes.Error, "Invalid credentials")
			api.WriteJSONResponse(w, r, http.StatusUnauthorized,
				map[string]string{"error": msgLoginFailed})
			return
		}
		l.ErrorContext(ctx, "Login failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service operation failed")
		api.ServerError(w, r, err)
		return
	}

	l.InfoContext(ctx, "User logged in", slog.Int("user_id", user.ID))
	span.SetStatus(codes.Ok, "Logged in")
	api.WriteJSONResponse(w, r, http.StatusOK, LoginResponse{User: user, Tokens: *tokens})
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Register")
	defer span.End()

	l := h.logger.With(slog.String("handler", "Register"))

	var req RegisterRequest
	var avatar string
	if err := decodeBody(w, r, map[string]*string{
		"email":     &req.Email,
		"password":  &req.Password,
		"pseudo":    &req.Pseudo,
		"birthdate": &req.Birthdate,
		"avatar":    &avatar,
	}); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.BadRequest(w, r, err.Error())
		return
	}
	if avatar != "" {
		req.Avatar = &avatar
	}

	if !emailPattern.MatchString(req.Email) {
		span.SetStatus(codes.Error, "Invalid email")
		api.BadRequest(w, r, "Email invalide")
		return
	}

	user, tokens, err := h.service.Register(ctx, req)
	if h.metrics != nil {
		h.metrics.RegisterRequestsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.Bool("success", err == nil)))
	}
	if err != nil {
		// Every insert failure, including a taken email, reports the same
		// not-added status the front end expects.
		if !errors.Is(err, types.ErrConflict) {
			l.ErrorContext(ctx, "Register failed", slog.Any("error", err))
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, "User not created")
		api.NotFound(w, r, msgRegisterFailed)
		return
	}

	l.InfoContext(ctx, "User registered", slog.Int("user_id", user.ID))
	span.SetStatus(codes.Ok, "Registered")
	api.WriteJSONResponse(w, r, http.StatusOK, RegisterResponse{NewUser: user, NewTokens: *tokens})
}

// ResetPassword handles POST /api/resetpassword. It looks up the account and
// emails a reset link carrying a fresh token.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "ResetPassword")
	defer span.End()

	l := h.logger.With(slog.String("handler", "ResetPassword"))

	var req ResetPasswordRequest
	if err := decodeBody(w, r, map[string]*string{"email": &req.Email}); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.BadRequest(w, r, err.Error())
		return
	}

	err := h.service.ResetPassword(ctx, req.Email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "Unknown email")
			api.NotFoundMessage(w, r, msgResetUserNotFound)
			return
		}
		if errors.Is(err, types.ErrMailUnavailable) && h.metrics != nil {
			h.metrics.MailSendErrorsTotal.Add(ctx, 1)
		}
		l.ErrorContext(ctx, "Reset password failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service operation failed")
		api.ServerError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Reset email sent")
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"message": msgResetEmailSent})
}

// SetNewPassword handles PATCH /api/newpassword. The target account comes from
// the bearer token minted by ResetPassword.
func (h *AuthHandler) SetNewPassword(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "SetNewPassword")
	defer span.End()

	l := h.logger.With(slog.String("handler", "SetNewPassword"))

	claims := GetClaimsFromContext(ctx)
	if claims == nil {
		span.SetStatus(codes.Error, "Missing claims")
		api.Unauthorized(w, r, "Authorization header required")
		return
	}

	var req NewPasswordRequest
	if err := decodeBody(w, r, map[string]*string{"password": &req.Password}); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.BadRequest(w, r, err.Error())
		return
	}

	if err := h.service.SetNewPassword(ctx, claims.Email, req.Password); err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			l.ErrorContext(ctx, "Password update failed", slog.Any("error", err))
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, "Password not updated")
		api.NotFound(w, r, msgPasswordChangeFail)
		return
	}

	l.InfoContext(ctx, "Password changed", slog.Int("user_id", claims.UserID))
	span.SetStatus(codes.Ok, "Password updated")
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"message": msgPasswordChanged})
}
