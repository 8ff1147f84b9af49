package user

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/transmission-savoirs/api/internal/api"
	"github.com/transmission-savoirs/api/internal/api/auth"
	"github.com/transmission-savoirs/api/internal/types"
)

const (
	msgNoProfiles         = "Nous n'avons trouvé aucun profil d'utilisateur·ice."
	msgUserNotDeleted     = "L'utilisateur·ice n'a pas pu être supprimé·e"
	msgUserNotEdited      = "Votre utilisateur·ice n'a pas été modifié·e."
	msgNotAllowedToDelete = "Vous n'êtes pas autorisé à supprimer cet utilisateur·ice."
	msgNotAllowedToEdit   = "Vous n'êtes pas autorisé à modifier le profil de cet utilisateur·ice."
	msgNoAvatars          = "Pas d'avatars disponibles."
)

type Handler struct {
	logger *slog.Logger
	repo   UserRepo
}

func NewUserHandler(repo UserRepo, logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
		repo:   repo,
	}
}

// GetAllUsers handles GET /api/users.
func (h *Handler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("UserHandler").Start(r.Context(), "GetAllUsers")
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetAllUsers"))

	users, err := h.repo.GetAllUsers(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to retrieve users", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Query failed")
		api.ServerError(w, r, err)
		return
	}
	if len(users) == 0 {
		span.SetStatus(codes.Error, "No users found")
		api.NotFound(w, r, msgNoProfiles)
		return
	}

	span.SetStatus(codes.Ok, "Users returned")
	api.WriteJSONResponse(w, r, http.StatusOK, users)
}

// GetUserProfil handles GET /api/user/{id}. Public; the password hash never
// serializes.
func (h *Handler) GetUserProfil(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("UserHandler").Start(r.Context(), "GetUserProfil")
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetUserProfil"))

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		span.SetStatus(codes.Error, "Invalid id")
		api.NotFound(w, r, msgNoProfiles)
		return
	}

	user, err := h.repo.GetUserProfil(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "User not found")
			api.NotFound(w, r, msgNoProfiles)
			return
		}
		l.ErrorContext(ctx, "Failed to retrieve user profile", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Query failed")
		api.ServerError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Profile returned")
	api.WriteJSONResponse(w, r, http.StatusOK, user)
}

// Edit handles PATCH /api/user/{id}. A user may only edit themself.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("UserHandler").Start(r.Context(), "Edit")
	defer span.End()

	l := h.logger.With(slog.String("handler", "Edit"))

	claims := auth.GetClaimsFromContext(ctx)
	if claims == nil {
		span.SetStatus(codes.Error, "Missing claims")
		api.Unauthorized(w, r, "Authorization header required")
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		span.SetStatus(codes.Error, "Invalid id")
		api.NotFoundMessage(w, r, msgUserNotEdited)
		return
	}
	if claims.UserID != id {
		span.SetStatus(codes.Error, "Not the account holder")
		api.Unauthorized(w, r, msgNotAllowedToEdit)
		return
	}

	var params types.UpdateUserParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.BadRequest(w, r, err.Error())
		return
	}

	edited, err := h.repo.Edit(ctx, id, params)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "User not found")
			api.NotFoundMessage(w, r, msgUserNotEdited)
			return
		}
		l.ErrorContext(ctx, "Failed to edit user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Update failed")
		api.ServerError(w, r, err)
		return
	}

	l.InfoContext(ctx, "User edited", slog.Int("user_id", id))
	span.SetStatus(codes.Ok, "User edited")
	api.WriteJSONResponse(w, r, http.StatusOK, edited)
}

// Delete handles DELETE /api/user/{id}. A user may only delete themself.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("UserHandler").Start(r.Context(), "Delete")
	defer span.End()

	l := h.logger.With(slog.String("handler", "Delete"))

	claims := auth.GetClaimsFromContext(ctx)
	if claims == nil {
		span.SetStatus(codes.Error, "Missing claims")
		api.Unauthorized(w, r, "Authorization header required")
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		span.SetStatus(codes.Error, "Invalid id")
		api.NotFound(w, r, msgUserNotDeleted)
		return
	}
	if claims.UserID != id {
		span.SetStatus(codes.Error, "Not the account holder")
		api.Unauthorized(w, r, msgNotAllowedToDelete)
		return
	}

	deleted, err := h.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "User not found")
			api.NotFound(w, r, msgUserNotDeleted)
			return
		}
		l.ErrorContext(ctx, "Failed to delete user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Delete failed")
		api.ServerError(w, r, err)
		return
	}

	l.InfoContext(ctx, "User deleted", slog.Int("user_id", id))
	span.SetStatus(codes.Ok, "User deleted")
	api.WriteJSONResponse(w, r, http.StatusOK, deleted)
}

// GetAllAvatars handles GET /api/avatars.
func (h *Handler) GetAllAvatars(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("UserHandler").Start(r.Context(), "GetAllAvatars")
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetAllAvatars"))

	avatars, err := h.repo.GetAllAvatars(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to retrieve avatars", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Query failed")
		api.ServerError(w, r, err)
		return
	}
	if len(avatars) == 0 {
		span.SetStatus(codes.Error, "No avatars found")
		api.NotFoundMessage(w, r, msgNoAvatars)
		return
	}

	span.SetStatus(codes.Ok, "Avatars returned")
	api.WriteJSONResponse(w, r, http.StatusOK, avatars)
}
