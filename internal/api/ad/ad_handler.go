package ad

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/transmission-savoirs/api/app/observability/metrics"
	"github.com/transmission-savoirs/api/internal/api"
	"github.com/transmission-savoirs/api/internal/api/auth"
	"github.com/transmission-savoirs/api/internal/types"
)

const (
	msgNoAds              = "Nous n'avons trouvé aucune annonce."
	msgNoAdsForCategory   = "Nous n'avons trouvé aucune annonce pour cette catégorie."
	msgNoAdsForType       = "Nous n'avons trouvé aucune annonce pour ce type."
	msgNoAdsForTypeAndCat = "Nous n'avons trouvé aucune annonce pour ce type et cette catégorie."
	msgNoAdsForUser       = "Nous n'avons trouvé aucune annonce pour cet·te utilisateur·ice."
	msgAdNotCreated       = "L'annonce n'a pas pu être crée"
	msgAdNotDeleted       = "L'annonce n'a pas pu être supprimé"
	msgAdNotEdited        = "Votre annonce n'a pas été modifié."
	msgNotAllowedToDelete = "Vous n'êtes pas autorisé à supprimer l'annonce."
	msgNotAllowedToEdit   = "Vous n'êtes pas autorisé à modifier l'annonce."
)

type Handler struct {
	logger  *slog.Logger
	repo    AdRepo
	metrics *metrics.AppMetrics
}

func NewAdHandler(repo AdRepo, appMetrics *metrics.AppMetrics, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		repo:    repo,
		metrics: appMetrics,
	}
}

func urlParamInt(r *http.Request, key string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, key))
}

// listAds runs a list query and applies the shared empty-list policy: an
// empty result is a 404 carrying the filter-specific message.
func (h *Handler) listAds(w http.ResponseWriter, r *http.Request, spanName, emptyMsg string,
	fetch func() ([]types.Ad, error)) {
	ctx, span := otel.Tracer("AdHandler").Start(r.Context(), spanName)
	defer span.End()

	l := h.logger.With(slog.String("handler", spanName))

	ads, err := fetch()
	if err != nil {
		l.ErrorContext(ctx, "Failed to retrieve ads", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Query failed")
		api.ServerError(w, r, err)
		return
	}
	if len(ads) == 0 {
		span.SetStatus(codes.Error, "No ads found")
		api.NotFound(w, r, emptyMsg)
		return
	}

	span.SetStatus(codes.Ok, "Ads returned")
	api.WriteJSONResponse(w, r, http.StatusOK, ads)
}

// GetAll handles GET /api/annonces.
func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	h.listAds(w, r, "GetAll", msgNoAds, func() ([]types.Ad, error) {
		return h.repo.GetAll(r.Context())
	})
}

// GetAllByCategory handles GET /api/annonces/categorie/{category_id}.
func (h *Handler) GetAllByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := urlParamInt(r, "category_id")
	if err != nil {
		api.NotFound(w, r, msgNoAdsForCategory)
		return
	}
	h.listAds(w, r, "GetAllByCategory", msgNoAdsForCategory, func() ([]types.Ad, error) {
		return h.repo.GetAllByCategory(r.Context(), categoryID)
	})
}

// GetAllByType handles GET /api/annonces/type/{type_id}.
func (h *Handler) GetAllByType(w http.ResponseWriter, r *http.Request) {
	typeID, err := urlParamInt(r, "type_id")
	if err != nil {
		api.NotFound(w, r, msgNoAdsForType)
		return
	}
	h.listAds(w, r, "GetAllByType", msgNoAdsForType, func() ([]types.Ad, error) {
		return h.repo.GetAllByType(r.Context(), typeID)
	})
}

// GetAllByTypeAndCategory handles GET /api/annonces/type/{type_id}/categorie/{category_id}.
func (h *Handler) GetAllByTypeAndCategory(w http.ResponseWriter, r *http.Request) {
	typeID, errT := urlParamInt(r, "type_id")
	categoryID, errC := urlParamInt(r, "category_id")
	if errT != nil || errC != nil {
		api.NotFound(w, r, msgNoAdsForTypeAndCat)
		return
	}
	h.listAds(w, r, "GetAllByTypeAndCategory", msgNoAdsForTypeAndCat, func() ([]types.Ad, error) {
		return h.repo.GetAllByTypeAndCategory(r.Context(), typeID, categoryID)
	})
}

// GetAllByUser handles GET /api/user/{user_id}/annonces.
func (h *Handler) GetAllByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := urlParamInt(r, "user_id")
	if err != nil {
		api.NotFound(w, r, msgNoAdsForUser)
		return
	}
	h.listAds(w, r, "GetAllByUser", msgNoAdsForUser, func() ([]types.Ad, error) {
		return h.repo.GetAllByUser(r.Context(), userID)
	})
}

// GetOneWithSimilar handles GET /api/annonces/{id}. The payload is the ad
// plus up to three other ads from the same category.
func (h *Handler) GetOneWithSimilar(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AdHandler").Start(r.Context(), "GetOneWithSimilar")
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetOneWithSimilar"))

	id, err := urlParamInt(r, "id")
	if err != nil {
		span.SetStatus(codes.Error, "Invalid id")
		api.NotFoundMessage(w, r, msgNoAds)
		return
	}

	result, err := h.repo.GetOneWithSimilar(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "Ad not found")
			api.NotFoundMessage(w, r, msgNoAds)
			return
		}
		l.ErrorContext(ctx, "Failed to retrieve ad", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Query failed")
		api.ServerError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Ad returned")
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// Create handles POST /api/users/create-annonces. The owner always comes from
// the verified token.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AdHandler").Start(r.Context(), "Create")
	defer span.End()

	l := h.logger.With(slog.String("handler", "Create"))

	claims := auth.GetClaimsFromContext(ctx)
	if claims == nil {
		span.SetStatus(codes.Error, "Missing claims")
		api.Unauthorized(w, r, "Authorization header required")
		return
	}

	var params CreateAdParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.BadRequest(w, r, err.Error())
		return
	}
	if err := params.Validate(); err != nil {
		span.SetStatus(codes.Error, "Validation failed")
		api.BadRequest(w, r, err.Error())
		return
	}

	created, err := h.repo.Create(ctx, claims.UserID, params)
	h.countMutation(ctx, "create", err == nil)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create ad", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Insert failed")
		api.NotFound(w, r, msgAdNotCreated)
		return
	}

	l.InfoContext(ctx, "Ad created", slog.Int("ad_id", created.ID), slog.Int("user_id", claims.UserID))
	span.SetStatus(codes.Ok, "Ad created")
	api.WriteJSONResponse(w, r, http.StatusOK, created)
}

// Edit handles PATCH /api/annonces/{id}.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AdHandler").Start(r.Context(), "Edit")
	defer span.End()

	l := h.logger.With(slog.String("handler", "Edit"))

	claims := auth.GetClaimsFromContext(ctx)
	if claims == nil {
		span.SetStatus(codes.Error, "Missing claims")
		api.Unauthorized(w, r, "Authorization header required")
		return
	}

	id, err := urlParamInt(r, "id")
	if err != nil {
		span.SetStatus(codes.Error, "Invalid id")
		api.NotFoundMessage(w, r, msgAdNotEdited)
		return
	}

	var params EditAdParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.BadRequest(w, r, err.Error())
		return
	}
	if err := params.Validate(); err != nil {
		span.SetStatus(codes.Error, "Validation failed")
		api.BadRequest(w, r, err.Error())
		return
	}

	edited, err := h.repo.Edit(ctx, id, claims.UserID, params)
	h.countMutation(ctx, "edit", err == nil)
	if err != nil {
		h.mutationMiss(ctx, w, r, span, l, id, err, msgNotAllowedToEdit, msgAdNotEdited)
		return
	}

	l.InfoContext(ctx, "Ad edited", slog.Int("ad_id", id), slog.Int("user_id", claims.UserID))
	span.SetStatus(codes.Ok, "Ad edited")
	api.WriteJSONResponse(w, r, http.StatusOK, edited)
}

// Delete handles DELETE /api/annonces/{id}. Responds with the deleted record.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AdHandler").Start(r.Context(), "Delete")
	defer span.End()

	l := h.logger.With(slog.String("handler", "Delete"))

	claims := auth.GetClaimsFromContext(ctx)
	if claims == nil {
		span.SetStatus(codes.Error, "Missing claims")
		api.Unauthorized(w, r, "Authorization header required")
		return
	}

	id, err := urlParamInt(r, "id")
	if err != nil {
		span.SetStatus(codes.Error, "Invalid id")
		api.NotFound(w, r, msgAdNotDeleted)
		return
	}

	deleted, err := h.repo.Delete(ctx, id, claims.UserID)
	h.countMutation(ctx, "delete", err == nil)
	if err != nil {
		h.mutationMiss(ctx, w, r, span, l, id, err, msgNotAllowedToDelete, msgAdNotDeleted)
		return
	}

	l.InfoContext(ctx, "Ad deleted", slog.Int("ad_id", id), slog.Int("user_id", claims.UserID))
	span.SetStatus(codes.Ok, "Ad deleted")
	api.WriteJSONResponse(w, r, http.StatusOK, deleted)
}

// mutationMiss maps a failed owner-gated mutation. A zero-row result means
// either the ad belongs to someone else (401) or it is gone (404); a
// follow-up existence read tells the two apart.
func (h *Handler) mutationMiss(ctx context.Context, w http.ResponseWriter, r *http.Request,
	span trace.Span, l *slog.Logger, id int, err error, notYoursMsg, goneMsg string) {
	if !errors.Is(err, types.ErrNotFound) {
		l.ErrorContext(ctx, "Ad mutation failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Mutation failed")
		api.ServerError(w, r, err)
		return
	}

	exists, existsErr := h.repo.Exists(ctx, id)
	if existsErr != nil {
		l.ErrorContext(ctx, "Existence check failed", slog.Any("error", existsErr))
		span.RecordError(existsErr)
		span.SetStatus(codes.Error, "Existence check failed")
		api.ServerError(w, r, existsErr)
		return
	}
	if exists {
		span.SetStatus(codes.Error, "Not the owner")
		api.Unauthorized(w, r, notYoursMsg)
		return
	}
	span.SetStatus(codes.Error, "Ad not found")
	api.NotFound(w, r, goneMsg)
}

func (h *Handler) countMutation(ctx context.Context, op string, success bool) {
	if h.metrics == nil {
		return
	}
	h.metrics.AdMutationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.Bool("success", success),
	))
}
