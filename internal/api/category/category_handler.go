package category

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/transmission-savoirs/api/internal/api"
	"github.com/transmission-savoirs/api/internal/types"
)

const (
	msgNoCategories       = "Nous n'avons trouvé aucune catégorie."
	msgNoConditions       = "Nous n'avons trouvé aucune condition."
	msgNoTypes            = "Nous n'avons trouvé aucun type."
	msgCategoryNotAdded   = "Votre catégorie n'a pas pu être ajoutée"
	msgCategoryNotEdited  = "Votre categorie n'a pas pu être modifiée."
	msgCategoryNotDeleted = "Votre catégorie n'a pas pu être supprimée"
)

type Handler struct {
	logger *slog.Logger
	repo   LookupRepo
}

func NewCategoryHandler(repo LookupRepo, logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
		repo:   repo,
	}
}

type upsertCategoryParams struct {
	Name string `json:"name"`
}

func (h *Handler) listLookups(w http.ResponseWriter, r *http.Request, spanName, emptyMsg string,
	fetch func() ([]types.Lookup, error)) {
	ctx, span := otel.Tracer("CategoryHandler").Start(r.Context(), spanName)
	defer span.End()

	l := h.logger.With(slog.String("handler", spanName))

	items, err := fetch()
	if err != nil {
		l.ErrorContext(ctx, "Failed to retrieve lookup table", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Query failed")
		api.ServerError(w, r, err)
		return
	}
	if len(items) == 0 {
		span.SetStatus(codes.Error, "Empty lookup table")
		api.NotFound(w, r, emptyMsg)
		return
	}

	span.SetStatus(codes.Ok, "Lookups returned")
	api.WriteJSONResponse(w, r, http.StatusOK, items)
}

// GetAllCategories handles GET /api/categories.
func (h *Handler) GetAllCategories(w http.ResponseWriter, r *http.Request) {
	h.listLookups(w, r, "GetAllCategories", msgNoCategories, func() ([]types.Lookup, error) {
		return h.repo.GetAllCategories(r.Context())
	})
}

// GetAllConditions handles GET /api/conditions.
func (h *Handler) GetAllConditions(w http.ResponseWriter, r *http.Request) {
	h.listLookups(w, r, "GetAllConditions", msgNoConditions, func() ([]types.Lookup, error) {
		return h.repo.GetAllConditions(r.Context())
	})
}

// GetAllTypes handles GET /api/types.
func (h *Handler) GetAllTypes(w http.ResponseWriter, r *http.Request) {
	h.listLookups(w, r, "GetAllTypes", msgNoTypes, func() ([]types.Lookup, error) {
		return h.repo.GetAllTypes(r.Context())
	})
}

// Create handles POST /api/categories (admin only).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CategoryHandler").Start(r.Context(), "Create")
	defer span.End()

	l := h.logger.With(slog.String("handler", "Create"))

	var params upsertCategoryParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil || params.Name == "" {
		span.SetStatus(codes.Error, "Invalid request body")
		api.BadRequest(w, r, "name is required")
		return
	}

	created, err := h.repo.CreateCategory(ctx, params.Name)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create category", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Insert failed")
		api.NotFound(w, r, msgCategoryNotAdded)
		return
	}

	span.SetStatus(codes.Ok, "Category created")
	api.WriteJSONResponse(w, r, http.StatusOK, created)
}

// Edit handles PATCH /api/categories/{id} (admin only).
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CategoryHandler").Start(r.Context(), "Edit")
	defer span.End()

	l := h.logger.With(slog.String("handler", "Edit"))

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		span.SetStatus(codes.Error, "Invalid id")
		api.NotFoundMessage(w, r, msgCategoryNotEdited)
		return
	}

	var params upsertCategoryParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil || params.Name == "" {
		span.SetStatus(codes.Error, "Invalid request body")
		api.BadRequest(w, r, "name is required")
		return
	}

	edited, err := h.repo.EditCategory(ctx, id, params.Name)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "Category not found")
			api.NotFoundMessage(w, r, msgCategoryNotEdited)
			return
		}
		l.ErrorContext(ctx, "Failed to edit category", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Update failed")
		api.ServerError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Category edited")
	api.WriteJSONResponse(w, r, http.StatusOK, edited)
}

// Delete handles DELETE /api/categories/{id} (admin only).
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CategoryHandler").Start(r.Context(), "Delete")
	defer span.End()

	l := h.logger.With(slog.String("handler", "Delete"))

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		span.SetStatus(codes.Error, "Invalid id")
		api.NotFound(w, r, msgCategoryNotDeleted)
		return
	}

	deleted, err := h.repo.DeleteCategory(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "Category not found")
			api.NotFound(w, r, msgCategoryNotDeleted)
			return
		}
		l.ErrorContext(ctx, "Failed to delete category", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Delete failed")
		api.ServerError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Category deleted")
	api.WriteJSONResponse(w, r, http.StatusOK, deleted)
}
