package user

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/transmission-savoirs/api/internal/api/auth"
	"github.com/transmission-savoirs/api/internal/types"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetAllUsers(ctx context.Context) ([]types.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]types.User)
	return users, args.Error(1)
}

func (m *MockUserRepo) GetUserProfil(ctx context.Context, id int) (*types.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*types.User)
	return user, args.Error(1)
}

func (m *MockUserRepo) Edit(ctx context.Context, id int, params types.UpdateUserParams) (*types.User, error) {
	args := m.Called(ctx, id, params)
	user, _ := args.Get(0).(*types.User)
	return user, args.Error(1)
}

func (m *MockUserRepo) Delete(ctx context.Context, id int) (*types.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*types.User)
	return user, args.Error(1)
}

func (m *MockUserRepo) GetAllAvatars(ctx context.Context) ([]types.Lookup, error) {
	args := m.Called(ctx)
	avatars, _ := args.Get(0).([]types.Lookup)
	return avatars, args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func userRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/users", h.GetAllUsers)
	r.Get("/api/user/{id}", h.GetUserProfil)
	r.Patch("/api/user/{id}", h.Edit)
	r.Delete("/api/user/{id}", h.Delete)
	r.Get("/api/avatars", h.GetAllAvatars)
	return r
}

func withClaims(req *http.Request, userID int) *http.Request {
	claims := &types.Claims{UserID: userID, Email: "alice@example.com", RoleID: types.RoleMember}
	return req.WithContext(auth.NewContextWithClaims(req.Context(), claims))
}

func sampleUser(id int) types.User {
	return types.User{
		ID:        id,
		Email:     "alice@example.com",
		Password:  "secret-hash",
		Pseudo:    "alice",
		Birthdate: time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
		RoleID:    types.RoleMember,
		CreatedAt: time.Now(),
	}
}

func TestGetAllUsers_HidesPasswordHash(t *testing.T) {
	repo := new(MockUserRepo)
	h := NewUserHandler(repo, discardLogger())
	repo.On("GetAllUsers", mock.Anything).Return([]types.User{sampleUser(1)}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rr := httptest.NewRecorder()
	userRouter(h).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "alice")
	assert.NotContains(t, rr.Body.String(), "secret-hash")
}

func TestGetAllUsers_Empty(t *testing.T) {
	repo := new(MockUserRepo)
	h := NewUserHandler(repo, discardLogger())
	repo.On("GetAllUsers", mock.Anything).Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rr := httptest.NewRecorder()
	userRouter(h).ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"status":"Nous n'avons trouvé aucun profil d'utilisateur·ice."}`, rr.Body.String())
}

func TestGetUserProfil_NotFound(t *testing.T) {
	repo := new(MockUserRepo)
	h := NewUserHandler(repo, discardLogger())
	repo.On("GetUserProfil", mock.Anything, 99).Return(nil, types.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/user/99", nil)
	rr := httptest.NewRecorder()
	userRouter(h).ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"status":"Nous n'avons trouvé aucun profil d'utilisateur·ice."}`, rr.Body.String())
}

func TestEdit_SelfOnly(t *testing.T) {
	repo := new(MockUserRepo)
	h := NewUserHandler(repo, discardLogger())

	req := withClaims(httptest.NewRequest(http.MethodPatch, "/api/user/2",
		strings.NewReader(`{"pseudo":"newname"}`)), 7)
	rr := httptest.NewRecorder()
	userRouter(h).ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"message":"Vous n'êtes pas autorisé à modifier le profil de cet utilisateur·ice."}`, rr.Body.String())
	repo.AssertNotCalled(t, "Edit", mock.Anything, mock.Anything, mock.Anything)
}

func TestEdit_Self(t *testing.T) {
	repo := new(MockUserRepo)
	h := NewUserHandler(repo, discardLogger())

	edited := sampleUser(7)
	edited.Pseudo = "newname"
	repo.On("Edit", mock.Anything, 7, mock.MatchedBy(func(p types.UpdateUserParams) bool {
		return p.Pseudo != nil && *p.Pseudo == "newname"
	})).Return(&edited, nil)

	req := withClaims(httptest.NewRequest(http.MethodPatch, "/api/user/7",
		strings.NewReader(`{"pseudo":"newname"}`)), 7)
	rr := httptest.NewRecorder()
	userRouter(h).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "newname")
}

func TestDelete_SelfOnly(t *testing.T) {
	repo := new(MockUserRepo)
	h := NewUserHandler(repo, discardLogger())

	req := withClaims(httptest.NewRequest(http.MethodDelete, "/api/user/2", nil), 7)
	rr := httptest.NewRecorder()
	userRouter(h).ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"message":"Vous n'êtes pas autorisé à supprimer cet utilisateur·ice."}`, rr.Body.String())
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDelete_Self_Gone(t *testing.T) {
	repo := new(MockUserRepo)
	h := NewUserHandler(repo, discardLogger())
	repo.On("Delete", mock.Anything, 7).Return(nil, types.ErrNotFound)

	req := withClaims(httptest.NewRequest(http.MethodDelete, "/api/user/7", nil), 7)
	rr := httptest.NewRecorder()
	userRouter(h).ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"status":"L'utilisateur·ice n'a pas pu être supprimé·e"}`, rr.Body.String())
}

func TestGetAllAvatars_Found(t *testing.T) {
	repo := new(MockUserRepo)
	h := NewUserHandler(repo, discardLogger())
	repo.On("GetAllAvatars", mock.Anything).Return([]types.Lookup{
		{ID: 1, Name: "avatar-1.png"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/avatars", nil)
	rr := httptest.NewRecorder()
	userRouter(h).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "avatar-1.png")
}

func TestGetAllAvatars_Empty(t *testing.T) {
	repo := new(MockUserRepo)
	h := NewUserHandler(repo, discardLogger())
	repo.On("GetAllAvatars", mock.Anything).Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/avatars", nil)
	rr := httptest.NewRecorder()
	userRouter(h).ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"message":"Pas d'avatars disponibles."}`, rr.Body.String())
}
