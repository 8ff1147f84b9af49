package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/transmission-savoirs/api/config"
	"github.com/transmission-savoirs/api/internal/types"
)

type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*types.User)
	return user, args.Error(1)
}

func (m *MockAuthRepo) CreateUser(ctx context.Context, email, hashedPassword, pseudo, birthdate string, avatar *string) (*types.User, error) {
	args := m.Called(ctx, email, hashedPassword, pseudo, birthdate, avatar)
	user, _ := args.Get(0).(*types.User)
	return user, args.Error(1)
}

func (m *MockAuthRepo) UpdatePasswordByEmail(ctx context.Context, email, hashedPassword string) error {
	args := m.Called(ctx, email, hashedPassword)
	return args.Error(0)
}

type MockResetMailer struct {
	mock.Mock
}

func (m *MockResetMailer) SendResetLink(ctx context.Context, email, token string) error {
	args := m.Called(ctx, email, token)
	return args.Error(0)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		SecretKey: "test-secret-key",
		TokenTTL:  time.Hour,
		Issuer:    "transmission-savoirs",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLogin_Success(t *testing.T) {
	repo := new(MockAuthRepo)
	svc := NewAuthService(repo, new(MockResetMailer), testJWTConfig(), discardLogger())

	stored := &types.User{
		ID:       7,
		Email:    "alice@example.com",
		Password: hashFor(t, "correct horse"),
		Pseudo:   "alice",
		RoleID:   types.RoleMember,
	}
	repo.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(stored, nil)

	user, tokens, err := svc.Login(context.Background(), "alice@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, 7, user.ID)
	require.NotNil(t, tokens)
	assert.NotEmpty(t, tokens.AccessToken)

	// The issued token must round-trip with the configured secret and carry
	// the identity claims the middleware relies on.
	claims := &types.Claims{}
	parsed, err := jwt.ParseWithClaims(tokens.AccessToken, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret-key"), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "transmission-savoirs", claims.Issuer)

	repo.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := new(MockAuthRepo)
	svc := NewAuthService(repo, new(MockResetMailer), testJWTConfig(), discardLogger())

	stored := &types.User{ID: 7, Email: "alice@example.com", Password: hashFor(t, "correct horse")}
	repo.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(stored, nil)

	_, _, err := svc.Login(context.Background(), "alice@example.com", "wrong")
	assert.ErrorIs(t, err, types.ErrUnauthenticated)
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := new(MockAuthRepo)
	svc := NewAuthService(repo, new(MockResetMailer), testJWTConfig(), discardLogger())

	repo.On("GetUserByEmail", mock.Anything, "ghost@example.com").Return(nil, types.ErrNotFound)

	// An unknown account and a wrong password must be indistinguishable.
	_, _, err := svc.Login(context.Background(), "ghost@example.com", "whatever")
	assert.ErrorIs(t, err, types.ErrUnauthenticated)
}

func TestRegister_Success(t *testing.T) {
	repo := new(MockAuthRepo)
	svc := NewAuthService(repo, new(MockResetMailer), testJWTConfig(), discardLogger())

	created := &types.User{ID: 12, Email: "bob@example.com", Pseudo: "bob", RoleID: types.RoleMember}
	repo.On("CreateUser", mock.Anything, "bob@example.com",
		mock.MatchedBy(func(hash string) bool {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")) == nil
		}),
		"bob", "1990-05-01", (*string)(nil)).Return(created, nil)

	user, tokens, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "bob@example.com",
		Password:  "s3cret",
		Pseudo:    "bob",
		Birthdate: "1990-05-01",
	})
	require.NoError(t, err)
	assert.Equal(t, 12, user.ID)
	assert.NotEmpty(t, tokens.AccessToken)
	repo.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := new(MockAuthRepo)
	svc := NewAuthService(repo, new(MockResetMailer), testJWTConfig(), discardLogger())

	repo.On("CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, types.ErrConflict)

	_, _, err := svc.Register(context.Background(), RegisterRequest{
		Email: "bob@example.com", Password: "pw", Pseudo: "bob", Birthdate: "1990-05-01",
	})
	assert.ErrorIs(t, err, types.ErrConflict)
}

func TestResetPassword_SendsTokenToAccountEmail(t *testing.T) {
	repo := new(MockAuthRepo)
	mailer := new(MockResetMailer)
	svc := NewAuthService(repo, mailer, testJWTConfig(), discardLogger())

	stored := &types.User{ID: 3, Email: "carol@example.com", Pseudo: "carol", RoleID: types.RoleMember}
	repo.On("GetUserByEmail", mock.Anything, "carol@example.com").Return(stored, nil)
	mailer.On("SendResetLink", mock.Anything, "carol@example.com",
		mock.MatchedBy(func(token string) bool { return token != "" })).Return(nil)

	err := svc.ResetPassword(context.Background(), "carol@example.com")
	require.NoError(t, err)
	mailer.AssertExpectations(t)
}

func TestResetPassword_UnknownEmail(t *testing.T) {
	repo := new(MockAuthRepo)
	mailer := new(MockResetMailer)
	svc := NewAuthService(repo, mailer, testJWTConfig(), discardLogger())

	repo.On("GetUserByEmail", mock.Anything, "ghost@example.com").Return(nil, types.ErrNotFound)

	err := svc.ResetPassword(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, types.ErrNotFound)
	mailer.AssertNotCalled(t, "SendResetLink", mock.Anything, mock.Anything, mock.Anything)
}

func TestResetPassword_MailerDown(t *testing.T) {
	repo := new(MockAuthRepo)
	mailer := new(MockResetMailer)
	svc := NewAuthService(repo, mailer, testJWTConfig(), discardLogger())

	stored := &types.User{ID: 3, Email: "carol@example.com"}
	repo.On("GetUserByEmail", mock.Anything, "carol@example.com").Return(stored, nil)
	mailer.On("SendResetLink", mock.Anything, "carol@example.com", mock.Anything).
		Return(types.ErrMailUnavailable)

	err := svc.ResetPassword(context.Background(), "carol@example.com")
	assert.ErrorIs(t, err, types.ErrMailUnavailable)
}

func TestSetNewPassword_StoresFreshHash(t *testing.T) {
	repo := new(MockAuthRepo)
	svc := NewAuthService(repo, new(MockResetMailer), testJWTConfig(), discardLogger())

	repo.On("UpdatePasswordByEmail", mock.Anything, "carol@example.com",
		mock.MatchedBy(func(hash string) bool {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte("new-pass")) == nil
		})).Return(nil)

	err := svc.SetNewPassword(context.Background(), "carol@example.com", "new-pass")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestSetNewPassword_AccountGone(t *testing.T) {
	repo := new(MockAuthRepo)
	svc := NewAuthService(repo, new(MockResetMailer), testJWTConfig(), discardLogger())

	repo.On("UpdatePasswordByEmail", mock.Anything, mock.Anything, mock.Anything).
		Return(types.ErrNotFound)

	err := svc.SetNewPassword(context.Background(), "gone@example.com", "new-pass")
	assert.True(t, errors.Is(err, types.ErrNotFound))
}
