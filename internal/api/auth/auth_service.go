package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/transmission-savoirs/api/config"
	"github.com/transmission-savoirs/api/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// ResetMailer delivers password-reset instructions. Satisfied by
// app/mailer.Mailer.
type ResetMailer interface {
	SendResetLink(ctx context.Context, email, token string) error
}

// AuthService handles credentials, account lifecycle and token issuance.
type AuthService interface {
	// Login verifies the email/password pair and issues an access token.
	// Both an unknown email and a wrong password yield types.ErrUnauthenticated.
	Login(ctx context.Context, email, password string) (*types.User, *types.Tokens, error)

	// Register creates a new account and logs it in immediately.
	Register(ctx context.Context, req RegisterRequest) (*types.User, *types.Tokens, error)

	// ResetPassword emails a short-lived reset link to the account holder.
	ResetPassword(ctx context.Context, email string) error

	// SetNewPassword replaces the password of the account identified by the
	// authenticated claims.
	SetNewPassword(ctx context.Context, email, newPassword string) error
}

type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	mailer ResetMailer
	jwtCfg config.JWTConfig
}

func NewAuthService(repo AuthRepo, mailer ResetMailer, jwtCfg config.JWTConfig, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		mailer: mailer,
		jwtCfg: jwtCfg,
	}
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*types.User, *types.Tokens, error) {
	l := s.logger.With(slog.String("method", "Login"))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, nil, types.ErrUnauthenticated
		}
		l.ErrorContext(ctx, "failed to fetch user", slog.Any("error", err))
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, types.ErrUnauthenticated
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		l.ErrorContext(ctx, "failed to sign access token", slog.Any("error", err))
		return nil, nil, fmt.Errorf("login: %w", err)
	}

	return user, &types.Tokens{AccessToken: accessToken}, nil
}

func (s *AuthServiceImpl) Register(ctx context.Context, req RegisterRequest) (*types.User, *types.Tokens, error) {
	l := s.logger.With(slog.String("method", "Register"))

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("register: hashing password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, req.Email, string(hash), req.Pseudo, req.Birthdate, req.Avatar)
	if err != nil {
		if !errors.Is(err, types.ErrConflict) {
			l.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
		}
		return nil, nil, err
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		l.ErrorContext(ctx, "failed to sign access token", slog.Any("error", err))
		return nil, nil, fmt.Errorf("register: %w", err)
	}

	l.InfoContext(ctx, "user registered", slog.Int("user_id", user.ID))
	return user, &types.Tokens{AccessToken: accessToken}, nil
}

func (s *AuthServiceImpl) ResetPassword(ctx context.Context, email string) error {
	l := s.logger.With(slog.String("method", "ResetPassword"))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			l.ErrorContext(ctx, "failed to fetch user", slog.Any("error", err))
		}
		return err
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		l.ErrorContext(ctx, "failed to sign reset token", slog.Any("error", err))
		return fmt.Errorf("reset password: %w", err)
	}

	if err := s.mailer.SendResetLink(ctx, user.Email, token); err != nil {
		l.ErrorContext(ctx, "failed to send reset email", slog.Any("error", err))
		return err
	}
	return nil
}

func (s *AuthServiceImpl) SetNewPassword(ctx context.Context, email, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("set new password: hashing password: %w", err)
	}
	return s.repo.UpdatePasswordByEmail(ctx, email, string(hash))
}

func (s *AuthServiceImpl) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := types.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Pseudo: user.Pseudo,
		RoleID: user.RoleID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.jwtCfg.Issuer,
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtCfg.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtCfg.SecretKey))
}
