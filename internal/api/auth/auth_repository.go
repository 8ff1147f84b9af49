package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/transmission-savoirs/api/internal/api"
	"github.com/transmission-savoirs/api/internal/types"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo defines the contract for credential persistence. Not-found is
// reported as types.ErrNotFound, never as a nil record.
type AuthRepo interface {
	// GetUserByEmail retrieves the full user record, including the password
	// hash, for credential checks.
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)

	// CreateUser inserts a new account with an already-hashed password.
	// A duplicate email yields types.ErrConflict.
	CreateUser(ctx context.Context, email, hashedPassword, pseudo, birthdate string, avatar *string) (*types.User, error)

	// UpdatePasswordByEmail replaces the stored hash for the given account.
	// types.ErrNotFound when no row matched.
	UpdatePasswordByEmail(ctx context.Context, email, hashedPassword string) error
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	db     api.DBTX
}

func NewPostgresAuthRepo(db api.DBTX, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		db:     db,
	}
}

const userColumns = `id, email, password, pseudo, birthdate, avatar, role_id, created_at, updated_at`

func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Pseudo, &u.Birthdate,
		&u.Avatar, &u.RoleID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: query failed: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepo) CreateUser(ctx context.Context, email, hashedPassword, pseudo, birthdate string, avatar *string) (*types.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx,
		`INSERT INTO users (email, password, pseudo, birthdate, avatar, role_id, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING `+userColumns,
		email, hashedPassword, pseudo, birthdate, avatar, types.RoleMember, time.Now()))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, types.ErrConflict
		}
		return nil, fmt.Errorf("create user: insert failed: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepo) UpdatePasswordByEmail(ctx context.Context, email, hashedPassword string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password = $2, updated_at = $3 WHERE email = $1`,
		email, hashedPassword, time.Now())
	if err != nil {
		return fmt.Errorf("update password: db update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}
