package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/transmission-savoirs/api/internal/api"
	"github.com/transmission-savoirs/api/internal/types"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo handles profile reads and self-service mutations.
type UserRepo interface {
	GetAllUsers(ctx context.Context) ([]types.User, error)
	GetUserProfil(ctx context.Context, id int) (*types.User, error)

	// Edit patches the profile fields of the given user. Nil params keep the
	// stored value. types.ErrNotFound when the id matched no row.
	Edit(ctx context.Context, id int, params types.UpdateUserParams) (*types.User, error)

	// Delete removes the account and returns the deleted record.
	Delete(ctx context.Context, id int) (*types.User, error)

	// GetAllAvatars lists the selectable avatar images.
	GetAllAvatars(ctx context.Context) ([]types.Lookup, error)
}

type PostgresUserRepo struct {
	logger *slog.Logger
	db     api.DBTX
}

func NewPostgresUserRepo(db api.DBTX, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
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

func (r *PostgresUserRepo) GetAllUsers(ctx context.Context) ([]types.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY pseudo`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		var u types.User
		err := rows.Scan(&u.ID, &u.Email, &u.Password, &u.Pseudo, &u.Birthdate,
			&u.Avatar, &u.RoleID, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}
	return users, nil
}

func (r *PostgresUserRepo) GetUserProfil(ctx context.Context, id int) (*types.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("get user profile: query failed: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) Edit(ctx context.Context, id int, params types.UpdateUserParams) (*types.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx,
		`UPDATE users SET
            pseudo     = COALESCE($2, pseudo),
            birthdate  = COALESCE($3::date, birthdate),
            avatar     = COALESCE($4, avatar),
            updated_at = $5
         WHERE id = $1
         RETURNING `+userColumns,
		id, params.Pseudo, params.Birthdate, params.Avatar, time.Now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("edit user: update failed: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) Delete(ctx context.Context, id int) (*types.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx,
		`DELETE FROM users WHERE id = $1 RETURNING `+userColumns, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("delete user: delete failed: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) GetAllAvatars(ctx context.Context) ([]types.Lookup, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM avatar ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying avatars: %w", err)
	}
	defer rows.Close()

	var avatars []types.Lookup
	for rows.Next() {
		var a types.Lookup
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("scanning avatar row: %w", err)
		}
		avatars = append(avatars, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating avatar rows: %w", err)
	}
	return avatars, nil
}
