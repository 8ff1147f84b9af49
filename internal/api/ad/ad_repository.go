package ad

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

var _ AdRepo = (*PostgresAdRepo)(nil)

// AdRepo is the persistence contract for listings. Mutations carry the
// caller's user id so ownership is checked inside the statement itself.
type AdRepo interface {
	GetAll(ctx context.Context) ([]types.Ad, error)
	GetAllByCategory(ctx context.Context, categoryID int) ([]types.Ad, error)
	GetAllByType(ctx context.Context, typeID int) ([]types.Ad, error)
	GetAllByTypeAndCategory(ctx context.Context, typeID, categoryID int) ([]types.Ad, error)
	GetAllByUser(ctx context.Context, userID int) ([]types.Ad, error)

	// GetOneWithSimilar loads one ad plus up to three other ads sharing its
	// category. types.ErrNotFound when the id does not exist.
	GetOneWithSimilar(ctx context.Context, id int) (*types.AdWithSimilar, error)

	Create(ctx context.Context, userID int, params CreateAdParams) (*types.Ad, error)

	// Edit and Delete apply only when the row belongs to userID; the
	// ownership predicate lives in the UPDATE/DELETE statement.
	// types.ErrNotFound when no row matched.
	Edit(ctx context.Context, id, userID int, params EditAdParams) (*types.Ad, error)
	Delete(ctx context.Context, id, userID int) (*types.Ad, error)

	// Exists reports whether the ad id is present at all, regardless of
	// owner. Used to tell "not yours" apart from "gone" after a zero-row
	// mutation.
	Exists(ctx context.Context, id int) (bool, error)
}

type PostgresAdRepo struct {
	logger *slog.Logger
	db     api.DBTX
}

func NewPostgresAdRepo(db api.DBTX, logger *slog.Logger) *PostgresAdRepo {
	return &PostgresAdRepo{
		logger: logger,
		db:     db,
	}
}

const adColumns = `id, title, description, postal_code, image, user_id, category_id, condition_id, type_id, created_at, updated_at`

func scanAds(rows pgx.Rows) ([]types.Ad, error) {
	defer rows.Close()
	var ads []types.Ad
	for rows.Next() {
		var a types.Ad
		err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.PostalCode, &a.Image,
			&a.UserID, &a.CategoryID, &a.ConditionID, &a.TypeID, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning ad row: %w", err)
		}
		ads = append(ads, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ad rows: %w", err)
	}
	return ads, nil
}

func scanAd(row pgx.Row) (*types.Ad, error) {
	var a types.Ad
	err := row.Scan(&a.ID, &a.Title, &a.Description, &a.PostalCode, &a.Image,
		&a.UserID, &a.CategoryID, &a.ConditionID, &a.TypeID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PostgresAdRepo) queryAds(ctx context.Context, sql string, args ...any) ([]types.Ad, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ads: %w", err)
	}
	return scanAds(rows)
}

func (r *PostgresAdRepo) GetAll(ctx context.Context) ([]types.Ad, error) {
	return r.queryAds(ctx, `SELECT `+adColumns+` FROM ad ORDER BY created_at DESC`)
}

func (r *PostgresAdRepo) GetAllByCategory(ctx context.Context, categoryID int) ([]types.Ad, error) {
	return r.queryAds(ctx,
		`SELECT `+adColumns+` FROM ad WHERE category_id = $1 ORDER BY created_at DESC`, categoryID)
}

func (r *PostgresAdRepo) GetAllByType(ctx context.Context, typeID int) ([]types.Ad, error) {
	return r.queryAds(ctx,
		`SELECT `+adColumns+` FROM ad WHERE type_id = $1 ORDER BY created_at DESC`, typeID)
}

func (r *PostgresAdRepo) GetAllByTypeAndCategory(ctx context.Context, typeID, categoryID int) ([]types.Ad, error) {
	return r.queryAds(ctx,
		`SELECT `+adColumns+` FROM ad WHERE type_id = $1 AND category_id = $2 ORDER BY created_at DESC`,
		typeID, categoryID)
}

func (r *PostgresAdRepo) GetAllByUser(ctx context.Context, userID int) ([]types.Ad, error) {
	return r.queryAds(ctx,
		`SELECT `+adColumns+` FROM ad WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *PostgresAdRepo) GetOneWithSimilar(ctx context.Context, id int) (*types.AdWithSimilar, error) {
	ad, err := scanAd(r.db.QueryRow(ctx,
		`SELECT `+adColumns+` FROM ad WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("get ad: query failed: %w", err)
	}

	similar, err := r.queryAds(ctx,
		`SELECT `+adColumns+` FROM ad
         WHERE category_id = $1 AND id <> $2
         ORDER BY created_at DESC LIMIT 3`, ad.CategoryID, ad.ID)
	if err != nil {
		return nil, fmt.Errorf("get similar ads: %w", err)
	}

	return &types.AdWithSimilar{Ad: *ad, Similar: similar}, nil
}

func (r *PostgresAdRepo) Create(ctx context.Context, userID int, params CreateAdParams) (*types.Ad, error) {
	ad, err := scanAd(r.db.QueryRow(ctx,
		`INSERT INTO ad (title, description, postal_code, image, user_id, category_id, condition_id, type_id, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
         RETURNING `+adColumns,
		params.Title, params.Description, params.PostalCode, params.Image,
		userID, params.CategoryID, params.ConditionID, params.TypeID, time.Now()))
	if err != nil {
		return nil, fmt.Errorf("create ad: insert failed: %w", err)
	}
	return ad, nil
}

func (r *PostgresAdRepo) Edit(ctx context.Context, id, userID int, params EditAdParams) (*types.Ad, error) {
	ad, err := scanAd(r.db.QueryRow(ctx,
		`UPDATE ad SET
            title        = COALESCE($3, title),
            description  = COALESCE($4, description),
            postal_code  = COALESCE($5, postal_code),
            image        = COALESCE($6, image),
            category_id  = COALESCE($7, category_id),
            condition_id = COALESCE($8, condition_id),
            type_id      = COALESCE($9, type_id),
            updated_at   = $10
         WHERE id = $1 AND user_id = $2
         RETURNING `+adColumns,
		id, userID, params.Title, params.Description, params.PostalCode,
		params.Image, params.CategoryID, params.ConditionID, params.TypeID, time.Now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("edit ad: update failed: %w", err)
	}
	return ad, nil
}

func (r *PostgresAdRepo) Delete(ctx context.Context, id, userID int) (*types.Ad, error) {
	ad, err := scanAd(r.db.QueryRow(ctx,
		`DELETE FROM ad WHERE id = $1 AND user_id = $2 RETURNING `+adColumns,
		id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("delete ad: delete failed: %w", err)
	}
	return ad, nil
}

func (r *PostgresAdRepo) Exists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM ad WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking ad existence: %w", err)
	}
	return exists, nil
}
