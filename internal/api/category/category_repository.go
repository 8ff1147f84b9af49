package category

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/transmission-savoirs/api/internal/api"
	"github.com/transmission-savoirs/api/internal/types"
)

var _ LookupRepo = (*PostgresLookupRepo)(nil)

// LookupRepo serves the three static reference tables. Categories are the
// only maintained one; conditions and types are fixed seeds.
type LookupRepo interface {
	GetAllCategories(ctx context.Context) ([]types.Lookup, error)
	GetAllConditions(ctx context.Context) ([]types.Lookup, error)
	GetAllTypes(ctx context.Context) ([]types.Lookup, error)

	CreateCategory(ctx context.Context, name string) (*types.Lookup, error)
	EditCategory(ctx context.Context, id int, name string) (*types.Lookup, error)
	DeleteCategory(ctx context.Context, id int) (*types.Lookup, error)
}

type PostgresLookupRepo struct {
	logger *slog.Logger
	db     api.DBTX
}

func NewPostgresLookupRepo(db api.DBTX, logger *slog.Logger) *PostgresLookupRepo {
	return &PostgresLookupRepo{
		logger: logger,
		db:     db,
	}
}

func (r *PostgresLookupRepo) queryLookups(ctx context.Context, sql string) ([]types.Lookup, error) {
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("querying lookup table: %w", err)
	}
	defer rows.Close()

	var items []types.Lookup
	for rows.Next() {
		var item types.Lookup
		if err := rows.Scan(&item.ID, &item.Name); err != nil {
			return nil, fmt.Errorf("scanning lookup row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lookup rows: %w", err)
	}
	return items, nil
}

func (r *PostgresLookupRepo) GetAllCategories(ctx context.Context) ([]types.Lookup, error) {
	return r.queryLookups(ctx, `SELECT id, name FROM category ORDER BY name`)
}

func (r *PostgresLookupRepo) GetAllConditions(ctx context.Context) ([]types.Lookup, error) {
	return r.queryLookups(ctx, `SELECT id, name FROM condition ORDER BY id`)
}

func (r *PostgresLookupRepo) GetAllTypes(ctx context.Context) ([]types.Lookup, error) {
	return r.queryLookups(ctx, `SELECT id, name FROM type ORDER BY id`)
}

func (r *PostgresLookupRepo) CreateCategory(ctx context.Context, name string) (*types.Lookup, error) {
	var item types.Lookup
	err := r.db.QueryRow(ctx,
		`INSERT INTO category (name) VALUES ($1) RETURNING id, name`, name).
		Scan(&item.ID, &item.Name)
	if err != nil {
		return nil, fmt.Errorf("create category: insert failed: %w", err)
	}
	return &item, nil
}

func (r *PostgresLookupRepo) EditCategory(ctx context.Context, id int, name string) (*types.Lookup, error) {
	var item types.Lookup
	err := r.db.QueryRow(ctx,
		`UPDATE category SET name = $2 WHERE id = $1 RETURNING id, name`, id, name).
		Scan(&item.ID, &item.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("edit category: update failed: %w", err)
	}
	return &item, nil
}

func (r *PostgresLookupRepo) DeleteCategory(ctx context.Context, id int) (*types.Lookup, error) {
	var item types.Lookup
	err := r.db.QueryRow(ctx,
		`DELETE FROM category WHERE id = $1 RETURNING id, name`, id).
		Scan(&item.ID, &item.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("delete category: delete failed: %w", err)
	}
	return &item, nil
}
