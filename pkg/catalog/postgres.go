package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ArionMiles/smsexpensor/pkg/api"
)

// Querier is the subset of pgxpool.Pool used by Postgres.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres reads catalogs from the categories table created by the postgres writer.
type Postgres struct {
	db Querier
}

// NewPostgres creates a Postgres catalog provider.
func NewPostgres(db Querier) *Postgres {
	return &Postgres{db: db}
}

// Categories implements Provider.
func (p *Postgres) Categories(ctx context.Context, ownerID string) ([]api.Category, error) {
	rows, err := p.db.Query(ctx, `
		SELECT id, name FROM categories
		WHERE owner_id = $1
		ORDER BY position, name
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}

	cats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (api.Category, error) {
		var c api.Category
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning categories: %w", err)
	}
	if len(cats) == 0 {
		return nil, fmt.Errorf("owner %q: %w", ownerID, ErrNotFound)
	}
	return cats, nil
}
