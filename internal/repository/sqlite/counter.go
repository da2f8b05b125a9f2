package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/msomdec/design-catalog/internal/domain"
)

// counterRepo bumps popularity counters with single-statement updates so
// concurrent increments never lose a count.
type counterRepo struct {
	db querier
}

func (r *counterRepo) IncrementViews(ctx context.Context, id int64, kind domain.DesignKind) (int64, error) {
	return r.increment(ctx, "views", id, kind)
}

func (r *counterRepo) IncrementDownloads(ctx context.Context, id int64, kind domain.DesignKind) (int64, error) {
	return r.increment(ctx, "downloads", id, kind)
}

// column is one of two fixed identifiers, never user input.
func (r *counterRepo) increment(ctx context.Context, column string, id int64, kind domain.DesignKind) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`UPDATE designs SET `+column+` = `+column+` + 1
		 WHERE id = ? AND kind = ? AND is_active = 1
		 RETURNING `+column, id, kind,
	).Scan(&n)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("increment %s: %w", column, err)
	}
	return n, nil
}
