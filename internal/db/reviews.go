package db

import (
	"context"
	"fmt"
)

// DeleteReviews removes consumed reviews. Ids that are not stored are
// ignored.
func (db *DB) DeleteReviews(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := db.pool.Exec(ctx, `DELETE FROM reviews WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("failed to delete reviews: %w", err)
	}
	return nil
}
