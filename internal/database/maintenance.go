package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"prtg-extract/internal/models"
)

// Prune deletes records created more than olderThan ago and returns how many
// rows went away. SQLite files are vacuumed afterwards to reclaim space.
func (db *DB) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("retention must be positive, got %s", olderThan)
	}
	cutoff := time.Now().UTC().Add(-olderThan).Format(models.RecordLayout)

	res, err := db.ExecContext(ctx, db.dialect.Rebind(`DELETE FROM availability WHERE created_at < ?`), cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune records: %w", err)
	}
	db.log.Info("Pruned records", zap.Int64("deleted", n), zap.String("cutoff", cutoff))

	if n > 0 && db.dialect.Name() == "sqlite" {
		if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
			return n, fmt.Errorf("vacuum: %w", err)
		}
	}
	return n, nil
}
