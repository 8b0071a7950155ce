package postgresql

import (
	"context"
	"fmt"

	"github.com/buildcrew/workforce-backend/internal/domain/activity"
	"github.com/buildcrew/workforce-backend/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type activityRepository struct {
	db *database.DB
}

func NewActivityRepository(db *database.DB) activity.Repository {
	return &activityRepository{db: db}
}

// CreateBatch inserts all entries in one round trip.
func (r *activityRepository) CreateBatch(ctx context.Context, entries []activity.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []interface{}{e.ID, e.Actor, e.Action, e.Module, e.Description, e.CreatedAt})
	}

	_, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"activity_logs"},
		[]string{"id", "actor", "action", "module", "description", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity logs: %w", err)
	}
	return nil
}
