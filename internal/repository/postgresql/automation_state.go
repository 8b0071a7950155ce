package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/buildcrew/workforce-backend/internal/domain/payroll"
	"github.com/buildcrew/workforce-backend/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type automationStateRepository struct {
	db *database.DB
}

func NewAutomationStateRepository(db *database.DB) payroll.AutomationStateRepository {
	return &automationStateRepository{db: db}
}

func (r *automationStateRepository) GetState(ctx context.Context) (payroll.AutomationState, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT active, last_processing, next_cutoff, updated_at
		FROM payroll_automation_state
		WHERE id = 1
	`

	var s payroll.AutomationState
	err := q.QueryRow(ctx, query).Scan(&s.Active, &s.LastProcessing, &s.NextCutoff, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.AutomationState{}, payroll.ErrAutomationStateNotFound
		}
		return payroll.AutomationState{}, fmt.Errorf("failed to get automation state: %w", err)
	}
	return s, nil
}

func (r *automationStateRepository) SaveState(ctx context.Context, s payroll.AutomationState) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_automation_state (id, active, last_processing, next_cutoff)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			active = EXCLUDED.active,
			last_processing = EXCLUDED.last_processing,
			next_cutoff = EXCLUDED.next_cutoff,
			updated_at = NOW()
	`

	if _, err := q.Exec(ctx, query, s.Active, s.LastProcessing, s.NextCutoff); err != nil {
		return fmt.Errorf("failed to save automation state: %w", err)
	}
	return nil
}
