package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/engmostafaayman001-hub/markode-ai/internal/domain"
)

// AnalyticsRepo implements domain.AnalyticsRepository backed by PostgreSQL.
type AnalyticsRepo struct {
	pool *pgxpool.Pool
}

func NewAnalyticsRepo(pool *pgxpool.Pool) *AnalyticsRepo {
	return &AnalyticsRepo{pool: pool}
}

func scanAnalyticsEvent(row pgx.Row) (*domain.AnalyticsEvent, error) {
	var e domain.AnalyticsEvent
	var metadata []byte
	err := row.Scan(&e.ID, &e.ProjectID, &e.Event, &metadata, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode event metadata: %w", err)
		}
	}
	return &e, nil
}

func collectAnalyticsEvents(rows pgx.Rows) ([]domain.AnalyticsEvent, error) {
	defer rows.Close()

	var events []domain.AnalyticsEvent
	for rows.Next() {
		e, err := scanAnalyticsEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *AnalyticsRepo) Log(ctx context.Context, event *domain.AnalyticsEvent) (*domain.AnalyticsEvent, error) {
	var metadata []byte
	if event.Metadata != nil {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode event metadata: %w", err)
		}
	}

	out, err := scanAnalyticsEvent(r.pool.QueryRow(ctx, `
		INSERT INTO analytics (project_id, event, metadata, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, project_id, event, metadata, created_at
	`, event.ProjectID, event.Event, metadata))
	if err != nil {
		return nil, fmt.Errorf("failed to log analytics event: %w", err)
	}
	return out, nil
}

func (r *AnalyticsRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.AnalyticsEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, event, metadata, created_at
		FROM analytics
		WHERE project_id = $1
		ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project analytics: %w", err)
	}
	return collectAnalyticsEvents(rows)
}

// ListByUser joins through projects so a user sees events across everything
// they own.
func (r *AnalyticsRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.AnalyticsEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.project_id, a.event, a.metadata, a.created_at
		FROM analytics a
		INNER JOIN projects p ON a.project_id = p.id
		WHERE p.user_id = $1
		ORDER BY a.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user analytics: %w", err)
	}
	return collectAnalyticsEvents(rows)
}
