package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/engmostafaayman001-hub/markode-ai/internal/domain"
)

// CollaboratorRepo implements domain.CollaboratorRepository backed by PostgreSQL.
type CollaboratorRepo struct {
	pool *pgxpool.Pool
}

func NewCollaboratorRepo(pool *pgxpool.Pool) *CollaboratorRepo {
	return &CollaboratorRepo{pool: pool}
}

func (r *CollaboratorRepo) Add(ctx context.Context, c *domain.Collaborator) (*domain.Collaborator, error) {
	var out domain.Collaborator
	err := r.pool.QueryRow(ctx, `
		INSERT INTO collaborators (project_id, user_id, permission, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (project_id, user_id) DO UPDATE SET permission = EXCLUDED.permission
		RETURNING id, project_id, user_id, permission, created_at
	`, c.ProjectID, c.UserID, c.Permission).Scan(
		&out.ID, &out.ProjectID, &out.UserID, &out.Permission, &out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add collaborator: %w", err)
	}
	return &out, nil
}

func (r *CollaboratorRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Collaborator, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, user_id, permission, created_at
		FROM collaborators
		WHERE project_id = $1
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collaborators: %w", err)
	}
	defer rows.Close()

	var collaborators []domain.Collaborator
	for rows.Next() {
		var c domain.Collaborator
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.UserID, &c.Permission, &c.CreatedAt); err != nil {
			return nil, err
		}
		collaborators = append(collaborators, c)
	}
	return collaborators, rows.Err()
}

func (r *CollaboratorRepo) Remove(ctx context.Context, projectID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM collaborators WHERE project_id = $1 AND user_id = $2`, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove collaborator: %w", err)
	}
	return nil
}
