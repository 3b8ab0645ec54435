package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/engmostafaayman001-hub/markode-ai/internal/domain"
)

// projectColumns must match the Scan order in scanProject.
const projectColumns = `id, name, description, user_id, template_id, files, is_public, deploy_url, created_at, updated_at`

// ProjectRepo implements domain.ProjectRepository backed by PostgreSQL.
// Files live in a single JSONB column mapping filename to full content.
type ProjectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.UserID, &p.TemplateID,
		&p.Files, &p.IsPublic, &p.DeployURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Files == nil {
		p.Files = map[string]string{}
	}
	return &p, nil
}

func collectProjects(rows pgx.Rows) ([]domain.Project, error) {
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (r *ProjectRepo) Create(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	files := p.Files
	if files == nil {
		files = map[string]string{}
	}

	project, err := scanProject(r.pool.QueryRow(ctx, `
		INSERT INTO projects (name, description, user_id, template_id, files, is_public, deploy_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING `+projectColumns+`
	`, p.Name, p.Description, p.UserID, p.TemplateID, files, p.IsPublic, p.DeployURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

func (r *ProjectRepo) GetByID(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	project, err := scanProject(r.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, projectID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

func (r *ProjectRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return collectProjects(rows)
}

func (r *ProjectRepo) Update(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	files := p.Files
	if files == nil {
		files = map[string]string{}
	}

	project, err := scanProject(r.pool.QueryRow(ctx, `
		UPDATE projects
		SET name = $1, description = $2, files = $3, is_public = $4, deploy_url = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING `+projectColumns+`
	`, p.Name, p.Description, files, p.IsPublic, p.DeployURL, p.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return project, nil
}

func (r *ProjectRepo) Delete(ctx context.Context, projectID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

// Search matches name or description case-insensitively. With a userID it is
// scoped to that user's projects; without one it only returns public projects.
func (r *ProjectRepo) Search(ctx context.Context, query string, userID *uuid.UUID) ([]domain.Project, error) {
	pattern := "%" + query + "%"

	var rows pgx.Rows
	var err error
	if userID != nil {
		rows, err = r.pool.Query(ctx, `
			SELECT `+projectColumns+` FROM projects
			WHERE (name ILIKE $1 OR description ILIKE $1) AND user_id = $2
			ORDER BY updated_at DESC
		`, pattern, *userID)
	} else {
		rows, err = r.pool.Query(ctx, `
			SELECT `+projectColumns+` FROM projects
			WHERE (name ILIKE $1 OR description ILIKE $1) AND is_public = TRUE
			ORDER BY updated_at DESC
		`, pattern)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search projects: %w", err)
	}
	return collectProjects(rows)
}
