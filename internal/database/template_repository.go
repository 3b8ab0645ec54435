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

// templateColumns must match the Scan order in scanTemplate.
const templateColumns = `id, name, description, category, preview_image, files, downloads, is_premium, created_at`

// TemplateRepo implements domain.TemplateRepository backed by PostgreSQL.
type TemplateRepo struct {
	pool *pgxpool.Pool
}

func NewTemplateRepo(pool *pgxpool.Pool) *TemplateRepo {
	return &TemplateRepo{pool: pool}
}

func scanTemplate(row pgx.Row) (*domain.Template, error) {
	var t domain.Template
	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.Category, &t.PreviewImage,
		&t.Files, &t.Downloads, &t.IsPremium, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns templates ordered by popularity, optionally filtered by category.
func (r *TemplateRepo) List(ctx context.Context, category string) ([]domain.Template, error) {
	var rows pgx.Rows
	var err error
	if category != "" {
		rows, err = r.pool.Query(ctx,
			`SELECT `+templateColumns+` FROM templates WHERE category = $1 ORDER BY downloads DESC`, category)
	} else {
		rows, err = r.pool.Query(ctx,
			`SELECT `+templateColumns+` FROM templates ORDER BY downloads DESC`)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []domain.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func (r *TemplateRepo) GetByID(ctx context.Context, templateID uuid.UUID) (*domain.Template, error) {
	template, err := scanTemplate(r.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM templates WHERE id = $1`, templateID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return template, nil
}

func (r *TemplateRepo) Create(ctx context.Context, t *domain.Template) (*domain.Template, error) {
	files := t.Files
	if files == nil {
		files = map[string]string{}
	}

	template, err := scanTemplate(r.pool.QueryRow(ctx, `
		INSERT INTO templates (name, description, category, preview_image, files, is_premium, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING `+templateColumns+`
	`, t.Name, t.Description, t.Category, t.PreviewImage, files, t.IsPremium))
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return template, nil
}

func (r *TemplateRepo) IncrementDownloads(ctx context.Context, templateID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE templates SET downloads = downloads + 1 WHERE id = $1`, templateID)
	if err != nil {
		return fmt.Errorf("failed to increment downloads: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTemplateNotFound
	}
	return nil
}
