package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/domain"
)

// TemplateRepository reads message templates for scheduled-message kinds.
type TemplateRepository struct {
	db *sqlx.DB
}

func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// GetActive returns active templates keyed by kind.
func (r *TemplateRepository) GetActive(ctx context.Context) (map[string]string, error) {
	query := `
		SELECT id, kind, content, is_active
		FROM message_templates
		WHERE is_active = TRUE
	`

	var templates []domain.MessageTemplate
	if err := r.db.SelectContext(ctx, &templates, query); err != nil {
		return nil, fmt.Errorf("failed to get active templates: %w", err)
	}

	byKind := make(map[string]string, len(templates))
	for _, t := range templates {
		byKind[t.Kind] = t.Content
	}

	return byKind, nil
}

// Upsert replaces the content for a kind, creating the row when missing.
func (r *TemplateRepository) Upsert(ctx context.Context, kind, content string) error {
	query := `
		INSERT INTO message_templates (kind, content, is_active)
		VALUES (?, ?, TRUE)
		ON DUPLICATE KEY UPDATE content = VALUES(content), is_active = TRUE
	`

	if _, err := r.db.ExecContext(ctx, query, kind, content); err != nil {
		return fmt.Errorf("failed to upsert template: %w", err)
	}

	return nil
}
