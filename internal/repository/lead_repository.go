package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/domain"
)

// LeadRepository handles database operations for leads.
type LeadRepository struct {
	db *sqlx.DB
}

func NewLeadRepository(db *sqlx.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

const leadColumns = "id, name, whatsapp, source, notes, status, created_at, updated_at"

func (r *LeadRepository) GetByID(ctx context.Context, id int64) (*domain.Lead, error) {
	query := fmt.Sprintf("SELECT %s FROM leads WHERE id = ?", leadColumns)

	var lead domain.Lead
	if err := r.db.GetContext(ctx, &lead, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	return &lead, nil
}

// FindByWhatsApp looks a lead up by its stored phone number. Returns nil when
// no lead matches; callers try several number variants in sequence.
func (r *LeadRepository) FindByWhatsApp(ctx context.Context, whatsapp string) (*domain.Lead, error) {
	query := fmt.Sprintf("SELECT %s FROM leads WHERE whatsapp = ? LIMIT 1", leadColumns)

	var lead domain.Lead
	if err := r.db.GetContext(ctx, &lead, query, whatsapp); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find lead by whatsapp: %w", err)
	}

	return &lead, nil
}

func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	query := `
		INSERT INTO leads (name, whatsapp, source, notes, status)
		VALUES (?, ?, ?, ?, ?)
	`

	status := lead.Status
	if status == "" {
		status = domain.LeadStatusNew
	}

	result, err := r.db.ExecContext(ctx, query, lead.Name, lead.WhatsApp, lead.Source, lead.Notes, status)
	if err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *LeadRepository) UpdateStatus(ctx context.Context, id int64, status domain.LeadStatus) error {
	query := `
		UPDATE leads
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update lead status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("no lead found with id %d", id)
	}

	return nil
}

// ListFilter narrows List results; zero values mean no filter.
type ListFilter struct {
	Status domain.LeadStatus
	Source string
	Search string
}

func (r *LeadRepository) List(
	ctx context.Context,
	filter ListFilter,
	page, pageSize int,
) ([]domain.Lead, int64, error) {
	where := "WHERE 1=1"
	args := []any{}

	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Source != "" {
		where += " AND source = ?"
		args = append(args, filter.Source)
	}
	if filter.Search != "" {
		where += " AND name LIKE ?"
		args = append(args, "%"+filter.Search+"%")
	}

	var totalCount int64
	countQuery := "SELECT COUNT(*) FROM leads " + where
	if err := r.db.GetContext(ctx, &totalCount, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	offset := (page - 1) * pageSize
	query := fmt.Sprintf(
		"SELECT %s FROM leads %s ORDER BY created_at DESC LIMIT ? OFFSET ?",
		leadColumns, where,
	)
	args = append(args, pageSize, offset)

	var leads []domain.Lead
	if err := r.db.SelectContext(ctx, &leads, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}

	return leads, totalCount, nil
}
