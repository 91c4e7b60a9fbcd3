package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/domain"
)

// MessageLogRepository appends to and queries the audit trail. Rows are never
// updated or deleted.
type MessageLogRepository struct {
	db *sqlx.DB
}

func NewMessageLogRepository(db *sqlx.DB) *MessageLogRepository {
	return &MessageLogRepository{db: db}
}

func (r *MessageLogRepository) Insert(ctx context.Context, log *domain.MessageLog) error {
	query := `
		INSERT INTO message_log (lead_id, whatsapp, direction, content, metadata)
		VALUES (?, ?, ?, ?, ?)
	`

	metadata := log.Metadata
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}

	if _, err := r.db.ExecContext(ctx, query, log.LeadID, log.WhatsApp, log.Direction, log.Content, []byte(metadata)); err != nil {
		return fmt.Errorf("failed to insert message log: %w", err)
	}

	return nil
}

// ExistsByProviderMessageID reports whether an inbound message with this
// provider id was already logged. This is the restart-safe dedup check.
func (r *MessageLogRepository) ExistsByProviderMessageID(ctx context.Context, providerMessageID string) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM message_log
		WHERE JSON_UNQUOTE(JSON_EXTRACT(metadata, '$.messageId')) = ?
	`

	var count int64
	if err := r.db.GetContext(ctx, &count, query, providerMessageID); err != nil {
		return false, fmt.Errorf("failed to check message log for provider id: %w", err)
	}

	return count > 0, nil
}

func (r *MessageLogRepository) List(
	ctx context.Context,
	leadID *int64,
	direction *domain.MessageDirection,
	page, pageSize int,
) ([]domain.MessageLog, int64, error) {
	where := "WHERE 1=1"
	args := []any{}

	if leadID != nil {
		where += " AND lead_id = ?"
		args = append(args, *leadID)
	}
	if direction != nil {
		where += " AND direction = ?"
		args = append(args, *direction)
	}

	var totalCount int64
	if err := r.db.GetContext(ctx, &totalCount, "SELECT COUNT(*) FROM message_log "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count message log: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT id, lead_id, whatsapp, direction, content, metadata, created_at
		FROM message_log ` + where + `
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	args = append(args, pageSize, offset)

	var logs []domain.MessageLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list message log: %w", err)
	}

	return logs, totalCount, nil
}
