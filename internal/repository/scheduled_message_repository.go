package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/domain"
)

// ScheduledMessageRepository handles database operations for one-off
// scheduled messages.
type ScheduledMessageRepository struct {
	db *sqlx.DB
}

func NewScheduledMessageRepository(db *sqlx.DB) *ScheduledMessageRepository {
	return &ScheduledMessageRepository{db: db}
}

// GetDue fetches pending messages whose due time has passed, joined with the
// owning lead so eligibility can be decided without extra queries.
func (r *ScheduledMessageRepository) GetDue(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]domain.DueScheduledMessage, error) {
	query := `
		SELECT m.id, m.lead_id, m.kind, m.custom_body, m.due_at, m.status,
		       m.attempts, m.last_error, m.sent_at, m.created_at,
		       l.name AS lead_name, l.whatsapp AS lead_whatsapp, l.status AS lead_status
		FROM scheduled_messages m
		JOIN leads l ON l.id = m.lead_id
		WHERE m.status = 'pending' AND m.due_at <= ?
		ORDER BY m.due_at ASC
		LIMIT ?
	`

	var messages []domain.DueScheduledMessage
	if err := r.db.SelectContext(ctx, &messages, query, now, limit); err != nil {
		return nil, fmt.Errorf("failed to get due scheduled messages: %w", err)
	}

	return messages, nil
}

func (r *ScheduledMessageRepository) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	query := `
		UPDATE scheduled_messages
		SET status = 'sent', sent_at = ?
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, sentAt, id); err != nil {
		return fmt.Errorf("failed to mark scheduled message as sent: %w", err)
	}

	return nil
}

func (r *ScheduledMessageRepository) MarkCancelled(ctx context.Context, id int64) error {
	query := `
		UPDATE scheduled_messages
		SET status = 'cancelled'
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to cancel scheduled message: %w", err)
	}

	return nil
}

// RecordFailure bumps the attempt counter and stores the delivery error.
// When terminal is true the message moves to failed; otherwise it stays
// pending with due_at moved to nextDueAt (immediate retry keeps it at now,
// so the next tick re-evaluates it).
func (r *ScheduledMessageRepository) RecordFailure(
	ctx context.Context,
	id int64,
	attempts int,
	lastError string,
	terminal bool,
	nextDueAt time.Time,
) error {
	if terminal {
		query := `
			UPDATE scheduled_messages
			SET status = 'failed', attempts = ?, last_error = ?
			WHERE id = ?
		`
		if _, err := r.db.ExecContext(ctx, query, attempts, lastError, id); err != nil {
			return fmt.Errorf("failed to record scheduled message failure: %w", err)
		}
		return nil
	}

	query := `
		UPDATE scheduled_messages
		SET attempts = ?, last_error = ?, due_at = ?
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, attempts, lastError, nextDueAt, id); err != nil {
		return fmt.Errorf("failed to record scheduled message failure: %w", err)
	}

	return nil
}

// CancelPendingForLead cancels every pending scheduled message of a lead.
func (r *ScheduledMessageRepository) CancelPendingForLead(ctx context.Context, leadID int64) (int64, error) {
	query := `
		UPDATE scheduled_messages
		SET status = 'cancelled'
		WHERE lead_id = ? AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query, leadID)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel pending messages for lead: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows, nil
}

// ResetFailed resurrects failed messages below the retry ceiling.
func (r *ScheduledMessageRepository) ResetFailed(ctx context.Context, maxRetries int) (int64, error) {
	query := `
		UPDATE scheduled_messages
		SET status = 'pending'
		WHERE status = 'failed' AND attempts < ?
	`

	result, err := r.db.ExecContext(ctx, query, maxRetries)
	if err != nil {
		return 0, fmt.Errorf("failed to reset failed messages: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows, nil
}

func (r *ScheduledMessageRepository) Create(
	ctx context.Context,
	msg *domain.ScheduledMessage,
) (*domain.ScheduledMessage, error) {
	query := `
		INSERT INTO scheduled_messages (lead_id, kind, custom_body, due_at, status)
		VALUES (?, ?, ?, ?, 'pending')
	`

	result, err := r.db.ExecContext(ctx, query, msg.LeadID, msg.Kind, msg.CustomBody, msg.DueAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduled message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *ScheduledMessageRepository) GetByID(ctx context.Context, id int64) (*domain.ScheduledMessage, error) {
	query := `
		SELECT id, lead_id, kind, custom_body, due_at, status, attempts, last_error, sent_at, created_at
		FROM scheduled_messages
		WHERE id = ?
	`

	var msg domain.ScheduledMessage
	if err := r.db.GetContext(ctx, &msg, query, id); err != nil {
		return nil, fmt.Errorf("failed to get scheduled message: %w", err)
	}

	return &msg, nil
}

func (r *ScheduledMessageRepository) List(
	ctx context.Context,
	status *domain.MessageStatus,
	leadID *int64,
	page, pageSize int,
) ([]domain.ScheduledMessage, int64, error) {
	where := "WHERE 1=1"
	args := []any{}

	if status != nil {
		where += " AND status = ?"
		args = append(args, *status)
	}
	if leadID != nil {
		where += " AND lead_id = ?"
		args = append(args, *leadID)
	}

	var totalCount int64
	if err := r.db.GetContext(ctx, &totalCount, "SELECT COUNT(*) FROM scheduled_messages "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count scheduled messages: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT id, lead_id, kind, custom_body, due_at, status, attempts, last_error, sent_at, created_at
		FROM scheduled_messages ` + where + `
		ORDER BY due_at ASC
		LIMIT ? OFFSET ?
	`
	args = append(args, pageSize, offset)

	var messages []domain.ScheduledMessage
	if err := r.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list scheduled messages: %w", err)
	}

	return messages, totalCount, nil
}
