package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/domain"
)

// DripQueueRepository handles database operations for drip queue entries.
type DripQueueRepository struct {
	db *sqlx.DB
}

func NewDripQueueRepository(db *sqlx.DB) *DripQueueRepository {
	return &DripQueueRepository{db: db}
}

// GetDue fetches pending entries due at or before now, oldest first, joined
// with their lead and step.
func (r *DripQueueRepository) GetDue(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]domain.DueDripEntry, error) {
	query := `
		SELECT q.id, q.lead_id, q.step_id, q.campaign_id, q.status, q.scheduled_at,
		       q.attempts, q.max_attempts, q.sent_at, q.message_id, q.error_message, q.created_at,
		       l.name AS lead_name, l.whatsapp AS lead_whatsapp, l.source AS lead_source, l.status AS lead_status,
		       s.step_order AS step_order, s.message_template AS step_template,
		       c.name AS campaign_name
		FROM drip_queue q
		JOIN leads l ON l.id = q.lead_id
		JOIN drip_steps s ON s.id = q.step_id
		JOIN drip_campaigns c ON c.id = q.campaign_id
		WHERE q.status = 'pending' AND q.scheduled_at <= ?
		ORDER BY q.scheduled_at ASC
		LIMIT ?
	`

	var entries []domain.DueDripEntry
	if err := r.db.SelectContext(ctx, &entries, query, now, limit); err != nil {
		return nil, fmt.Errorf("failed to get due drip entries: %w", err)
	}

	return entries, nil
}

func (r *DripQueueRepository) MarkSent(
	ctx context.Context,
	id int64,
	sentAt time.Time,
	messageID string,
	attempts int,
) error {
	query := `
		UPDATE drip_queue
		SET status = 'sent', sent_at = ?, message_id = ?, attempts = ?
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, sentAt, messageID, attempts, id); err != nil {
		return fmt.Errorf("failed to mark drip entry as sent: %w", err)
	}

	return nil
}

func (r *DripQueueRepository) MarkCancelled(ctx context.Context, id int64) error {
	query := `
		UPDATE drip_queue
		SET status = 'cancelled'
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to cancel drip entry: %w", err)
	}

	return nil
}

// RecordFailure stores the delivery error and attempt count. Terminal
// failures move to failed; otherwise the entry stays pending rescheduled to
// rescheduleAt (the fixed backoff window).
func (r *DripQueueRepository) RecordFailure(
	ctx context.Context,
	id int64,
	attempts int,
	errorMessage string,
	terminal bool,
	rescheduleAt time.Time,
) error {
	if terminal {
		query := `
			UPDATE drip_queue
			SET status = 'failed', attempts = ?, error_message = ?
			WHERE id = ?
		`
		if _, err := r.db.ExecContext(ctx, query, attempts, errorMessage, id); err != nil {
			return fmt.Errorf("failed to record drip entry failure: %w", err)
		}
		return nil
	}

	query := `
		UPDATE drip_queue
		SET attempts = ?, error_message = ?, scheduled_at = ?
		WHERE id = ?
	`
	if _, err := r.db.ExecContext(ctx, query, attempts, errorMessage, rescheduleAt, id); err != nil {
		return fmt.Errorf("failed to reschedule drip entry: %w", err)
	}

	return nil
}

// BulkInsert creates queue entries in a single transaction, all or nothing.
func (r *DripQueueRepository) BulkInsert(ctx context.Context, entries []domain.DripQueueEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO drip_queue (lead_id, step_id, campaign_id, status, scheduled_at, max_attempts)
		VALUES (?, ?, ?, 'pending', ?, ?)
	`

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, query, e.LeadID, e.StepID, e.CampaignID, e.ScheduledAt, e.MaxAttempts); err != nil {
			return fmt.Errorf("failed to insert drip queue entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit drip queue entries: %w", err)
	}

	return nil
}

func (r *DripQueueRepository) CancelPendingForLead(ctx context.Context, leadID int64) (int64, error) {
	query := `
		UPDATE drip_queue
		SET status = 'cancelled'
		WHERE lead_id = ? AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query, leadID)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel pending drip entries for lead: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows, nil
}

func (r *DripQueueRepository) ListByLead(ctx context.Context, leadID int64) ([]domain.DripQueueEntry, error) {
	query := `
		SELECT id, lead_id, step_id, campaign_id, status, scheduled_at, attempts,
		       max_attempts, sent_at, message_id, error_message, created_at
		FROM drip_queue
		WHERE lead_id = ?
		ORDER BY scheduled_at ASC
	`

	var entries []domain.DripQueueEntry
	if err := r.db.SelectContext(ctx, &entries, query, leadID); err != nil {
		return nil, fmt.Errorf("failed to list drip entries for lead: %w", err)
	}

	return entries, nil
}
