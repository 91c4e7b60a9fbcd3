package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/domain"
)

// CampaignRepository handles drip campaigns and their steps.
type CampaignRepository struct {
	db *sqlx.DB
}

func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

const campaignColumns = "id, name, description, trigger_event, is_active, created_at"

// GetActiveSteps returns the active steps of a campaign ordered by step
// order, the order the enqueuer accumulates delays in.
func (r *CampaignRepository) GetActiveSteps(ctx context.Context, campaignID int64) ([]domain.DripStep, error) {
	query := `
		SELECT id, campaign_id, step_order, delay_minutes, message_template, is_active
		FROM drip_steps
		WHERE campaign_id = ? AND is_active = TRUE
		ORDER BY step_order ASC
	`

	var steps []domain.DripStep
	if err := r.db.SelectContext(ctx, &steps, query, campaignID); err != nil {
		return nil, fmt.Errorf("failed to get active steps: %w", err)
	}

	return steps, nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int64) (*domain.DripCampaign, error) {
	query := fmt.Sprintf("SELECT %s FROM drip_campaigns WHERE id = ?", campaignColumns)

	var campaign domain.DripCampaign
	if err := r.db.GetContext(ctx, &campaign, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	steps, err := r.stepsForCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	campaign.Steps = steps

	return &campaign, nil
}

func (r *CampaignRepository) List(ctx context.Context) ([]domain.DripCampaign, error) {
	query := fmt.Sprintf("SELECT %s FROM drip_campaigns ORDER BY created_at DESC", campaignColumns)

	var campaigns []domain.DripCampaign
	if err := r.db.SelectContext(ctx, &campaigns, query); err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	for i := range campaigns {
		steps, err := r.stepsForCampaign(ctx, campaigns[i].ID)
		if err != nil {
			return nil, err
		}
		campaigns[i].Steps = steps
	}

	return campaigns, nil
}

// ActiveByTrigger returns the active campaigns fired by an event, e.g.
// lead_created at lead capture time.
func (r *CampaignRepository) ActiveByTrigger(ctx context.Context, event string) ([]domain.DripCampaign, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM drip_campaigns WHERE trigger_event = ? AND is_active = TRUE",
		campaignColumns,
	)

	var campaigns []domain.DripCampaign
	if err := r.db.SelectContext(ctx, &campaigns, query, event); err != nil {
		return nil, fmt.Errorf("failed to get campaigns by trigger: %w", err)
	}

	return campaigns, nil
}

// Create inserts a campaign and its steps in one transaction. Step order is
// assigned from slice position, contiguous from 1.
func (r *CampaignRepository) Create(
	ctx context.Context,
	campaign *domain.DripCampaign,
	steps []domain.DripStep,
) (*domain.DripCampaign, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	trigger := campaign.TriggerEvent
	if trigger == "" {
		trigger = domain.TriggerLeadCreated
	}

	result, err := tx.ExecContext(ctx,
		"INSERT INTO drip_campaigns (name, description, trigger_event, is_active) VALUES (?, ?, ?, TRUE)",
		campaign.Name, campaign.Description, trigger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	campaignID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	for i, step := range steps {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO drip_steps (campaign_id, step_order, delay_minutes, message_template, is_active) VALUES (?, ?, ?, ?, TRUE)",
			campaignID, i+1, step.DelayMinutes, step.MessageTemplate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create campaign step: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit campaign: %w", err)
	}

	return r.GetByID(ctx, campaignID)
}

// Stats counts queue entries per terminal status for a campaign.
func (r *CampaignRepository) Stats(ctx context.Context, campaignID int64) (domain.CampaignStats, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'sent' THEN 1 ELSE 0 END), 0)    AS sent,
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)  AS failed
		FROM drip_queue
		WHERE campaign_id = ?
	`

	var stats struct {
		Sent    int64 `db:"sent"`
		Pending int64 `db:"pending"`
		Failed  int64 `db:"failed"`
	}

	if err := r.db.GetContext(ctx, &stats, query, campaignID); err != nil {
		return domain.CampaignStats{}, fmt.Errorf("failed to get campaign stats: %w", err)
	}

	return domain.CampaignStats{Sent: stats.Sent, Pending: stats.Pending, Failed: stats.Failed}, nil
}

func (r *CampaignRepository) stepsForCampaign(ctx context.Context, campaignID int64) ([]domain.DripStep, error) {
	query := `
		SELECT id, campaign_id, step_order, delay_minutes, message_template, is_active
		FROM drip_steps
		WHERE campaign_id = ?
		ORDER BY step_order ASC
	`

	var steps []domain.DripStep
	if err := r.db.SelectContext(ctx, &steps, query, campaignID); err != nil {
		return nil, fmt.Errorf("failed to get campaign steps: %w", err)
	}

	return steps, nil
}
