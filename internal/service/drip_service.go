package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/domain"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/metrics"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/logger"
)

// ErrNoActiveSteps is returned when a campaign cannot be enqueued because it
// has no active steps. This is the one engine error surfaced synchronously
// to an interactive caller.
var ErrNoActiveSteps = errors.New("campaign has no active steps")

type dripQueueRepository interface {
	GetDue(ctx context.Context, now time.Time, limit int) ([]domain.DueDripEntry, error)
	MarkSent(ctx context.Context, id int64, sentAt time.Time, messageID string, attempts int) error
	MarkCancelled(ctx context.Context, id int64) error
	RecordFailure(ctx context.Context, id int64, attempts int, errorMessage string, terminal bool, rescheduleAt time.Time) error
	BulkInsert(ctx context.Context, entries []domain.DripQueueEntry) error
	CancelPendingForLead(ctx context.Context, leadID int64) (int64, error)
}

type campaignStepsReader interface {
	GetActiveSteps(ctx context.Context, campaignID int64) ([]domain.DripStep, error)
}

// DripService processes the drip campaign queue and expands campaigns into
// future-dated queue entries.
type DripService struct {
	queue       dripQueueRepository
	campaigns   campaignStepsReader
	log         messageLogAppender
	sender      textSender
	batchSize   int
	maxAttempts int
	backoff     RetryPolicy
	// sendDelay spaces sequential sends inside one tick. The gateway's
	// anti-abuse throttling requires it; tests set it to zero.
	sendDelay time.Duration

	now func() time.Time
}

func NewDripService(
	queue dripQueueRepository,
	campaigns campaignStepsReader,
	log messageLogAppender,
	sender textSender,
	batchSize, maxAttempts int,
	backoffWindow, sendDelay time.Duration,
) *DripService {
	return &DripService{
		queue:       queue,
		campaigns:   campaigns,
		log:         log,
		sender:      sender,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		backoff:     FixedWindowBackoffPolicy{Window: backoffWindow},
		sendDelay:   sendDelay,
		now:         time.Now,
	}
}

// ProcessQueue evaluates due drip queue entries, oldest first. Unlike the
// scheduled-message processor, leads that replied still receive drip steps;
// only converted and lost leads stop a sequence.
func (s *DripService) ProcessQueue(ctx context.Context, now time.Time) (domain.ProcessResult, error) {
	var result domain.ProcessResult

	due, err := s.queue.GetDue(ctx, now, s.batchSize)
	if err != nil {
		return result, fmt.Errorf("failed to fetch due drip entries: %w", err)
	}
	if len(due) == 0 {
		return result, nil
	}

	logger.Infof("Processing %d due drip queue entries", len(due))

	for i := range due {
		entry := &due[i]

		if entry.LeadStatus == domain.LeadStatusConverted || entry.LeadStatus == domain.LeadStatusLost {
			if err := s.queue.MarkCancelled(ctx, entry.ID); err != nil {
				logger.Errorf("Failed to cancel drip entry %d: %v", entry.ID, err)
			}
			continue
		}

		if s.deliver(ctx, entry, now) {
			result.Sent++
		} else {
			result.Failed++
		}

		if s.sendDelay > 0 && i < len(due)-1 {
			time.Sleep(s.sendDelay)
		}
	}

	if result.Sent > 0 || result.Failed > 0 {
		logger.Infof("Drip queue processed: %d sent, %d failed", result.Sent, result.Failed)
	}

	return result, nil
}

func (s *DripService) deliver(ctx context.Context, entry *domain.DueDripEntry, now time.Time) bool {
	lead := domain.Lead{
		ID:       entry.LeadID,
		Name:     entry.LeadName,
		WhatsApp: entry.LeadWhatsApp,
		Source:   entry.LeadSource,
		Status:   entry.LeadStatus,
	}
	body := ResolveTemplate(entry.StepTemplate, &lead)

	sendResult := s.sender.SendText(ctx, lead.WhatsApp, body)
	attempts := entry.Attempts + 1

	if !sendResult.Success {
		terminal := attempts >= entry.MaxAttempts
		rescheduleAt := s.backoff.NextAttempt(now)
		if err := s.queue.RecordFailure(ctx, entry.ID, attempts, sendResult.Err, terminal, rescheduleAt); err != nil {
			logger.Errorf("Failed to record failure for drip entry %d: %v", entry.ID, err)
		}

		metrics.MessagesFailed.WithLabelValues("drip").Inc()
		logger.Warnf("Drip entry %d failed (%d/%d): %s", entry.ID, attempts, entry.MaxAttempts, sendResult.Err)
		return false
	}

	if err := s.queue.MarkSent(ctx, entry.ID, now, sendResult.MessageID, attempts); err != nil {
		logger.Errorf("Failed to mark drip entry %d as sent: %v", entry.ID, err)
		return false
	}

	metadata, _ := json.Marshal(map[string]any{
		"dripStepId": entry.StepID,
		"campaignId": entry.CampaignID,
		"stepOrder":  entry.StepOrder,
		"messageId":  sendResult.MessageID,
	})

	leadID := entry.LeadID
	if err := s.log.Insert(ctx, &domain.MessageLog{
		LeadID:    &leadID,
		WhatsApp:  lead.WhatsApp,
		Direction: domain.DirectionSent,
		Content:   body,
		Metadata:  metadata,
	}); err != nil {
		logger.Errorf("Failed to append message log for drip entry %d: %v", entry.ID, err)
	}

	metrics.MessagesSent.WithLabelValues("drip").Inc()
	logger.Infof("Drip step %d sent to lead %d (%s)", entry.StepOrder, entry.LeadID, lead.WhatsApp)

	return true
}

// EnqueueCampaign expands a campaign's active steps into queue entries for a
// lead. Each step's delay accumulates on the previous step's scheduled time,
// not on enqueue time. The insert is all-or-nothing. Calling this twice for
// the same lead and campaign produces duplicate entries; callers must ensure
// at-most-once invocation.
func (s *DripService) EnqueueCampaign(ctx context.Context, leadID, campaignID int64) (int, error) {
	steps, err := s.campaigns.GetActiveSteps(ctx, campaignID)
	if err != nil {
		return 0, fmt.Errorf("failed to load campaign steps: %w", err)
	}
	if len(steps) == 0 {
		return 0, ErrNoActiveSteps
	}

	scheduledAt := s.now()
	entries := make([]domain.DripQueueEntry, 0, len(steps))
	for _, step := range steps {
		scheduledAt = scheduledAt.Add(time.Duration(step.DelayMinutes) * time.Minute)
		entries = append(entries, domain.DripQueueEntry{
			LeadID:      leadID,
			StepID:      step.ID,
			CampaignID:  campaignID,
			ScheduledAt: scheduledAt,
			MaxAttempts: s.maxAttempts,
		})
	}

	if err := s.queue.BulkInsert(ctx, entries); err != nil {
		return 0, fmt.Errorf("failed to enqueue campaign: %w", err)
	}

	metrics.CampaignsEnqueued.Add(float64(len(entries)))
	logger.Infof("Enqueued %d drip steps for lead %d (campaign %d)", len(entries), leadID, campaignID)

	return len(entries), nil
}

// CancelPending cancels every pending drip entry of a lead.
func (s *DripService) CancelPending(ctx context.Context, leadID int64) error {
	cancelled, err := s.queue.CancelPendingForLead(ctx, leadID)
	if err != nil {
		return err
	}
	if cancelled > 0 {
		logger.Infof("Cancelled %d pending drip entries for lead %d", cancelled, leadID)
	}
	return nil
}
