package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/domain"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/metrics"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/gateway"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/logger"
)

// Small internal interfaces so the processors can be tested with fakes
// instead of a real database and gateway.

type scheduledMessageRepository interface {
	GetDue(ctx context.Context, now time.Time, limit int) ([]domain.DueScheduledMessage, error)
	MarkSent(ctx context.Context, id int64, sentAt time.Time) error
	MarkCancelled(ctx context.Context, id int64) error
	RecordFailure(ctx context.Context, id int64, attempts int, lastError string, terminal bool, nextDueAt time.Time) error
	CancelPendingForLead(ctx context.Context, leadID int64) (int64, error)
	ResetFailed(ctx context.Context, maxRetries int) (int64, error)
}

type templateReader interface {
	GetActive(ctx context.Context) (map[string]string, error)
}

type leadStatusUpdater interface {
	UpdateStatus(ctx context.Context, id int64, status domain.LeadStatus) error
}

type messageLogAppender interface {
	Insert(ctx context.Context, log *domain.MessageLog) error
}

type textSender interface {
	SendText(ctx context.Context, number, text string) gateway.SendResult
}

// Built-in fallback bodies for the standard follow-up kinds, used when no
// template row exists in the database.
var defaultTemplates = map[string]string{
	"dia_3":  "Ola {{nome}}, voce tem alguma duvida sobre os brinquedos, ou tem interesse em fazer a reserva?",
	"dia_7":  "Ola {{nome}}, como vai? Voce ja fez a locacao dos brinquedos, ou tem interesse em fazer a locacao?",
	"mes_10": "Ola {{nome}}, sou o Fernando da Diversao Brinquedos, como vai?\nHa um tempo atras voce fez a cotacao de brinquedos com nossa empresa.\nGostaria de saber se tem interesse em receber o catalogo atualizado para uma nova locacao?",
}

// ScheduledService processes one-off scheduled messages that came due.
type ScheduledService struct {
	messages   scheduledMessageRepository
	templates  templateReader
	leads      leadStatusUpdater
	log        messageLogAppender
	sender     textSender
	batchSize  int
	maxRetries int
	retry      RetryPolicy
}

func NewScheduledService(
	messages scheduledMessageRepository,
	templates templateReader,
	leads leadStatusUpdater,
	log messageLogAppender,
	sender textSender,
	batchSize, maxRetries int,
) *ScheduledService {
	return &ScheduledService{
		messages:   messages,
		templates:  templates,
		leads:      leads,
		log:        log,
		sender:     sender,
		batchSize:  batchSize,
		maxRetries: maxRetries,
		retry:      ImmediateRetryPolicy{},
	}
}

// ProcessDue evaluates pending scheduled messages whose due time has passed.
// Individual delivery failures never abort the batch; only repository errors
// do.
func (s *ScheduledService) ProcessDue(ctx context.Context, now time.Time) (domain.ProcessResult, error) {
	var result domain.ProcessResult

	due, err := s.messages.GetDue(ctx, now, s.batchSize)
	if err != nil {
		return result, fmt.Errorf("failed to fetch due scheduled messages: %w", err)
	}
	if len(due) == 0 {
		return result, nil
	}

	logger.Infof("Processing %d due scheduled messages", len(due))

	templates, err := s.templates.GetActive(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load templates: %w", err)
	}

	for i := range due {
		msg := &due[i]

		// A lead that converted, was lost, or already replied is no longer
		// eligible; the message is cancelled without a gateway call.
		switch msg.LeadStatus {
		case domain.LeadStatusLost, domain.LeadStatusConverted, domain.LeadStatusReplied:
			if err := s.messages.MarkCancelled(ctx, msg.ID); err != nil {
				logger.Errorf("Failed to cancel scheduled message %d: %v", msg.ID, err)
			}
			continue
		}

		body, ok := s.resolveBody(msg, templates)
		if !ok {
			// Configuration gap, not a delivery failure: leave the row
			// untouched so it sends once the template exists.
			logger.Warnf("No template for kind %q, skipping scheduled message %d", msg.Kind, msg.ID)
			continue
		}

		if s.deliver(ctx, msg, body, now) {
			result.Sent++
		} else {
			result.Failed++
		}
	}

	logger.Infof("Scheduled messages processed: %d sent, %d failed", result.Sent, result.Failed)

	return result, nil
}

func (s *ScheduledService) resolveBody(msg *domain.DueScheduledMessage, templates map[string]string) (string, bool) {
	if msg.CustomBody != nil && *msg.CustomBody != "" {
		return resolveForDue(msg, *msg.CustomBody), true
	}
	if tpl, ok := templates[msg.Kind]; ok {
		return resolveForDue(msg, tpl), true
	}
	if tpl, ok := defaultTemplates[msg.Kind]; ok {
		return resolveForDue(msg, tpl), true
	}
	return "", false
}

func resolveForDue(msg *domain.DueScheduledMessage, template string) string {
	lead := domain.Lead{
		ID:       msg.LeadID,
		Name:     msg.LeadName,
		WhatsApp: msg.LeadWhatsApp,
		Status:   msg.LeadStatus,
	}
	return ResolveTemplate(template, &lead)
}

func (s *ScheduledService) deliver(
	ctx context.Context,
	msg *domain.DueScheduledMessage,
	body string,
	now time.Time,
) bool {
	sendResult := s.sender.SendText(ctx, msg.LeadWhatsApp, body)

	if !sendResult.Success {
		attempts := msg.Attempts + 1
		terminal := attempts >= s.maxRetries
		// Non-terminal failures stay pending; the immediate retry policy
		// adds no delay, the next tick just picks them up again.
		nextDueAt := s.retry.NextAttempt(now)
		if err := s.messages.RecordFailure(ctx, msg.ID, attempts, sendResult.Err, terminal, nextDueAt); err != nil {
			logger.Errorf("Failed to record failure for scheduled message %d: %v", msg.ID, err)
		}

		metrics.MessagesFailed.WithLabelValues("scheduled").Inc()
		logger.Warnf("Scheduled message %d failed (%d/%d): %s", msg.ID, attempts, s.maxRetries, sendResult.Err)
		return false
	}

	if err := s.messages.MarkSent(ctx, msg.ID, now); err != nil {
		logger.Errorf("Failed to mark scheduled message %d as sent: %v", msg.ID, err)
		return false
	}

	metadata, _ := json.Marshal(map[string]any{
		"scheduledMessageId": msg.ID,
		"kind":               msg.Kind,
		"messageId":          sendResult.MessageID,
	})

	leadID := msg.LeadID
	if err := s.log.Insert(ctx, &domain.MessageLog{
		LeadID:    &leadID,
		WhatsApp:  msg.LeadWhatsApp,
		Direction: domain.DirectionSent,
		Content:   body,
		Metadata:  metadata,
	}); err != nil {
		logger.Errorf("Failed to append message log for scheduled message %d: %v", msg.ID, err)
	}

	// First outbound contact promotes a fresh lead.
	if msg.LeadStatus == domain.LeadStatusNew {
		if err := s.leads.UpdateStatus(ctx, msg.LeadID, domain.LeadStatusContacted); err != nil {
			logger.Errorf("Failed to promote lead %d to contacted: %v", msg.LeadID, err)
		}
	}

	metrics.MessagesSent.WithLabelValues("scheduled").Inc()

	return true
}

// CancelPending cancels every pending scheduled message of a lead.
func (s *ScheduledService) CancelPending(ctx context.Context, leadID int64) error {
	cancelled, err := s.messages.CancelPendingForLead(ctx, leadID)
	if err != nil {
		return err
	}
	if cancelled > 0 {
		logger.Infof("Cancelled %d pending scheduled messages for lead %d", cancelled, leadID)
	}
	return nil
}

// RetrySweep resurrects failed messages still below the retry ceiling. Runs
// daily.
func (s *ScheduledService) RetrySweep(ctx context.Context) (int64, error) {
	reset, err := s.messages.ResetFailed(ctx, s.maxRetries)
	if err != nil {
		return 0, err
	}
	if reset > 0 {
		logger.Infof("Retry sweep reset %d failed messages to pending", reset)
	}
	return reset, nil
}
