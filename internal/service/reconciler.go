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
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/phone"
)

type inboundFetcher interface {
	FetchIncoming(ctx context.Context, limit int) ([]gateway.InboundMessage, error)
}

type leadFinder interface {
	FindByWhatsApp(ctx context.Context, whatsapp string) (*domain.Lead, error)
	UpdateStatus(ctx context.Context, id int64, status domain.LeadStatus) error
}

type messageLogStore interface {
	Insert(ctx context.Context, log *domain.MessageLog) error
	ExistsByProviderMessageID(ctx context.Context, providerMessageID string) (bool, error)
}

type scheduledCanceller interface {
	CancelPendingForLead(ctx context.Context, leadID int64) (int64, error)
}

// SeenCache is the optional dedup fast path; callers pass nil to disable it.
type SeenCache interface {
	WasInboundSeen(ctx context.Context, providerMessageID string) (bool, error)
	MarkInboundSeen(ctx context.Context, providerMessageID string) error
}

// Reconciler polls the gateway for inbound messages, matches them to leads
// and updates automation state. The gateway delivers messages through an
// unreliable polling channel, so processing is at-least-once with dedup on
// the provider message id.
//
// Inbound replies cancel a lead's pending scheduled messages but leave its
// drip queue entries running. That asymmetry is deliberate: drip campaigns
// are designed to continue through a conversation.
type Reconciler struct {
	gateway    inboundFetcher
	leads      leadFinder
	log        messageLogStore
	scheduled  scheduledCanceller
	cache      SeenCache // optional fast path, may be nil
	normalizer *phone.Normalizer
	batchSize  int

	// highWater is the newest inbound timestamp already processed (unix
	// seconds). Process-local: it resets to a small lookback before "now"
	// on restart, which is why the message-log dedup check exists.
	highWater int64
}

func NewReconciler(
	gw inboundFetcher,
	leads leadFinder,
	log messageLogStore,
	scheduled scheduledCanceller,
	cache SeenCache,
	normalizer *phone.Normalizer,
	batchSize int,
	lookback time.Duration,
) *Reconciler {
	return &Reconciler{
		gateway:    gw,
		leads:      leads,
		log:        log,
		scheduled:  scheduled,
		cache:      cache,
		normalizer: normalizer,
		batchSize:  batchSize,
		highWater:  time.Now().Add(-lookback).Unix(),
	}
}

// PollIncoming fetches recent inbound messages and processes the new ones.
// A gateway error aborts the tick; per-message repository failures only skip
// that message.
func (r *Reconciler) PollIncoming(ctx context.Context, now time.Time) error {
	messages, err := r.gateway.FetchIncoming(ctx, r.batchSize)
	if err != nil {
		return fmt.Errorf("failed to poll inbound messages: %w", err)
	}

	maxSeen := r.highWater

	for i := range messages {
		msg := &messages[i]

		if msg.Timestamp <= r.highWater {
			continue
		}
		if msg.IsGroup || msg.FromMe {
			continue
		}

		if r.process(ctx, msg) && msg.Timestamp > maxSeen {
			maxSeen = msg.Timestamp
		}
	}

	if maxSeen > r.highWater {
		r.highWater = maxSeen
	}

	return nil
}

// process handles one inbound message; it reports whether the message was
// consumed (processed or deduplicated) so the high-water-mark can advance.
func (r *Reconciler) process(ctx context.Context, msg *gateway.InboundMessage) bool {
	seen, err := r.alreadySeen(ctx, msg.ProviderMessageID)
	if err != nil {
		logger.Errorf("Failed dedup check for inbound %s: %v", msg.ProviderMessageID, err)
		return false
	}
	if seen {
		return true
	}

	number := r.normalizer.FromJID(msg.RemoteJID)
	lead := r.findLead(ctx, number)

	metadata, _ := json.Marshal(map[string]any{
		"remoteJid": msg.RemoteJID,
		"messageId": msg.ProviderMessageID,
		"pushName":  msg.PushName,
		"timestamp": msg.Timestamp,
	})

	// Unmatched messages are logged with a null lead for later triage.
	entry := &domain.MessageLog{
		WhatsApp:  number,
		Direction: domain.DirectionReceived,
		Content:   msg.Content,
		Metadata:  metadata,
	}
	if lead != nil {
		entry.LeadID = &lead.ID
	}

	if err := r.log.Insert(ctx, entry); err != nil {
		logger.Errorf("Failed to log inbound message %s: %v", msg.ProviderMessageID, err)
		return false
	}

	if r.cache != nil && msg.ProviderMessageID != "" {
		if err := r.cache.MarkInboundSeen(ctx, msg.ProviderMessageID); err != nil {
			logger.Warnf("Failed to cache inbound message id %s: %v", msg.ProviderMessageID, err)
		}
	}

	metrics.InboundReceived.Inc()

	if lead != nil && lead.InActiveAutomation() {
		if err := r.leads.UpdateStatus(ctx, lead.ID, domain.LeadStatusReplied); err != nil {
			logger.Errorf("Failed to promote lead %d to replied: %v", lead.ID, err)
			return true
		}

		if _, err := r.scheduled.CancelPendingForLead(ctx, lead.ID); err != nil {
			logger.Errorf("Failed to cancel pending messages for lead %d: %v", lead.ID, err)
		}

		logger.Infof("Lead %q replied; follow-up automation paused", lead.Name)
	}

	return true
}

func (r *Reconciler) alreadySeen(ctx context.Context, providerMessageID string) (bool, error) {
	if providerMessageID == "" {
		return false, nil
	}

	if r.cache != nil {
		seen, err := r.cache.WasInboundSeen(ctx, providerMessageID)
		if err == nil && seen {
			return true, nil
		}
		if err != nil {
			logger.Warnf("Inbound dedup cache unavailable: %v", err)
		}
	}

	// The message log is the restart-safe source of truth.
	return r.log.ExistsByProviderMessageID(ctx, providerMessageID)
}

func (r *Reconciler) findLead(ctx context.Context, number string) *domain.Lead {
	for _, variant := range r.normalizer.Variants(number) {
		lead, err := r.leads.FindByWhatsApp(ctx, variant)
		if err != nil {
			logger.Errorf("Failed lead lookup for %s: %v", variant, err)
			return nil
		}
		if lead != nil {
			return lead
		}
	}
	return nil
}
