package service

import (
	"context"
	"fmt"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/domain"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/repository"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/logger"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/phone"
)

type leadRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Lead, error)
	Create(ctx context.Context, lead *domain.Lead) (*domain.Lead, error)
	UpdateStatus(ctx context.Context, id int64, status domain.LeadStatus) error
	List(ctx context.Context, filter repository.ListFilter, page, pageSize int) ([]domain.Lead, int64, error)
}

type campaignTriggerReader interface {
	ActiveByTrigger(ctx context.Context, event string) ([]domain.DripCampaign, error)
}

type campaignEnqueuer interface {
	EnqueueCampaign(ctx context.Context, leadID, campaignID int64) (int, error)
}

type messageLogLister interface {
	List(ctx context.Context, leadID *int64, direction *domain.MessageDirection, page, pageSize int) ([]domain.MessageLog, int64, error)
}

// LeadService owns lead intake and lifecycle. Creating a lead is the
// at-most-once call site that fans the lead out into every active
// lead_created drip campaign.
type LeadService struct {
	leads      leadRepository
	campaigns  campaignTriggerReader
	drip       campaignEnqueuer
	log        messageLogLister
	normalizer *phone.Normalizer
}

func NewLeadService(
	leads leadRepository,
	campaigns campaignTriggerReader,
	drip campaignEnqueuer,
	log messageLogLister,
	normalizer *phone.Normalizer,
) *LeadService {
	return &LeadService{
		leads:      leads,
		campaigns:  campaigns,
		drip:       drip,
		log:        log,
		normalizer: normalizer,
	}
}

// Create stores a lead with its phone number normalized to the canonical
// digit-only form, then enqueues every active lead_created campaign for it.
// Enqueue failures are logged but never fail the creation; the lead row is
// already committed.
func (s *LeadService) Create(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	lead.WhatsApp = s.normalizer.Normalize(lead.WhatsApp)

	created, err := s.leads.Create(ctx, lead)
	if err != nil {
		return nil, err
	}

	campaigns, err := s.campaigns.ActiveByTrigger(ctx, domain.TriggerLeadCreated)
	if err != nil {
		logger.Errorf("Failed to load lead_created campaigns for lead %d: %v", created.ID, err)
		return created, nil
	}

	for _, campaign := range campaigns {
		if _, err := s.drip.EnqueueCampaign(ctx, created.ID, campaign.ID); err != nil {
			logger.Errorf("Failed to enqueue campaign %d for lead %d: %v", campaign.ID, created.ID, err)
		}
	}

	return created, nil
}

func (s *LeadService) GetByID(ctx context.Context, id int64) (*domain.Lead, error) {
	return s.leads.GetByID(ctx, id)
}

// LeadWithMessages pairs a lead with its recent message history.
type LeadWithMessages struct {
	Lead     *domain.Lead        `json:"lead"`
	Messages []domain.MessageLog `json:"messages"`
}

func (s *LeadService) GetWithMessages(ctx context.Context, id int64) (*LeadWithMessages, error) {
	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, nil
	}

	messages, _, err := s.log.List(ctx, &id, nil, 1, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to load lead messages: %w", err)
	}

	return &LeadWithMessages{Lead: lead, Messages: messages}, nil
}

func (s *LeadService) List(
	ctx context.Context,
	filter repository.ListFilter,
	page, pageSize int,
) ([]domain.Lead, int64, error) {
	return s.leads.List(ctx, filter, page, pageSize)
}

func (s *LeadService) UpdateStatus(ctx context.Context, id int64, status domain.LeadStatus) error {
	return s.leads.UpdateStatus(ctx, id, status)
}
