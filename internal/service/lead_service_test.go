package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/domain"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/repository"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/phone"
)

type fakeLeadRepo struct {
	created *domain.Lead
	leads   map[int64]*domain.Lead
	updates []statusUpdate
	listErr error
}

func (f *fakeLeadRepo) GetByID(ctx context.Context, id int64) (*domain.Lead, error) {
	return f.leads[id], nil
}

func (f *fakeLeadRepo) Create(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	created := *lead
	created.ID = 10
	f.created = &created
	return &created, nil
}

func (f *fakeLeadRepo) UpdateStatus(ctx context.Context, id int64, status domain.LeadStatus) error {
	f.updates = append(f.updates, statusUpdate{id: id, status: status})
	return nil
}

func (f *fakeLeadRepo) List(ctx context.Context, filter repository.ListFilter, page, pageSize int) ([]domain.Lead, int64, error) {
	return nil, 0, f.listErr
}

type fakeCampaignTriggers struct {
	campaigns []domain.DripCampaign
	err       error
}

func (f *fakeCampaignTriggers) ActiveByTrigger(ctx context.Context, event string) ([]domain.DripCampaign, error) {
	if event != domain.TriggerLeadCreated {
		return nil, nil
	}
	return f.campaigns, f.err
}

type fakeEnqueuer struct {
	enqueued []int64
	failFor  int64
}

func (f *fakeEnqueuer) EnqueueCampaign(ctx context.Context, leadID, campaignID int64) (int, error) {
	if campaignID == f.failFor {
		return 0, errors.New("no active steps")
	}
	f.enqueued = append(f.enqueued, campaignID)
	return 2, nil
}

type fakeLogLister struct {
	messages []domain.MessageLog
	calls    int
}

func (f *fakeLogLister) List(ctx context.Context, leadID *int64, direction *domain.MessageDirection, page, pageSize int) ([]domain.MessageLog, int64, error) {
	f.calls++
	return f.messages, int64(len(f.messages)), nil
}

func newLeadServiceForTest(
	repo *fakeLeadRepo,
	campaigns *fakeCampaignTriggers,
	enqueuer *fakeEnqueuer,
	log *fakeLogLister,
) *LeadService {
	return NewLeadService(repo, campaigns, enqueuer, log, phone.NewNormalizer("55", "9"))
}

func TestLeadCreate_NormalizesPhoneAndEnqueuesCampaigns(t *testing.T) {
	repo := &fakeLeadRepo{}
	campaigns := &fakeCampaignTriggers{campaigns: []domain.DripCampaign{
		{ID: 1, Name: "Boas-vindas"},
		{ID: 2, Name: "Follow-up"},
	}}
	enqueuer := &fakeEnqueuer{}

	svc := newLeadServiceForTest(repo, campaigns, enqueuer, &fakeLogLister{})

	created, err := svc.Create(context.Background(), &domain.Lead{
		Name:     "Ana Silva",
		WhatsApp: "(41) 99871-2446",
		Source:   "site",
		Status:   domain.LeadStatusNew,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if created.ID != 10 {
		t.Errorf("expected assigned id 10, got %d", created.ID)
	}
	if repo.created.WhatsApp != "5541998712446" {
		t.Errorf("expected normalized whatsapp, got %q", repo.created.WhatsApp)
	}
	if len(enqueuer.enqueued) != 2 || enqueuer.enqueued[0] != 1 || enqueuer.enqueued[1] != 2 {
		t.Errorf("expected both campaigns enqueued, got %v", enqueuer.enqueued)
	}
}

func TestLeadCreate_EnqueueFailureDoesNotFailCreation(t *testing.T) {
	repo := &fakeLeadRepo{}
	campaigns := &fakeCampaignTriggers{campaigns: []domain.DripCampaign{
		{ID: 1}, {ID: 2},
	}}
	enqueuer := &fakeEnqueuer{failFor: 1}

	svc := newLeadServiceForTest(repo, campaigns, enqueuer, &fakeLogLister{})

	created, err := svc.Create(context.Background(), &domain.Lead{
		Name:     "Bruno Costa",
		WhatsApp: "41987654321",
	})
	if err != nil {
		t.Fatalf("Create must not fail when an enqueue fails, got %v", err)
	}
	if created == nil {
		t.Fatalf("expected created lead")
	}
	if len(enqueuer.enqueued) != 1 || enqueuer.enqueued[0] != 2 {
		t.Errorf("expected remaining campaign still enqueued, got %v", enqueuer.enqueued)
	}
}

func TestLeadCreate_CampaignLookupFailureDoesNotFailCreation(t *testing.T) {
	repo := &fakeLeadRepo{}
	campaigns := &fakeCampaignTriggers{err: errors.New("db down")}
	enqueuer := &fakeEnqueuer{}

	svc := newLeadServiceForTest(repo, campaigns, enqueuer, &fakeLogLister{})

	created, err := svc.Create(context.Background(), &domain.Lead{Name: "Carla", WhatsApp: "41999990000"})
	if err != nil {
		t.Fatalf("Create must not fail when campaign lookup fails, got %v", err)
	}
	if created == nil {
		t.Fatalf("expected created lead")
	}
	if len(enqueuer.enqueued) != 0 {
		t.Errorf("expected nothing enqueued, got %v", enqueuer.enqueued)
	}
}

func TestLeadGetWithMessages(t *testing.T) {
	repo := &fakeLeadRepo{leads: map[int64]*domain.Lead{
		10: {ID: 10, Name: "Ana Silva", Status: domain.LeadStatusContacted},
	}}
	log := &fakeLogLister{messages: []domain.MessageLog{
		{ID: 1, Content: "Ola Ana!", Direction: domain.DirectionSent},
		{ID: 2, Content: "Oi!", Direction: domain.DirectionReceived},
	}}

	svc := newLeadServiceForTest(repo, &fakeCampaignTriggers{}, &fakeEnqueuer{}, log)

	got, err := svc.GetWithMessages(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetWithMessages returned error: %v", err)
	}

	if got.Lead.ID != 10 {
		t.Errorf("unexpected lead %+v", got.Lead)
	}
	if len(got.Messages) != 2 {
		t.Errorf("expected 2 messages, got %d", len(got.Messages))
	}
}

func TestLeadGetWithMessages_MissingLead(t *testing.T) {
	repo := &fakeLeadRepo{leads: map[int64]*domain.Lead{}}
	log := &fakeLogLister{}

	svc := newLeadServiceForTest(repo, &fakeCampaignTriggers{}, &fakeEnqueuer{}, log)

	got, err := svc.GetWithMessages(context.Background(), 99)
	if err != nil {
		t.Fatalf("expected nil error for missing lead, got %v", err)
	}
	if got != nil {
		t.Errorf("expected nil result for missing lead, got %+v", got)
	}
	if log.calls != 0 {
		t.Errorf("expected no message lookup for missing lead")
	}
}
