package service

import (
	"context"
	"testing"
	"time"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/domain"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/gateway"
)

//
// Test fakes – shared by the processor tests in this package.
//

type recordedFailure struct {
	id        int64
	attempts  int
	lastError string
	terminal  bool
	nextDueAt time.Time
}

type fakeScheduledRepo struct {
	due []domain.DueScheduledMessage

	markSentIDs   []int64
	cancelledIDs  []int64
	failures      []recordedFailure
	cancelledLead []int64
	resetResult   int64
}

func (r *fakeScheduledRepo) GetDue(ctx context.Context, now time.Time, limit int) ([]domain.DueScheduledMessage, error) {
	if len(r.due) > limit {
		return r.due[:limit], nil
	}
	return r.due, nil
}

func (r *fakeScheduledRepo) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	r.markSentIDs = append(r.markSentIDs, id)
	return nil
}

func (r *fakeScheduledRepo) MarkCancelled(ctx context.Context, id int64) error {
	r.cancelledIDs = append(r.cancelledIDs, id)
	return nil
}

func (r *fakeScheduledRepo) RecordFailure(ctx context.Context, id int64, attempts int, lastError string, terminal bool, nextDueAt time.Time) error {
	r.failures = append(r.failures, recordedFailure{id, attempts, lastError, terminal, nextDueAt})
	return nil
}

func (r *fakeScheduledRepo) CancelPendingForLead(ctx context.Context, leadID int64) (int64, error) {
	r.cancelledLead = append(r.cancelledLead, leadID)
	return 1, nil
}

func (r *fakeScheduledRepo) ResetFailed(ctx context.Context, maxRetries int) (int64, error) {
	return r.resetResult, nil
}

type fakeTemplates struct {
	templates map[string]string
}

func (f *fakeTemplates) GetActive(ctx context.Context) (map[string]string, error) {
	if f.templates == nil {
		return map[string]string{}, nil
	}
	return f.templates, nil
}

type statusUpdate struct {
	id     int64
	status domain.LeadStatus
}

type fakeLeadUpdater struct {
	updates []statusUpdate
}

func (f *fakeLeadUpdater) UpdateStatus(ctx context.Context, id int64, status domain.LeadStatus) error {
	f.updates = append(f.updates, statusUpdate{id, status})
	return nil
}

type fakeLogAppender struct {
	entries []domain.MessageLog
}

func (f *fakeLogAppender) Insert(ctx context.Context, log *domain.MessageLog) error {
	f.entries = append(f.entries, *log)
	return nil
}

type sentText struct {
	number string
	text   string
}

type fakeSender struct {
	shouldFail bool
	errText    string
	messageID  string
	calls      []sentText
}

func (f *fakeSender) SendText(ctx context.Context, number, text string) gateway.SendResult {
	f.calls = append(f.calls, sentText{number, text})

	if f.shouldFail {
		errText := f.errText
		if errText == "" {
			errText = "simulated gateway error"
		}
		return gateway.SendResult{Success: false, Err: errText}
	}

	messageID := f.messageID
	if messageID == "" {
		messageID = "wamid-test"
	}
	return gateway.SendResult{Success: true, MessageID: messageID, RemoteJID: number + "@s.whatsapp.net"}
}

func dueMessage(id, leadID int64, kind string, status domain.LeadStatus) domain.DueScheduledMessage {
	return domain.DueScheduledMessage{
		ScheduledMessage: domain.ScheduledMessage{
			ID:     id,
			LeadID: leadID,
			Kind:   kind,
			Status: domain.StatusPending,
		},
		LeadName:     "Ana Silva",
		LeadWhatsApp: "5541998712446",
		LeadStatus:   status,
	}
}

//
// Tests
//

func TestProcessDue_SuccessPromotesNewLead(t *testing.T) {
	ctx := context.Background()

	repo := &fakeScheduledRepo{
		due: []domain.DueScheduledMessage{dueMessage(1, 10, "dia_3", domain.LeadStatusNew)},
	}
	templates := &fakeTemplates{templates: map[string]string{"dia_3": "Ola {{primeiro_nome}}!"}}
	leads := &fakeLeadUpdater{}
	log := &fakeLogAppender{}
	sender := &fakeSender{messageID: "msg-1"}

	svc := NewScheduledService(repo, templates, leads, log, sender, 50, 3)

	result, err := svc.ProcessDue(ctx, time.Now())
	if err != nil {
		t.Fatalf("ProcessDue returned error: %v", err)
	}

	if result.Sent != 1 || result.Failed != 0 {
		t.Fatalf("expected 1 sent / 0 failed, got %d / %d", result.Sent, result.Failed)
	}

	if len(sender.calls) != 1 {
		t.Fatalf("expected 1 gateway call, got %d", len(sender.calls))
	}
	if sender.calls[0].text != "Ola Ana!" {
		t.Errorf("expected resolved body %q, got %q", "Ola Ana!", sender.calls[0].text)
	}
	if sender.calls[0].number != "5541998712446" {
		t.Errorf("expected send to lead number, got %q", sender.calls[0].number)
	}

	if len(repo.markSentIDs) != 1 || repo.markSentIDs[0] != 1 {
		t.Fatalf("expected MarkSent for id 1, got %v", repo.markSentIDs)
	}

	if len(log.entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(log.entries))
	}
	if log.entries[0].Direction != domain.DirectionSent {
		t.Errorf("expected sent direction, got %q", log.entries[0].Direction)
	}

	if len(leads.updates) != 1 || leads.updates[0].status != domain.LeadStatusContacted {
		t.Fatalf("expected lead promoted to contacted, got %v", leads.updates)
	}
}

func TestProcessDue_ContactedLeadNotPromoted(t *testing.T) {
	repo := &fakeScheduledRepo{
		due: []domain.DueScheduledMessage{dueMessage(1, 10, "dia_7", domain.LeadStatusContacted)},
	}
	leads := &fakeLeadUpdater{}
	svc := NewScheduledService(repo, &fakeTemplates{}, leads, &fakeLogAppender{}, &fakeSender{}, 50, 3)

	if _, err := svc.ProcessDue(context.Background(), time.Now()); err != nil {
		t.Fatalf("ProcessDue returned error: %v", err)
	}

	if len(leads.updates) != 0 {
		t.Fatalf("expected no status updates for contacted lead, got %v", leads.updates)
	}
}

func TestProcessDue_IneligibleLeadCancelsWithoutSend(t *testing.T) {
	for _, status := range []domain.LeadStatus{
		domain.LeadStatusLost,
		domain.LeadStatusConverted,
		domain.LeadStatusReplied,
	} {
		t.Run(string(status), func(t *testing.T) {
			repo := &fakeScheduledRepo{
				due: []domain.DueScheduledMessage{dueMessage(7, 10, "dia_3", status)},
			}
			sender := &fakeSender{}
			svc := NewScheduledService(repo, &fakeTemplates{}, &fakeLeadUpdater{}, &fakeLogAppender{}, sender, 50, 3)

			result, err := svc.ProcessDue(context.Background(), time.Now())
			if err != nil {
				t.Fatalf("ProcessDue returned error: %v", err)
			}

			if len(sender.calls) != 0 {
				t.Fatalf("expected no gateway calls, got %d", len(sender.calls))
			}
			if len(repo.cancelledIDs) != 1 || repo.cancelledIDs[0] != 7 {
				t.Fatalf("expected message 7 cancelled, got %v", repo.cancelledIDs)
			}
			if result.Sent != 0 || result.Failed != 0 {
				t.Fatalf("cancellation must not count as sent or failed, got %+v", result)
			}
		})
	}
}

func TestProcessDue_MissingTemplateSkipsUntouched(t *testing.T) {
	repo := &fakeScheduledRepo{
		due: []domain.DueScheduledMessage{dueMessage(3, 10, "kind_sem_template", domain.LeadStatusContacted)},
	}
	sender := &fakeSender{}
	svc := NewScheduledService(repo, &fakeTemplates{}, &fakeLeadUpdater{}, &fakeLogAppender{}, sender, 50, 3)

	result, err := svc.ProcessDue(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ProcessDue returned error: %v", err)
	}

	if len(sender.calls) != 0 {
		t.Fatalf("expected no gateway calls for missing template, got %d", len(sender.calls))
	}
	if len(repo.failures) != 0 || len(repo.cancelledIDs) != 0 || len(repo.markSentIDs) != 0 {
		t.Fatalf("expected row left untouched, got %+v", repo)
	}
	if result.Sent != 0 || result.Failed != 0 {
		t.Fatalf("configuration gap must not count as failure, got %+v", result)
	}
}

func TestProcessDue_CustomBodyWinsOverTemplate(t *testing.T) {
	msg := dueMessage(4, 10, "dia_3", domain.LeadStatusContacted)
	custom := "Mensagem especial para {{nome}}"
	msg.CustomBody = &custom

	repo := &fakeScheduledRepo{due: []domain.DueScheduledMessage{msg}}
	templates := &fakeTemplates{templates: map[string]string{"dia_3": "corpo do template"}}
	sender := &fakeSender{}
	svc := NewScheduledService(repo, templates, &fakeLeadUpdater{}, &fakeLogAppender{}, sender, 50, 3)

	if _, err := svc.ProcessDue(context.Background(), time.Now()); err != nil {
		t.Fatalf("ProcessDue returned error: %v", err)
	}

	if len(sender.calls) != 1 {
		t.Fatalf("expected 1 gateway call, got %d", len(sender.calls))
	}
	if sender.calls[0].text != "Mensagem especial para Ana Silva" {
		t.Errorf("expected custom body resolved, got %q", sender.calls[0].text)
	}
}

func TestProcessDue_BuiltInFallbackForStandardKinds(t *testing.T) {
	repo := &fakeScheduledRepo{
		due: []domain.DueScheduledMessage{dueMessage(5, 10, "dia_3", domain.LeadStatusContacted)},
	}
	sender := &fakeSender{}
	svc := NewScheduledService(repo, &fakeTemplates{}, &fakeLeadUpdater{}, &fakeLogAppender{}, sender, 50, 3)

	if _, err := svc.ProcessDue(context.Background(), time.Now()); err != nil {
		t.Fatalf("ProcessDue returned error: %v", err)
	}

	if len(sender.calls) != 1 {
		t.Fatalf("expected built-in fallback to be used, got %d calls", len(sender.calls))
	}
	if sender.calls[0].text == "" || sender.calls[0].text == defaultTemplates["dia_3"] {
		t.Errorf("expected placeholders resolved in fallback, got %q", sender.calls[0].text)
	}
}

func TestProcessDue_FailureBelowCeilingStaysRetryable(t *testing.T) {
	now := time.Now()

	msg := dueMessage(6, 10, "dia_3", domain.LeadStatusContacted)
	msg.Attempts = 1

	repo := &fakeScheduledRepo{due: []domain.DueScheduledMessage{msg}}
	sender := &fakeSender{shouldFail: true, errText: "gateway timeout"}
	svc := NewScheduledService(repo, &fakeTemplates{}, &fakeLeadUpdater{}, &fakeLogAppender{}, sender, 50, 3)

	result, err := svc.ProcessDue(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessDue returned error: %v", err)
	}

	if result.Failed != 1 {
		t.Fatalf("expected 1 failed, got %d", result.Failed)
	}

	if len(repo.failures) != 1 {
		t.Fatalf("expected 1 recorded failure, got %d", len(repo.failures))
	}
	failure := repo.failures[0]
	if failure.attempts != 2 {
		t.Errorf("expected attempts incremented to 2, got %d", failure.attempts)
	}
	if failure.terminal {
		t.Errorf("expected non-terminal failure below ceiling")
	}
	if failure.lastError != "gateway timeout" {
		t.Errorf("expected gateway error recorded, got %q", failure.lastError)
	}
	// Immediate retry policy: eligible again right away.
	if !failure.nextDueAt.Equal(now) {
		t.Errorf("expected nextDueAt %v, got %v", now, failure.nextDueAt)
	}
}

func TestProcessDue_FailureAtCeilingIsTerminal(t *testing.T) {
	msg := dueMessage(8, 10, "dia_3", domain.LeadStatusContacted)
	msg.Attempts = 2

	repo := &fakeScheduledRepo{due: []domain.DueScheduledMessage{msg}}
	sender := &fakeSender{shouldFail: true}
	svc := NewScheduledService(repo, &fakeTemplates{}, &fakeLeadUpdater{}, &fakeLogAppender{}, sender, 50, 3)

	if _, err := svc.ProcessDue(context.Background(), time.Now()); err != nil {
		t.Fatalf("ProcessDue returned error: %v", err)
	}

	if len(repo.failures) != 1 {
		t.Fatalf("expected 1 recorded failure, got %d", len(repo.failures))
	}
	if !repo.failures[0].terminal {
		t.Fatalf("expected terminal failure at attempt ceiling")
	}
}

func TestCancelPending(t *testing.T) {
	repo := &fakeScheduledRepo{}
	svc := NewScheduledService(repo, &fakeTemplates{}, &fakeLeadUpdater{}, &fakeLogAppender{}, &fakeSender{}, 50, 3)

	if err := svc.CancelPending(context.Background(), 42); err != nil {
		t.Fatalf("CancelPending returned error: %v", err)
	}

	if len(repo.cancelledLead) != 1 || repo.cancelledLead[0] != 42 {
		t.Fatalf("expected cancel for lead 42, got %v", repo.cancelledLead)
	}
}

func TestRetrySweep(t *testing.T) {
	repo := &fakeScheduledRepo{resetResult: 3}
	svc := NewScheduledService(repo, &fakeTemplates{}, &fakeLeadUpdater{}, &fakeLogAppender{}, &fakeSender{}, 50, 3)

	reset, err := svc.RetrySweep(context.Background())
	if err != nil {
		t.Fatalf("RetrySweep returned error: %v", err)
	}
	if reset != 3 {
		t.Fatalf("expected 3 reset, got %d", reset)
	}
}
