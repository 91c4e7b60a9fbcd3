package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestScheduledGetDue(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduledMessageRepository(db)

	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "lead_id", "kind", "custom_body", "due_at", "status",
		"attempts", "last_error", "sent_at", "created_at",
		"lead_name", "lead_whatsapp", "lead_status",
	}).AddRow(
		1, 10, "dia_3", nil, now.Add(-time.Minute), "pending",
		0, nil, nil, now.Add(-72*time.Hour),
		"Ana Silva", "5541998712446", "contacted",
	)

	mock.ExpectQuery(regexp.QuoteMeta("FROM scheduled_messages m")).
		WithArgs(now, 50).
		WillReturnRows(rows)

	due, err := repo.GetDue(context.Background(), now, 50)
	if err != nil {
		t.Fatalf("GetDue returned error: %v", err)
	}

	if len(due) != 1 {
		t.Fatalf("expected 1 due message, got %d", len(due))
	}
	msg := due[0]
	if msg.ID != 1 || msg.Kind != "dia_3" {
		t.Errorf("unexpected message %+v", msg.ScheduledMessage)
	}
	if msg.LeadName != "Ana Silva" || msg.LeadStatus != domain.LeadStatusContacted {
		t.Errorf("lead join columns not mapped: %+v", msg)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestScheduledRecordFailure_NonTerminalReschedules(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduledMessageRepository(db)

	nextDueAt := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("SET attempts = ?, last_error = ?, due_at = ?")).
		WithArgs(2, "gateway timeout", nextDueAt, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RecordFailure(context.Background(), 7, 2, "gateway timeout", false, nextDueAt); err != nil {
		t.Fatalf("RecordFailure returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestScheduledRecordFailure_TerminalMovesToFailed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduledMessageRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("SET status = 'failed', attempts = ?, last_error = ?")).
		WithArgs(3, "gateway timeout", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RecordFailure(context.Background(), 7, 3, "gateway timeout", true, time.Now()); err != nil {
		t.Fatalf("RecordFailure returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestScheduledCancelPendingForLead(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduledMessageRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE lead_id = ? AND status = 'pending'")).
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	cancelled, err := repo.CancelPendingForLead(context.Background(), 10)
	if err != nil {
		t.Fatalf("CancelPendingForLead returned error: %v", err)
	}
	if cancelled != 2 {
		t.Errorf("expected 2 cancelled, got %d", cancelled)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestScheduledResetFailed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduledMessageRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE status = 'failed' AND attempts < ?")).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 4))

	reset, err := repo.ResetFailed(context.Background(), 3)
	if err != nil {
		t.Fatalf("ResetFailed returned error: %v", err)
	}
	if reset != 4 {
		t.Errorf("expected 4 reset, got %d", reset)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
