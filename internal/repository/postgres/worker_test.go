package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return db, mock, func() { db.Close() }
}

func TestClaimGroupWins(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	groupID := uuid.New()
	now := time.Now()

	mock.ExpectExec(`UPDATE message_groups`).
		WithArgs(groupID, 3, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewWorkerStore(db)
	claimed, err := store.ClaimGroup(context.Background(), groupID, 3, now)
	if err != nil {
		t.Fatalf("ClaimGroup() error: %v", err)
	}
	if !claimed {
		t.Error("Expected claim to succeed when one row updates")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestClaimGroupLosesRace(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	groupID := uuid.New()
	now := time.Now()

	// Another tick already bumped lock_version, so zero rows match.
	mock.ExpectExec(`UPDATE message_groups`).
		WithArgs(groupID, 3, now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewWorkerStore(db)
	claimed, err := store.ClaimGroup(context.Background(), groupID, 3, now)
	if err != nil {
		t.Fatalf("ClaimGroup() error: %v", err)
	}
	if claimed {
		t.Error("Expected claim to fail when no row updates")
	}
}

func TestMarkSentBumpsCounterInOneTx(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	recipientID := uuid.New()
	groupID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE recipients`).
		WithArgs(recipientID, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE message_groups`).
		WithArgs(groupID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewWorkerStore(db)
	if err := store.MarkSent(context.Background(), recipientID, groupID, 1); err != nil {
		t.Fatalf("MarkSent() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestMarkSentRollsBackOnCounterFailure(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	recipientID := uuid.New()
	groupID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE recipients`).
		WithArgs(recipientID, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE message_groups`).
		WithArgs(groupID).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	store := NewWorkerStore(db)
	if err := store.MarkSent(context.Background(), recipientID, groupID, 0); err == nil {
		t.Fatal("Expected error when counter update fails")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestCompleteGroupOnlyWhileProcessing(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	groupID := uuid.New()
	now := time.Now()

	// Group was canceled mid-tick; conditional update matches nothing.
	mock.ExpectExec(`UPDATE message_groups`).
		WithArgs(groupID, now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewWorkerStore(db)
	done, err := store.CompleteGroup(context.Background(), groupID, now)
	if err != nil {
		t.Fatalf("CompleteGroup() error: %v", err)
	}
	if done {
		t.Error("Expected completion to report false when status moved on")
	}
}

func TestRequeueGroupOnlyWhileProcessing(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	groupID := uuid.New()
	now := time.Now()

	mock.ExpectExec(`UPDATE message_groups\s+SET status = 'scheduled', scheduled_at = \$2`).
		WithArgs(groupID, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewWorkerStore(db)
	ok, err := store.RequeueGroup(context.Background(), groupID, now)
	if err != nil {
		t.Fatalf("RequeueGroup() error: %v", err)
	}
	if !ok {
		t.Error("Expected requeue to apply to a processing group")
	}

	// A canceled group must not be put back on the schedule.
	mock.ExpectExec(`UPDATE message_groups\s+SET status = 'scheduled', scheduled_at = \$2`).
		WithArgs(groupID, now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = store.RequeueGroup(context.Background(), groupID, now)
	if err != nil {
		t.Fatalf("RequeueGroup() error: %v", err)
	}
	if ok {
		t.Error("Expected requeue to report false when status moved on")
	}
}

func TestDueGroupsQuery(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	groupID := uuid.New()
	tenantID := uuid.New()
	now := time.Now()

	cols := []string{
		"id", "tenant_id", "app_id", "template_id",
		"subject", "body_html", "body_text",
		"status", "scheduled_at",
		"total_recipients", "processed_recipients", "sent_count", "failed_count",
		"lock_version", "started_at", "completed_at", "canceled_at", "created_at", "updated_at",
	}
	mock.ExpectQuery(`SELECT(.|\n)+FROM message_groups`).
		WithArgs(now, 50).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			groupID, tenantID, nil, nil,
			"Hello", "<p>Hi</p>", "",
			"scheduled", nil,
			2, 0, 0, 0,
			0, nil, nil, nil, now, now,
		))

	store := NewWorkerStore(db)
	groups, err := store.DueGroups(context.Background(), now, 50)
	if err != nil {
		t.Fatalf("DueGroups() error: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("Expected 1 due group, got %d", len(groups))
	}
	g := groups[0]
	if g.ID != groupID || g.Subject != "Hello" || g.ScheduledAt != nil {
		t.Errorf("Scanned group mismatch: %+v", g)
	}
}
