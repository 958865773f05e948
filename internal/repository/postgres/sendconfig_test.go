package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/ignite/dispatch/internal/domain"
	"github.com/ignite/dispatch/internal/service/sendconfig"
)

func TestActivateDeactivatesOthersInOneTx(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE sending_configs SET is_active = FALSE`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE sending_configs SET is_active = TRUE`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewSendConfigRepo(db)
	if err := repo.Activate(context.Background(), id); err != nil {
		t.Fatalf("Activate() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestActivateUnknownOrNonGlobalRollsBack(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE sending_configs SET is_active = FALSE`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE sending_configs SET is_active = TRUE`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	repo := NewSendConfigRepo(db)
	if err := repo.Activate(context.Background(), id); err != sendconfig.ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestFindActiveByScopeRequiresActive(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	appID := uuid.New()
	scope := domain.AppScope(appID, uuid.New())

	mock.ExpectQuery(`FROM sending_configs WHERE scope_kind = \$1 AND app_id = \$2 AND is_active`).
		WithArgs(string(domain.ScopeApp), appID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewSendConfigRepo(db)
	if _, err := repo.FindActiveByScope(context.Background(), scope); err != sendconfig.ErrNotFound {
		t.Fatalf("Expected ErrNotFound for a deactivated scope config, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestGetConfigNotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	id := uuid.New()
	mock.ExpectQuery(`SELECT(.|\n)+FROM sending_configs`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewSendConfigRepo(db)
	if _, err := repo.Get(context.Background(), id); err != sendconfig.ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
