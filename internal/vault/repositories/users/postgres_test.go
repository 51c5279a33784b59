package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/avolkov/lockbox/internal/common"
	"github.com/avolkov/lockbox/internal/vault/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+users\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\).*RETURNING\s+created_at\s*$`

	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs(sqlmock.AnyArg(), "alice", "hash", []byte("salt")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	user, err := repo.Create(context.Background(), &models.User{
		Username:     "alice",
		PasswordHash: "hash",
		Salt:         []byte("salt"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected generated id")
	}
	if !user.CreatedAt.Equal(now) {
		t.Fatalf("expected created_at to be scanned")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByUsername_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*SELECT\b.*FROM\s+users\b.*WHERE\s+username\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByUsername_ScansLock(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	until := time.Now().Add(time.Hour)
	rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "salt", "failed_attempts", "locked_until", "created_at"}).
		AddRow("u1", "alice", "hash", []byte("salt"), 2, until, time.Now())

	q := `(?s)^\s*SELECT\b.*FROM\s+users\b.*WHERE\s+username\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("alice").WillReturnRows(rows)

	user, err := repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.LockedUntil == nil || !user.LockedUntil.Equal(until) {
		t.Fatalf("expected locked_until to be scanned")
	}
	if user.FailedAttempts != 2 {
		t.Fatalf("expected failed_attempts=2, got %d", user.FailedAttempts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordFailedAttempt_ReturnsCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+users\s+SET\s+failed_attempts\s*=\s*failed_attempts\s*\+\s*1\b.*RETURNING\s+failed_attempts\s*$`
	mock.ExpectQuery(q).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"failed_attempts"}).AddRow(3))

	count, err := repo.RecordFailedAttempt(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3, got %d", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetLock_ResetsCounter(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+users\s+SET\s+locked_until\s*=\s*\$2,\s*failed_attempts\s*=\s*0\b.*$`
	mock.ExpectExec(q).WithArgs("alice", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetLock(context.Background(), "alice", time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
