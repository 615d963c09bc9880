package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestRotate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewTokenRepo(db)

	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").
		WithArgs("new-hash", "old-hash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Rotate(context.Background(), "old-hash", "new-hash"); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRotateAlreadyRevoked(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewTokenRepo(db)

	// The row exists but revoked_at is already set, so the guarded update
	// touches nothing.  Exactly one of two racing rotations may win; the
	// loser must surface as reuse.
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").
		WithArgs("new-hash", "old-hash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Rotate(context.Background(), "old-hash", "new-hash"); err != ErrInvalidState {
		t.Fatalf("Rotate = %v, want ErrInvalidState", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
