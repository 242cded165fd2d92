package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPostgresGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	store := NewPostgres(db)

	rows := sqlmock.NewRows([]string{"value"}).AddRow(`{"email":"buyer@example.com"}`)
	mock.ExpectQuery("SELECT value FROM kv_entries").WithArgs("user").WillReturnRows(rows)

	got, err := store.Get(context.Background(), "user")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != `{"email":"buyer@example.com"}` {
		t.Fatalf("unexpected value %q", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresGetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	store := NewPostgres(db)

	mock.ExpectQuery("SELECT value FROM kv_entries").
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	if _, err := store.Get(context.Background(), "orders"); err != ErrKeyNotFound {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresSetUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	store := NewPostgres(db)

	mock.ExpectExec("INSERT INTO kv_entries").
		WithArgs("cart", `[]`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Set(context.Background(), "cart", `[]`); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	store := NewPostgres(db)

	mock.ExpectExec("DELETE FROM kv_entries").
		WithArgs("user").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Delete(context.Background(), "user"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
