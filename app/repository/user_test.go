package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-posts/app/entity"
	"github.com/vibast-solutions/ms-go-posts/app/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

const (
	insertUserQuery       = `(?s)INSERT INTO users \(full_name, email, password_hash, created_at, updated_at\)\s+VALUES \(\?, \?, \?, \?, \?\)`
	findByEmailQuery      = `(?s)SELECT id, full_name, email, password_hash, refresh_token, created_at, updated_at\s+FROM users WHERE email = \?`
	findByIDQuery         = `(?s)SELECT id, full_name, email, password_hash, refresh_token, created_at, updated_at\s+FROM users WHERE id = \?`
	findProfileByIDQuery  = `(?s)SELECT id, full_name, email, created_at, updated_at\s+FROM users WHERE id = \?`
	setRefreshTokenQuery  = `UPDATE users SET refresh_token = \?, updated_at = \? WHERE id = \?$`
	swapRefreshTokenQuery = `UPDATE users SET refresh_token = \?, updated_at = \? WHERE id = \? AND refresh_token = \?`
	clearRefreshQuery     = `UPDATE users SET refresh_token = NULL, updated_at = \? WHERE id = \?`
)

var userColumns = []string{
	"id",
	"full_name",
	"email",
	"password_hash",
	"refresh_token",
	"created_at",
	"updated_at",
}

var profileColumns = []string{
	"id",
	"full_name",
	"email",
	"created_at",
	"updated_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return db, mock, func() { _ = db.Close() }
}

func TestUserRepository_Create(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	now := time.Now()
	user := &entity.User{
		FullName:     "Jane Doe",
		Email:        "jane@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectExec(insertUserQuery).
		WithArgs(user.FullName, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(7, 1))

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if user.ID != 7 {
		t.Fatalf("expected ID 7, got %d", user.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	mock.ExpectExec(insertUserQuery).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'jane@example.com' for key 'users.email'"})

	err := repo.Create(context.Background(), &entity.User{Email: "jane@example.com"})
	if !errors.Is(err, repository.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestUserRepository_CreatePassesThroughOtherErrors(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	mock.ExpectExec(insertUserQuery).WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), &entity.User{Email: "jane@example.com"})
	if err == nil || errors.Is(err, repository.ErrDuplicateKey) {
		t.Fatalf("expected plain error, got %v", err)
	}
}

func TestUserRepository_FindByEmail(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(findByEmailQuery).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
			uint64(1), "Jane Doe", "jane@example.com", "hash", "refresh", now, now,
		))

	user, err := repo.FindByEmail(context.Background(), "jane@example.com")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if user == nil || user.ID != 1 || user.FullName != "Jane Doe" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if !user.RefreshToken.Valid || user.RefreshToken.String != "refresh" {
		t.Fatalf("unexpected refresh token: %+v", user.RefreshToken)
	}
}

func TestUserRepository_FindByEmailNotFound(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	mock.ExpectQuery(findByEmailQuery).
		WithArgs("missing@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := repo.FindByEmail(context.Background(), "missing@example.com")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}
}

func TestUserRepository_FindByIDNullRefreshToken(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	now := time.Now()
	mock.ExpectQuery(findByIDQuery).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
			uint64(3), "Jane Doe", "jane@example.com", "hash", nil, now, now,
		))

	user, err := repo.FindByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if user.RefreshToken.Valid {
		t.Fatalf("expected NULL refresh token")
	}
}

func TestUserRepository_FindProfileByID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	now := time.Now()
	mock.ExpectQuery(findProfileByIDQuery).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(profileColumns).AddRow(
			uint64(3), "Jane Doe", "jane@example.com", now, now,
		))

	user, err := repo.FindProfileByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if user.PasswordHash != "" || user.RefreshToken.Valid {
		t.Fatalf("expected profile projection, got %+v", user)
	}
}

func TestUserRepository_SetRefreshToken(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	mock.ExpectExec(setRefreshTokenQuery).
		WithArgs("token", sqlmock.AnyArg(), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetRefreshToken(context.Background(), 3, "token"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_SwapRefreshToken(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	mock.ExpectExec(swapRefreshTokenQuery).
		WithArgs("next", sqlmock.AnyArg(), uint64(3), "current").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(swapRefreshTokenQuery).
		WithArgs("next", sqlmock.AnyArg(), uint64(3), "current").
		WillReturnResult(sqlmock.NewResult(0, 0))

	swapped, err := repo.SwapRefreshToken(context.Background(), 3, "current", "next")
	if err != nil || !swapped {
		t.Fatalf("expected swap, got %v %v", swapped, err)
	}

	swapped, err = repo.SwapRefreshToken(context.Background(), 3, "current", "next")
	if err != nil || swapped {
		t.Fatalf("expected lost swap, got %v %v", swapped, err)
	}
}

func TestUserRepository_ClearRefreshToken(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	mock.ExpectExec(clearRefreshQuery).
		WithArgs(sqlmock.AnyArg(), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ClearRefreshToken(context.Background(), 3); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
