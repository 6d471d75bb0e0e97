package repo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-community-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

var accountCols = []string{"id", "full_name", "email", "phone", "password_hash", "role_id", "role_name",
	"house_id", "status", "failed_login_attempts", "locked_until", "created_at", "updated_at"}

func TestGetByID_JoinsRoleName(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`FROM accounts a JOIN roles r ON r.id = a.role_id WHERE a.id = \$1`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(accountCols).
			AddRow(10, "Ana", "ana@example.com", "555", "hash", 1, "vecino", 12, "active", 0, nil, now, now))

	a, err := NewAccountRepo(db).GetByID(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "vecino", a.RoleName)
	require.NotNil(t, a.HouseID)
	assert.Equal(t, int64(12), *a.HouseID)
	assert.Nil(t, a.LockedUntil)
}

func TestGetByEmail_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`WHERE a.email = \$1`).WithArgs("x@example.com").WillReturnError(sql.ErrNoRows)

	_, err := NewAccountRepo(db).GetByEmail(context.Background(), " x@example.com ")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO accounts`).WillReturnError(&pq.Error{Code: "23505"})

	_, err := NewAccountRepo(db).Create(context.Background(), &entity.Account{Email: "a@b.cl", Status: entity.StatusActive})
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestUpdateProfile_OnlySetFields(t *testing.T) {
	db, mock := newMock(t)
	phone := "+56 9 1111"
	mock.ExpectExec(`UPDATE accounts SET phone = \$1, updated_at = NOW\(\) WHERE id = \$2`).
		WithArgs(phone, int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewAccountRepo(db).UpdateProfile(context.Background(), 10, entity.ProfileUpdate{Phone: &phone})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile_EmptyIsNoop(t *testing.T) {
	db, mock := newMock(t)
	require.NoError(t, NewAccountRepo(db).UpdateProfile(context.Background(), 10, entity.ProfileUpdate{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatus_MissingAccount(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`UPDATE accounts SET status`).
		WithArgs(int64(99), "suspended").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewAccountRepo(db).SetStatus(context.Background(), 99, entity.StatusSuspended)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLockIfThreshold(t *testing.T) {
	db, mock := newMock(t)
	until := time.Now().Add(15 * time.Minute)
	mock.ExpectQuery(`UPDATE accounts SET locked_until`).
		WithArgs(int64(10), 5, until).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(`UPDATE accounts SET locked_until`).
		WithArgs(int64(10), 5, until).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	r := NewAccountRepo(db)
	locked, err := r.LockIfThreshold(context.Background(), 10, 5, until)
	require.NoError(t, err)
	assert.True(t, locked)
	locked, err = r.LockIfThreshold(context.Background(), 10, 5, until)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestSessionTake_IsSingleUse(t *testing.T) {
	db, mock := newMock(t)
	exp := time.Now().Add(time.Hour)
	mock.ExpectQuery(`DELETE FROM refresh_sessions`).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "expires_at"}).AddRow(1, 10, exp))
	mock.ExpectQuery(`DELETE FROM refresh_sessions`).
		WithArgs("abc").
		WillReturnError(sql.ErrNoRows)

	r := NewSessionRepo(db)
	s, err := r.Take(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(10), s.AccountID)
	_, err = r.Take(context.Background(), "abc")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRoleGetByName_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM roles WHERE name = \$1`).WithArgs("alcalde").WillReturnError(sql.ErrNoRows)

	_, err := NewRoleRepo(db).GetByName(context.Background(), "alcalde")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
