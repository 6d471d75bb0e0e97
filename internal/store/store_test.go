package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-community-go/internal/workflow"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/workflow/entity"
)

func newStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(sqlx.NewDb(db, "postgres")), mock
}

func TestAtomic_CommitsOnSuccess(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectCommit()

	err := s.Atomic(context.Background(), func(ctx context.Context, r workflow.Repos) error {
		dup, err := r.Requests.PendingExists(ctx, entity.KindDeactivation, nil, nil)
		assert.False(t, dup)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAtomic_RollsBackOnError(t *testing.T) {
	s, mock := newStore(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := s.Atomic(context.Background(), func(context.Context, workflow.Repos) error { return boom })
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPending_RunsOutsideTransaction(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectQuery(`FROM requests WHERE kind = \$1 AND state = 'pendiente'`).
		WithArgs("role-change").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	list, err := s.Pending(context.Background(), entity.KindRoleChange)
	require.NoError(t, err)
	assert.Empty(t, list)
	require.NoError(t, mock.ExpectationsWereMet())
}
