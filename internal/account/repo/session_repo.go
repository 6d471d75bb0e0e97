package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/dbx"
)

// Session is a persisted refresh session. Only the token hash is stored.
type Session struct {
	ID        int64     `db:"id"`
	AccountID int64     `db:"account_id"`
	ExpiresAt time.Time `db:"expires_at"`
}

type SessionRepo struct {
	db dbx.DBTX
}

func NewSessionRepo(db dbx.DBTX) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Save(ctx context.Context, tokenHash string, accountID int64, expiresAt time.Time) (int64, error) {
	const q = `INSERT INTO refresh_sessions (token_hash, account_id, expires_at) VALUES ($1, $2, $3) RETURNING id`
	var id int64
	if err := sqlx.GetContext(ctx, r.db, &id, q, tokenHash, accountID, expiresAt); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

// Take deletes the session and returns it, so a refresh token is usable once.
func (r *SessionRepo) Take(ctx context.Context, tokenHash string) (*Session, error) {
	const q = `DELETE FROM refresh_sessions WHERE token_hash = $1 RETURNING id, account_id, expires_at`
	var s Session
	if err := sqlx.GetContext(ctx, r.db, &s, q, tokenHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "sesión no encontrada", err)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &s, nil
}

func (r *SessionRepo) Delete(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteForAccount revokes every session of an account.
func (r *SessionRepo) DeleteForAccount(ctx context.Context, accountID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE account_id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
