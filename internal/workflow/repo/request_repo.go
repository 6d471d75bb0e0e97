package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-community-go/internal/workflow/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/dbx"
)

// RequestRepo persists workflow requests of every kind.
type RequestRepo struct {
	db dbx.DBTX
}

func NewRequestRepo(db dbx.DBTX) *RequestRepo { return &RequestRepo{db: db} }

const requestColumns = `id, kind, submitter_id, target_account_id, target_email, state, payload,
	credential_hash, submitted_at, reviewed_at, reviewer_id, review_comment`

// Insert stores a new request. A second pending request for the same target
// trips the partial unique indexes and is reported as a conflict.
func (r *RequestRepo) Insert(ctx context.Context, req *entity.Request) error {
	const q = `INSERT INTO requests (id, kind, submitter_id, target_account_id, target_email, state, payload,
		credential_hash, submitted_at) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9)`
	payload := req.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	_, err := r.db.ExecContext(ctx, q, req.ID, string(req.Kind), req.SubmitterID, req.TargetAccountID,
		req.TargetEmail, string(req.State), string(payload), req.CredentialHash, req.SubmittedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return apperr.Wrap(apperr.ErrConflict, "ya existe una solicitud pendiente para esta cuenta", err)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *RequestRepo) Get(ctx context.Context, id string) (*entity.Request, error) {
	q := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`
	var req entity.Request
	if err := sqlx.GetContext(ctx, r.db, &req, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "solicitud no encontrada", err)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &req, nil
}

// PendingExists reports whether a pending request of kind already targets
// the given account or email. Nil keys never match.
func (r *RequestRepo) PendingExists(ctx context.Context, kind entity.Kind, accountID *int64, email *string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM requests WHERE kind = $1 AND state = 'pendiente'
		AND (target_account_id = $2 OR target_email = $3))`
	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, q, string(kind), accountID, email); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// ListPending returns pending requests of kind, newest first.
func (r *RequestRepo) ListPending(ctx context.Context, kind entity.Kind) ([]*entity.Request, error) {
	q := `SELECT ` + requestColumns + ` FROM requests WHERE kind = $1 AND state = 'pendiente'
		ORDER BY submitted_at DESC, id DESC`
	out := []*entity.Request{}
	if err := sqlx.SelectContext(ctx, r.db, &out, q, string(kind)); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// Resolve moves a pending request to a terminal state. It returns false when
// the request was no longer pending, so two reviewers cannot both win.
func (r *RequestRepo) Resolve(ctx context.Context, id string, state entity.State, reviewerID int64, comment *string, at time.Time) (bool, error) {
	const q = `UPDATE requests SET state = $2, reviewer_id = $3, review_comment = $4, reviewed_at = $5
		WHERE id = $1 AND state = 'pendiente' RETURNING 1`
	var one int
	err := sqlx.GetContext(ctx, r.db, &one, q, id, string(state), reviewerID, comment, at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return true, nil
}

// SetTarget links a request to the account it produced.
func (r *RequestRepo) SetTarget(ctx context.Context, id string, accountID int64) error {
	const q = `UPDATE requests SET target_account_id = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, accountID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("solicitud no encontrada")
	}
	return nil
}
