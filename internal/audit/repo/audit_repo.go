package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/ovaphlow/pitchfork/service-community-go/internal/audit/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/dbx"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/utilities"
)

// AuditRepo appends to the audit_log table. There is no update or delete
// path; callers pass the transaction handle of the mutation being recorded.
type AuditRepo struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewAuditRepo(db dbx.DBTX) *AuditRepo {
	return &AuditRepo{db: db, now: time.Now}
}

// Record assigns an ID and timestamp to e and inserts it.
func (r *AuditRepo) Record(ctx context.Context, e *entity.Entry) error {
	if e.ID == "" {
		e.ID = utilities.NewKSUID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}
	if len(e.ExtraData) == 0 {
		e.ExtraData = []byte("{}")
	}
	const q = `INSERT INTO audit_log (id, actor_account_id, action_type, description, extra_data, created_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6)`
	if _, err := r.db.ExecContext(ctx, q, e.ID, e.ActorAccountID, e.ActionType, e.Description, string(e.ExtraData), e.CreatedAt); err != nil {
		return fmt.Errorf("audit insert: %w", err)
	}
	return nil
}
