// Package store binds the workflow engine to PostgreSQL: each Atomic call is
// one database transaction and every repository it hands out shares it.
package store

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	accountrepo "github.com/ovaphlow/pitchfork/service-community-go/internal/account/repo"
	auditrepo "github.com/ovaphlow/pitchfork/service-community-go/internal/audit/repo"
	houserepo "github.com/ovaphlow/pitchfork/service-community-go/internal/house/repo"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/workflow"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/workflow/entity"
	requestrepo "github.com/ovaphlow/pitchfork/service-community-go/internal/workflow/repo"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/dbx"
)

type Postgres struct {
	db   *sqlx.DB
	opts *sql.TxOptions
}

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db, opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted}}
}

func (p *Postgres) Atomic(ctx context.Context, fn func(ctx context.Context, r workflow.Repos) error) error {
	return dbx.WithTx(ctx, p.db, p.opts, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, Bind(tx))
	})
}

func (p *Postgres) Pending(ctx context.Context, kind entity.Kind) ([]*entity.Request, error) {
	return requestrepo.NewRequestRepo(p.db).ListPending(ctx, kind)
}

// Bind returns the workflow repositories on db.
func Bind(db dbx.DBTX) workflow.Repos {
	return workflow.Repos{
		Accounts: accountrepo.NewAccountRepo(db),
		Roles:    accountrepo.NewRoleRepo(db),
		Houses:   houserepo.NewHouseRepo(db),
		Requests: requestrepo.NewRequestRepo(db),
		Sessions: accountrepo.NewSessionRepo(db),
		Audit:    auditrepo.NewAuditRepo(db),
	}
}
