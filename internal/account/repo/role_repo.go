package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-community-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/dbx"
)

// RoleRepo reads the seeded roles table.
type RoleRepo struct {
	db dbx.DBTX
}

func NewRoleRepo(db dbx.DBTX) *RoleRepo { return &RoleRepo{db: db} }

func (r *RoleRepo) GetByName(ctx context.Context, name string) (*entity.Role, error) {
	const q = `SELECT id, name, description FROM roles WHERE name = $1`
	var role entity.Role
	if err := sqlx.GetContext(ctx, r.db, &role, q, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "rol no encontrado", err)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &role, nil
}

func (r *RoleRepo) List(ctx context.Context) ([]*entity.Role, error) {
	const q = `SELECT id, name, description FROM roles ORDER BY id`
	var out []*entity.Role
	if err := sqlx.SelectContext(ctx, r.db, &out, q); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
