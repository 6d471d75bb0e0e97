package account

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/account/repo"
	auditentity "github.com/ovaphlow/pitchfork/service-community-go/internal/audit/entity"
	auditrepo "github.com/ovaphlow/pitchfork/service-community-go/internal/audit/repo"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/dbx"
)

// SuperAdmin identifies the account created on first start.
type SuperAdmin struct {
	Email    string
	Password string
	FullName string
}

// EnsureSuperAdmin creates the super_admin account if no account owns the
// configured email. An existing account is left untouched.
func EnsureSuperAdmin(ctx context.Context, db *sqlx.DB, hasher PasswordHasher, sa SuperAdmin, logger *zap.SugaredLogger) error {
	email := strings.ToLower(strings.TrimSpace(sa.Email))
	if email == "" {
		return nil
	}
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		accounts := repo.NewAccountRepo(tx)
		existing, err := accounts.GetByEmail(ctx, email)
		if err == nil {
			if existing.RoleName != entity.RoleSuperAdmin {
				logger.Warnw("bootstrap email belongs to a non super_admin account", "account_id", existing.ID, "role", existing.RoleName)
			}
			return nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}

		role, err := repo.NewRoleRepo(tx).GetByName(ctx, entity.RoleSuperAdmin)
		if err != nil {
			return err
		}
		hash, err := hasher.Hash(sa.Password)
		if err != nil {
			return err
		}
		acc := &entity.Account{
			FullName:     sa.FullName,
			Email:        email,
			PasswordHash: hash,
			RoleID:       role.ID,
			Status:       entity.StatusActive,
		}
		id, err := accounts.Create(ctx, acc)
		if err != nil {
			return err
		}
		entry, err := auditentity.New(nil, "bootstrap_super_admin", "cuenta super_admin inicial creada", map[string]any{
			"account_id": id,
			"email":      email,
		})
		if err != nil {
			return err
		}
		if err := auditrepo.NewAuditRepo(tx).Record(ctx, entry); err != nil {
			return err
		}
		logger.Infow("super_admin created", "account_id", id)
		return nil
	})
}
