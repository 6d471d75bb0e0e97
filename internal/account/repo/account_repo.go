package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-community-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/dbx"
)

// AccountRepo provides data access for the accounts table. It works on the
// pool or inside a transaction, depending on the handle it is built with.
type AccountRepo struct {
	db dbx.DBTX
}

func NewAccountRepo(db dbx.DBTX) *AccountRepo { return &AccountRepo{db: db} }

const accountColumns = `a.id, a.full_name, a.email, a.phone, a.password_hash, a.role_id, r.name AS role_name,
	a.house_id, a.status, a.failed_login_attempts, a.locked_until, a.created_at, a.updated_at`

const accountFrom = `FROM accounts a JOIN roles r ON r.id = a.role_id`

const errAccountNotFound = "cuenta no encontrada"

func (r *AccountRepo) get(ctx context.Context, where string, arg any) (*entity.Account, error) {
	q := `SELECT ` + accountColumns + ` ` + accountFrom + ` WHERE ` + where
	var a entity.Account
	if err := sqlx.GetContext(ctx, r.db, &a, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Wrap(apperr.ErrNotFound, errAccountNotFound, err)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &a, nil
}

// GetByID returns the account with its role name.
func (r *AccountRepo) GetByID(ctx context.Context, id int64) (*entity.Account, error) {
	return r.get(ctx, `a.id = $1`, id)
}

// GetByEmail matches case-insensitively (citext).
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return r.get(ctx, `a.email = $1`, strings.TrimSpace(email))
}

// EmailTaken reports whether any account other than exceptID uses email.
func (r *AccountRepo) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1 AND id <> $2)`
	var taken bool
	if err := sqlx.GetContext(ctx, r.db, &taken, q, strings.TrimSpace(email), exceptID); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return taken, nil
}

// Create inserts an account and returns the new ID.
func (r *AccountRepo) Create(ctx context.Context, a *entity.Account) (int64, error) {
	const q = `INSERT INTO accounts (full_name, email, phone, password_hash, role_id, house_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := sqlx.GetContext(ctx, r.db, &a.ID, q,
		a.FullName, strings.ToLower(strings.TrimSpace(a.Email)), a.Phone, a.PasswordHash, a.RoleID, a.HouseID, a.Status); err != nil {
		if dbx.IsUniqueViolation(err) {
			return 0, apperr.Wrap(apperr.ErrConflict, "el correo ya está registrado", err)
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return a.ID, nil
}

// List returns all accounts ordered by name.
func (r *AccountRepo) List(ctx context.Context) ([]*entity.Account, error) {
	q := `SELECT ` + accountColumns + ` ` + accountFrom + ` ORDER BY a.full_name, a.id`
	var out []*entity.Account
	if err := sqlx.SelectContext(ctx, r.db, &out, q); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// UpdateProfile overwrites only the fields set in upd.
func (r *AccountRepo) UpdateProfile(ctx context.Context, id int64, upd entity.ProfileUpdate) error {
	if upd.Empty() {
		return nil
	}
	sets := make([]string, 0, 4)
	args := make([]any, 0, 4)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.FullName != nil {
		add("full_name", *upd.FullName)
	}
	if upd.Email != nil {
		add("email", strings.ToLower(strings.TrimSpace(*upd.Email)))
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	args = append(args, id)
	q := fmt.Sprintf(`UPDATE accounts SET %s, updated_at = NOW() WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return apperr.Wrap(apperr.ErrConflict, "el correo ya está registrado", err)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res, errAccountNotFound)
}

// SetStatus changes the lifecycle status.
func (r *AccountRepo) SetStatus(ctx context.Context, id int64, status string) error {
	const q = `UPDATE accounts SET status = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res, errAccountNotFound)
}

// Reactivate sets the account active in the given house and clears lockout state.
func (r *AccountRepo) Reactivate(ctx context.Context, id, houseID int64) error {
	const q = `UPDATE accounts SET status = 'active', house_id = $2, failed_login_attempts = 0,
		locked_until = NULL, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, houseID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res, errAccountNotFound)
}

// SetRole reassigns the account's role.
func (r *AccountRepo) SetRole(ctx context.Context, id, roleID int64) error {
	const q = `UPDATE accounts SET role_id = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, roleID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res, errAccountNotFound)
}

// IncrementFailedLogin increments the failure counter atomically and returns the new value.
func (r *AccountRepo) IncrementFailedLogin(ctx context.Context, id int64) (int, error) {
	const q = `UPDATE accounts SET failed_login_attempts = failed_login_attempts + 1, updated_at = NOW()
		WHERE id = $1 RETURNING failed_login_attempts`
	var v int
	if err := sqlx.GetContext(ctx, r.db, &v, q, id); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

// LockIfThreshold locks the account until the given time if its failure
// counter reached threshold. Reports whether a lock was applied.
func (r *AccountRepo) LockIfThreshold(ctx context.Context, id int64, threshold int, until time.Time) (bool, error) {
	const q = `UPDATE accounts SET locked_until = $3, failed_login_attempts = 0, updated_at = NOW()
		WHERE id = $1 AND failed_login_attempts >= $2 RETURNING 1`
	var one int
	err := sqlx.GetContext(ctx, r.db, &one, q, id, threshold, until)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return true, nil
}

// ResetLoginSuccess clears failure metrics on successful authentication.
func (r *AccountRepo) ResetLoginSuccess(ctx context.Context, id int64) error {
	const q = `UPDATE accounts SET failed_login_attempts = 0, locked_until = NULL, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func expectOne(res sql.Result, notFound string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return apperr.NotFound(notFound)
	}
	return nil
}
