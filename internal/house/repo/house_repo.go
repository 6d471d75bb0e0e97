package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-community-go/internal/house/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/dbx"
)

type HouseRepo struct {
	db dbx.DBTX
}

func NewHouseRepo(db dbx.DBTX) *HouseRepo { return &HouseRepo{db: db} }

const houseColumns = `id, house_number, payment_status, created_at, updated_at`

func (r *HouseRepo) get(ctx context.Context, where string, arg any) (*entity.House, error) {
	q := `SELECT ` + houseColumns + ` FROM houses WHERE ` + where
	var h entity.House
	if err := sqlx.GetContext(ctx, r.db, &h, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "vivienda no encontrada", err)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &h, nil
}

func (r *HouseRepo) GetByID(ctx context.Context, id int64) (*entity.House, error) {
	return r.get(ctx, `id = $1`, id)
}

func (r *HouseRepo) GetByNumber(ctx context.Context, number string) (*entity.House, error) {
	return r.get(ctx, `house_number = $1`, strings.TrimSpace(number))
}

func (r *HouseRepo) List(ctx context.Context) ([]*entity.House, error) {
	q := `SELECT ` + houseColumns + ` FROM houses ORDER BY house_number`
	var out []*entity.House
	if err := sqlx.SelectContext(ctx, r.db, &out, q); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *HouseRepo) Create(ctx context.Context, h *entity.House) error {
	const q = `INSERT INTO houses (house_number, payment_status) VALUES ($1, $2)
		RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, q, strings.TrimSpace(h.HouseNumber), h.PaymentStatus)
	if err := row.Scan(&h.ID, &h.CreatedAt, &h.UpdatedAt); err != nil {
		if dbx.IsUniqueViolation(err) {
			return apperr.Wrap(apperr.ErrConflict, "la vivienda ya existe", err)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// SetPaymentStatus updates the status and returns the previous value.
func (r *HouseRepo) SetPaymentStatus(ctx context.Context, id int64, status string) (string, error) {
	const q = `UPDATE houses h SET payment_status = $2, updated_at = NOW()
		FROM (SELECT id, payment_status FROM houses WHERE id = $1 FOR UPDATE) prev
		WHERE h.id = prev.id RETURNING prev.payment_status`
	var previous string
	if err := sqlx.GetContext(ctx, r.db, &previous, q, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperr.Wrap(apperr.ErrNotFound, "vivienda no encontrada", err)
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return previous, nil
}
