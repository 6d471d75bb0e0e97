package house

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	auditentity "github.com/ovaphlow/pitchfork/service-community-go/internal/audit/entity"
	auditrepo "github.com/ovaphlow/pitchfork/service-community-go/internal/audit/repo"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/house/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/house/repo"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/dbx"
)

const maxHouseNumber = 20

// Service manages houses. Every write is audited in its own transaction.
type Service struct {
	db *sqlx.DB
}

func NewService(db *sqlx.DB) *Service {
	return &Service{db: db}
}

func (s *Service) List(ctx context.Context) ([]*entity.House, error) {
	return repo.NewHouseRepo(s.db).List(ctx)
}

// Create registers a house. An empty status defaults to al_dia.
func (s *Service) Create(ctx context.Context, actor *int64, number, status string) (*entity.House, error) {
	number = strings.TrimSpace(number)
	if number == "" || len(number) > maxHouseNumber {
		return nil, apperr.Validation("número de vivienda inválido")
	}
	if status == "" {
		status = entity.PaymentAlDia
	}
	if !entity.ValidPaymentStatus(status) {
		return nil, apperr.Validation("estado de pago inválido")
	}

	h := &entity.House{HouseNumber: number, PaymentStatus: status}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := repo.NewHouseRepo(tx).Create(ctx, h); err != nil {
			return err
		}
		return record(ctx, tx, actor, "vivienda_creada", "vivienda "+h.HouseNumber+" registrada", map[string]any{
			"house_id":       h.ID,
			"house_number":   h.HouseNumber,
			"payment_status": h.PaymentStatus,
		})
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// SetPaymentStatus changes a house's payment status and returns the updated house.
func (s *Service) SetPaymentStatus(ctx context.Context, actor *int64, id int64, status string) (*entity.House, error) {
	if !entity.ValidPaymentStatus(status) {
		return nil, apperr.Validation("estado de pago inválido")
	}
	var out *entity.House
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		houses := repo.NewHouseRepo(tx)
		previous, err := houses.SetPaymentStatus(ctx, id, status)
		if err != nil {
			return err
		}
		if out, err = houses.GetByID(ctx, id); err != nil {
			return err
		}
		return record(ctx, tx, actor, "estado_pago_actualizado", "estado de pago de la vivienda "+out.HouseNumber+" actualizado", map[string]any{
			"house_id": id,
			"anterior": previous,
			"nuevo":    status,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func record(ctx context.Context, tx dbx.DBTX, actor *int64, action, desc string, extra map[string]any) error {
	e, err := auditentity.New(actor, action, desc, extra)
	if err != nil {
		return err
	}
	return auditrepo.NewAuditRepo(tx).Record(ctx, e)
}
