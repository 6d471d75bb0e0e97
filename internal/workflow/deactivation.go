package workflow

import (
	"context"

	acct "github.com/ovaphlow/pitchfork/service-community-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/workflow/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
)

var errNotActive = apperr.Conflict("la cuenta no está activa")

// Deactivation suspends an active account and revokes its refresh sessions.
// Residents may only ask for accounts of their own house; reviewers may ask
// for any account.
type Deactivation struct{}

func (Deactivation) Kind() entity.Kind { return entity.KindDeactivation }
func (Deactivation) NewInput() Input { return &DeactivationInput{} }
func (Deactivation) SubmitOp() auth.Operation { return auth.OpSubmitDeactivation }
func (Deactivation) SeparationOfDuties() bool { return true }
func (Deactivation) Subject() string { return "desactivacion" }

func (Deactivation) Prepare(ctx context.Context, r Repos, in Input, p *auth.Principal) (*entity.Request, error) {
	de, err := inputAs[*DeactivationInput](in)
	if err != nil {
		return nil, err
	}
	target, err := r.Accounts.GetByID(ctx, de.AccountID)
	if err != nil {
		return nil, err
	}
	if !p.IsReviewer() && target.ID != p.AccountID && !sameHouse(p.HouseID, target.HouseID) {
		return nil, apperr.Authorization("solo puede solicitar la desactivación de cuentas de su vivienda")
	}
	if target.Status != acct.StatusActive {
		return nil, errNotActive
	}
	payload, err := encodePayload(entity.DeactivationPayload{Motivo: de.Motivo})
	if err != nil {
		return nil, err
	}
	return &entity.Request{TargetAccountID: ptr(target.ID), Payload: payload}, nil
}

func (Deactivation) Apply(ctx context.Context, r Repos, req *entity.Request) (int64, error) {
	id, err := targetOf(req)
	if err != nil {
		return 0, err
	}
	target, err := r.Accounts.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if target.Status != acct.StatusActive {
		return 0, errNotActive
	}
	if err := r.Accounts.SetStatus(ctx, id, acct.StatusSuspended); err != nil {
		return 0, err
	}
	return id, r.Sessions.DeleteForAccount(ctx, id)
}

func sameHouse(a, b *int64) bool {
	return a != nil && b != nil && *a == *b
}
