package workflow

import (
	"context"

	acct "github.com/ovaphlow/pitchfork/service-community-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/workflow/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
)

var errNotSuspended = apperr.Conflict("la cuenta no está suspendida")

// Reactivation is submitted by a suspended resident, who cannot log in, and
// identifies the account by email. Approval reactivates it in the requested house.
type Reactivation struct{}

func (Reactivation) Kind() entity.Kind { return entity.KindReactivation }
func (Reactivation) NewInput() Input { return &ReactivationInput{} }
func (Reactivation) SubmitOp() auth.Operation { return auth.OpSubmitReactivation }
func (Reactivation) SeparationOfDuties() bool { return false }
func (Reactivation) Subject() string { return "reactivacion" }

func (Reactivation) Prepare(ctx context.Context, r Repos, in Input, _ *auth.Principal) (*entity.Request, error) {
	re, err := inputAs[*ReactivationInput](in)
	if err != nil {
		return nil, err
	}
	target, err := r.Accounts.GetByEmail(ctx, re.Email)
	if err != nil {
		return nil, err
	}
	if target.Status != acct.StatusSuspended {
		return nil, errNotSuspended
	}
	if _, err := r.Houses.GetByNumber(ctx, re.HouseNumber); err != nil {
		return nil, err
	}
	payload, err := encodePayload(entity.ReactivationPayload{Motivo: re.Motivo, HouseNumber: re.HouseNumber})
	if err != nil {
		return nil, err
	}
	return &entity.Request{
		TargetAccountID: ptr(target.ID),
		TargetEmail:     ptr(target.Email),
		Payload:         payload,
	}, nil
}

func (Reactivation) Apply(ctx context.Context, r Repos, req *entity.Request) (int64, error) {
	id, err := targetOf(req)
	if err != nil {
		return 0, err
	}
	p, err := decodePayload[entity.ReactivationPayload](req)
	if err != nil {
		return 0, err
	}
	target, err := r.Accounts.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if target.Status != acct.StatusSuspended {
		return 0, errNotSuspended
	}
	// the house may have been removed since submission
	h, err := r.Houses.GetByNumber(ctx, p.HouseNumber)
	if err != nil {
		return 0, err
	}
	return id, r.Accounts.Reactivate(ctx, id, h.ID)
}
