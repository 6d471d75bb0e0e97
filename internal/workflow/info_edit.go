package workflow

import (
	"context"

	acct "github.com/ovaphlow/pitchfork/service-community-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/workflow/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
)

// InfoEdit lets an account ask to change its own name, email or phone.
// Only the captured fields are written on approval.
type InfoEdit struct{}

func (InfoEdit) Kind() entity.Kind { return entity.KindInfoEdit }
func (InfoEdit) NewInput() Input { return &InfoEditInput{} }
func (InfoEdit) SubmitOp() auth.Operation { return auth.OpSubmitInfoEdit }
func (InfoEdit) SeparationOfDuties() bool { return true }
func (InfoEdit) Subject() string { return "edicion_info" }

func (InfoEdit) Prepare(ctx context.Context, r Repos, in Input, p *auth.Principal) (*entity.Request, error) {
	edit, err := inputAs[*InfoEditInput](in)
	if err != nil {
		return nil, err
	}
	target, err := r.Accounts.GetByID(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	if target.Status != acct.StatusActive {
		return nil, errNotActive
	}

	changes := entity.ProfileChanges{}
	if edit.FullName != nil && *edit.FullName != target.FullName {
		changes.FullName = edit.FullName
	}
	if edit.Email != nil && *edit.Email != target.Email {
		taken, err := r.Accounts.EmailTaken(ctx, *edit.Email, target.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, errEmailRegistered
		}
		changes.Email = edit.Email
	}
	if edit.Phone != nil && (target.Phone == nil || *edit.Phone != *target.Phone) {
		changes.Phone = edit.Phone
	}
	if changes.FullName == nil && changes.Email == nil && changes.Phone == nil {
		return nil, apperr.Validation("los datos nuevos son iguales a los actuales")
	}

	payload, err := encodePayload(entity.InfoEditPayload{
		Old: entity.Profile{FullName: target.FullName, Email: target.Email, Phone: target.Phone},
		New: changes,
	})
	if err != nil {
		return nil, err
	}
	return &entity.Request{TargetAccountID: ptr(target.ID), Payload: payload}, nil
}

func (InfoEdit) Apply(ctx context.Context, r Repos, req *entity.Request) (int64, error) {
	id, err := targetOf(req)
	if err != nil {
		return 0, err
	}
	p, err := decodePayload[entity.InfoEditPayload](req)
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
	if p.New.Email != nil {
		taken, err := r.Accounts.EmailTaken(ctx, *p.New.Email, id)
		if err != nil {
			return 0, err
		}
		if taken {
			return 0, errEmailRegistered
		}
	}
	upd := acct.ProfileUpdate{FullName: p.New.FullName, Email: p.New.Email, Phone: p.New.Phone}
	return id, r.Accounts.UpdateProfile(ctx, id, upd)
}
