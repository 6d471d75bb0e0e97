package workflow

import (
	"context"

	acct "github.com/ovaphlow/pitchfork/service-community-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/workflow/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
)

// RoleChange promotes or demotes an account.
type RoleChange struct{}

func (RoleChange) Kind() entity.Kind { return entity.KindRoleChange }
func (RoleChange) NewInput() Input { return &RoleChangeInput{} }
func (RoleChange) SubmitOp() auth.Operation { return auth.OpSubmitRoleChange }
func (RoleChange) SeparationOfDuties() bool { return true }
func (RoleChange) Subject() string { return "cambio_rol" }

func (RoleChange) Prepare(ctx context.Context, r Repos, in Input, p *auth.Principal) (*entity.Request, error) {
	rc, err := inputAs[*RoleChangeInput](in)
	if err != nil {
		return nil, err
	}
	target, err := r.Accounts.GetByID(ctx, rc.AccountID)
	if err != nil {
		return nil, err
	}
	if target.Status != acct.StatusActive {
		return nil, errNotActive
	}
	if target.RoleName == rc.NewRole {
		return nil, apperr.Conflict("la cuenta ya tiene ese rol")
	}
	if (target.RoleName == acct.RoleSuperAdmin || rc.NewRole == acct.RoleSuperAdmin) && !p.IsSuperAdmin() {
		return nil, apperr.Authorization("solo un super_admin puede solicitar cambios que involucren super_admin")
	}
	change := entity.ChangePromocion
	if acct.RoleRank(rc.NewRole) < acct.RoleRank(target.RoleName) {
		change = entity.ChangeDegradacion
	}
	payload, err := encodePayload(entity.RoleChangePayload{
		CurrentRole: target.RoleName,
		NewRole:     rc.NewRole,
		ChangeType:  change,
		Motivo:      rc.Motivo,
	})
	if err != nil {
		return nil, err
	}
	return &entity.Request{TargetAccountID: ptr(target.ID), Payload: payload}, nil
}

func (RoleChange) Apply(ctx context.Context, r Repos, req *entity.Request) (int64, error) {
	id, err := targetOf(req)
	if err != nil {
		return 0, err
	}
	p, err := decodePayload[entity.RoleChangePayload](req)
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
	if target.RoleName != p.CurrentRole {
		return 0, apperr.Conflict("el rol de la cuenta cambió desde que se envió la solicitud")
	}
	role, err := r.Roles.GetByName(ctx, p.NewRole)
	if err != nil {
		return 0, err
	}
	return id, r.Accounts.SetRole(ctx, id, role.ID)
}
