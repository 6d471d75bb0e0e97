package workflow

import (
	"context"

	acct "github.com/ovaphlow/pitchfork/service-community-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/workflow/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
)

// Hasher hashes the password captured with a registration.
type Hasher interface {
	Hash(pw string) (string, error)
}

var errEmailRegistered = apperr.Conflict("el correo ya está registrado")

// Registration lets a prospective resident ask for an account. Approval
// creates an active vecino account in the requested house.
type Registration struct {
	hasher Hasher
}

func NewRegistration(h Hasher) *Registration { return &Registration{hasher: h} }

func (*Registration) Kind() entity.Kind { return entity.KindRegistration }
func (*Registration) NewInput() Input { return &RegistrationInput{} }
func (*Registration) SubmitOp() auth.Operation { return auth.OpSubmitRegistration }
func (*Registration) SeparationOfDuties() bool { return false }
func (*Registration) Subject() string { return "registro" }

func (d *Registration) Prepare(ctx context.Context, r Repos, in Input, _ *auth.Principal) (*entity.Request, error) {
	reg, err := inputAs[*RegistrationInput](in)
	if err != nil {
		return nil, err
	}
	taken, err := r.Accounts.EmailTaken(ctx, reg.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errEmailRegistered
	}
	if _, err := r.Houses.GetByNumber(ctx, reg.HouseNumber); err != nil {
		return nil, err
	}
	hash, err := d.hasher.Hash(reg.Password)
	if err != nil {
		return nil, err
	}
	payload, err := encodePayload(entity.RegistrationPayload{
		FullName:    reg.FullName,
		Email:       reg.Email,
		Phone:       reg.Phone,
		HouseNumber: reg.HouseNumber,
	})
	if err != nil {
		return nil, err
	}
	return &entity.Request{
		TargetEmail:    ptr(reg.Email),
		Payload:        payload,
		CredentialHash: ptr(hash),
	}, nil
}

func (d *Registration) Apply(ctx context.Context, r Repos, req *entity.Request) (int64, error) {
	p, err := decodePayload[entity.RegistrationPayload](req)
	if err != nil {
		return 0, err
	}
	if req.CredentialHash == nil {
		return 0, apperr.Conflict("la solicitud no conserva credenciales")
	}
	taken, err := r.Accounts.EmailTaken(ctx, p.Email, 0)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, errEmailRegistered
	}
	h, err := r.Houses.GetByNumber(ctx, p.HouseNumber)
	if err != nil {
		return 0, err
	}
	role, err := r.Roles.GetByName(ctx, acct.RoleVecino)
	if err != nil {
		return 0, err
	}
	return r.Accounts.Create(ctx, &acct.Account{
		FullName:     p.FullName,
		Email:        p.Email,
		Phone:        p.Phone,
		PasswordHash: *req.CredentialHash,
		RoleID:       role.ID,
		RoleName:     role.Name,
		HouseID:      ptr(h.ID),
		Status:       acct.StatusActive,
	})
}
