package workflow

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	acct "github.com/ovaphlow/pitchfork/service-community-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/workflow/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
)

// Text limits shared by every workflow.
const (
	MinReason      = 10
	MaxReason      = 500
	MinPassword    = 8
	MaxPassword    = 72
	maxFullName    = 100
	maxPhone       = 20
	maxHouseNumber = 20
)

// Input is the submission body of one kind. Validate checks shape only;
// anything that needs the database is checked when the request is prepared.
type Input interface {
	Kind() entity.Kind
	Validate() error
}

type RegistrationInput struct {
	FullName    string  `json:"full_name"`
	Email       string  `json:"email"`
	Phone       *string `json:"phone"`
	HouseNumber string  `json:"house_number"`
	Password    string  `json:"password"`
}

func (*RegistrationInput) Kind() entity.Kind { return entity.KindRegistration }

func (in *RegistrationInput) Validate() error {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = normalizeEmail(in.Email)
	in.HouseNumber = strings.TrimSpace(in.HouseNumber)
	in.Phone = trimOptional(in.Phone)
	if err := checkFullName(in.FullName); err != nil {
		return err
	}
	if err := checkEmail(in.Email); err != nil {
		return err
	}
	if err := checkPhone(in.Phone); err != nil {
		return err
	}
	if err := checkHouseNumber(in.HouseNumber); err != nil {
		return err
	}
	if n := len(in.Password); n < MinPassword || n > MaxPassword {
		return apperr.Validation("la contraseña debe tener entre 8 y 72 caracteres")
	}
	return nil
}

// InfoEditInput lists the profile fields the caller wants to change.
type InfoEditInput struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}

func (*InfoEditInput) Kind() entity.Kind { return entity.KindInfoEdit }

func (in *InfoEditInput) Validate() error {
	in.FullName = trimOptional(in.FullName)
	in.Phone = trimOptional(in.Phone)
	if in.Email != nil {
		e := normalizeEmail(*in.Email)
		in.Email = &e
	}
	if in.FullName == nil && in.Email == nil && in.Phone == nil {
		return apperr.Validation("debe indicar al menos un dato nuevo")
	}
	if in.FullName != nil {
		if err := checkFullName(*in.FullName); err != nil {
			return err
		}
	}
	if in.Email != nil {
		if err := checkEmail(*in.Email); err != nil {
			return err
		}
	}
	return checkPhone(in.Phone)
}

type DeactivationInput struct {
	AccountID int64  `json:"account_id"`
	Motivo    string `json:"motivo"`
}

func (*DeactivationInput) Kind() entity.Kind { return entity.KindDeactivation }

func (in *DeactivationInput) Validate() error {
	if in.AccountID <= 0 {
		return apperr.Validation("cuenta objetivo inválida")
	}
	in.Motivo = strings.TrimSpace(in.Motivo)
	return CheckReason(in.Motivo, "motivo")
}

// ReactivationInput is submitted without a session; the account is found by email.
type ReactivationInput struct {
	Email       string `json:"email"`
	Motivo      string `json:"motivo"`
	HouseNumber string `json:"house_number"`
}

func (*ReactivationInput) Kind() entity.Kind { return entity.KindReactivation }

func (in *ReactivationInput) Validate() error {
	in.Email = normalizeEmail(in.Email)
	in.Motivo = strings.TrimSpace(in.Motivo)
	in.HouseNumber = strings.TrimSpace(in.HouseNumber)
	if err := checkEmail(in.Email); err != nil {
		return err
	}
	if err := CheckReason(in.Motivo, "motivo"); err != nil {
		return err
	}
	return checkHouseNumber(in.HouseNumber)
}

type RoleChangeInput struct {
	AccountID int64  `json:"account_id"`
	NewRole   string `json:"new_role"`
	Motivo    string `json:"motivo"`
}

func (*RoleChangeInput) Kind() entity.Kind { return entity.KindRoleChange }

func (in *RoleChangeInput) Validate() error {
	if in.AccountID <= 0 {
		return apperr.Validation("cuenta objetivo inválida")
	}
	in.NewRole = strings.TrimSpace(in.NewRole)
	if acct.RoleRank(in.NewRole) == 0 {
		return apperr.Validation("rol inválido")
	}
	in.Motivo = strings.TrimSpace(in.Motivo)
	return CheckReason(in.Motivo, "motivo")
}

// CheckReason enforces the 10-500 character rule on a trimmed free-text field.
func CheckReason(s, field string) error {
	n := utf8.RuneCountInString(s)
	if n < MinReason || n > MaxReason {
		return apperr.Validation("el " + field + " debe tener entre 10 y 500 caracteres")
	}
	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func checkEmail(s string) error {
	addr, err := mail.ParseAddress(s)
	if s == "" || err != nil || addr.Address != s {
		return apperr.Validation("correo electrónico inválido")
	}
	return nil
}

func checkFullName(s string) error {
	if s == "" || utf8.RuneCountInString(s) > maxFullName {
		return apperr.Validation("nombre completo inválido")
	}
	return nil
}

func checkPhone(p *string) error {
	if p != nil && utf8.RuneCountInString(*p) > maxPhone {
		return apperr.Validation("teléfono inválido")
	}
	return nil
}

func checkHouseNumber(s string) error {
	if s == "" || len(s) > maxHouseNumber {
		return apperr.Validation("número de vivienda inválido")
	}
	return nil
}

func trimOptional(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
