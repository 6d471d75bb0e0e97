package entity

import (
	"encoding/json"
	"time"
)

// Kind identifies one of the request workflows. The value doubles as the URL
// segment under /api/requests.
type Kind string

const (
	KindRegistration Kind = "registration"
	KindInfoEdit     Kind = "info-edit"
	KindDeactivation Kind = "deactivation"
	KindReactivation Kind = "reactivation"
	KindRoleChange   Kind = "role-change"
)

// Kinds lists every workflow kind.
var Kinds = []Kind{KindRegistration, KindInfoEdit, KindDeactivation, KindReactivation, KindRoleChange}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// State is the request lifecycle state. pendiente is the only non-terminal state.
type State string

const (
	StatePendiente State = "pendiente"
	StateAprobada  State = "aprobada"
	StateRechazada State = "rechazada"
)

// Request is a row in the `requests` table. Kind-specific fields live in Payload.
type Request struct {
	ID              string          `db:"id" json:"id"`
	Kind            Kind            `db:"kind" json:"kind"`
	SubmitterID     *int64          `db:"submitter_id" json:"submitter_id,omitempty"`
	TargetAccountID *int64          `db:"target_account_id" json:"target_account_id,omitempty"`
	TargetEmail     *string         `db:"target_email" json:"target_email,omitempty"`
	State           State           `db:"state" json:"state"`
	Payload         json.RawMessage `db:"payload" json:"payload"`
	CredentialHash  *string         `db:"credential_hash" json:"-"`
	SubmittedAt     time.Time       `db:"submitted_at" json:"submitted_at"`
	ReviewedAt      *time.Time      `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewerID      *int64          `db:"reviewer_id" json:"reviewer_id,omitempty"`
	ReviewComment   *string         `db:"review_comment" json:"review_comment,omitempty"`
}

// Pending reports whether the request can still be reviewed.
func (r *Request) Pending() bool { return r.State == StatePendiente }

// RegistrationPayload is captured when a prospective resident signs up.
type RegistrationPayload struct {
	FullName    string  `json:"full_name"`
	Email       string  `json:"email"`
	Phone       *string `json:"phone,omitempty"`
	HouseNumber string  `json:"house_number"`
}

// Profile is the editable part of an account.
type Profile struct {
	FullName string  `json:"full_name"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone,omitempty"`
}

// ProfileChanges holds only the fields that should change.
type ProfileChanges struct {
	FullName *string `json:"full_name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

type InfoEditPayload struct {
	Old Profile        `json:"old"`
	New ProfileChanges `json:"new"`
}

type DeactivationPayload struct {
	Motivo string `json:"motivo"`
}

type ReactivationPayload struct {
	Motivo      string `json:"motivo"`
	HouseNumber string `json:"house_number"`
}

// Role change directions.
const (
	ChangePromocion   = "promocion"
	ChangeDegradacion = "degradacion"
)

type RoleChangePayload struct {
	CurrentRole string `json:"current_role"`
	NewRole     string `json:"new_role"`
	ChangeType  string `json:"change_type"`
	Motivo      string `json:"motivo"`
}
