package auth

import (
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
)

// Operation names a capability checked by Allow.
type Operation string

const (
	OpSubmitRegistration Operation = "submit_registration"
	OpSubmitReactivation Operation = "submit_reactivation"
	OpSubmitInfoEdit     Operation = "submit_info_edit"
	OpSubmitDeactivation Operation = "submit_deactivation"
	OpSubmitRoleChange   Operation = "submit_role_change"
	OpListRequests       Operation = "list_requests"
	OpReviewRequests     Operation = "review_requests"
	OpViewHouses         Operation = "view_houses"
	OpManageHouses       Operation = "manage_houses"
	OpListAccounts       Operation = "list_accounts"
	OpViewSelf           Operation = "view_self"
)

// public operations need no session; Registration and Reactivation are
// submitted by people without a usable account.
var public = map[Operation]bool{
	OpSubmitRegistration: true,
	OpSubmitReactivation: true,
}

var reviewerOnly = map[Operation]bool{
	OpListRequests:   true,
	OpReviewRequests: true,
	OpManageHouses:   true,
	OpListAccounts:   true,
}

// Allow decides whether p may perform op. A nil principal is anonymous.
// Target-specific rules (self-only edits, same-house deactivation) are
// enforced by the request kind, not here.
func Allow(p *Principal, op Operation) error {
	if public[op] {
		return nil
	}
	if p == nil {
		return apperr.Authentication("se requiere iniciar sesión")
	}
	if p.IsSuperAdmin() {
		return nil
	}
	if reviewerOnly[op] && !p.IsReviewer() {
		return apperr.Authorization("permisos insuficientes")
	}
	return nil
}
