package workflow

import (
	"context"
	"time"

	acct "github.com/ovaphlow/pitchfork/service-community-go/internal/account/entity"
	audit "github.com/ovaphlow/pitchfork/service-community-go/internal/audit/entity"
	house "github.com/ovaphlow/pitchfork/service-community-go/internal/house/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/workflow/entity"
)

// Accounts is the account access the workflows need.
type Accounts interface {
	GetByID(ctx context.Context, id int64) (*acct.Account, error)
	GetByEmail(ctx context.Context, email string) (*acct.Account, error)
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
	Create(ctx context.Context, a *acct.Account) (int64, error)
	UpdateProfile(ctx context.Context, id int64, upd acct.ProfileUpdate) error
	SetStatus(ctx context.Context, id int64, status string) error
	Reactivate(ctx context.Context, id, houseID int64) error
	SetRole(ctx context.Context, id, roleID int64) error
}

type Roles interface {
	GetByName(ctx context.Context, name string) (*acct.Role, error)
}

type Houses interface {
	GetByNumber(ctx context.Context, number string) (*house.House, error)
}

type Requests interface {
	Insert(ctx context.Context, req *entity.Request) error
	Get(ctx context.Context, id string) (*entity.Request, error)
	PendingExists(ctx context.Context, kind entity.Kind, accountID *int64, email *string) (bool, error)
	ListPending(ctx context.Context, kind entity.Kind) ([]*entity.Request, error)
	Resolve(ctx context.Context, id string, state entity.State, reviewerID int64, comment *string, at time.Time) (bool, error)
	SetTarget(ctx context.Context, id string, accountID int64) error
}

// Sessions revokes refresh sessions.
type Sessions interface {
	DeleteForAccount(ctx context.Context, accountID int64) error
}

type Auditor interface {
	Record(ctx context.Context, e *audit.Entry) error
}

// Repos is a set of repositories bound to one transaction.
type Repos struct {
	Accounts Accounts
	Roles    Roles
	Houses   Houses
	Requests Requests
	Sessions Sessions
	Audit    Auditor
}

// Store runs workflow steps atomically.
type Store interface {
	// Atomic runs fn in a transaction: every write through the given repos
	// commits together or not at all.
	Atomic(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
	// Pending lists pending requests of kind outside any transaction.
	Pending(ctx context.Context, kind entity.Kind) ([]*entity.Request, error)
}
