package workflow

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	acct "github.com/ovaphlow/pitchfork/service-community-go/internal/account/entity"
	audit "github.com/ovaphlow/pitchfork/service-community-go/internal/audit/entity"
	house "github.com/ovaphlow/pitchfork/service-community-go/internal/house/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/workflow/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
)

// memState is the whole database of the in-memory store.
type memState struct {
	accounts    map[int64]acct.Account
	roles       map[string]acct.Role
	houses      map[string]house.House
	requests    map[string]entity.Request
	audit       []audit.Entry
	sessions    map[int64]int
	nextAccount int64
}

func (s *memState) clone() *memState {
	c := &memState{
		accounts:    make(map[int64]acct.Account, len(s.accounts)),
		roles:       make(map[string]acct.Role, len(s.roles)),
		houses:      make(map[string]house.House, len(s.houses)),
		requests:    make(map[string]entity.Request, len(s.requests)),
		audit:       append([]audit.Entry(nil), s.audit...),
		sessions:    make(map[int64]int, len(s.sessions)),
		nextAccount: s.nextAccount,
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.roles {
		c.roles[k] = v
	}
	for k, v := range s.houses {
		c.houses[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	return c
}

// memStore serializes Atomic calls and restores the snapshot taken before fn
// when fn fails.
type memStore struct {
	mu sync.Mutex
	st *memState
	// beforeResolve runs inside Resolve, before the state comparison.
	beforeResolve func(st *memState, id string)
}

func (m *memStore) Atomic(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.st.clone()
	tx := &memTx{st: m.st, store: m}
	if err := fn(ctx, Repos{Accounts: tx, Roles: tx, Houses: tx, Requests: tx, Sessions: tx, Audit: tx}); err != nil {
		*m.st = *snap
		return err
	}
	return nil
}

func (m *memStore) Pending(ctx context.Context, kind entity.Kind) ([]*entity.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{st: m.st, store: m}).ListPending(ctx, kind)
}

// snapshot returns a copy of the state for assertions.
func (m *memStore) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.clone()
}

func (m *memStore) auditCount(action string) int {
	n := 0
	for _, e := range m.snapshot().audit {
		if e.ActionType == action {
			n++
		}
	}
	return n
}

type memTx struct {
	st    *memState
	store *memStore
}

func (t *memTx) withRole(a acct.Account) *acct.Account {
	for _, r := range t.st.roles {
		if r.ID == a.RoleID {
			a.RoleName = r.Name
		}
	}
	return &a
}

func (t *memTx) GetByID(_ context.Context, id int64) (*acct.Account, error) {
	a, ok := t.st.accounts[id]
	if !ok {
		return nil, apperr.NotFound("cuenta no encontrada")
	}
	return t.withRole(a), nil
}

func (t *memTx) GetByEmail(_ context.Context, email string) (*acct.Account, error) {
	for _, a := range t.st.accounts {
		if strings.EqualFold(a.Email, email) {
			return t.withRole(a), nil
		}
	}
	return nil, apperr.NotFound("cuenta no encontrada")
}

func (t *memTx) EmailTaken(_ context.Context, email string, exceptID int64) (bool, error) {
	for _, a := range t.st.accounts {
		if a.ID != exceptID && strings.EqualFold(a.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) Create(ctx context.Context, a *acct.Account) (int64, error) {
	if taken, _ := t.EmailTaken(ctx, a.Email, 0); taken {
		return 0, apperr.Conflict("el correo ya está registrado")
	}
	t.st.nextAccount++
	a.ID = t.st.nextAccount
	t.st.accounts[a.ID] = *a
	return a.ID, nil
}

func (t *memTx) update(id int64, fn func(a *acct.Account)) error {
	a, ok := t.st.accounts[id]
	if !ok {
		return apperr.NotFound("cuenta no encontrada")
	}
	fn(&a)
	t.st.accounts[id] = a
	return nil
}

func (t *memTx) UpdateProfile(_ context.Context, id int64, upd acct.ProfileUpdate) error {
	return t.update(id, func(a *acct.Account) {
		if upd.FullName != nil {
			a.FullName = *upd.FullName
		}
		if upd.Email != nil {
			a.Email = *upd.Email
		}
		if upd.Phone != nil {
			a.Phone = upd.Phone
		}
	})
}

func (t *memTx) SetStatus(_ context.Context, id int64, status string) error {
	return t.update(id, func(a *acct.Account) { a.Status = status })
}

func (t *memTx) Reactivate(_ context.Context, id, houseID int64) error {
	return t.update(id, func(a *acct.Account) {
		a.Status = acct.StatusActive
		a.HouseID = &houseID
		a.FailedLoginAttempts = 0
		a.LockedUntil = nil
	})
}

func (t *memTx) SetRole(_ context.Context, id, roleID int64) error {
	return t.update(id, func(a *acct.Account) { a.RoleID = roleID })
}

func (t *memTx) GetByName(_ context.Context, name string) (*acct.Role, error) {
	r, ok := t.st.roles[name]
	if !ok {
		return nil, apperr.NotFound("rol no encontrado")
	}
	return &r, nil
}

func (t *memTx) GetByNumber(_ context.Context, number string) (*house.House, error) {
	h, ok := t.st.houses[number]
	if !ok {
		return nil, apperr.NotFound("vivienda no encontrada")
	}
	return &h, nil
}

func (t *memTx) Insert(ctx context.Context, req *entity.Request) error {
	if dup, _ := t.PendingExists(ctx, req.Kind, req.TargetAccountID, req.TargetEmail); dup {
		return apperr.Conflict("ya existe una solicitud pendiente para esta cuenta")
	}
	t.st.requests[req.ID] = *req
	return nil
}

func (t *memTx) Get(_ context.Context, id string) (*entity.Request, error) {
	r, ok := t.st.requests[id]
	if !ok {
		return nil, apperr.NotFound("solicitud no encontrada")
	}
	return &r, nil
}

func (t *memTx) PendingExists(_ context.Context, kind entity.Kind, accountID *int64, email *string) (bool, error) {
	for _, r := range t.st.requests {
		if r.Kind != kind || r.State != entity.StatePendiente {
			continue
		}
		if accountID != nil && r.TargetAccountID != nil && *accountID == *r.TargetAccountID {
			return true, nil
		}
		if email != nil && r.TargetEmail != nil && strings.EqualFold(*email, *r.TargetEmail) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) ListPending(_ context.Context, kind entity.Kind) ([]*entity.Request, error) {
	out := []*entity.Request{}
	for _, r := range t.st.requests {
		if r.Kind == kind && r.State == entity.StatePendiente {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (t *memTx) Resolve(_ context.Context, id string, state entity.State, reviewerID int64, comment *string, at time.Time) (bool, error) {
	if t.store.beforeResolve != nil {
		t.store.beforeResolve(t.st, id)
	}
	r, ok := t.st.requests[id]
	if !ok || r.State != entity.StatePendiente {
		return false, nil
	}
	r.State = state
	r.ReviewerID = &reviewerID
	r.ReviewComment = comment
	r.ReviewedAt = &at
	t.st.requests[id] = r
	return true, nil
}

func (t *memTx) SetTarget(_ context.Context, id string, accountID int64) error {
	r, ok := t.st.requests[id]
	if !ok {
		return apperr.NotFound("solicitud no encontrada")
	}
	r.TargetAccountID = &accountID
	t.st.requests[id] = r
	return nil
}

func (t *memTx) DeleteForAccount(_ context.Context, accountID int64) error {
	delete(t.st.sessions, accountID)
	return nil
}

func (t *memTx) Record(_ context.Context, e *audit.Entry) error {
	e.ID = "audit-" + strconv.Itoa(len(t.st.audit)+1)
	t.st.audit = append(t.st.audit, *e)
	return nil
}
