// Package workflow runs the approval workflows: a request is submitted as
// pendiente and a reviewer moves it to aprobada or rechazada exactly once.
// Approval applies the kind's mutation, flips the state and appends an audit
// entry in one transaction.
package workflow

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	audit "github.com/ovaphlow/pitchfork/service-community-go/internal/audit/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/workflow/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/utilities"
)

// Decision is a reviewer's verdict.
type Decision string

const (
	Approve Decision = "approve"
	Reject  Decision = "reject"
)

var (
	ErrAlreadyProcessed = apperr.Conflict("la solicitud ya fue procesada")
	ErrDuplicatePending = apperr.Conflict("ya existe una solicitud pendiente para esta cuenta")
	ErrSelfReview       = apperr.Conflict("no puede revisar una solicitud que usted mismo envió")
	errRequestNotFound  = apperr.NotFound("solicitud no encontrada")
)

// Engine drives every request kind through the same lifecycle.
type Engine struct {
	store  Store
	kinds  map[entity.Kind]Descriptor
	logger *zap.SugaredLogger
	now    func() time.Time
	newID  func() string
}

func NewEngine(store Store, logger *zap.SugaredLogger, descriptors ...Descriptor) *Engine {
	kinds := make(map[entity.Kind]Descriptor, len(descriptors))
	for _, d := range descriptors {
		kinds[d.Kind()] = d
	}
	return &Engine{
		store:  store,
		kinds:  kinds,
		logger: logger,
		now:    time.Now,
		newID:  utilities.NewSnowflakeID,
	}
}

// Descriptor returns the registered descriptor for kind.
func (e *Engine) Descriptor(kind entity.Kind) (Descriptor, error) {
	d, ok := e.kinds[kind]
	if !ok {
		return nil, apperr.NotFound("tipo de solicitud desconocido")
	}
	return d, nil
}

// Submit validates in and stores a new pending request of kind. p is nil for
// anonymous callers.
func (e *Engine) Submit(ctx context.Context, kind entity.Kind, in Input, p *auth.Principal) (*entity.Request, error) {
	d, err := e.Descriptor(kind)
	if err != nil {
		return nil, err
	}
	if err := auth.Allow(p, d.SubmitOp()); err != nil {
		return nil, err
	}
	if in == nil || in.Kind() != kind {
		return nil, apperr.Validation("datos de solicitud inválidos")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var out *entity.Request
	err = e.store.Atomic(ctx, func(ctx context.Context, r Repos) error {
		req, err := d.Prepare(ctx, r, in, p)
		if err != nil {
			return err
		}
		dup, err := r.Requests.PendingExists(ctx, kind, req.TargetAccountID, req.TargetEmail)
		if err != nil {
			return err
		}
		if dup {
			return ErrDuplicatePending
		}

		req.ID = e.newID()
		req.Kind = kind
		req.State = entity.StatePendiente
		req.SubmitterID = p.ID()
		req.SubmittedAt = e.now().UTC()
		if err := r.Requests.Insert(ctx, req); err != nil {
			return err
		}

		extra := map[string]any{"request_id": req.ID}
		if req.TargetAccountID != nil {
			extra["target_account_id"] = *req.TargetAccountID
		}
		if err := record(ctx, r, p.ID(), "solicitud_"+d.Subject(), "solicitud de "+d.Subject()+" enviada", extra); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Infow("request submitted", "kind", kind, "request_id", out.ID, "submitter", out.SubmitterID)
	return out, nil
}

// ListPending returns the pending requests of kind, newest first.
func (e *Engine) ListPending(ctx context.Context, kind entity.Kind, p *auth.Principal) ([]*entity.Request, error) {
	if _, err := e.Descriptor(kind); err != nil {
		return nil, err
	}
	if err := auth.Allow(p, auth.OpListRequests); err != nil {
		return nil, err
	}
	return e.store.Pending(ctx, kind)
}

// Review approves or rejects a pending request. Rejection needs a reason of
// 10-500 characters; an approval comment is optional.
func (e *Engine) Review(ctx context.Context, kind entity.Kind, id string, decision Decision, reviewer *auth.Principal, comment string) (*entity.Request, error) {
	d, err := e.Descriptor(kind)
	if err != nil {
		return nil, err
	}
	if err := auth.Allow(reviewer, auth.OpReviewRequests); err != nil {
		return nil, err
	}
	note, err := checkComment(decision, comment)
	if err != nil {
		return nil, err
	}

	var out *entity.Request
	err = e.store.Atomic(ctx, func(ctx context.Context, r Repos) error {
		req, err := r.Requests.Get(ctx, id)
		if err != nil {
			return err
		}
		if req.Kind != kind {
			return errRequestNotFound
		}
		if !req.Pending() {
			return ErrAlreadyProcessed
		}
		if d.SeparationOfDuties() && req.SubmitterID != nil && *req.SubmitterID == reviewer.AccountID {
			return ErrSelfReview
		}

		state := entity.StateRechazada
		if decision == Approve {
			state = entity.StateAprobada
		}
		at := e.now().UTC()
		won, err := r.Requests.Resolve(ctx, req.ID, state, reviewer.AccountID, note, at)
		if err != nil {
			return err
		}
		if !won {
			return ErrAlreadyProcessed
		}
		req.State = state
		req.ReviewedAt = &at
		req.ReviewerID = reviewer.ID()
		req.ReviewComment = note

		extra := map[string]any{"request_id": req.ID}
		action, desc := "rechazo_"+d.Subject(), "solicitud de "+d.Subject()+" rechazada"
		if decision == Approve {
			target, err := d.Apply(ctx, r, req)
			if err != nil {
				return err
			}
			if req.TargetAccountID == nil || *req.TargetAccountID != target {
				if err := r.Requests.SetTarget(ctx, req.ID, target); err != nil {
					return err
				}
				req.TargetAccountID = &target
			}
			action, desc = "aprobacion_"+d.Subject(), "solicitud de "+d.Subject()+" aprobada"
		}
		if req.TargetAccountID != nil {
			extra["target_account_id"] = *req.TargetAccountID
		}
		if note != nil {
			extra["comentario"] = *note
		}
		if err := record(ctx, r, reviewer.ID(), action, desc, extra); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Infow("request reviewed", "kind", kind, "request_id", id, "state", out.State, "reviewer", reviewer.AccountID)
	return out, nil
}

func checkComment(decision Decision, comment string) (*string, error) {
	comment = strings.TrimSpace(comment)
	switch decision {
	case Reject:
		if err := CheckReason(comment, "motivo de rechazo"); err != nil {
			return nil, err
		}
		return &comment, nil
	case Approve:
		if comment == "" {
			return nil, nil
		}
		if utf8.RuneCountInString(comment) > MaxReason {
			return nil, apperr.Validation("el comentario no puede superar 500 caracteres")
		}
		return &comment, nil
	default:
		return nil, apperr.Validation("decisión inválida")
	}
}

func record(ctx context.Context, r Repos, actor *int64, action, desc string, extra map[string]any) error {
	entry, err := audit.New(actor, action, desc, extra)
	if err != nil {
		return err
	}
	return r.Audit.Record(ctx, entry)
}
