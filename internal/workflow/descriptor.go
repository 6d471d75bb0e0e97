package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ovaphlow/pitchfork/service-community-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/workflow/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
)

// Descriptor supplies the kind-specific parts of a workflow. The engine owns
// everything shared: state transitions, duplicate detection, auditing and
// transactions.
type Descriptor interface {
	Kind() entity.Kind
	// NewInput returns an empty input for decoding a submission body.
	NewInput() Input
	// SubmitOp is the gate operation for submitting this kind.
	SubmitOp() auth.Operation
	// Prepare checks the target and submitter and returns a request carrying
	// the target keys and payload. Identity and state are filled by the engine.
	Prepare(ctx context.Context, r Repos, in Input, p *auth.Principal) (*entity.Request, error)
	// Apply performs the approved mutation and returns the affected account.
	Apply(ctx context.Context, r Repos, req *entity.Request) (int64, error)
	// SeparationOfDuties forbids the submitter from reviewing the request.
	SeparationOfDuties() bool
	// Subject is the noun used in audit action types, e.g. "registro".
	Subject() string
}

func encodePayload(v any) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return raw, nil
}

func decodePayload[T any](req *entity.Request) (T, error) {
	var v T
	if err := json.Unmarshal(req.Payload, &v); err != nil {
		return v, fmt.Errorf("decode %s payload %s: %w", req.Kind, req.ID, err)
	}
	return v, nil
}

func inputAs[T Input](in Input) (T, error) {
	v, ok := in.(T)
	if !ok {
		var zero T
		return zero, apperr.Validation("datos de solicitud inválidos")
	}
	return v, nil
}

func targetOf(req *entity.Request) (int64, error) {
	if req.TargetAccountID == nil {
		return 0, fmt.Errorf("%s request %s has no target account", req.Kind, req.ID)
	}
	return *req.TargetAccountID, nil
}

func ptr[T any](v T) *T { return &v }
