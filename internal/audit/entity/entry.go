package entity

import (
	"encoding/json"
	"time"
)

// Entry is an immutable record of a state-changing action, mapping to the
// `audit_log` table.
type Entry struct {
	ID             string          `db:"id" json:"id"`
	ActorAccountID *int64          `db:"actor_account_id" json:"actor_account_id,omitempty"`
	ActionType     string          `db:"action_type" json:"action_type"`
	Description    string          `db:"description" json:"description"`
	ExtraData      json.RawMessage `db:"extra_data" json:"extra_data"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// New builds an entry, marshalling extra into ExtraData. A nil map becomes {}.
func New(actor *int64, actionType, description string, extra map[string]any) (*Entry, error) {
	if extra == nil {
		extra = map[string]any{}
	}
	raw, err := json.Marshal(extra)
	if err != nil {
		return nil, err
	}
	return &Entry{
		ActorAccountID: actor,
		ActionType:     actionType,
		Description:    description,
		ExtraData:      raw,
	}, nil
}
