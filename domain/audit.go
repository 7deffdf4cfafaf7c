package domain

import (
	"encoding/json"
	"time"
)

// AuditEvent is an append-only record of a mutating action. Before and After hold encoded
// snapshots and may be empty.
type AuditEvent struct {
	ID             int64           `json:"id"`
	Domain         string          `json:"domain"`
	Action         string          `json:"action"`
	EntityType     string          `json:"entity_type"`
	EntityID       string          `json:"entity_id"`
	Before         json.RawMessage `json:"before,omitempty"`
	After          json.RawMessage `json:"after,omitempty"`
	ActorID        string          `json:"actor_id,omitempty"`
	ActorName      string          `json:"actor_name"`
	ActorIP        string          `json:"actor_ip"`
	ActorUserAgent string          `json:"actor_user_agent,omitempty"`
	Environment    string          `json:"environment"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Audit actions recorded by the document store.
const (
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionWorkflow = "workflow"
	ActionSnapshot = "snapshot"
	ActionRestore  = "restore"
	ActionClone    = "clone"
	ActionTrash    = "trash"
	ActionUntrash  = "untrash"
	ActionDelete   = "delete"
	ActionRecord   = "record"
)
