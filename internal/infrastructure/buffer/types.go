package buffer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/studio/domain"
)

// Entities replayed from the buffer.
const (
	EntityVersion = "version"
	EntityAudit   = "audit"
)

// Versions replay before audit events so history is complete before it is described.
var entityPriority = map[string]int{
	EntityVersion: 1,
	EntityAudit:   3,
}

// Item is a best-effort write that could not reach primary storage and waits for replay.
// Subject is the document the write belongs to.
type Item struct {
	ID        string          `json:"id"`
	Subject   string          `json:"subject"`
	Entity    string          `json:"entity"`
	Data      json.RawMessage `json:"data"`
	Priority  int             `json:"priority"`
	Retries   int             `json:"retries"`
	LastError string          `json:"last_error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// VersionItem wraps a version snapshot that missed the ledger. The version id doubles as
// the item id so a repeated buffering of the same version replaces the earlier one.
func VersionItem(version *domain.Version) (Item, error) {
	if version == nil {
		return Item{}, domain.ErrInvalidPayload
	}
	data, err := json.Marshal(version)
	if err != nil {
		return Item{}, err
	}
	return Item{ID: version.ID, Subject: version.DocumentID, Entity: EntityVersion, Data: data}, nil
}

// AuditItem wraps an audit event that missed the audit table.
func AuditItem(event *domain.AuditEvent) (Item, error) {
	if event == nil {
		return Item{}, domain.ErrInvalidPayload
	}
	data, err := json.Marshal(event)
	if err != nil {
		return Item{}, err
	}
	return Item{Subject: event.EntityID, Entity: EntityAudit, Data: data}, nil
}

// Version decodes a version item.
func (i Item) Version() (*domain.Version, error) {
	if i.Entity != EntityVersion {
		return nil, fmt.Errorf("buffer item %s holds %q, not a version", i.ID, i.Entity)
	}
	var version domain.Version
	if err := json.Unmarshal(i.Data, &version); err != nil {
		return nil, err
	}
	return &version, nil
}

// Audit decodes an audit item. The stored id is cleared so the audit table assigns a new one.
func (i Item) Audit() (*domain.AuditEvent, error) {
	if i.Entity != EntityAudit {
		return nil, fmt.Errorf("buffer item %s holds %q, not an audit event", i.ID, i.Entity)
	}
	var event domain.AuditEvent
	if err := json.Unmarshal(i.Data, &event); err != nil {
		return nil, err
	}
	event.ID = 0
	return &event, nil
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority <= 0 || i.Priority > 5 {
		if p, ok := entityPriority[i.Entity]; ok {
			i.Priority = p
		} else {
			i.Priority = 5
		}
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
