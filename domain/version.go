package domain

import (
	"encoding/json"
	"time"
)

// Version is an immutable snapshot of a document taken at save time.
type Version struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"document_id"`
	Number     int             `json:"version_number"`
	Snapshot   json.RawMessage `json:"snapshot"`
	ChangeNote string          `json:"change_note"`
	CreatedBy  string          `json:"created_by,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ChangeNoteLimit caps the stored length of a change note.
const ChangeNoteLimit = 260
