package transport

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/fastygo/studio/domain"
)

// DocumentRequest is an editor save: every top-level key is a field, except change_note.
type DocumentRequest struct {
	Fields     domain.Fields
	ChangeNote string
}

// DecodeDocument flattens a JSON object into editor fields. Strings are taken as is, null
// clears a field and any other value (numbers, booleans, nested JSON) keeps its compact
// JSON text, so structured fields may be sent either embedded or as strings.
func DecodeDocument(body []byte) (DocumentRequest, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return DocumentRequest{}, domain.ErrInvalidPayload
	}

	fields := make(domain.Fields, len(raw))
	for key, value := range raw {
		text, err := fieldText(value)
		if err != nil {
			return DocumentRequest{}, domain.Invalid(key, "invalid value ("+key+")")
		}
		fields[key] = text
	}

	req := DocumentRequest{Fields: fields}
	if note, ok := fields["change_note"]; ok {
		req.ChangeNote = strings.TrimSpace(note)
		delete(fields, "change_note")
	}
	return req, nil
}

func fieldText(value json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(value)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		return "", nil
	case trimmed[0] == '"':
		var s string
		err := json.Unmarshal(trimmed, &s)
		return s, err
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
}

type WorkflowRequest struct {
	Status             string `json:"status"`
	ScheduledPublishAt string `json:"scheduled_publish_at"`
	ChangeNote         string `json:"change_note"`
}

type SnapshotRequest struct {
	ChangeNote string `json:"change_note"`
}

type BulkRequest struct {
	Action string   `json:"action"`
	IDs    []string `json:"ids"`
}

type PromotionRequest struct {
	ResourceType      string `json:"resource_type"`
	ResourceID        string `json:"resource_id"`
	VersionNumber     int    `json:"version_number"`
	TargetEnvironment string `json:"target_environment"`
	Notes             string `json:"notes"`
}
