package domain

import (
	"strings"
	"time"
)

// Status is the workflow stage of a document.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusReview    Status = "review"
	StatusApproved  Status = "approved"
	StatusPublished Status = "published"
)

// Statuses lists every workflow stage in editorial order.
var Statuses = []Status{StatusDraft, StatusReview, StatusApproved, StatusPublished}

var statusLabels = map[Status]string{
	StatusDraft:     "Draft",
	StatusReview:    "In Review",
	StatusApproved:  "Approved",
	StatusPublished: "Published",
}

// Valid reports whether s is one of the four workflow stages.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the human readable stage name.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return statusLabels[StatusDraft]
}

// NormalizeStatus maps arbitrary input onto a workflow stage. Unknown input yields fallback,
// and an invalid fallback yields draft, so the result is always a valid stage.
func NormalizeStatus(raw string, fallback Status) Status {
	candidate := Status(strings.ToLower(strings.TrimSpace(raw)))
	if candidate.Valid() {
		return candidate
	}
	if fallback.Valid() {
		return fallback
	}
	return StatusDraft
}

// MaybePublish stamps PublishedAt with now when status is published, the schedule (if any)
// has been reached and the document was never published before. It reports whether it stamped.
func MaybePublish(meta *Meta, status Status, scheduledAt *time.Time, now time.Time) bool {
	if meta == nil || status != StatusPublished || meta.PublishedAt != nil {
		return false
	}
	if scheduledAt != nil && scheduledAt.After(now) {
		return false
	}
	stamp := now
	meta.PublishedAt = &stamp
	return true
}

// Meta carries the identity, workflow and ownership fields shared by every document kind.
type Meta struct {
	ID                 string     `json:"id"`
	Status             Status     `json:"status,omitempty"`
	ScheduledPublishAt *time.Time `json:"scheduled_publish_at"`
	PublishedAt        *time.Time `json:"published_at"`
	Trashed            bool       `json:"is_trashed"`
	TrashedAt          *time.Time `json:"trashed_at,omitempty"`
	CreatedBy          string     `json:"created_by,omitempty"`
	UpdatedBy          string     `json:"updated_by,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Base exposes the shared fields; kinds embed Meta and inherit it.
func (m *Meta) Base() *Meta {
	return m
}

// Touch refreshes the modification stamp and fills the creation stamp on first save.
func (m *Meta) Touch(actorID string, now time.Time) {
	if m == nil {
		return
	}
	m.UpdatedAt = now
	m.UpdatedBy = actorID
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
		m.CreatedBy = actorID
	}
}

// Live reports whether the document is published and its schedule has been reached.
func (m *Meta) Live(now time.Time) bool {
	if m == nil || m.Trashed || m.Status != StatusPublished {
		return false
	}
	return m.ScheduledPublishAt == nil || !m.ScheduledPublishAt.After(now)
}

// Scheduled reports the published-but-waiting sub-state.
func (m *Meta) Scheduled(now time.Time) bool {
	if m == nil || m.Status != StatusPublished || m.ScheduledPublishAt == nil {
		return false
	}
	return m.ScheduledPublishAt.After(now)
}

// ParseSchedule accepts the datetime-local form (2006-01-02T15:04) and RFC 3339.
// Empty or unparsable input yields nil.
func ParseSchedule(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	return nil
}
