package domain

import "time"

// PromotionEvent records the intent to ship a document version to another environment.
type PromotionEvent struct {
	ID                int64     `json:"id"`
	SourceEnvironment string    `json:"source_environment"`
	TargetEnvironment string    `json:"target_environment"`
	ResourceType      string    `json:"resource_type"`
	ResourceID        string    `json:"resource_id"`
	VersionNumber     int       `json:"version_number"`
	Status            string    `json:"status"`
	Notes             string    `json:"notes,omitempty"`
	PromotedBy        string    `json:"promoted_by,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

const PromotionRecorded = "recorded"
