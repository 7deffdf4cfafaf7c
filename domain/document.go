package domain

// Kind describes one document type: its entity name, the audit domain it records under and
// the permissions that guard it.
type Kind struct {
	Name      string     `json:"name"`
	Domain    string     `json:"domain"`
	Label     string     `json:"label"`
	Workflow  bool       `json:"workflow"`
	Cloneable bool       `json:"cloneable"`
	Autosave  bool       `json:"autosave"`
	Manage    Permission `json:"manage_permission"`
	Publish   Permission `json:"publish_permission"`
}

// Document is a versioned content record. Implementations embed Meta.
type Document interface {
	Kind() Kind
	Base() *Meta
	DisplayName() string
	// Keys lists the natural keys in priority order; the first one addresses the
	// document in published lookups.
	Keys() []NaturalKey
	// Snapshot renders every field needed to rebuild the document.
	Snapshot() Snapshot
	// Restore loads the fields of a snapshot produced by Snapshot.
	Restore(Snapshot) error
	// Bind applies editor input and validates required and JSON-shaped fields.
	Bind(Fields) error
}

// Cloneable documents can produce a draft copy of themselves.
type Cloneable interface {
	PrepareClone()
}

// NaturalKey is a human meaningful unique identifier of a document.
type NaturalKey struct {
	Field string
	Value string
	// Derived keys were generated from other input and get a numeric suffix on collision
	// instead of failing validation.
	Derived bool

	assign func(string)
}

// NewKey builds a natural key; assign writes a de-duplicated value back into the document.
func NewKey(field, value string, derived bool, assign func(string)) NaturalKey {
	return NaturalKey{Field: field, Value: value, Derived: derived, assign: assign}
}

// Assign replaces the key value on the owning document.
func (k NaturalKey) Assign(value string) {
	if k.assign != nil {
		k.assign(value)
	}
}

// KeyValue is the stored form of a natural key.
type KeyValue struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Record is the storage form shared by every kind: the common columns plus the snapshot payload.
// Keys are written on save; reads leave them empty.
type Record struct {
	Meta
	Kind    string     `json:"kind"`
	Title   string     `json:"title"`
	Keys    []KeyValue `json:"keys"`
	Payload []byte     `json:"payload"`
}

// NewRecord captures doc in its storage form.
func NewRecord(doc Document) *Record {
	rec := &Record{
		Meta:    *doc.Base(),
		Kind:    doc.Kind().Name,
		Title:   doc.DisplayName(),
		Payload: doc.Snapshot().Bytes(),
	}
	for _, key := range doc.Keys() {
		if key.Value == "" {
			continue
		}
		rec.Keys = append(rec.Keys, KeyValue{Field: key.Field, Value: key.Value})
	}
	return rec
}

// Load restores rec into doc, payload first and stored columns last.
func (r *Record) Load(doc Document) error {
	snap, err := ParseSnapshot(r.Payload)
	if err != nil {
		return err
	}
	if err := doc.Restore(snap); err != nil {
		return err
	}
	*doc.Base() = r.Meta
	return nil
}

// restoreMeta reads the workflow fields every snapshot carries.
func restoreMeta(m *Meta, r *SnapshotReader) {
	m.Status = r.Status("status")
	m.ScheduledPublishAt = r.Time("scheduled_publish_at")
	m.PublishedAt = r.Time("published_at")
}

// putMeta appends the workflow fields in their fixed trailing position.
func putMeta(m *Meta, s *Snapshot) {
	s.String("status", string(m.Status))
	s.Time("scheduled_publish_at", m.ScheduledPublishAt)
	s.Time("published_at", m.PublishedAt)
}

// resetForClone turns m into the metadata of a brand new draft.
func (m *Meta) resetForClone() {
	*m = Meta{Status: StatusDraft}
}
