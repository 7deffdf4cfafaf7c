package domain

var ContentTypeKind = Kind{
	Name:   "content_type",
	Domain: "content-types",
	Label:  "Content type",
	Manage: PermStudioContentManage,
}

var ContentEntryKind = Kind{
	Name:     "content_entry",
	Domain:   "content-entries",
	Label:    "Content entry",
	Workflow: true,
	Manage:   PermStudioContentManage,
	Publish:  PermStudioPublish,
}

// ContentType declares the schema of a family of headless entries. It is versioned but has no
// workflow.
type ContentType struct {
	Meta
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SchemaJSON  string `json:"schema_json"`
	IsEnabled   bool   `json:"is_enabled"`
}

func NewContentType() *ContentType {
	return &ContentType{IsEnabled: true}
}

func (c *ContentType) Kind() Kind          { return ContentTypeKind }
func (c *ContentType) DisplayName() string { return c.Name }

func (c *ContentType) Keys() []NaturalKey {
	return []NaturalKey{NewKey("key", c.Key, false, func(v string) { c.Key = v })}
}

func (c *ContentType) Snapshot() Snapshot {
	s := NewSnapshot().
		String("key", c.Key).
		String("name", c.Name).
		String("description", c.Description).
		String("schema_json", c.SchemaJSON).
		Bool("is_enabled", c.IsEnabled)
	return *s
}

func (c *ContentType) Restore(snap Snapshot) error {
	r := snap.Reader()
	c.Key = r.String("key")
	c.Name = r.String("name")
	c.Description = r.String("description")
	c.SchemaJSON = r.String("schema_json")
	c.IsEnabled = r.Bool("is_enabled")
	return r.Err()
}

func (c *ContentType) Bind(f Fields) error {
	if f.Has("key") {
		c.Key = KeyName(Clean(f["key"], 120))
	}
	f.Text("name", &c.Name, 160)
	f.Text("description", &c.Description, 0)
	f.Bool("is_enabled", &c.IsEnabled)
	if err := Require(Requirement{"key", c.Key}, Requirement{"name", c.Name}); err != nil {
		return err
	}
	return f.JSON("schema_json", &c.SchemaJSON, ShapeObject)
}

// ContentEntry is one localized headless record of a content type.
type ContentEntry struct {
	Meta
	ContentTypeID string `json:"content_type_id"`
	EntryKey      string `json:"entry_key"`
	Title         string `json:"title"`
	Locale        string `json:"locale"`
	DataJSON      string `json:"data_json"`
}

func NewContentEntry() *ContentEntry {
	return &ContentEntry{Meta: Meta{Status: StatusDraft}, Locale: defaultLocale}
}

func (e *ContentEntry) Kind() Kind          { return ContentEntryKind }
func (e *ContentEntry) DisplayName() string { return e.Title }

// Keys addresses an entry by type, locale and entry key together.
func (e *ContentEntry) Keys() []NaturalKey {
	if e.ContentTypeID == "" || e.EntryKey == "" {
		return nil
	}
	return []NaturalKey{NewKey("entry_key", e.ContentTypeID+"/"+e.Locale+"/"+e.EntryKey, false, nil)}
}

func (e *ContentEntry) Snapshot() Snapshot {
	s := NewSnapshot().
		String("content_type_id", e.ContentTypeID).
		String("entry_key", e.EntryKey).
		String("title", e.Title).
		String("locale", e.Locale).
		String("data_json", e.DataJSON)
	putMeta(&e.Meta, s)
	return *s
}

func (e *ContentEntry) Restore(snap Snapshot) error {
	r := snap.Reader()
	e.ContentTypeID = r.String("content_type_id")
	e.EntryKey = r.String("entry_key")
	e.Title = r.String("title")
	e.Locale = r.String("locale")
	e.DataJSON = r.String("data_json")
	restoreMeta(&e.Meta, r)
	return r.Err()
}

func (e *ContentEntry) Bind(f Fields) error {
	f.Text("content_type_id", &e.ContentTypeID, 64)
	if f.Has("entry_key") {
		e.EntryKey = KeyName(Clean(f["entry_key"], 120))
	}
	f.Text("title", &e.Title, 200)
	f.Text("locale", &e.Locale, 20)
	if e.Locale == "" {
		e.Locale = defaultLocale
	}
	if err := Require(
		Requirement{"content_type_id", e.ContentTypeID},
		Requirement{"entry_key", e.EntryKey},
		Requirement{"title", e.Title},
	); err != nil {
		return err
	}
	return f.JSON("data_json", &e.DataJSON, ShapeObject)
}
